package block

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/binary"
	"hash/crc32"

	"golang.org/x/crypto/sha3"

	"github.com/windyware/boofuzz/internal/primitive"
	"github.com/windyware/boofuzz/internal/render"
)

// Algorithm names a supported checksum function.
type Algorithm string

const (
	AlgoCRC32 Algorithm = "crc32"
	AlgoMD5   Algorithm = "md5"
	AlgoSHA1  Algorithm = "sha1"
	AlgoSHA3  Algorithm = "sha3"
	AlgoIPv4  Algorithm = "ipv4"
	AlgoUDP   Algorithm = "udp"
	AlgoTCP   Algorithm = "tcp"
)

// PseudoHeader carries the contextual attributes a transport checksum
// (udp/tcp) needs: the source/destination addresses and protocol number
// of the IPv4 pseudo-header, since they cannot be derived from the
// referenced block's bytes alone.
type PseudoHeader struct {
	SrcIP    [4]byte
	DstIP    [4]byte
	Protocol uint8
}

// Checksum references a target Block by name and renders a configured
// hash of that block's rendered bytes, optionally under a
// protocol-specific pseudo-header. Like Size, it may be inert (always the
// true checksum) or fuzzed.
type Checksum struct {
	name       string
	targetName string
	target     *Block
	algo       Algorithm
	pseudo     *PseudoHeader

	lib         primitive.Library
	mutantIndex int
	fuzzable    bool
}

// NewChecksum builds a Checksum primitive named name over the block
// targetName, using algo. When fuzzable, it cycles through a small
// library of corrupted checksum values instead of the true one.
func NewChecksum(name, targetName string, algo Algorithm, fuzzable bool) *Checksum {
	c := &Checksum{name: name, targetName: targetName, algo: algo, fuzzable: fuzzable}
	if fuzzable {
		c.lib = corruptChecksumLibrary(algo)
	}
	return c
}

// WithPseudoHeader attaches the contextual pseudo-header attributes
// required by the udp/tcp algorithms.
func (c *Checksum) WithPseudoHeader(p PseudoHeader) *Checksum {
	c.pseudo = &p
	return c
}

func (c *Checksum) SetTarget(b *Block) { c.target = b }

func (c *Checksum) Name() string       { return c.name }
func (c *Checksum) TargetName() string { return c.targetName }
func (c *Checksum) IsFuzzable() bool   { return c.fuzzable }
func (c *Checksum) MutantIndex() int   { return c.mutantIndex }

func (c *Checksum) PlaceholderLen() int {
	return len(c.compute(nil))
}

func (c *Checksum) NumMutations() int {
	if !c.fuzzable || c.lib == nil {
		return 0
	}
	return c.lib.Len()
}

func (c *Checksum) Mutate() bool {
	n := c.NumMutations()
	if n == 0 {
		return false
	}
	if c.mutantIndex >= n {
		c.Reset()
		return false
	}
	c.mutantIndex++
	return true
}

func (c *Checksum) Reset() { c.mutantIndex = 0 }

// ForceExhaust jumps straight to exhausted (see primitive.Primitive's
// method of the same name).
func (c *Checksum) ForceExhaust() int {
	n := c.NumMutations()
	skipped := n - c.mutantIndex
	c.mutantIndex = n
	return skipped
}

func (c *Checksum) isInert() bool { return c.mutantIndex == 0 }

// ValueGiven computes the checksum given the already-assembled bytes of
// its own enclosing (self-referencing) block.
func (c *Checksum) ValueGiven(ctx *render.Context, assembled []byte) []byte {
	if !c.isInert() {
		return c.lib.At(c.mutantIndex - 1)
	}
	return c.compute(assembled)
}

// Render renders this Checksum where the target is a block other than
// the one containing it.
func (c *Checksum) Render(ctx *render.Context) []byte {
	if !c.isInert() {
		return c.lib.At(c.mutantIndex - 1)
	}
	if c.target == nil {
		return c.compute(nil)
	}
	return c.compute(c.target.Render(ctx))
}

func (c *Checksum) compute(payload []byte) []byte {
	switch c.algo {
	case AlgoMD5:
		sum := md5.Sum(payload)
		return sum[:]
	case AlgoSHA1:
		sum := sha1.Sum(payload)
		return sum[:]
	case AlgoSHA3:
		sum := sha3.Sum256(payload)
		return sum[:]
	case AlgoIPv4:
		return ipChecksum(payload)
	case AlgoUDP, AlgoTCP:
		return transportChecksum(payload, c.pseudo, c.algo)
	case AlgoCRC32:
		fallthrough
	default:
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], crc32.ChecksumIEEE(payload))
		return buf[:]
	}
}

// ipChecksum computes the IPv4 header's ones'-complement checksum.
func ipChecksum(data []byte) []byte {
	sum := onesComplementSum(data)
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], sum)
	return buf[:]
}

// transportChecksum computes the UDP/TCP checksum over a synthesized
// IPv4 pseudo-header followed by the payload.
func transportChecksum(payload []byte, p *PseudoHeader, algo Algorithm) []byte {
	var proto uint8 = 17 // UDP
	if algo == AlgoTCP {
		proto = 6
	}
	var pseudo []byte
	if p != nil {
		proto = p.Protocol
		pseudo = append(pseudo, p.SrcIP[:]...)
		pseudo = append(pseudo, p.DstIP[:]...)
	} else {
		pseudo = append(pseudo, make([]byte, 8)...)
	}
	pseudo = append(pseudo, 0, proto)
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(payload)))
	pseudo = append(pseudo, lenBuf[:]...)
	pseudo = append(pseudo, payload...)

	sum := onesComplementSum(pseudo)
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], sum)
	return buf[:]
}

// onesComplementSum implements the classic IP/UDP/TCP ones'-complement
// checksum: sum 16-bit words, fold carries, complement.
func onesComplementSum(data []byte) uint16 {
	var sum uint32
	n := len(data)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(data[i])<<8 | uint32(data[i+1])
	}
	if n%2 == 1 {
		sum += uint32(data[n-1]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xFFFF) + (sum >> 16)
	}
	return ^uint16(sum)
}

func corruptChecksumLibrary(algo Algorithm) primitive.SliceLibrary {
	width := 4
	switch algo {
	case AlgoMD5:
		width = 16
	case AlgoSHA1:
		width = 20
	case AlgoSHA3:
		width = 32
	case AlgoIPv4, AlgoUDP, AlgoTCP:
		width = 2
	}
	return primitive.SliceLibrary{
		make([]byte, width),
		bytesOfLen(width, 0xFF),
	}
}

func bytesOfLen(n int, b byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
