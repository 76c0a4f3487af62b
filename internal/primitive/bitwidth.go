// Copyright 2017 The go-ethereum Authors
// (original work)
// Copyright 2024 The Erigon Authors
// (modifications)
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package primitive

import "encoding/binary"

// Integer width/boundary helpers for the Uint primitive kind and the Size
// primitive in package block. Adapted from erigon-lib's common/math
// integer helpers: same overflow-aware arithmetic, repurposed for
// width-bounded mutation libraries instead of EVM gas accounting.

const (
	maxUint8  = 1<<8 - 1
	maxUint16 = 1<<16 - 1
	maxUint32 = 1<<32 - 1
	maxUint64 = 1<<64 - 1
)

// EncodeUint renders value in width bytes (1, 2, 4 or 8), in the given
// byte order. Values that don't fit are truncated to the low width bytes,
// which is exactly the "wrap" boundary behavior the fuzz library wants to
// exercise (an overflowed field, not a panic).
func EncodeUint(width int, bigEndian bool, value uint64) []byte {
	buf := make([]byte, 8)
	if bigEndian {
		binary.BigEndian.PutUint64(buf, value)
	} else {
		binary.LittleEndian.PutUint64(buf, value)
	}
	if bigEndian {
		return buf[8-width:]
	}
	return buf[:width]
}

func maxForWidth(width int) uint64 {
	switch width {
	case 1:
		return maxUint8
	case 2:
		return maxUint16
	case 4:
		return maxUint32
	default:
		return maxUint64
	}
}

// boundaryValues returns the classic set of interesting integers for a
// field of the given bit width: zero, one, the halfway point, max-1, max
// (the signed-equivalent -1), and one past max (which truncates back to 0
// via EncodeUint's wraparound, deliberately exercising overflow).
func boundaryValues(width int) []uint64 {
	max := maxForWidth(width)
	vals := []uint64{0, 1, max / 2, max - 1, max, max + 1}
	if width < 8 {
		// Also exercise the adjacent wider-width boundary, a classic
		// boofuzz heuristic for catching truncation bugs (e.g. a 2-byte
		// field that should reject values needing a 3rd byte).
		vals = append(vals, maxForWidth(width*2))
	}
	return vals
}

// NewUint builds a fuzzable fixed-width integer primitive. width must be
// 1, 2, 4 or 8.
func NewUint(name string, width int, bigEndian bool, defaultValue uint64) *Primitive {
	bounds := boundaryValues(width)
	lib := make(SliceLibrary, len(bounds))
	for i, v := range bounds {
		lib[i] = EncodeUint(width, bigEndian, v)
	}
	return &Primitive{
		kind:         KindUint,
		name:         name,
		fuzzable:     true,
		defaultValue: EncodeUint(width, bigEndian, defaultValue),
		library:      lib,
		width:        width,
		bigEndian:    bigEndian,
	}
}

// Width reports the byte width of a KindUint primitive (0 for other
// kinds).
func (p *Primitive) Width() int {
	if p.kind != KindUint {
		return 0
	}
	return p.width
}
