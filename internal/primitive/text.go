package primitive

import (
	"fmt"

	gofuzz "github.com/google/gofuzz"
)

// classicStringLibrary is the static heuristic fuzz list boofuzz ships for
// string primitives: format-string bugs, overlong lengths, path traversal,
// null-byte truncation, and the usual off-by-one boundary lengths.
var classicStringLibrary = []string{
	"",
	"%s%s%s%s%s%s%s%s%s%s",
	"%n%n%n%n%n%n%n%n%n%n",
	"\x00",
	"\r\n" + "\r\n",
	"../../../../../../../../etc/passwd",
	"..\\..\\..\\..\\..\\..\\..\\..\\windows\\win.ini",
	"'", "\"", "`", ";", "|", "&",
}

func repeatedLengthStrings() []string {
	out := make([]string, 0, 8)
	for _, n := range []int{1, 127, 128, 255, 256, 1000, 5000, 65535} {
		out = append(out, string(make([]byte, n)))
	}
	return out
}

// RandomTail returns a GeneratorLibrary of count additional candidate
// values of length up to maxLen, generated by a seeded gofuzz.Fuzzer.
// Seeding deterministically on the primitive's name and the entry index
// makes At(i) return the same bytes on every call, keeping the library
// (and therefore the whole traversal) reproducible across runs.
func RandomTail(name string, count, maxLen int, isString bool) Library {
	seed := int64(0)
	for _, c := range name {
		seed = seed*31 + int64(c)
	}
	return GeneratorLibrary{
		Size: count,
		Gen: func(i int) []byte {
			f := gofuzz.NewWithSeed(seed+int64(i)).NilChance(0).NumElements(1, maxLen)
			if isString {
				var s string
				f.Fuzz(&s)
				if len(s) > maxLen {
					s = s[:maxLen]
				}
				return []byte(s)
			}
			var b []byte
			f.Fuzz(&b)
			if len(b) > maxLen {
				b = b[:maxLen]
			}
			return b
		},
	}
}

// NewString builds a fuzzable string primitive. extra, if non-empty, is
// appended to the classic static library before the randomized tail.
func NewString(name, defaultValue string, extra []string, randomTailSize int) *Primitive {
	static := make([][]byte, 0, len(classicStringLibrary)+len(repeatedLengthStrings())+len(extra))
	for _, s := range classicStringLibrary {
		static = append(static, []byte(s))
	}
	for _, s := range repeatedLengthStrings() {
		static = append(static, []byte(s))
	}
	for _, s := range extra {
		static = append(static, []byte(s))
	}

	var lib Library = SliceLibrary(static)
	if randomTailSize > 0 {
		lib = ChainLibrary{lib, RandomTail(name, randomTailSize, 4096, true)}
	}

	return &Primitive{
		kind:         KindString,
		name:         name,
		fuzzable:     true,
		defaultValue: []byte(defaultValue),
		library:      lib,
	}
}

// NewBytes builds a fuzzable opaque byte-string primitive, analogous to
// NewString but without the text-specific heuristics.
func NewBytes(name string, defaultValue []byte, extra [][]byte, randomTailSize int) *Primitive {
	static := make([][]byte, 0, len(repeatedLengthStrings())+len(extra))
	for _, s := range repeatedLengthStrings() {
		static = append(static, []byte(s))
	}
	static = append(static, extra...)

	var lib Library = SliceLibrary(static)
	if randomTailSize > 0 {
		lib = ChainLibrary{lib, RandomTail(name, randomTailSize, 4096, false)}
	}

	return &Primitive{
		kind:         KindBytes,
		name:         name,
		fuzzable:     true,
		defaultValue: append([]byte(nil), defaultValue...),
		library:      lib,
	}
}

// NewGroup builds a Group primitive: it enumerates exactly the given
// values (defaultValue is mutation index 0, i.e. not itself repeated in
// values). A Block declares a dependency on a Group by holding it in a
// block.GroupDependency and is only
// rendered when the group's CurrentValue() is in its permitted set.
func NewGroup(name string, defaultValue []byte, values [][]byte) *Primitive {
	lib := make(SliceLibrary, len(values))
	copy(lib, values)
	return &Primitive{
		kind:         KindGroup,
		name:         name,
		fuzzable:     true,
		defaultValue: defaultValue,
		library:      lib,
	}
}

// DebugString is a human-oriented summary, useful in logs and test
// failures.
func (p *Primitive) DebugString() string {
	return fmt.Sprintf("primitive(name=%q, kind=%s, mutant=%d/%d)", p.name, p.kind, p.mutantIndex, p.NumMutations())
}
