// Package textunit converts between the offset units used around the
// mapping core: byte offsets reported by parsers and rune offsets used by
// anchors, plus grapheme cluster boundaries for caret placement.
package textunit

import (
	"sort"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Index converts byte offsets of one string to rune offsets and back.
// It is immutable and safe for concurrent use.
type Index struct {
	// starts[i] is the byte offset of rune i; starts[len] is len(text).
	starts []int
}

// NewIndex builds an index for text.
func NewIndex(text string) *Index {
	starts := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		starts = append(starts, i)
	}
	starts = append(starts, len(text))
	return &Index{starts: starts}
}

// RuneLen returns the length of the indexed text in runes.
func (x *Index) RuneLen() int {
	return len(x.starts) - 1
}

// ByteLen returns the length of the indexed text in bytes.
func (x *Index) ByteLen() int {
	return x.starts[len(x.starts)-1]
}

// ByteToRune returns the rune offset of the rune holding byte offset b.
// Offsets outside the text are clamped.
func (x *Index) ByteToRune(b int) int {
	if b <= 0 {
		return 0
	}
	if b >= x.ByteLen() {
		return x.RuneLen()
	}
	i := sort.SearchInts(x.starts, b)
	if x.starts[i] == b {
		return i
	}
	return i - 1
}

// RuneToByte returns the byte offset of rune offset r, clamped.
func (x *Index) RuneToByte(r int) int {
	if r <= 0 {
		return 0
	}
	if r >= x.RuneLen() {
		return x.ByteLen()
	}
	return x.starts[r]
}

// RuneCount returns the number of runes in s.
func RuneCount(s string) int {
	return utf8.RuneCountInString(s)
}

// SnapToGrapheme moves the rune offset back to the start of the grapheme
// cluster containing it, so a caret never splits a combining sequence or
// an emoji. Offsets are clamped to [0, RuneCount(text)].
func SnapToGrapheme(text string, offset int) int {
	if offset <= 0 {
		return 0
	}
	pos := 0
	state := -1
	rest := text
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		n := utf8.RuneCountInString(cluster)
		if offset < pos+n {
			return pos
		}
		pos += n
	}
	return pos
}

// GraphemeCount returns the number of user-perceived characters in text.
func GraphemeCount(text string) int {
	return uniseg.GraphemeClusterCount(text)
}
