package anchor

import (
	"fmt"
	"sort"
)

// BlockID identifies one rendered block. It is unique within a render pass
// and carried across passes on a best-effort basis only.
type BlockID uint64

// BlockKind classifies the Markdown block an anchor was produced for.
// It is informational; mapping never looks at it.
type BlockKind uint8

// Block kinds.
const (
	KindUnknown BlockKind = iota
	KindParagraph
	KindHeading
	KindCodeBlock
	KindBlockquote
	KindListItem
	KindTable
	KindThematicBreak
	KindHTML
)

// String returns the kind name.
func (k BlockKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindCodeBlock:
		return "code"
	case KindBlockquote:
		return "blockquote"
	case KindListItem:
		return "list-item"
	case KindTable:
		return "table"
	case KindThematicBreak:
		return "hr"
	case KindHTML:
		return "html"
	default:
		return "unknown"
	}
}

// BlockAnchor links the source range [SourceStart, SourceEnd) to the
// rendered range [TargetStart, TargetStart+TargetLength).
type BlockAnchor struct {
	SourceStart  int
	SourceEnd    int
	TargetStart  int
	TargetLength int
	BlockID      BlockID
	Kind         BlockKind
}

// SourceLen returns the length of the source span.
func (a BlockAnchor) SourceLen() int {
	return a.SourceEnd - a.SourceStart
}

// TargetEnd returns the exclusive end of the rendered span.
func (a BlockAnchor) TargetEnd() int {
	return a.TargetStart + a.TargetLength
}

// ContainsSource reports whether offset lies in [SourceStart, SourceEnd].
// The end is inclusive so that a caret placed after the last character of a
// block still belongs to it.
func (a BlockAnchor) ContainsSource(offset int) bool {
	return offset >= a.SourceStart && offset <= a.SourceEnd
}

// ContainsTarget reports whether offset lies in [TargetStart, TargetEnd].
func (a BlockAnchor) ContainsTarget(offset int) bool {
	return offset >= a.TargetStart && offset <= a.TargetEnd()
}

// String formats the anchor for logs and test failures.
func (a BlockAnchor) String() string {
	return fmt.Sprintf("#%d %s src[%d,%d) dst[%d,%d)",
		a.BlockID, a.Kind, a.SourceStart, a.SourceEnd, a.TargetStart, a.TargetEnd())
}

// List is an ordered sequence of anchors from one render pass.
type List []BlockAnchor

// Len returns the number of anchors.
func (l List) Len() int { return len(l) }

// Clone returns a copy that shares no storage with l.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// ByID returns the anchor with the given block id.
func (l List) ByID(id BlockID) (BlockAnchor, bool) {
	for _, a := range l {
		if a.BlockID == id {
			return a, true
		}
	}
	return BlockAnchor{}, false
}

// IndexAtSource returns the index of the anchor whose source span holds
// offset, or -1. A shared boundary resolves to the later anchor.
func (l List) IndexAtSource(offset int) int {
	// The candidate is the last anchor starting at or before offset.
	i := sort.Search(len(l), func(i int) bool { return l[i].SourceStart > offset }) - 1
	if i >= 0 && l[i].ContainsSource(offset) {
		return i
	}
	return -1
}

// IndexAtTarget returns the index of the anchor whose rendered span holds
// offset, or -1. A shared boundary resolves to the later anchor.
func (l List) IndexAtTarget(offset int) int {
	i := sort.Search(len(l), func(i int) bool { return l[i].TargetStart > offset }) - 1
	if i >= 0 && l[i].ContainsTarget(offset) {
		return i
	}
	return -1
}

// Validate checks the ordering and non-overlap invariants and reports the
// first violation as an *InvariantError.
func Validate(l List) error {
	seen := make(map[BlockID]struct{}, len(l))
	for i, a := range l {
		switch {
		case a.SourceEnd < a.SourceStart:
			return &InvariantError{Index: i, Anchor: a, Err: ErrInvertedSource}
		case a.TargetStart < 0 || a.TargetLength < 0 || a.SourceStart < 0:
			return &InvariantError{Index: i, Anchor: a, Err: ErrNegativeTarget}
		}
		if _, dup := seen[a.BlockID]; dup {
			return &InvariantError{Index: i, Anchor: a, Err: ErrDuplicateID}
		}
		seen[a.BlockID] = struct{}{}

		if i == 0 {
			continue
		}
		prev := l[i-1]
		if a.SourceStart < prev.SourceStart || a.TargetStart < prev.TargetStart {
			return &InvariantError{Index: i, Anchor: a, Err: ErrOutOfOrder}
		}
		if a.SourceStart < prev.SourceEnd || a.TargetStart < prev.TargetEnd() {
			return &InvariantError{Index: i, Anchor: a, Err: ErrOverlap}
		}
	}
	return nil
}

// Normalize returns a well-formed copy of l for texts of the given lengths.
// Ranges are clamped to the texts, the list is sorted by source start, and
// any anchor that would break monotonicity or overlap its predecessor in
// either text is dropped. The input is never modified.
func Normalize(l List, sourceLen, targetLen int) List {
	if len(l) == 0 {
		return nil
	}
	work := make(List, 0, len(l))
	for _, a := range l {
		a.SourceStart = clamp(a.SourceStart, 0, sourceLen)
		a.SourceEnd = clamp(a.SourceEnd, a.SourceStart, sourceLen)
		a.TargetStart = clamp(a.TargetStart, 0, targetLen)
		a.TargetLength = clamp(a.TargetLength, 0, targetLen-a.TargetStart)
		work = append(work, a)
	}
	sort.SliceStable(work, func(i, j int) bool {
		if work[i].SourceStart != work[j].SourceStart {
			return work[i].SourceStart < work[j].SourceStart
		}
		return work[i].TargetStart < work[j].TargetStart
	})

	out := work[:0]
	for _, a := range work {
		if n := len(out); n > 0 {
			prev := out[n-1]
			if a.SourceStart < prev.SourceEnd || a.TargetStart < prev.TargetEnd() {
				continue
			}
		}
		out = append(out, a)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
