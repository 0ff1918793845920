package highlight

import (
	"sort"
	"strings"
	"sync"
)

// Range is a half-open rune range [Start, End) in the source.
type Range struct {
	Start int
	End   int
}

// IsEmpty reports whether the range covers nothing.
func (r Range) IsEmpty() bool {
	return r.End <= r.Start
}

// Len returns the number of runes covered.
func (r Range) Len() int {
	if r.IsEmpty() {
		return 0
	}
	return r.End - r.Start
}

// Overlaps reports whether the ranges share at least one rune.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// Touches reports whether the ranges overlap or are adjacent.
func (r Range) Touches(other Range) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Union returns the smallest range covering both.
func (r Range) Union(other Range) Range {
	return Range{Start: min(r.Start, other.Start), End: max(r.End, other.End)}
}

// Intersect returns the overlap of the ranges, empty if none.
func (r Range) Intersect(other Range) Range {
	out := Range{Start: max(r.Start, other.Start), End: min(r.End, other.End)}
	if out.End < out.Start {
		out.End = out.Start
	}
	return out
}

// Merge sorts ranges and coalesces the ones that overlap or touch. Empty
// ranges are kept only when they touch nothing else, since an insertion
// point still needs its line re-highlighted. The input is not modified.
func Merge(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	work := make([]Range, len(ranges))
	copy(work, ranges)
	sort.Slice(work, func(i, j int) bool {
		if work[i].Start != work[j].Start {
			return work[i].Start < work[j].Start
		}
		return work[i].End < work[j].End
	})

	out := []Range{work[0]}
	for _, r := range work[1:] {
		last := &out[len(out)-1]
		if last.Touches(r) {
			*last = last.Union(r)
			continue
		}
		out = append(out, r)
	}
	return out
}

// Pending accumulates ranges awaiting a highlight pass. It is safe for
// concurrent use.
type Pending struct {
	mu     sync.Mutex
	ranges []Range
}

// Add records a range.
func (p *Pending) Add(r Range) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r.End < r.Start {
		r.Start, r.End = r.End, r.Start
	}
	p.ranges = append(p.ranges, r)
	if len(p.ranges) > 64 {
		p.ranges = Merge(p.ranges)
	}
}

// Take returns the merged pending ranges and clears the set.
func (p *Pending) Take() []Range {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := Merge(p.ranges)
	p.ranges = nil
	return out
}

// Len returns the number of merged pending ranges.
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(Merge(p.ranges))
}

// Clear drops all pending ranges.
func (p *Pending) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ranges = nil
}

// TargetRange widens edited to whole lines plus contextLines lines on each
// side. The result ends after the last line's newline. When the widened
// lines contain a code fence, the range runs to the end of the text since
// the fence changes the state of every later line.
func TargetRange(source string, edited Range, contextLines int) Range {
	text := []rune(source)
	n := len(text)
	start := clamp(min(edited.Start, edited.End), 0, n)
	end := clamp(max(edited.Start, edited.End), 0, n)
	if contextLines < 0 {
		contextLines = 0
	}

	for start > 0 && text[start-1] != '\n' {
		start--
	}
	for i := 0; i < contextLines && start > 0; i++ {
		start--
		for start > 0 && text[start-1] != '\n' {
			start--
		}
	}

	for end < n && text[end] != '\n' {
		end++
	}
	if end < n {
		end++
	}
	for i := 0; i < contextLines && end < n; i++ {
		for end < n && text[end] != '\n' {
			end++
		}
		if end < n {
			end++
		}
	}

	for _, line := range strings.Split(string(text[start:end]), "\n") {
		if _, _, ok := fenceMarker(line); ok {
			return Range{Start: start, End: n}
		}
	}
	return Range{Start: start, End: end}
}

// EditedRange returns the range of after that differs from before, found by
// trimming their common rune prefix and suffix. Identical texts yield an
// empty range at the end of after.
func EditedRange(before, after string) Range {
	a, b := []rune(before), []rune(after)
	n := min(len(a), len(b))
	p := 0
	for p < n && a[p] == b[p] {
		p++
	}
	s := 0
	for s < n-p && a[len(a)-1-s] == b[len(b)-1-s] {
		s++
	}
	return Range{Start: p, End: len(b) - s}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
