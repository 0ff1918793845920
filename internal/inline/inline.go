// Package inline computes inline formatting toggles such as wrapping a
// selection in ** or removing the markers around it.
package inline

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by ComputeToggleEdit.
var (
	ErrEmptyMarker         = errors.New("empty formatting marker")
	ErrSelectionOutOfRange = errors.New("selection out of range")
)

// Range is a half-open rune range.
type Range struct {
	Start int
	End   int
}

// Len returns the number of runes in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Edit replaces Replace with Replacement and then selects NextSelection,
// all in rune offsets. NextSelection refers to the edited text.
type Edit struct {
	Replace       Range
	Replacement   string
	NextSelection Range
}

// Apply returns source with the edit applied.
func (e Edit) Apply(source string) string {
	text := []rune(source)
	var b strings.Builder
	b.WriteString(string(text[:e.Replace.Start]))
	b.WriteString(e.Replacement)
	b.WriteString(string(text[e.Replace.End:]))
	return b.String()
}

// ComputeToggleEdit returns the edit that toggles prefix/suffix formatting
// around sel. An empty suffix uses prefix. When sel is already wrapped,
// either just outside or just inside, the markers are removed; an empty
// selection inserts the markers around placeholder and selects it;
// otherwise sel is wrapped.
func ComputeToggleEdit(source string, sel Range, prefix, suffix, placeholder string) (Edit, error) {
	if prefix == "" {
		return Edit{}, ErrEmptyMarker
	}
	if suffix == "" {
		suffix = prefix
	}
	text := []rune(source)
	if sel.Start < 0 || sel.End < sel.Start || sel.End > len(text) {
		return Edit{}, fmt.Errorf("%w: [%d,%d) in %d runes", ErrSelectionOutOfRange, sel.Start, sel.End, len(text))
	}

	pre, suf := []rune(prefix), []rune(suffix)
	lp, ls := len(pre), len(suf)
	selected := string(text[sel.Start:sel.End])

	// Markers just outside the selection.
	if sel.Start >= lp && sel.End+ls <= len(text) &&
		string(text[sel.Start-lp:sel.Start]) == prefix &&
		string(text[sel.End:sel.End+ls]) == suffix {
		return Edit{
			Replace:       Range{sel.Start - lp, sel.End + ls},
			Replacement:   selected,
			NextSelection: Range{sel.Start - lp, sel.End - lp},
		}, nil
	}

	// Markers at the edges of the selection.
	if sel.Len() >= lp+ls && strings.HasPrefix(selected, prefix) && strings.HasSuffix(selected, suffix) {
		inner := string(text[sel.Start+lp : sel.End-ls])
		return Edit{
			Replace:       sel,
			Replacement:   inner,
			NextSelection: Range{sel.Start, sel.End - lp - ls},
		}, nil
	}

	if sel.Len() == 0 {
		n := len([]rune(placeholder))
		return Edit{
			Replace:       sel,
			Replacement:   prefix + placeholder + suffix,
			NextSelection: Range{sel.Start + lp, sel.Start + lp + n},
		}, nil
	}

	return Edit{
		Replace:       sel,
		Replacement:   prefix + selected + suffix,
		NextSelection: Range{sel.Start + lp, sel.End + lp},
	}, nil
}
