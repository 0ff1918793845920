package render

import (
	"fmt"

	"github.com/dshills/mdsync/internal/anchor"
)

// Renderer produces rendered text and anchors for Markdown source.
// Implementations must be safe for use from a single worker goroutine while
// other goroutines read previously returned results.
type Renderer interface {
	Render(source string, opts Options) (*Result, error)
}

// Range is a half-open rune range in rendered text.
type Range struct {
	Start int
	End   int
}

// Len returns the number of runes in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Contains reports whether offset lies in the range. The end is inclusive so
// a caret sitting after the last rune still belongs to the range.
func (r Range) Contains(offset int) bool {
	return offset >= r.Start && offset <= r.End
}

// String returns the range as "[start,end)".
func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// CodeBlock is a rendered code block.
type CodeBlock struct {
	Range
	// Language is the fenced info language. Empty when the block is indented,
	// has no info string, or syntax highlighting is disabled.
	Language string
}

// Link is a rendered link or autolink.
type Link struct {
	Range
	// URL is the destination resolved against Options.BaseURL.
	URL string
}

// Result is the output of one render pass. A Result is immutable once
// returned.
type Result struct {
	// Text is the rendered text.
	Text string
	// Anchors holds one anchor per rendered leaf block, in order.
	Anchors anchor.List
	// Fingerprints holds the source text of each anchored block, parallel
	// to Anchors. It feeds identity carry-over.
	Fingerprints []string
	// MaxID is the highest block id issued so far, this pass or any pass
	// whose ids were carried into it.
	MaxID anchor.BlockID

	CodeBlocks  []CodeBlock
	Blockquotes []Range
	Links       []Link
}

// RuneLen returns the rendered text length in runes.
func (r *Result) RuneLen() int {
	if r == nil {
		return 0
	}
	n := 0
	for range r.Text {
		n++
	}
	return n
}

// BlockquoteAt returns the blockquote range containing the rendered offset.
func (r *Result) BlockquoteAt(offset int) (Range, bool) {
	for _, q := range r.Blockquotes {
		if q.Contains(offset) {
			return q, true
		}
	}
	return Range{}, false
}

// CodeBlockAt returns the code block containing the rendered offset.
func (r *Result) CodeBlockAt(offset int) (CodeBlock, bool) {
	for _, c := range r.CodeBlocks {
		if c.Contains(offset) {
			return c, true
		}
	}
	return CodeBlock{}, false
}
