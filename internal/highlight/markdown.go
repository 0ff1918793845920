package highlight

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// rule is one inline pattern. Earlier rules claim text first.
type rule struct {
	pattern  *regexp.Regexp
	kind     TokenKind
	submatch int
}

// lineState carries fenced code state from one line to the next.
type lineState struct {
	inFence   bool
	fenceChar byte
	fenceLen  int
}

var (
	headingLine  = regexp.MustCompile(`^ {0,3}#{1,6}(?:[ \t]|$)`)
	setextLine   = regexp.MustCompile(`^ {0,3}(?:=+|-+)[ \t]*$`)
	thematicLine = regexp.MustCompile(`^ {0,3}(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	quotePrefix  = regexp.MustCompile(`^(?: {0,3}>[ \t]?)+`)
	listMarker   = regexp.MustCompile(`^[ \t]*([-*+]|\d{1,9}[.)])(?:[ \t]|$)`)
)

// Markdown is a line-based Markdown highlighter. The zero value is not
// usable; call NewMarkdown.
type Markdown struct {
	rules []rule
}

// NewMarkdown creates a Markdown highlighter with the default inline rules.
func NewMarkdown() *Markdown {
	return &Markdown{rules: []rule{
		{pattern: regexp.MustCompile("`+[^`]+`+"), kind: TokenCode},
		{pattern: regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`), kind: TokenImage},
		{pattern: regexp.MustCompile(`\[[^\]]+\]\([^)]*\)`), kind: TokenLink},
		{pattern: regexp.MustCompile(`<(?:https?|mailto):[^>\s]+>`), kind: TokenLink},
		{pattern: regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9-]*(?:\s[^<>]*)?/?>`), kind: TokenHTML},
		{pattern: regexp.MustCompile(`\*\*[^*\s](?:[^*]*[^*\s])?\*\*|__[^_\s](?:[^_]*[^_\s])?__`), kind: TokenStrong},
		{pattern: regexp.MustCompile(`~~[^~]+~~`), kind: TokenStrikethrough},
		{pattern: regexp.MustCompile(`\*[^*\s](?:[^*]*[^*\s])?\*|\b_[^_\s](?:[^_]*[^_\s])?_\b`), kind: TokenEmphasis},
	}}
}

// Highlight implements Highlighter. Fence state is computed from the start
// of source; spans are clipped to target.
func (m *Markdown) Highlight(source string, target Range) []Span {
	total := utf8.RuneCountInString(source)
	target = Range{Start: clamp(target.Start, 0, total), End: clamp(target.End, 0, total)}

	var spans []Span
	var state lineState
	offset := 0 // rune offset of the current line
	for len(source) > 0 || offset == 0 {
		line := source
		rest := ""
		if i := strings.IndexByte(source, '\n'); i >= 0 {
			line, rest = source[:i], source[i+1:]
		}
		lineLen := utf8.RuneCountInString(line)
		lineRange := Range{Start: offset, End: offset + lineLen}

		if offset > target.End || (offset == target.End && !target.IsEmpty()) {
			break
		}
		var lineSpans []Span
		lineSpans, state = m.line(line, state)
		if lineRange.Touches(target) {
			for _, s := range lineSpans {
				s.Start += offset
				s.End += offset
				s.Range = s.Range.Intersect(target)
				if !s.IsEmpty() {
					spans = append(spans, s)
				}
			}
		}

		if len(source) == len(line) {
			break
		}
		source = rest
		offset += lineLen + 1
	}
	return spans
}

// line tokenizes one line given the state left by the previous one.
// Offsets are rune offsets within the line.
func (m *Markdown) line(line string, state lineState) ([]Span, lineState) {
	n := utf8.RuneCountInString(line)
	whole := func(kind TokenKind) []Span {
		if n == 0 {
			return nil
		}
		return []Span{{Range: Range{0, n}, Kind: kind}}
	}

	if ch, count, ok := fenceMarker(line); ok {
		switch {
		case !state.inFence:
			state = lineState{inFence: true, fenceChar: ch, fenceLen: count}
		case ch == state.fenceChar && count >= state.fenceLen && isClosingFence(line):
			state = lineState{}
		default:
			return whole(TokenCodeBlock), state
		}
		return whole(TokenFence), state
	}
	if state.inFence {
		return whole(TokenCodeBlock), state
	}

	if thematicLine.MatchString(line) {
		return whole(TokenThematicBreak), state
	}
	if headingLine.MatchString(line) || setextLine.MatchString(line) {
		return whole(TokenHeading), state
	}

	covered := make([]bool, len(line))
	var spans []Span
	claim := func(start, end int, kind TokenKind) {
		for i := start; i < end; i++ {
			if covered[i] {
				return
			}
		}
		for i := start; i < end; i++ {
			covered[i] = true
		}
		spans = append(spans, Span{Range: runeRange(line, start, end), Kind: kind})
	}

	body := 0
	if loc := quotePrefix.FindStringIndex(line); loc != nil {
		claim(loc[0], loc[1], TokenBlockquote)
		body = loc[1]
	}
	if loc := listMarker.FindStringSubmatchIndex(line[body:]); loc != nil {
		claim(body+loc[2], body+loc[3], TokenListMarker)
	}

	for _, r := range m.rules {
		for _, loc := range r.pattern.FindAllStringSubmatchIndex(line, -1) {
			start, end := loc[0], loc[1]
			if r.submatch > 0 && len(loc) > 2*r.submatch+1 {
				start, end = loc[2*r.submatch], loc[2*r.submatch+1]
			}
			if start >= 0 && end > start {
				claim(start, end, r.kind)
			}
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans, state
}

// fenceMarker reports whether line opens or closes a code fence and returns
// the fence character and run length.
func fenceMarker(line string) (byte, int, bool) {
	indent := 0
	for indent < len(line) && indent < 4 && line[indent] == ' ' {
		indent++
	}
	if indent > 3 || indent == len(line) {
		return 0, 0, false
	}
	ch := line[indent]
	if ch != '`' && ch != '~' {
		return 0, 0, false
	}
	count := 0
	for indent+count < len(line) && line[indent+count] == ch {
		count++
	}
	if count < 3 {
		return 0, 0, false
	}
	if ch == '`' && strings.IndexByte(line[indent+count:], '`') >= 0 {
		return 0, 0, false
	}
	return ch, count, true
}

// isClosingFence reports whether a fence line carries no info string.
func isClosingFence(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.Trim(trimmed, string(trimmed[0])) == ""
}

// runeRange converts a byte range within line to a rune range.
func runeRange(line string, start, end int) Range {
	rs := utf8.RuneCountInString(line[:start])
	return Range{Start: rs, End: rs + utf8.RuneCountInString(line[start:end])}
}
