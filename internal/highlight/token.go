package highlight

// TokenKind classifies a highlighted span.
type TokenKind uint8

// Token kinds.
const (
	TokenText TokenKind = iota
	TokenHeading
	TokenEmphasis
	TokenStrong
	TokenStrikethrough
	TokenCode
	TokenCodeBlock
	TokenFence
	TokenLink
	TokenImage
	TokenListMarker
	TokenBlockquote
	TokenThematicBreak
	TokenHTML
)

var tokenNames = [...]string{
	TokenText:          "text",
	TokenHeading:       "heading",
	TokenEmphasis:      "emphasis",
	TokenStrong:        "strong",
	TokenStrikethrough: "strikethrough",
	TokenCode:          "code",
	TokenCodeBlock:     "code-block",
	TokenFence:         "fence",
	TokenLink:          "link",
	TokenImage:         "image",
	TokenListMarker:    "list-marker",
	TokenBlockquote:    "blockquote",
	TokenThematicBreak: "thematic-break",
	TokenHTML:          "html",
}

// String returns the kind name.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return "unknown"
}

// Span is a highlighted source range.
type Span struct {
	Range
	Kind TokenKind
}

// Highlighter produces spans for the part of source inside target.
type Highlighter interface {
	Highlight(source string, target Range) []Span
}
