package render

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/dshills/mdsync/internal/anchor"
	"github.com/dshills/mdsync/internal/textunit"
)

// Rendered placeholders.
const (
	// AttachmentChar stands in for a rendered image.
	AttachmentChar = "\uFFFC"
	// ThematicBreakText is the rendered form of a thematic break.
	ThematicBreakText = "―――"

	checkedBox   = "☑ "
	uncheckedBox = "☐ "
	bullet       = "• "
)

// Typographic substitutions as plain characters. goldmark's defaults are
// HTML entities, which would leak into plain text.
var plainTypography = extension.TypographicSubstitutions{
	extension.LeftSingleQuote:  []byte("‘"),
	extension.RightSingleQuote: []byte("’"),
	extension.LeftDoubleQuote:  []byte("“"),
	extension.RightDoubleQuote: []byte("”"),
	extension.EnDash:           []byte("–"),
	extension.EmDash:           []byte("—"),
	extension.Ellipsis:         []byte("…"),
	extension.LeftAngleQuote:   []byte("«"),
	extension.RightAngleQuote:  []byte("»"),
	extension.Apostrophe:       []byte("’"),
}

type parserKey struct {
	gfm         bool
	typographer bool
}

// Goldmark renders Markdown to plain text with github.com/yuin/goldmark.
// The zero value is ready to use. A Goldmark is safe for concurrent use.
type Goldmark struct {
	mu      sync.Mutex
	parsers map[parserKey]parser.Parser
}

// NewGoldmark creates a goldmark renderer.
func NewGoldmark() *Goldmark {
	return &Goldmark{}
}

func (g *Goldmark) parserFor(opts Options) parser.Parser {
	key := parserKey{gfm: opts.GFM, typographer: opts.Typographer}

	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.parsers[key]; ok {
		return p
	}

	var exts []goldmark.Extender
	if opts.GFM {
		exts = append(exts, extension.GFM)
	}
	if opts.Typographer {
		exts = append(exts, extension.NewTypographer(
			extension.WithTypographicSubstitutions(plainTypography),
		))
	}
	p := goldmark.New(goldmark.WithExtensions(exts...)).Parser()

	if g.parsers == nil {
		g.parsers = make(map[parserKey]parser.Parser)
	}
	g.parsers[key] = p
	return p
}

// Render implements Renderer.
func (g *Goldmark) Render(source string, opts Options) (res *Result, err error) {
	if opts.MaxSourceBytes > 0 && len(source) > opts.MaxSourceBytes {
		return nil, &Error{SourceBytes: len(source), Err: ErrSourceTooLarge}
	}
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &Error{SourceBytes: len(source), Err: fmt.Errorf("%w: %v", ErrParserPanic, r)}
		}
	}()

	src := []byte(source)
	doc := g.parserFor(opts).Parse(text.NewReader(src))

	w := &walker{
		src:   src,
		index: textunit.NewIndex(source),
		opts:  opts,
		res:   &Result{},
	}
	if opts.BaseURL != "" {
		if base, perr := url.Parse(opts.BaseURL); perr == nil {
			w.base = base
		}
	}
	w.blocks(doc, 0)
	w.res.Text = w.out.String()
	w.res.MaxID = w.nextID
	return w.res, nil
}

// walker accumulates one render pass.
type walker struct {
	src   []byte
	index *textunit.Index
	opts  Options
	base  *url.URL

	out     strings.Builder
	pos     int // runes written
	needSep bool
	prefix  string
	nextID  anchor.BlockID

	res *Result
}

func (w *walker) write(s string) {
	w.out.WriteString(s)
	w.pos += utf8.RuneCountInString(s)
}

func (w *walker) writeBytes(b []byte) {
	w.out.Write(b)
	w.pos += utf8.RuneCount(b)
}

// begin starts a leaf block and returns its rendered start.
func (w *walker) begin(depth int) int {
	if w.needSep {
		w.write("\n")
	}
	if depth > 0 {
		w.write(strings.Repeat("  ", depth))
	}
	if w.prefix != "" {
		w.write(w.prefix)
		w.prefix = ""
	}
	w.needSep = true
	return w.pos
}

// flushPrefix writes a list marker that no leaf block has claimed yet on a
// line of its own.
func (w *walker) flushPrefix(depth int) {
	if w.prefix == "" {
		return
	}
	w.prefix = strings.TrimRight(w.prefix, " ")
	w.begin(depth)
}

// record anchors a leaf block rendered at [start, w.pos).
func (w *walker) record(n ast.Node, kind anchor.BlockKind, start int) {
	s, e, ok := w.extent(n)
	if !ok {
		return
	}
	w.nextID++
	w.res.Anchors = append(w.res.Anchors, anchor.BlockAnchor{
		SourceStart:  w.index.ByteToRune(s),
		SourceEnd:    w.index.ByteToRune(e),
		TargetStart:  start,
		TargetLength: w.pos - start,
		BlockID:      w.nextID,
		Kind:         kind,
	})
	w.res.Fingerprints = append(w.res.Fingerprints, string(w.src[s:e]))
}

func (w *walker) blocks(parent ast.Node, depth int) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n, depth)
	}
}

func (w *walker) block(n ast.Node, depth int) {
	switch node := n.(type) {
	case *ast.Heading:
		start := w.begin(depth)
		w.inlines(node)
		w.record(node, anchor.KindHeading, start)

	case *ast.Paragraph, *ast.TextBlock:
		start := w.begin(depth)
		w.inlines(node)
		kind := anchor.KindParagraph
		if _, inItem := node.Parent().(*ast.ListItem); inItem && node.PreviousSibling() == nil {
			kind = anchor.KindListItem
		}
		w.record(node, kind, start)

	case *ast.FencedCodeBlock:
		if node.Lines().Len() == 0 && node.Info == nil {
			// Nothing to show and no source segment to anchor.
			return
		}
		start := w.begin(depth)
		w.codeLines(node)
		lang := ""
		if w.opts.CodeSyntaxHighlighting {
			lang = string(node.Language(w.src))
		}
		w.res.CodeBlocks = append(w.res.CodeBlocks, CodeBlock{Range: Range{start, w.pos}, Language: lang})
		w.record(node, anchor.KindCodeBlock, start)

	case *ast.CodeBlock:
		start := w.begin(depth)
		w.codeLines(node)
		w.res.CodeBlocks = append(w.res.CodeBlocks, CodeBlock{Range: Range{start, w.pos}})
		w.record(node, anchor.KindCodeBlock, start)

	case *ast.HTMLBlock:
		if w.opts.BlockHTML == HTMLIgnore {
			return
		}
		start := w.begin(depth)
		w.htmlLines(node)
		w.record(node, anchor.KindHTML, start)

	case *ast.ThematicBreak:
		// No source segments to anchor; offsets on it clamp to the preceding block.
		w.begin(depth)
		w.write(ThematicBreakText)

	case *ast.Blockquote:
		first := len(w.res.Anchors)
		w.blocks(node, depth)
		if len(w.res.Anchors) > first {
			w.res.Blockquotes = append(w.res.Blockquotes, Range{w.res.Anchors[first].TargetStart, w.pos})
		}

	case *ast.List:
		num := node.Start
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			if node.IsOrdered() {
				w.prefix = strconv.Itoa(num) + ". "
				num++
			} else {
				w.prefix = bullet
			}
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				if _, nested := c.(*ast.List); nested {
					w.flushPrefix(depth)
					w.block(c, depth+1)
				} else {
					w.block(c, depth)
				}
			}
			w.prefix = ""
		}

	case *east.Table:
		start := w.begin(depth)
		w.table(node)
		w.record(node, anchor.KindTable, start)

	default:
		if n.HasChildren() {
			w.blocks(n, depth)
		}
	}
}

func (w *walker) codeLines(n ast.Node) {
	lines := n.Lines()
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(w.src))
	}
	w.writeBytes(bytes.TrimRight(buf.Bytes(), "\r\n"))
}

func (w *walker) htmlLines(n *ast.HTMLBlock) {
	lines := n.Lines()
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(w.src))
	}
	if n.HasClosure() {
		buf.Write(n.ClosureLine.Value(w.src))
	}
	w.writeBytes(bytes.TrimRight(buf.Bytes(), "\r\n"))
}

func (w *walker) table(t *east.Table) {
	firstRow := true
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		if !firstRow {
			w.write("\n")
		}
		firstRow = false
		firstCell := true
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			if !firstCell {
				w.write("\t")
			}
			firstCell = false
			w.inlines(cell)
		}
	}
}

// inlines writes the inline content of a block.
func (w *walker) inlines(block ast.Node) {
	type open struct {
		node  ast.Node
		start int
		dest  string
	}
	var links []open

	_ = ast.Walk(block, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if n == block {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			if !entering {
				return ast.WalkContinue, nil
			}
			w.text(node.Segment.Value(w.src))
			switch {
			case node.HardLineBreak():
				w.write("\n")
			case node.SoftLineBreak():
				w.write(" ")
			}

		case *ast.String:
			if !entering {
				return ast.WalkContinue, nil
			}
			if node.IsCode() || node.IsRaw() {
				w.writeBytes(node.Value)
			} else {
				w.text(node.Value)
			}

		case *ast.CodeSpan:
			if entering {
				for c := node.FirstChild(); c != nil; c = c.NextSibling() {
					switch t := c.(type) {
					case *ast.Text:
						w.writeBytes(t.Segment.Value(w.src))
					case *ast.String:
						w.writeBytes(t.Value)
					}
				}
			}
			return ast.WalkSkipChildren, nil

		case *ast.Image:
			if entering && w.showImage(node.Destination) {
				w.write(AttachmentChar)
				return ast.WalkSkipChildren, nil
			}

		case *ast.Link:
			if entering {
				links = append(links, open{node: node, start: w.pos, dest: string(node.Destination)})
			} else if k := len(links); k > 0 && links[k-1].node == node {
				l := links[k-1]
				links = links[:k-1]
				w.res.Links = append(w.res.Links, Link{Range: Range{l.start, w.pos}, URL: w.resolve(l.dest)})
			}

		case *ast.AutoLink:
			if entering {
				start := w.pos
				w.writeBytes(node.Label(w.src))
				dest := string(node.URL(w.src))
				if node.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(dest, "mailto:") {
					dest = "mailto:" + dest
				}
				w.res.Links = append(w.res.Links, Link{Range: Range{start, w.pos}, URL: dest})
			}
			return ast.WalkSkipChildren, nil

		case *ast.RawHTML:
			if entering && w.opts.InlineHTML == HTMLRenderAsText {
				for i := 0; i < node.Segments.Len(); i++ {
					seg := node.Segments.At(i)
					w.writeBytes(seg.Value(w.src))
				}
			}
			return ast.WalkSkipChildren, nil

		case *east.TaskCheckBox:
			if entering {
				if node.IsChecked {
					w.write(checkedBox)
				} else {
					w.write(uncheckedBox)
				}
			}
		}
		return ast.WalkContinue, nil
	})
}

// text writes inline text with escapes and entities resolved.
func (w *walker) text(raw []byte) {
	v := util.UnescapePunctuations(raw)
	v = util.ResolveNumericReferences(v)
	v = util.ResolveEntityNames(v)
	if w.opts.Math == MathStyledText {
		v = stripMath(v, w.opts.MaxMathFormulaLength)
	}
	w.writeBytes(v)
}

func (w *walker) showImage(dest []byte) bool {
	if !w.opts.RenderImages {
		return false
	}
	return w.opts.AllowRemoteImages || !isRemote(w.resolve(string(dest)))
}

func (w *walker) resolve(dest string) string {
	if w.base == nil || dest == "" {
		return dest
	}
	ref, err := url.Parse(dest)
	if err != nil {
		return dest
	}
	return w.base.ResolveReference(ref).String()
}

func isRemote(dest string) bool {
	u, err := url.Parse(dest)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// stripMath removes the $ delimiters of formulas no longer than max runes.
// A formula must not start or end with a space, matching the usual $...$
// convention that keeps prices like "$5 and $6" intact.
func stripMath(v []byte, max int) []byte {
	if bytes.IndexByte(v, '$') < 0 {
		return v
	}
	var out []byte
	for i := 0; i < len(v); {
		if v[i] != '$' {
			out = append(out, v[i])
			i++
			continue
		}
		j := bytes.IndexByte(v[i+1:], '$')
		if j <= 0 {
			out = append(out, v[i:]...)
			break
		}
		inner := v[i+1 : i+1+j]
		if inner[0] == ' ' || inner[len(inner)-1] == ' ' || (max > 0 && utf8.RuneCount(inner) > max) {
			out = append(out, '$')
			i++
			continue
		}
		out = append(out, inner...)
		i += j + 2
	}
	return out
}

// extent returns the source byte range of a leaf block: from the start of
// its first line, markup included, to the end of its last line, newline
// excluded.
func (w *walker) extent(n ast.Node) (int, int, bool) {
	lo, hi := -1, -1
	grow := func(seg text.Segment) {
		if seg.Stop <= seg.Start {
			return
		}
		if lo < 0 || seg.Start < lo {
			lo = seg.Start
		}
		if seg.Stop > hi {
			hi = seg.Stop
		}
	}
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if c.Type() == ast.TypeBlock {
			lines := c.Lines()
			for i := 0; i < lines.Len(); i++ {
				grow(lines.At(i))
			}
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			grow(t.Segment)
		case *ast.RawHTML:
			for i := 0; i < t.Segments.Len(); i++ {
				grow(t.Segments.At(i))
			}
		}
		return ast.WalkContinue, nil
	})

	if fenced, ok := n.(*ast.FencedCodeBlock); ok {
		lo, hi = w.fenceExtent(fenced, lo, hi)
	}
	if html, ok := n.(*ast.HTMLBlock); ok && html.HasClosure() {
		grow(html.ClosureLine)
	}
	if lo < 0 {
		return 0, 0, false
	}
	start := w.lineStart(lo)
	end := w.lineEnd(hi)
	if end < start {
		end = start
	}
	return start, end, true
}

// fenceExtent widens a fenced code block's content range to its fences.
func (w *walker) fenceExtent(n *ast.FencedCodeBlock, lo, hi int) (int, int) {
	if lo < 0 {
		if n.Info == nil {
			return lo, hi
		}
		lo, hi = n.Info.Segment.Start, n.Info.Segment.Stop
	} else if ls := w.lineStart(lo); ls > 0 {
		// The opening fence is the line before the first content line.
		lo = w.lineStart(ls - 1)
	}

	// Include the closing fence when the next line is one.
	next := w.lineEnd(hi) + 1
	if next < len(w.src) {
		end := bytes.IndexByte(w.src[next:], '\n')
		if end < 0 {
			end = len(w.src) - next
		}
		line := bytes.TrimSpace(w.src[next : next+end])
		if bytes.HasPrefix(line, []byte("```")) || bytes.HasPrefix(line, []byte("~~~")) {
			hi = next + end
		}
	}
	return lo, hi
}

func (w *walker) lineStart(p int) int {
	if p > len(w.src) {
		p = len(w.src)
	}
	return bytes.LastIndexByte(w.src[:p], '\n') + 1
}

// lineEnd returns the offset of the newline ending the line that holds the
// last byte before stop, or len(src) for the final line.
func (w *walker) lineEnd(stop int) int {
	if stop > len(w.src) {
		stop = len(w.src)
	}
	if stop <= 0 {
		return 0
	}
	var end int
	if w.src[stop-1] == '\n' {
		end = stop - 1
	} else if i := bytes.IndexByte(w.src[stop:], '\n'); i >= 0 {
		end = stop + i
	} else {
		end = len(w.src)
	}
	if end > 0 && w.src[end-1] == '\r' {
		end--
	}
	return end
}
