package mapping

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/dshills/mdsync/internal/anchor"
)

const (
	titleSource   = "# Title\n\nBody text."
	titleRendered = "Title\nBody text."
)

func titleAnchors() anchor.List {
	return anchor.List{
		{SourceStart: 0, SourceEnd: 7, TargetStart: 0, TargetLength: 5, BlockID: 1, Kind: anchor.KindHeading},
		{SourceStart: 9, SourceEnd: 19, TargetStart: 6, TargetLength: 10, BlockID: 2, Kind: anchor.KindParagraph},
	}
}

func TestMapSourceToTarget_Heading(t *testing.T) {
	got := MapSourceToTarget(titleSource, 2, titleRendered, titleAnchors())
	if got < 0 || got >= 5 {
		t.Fatalf("MapSourceToTarget(offset 2) = %d, want inside [0,5)", got)
	}
	if got < 1 || got > 3 {
		t.Errorf("MapSourceToTarget(offset 2) = %d, want about 2", got)
	}
}

func TestMapSourceToTarget_Table(t *testing.T) {
	tests := []struct {
		name     string
		location int
		want     int
	}{
		{"heading start", 0, 0},
		{"heading end", 7, 5},
		{"blank line gap", 8, 5},
		{"body start", 9, 6},
		{"body middle", 14, 11},
		{"body end", 19, 16},
		{"beyond end", 40, 16},
		{"negative", -3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapSourceToTarget(titleSource, tt.location, titleRendered, titleAnchors())
			if got != tt.want {
				t.Errorf("MapSourceToTarget(%d) = %d, want %d", tt.location, got, tt.want)
			}
		})
	}
}

func TestMapTargetToSource_Table(t *testing.T) {
	tests := []struct {
		name     string
		location int
		want     int
	}{
		{"heading start", 0, 0},
		{"inside heading", 3, 4},
		{"heading end", 5, 7},
		{"separator", 6, 9},
		{"body middle", 11, 14},
		{"body end", 16, 19},
		{"beyond end", 100, 19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapTargetToSource(titleSource, titleRendered, tt.location, titleAnchors())
			if got != tt.want {
				t.Errorf("MapTargetToSource(%d) = %d, want %d", tt.location, got, tt.want)
			}
		})
	}
}

func TestAnchorMapping_GapClampsToPrecedingAnchor(t *testing.T) {
	src := "aa\n\nbb"
	dst := "aa\n\n\nbb"
	anchors := anchor.List{
		{SourceStart: 0, SourceEnd: 2, TargetStart: 0, TargetLength: 2, BlockID: 1},
		{SourceStart: 4, SourceEnd: 6, TargetStart: 5, TargetLength: 2, BlockID: 2},
	}

	for x, want := range map[int]int{2: 2, 3: 2, 4: 5} {
		if got := MapSourceToTarget(src, x, dst, anchors); got != want {
			t.Errorf("MapSourceToTarget(%d) = %d, want %d", x, got, want)
		}
	}
	for y, want := range map[int]int{2: 2, 3: 2, 4: 2, 5: 4} {
		if got := MapTargetToSource(src, dst, y, anchors); got != want {
			t.Errorf("MapTargetToSource(%d) = %d, want %d", y, got, want)
		}
	}
}

func TestMapSourceToTarget_EmptyAnchors(t *testing.T) {
	if got := MapSourceToTarget("abcXdef", 3, "abcYdef", nil); got != 3 {
		t.Errorf("MapSourceToTarget(empty anchors) = %d, want 3", got)
	}
	if got := MapTargetToSource("abcdef", "abcXXXdef", 7, nil); got != 4 {
		t.Errorf("MapTargetToSource(empty anchors) = %d, want 4", got)
	}
}

func TestMapSourceToTarget_Preamble(t *testing.T) {
	t.Run("unrendered preamble collapses to first block", func(t *testing.T) {
		src := "xxxx# Hi"
		anchors := anchor.List{{SourceStart: 4, SourceEnd: 8, TargetStart: 0, TargetLength: 2, BlockID: 1}}
		if got := MapSourceToTarget(src, 2, "Hi", anchors); got != 0 {
			t.Errorf("MapSourceToTarget() = %d, want 0", got)
		}
	})

	t.Run("rendered preamble maps by content", func(t *testing.T) {
		src := "Intro\n# H"
		dst := "Intro\nH"
		anchors := anchor.List{{SourceStart: 6, SourceEnd: 9, TargetStart: 6, TargetLength: 1, BlockID: 1}}
		if got := MapSourceToTarget(src, 3, dst, anchors); got != 3 {
			t.Errorf("MapSourceToTarget() = %d, want 3", got)
		}
		if got := MapTargetToSource(src, dst, 3, anchors); got != 3 {
			t.Errorf("MapTargetToSource() = %d, want 3", got)
		}
	})
}

func TestMapSourceToTarget_Trailer(t *testing.T) {
	src := "# H\nfooter"
	dst := "H\nfooter"
	anchors := anchor.List{{SourceStart: 0, SourceEnd: 3, TargetStart: 0, TargetLength: 1, BlockID: 1}}
	if got := MapSourceToTarget(src, 6, dst, anchors); got != 4 {
		t.Errorf("MapSourceToTarget() = %d, want 4", got)
	}
	if got := MapSourceToTarget(src, 10, dst, anchors); got != 8 {
		t.Errorf("MapSourceToTarget(end) = %d, want 8", got)
	}
}

func TestMapSourceToTarget_SharedBoundaryPrefersLater(t *testing.T) {
	src := "aaaabbbb"
	dst := "AAxBB"
	anchors := anchor.List{
		{SourceStart: 0, SourceEnd: 4, TargetStart: 0, TargetLength: 2, BlockID: 1},
		{SourceStart: 4, SourceEnd: 8, TargetStart: 3, TargetLength: 2, BlockID: 2},
	}
	if got := MapSourceToTarget(src, 4, dst, anchors); got != 3 {
		t.Errorf("MapSourceToTarget(shared boundary) = %d, want 3", got)
	}
}

func TestMapSourceToTarget_MalformedAnchors(t *testing.T) {
	// The second anchor overlaps the first and the third runs past both texts.
	anchors := anchor.List{
		{SourceStart: 0, SourceEnd: 7, TargetStart: 0, TargetLength: 5, BlockID: 1},
		{SourceStart: 3, SourceEnd: 12, TargetStart: 2, TargetLength: 4, BlockID: 2},
		{SourceStart: 9, SourceEnd: 500, TargetStart: 6, TargetLength: 500, BlockID: 3},
	}
	n := len([]rune(titleSource))
	m := len([]rune(titleRendered))
	prev := 0
	for x := 0; x <= n; x++ {
		got := MapSourceToTarget(titleSource, x, titleRendered, anchors)
		if got < prev || got > m {
			t.Fatalf("MapSourceToTarget(%d) = %d, prev %d, len %d", x, got, prev, m)
		}
		prev = got
	}
	if anchors[2].SourceEnd != 500 {
		t.Error("caller's anchor list was modified")
	}
}

func TestMapper_Map(t *testing.T) {
	m := NewMapper(titleSource, titleRendered, titleAnchors())
	if m.SourceLen() != 19 || m.RenderedLen() != 16 {
		t.Fatalf("lengths = %d, %d; want 19, 16", m.SourceLen(), m.RenderedLen())
	}
	got := m.Map(anchor.SourceAt(9))
	if got != anchor.RenderedAt(6) {
		t.Errorf("Map(source:9) = %v, want rendered:6", got)
	}
	got = m.Map(anchor.RenderedAt(16))
	if got != anchor.SourceAt(19) {
		t.Errorf("Map(rendered:16) = %v, want source:19", got)
	}
	if len(m.Anchors()) != 2 {
		t.Errorf("Anchors() has %d entries, want 2", len(m.Anchors()))
	}
}

// generated is a random but well-formed render: every anchor has a non-empty
// source span and anchors are separated by at least one unit in both texts.
type generated struct {
	source, rendered string
	anchors          anchor.List
}

func generate(r *rand.Rand) generated {
	var src, dst strings.Builder
	var anchors anchor.List
	s, d := 0, 0
	blocks := 1 + r.Intn(6)
	for i := 0; i < blocks; i++ {
		gs, gd := 1+r.Intn(3), 1+r.Intn(2)
		if i == 0 {
			gs, gd = r.Intn(4), r.Intn(3)
		}
		src.WriteString(strings.Repeat("\n", gs))
		dst.WriteString(strings.Repeat("\n", gd))
		s += gs
		d += gd

		ls, ld := 1+r.Intn(12), r.Intn(12)
		src.WriteString(randomText(r, ls))
		dst.WriteString(randomText(r, ld))
		anchors = append(anchors, anchor.BlockAnchor{
			SourceStart:  s,
			SourceEnd:    s + ls,
			TargetStart:  d,
			TargetLength: ld,
			BlockID:      anchor.BlockID(i + 1),
		})
		s += ls
		d += ld
	}
	src.WriteString(randomText(r, r.Intn(5)))
	dst.WriteString(randomText(r, r.Intn(5)))
	return generated{source: src.String(), rendered: dst.String(), anchors: anchors}
}

func TestAnchorMapping_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for iter := 0; iter < 500; iter++ {
		g := generate(r)
		if err := anchor.Validate(g.anchors); err != nil {
			t.Fatalf("generator produced invalid anchors: %v", err)
		}
		m := NewMapper(g.source, g.rendered, g.anchors)
		n, k := m.SourceLen(), m.RenderedLen()

		// Boundary exactness in both directions.
		for _, a := range g.anchors {
			if got := m.SourceToTarget(a.SourceStart); got != a.TargetStart {
				t.Fatalf("%v: SourceToTarget(start) = %d, want %d", a, got, a.TargetStart)
			}
			if got := m.SourceToTarget(a.SourceEnd); got != a.TargetEnd() {
				t.Fatalf("%v: SourceToTarget(end) = %d, want %d", a, got, a.TargetEnd())
			}
			if got := m.TargetToSource(a.TargetStart); got != a.SourceStart {
				t.Fatalf("%v: TargetToSource(start) = %d, want %d", a, got, a.SourceStart)
			}
			if a.TargetLength > 0 {
				if got := m.TargetToSource(a.TargetEnd()); got != a.SourceEnd {
					t.Fatalf("%v: TargetToSource(end) = %d, want %d", a, got, a.SourceEnd)
				}
			}
		}

		// Monotone and bounded.
		prev := 0
		for x := 0; x <= n; x++ {
			got := m.SourceToTarget(x)
			if got < prev || got > k {
				t.Fatalf("SourceToTarget(%d) = %d (prev %d, len %d)", x, got, prev, k)
			}
			prev = got
		}
		prev = 0
		for y := 0; y <= k; y++ {
			got := m.TargetToSource(y)
			if got < prev || got > n {
				t.Fatalf("TargetToSource(%d) = %d (prev %d, len %d)", y, got, prev, n)
			}
			prev = got
		}

		// Round trips stay inside the anchor's source span.
		for _, a := range g.anchors {
			for x := a.SourceStart; x <= a.SourceEnd; x++ {
				back := m.TargetToSource(m.SourceToTarget(x))
				if back < a.SourceStart || back > a.SourceEnd {
					t.Fatalf("%v: round trip of %d = %d, outside source span", a, x, back)
				}
			}
		}
	}
}

func TestAnchorMapping_EmptyAnchorsMatchContent(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	for i := 0; i < 100; i++ {
		a := randomText(r, r.Intn(25))
		b := randomText(r, r.Intn(25))
		for x := 0; x <= len([]rune(a)); x++ {
			want := MapByContent(a, x, b)
			if got := MapSourceToTarget(a, x, b, anchor.List{}); got != want {
				t.Fatalf("MapSourceToTarget(%q, %d, %q, empty) = %d, want %d", a, x, b, got, want)
			}
		}
	}
}
