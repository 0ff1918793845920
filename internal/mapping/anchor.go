package mapping

import (
	"sort"

	"github.com/dshills/mdsync/internal/anchor"
)

// span is one anchor seen from a mapping direction: [fromStart, fromEnd)
// in the space being mapped from, [toStart, toEnd) in the space mapped to.
type span struct {
	fromStart, fromEnd int
	toStart, toEnd     int
}

// Mapper maps offsets between one consistent (source, rendered, anchors)
// triple. It is immutable after construction and safe for concurrent use.
type Mapper struct {
	source   []rune
	rendered []rune
	anchors  anchor.List

	forward  []span // source -> rendered
	backward []span // rendered -> source
}

// NewMapper builds a Mapper for texts produced by one render pass.
// The anchors are normalized against both texts; the caller's list is not
// modified.
func NewMapper(sourceText, renderedText string, anchors anchor.List) *Mapper {
	m := &Mapper{
		source:   []rune(sourceText),
		rendered: []rune(renderedText),
	}
	m.anchors = anchor.Normalize(anchors, len(m.source), len(m.rendered))
	m.forward = make([]span, len(m.anchors))
	m.backward = make([]span, len(m.anchors))
	for i, a := range m.anchors {
		m.forward[i] = span{a.SourceStart, a.SourceEnd, a.TargetStart, a.TargetEnd()}
		m.backward[i] = span{a.TargetStart, a.TargetEnd(), a.SourceStart, a.SourceEnd}
	}
	return m
}

// SourceLen returns the source length in runes.
func (m *Mapper) SourceLen() int { return len(m.source) }

// RenderedLen returns the rendered length in runes.
func (m *Mapper) RenderedLen() int { return len(m.rendered) }

// Anchors returns the normalized anchors the mapper searches.
func (m *Mapper) Anchors() anchor.List { return m.anchors }

// SourceToTarget maps a source offset to a rendered offset.
func (m *Mapper) SourceToTarget(location int) int {
	return mapAcross(m.forward, location, len(m.source), len(m.rendered), func(x int) int {
		return mapRunes(m.source, x, m.rendered)
	})
}

// TargetToSource maps a rendered offset to a source offset.
func (m *Mapper) TargetToSource(location int) int {
	return mapAcross(m.backward, location, len(m.rendered), len(m.source), func(x int) int {
		return mapRunes(m.rendered, x, m.source)
	})
}

// Map maps loc into the other space.
func (m *Mapper) Map(loc anchor.Location) anchor.Location {
	if loc.Space == anchor.SpaceRendered {
		return anchor.SourceAt(m.TargetToSource(loc.Offset))
	}
	return anchor.RenderedAt(m.SourceToTarget(loc.Offset))
}

// MapSourceToTarget maps sourceLocation in sourceText to targetText using
// the block anchors of the render pass that produced targetText. With no
// usable anchors it falls back to MapByContent.
func MapSourceToTarget(sourceText string, sourceLocation int, targetText string, anchors anchor.List) int {
	return NewMapper(sourceText, targetText, anchors).SourceToTarget(sourceLocation)
}

// MapTargetToSource maps targetLocation in targetText back to sourceText.
// It is the inverse direction of MapSourceToTarget.
func MapTargetToSource(sourceText, targetText string, targetLocation int, anchors anchor.List) int {
	return NewMapper(sourceText, targetText, anchors).TargetToSource(targetLocation)
}

// mapAcross maps x from a space of fromLen units to one of toLen units.
// spans must be ordered and non-overlapping in both spaces. content is the
// whole-text fallback used when spans are empty and to place offsets that
// lie before the first span or after the last one.
func mapAcross(spans []span, x, fromLen, toLen int, content func(int) int) int {
	x = clamp(x, 0, fromLen)
	if len(spans) == 0 {
		return clamp(content(x), 0, toLen)
	}

	// Last span starting at or before x. On a boundary shared by two spans
	// this is the later one.
	k := sort.Search(len(spans), func(i int) bool { return spans[i].fromStart > x }) - 1

	if k < 0 {
		// Preamble before the first span: stay in [0, first.toStart], no
		// further back than the distance to the first span.
		first := spans[0]
		guess := clamp(content(x), 0, first.toStart)
		return max(guess, first.toStart-(first.fromStart-x))
	}

	sp := spans[k]
	if x <= sp.fromEnd {
		return sp.toStart + MapBetweenLengths(x-sp.fromStart, sp.fromEnd-sp.fromStart, sp.toEnd-sp.toStart)
	}

	if k+1 < len(spans) {
		// Gap between two spans, e.g. blank lines consumed by the parser.
		// The preceding span claims it, clamped to its end.
		return sp.toEnd
	}

	// Trailer after the last span: stay in [last.toEnd, toLen], no further
	// forward than the distance from the last span.
	guess := clamp(content(x), sp.toEnd, toLen)
	return min(guess, sp.toEnd+(x-sp.fromEnd))
}
