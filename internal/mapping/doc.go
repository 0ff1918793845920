// Package mapping translates positions between a Markdown source text and
// its rendered text.
//
// Three mappers form a degradation chain, each used when the one above it
// lacks information:
//
//   - Anchor mapping ([MapSourceToTarget], [MapTargetToSource]) uses the
//     block anchors emitted by the renderer and is exact at block boundaries.
//   - Content mapping ([MapByContent], [MapByContentReverse]) needs only the
//     two texts. Their common prefix and suffix map exactly; the differing
//     middle is mapped proportionally.
//   - Ratio mapping ([Ratio], [Location], [MapBetweenLengths]) needs only
//     lengths and is used for scroll fractions.
//
// Every function is pure and never fails: out-of-range offsets are clamped
// and missing information falls back to the next mapper. Results are rune
// offsets in [0, len(target)].
//
// Callers mapping many offsets against one snapshot should build a [Mapper]
// once, which caches the rune slices and the normalized anchor list.
package mapping
