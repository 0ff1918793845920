// Package anchor describes how blocks of a rendered Markdown document
// correspond to ranges of its source text.
//
// A renderer emits one [BlockAnchor] per rendered block. Each anchor links a
// half-open source range to a half-open rendered range and carries an opaque
// [BlockID] that is unique within one render pass.
//
// # Offsets
//
// All offsets are rune (code point) offsets into Go strings. Callers that hold
// byte offsets convert them with the textunit package first.
//
// # Invariants
//
// A well-formed [List] satisfies:
//
//   - SourceStart <= SourceEnd and TargetLength >= 0 for every anchor
//   - anchors are ordered by SourceStart and by TargetStart simultaneously
//   - anchors do not overlap in either text (gaps are allowed)
//
// [Validate] reports the first violation. [Normalize] returns a copy that is
// clamped to the text lengths with violating anchors dropped; the mapping
// package always normalizes before searching, so callers never need to
// special-case malformed renderer output.
//
// # Lifecycle
//
// Lists are produced fresh on every render pass and replaced wholesale on the
// next one. Nothing in this package mutates a list in place.
package anchor
