// Package highlight computes Markdown syntax spans for the source pane.
//
// Highlighting is incremental: edits add source ranges to a [Pending] set,
// [TargetRange] widens each to the lines whose tokens may have changed, and
// a [Highlighter] re-tokenizes only that range. Colors come from [Theme],
// which honors the high-contrast and accent color options.
package highlight
