// Package render turns Markdown source into the plain rendered text shown in
// the preview, together with the block anchors the mapping package needs.
//
// Markdown grammar is handled by goldmark. This package walks goldmark's
// AST, writes each leaf block (heading, paragraph, code block, table, HTML
// block) to the rendered text separated by single newlines, and records one
// anchor per leaf block linking its source lines (markup included) to its
// rendered span (separators excluded). Container blocks contribute list
// bullets and blockquote ranges but no anchors of their own.
//
// Block ids are assigned sequentially per pass. [CarryIDs] re-labels a new
// result with the ids of matching blocks from the previous pass; the match is
// a heuristic and nothing downstream relies on it for correctness.
package render
