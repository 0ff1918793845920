// Package schedule debounces source edits into background render passes
// and publishes their snapshots.
//
// Edits never block on rendering. Each edit bumps the source revision and
// (re)arms a debouncer; when it fires, a single worker goroutine renders the
// latest source. A result whose revision is no longer the latest is
// discarded rather than cancelled mid-flight, so a published snapshot always
// pairs a source with the anchors rendered from it.
//
//	s := schedule.New(render.NewGoldmark(), schedule.WithDebounce(150*time.Millisecond))
//	if err := s.Start(ctx); err != nil { ... }
//	defer s.Stop()
//
//	rev := s.Edit(source)
//	...
//	res := s.SourceToRendered(caret, rev)
//	if res.Approximate { ... }
package schedule
