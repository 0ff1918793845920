// Package tracking owns the revision counters and the published snapshot
// that tie a rendered preview to the source it was rendered from.
//
// # Revisions
//
// Every source edit bumps the source revision. A render pass is tagged
// with the revision of the source it rendered; once published, that becomes
// the rendered revision. A location captured against one revision and
// mapped through a snapshot of another is only approximately placed.
//
// # Snapshots
//
// A [Snapshot] freezes one render pass: source, rendered text, anchors and
// the mapper built from them. Snapshots are immutable and safe to share
// across goroutines.
//
//	tracker := tracking.NewTracker()
//	rev := tracker.Edit(source)
//	res, _ := renderer.Render(source, opts)
//	tracker.Publish(tracking.NewSnapshot(rev, source, res))
//
//	if snap := tracker.Snapshot(); snap != nil {
//	    offset := snap.SourceToRendered(caret)
//	}
//
// The [Tracker] assumes a single writer calling Edit; Publish and all
// readers may run on any goroutine.
package tracking
