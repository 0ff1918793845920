package schedule

import (
	"github.com/dshills/mdsync/internal/anchor"
	"github.com/dshills/mdsync/internal/mapping"
	"github.com/dshills/mdsync/internal/textunit"
	"github.com/dshills/mdsync/internal/tracking"
)

// Result is a mapped offset together with how far it can be trusted.
type Result struct {
	// Offset is the mapped offset in the target space of Revision.
	Offset int
	// Approximate is true when the location was captured against a
	// different revision than the snapshot it was mapped through.
	Approximate bool
	// Revision is the revision of the snapshot that produced Offset.
	Revision tracking.Revision
}

// SourceToRendered maps a source offset captured at revision capturedAt
// through snap. A nil snapshot returns the offset unchanged and approximate.
func SourceToRendered(snap *tracking.Snapshot, offset int, capturedAt tracking.Revision) Result {
	return Map(snap, anchor.SourceAt(offset), capturedAt)
}

// RenderedToSource maps a rendered offset captured at revision capturedAt
// back to the source of snap.
func RenderedToSource(snap *tracking.Snapshot, offset int, capturedAt tracking.Revision) Result {
	return Map(snap, anchor.RenderedAt(offset), capturedAt)
}

// Map maps loc through snap into the other space. The offset is snapped
// back to the start of the grapheme cluster it lands in.
func Map(snap *tracking.Snapshot, loc anchor.Location, capturedAt tracking.Revision) Result {
	if snap == nil {
		return Result{Offset: loc.Offset, Approximate: true}
	}
	target := snap.Rendered
	if loc.Space == anchor.SpaceRendered {
		target = snap.Source
	}
	return Result{
		Offset:      textunit.SnapToGrapheme(target, snap.Map(loc).Offset),
		Approximate: capturedAt != snap.Revision,
		Revision:    snap.Revision,
	}
}

// SourceToRendered maps a source offset captured at capturedAt through the
// latest snapshot. When the snapshot was rendered from a different revision
// and the captured source is still retained, the offset is first carried
// into the snapshot's source by content, which keeps it on the same text
// outside the edited region.
func (s *Scheduler) SourceToRendered(offset int, capturedAt tracking.Revision) Result {
	snap := s.tracker.Snapshot()
	if snap != nil && capturedAt != snap.Revision {
		if src, ok := s.tracker.SourceAt(capturedAt); ok {
			offset = mapping.MapByContent(src, offset, snap.Source)
		}
	}
	return SourceToRendered(snap, offset, capturedAt)
}

// RenderedToSource maps a rendered offset of the latest snapshot to the
// source. When the source has moved on since that snapshot and the latest
// source is retained, the result is carried into the latest source by
// content and reported against the latest revision, still approximate.
func (s *Scheduler) RenderedToSource(offset int) Result {
	snap := s.tracker.Snapshot()
	if snap == nil {
		return Result{Offset: offset, Approximate: true}
	}
	res := RenderedToSource(snap, offset, snap.Revision)

	latest, rev := s.tracker.Latest()
	if rev != snap.Revision {
		res.Offset = mapping.MapByContent(snap.Source, res.Offset, latest)
		res.Approximate = true
		res.Revision = rev
	}
	return res
}
