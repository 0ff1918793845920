package tracking

import (
	"sync/atomic"
)

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithMaxHistory sets how many recent source revisions are retained for
// SourceAt.
func WithMaxHistory(n int) TrackerOption {
	return func(t *Tracker) {
		t.history = newSourceStore(n)
	}
}

// edit is the latest source paired with its revision.
type edit struct {
	rev    Revision
	source string
}

// Tracker owns the source revision counter and the latest published
// snapshot. Edit must be called from a single goroutine; everything else is
// safe for concurrent use.
type Tracker struct {
	latest   atomic.Pointer[edit]
	snapshot atomic.Pointer[Snapshot]
	dropped  atomic.Uint64

	history *sourceStore
}

// NewTracker creates a tracker with no edits and no snapshot.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		history: newSourceStore(DefaultMaxHistory),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.latest.Store(&edit{})
	return t
}

// Edit records a new source text and returns its revision.
func (t *Tracker) Edit(source string) Revision {
	rev := t.latest.Load().rev + 1
	t.history.Add(rev, source)
	t.latest.Store(&edit{rev: rev, source: source})
	return rev
}

// Latest returns the most recent source and its revision.
func (t *Tracker) Latest() (string, Revision) {
	e := t.latest.Load()
	return e.source, e.rev
}

// SourceRevision returns the revision of the most recent edit.
func (t *Tracker) SourceRevision() Revision {
	return t.latest.Load().rev
}

// RenderedRevision returns the revision of the published snapshot, or zero
// before the first publish.
func (t *Tracker) RenderedRevision() Revision {
	if s := t.snapshot.Load(); s != nil {
		return s.Revision
	}
	return 0
}

// IsCurrent reports whether rev is still the latest source revision.
func (t *Tracker) IsCurrent(rev Revision) bool {
	return rev == t.SourceRevision()
}

// Publish makes s the current snapshot if its revision is still the latest
// source revision and newer than the published one. It reports whether s
// was published; a stale snapshot is counted and discarded.
func (t *Tracker) Publish(s *Snapshot) bool {
	if s == nil {
		return false
	}
	for {
		if !t.IsCurrent(s.Revision) {
			t.dropped.Add(1)
			return false
		}
		cur := t.snapshot.Load()
		if cur != nil && cur.Revision >= s.Revision {
			t.dropped.Add(1)
			return false
		}
		if t.snapshot.CompareAndSwap(cur, s) {
			return true
		}
	}
}

// Snapshot returns the published snapshot, or nil before the first publish.
func (t *Tracker) Snapshot() *Snapshot {
	return t.snapshot.Load()
}

// SourceAt returns the source recorded for rev if it is still retained.
func (t *Tracker) SourceAt(rev Revision) (string, bool) {
	return t.history.Get(rev)
}

// Dropped returns the number of stale snapshots Publish discarded.
func (t *Tracker) Dropped() uint64 {
	return t.dropped.Load()
}
