package tracking

import (
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/dshills/mdsync/internal/anchor"
	"github.com/dshills/mdsync/internal/render"
)

func titleResult() *render.Result {
	return &render.Result{
		Text: "Title\nBody text.",
		Anchors: anchor.List{
			{SourceStart: 0, SourceEnd: 7, TargetStart: 0, TargetLength: 5, BlockID: 1},
			{SourceStart: 9, SourceEnd: 19, TargetStart: 6, TargetLength: 10, BlockID: 2},
		},
	}
}

func TestSourceStore(t *testing.T) {
	s := newSourceStore(3)
	for rev := Revision(1); rev <= 5; rev++ {
		s.Add(rev, string(rune('a'+rev-1)))
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	for _, rev := range []Revision{1, 2} {
		if _, ok := s.Get(rev); ok {
			t.Errorf("Get(%d) should be evicted", rev)
		}
	}
	if src, ok := s.Get(5); !ok || src != "e" {
		t.Errorf("Get(5) = %q, %v, want e, true", src, ok)
	}
}

func TestSnapshot(t *testing.T) {
	source := "# Title\n\nBody text."
	snap := NewSnapshot(7, source, titleResult())

	if snap.Revision != 7 {
		t.Errorf("Revision = %d, want 7", snap.Revision)
	}
	if snap.PassID == uuid.Nil {
		t.Error("PassID should be set")
	}
	if snap.RenderedAt.IsZero() {
		t.Error("RenderedAt should be set")
	}
	if snap.SourceLen() != 19 || snap.RenderedLen() != 16 {
		t.Errorf("lengths = %d/%d, want 19/16", snap.SourceLen(), snap.RenderedLen())
	}
	if got := snap.SourceToRendered(9); got != 6 {
		t.Errorf("SourceToRendered(9) = %d, want 6", got)
	}
	if got := snap.RenderedToSource(6); got != 9 {
		t.Errorf("RenderedToSource(6) = %d, want 9", got)
	}
	if got := snap.Map(anchor.SourceAt(19)); got != anchor.RenderedAt(16) {
		t.Errorf("Map(source 19) = %v, want rendered 16", got)
	}

	other := NewSnapshot(7, source, titleResult())
	if other.PassID == snap.PassID {
		t.Error("PassID should differ between passes")
	}
}

func TestSnapshot_NormalizesAnchors(t *testing.T) {
	res := titleResult()
	res.Anchors = append(res.Anchors, anchor.BlockAnchor{SourceStart: 3, SourceEnd: 12, TargetStart: 2, TargetLength: 3, BlockID: 3})
	snap := NewSnapshot(1, "# Title\n\nBody text.", res)
	if len(snap.Anchors) != 2 {
		t.Errorf("len(Anchors) = %d, want 2 after dropping the overlap", len(snap.Anchors))
	}
	if len(res.Anchors) != 3 {
		t.Error("NewSnapshot modified the render result")
	}
}

func TestSnapshot_NilResult(t *testing.T) {
	snap := NewSnapshot(1, "abc", nil)
	if snap.Rendered != "" || snap.SourceToRendered(2) != 0 {
		t.Errorf("nil result snapshot = %q, %d", snap.Rendered, snap.SourceToRendered(2))
	}
}

func TestTracker(t *testing.T) {
	t.Run("initial state", func(t *testing.T) {
		tr := NewTracker()
		if tr.SourceRevision() != 0 || tr.RenderedRevision() != 0 {
			t.Errorf("revisions = %d/%d, want 0/0", tr.SourceRevision(), tr.RenderedRevision())
		}
		if tr.Snapshot() != nil {
			t.Error("Snapshot() should be nil before publish")
		}
	})

	t.Run("edit bumps revision", func(t *testing.T) {
		tr := NewTracker()
		r1 := tr.Edit("a")
		r2 := tr.Edit("ab")
		if r1 != 1 || r2 != 2 {
			t.Errorf("revisions = %d, %d, want 1, 2", r1, r2)
		}
		src, rev := tr.Latest()
		if src != "ab" || rev != 2 {
			t.Errorf("Latest() = %q, %d", src, rev)
		}
		if old, ok := tr.SourceAt(1); !ok || old != "a" {
			t.Errorf("SourceAt(1) = %q, %v", old, ok)
		}
	})

	t.Run("publish latest only", func(t *testing.T) {
		tr := NewTracker()
		r1 := tr.Edit("# Title\n\nBody text.")
		r2 := tr.Edit("# Title\n\nBody text!")

		if tr.Publish(NewSnapshot(r1, "# Title\n\nBody text.", titleResult())) {
			t.Error("Publish of a stale revision should fail")
		}
		if !tr.Publish(NewSnapshot(r2, "# Title\n\nBody text!", titleResult())) {
			t.Fatal("Publish of the latest revision should succeed")
		}
		if tr.RenderedRevision() != r2 {
			t.Errorf("RenderedRevision() = %d, want %d", tr.RenderedRevision(), r2)
		}
		if tr.Publish(NewSnapshot(r2, "# Title\n\nBody text!", titleResult())) {
			t.Error("Publish of an already published revision should fail")
		}
		if tr.Dropped() != 2 {
			t.Errorf("Dropped() = %d, want 2", tr.Dropped())
		}
		if tr.Publish(nil) {
			t.Error("Publish(nil) should fail")
		}
	})

	t.Run("history option", func(t *testing.T) {
		tr := NewTracker(WithMaxHistory(1))
		tr.Edit("a")
		tr.Edit("b")
		if _, ok := tr.SourceAt(1); ok {
			t.Error("SourceAt(1) should be evicted with history 1")
		}
	})
}

func TestTracker_ConcurrentReaders(t *testing.T) {
	tr := NewTracker()
	source := "# Title\n\nBody text."

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if snap := tr.Snapshot(); snap != nil {
					if got := snap.SourceToRendered(9); got != 6 {
						t.Errorf("SourceToRendered(9) = %d, want 6", got)
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		rev := tr.Edit(source)
		tr.Publish(NewSnapshot(rev, source, titleResult()))
	}
	close(stop)
	wg.Wait()

	if tr.RenderedRevision() != 100 {
		t.Errorf("RenderedRevision() = %d, want 100", tr.RenderedRevision())
	}
}
