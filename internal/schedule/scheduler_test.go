package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/mdsync/internal/render"
	"github.com/dshills/mdsync/internal/tracking"
)

const (
	titleDoc  = "# Title\n\nBody text."
	editedDoc = "# Title\n\nXBody text."
)

// fakeRenderer wraps the goldmark renderer with counters and an optional
// gate that holds each render until released.
type fakeRenderer struct {
	inner   *render.Goldmark
	calls   atomic.Int32
	started chan struct{}
	gate    chan struct{}
	err     error
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{inner: render.NewGoldmark()}
}

func (f *fakeRenderer) Render(source string, opts render.Options) (*render.Result, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.inner.Render(source, opts)
}

func startScheduler(t *testing.T, r render.Renderer, opts ...Option) *Scheduler {
	t.Helper()
	s := New(r, opts...)
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(s.Stop)
	return s
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestScheduler_EditPublishes(t *testing.T) {
	var published atomic.Int32
	s := startScheduler(t, render.NewGoldmark(),
		WithDebounce(10*time.Millisecond),
		WithPublishCallback(func(*tracking.Snapshot) { published.Add(1) }),
	)

	rev := s.Edit(titleDoc)
	snap, err := s.Wait(waitCtx(t), rev)
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if snap.Revision != rev || snap.Rendered != "Title\nBody text." {
		t.Errorf("snapshot = rev %d %q", snap.Revision, snap.Rendered)
	}
	if s.Snapshot() != snap {
		t.Error("Snapshot() should return the published snapshot")
	}
	if published.Load() != 1 {
		t.Errorf("publish callback ran %d times, want 1", published.Load())
	}

	st := s.Status()
	if st.Updating || st.Stale() || st.SourceRevision != rev {
		t.Errorf("Status() = %+v after publish", st)
	}
}

func TestScheduler_DebounceCoalescesEdits(t *testing.T) {
	r := newFakeRenderer()
	s := startScheduler(t, r, WithDebounce(50*time.Millisecond))

	var rev tracking.Revision
	for i := 0; i < 10; i++ {
		rev = s.Edit(titleDoc)
	}
	if !s.Status().Updating {
		t.Error("Status().Updating = false with an edit pending")
	}
	if _, err := s.Wait(waitCtx(t), rev); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if r.calls.Load() != 1 {
		t.Errorf("renders = %d, want 1", r.calls.Load())
	}
}

func TestScheduler_DiscardsStaleRender(t *testing.T) {
	r := newFakeRenderer()
	r.started = make(chan struct{}, 4)
	r.gate = make(chan struct{})
	s := startScheduler(t, r, WithDebounce(time.Hour))

	first := s.Edit(titleDoc)
	s.Flush()
	<-r.started

	second := s.Edit(editedDoc)
	s.Flush()
	r.gate <- struct{}{} // finish the render of first

	<-r.started
	r.gate <- struct{}{} // finish the render of second

	snap, err := s.Wait(waitCtx(t), second)
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if snap.Revision != second || snap.Source != editedDoc {
		t.Errorf("published revision %d (%q), want %d", snap.Revision, snap.Source, second)
	}
	if s.Tracker().Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1 for revision %d", s.Tracker().Dropped(), first)
	}
}

func TestScheduler_RenderFailureKeepsSnapshot(t *testing.T) {
	r := newFakeRenderer()
	s := startScheduler(t, r, WithDebounce(time.Hour))

	rev := s.Edit(titleDoc)
	s.Flush()
	good, err := s.Wait(waitCtx(t), rev)
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}

	boom := errors.New("boom")
	r.err = boom
	rev = s.Edit(editedDoc)
	s.Flush()
	if _, err := s.Wait(waitCtx(t), rev); !errors.Is(err, boom) {
		t.Fatalf("Wait() error = %v, want boom", err)
	}
	if s.Snapshot() != good {
		t.Error("failed render replaced the published snapshot")
	}
	if !s.Status().Stale() {
		t.Error("Status().Stale() = false after a failed render")
	}
}

func TestScheduler_CarriesBlockIDs(t *testing.T) {
	s := startScheduler(t, render.NewGoldmark(), WithDebounce(time.Hour))

	s.Edit("# Title\n\nFirst.\n\nSecond.")
	s.Flush()
	a, err := s.Wait(waitCtx(t), 1)
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}

	rev := s.Edit("Intro\n\n# Title\n\nFirst.\n\nSecond.")
	s.Flush()
	b, err := s.Wait(waitCtx(t), rev)
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	for i, old := range a.Anchors {
		if got := b.Anchors[i+1].BlockID; got != old.BlockID {
			t.Errorf("block %d id = %d, want %d", i+1, got, old.BlockID)
		}
	}
}

func TestScheduler_Lifecycle(t *testing.T) {
	s := New(render.NewGoldmark())
	if _, err := s.Wait(context.Background(), 1); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Wait() before Start = %v, want ErrNotRunning", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start() = %v, want ErrAlreadyRunning", err)
	}
	s.Stop()
	s.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("restart error: %v", err)
	}
	cancel()
	s.Stop()
}

func TestScheduler_WaitHonorsContext(t *testing.T) {
	s := startScheduler(t, render.NewGoldmark(), WithDebounce(time.Hour))
	s.Edit(titleDoc)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Wait(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want DeadlineExceeded", err)
	}
}
