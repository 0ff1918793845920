package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/mdsync/internal/logging"
	"github.com/dshills/mdsync/internal/render"
	"github.com/dshills/mdsync/internal/tracking"
)

// DefaultDebounce is the quiet period before an edit is rendered.
const DefaultDebounce = 150 * time.Millisecond

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDebounce sets the quiet period between the last edit and its render.
func WithDebounce(d time.Duration) Option {
	return func(s *Scheduler) {
		s.delay = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRenderOptions sets the options passed to the renderer.
func WithRenderOptions(opts render.Options) Option {
	return func(s *Scheduler) {
		s.renderOpts = opts
	}
}

// WithPublishCallback registers fn to run on the worker goroutine after
// each published snapshot.
func WithPublishCallback(fn func(*tracking.Snapshot)) Option {
	return func(s *Scheduler) {
		s.onPublish = fn
	}
}

// WithTracker makes the scheduler use an existing tracker.
func WithTracker(t *tracking.Tracker) Option {
	return func(s *Scheduler) {
		if t != nil {
			s.tracker = t
		}
	}
}

// Status is the scheduler state shown to the user.
type Status struct {
	SourceRevision   tracking.Revision
	RenderedRevision tracking.Revision
	// Updating is true while an edit waits for or undergoes rendering.
	Updating bool
}

// Stale reports whether the published snapshot lags the source.
func (s Status) Stale() bool {
	return s.RenderedRevision != s.SourceRevision
}

// failure records the last render error.
type failure struct {
	rev tracking.Revision
	err error
}

// Scheduler turns source edits into published snapshots. Edit must be
// called from a single goroutine. All other methods are safe for
// concurrent use.
type Scheduler struct {
	renderer   render.Renderer
	renderOpts render.Options
	tracker    *tracking.Tracker
	delay      time.Duration
	logger     *logging.Logger
	onPublish  func(*tracking.Snapshot)

	debouncer *Debouncer
	requests  chan struct{} // one slot: "render the latest source"

	queued    atomic.Bool
	rendering atomic.Bool
	lastErr   atomic.Pointer[failure]
	renders   atomic.Uint64

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	notifyCh chan struct{} // closed and replaced after every pass

	// prev is the last published result; worker goroutine only.
	prev *render.Result
}

// New creates a scheduler for renderer. Call Start before editing.
func New(renderer render.Renderer, opts ...Option) *Scheduler {
	s := &Scheduler{
		renderer:   renderer,
		renderOpts: render.DefaultOptions(),
		tracker:    tracking.NewTracker(),
		delay:      DefaultDebounce,
		logger:     logging.NullLogger,
		requests:   make(chan struct{}, 1),
		notifyCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("schedule")
	s.debouncer = NewDebouncer(s.delay, s.request)
	return s
}

// Tracker returns the revision tracker.
func (s *Scheduler) Tracker() *tracking.Tracker {
	return s.tracker
}

// Start launches the render worker. The worker stops when ctx is done or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.run(ctx, s.done)
	s.logger.Debug("worker started, debounce %s", s.delay)
	return nil
}

// Stop cancels pending renders and waits for the worker to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	s.debouncer.Cancel()
	cancel()
	<-done
	s.logger.Debug("worker stopped after %d renders", s.renders.Load())
}

// Edit records a new source text, schedules a debounced render and returns
// the new source revision.
func (s *Scheduler) Edit(source string) tracking.Revision {
	rev := s.tracker.Edit(source)
	s.debouncer.Call()
	return rev
}

// Flush requests an immediate render if an edit is waiting for its quiet
// period.
func (s *Scheduler) Flush() {
	s.debouncer.CallImmediate()
}

// Snapshot returns the latest published snapshot, or nil before the first.
func (s *Scheduler) Snapshot() *tracking.Snapshot {
	return s.tracker.Snapshot()
}

// Status returns the current revisions and whether an update is underway.
func (s *Scheduler) Status() Status {
	return Status{
		SourceRevision:   s.tracker.SourceRevision(),
		RenderedRevision: s.tracker.RenderedRevision(),
		Updating:         s.debouncer.IsPending() || s.queued.Load() || s.rendering.Load(),
	}
}

// Wait blocks until a snapshot at or after rev is published, the render of
// the latest revision fails, or ctx is done.
func (s *Scheduler) Wait(ctx context.Context, rev tracking.Revision) (*tracking.Snapshot, error) {
	for {
		s.mu.Lock()
		ch, running := s.notifyCh, s.running
		s.mu.Unlock()

		if snap := s.tracker.Snapshot(); snap != nil && snap.Revision >= rev {
			return snap, nil
		}
		if f := s.lastErr.Load(); f != nil && f.rev >= rev && s.tracker.IsCurrent(f.rev) {
			return nil, f.err
		}
		if !running {
			return nil, ErrNotRunning
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ch:
		}
	}
}

// request queues a render of the latest source without blocking.
func (s *Scheduler) request() {
	s.queued.Store(true)
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.requests:
			s.queued.Store(false)
			s.renderLatest()
		}
	}
}

// renderLatest renders the newest source and publishes it unless a newer
// edit arrived meanwhile.
func (s *Scheduler) renderLatest() {
	defer s.notify()

	source, rev := s.tracker.Latest()
	if rev == 0 || rev <= s.tracker.RenderedRevision() {
		return
	}

	s.rendering.Store(true)
	start := time.Now()
	res, err := s.renderer.Render(source, s.renderOpts)
	s.rendering.Store(false)
	s.renders.Add(1)

	log := s.logger.WithField("revision", uint64(rev))
	if err != nil {
		s.lastErr.Store(&failure{rev: rev, err: err})
		log.WithError(err).Warn("render failed, keeping previous snapshot")
		return
	}

	res = render.CarryIDs(s.prev, res)
	snap := tracking.NewSnapshot(rev, source, res)
	if !s.tracker.Publish(snap) {
		log.Debug("discarded stale render, source is at revision %d", s.tracker.SourceRevision())
		return
	}
	s.prev = res

	log.WithFields(map[string]any{
		"pass":    snap.PassID.String(),
		"anchors": len(snap.Anchors),
		"elapsed": time.Since(start).String(),
	}).Debug("published snapshot")

	if s.onPublish != nil {
		s.onPublish(snap)
	}
}

// notify wakes every Wait caller.
func (s *Scheduler) notify() {
	s.mu.Lock()
	close(s.notifyCh)
	s.notifyCh = make(chan struct{})
	s.mu.Unlock()
}
