// Package watch delivers the contents of one file each time it changes on
// disk.
//
// The watcher observes the file's directory rather than the file itself so
// that editors which save by writing a temporary file and renaming it over
// the original keep triggering events.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/mdsync/internal/logging"
	"github.com/dshills/mdsync/internal/schedule"
)

// Errors returned by the watcher.
var (
	ErrPathNotExist   = errors.New("path does not exist")
	ErrWatcherClosed  = errors.New("watcher is closed")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// DefaultDebounce is the quiet period before a change is delivered.
const DefaultDebounce = 100 * time.Millisecond

// Op is a set of file operations.
type Op uint32

// Operations.
const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

var opNames = []struct {
	op   Op
	name string
}{
	{OpCreate, "CREATE"},
	{OpWrite, "WRITE"},
	{OpRemove, "REMOVE"},
	{OpRename, "RENAME"},
	{OpChmod, "CHMOD"},
}

// Has reports whether o includes every operation in other.
func (o Op) Has(other Op) bool {
	return o&other == other
}

func (o Op) String() string {
	var names []string
	for _, n := range opNames {
		if o.Has(n.op) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, "|")
}

func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	if fsOp.Has(fsnotify.Chmod) {
		op |= OpChmod
	}
	return op
}

// Change is one debounced change of the watched file. Op accumulates every
// operation seen during the quiet period. When the file no longer exists
// Op is exactly OpRemove and Content is empty.
type Change struct {
	Path    string
	Content string
	Op      Op
	Time    time.Time
}

// Removed reports whether the file was gone when the change was read.
func (c Change) Removed() bool {
	return c.Op == OpRemove && c.Content == ""
}

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithDebounce sets the quiet period before a change is delivered.
func WithDebounce(d time.Duration) Option {
	return func(w *FileWatcher) {
		w.delay = d
	}
}

// WithBufferSize sets the capacity of the change and error channels.
func WithBufferSize(n int) Option {
	return func(w *FileWatcher) {
		if n > 0 {
			w.bufSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *FileWatcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// FileWatcher watches a single file.
type FileWatcher struct {
	path    string // absolute
	delay   time.Duration
	bufSize int
	logger  *logging.Logger

	fsw       *fsnotify.Watcher
	debouncer *schedule.Debouncer
	changes   chan Change
	errors    chan error

	mu          sync.Mutex
	pendingOp   Op
	lastContent string
	delivered   bool
	started     bool
	closed      bool
	closeCh     chan struct{}
	wg          sync.WaitGroup
}

// New creates a watcher for path. The file's directory must exist; the
// file itself may appear later.
func New(path string, opts ...Option) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(filepath.Dir(abs)); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrPathNotExist, filepath.Dir(abs))
	}

	w := &FileWatcher{
		path:    abs,
		delay:   DefaultDebounce,
		bufSize: 16,
		logger:  logging.NullLogger,
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.WithComponent("watch").WithField("path", abs)
	w.changes = make(chan Change, w.bufSize)
	w.errors = make(chan error, w.bufSize)
	w.debouncer = schedule.NewDebouncer(w.delay, w.deliver)
	return w, nil
}

// Path returns the absolute path being watched.
func (w *FileWatcher) Path() string {
	return w.path
}

// Start begins watching. The watcher closes itself when ctx is done.
func (w *FileWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWatcherClosed
	}
	if w.started {
		return ErrAlreadyStarted
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}
	w.fsw = fsw
	w.started = true

	w.wg.Add(1)
	go w.processLoop()
	go func() {
		select {
		case <-ctx.Done():
			w.Close()
		case <-w.closeCh:
		}
	}()

	w.logger.Debug("watching, debounce %s", w.delay)
	return nil
}

// Changes returns the channel of debounced changes. It is closed by Close.
func (w *FileWatcher) Changes() <-chan Change {
	return w.changes
}

// Errors returns the channel of read and watch errors. It is closed by
// Close.
func (w *FileWatcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and closes both channels.
func (w *FileWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	fsw := w.fsw
	w.mu.Unlock()

	w.debouncer.Cancel()
	w.wg.Wait()

	var err error
	if fsw != nil {
		err = fsw.Close()
	}

	// deliver checks closed under mu before sending.
	w.mu.Lock()
	close(w.changes)
	close(w.errors)
	w.mu.Unlock()
	return err
}

func (w *FileWatcher) processLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

func (w *FileWatcher) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	op := convertOp(ev.Op)
	if op == 0 || op == OpChmod {
		return
	}
	w.mu.Lock()
	w.pendingOp |= op
	w.mu.Unlock()
	w.debouncer.Call()
}

// deliver reads the file after the quiet period and sends the change
// unless the content is the same as last delivered.
func (w *FileWatcher) deliver() {
	data, readErr := os.ReadFile(w.path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	op := w.pendingOp
	w.pendingOp = 0

	change := Change{Path: w.path, Op: op, Time: time.Now()}
	switch {
	case errors.Is(readErr, os.ErrNotExist):
		change.Op = OpRemove
	case readErr != nil:
		w.trySendError(fmt.Errorf("reading %s: %w", w.path, readErr))
		return
	default:
		change.Content = string(data)
		if w.delivered && change.Content == w.lastContent {
			w.logger.Debug("skipping %s, content unchanged", op)
			return
		}
	}
	w.lastContent = change.Content
	w.delivered = true

	select {
	case w.changes <- change:
		w.logger.Debug("delivered %s, %d bytes", change.Op, len(change.Content))
	default:
		w.logger.Warn("change channel full, dropping %s", change.Op)
	}
}

func (w *FileWatcher) sendError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.trySendError(err)
	}
}

// trySendError requires w.mu.
func (w *FileWatcher) trySendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
	w.logger.WithError(err).Warn("watch error")
}
