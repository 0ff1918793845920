package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/mdsync/internal/highlight"
	"github.com/dshills/mdsync/internal/logging"
	"github.com/dshills/mdsync/internal/schedule"
	"github.com/dshills/mdsync/internal/tracking"
	"github.com/dshills/mdsync/internal/viewer"
	"github.com/dshills/mdsync/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-render a Markdown file whenever it changes and log the preview status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vm := a.cfg.Viewer().Mode
			if mode != "" {
				m, err := viewer.ParseMode(mode)
				if err != nil {
					return err
				}
				vm = m
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, args[0], vm)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "viewer mode: read, edit or split (default from config)")
	return cmd
}

// session follows one file: every change is fed to the scheduler and every
// published snapshot re-highlights the edited lines.
type session struct {
	logger      *logging.Logger
	mode        viewer.Mode
	sched       *schedule.Scheduler
	highlighter highlight.Highlighter
	pending     highlight.Pending
	context     int
	source      string // last source handed to the scheduler
}

func (a *app) watch(ctx context.Context, path string, mode viewer.Mode) error {
	hc := a.cfg.Highlight()
	if err := hc.Options.Validate(); err != nil {
		return err
	}

	s := &session{
		logger:      a.logger.WithComponent("watch"),
		mode:        mode,
		highlighter: highlight.NewMarkdown(),
		context:     hc.ContextLines,
	}
	s.sched = schedule.New(a.renderer,
		schedule.WithDebounce(a.cfg.Schedule().Debounce()),
		schedule.WithRenderOptions(a.cfg.Render()),
		schedule.WithLogger(a.logger),
		schedule.WithPublishCallback(s.published),
	)

	w, err := watch.New(path, watch.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer w.Close()

	if err := s.sched.Start(ctx); err != nil {
		return err
	}
	defer s.sched.Stop()
	if err := w.Start(ctx); err != nil {
		return err
	}

	if data, err := os.ReadFile(w.Path()); err == nil {
		s.edit(string(data))
		s.sched.Flush()
	} else {
		s.logger.WithError(err).Warn("waiting for %s to appear", w.Path())
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopped")
			return nil
		case c, ok := <-w.Changes():
			if !ok {
				return nil
			}
			if c.Removed() {
				s.logger.Warn("file removed, keeping the last preview")
				continue
			}
			s.edit(c.Content)
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			s.logger.WithError(err).Warn("watch error")
		}
	}
}

// edit records the range that changed and schedules a render.
func (s *session) edit(source string) {
	s.pending.Add(highlight.EditedRange(s.source, source))
	s.source = source
	rev := s.sched.Edit(source)
	s.logger.WithField("revision", uint64(rev)).Debug("edit")
}

// published runs on the scheduler's worker after each snapshot.
func (s *session) published(snap *tracking.Snapshot) {
	spans := 0
	for _, r := range s.pending.Take() {
		target := highlight.TargetRange(snap.Source, r, s.context)
		spans += len(s.highlighter.Highlight(snap.Source, target))
	}

	st := s.sched.Status()
	log := s.logger.WithFields(map[string]any{
		"revision": uint64(snap.Revision),
		"anchors":  len(snap.Anchors),
		"spans":    spans,
		"pass":     snap.PassID.String(),
	})
	if text := viewer.StatusText(s.mode, st.Updating, uint64(st.SourceRevision), uint64(st.RenderedRevision)); text != "" {
		log.Info("%s", text)
		return
	}
	log.Info("rendered")
}
