package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/mdsync/internal/anchor"
	"github.com/dshills/mdsync/internal/mapping"
	"github.com/dshills/mdsync/internal/schedule"
	"github.com/dshills/mdsync/internal/tracking"
)

// Map modes.
const (
	modeAnchors = "anchors"
	modeContent = "content"
	modeRatio   = "ratio"
)

func newMapCmd(a *app) *cobra.Command {
	var (
		sourceOffset   int
		renderedOffset int
		mode           string
	)

	cmd := &cobra.Command{
		Use:   "map FILE (--source N | --rendered N)",
		Short: "Map a rune offset between the source and the rendered text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromSource := cmd.Flags().Changed("source")
			fromRendered := cmd.Flags().Changed("rendered")
			if fromSource == fromRendered {
				return errors.New("exactly one of --source or --rendered is required")
			}

			source, err := a.readSource(args[0])
			if err != nil {
				return err
			}
			res, err := a.renderer.Render(source, a.cfg.Render())
			if err != nil {
				return err
			}

			loc := anchor.SourceAt(sourceOffset)
			if fromRendered {
				loc = anchor.RenderedAt(renderedOffset)
			}

			var mapped int
			switch strings.ToLower(mode) {
			case modeAnchors:
				snap := tracking.NewSnapshot(1, source, res)
				mapped = schedule.Map(snap, loc, snap.Revision).Offset
			case modeContent:
				if fromSource {
					mapped = mapping.MapByContent(source, loc.Offset, res.Text)
				} else {
					mapped = mapping.MapByContentReverse(source, res.Text, loc.Offset)
				}
			case modeRatio:
				from, to := []rune(source), []rune(res.Text)
				if fromRendered {
					from, to = to, from
				}
				mapped = mapping.Location(mapping.Ratio(loc.Offset, len(from)), len(to))
			default:
				return fmt.Errorf("unknown mode %q (want %s, %s or %s)", mode, modeAnchors, modeContent, modeRatio)
			}

			fmt.Fprintf(a.stdout, "%s %d -> %s %d\n", loc.Space, loc.Offset, loc.Space.Other(), mapped)
			return nil
		},
	}
	cmd.Flags().IntVar(&sourceOffset, "source", 0, "source rune offset to map to the rendered text")
	cmd.Flags().IntVar(&renderedOffset, "rendered", 0, "rendered rune offset to map to the source")
	cmd.Flags().StringVar(&mode, "mode", modeAnchors, "mapping mode: anchors, content or ratio")
	return cmd
}
