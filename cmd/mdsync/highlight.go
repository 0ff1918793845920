package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/mdsync/internal/highlight"
)

func newHighlightCmd(a *app) *cobra.Command {
	var from, to int

	cmd := &cobra.Command{
		Use:   "highlight FILE",
		Short: "List the highlight spans and their styles for a Markdown file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := a.readSource(args[0])
			if err != nil {
				return err
			}
			hc := a.cfg.Highlight()
			if err := hc.Options.Validate(); err != nil {
				return err
			}
			theme := highlight.Theme(hc.Options)

			target := highlight.Range{Start: 0, End: len([]rune(source))}
			if cmd.Flags().Changed("from") || cmd.Flags().Changed("to") {
				if !cmd.Flags().Changed("to") {
					to = from
				}
				target = highlight.TargetRange(source, highlight.Range{Start: from, End: to}, hc.ContextLines)
			}

			spans := highlight.NewMarkdown().Highlight(source, target)
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			for _, sp := range spans {
				st := theme[sp.Kind]
				fmt.Fprintf(tw, "[%d,%d)\t%s\t%s%s\n", sp.Start, sp.End, sp.Kind, st.Color, styleFlags(st))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&from, "from", 0, "start of an edited rune range to re-highlight")
	cmd.Flags().IntVar(&to, "to", 0, "end of the edited rune range")
	return cmd
}

func styleFlags(st highlight.Style) string {
	s := ""
	if st.Bold {
		s += " bold"
	}
	if st.Italic {
		s += " italic"
	}
	return s
}
