package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/mdsync/internal/inline"
)

func newToggleCmd(a *app) *cobra.Command {
	var (
		start, end  int
		marker      string
		suffix      string
		placeholder string
		write       bool
	)

	cmd := &cobra.Command{
		Use:   "toggle FILE --start N --end N",
		Short: "Wrap or unwrap a rune range in inline formatting markers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("end") {
				end = start
			}
			source, err := a.readSource(args[0])
			if err != nil {
				return err
			}
			edit, err := inline.ComputeToggleEdit(source, inline.Range{Start: start, End: end}, marker, suffix, placeholder)
			if err != nil {
				return err
			}
			result := edit.Apply(source)

			a.logger.WithFields(map[string]any{
				"replace":   fmt.Sprintf("[%d,%d)", edit.Replace.Start, edit.Replace.End),
				"selection": fmt.Sprintf("[%d,%d)", edit.NextSelection.Start, edit.NextSelection.End),
			}).Debug("toggled %q", marker)

			if !write {
				fmt.Fprint(a.stdout, result)
				return nil
			}
			if args[0] == "-" {
				return fmt.Errorf("--write needs a file, not stdin")
			}
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], []byte(result), info.Mode().Perm()); err != nil {
				return fmt.Errorf("writing %s: %w", args[0], err)
			}
			fmt.Fprintf(a.stdout, "selection %d %d\n", edit.NextSelection.Start, edit.NextSelection.End)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&start, "start", 0, "selection start, in runes")
	flags.IntVar(&end, "end", 0, "selection end, in runes (defaults to --start)")
	flags.StringVar(&marker, "marker", "**", "opening marker")
	flags.StringVar(&suffix, "suffix", "", "closing marker (defaults to --marker)")
	flags.StringVar(&placeholder, "placeholder", "text", "text inserted for an empty selection")
	flags.BoolVarP(&write, "write", "w", false, "write the result back to FILE and print the new selection")
	return cmd
}
