package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/mdsync/internal/anchor"
	"github.com/dshills/mdsync/internal/render"
)

func newRenderCmd(a *app) *cobra.Command {
	var showAnchors, asJSON bool

	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Print the rendered text of a Markdown file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := a.readSource(args[0])
			if err != nil {
				return err
			}
			res, err := a.renderer.Render(source, a.cfg.Render())
			if err != nil {
				return err
			}
			a.logger.WithField("file", args[0]).Debug("rendered %d anchors", len(res.Anchors))

			if asJSON {
				return writeJSON(a.stdout, res)
			}
			fmt.Fprintln(a.stdout, res.Text)
			if showAnchors {
				fmt.Fprintln(a.stdout)
				writeAnchorTable(a.stdout, source, res)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showAnchors, "anchors", false, "print the block anchor table after the text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the text, anchors and blocks as JSON")
	return cmd
}

type anchorJSON struct {
	ID             uint64 `json:"id"`
	Kind           string `json:"kind"`
	SourceStart    int    `json:"sourceStart"`
	SourceEnd      int    `json:"sourceEnd"`
	RenderedStart  int    `json:"renderedStart"`
	RenderedLength int    `json:"renderedLength"`
}

type rangeJSON struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Language string `json:"language,omitempty"`
	URL      string `json:"url,omitempty"`
}

type renderJSON struct {
	Text        string       `json:"text"`
	Anchors     []anchorJSON `json:"anchors"`
	CodeBlocks  []rangeJSON  `json:"codeBlocks,omitempty"`
	Blockquotes []rangeJSON  `json:"blockquotes,omitempty"`
	Links       []rangeJSON  `json:"links,omitempty"`
}

func writeJSON(w io.Writer, res *render.Result) error {
	out := renderJSON{Text: res.Text, Anchors: make([]anchorJSON, 0, len(res.Anchors))}
	for _, an := range res.Anchors {
		out.Anchors = append(out.Anchors, anchorJSON{
			ID:             uint64(an.BlockID),
			Kind:           an.Kind.String(),
			SourceStart:    an.SourceStart,
			SourceEnd:      an.SourceEnd,
			RenderedStart:  an.TargetStart,
			RenderedLength: an.TargetLength,
		})
	}
	for _, cb := range res.CodeBlocks {
		out.CodeBlocks = append(out.CodeBlocks, rangeJSON{Start: cb.Start, End: cb.End, Language: cb.Language})
	}
	for _, bq := range res.Blockquotes {
		out.Blockquotes = append(out.Blockquotes, rangeJSON{Start: bq.Start, End: bq.End})
	}
	for _, l := range res.Links {
		out.Links = append(out.Links, rangeJSON{Start: l.Start, End: l.End, URL: l.URL})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

const excerptLen = 32

// writeAnchorTable prints one row per anchor with the source text it covers.
func writeAnchorTable(w io.Writer, source string, res *render.Result) {
	bold := color.New(color.Bold).SprintFunc()
	kind := color.New(color.FgCyan).SprintFunc()
	rng := color.New(color.FgYellow).SprintFunc()

	src := []rune(source)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, bold("ID")+"\t"+bold("KIND")+"\t"+bold("SOURCE")+"\t"+bold("RENDERED")+"\t"+bold("TEXT"))
	for _, an := range res.Anchors {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			an.BlockID,
			kind(an.Kind),
			rng(fmt.Sprintf("[%d,%d)", an.SourceStart, an.SourceEnd)),
			rng(fmt.Sprintf("[%d,%d)", an.TargetStart, an.TargetEnd())),
			excerpt(src, an),
		)
	}
	tw.Flush()
}

func excerpt(src []rune, an anchor.BlockAnchor) string {
	start := min(max(an.SourceStart, 0), len(src))
	end := min(max(an.SourceEnd, start), len(src))
	text := string(src[start:end])
	if r := []rune(text); len(r) > excerptLen {
		text = string(r[:excerptLen-1]) + "…"
	}
	return strings.ReplaceAll(text, "\n", `\n`)
}
