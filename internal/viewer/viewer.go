// Package viewer holds the viewer mode state: which panes are visible and
// what the preview status line says.
package viewer

import (
	"fmt"
	"strings"
)

// Mode is the viewer layout mode.
type Mode int

// Viewer modes.
const (
	ModeRead Mode = iota
	ModeEdit
	ModeSplit
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeEdit:
		return "edit"
	case ModeSplit:
		return "split"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read":
		return ModeRead, nil
	case "edit":
		return ModeEdit, nil
	case "split":
		return ModeSplit, nil
	default:
		return ModeRead, fmt.Errorf("unknown viewer mode %q", s)
	}
}

// Next cycles read -> edit -> split -> read.
func (m Mode) Next() Mode {
	return (m + 1) % 3
}

// PaneLayout says which panes a mode shows.
type PaneLayout struct {
	PreviewVisible bool
	SourceVisible  bool
	SplitVisible   bool
}

// LayoutFor returns the pane layout of mode. Unknown modes fall back to
// the read layout.
func LayoutFor(mode Mode) PaneLayout {
	switch mode {
	case ModeEdit:
		return PaneLayout{SourceVisible: true}
	case ModeSplit:
		return PaneLayout{PreviewVisible: true, SourceVisible: true, SplitVisible: true}
	default:
		return PaneLayout{PreviewVisible: true}
	}
}

// Status lines.
const (
	StatusUpdating  = "Updating preview…"
	StatusOutOfDate = "Preview out of date"
	StatusUpToDate  = "Preview up to date"
)

// StatusText returns the preview status line. It is empty when the mode
// hides the preview.
func StatusText(mode Mode, previewUpdating bool, sourceRevision, renderedRevision uint64) string {
	if !LayoutFor(mode).PreviewVisible {
		return ""
	}
	switch {
	case previewUpdating:
		return StatusUpdating
	case renderedRevision < sourceRevision:
		return StatusOutOfDate
	default:
		return StatusUpToDate
	}
}
