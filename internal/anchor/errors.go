package anchor

import (
	"errors"
	"fmt"
)

// Errors reported by Validate.
var (
	// ErrInvertedSource indicates SourceEnd < SourceStart.
	ErrInvertedSource = errors.New("source range is inverted")

	// ErrNegativeTarget indicates a negative TargetStart or TargetLength.
	ErrNegativeTarget = errors.New("target range is negative")

	// ErrOutOfOrder indicates an anchor that starts before its predecessor.
	ErrOutOfOrder = errors.New("anchors are out of order")

	// ErrOverlap indicates an anchor that overlaps its predecessor.
	ErrOverlap = errors.New("anchors overlap")

	// ErrDuplicateID indicates two anchors share a block id in one pass.
	ErrDuplicateID = errors.New("duplicate block id")
)

// InvariantError describes which anchor broke which invariant.
type InvariantError struct {
	// Index is the position of the offending anchor in the list.
	Index int
	// Anchor is the offending anchor.
	Anchor BlockAnchor
	// Err is one of the sentinel errors above.
	Err error
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("anchor %d %s: %v", e.Index, e.Anchor, e.Err)
}

// Unwrap returns the sentinel error.
func (e *InvariantError) Unwrap() error {
	return e.Err
}
