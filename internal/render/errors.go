package render

import (
	"errors"
	"fmt"
)

// Errors returned by renderers.
var (
	// ErrSourceTooLarge indicates the source exceeds Options.MaxSourceBytes.
	ErrSourceTooLarge = errors.New("source too large")

	// ErrParserPanic indicates the Markdown parser panicked.
	ErrParserPanic = errors.New("markdown parser panicked")
)

// Error wraps a render failure with the size of the source that caused it.
type Error struct {
	// SourceBytes is the length of the source in bytes.
	SourceBytes int
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("render %d bytes: %v", e.SourceBytes, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
