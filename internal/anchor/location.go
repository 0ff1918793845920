package anchor

import "fmt"

// Space names the text an offset is relative to.
type Space uint8

// Offset spaces.
const (
	SpaceSource Space = iota
	SpaceRendered
)

// String returns the space name.
func (s Space) String() string {
	if s == SpaceRendered {
		return "rendered"
	}
	return "source"
}

// Other returns the opposite space.
func (s Space) Other() Space {
	if s == SpaceRendered {
		return SpaceSource
	}
	return SpaceRendered
}

// Location is an offset in one of the two texts. It owns nothing.
type Location struct {
	Space  Space
	Offset int
}

// SourceAt returns a source-space location.
func SourceAt(offset int) Location {
	return Location{Space: SpaceSource, Offset: offset}
}

// RenderedAt returns a rendered-space location.
func RenderedAt(offset int) Location {
	return Location{Space: SpaceRendered, Offset: offset}
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.Space, l.Offset)
}
