package tracking

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/mdsync/internal/anchor"
	"github.com/dshills/mdsync/internal/mapping"
	"github.com/dshills/mdsync/internal/render"
)

// Snapshot is one published render pass. It is immutable.
type Snapshot struct {
	// Revision is the source revision that was rendered.
	Revision Revision

	Source   string
	Rendered string
	Anchors  anchor.List

	CodeBlocks  []render.CodeBlock
	Blockquotes []render.Range
	Links       []render.Link

	// PassID identifies the render pass, for log correlation.
	PassID uuid.UUID
	// RenderedAt is when the pass finished.
	RenderedAt time.Time

	result *render.Result
	mapper *mapping.Mapper
}

// NewSnapshot freezes a render result for the given revision. The anchors
// are normalized against the texts before the mapper is built.
func NewSnapshot(rev Revision, source string, res *render.Result) *Snapshot {
	if res == nil {
		res = &render.Result{}
	}
	m := mapping.NewMapper(source, res.Text, res.Anchors)
	return &Snapshot{
		Revision:    rev,
		Source:      source,
		Rendered:    res.Text,
		Anchors:     m.Anchors(),
		CodeBlocks:  res.CodeBlocks,
		Blockquotes: res.Blockquotes,
		Links:       res.Links,
		PassID:      uuid.New(),
		RenderedAt:  time.Now(),
		result:      res,
		mapper:      m,
	}
}

// Result returns the render result the snapshot was built from.
func (s *Snapshot) Result() *render.Result {
	return s.result
}

// Mapper returns the mapper over this snapshot's texts.
func (s *Snapshot) Mapper() *mapping.Mapper {
	return s.mapper
}

// SourceLen returns the source length in runes.
func (s *Snapshot) SourceLen() int {
	return s.mapper.SourceLen()
}

// RenderedLen returns the rendered length in runes.
func (s *Snapshot) RenderedLen() int {
	return s.mapper.RenderedLen()
}

// SourceToRendered maps a source offset to the rendered text.
func (s *Snapshot) SourceToRendered(offset int) int {
	return s.mapper.SourceToTarget(offset)
}

// RenderedToSource maps a rendered offset to the source text.
func (s *Snapshot) RenderedToSource(offset int) int {
	return s.mapper.TargetToSource(offset)
}

// Map maps a location to the other space.
func (s *Snapshot) Map(loc anchor.Location) anchor.Location {
	return s.mapper.Map(loc)
}

// Age returns how long ago the pass finished.
func (s *Snapshot) Age() time.Duration {
	return time.Since(s.RenderedAt)
}
