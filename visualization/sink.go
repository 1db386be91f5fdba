// Package visualization carries side-effect notifications about the
// planning tree. Sinks must never influence planning.
package visualization

import (
	"gonum.org/v1/gonum/spatial/r3"

	"stickynav/trajectory"
)

// Marker annotates a point of the tree, usually a segment end point, with a
// scalar such as its value.
type Marker struct {
	Position r3.Vec
	Value    float64
	Label    string
}

type Markers []Marker

func (m *Markers) Add(marker Marker) {
	*m = append(*m, marker)
}

type Sink interface {
	// PublishCandidates receives the segments added during an iteration.
	PublishCandidates(segments []*trajectory.Segment)
	// PublishCompleted receives every committed segment.
	PublishCompleted(segment *trajectory.Segment)
	// PublishMarkers receives per-segment annotations.
	PublishMarkers(markers Markers)
}

type noopSink struct{}

func NewNoopSink() Sink {
	return noopSink{}
}

func (noopSink) PublishCandidates([]*trajectory.Segment) {}
func (noopSink) PublishCompleted(*trajectory.Segment)    {}
func (noopSink) PublishMarkers(Markers)                  {}
