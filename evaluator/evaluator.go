// Package evaluator scores trajectory segments. The Composite evaluator
// forwards to independently swappable cost, value, selection and update
// strategies; only the gain computation has no default.
package evaluator

import (
	"errors"

	"stickynav/trajectory"
	"stickynav/visualization"
)

// None is returned by SelectNextBest when no child is viable.
const None = -1

var ErrNoGainComputer = errors.New("evaluator: a gain computer is required")

// Evaluator is the contract the planning loop consumes.
type Evaluator interface {
	// ComputeGain sets segment.Gain and reports success.
	ComputeGain(segment *trajectory.Segment) bool
	// ComputeCost sets segment.Cost and reports success.
	ComputeCost(segment *trajectory.Segment) bool
	// ComputeValue sets segment.Value from its gain and cost.
	ComputeValue(segment *trajectory.Segment) bool
	// SelectNextBest returns the index of the child to pursue or None.
	SelectNextBest(segment *trajectory.Segment) int
	// UpdateSegment re-scores a segment, false kills it and its subtree.
	UpdateSegment(segment *trajectory.Segment) bool
	// VisualizeTrajectoryValue may add annotations for a segment.
	VisualizeTrajectoryValue(markers *visualization.Markers, segment *trajectory.Segment)
}

type GainComputer interface {
	ComputeGain(segment *trajectory.Segment) bool
}

type CostComputer interface {
	ComputeCost(segment *trajectory.Segment) bool
}

// ValueComputer combines gain and cost. Implementations must be
// deterministic and must not touch anything but segment.Value.
type ValueComputer interface {
	ComputeValue(segment *trajectory.Segment) bool
}

type NextSelector interface {
	SelectNextBest(segment *trajectory.Segment) int
}

// Updater revalidates a segment during the tree update. It receives the
// evaluator it belongs to so it can re-run the other strategies.
type Updater interface {
	UpdateSegment(segment *trajectory.Segment, evaluator Evaluator) bool
}

// GainFunc adapts a plain function to a GainComputer.
type GainFunc func(segment *trajectory.Segment) bool

func (f GainFunc) ComputeGain(segment *trajectory.Segment) bool {
	return f(segment)
}

type Option func(c *Composite)

func WithCostComputer(cost CostComputer) Option {
	return func(c *Composite) {
		if cost != nil {
			c.cost = cost
		}
	}
}

func WithValueComputer(value ValueComputer) Option {
	return func(c *Composite) {
		if value != nil {
			c.value = value
		}
	}
}

func WithNextSelector(next NextSelector) Option {
	return func(c *Composite) {
		if next != nil {
			c.next = next
		}
	}
}

func WithUpdater(updater Updater) Option {
	return func(c *Composite) {
		if updater != nil {
			c.updater = updater
		}
	}
}

// WithValueMarkers makes VisualizeTrajectoryValue annotate the end point of
// every segment with its value.
func WithValueMarkers() Option {
	return func(c *Composite) {
		c.valueMarkers = true
	}
}

type Composite struct {
	gain         GainComputer
	cost         CostComputer
	value        ValueComputer
	next         NextSelector
	updater      Updater
	valueMarkers bool
}

func NewComposite(gain GainComputer, options ...Option) (*Composite, error) {
	if gain == nil {
		return nil, ErrNoGainComputer
	}
	c := &Composite{ // Default values
		gain:    gain,
		cost:    SegmentTime{},
		value:   Simple{GainWeight: 1, CostWeight: 1},
		next:    ImmediateBest{},
		updater: Default{},
	}
	for _, option := range options {
		option(c)
	}
	return c, nil
}

func (c *Composite) ComputeGain(segment *trajectory.Segment) bool {
	return c.gain.ComputeGain(segment)
}

func (c *Composite) ComputeCost(segment *trajectory.Segment) bool {
	return c.cost.ComputeCost(segment)
}

func (c *Composite) ComputeValue(segment *trajectory.Segment) bool {
	return c.value.ComputeValue(segment)
}

func (c *Composite) SelectNextBest(segment *trajectory.Segment) int {
	return c.next.SelectNextBest(segment)
}

func (c *Composite) UpdateSegment(segment *trajectory.Segment) bool {
	return c.updater.UpdateSegment(segment, c)
}

func (c *Composite) VisualizeTrajectoryValue(markers *visualization.Markers, segment *trajectory.Segment) {
	if !c.valueMarkers || markers == nil {
		return
	}
	end, ok := segment.End()
	if !ok {
		return
	}
	markers.Add(visualization.Marker{Position: end.Position, Value: segment.Value})
}
