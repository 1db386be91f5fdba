package evaluator

import "stickynav/trajectory"

// Default re-runs cost and value and keeps the segment unless it is dead or
// a computation fails.
type Default struct{}

func (Default) UpdateSegment(segment *trajectory.Segment, e Evaluator) bool {
	if !segment.Live {
		return false
	}
	return e.ComputeCost(segment) && e.ComputeValue(segment)
}

// RecomputeAll also re-runs the gain, for maps that change quickly.
type RecomputeAll struct{}

func (RecomputeAll) UpdateSegment(segment *trajectory.Segment, e Evaluator) bool {
	if !segment.Live {
		return false
	}
	return e.ComputeGain(segment) && e.ComputeCost(segment) && e.ComputeValue(segment)
}

// PruneBelow runs Following and then kills segments whose value is below
// Threshold.
type PruneBelow struct {
	Threshold float64
	Following Updater
}

func (u PruneBelow) UpdateSegment(segment *trajectory.Segment, e Evaluator) bool {
	following := u.Following
	if following == nil {
		following = Default{}
	}
	if !following.UpdateSegment(segment, e) {
		return false
	}
	return segment.Value >= u.Threshold
}

// Nothing keeps every segment untouched.
type Nothing struct{}

func (Nothing) UpdateSegment(*trajectory.Segment, Evaluator) bool {
	return true
}
