package evaluator

import "stickynav/trajectory"

// SegmentTime uses the execution time of the segment in seconds as cost.
// With Accumulate the cost of non-root ancestors is added.
type SegmentTime struct {
	Accumulate bool
}

func (c SegmentTime) ComputeCost(segment *trajectory.Segment) bool {
	if len(segment.Trajectory) == 0 {
		return false
	}
	segment.Cost = segment.Duration().Seconds() + inheritedCost(segment, c.Accumulate)
	return true
}

// SegmentLength uses the travelled distance as cost.
type SegmentLength struct {
	Accumulate bool
}

func (c SegmentLength) ComputeCost(segment *trajectory.Segment) bool {
	if len(segment.Trajectory) == 0 {
		return false
	}
	segment.Cost = segment.Length() + inheritedCost(segment, c.Accumulate)
	return true
}

type NoCost struct{}

func (NoCost) ComputeCost(segment *trajectory.Segment) bool {
	segment.Cost = 0
	return true
}

// The root has already been executed so its cost is never inherited.
func inheritedCost(segment *trajectory.Segment, accumulate bool) float64 {
	if !accumulate || segment.Parent == nil || segment.Parent.IsRoot() {
		return 0
	}
	return segment.Parent.Cost
}
