package evaluator

import (
	"math"

	"stickynav/trajectory"
)

// ImmediateBest picks the live child with the highest value. The earliest
// generated child wins ties.
type ImmediateBest struct{}

func (ImmediateBest) SelectNextBest(segment *trajectory.Segment) int {
	bestIndex := None
	bestValue := math.Inf(-1)
	for i, child := range segment.Children {
		if !child.Live || math.IsNaN(child.Value) {
			continue
		}
		if bestIndex == None || child.Value > bestValue {
			bestIndex = i
			bestValue = child.Value
		}
	}
	return bestIndex
}

// SubsequentBest picks the live child whose subtree contains the highest
// value segment, descending through live segments only.
type SubsequentBest struct{}

func (SubsequentBest) SelectNextBest(segment *trajectory.Segment) int {
	bestIndex := None
	bestValue := math.Inf(-1)
	for i, child := range segment.Children {
		value, ok := bestInSubtree(child)
		if !ok {
			continue
		}
		if bestIndex == None || value > bestValue {
			bestIndex = i
			bestValue = value
		}
	}
	return bestIndex
}

func bestInSubtree(segment *trajectory.Segment) (float64, bool) {
	found := false
	best := math.Inf(-1)
	segment.Walk(func(s *trajectory.Segment) bool {
		if !s.Live {
			return false
		}
		if !math.IsNaN(s.Value) && (!found || s.Value > best) {
			best = s.Value
			found = true
		}
		return true
	})
	return best, found
}
