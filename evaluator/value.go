package evaluator

import (
	"math"

	"stickynav/trajectory"
)

// Simple is a weighted difference of gain and cost.
type Simple struct {
	GainWeight float64
	CostWeight float64
	// Accumulate adds the value of the non-root parent.
	Accumulate bool
}

func (v Simple) ComputeValue(segment *trajectory.Segment) bool {
	value := v.GainWeight*segment.Gain - v.CostWeight*segment.Cost
	if v.Accumulate && segment.Parent != nil && !segment.Parent.IsRoot() {
		value += segment.Parent.Value
	}
	return setValue(segment, value)
}

// Relative is gain per unit cost. A non-positive cost has no defined ratio
// and fails.
type Relative struct{}

func (Relative) ComputeValue(segment *trajectory.Segment) bool {
	if segment.Cost <= 0 {
		return false
	}
	return setValue(segment, segment.Gain/segment.Cost)
}

// ExponentialDiscount discounts gain by exp(-Lambda * cost).
type ExponentialDiscount struct {
	Lambda float64
}

func (v ExponentialDiscount) ComputeValue(segment *trajectory.Segment) bool {
	return setValue(segment, segment.Gain*math.Exp(-v.Lambda*segment.Cost))
}

// setValue refuses values without a total order.
func setValue(segment *trajectory.Segment, value float64) bool {
	if math.IsNaN(value) {
		return false
	}
	segment.Value = value
	return true
}
