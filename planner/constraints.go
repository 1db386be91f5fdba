package planner

import (
	"errors"
	"fmt"
)

// Constraints bound how much expansion happens before a decision. A zero
// bound is ignored.
type Constraints struct {
	MaxNewSegments int     // After this many new segments no more are expanded
	MinNewSegments int     // Until this many new segments exist no decision is taken
	MinNewTries    int     // Until this many expansion calls no decision is taken
	MaxNewTries    int     // After this many expansion calls a decision is forced
	MinNewValue    float64 // Until a segment of this value exists expansion continues
	ExpandBatch    int     // Expansions per iteration before rechecking the bounds
}

func DefaultConstraints() Constraints {
	return Constraints{ExpandBatch: 1}
}

func (c Constraints) Validate() error {
	var errs []error
	if c.MaxNewSegments < 0 || c.MinNewSegments < 0 || c.MinNewTries < 0 || c.MaxNewTries < 0 {
		errs = append(errs, errors.New("segment and try bounds must not be negative"))
	}
	if c.ExpandBatch < 1 {
		errs = append(errs, fmt.Errorf("expand batch must be at least 1, got %d", c.ExpandBatch))
	}
	if c.MaxNewSegments > 0 && c.MinNewSegments > c.MaxNewSegments {
		errs = append(errs, fmt.Errorf("min new segments %d exceeds max new segments %d", c.MinNewSegments, c.MaxNewSegments))
	}
	if c.MaxNewTries > 0 && c.MinNewTries > c.MaxNewTries {
		errs = append(errs, fmt.Errorf("min new tries %d exceeds max new tries %d", c.MinNewTries, c.MaxNewTries))
	}
	return errors.Join(errs...)
}

// budget is the per-decision progress checked against the constraints.
type budget struct {
	newSegments     int
	newTries        int
	minValueReached bool
}

// maximumReached reports whether any configured maximum is hit.
func (c Constraints) maximumReached(b budget) bool {
	return (c.MaxNewSegments > 0 && b.newSegments >= c.MaxNewSegments) ||
		(c.MaxNewTries > 0 && b.newTries >= c.MaxNewTries)
}

// minimumsReached reports whether every configured minimum is satisfied.
func (c Constraints) minimumsReached(b budget) bool {
	if c.MinNewSegments > 0 && b.newSegments < c.MinNewSegments {
		return false
	}
	if c.MinNewTries > 0 && b.newTries < c.MinNewTries {
		return false
	}
	if c.MinNewValue != 0 && !b.minValueReached {
		return false
	}
	return true
}

// ready reports whether a decision may be taken: either a maximum forces it
// or all minimums are met.
func (c Constraints) ready(b budget) bool {
	return c.maximumReached(b) || c.minimumsReached(b)
}
