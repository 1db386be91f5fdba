package planner

import "stickynav/trajectory"

// Stats are the session counters. Totals span the whole session, the New*
// fields only the current decision cycle.
type Stats struct {
	Session            string
	Iterations         int
	Rounds             int
	Commits            int
	Recoveries         int
	TreeSize           int
	NewSegments        int
	NewTries           int
	MinValueReached    bool
	TotalSegments      int
	TotalTries         int
	FailedComputations int
	KilledNext         int
	KilledUpdate       int
	Discarded          int // Non-viable segments removed by the tree update
}

// session is the per-session run state, owned by the planning goroutine.
type session struct {
	id       string
	root     *trajectory.Segment
	treeSize int // bookkeeping, checked by Verify
	budget   budget
	expanded bool // The last iteration added a viable segment
	issued   bool // The last iteration requested a movement
	stats    Stats
}

func newSession(id string, root *trajectory.Segment) *session {
	return &session{
		id:       id,
		root:     root,
		treeSize: 1,
		stats:    Stats{Session: id},
	}
}

func (s *session) resetBudget() {
	s.budget = budget{}
}

// Stats returns a copy of the session counters. Call it from the planning
// goroutine or after Run returned.
func (p *Planner) Stats() Stats {
	if p.session == nil {
		return Stats{}
	}
	s := p.session
	stats := s.stats
	stats.TreeSize = s.treeSize
	if s.root == nil {
		stats.TreeSize = 0
	}
	stats.NewSegments = s.budget.newSegments
	stats.NewTries = s.budget.newTries
	stats.MinValueReached = s.budget.minValueReached
	return stats
}
