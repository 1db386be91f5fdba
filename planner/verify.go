package planner

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"stickynav/trajectory"
)

// Violation is a tree invariant found broken by Verify.
type Violation struct {
	Segment *trajectory.Segment
	Depth   int
	Reason  string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("tree violation at depth %d: %s", v.Depth, v.Reason)
}

// Verify checks the tree invariants: a single parentless root, consistent
// parent links, no cycles, continuity between parent and child and the
// tracked tree size. It only reads the tree.
func (p *Planner) Verify() error {
	s := p.session
	if s == nil || s.root == nil {
		return ErrNotInitialized
	}

	var errs []error
	report := func(segment *trajectory.Segment, depth int, format string, args ...any) {
		v := &Violation{Segment: segment, Depth: depth, Reason: fmt.Sprintf(format, args...)}
		log.Error().Str("session", s.id).Msg(v.Error())
		errs = append(errs, v)
	}

	if s.root.Parent != nil {
		report(s.root, 0, "root has a parent")
	}

	type entry struct {
		segment *trajectory.Segment
		depth   int
	}
	visited := map[*trajectory.Segment]bool{s.root: true}
	stack := []entry{{s.root, 0}}
	count := 0
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++
		if len(e.segment.Trajectory) == 0 {
			report(e.segment, e.depth, "segment has no trajectory points")
		}
		for i := len(e.segment.Children) - 1; i >= 0; i-- {
			child := e.segment.Children[i]
			switch {
			case child == nil:
				report(e.segment, e.depth, "child %d is nil", i)
				continue
			case visited[child]:
				report(child, e.depth+1, "segment reachable twice")
				continue
			}
			visited[child] = true
			if child.Parent != e.segment {
				report(child, e.depth+1, "parent link does not point to the owning segment")
			}
			if len(e.segment.Trajectory) > 0 && len(child.Trajectory) > 0 &&
				!trajectory.Continuous(e.segment, child, p.continuityTolerance) {
				report(child, e.depth+1, "trajectory does not start at the end of its parent")
			}
			stack = append(stack, entry{child, e.depth + 1})
		}
	}

	if count != s.treeSize {
		report(s.root, 0, "tree has %d segments, %d tracked", count, s.treeSize)
	}
	return errors.Join(errs...)
}
