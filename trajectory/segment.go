package trajectory

import (
	"time"

	"stickynav/geometry"
)

// Segment is a node of the trajectory tree. A parent owns its children
// exclusively, Parent is only a lookup link back up the tree.
type Segment struct {
	Trajectory []Point
	Gain       float64
	Cost       float64
	Value      float64
	// Live is cleared when the segment is non-viable. Dead segments and
	// their subtrees are skipped by selection and expansion.
	Live bool
	// Info holds strategy specific scratch data.
	Info any

	Parent   *Segment
	Children []*Segment
}

// NewRoot creates a degenerate root segment holding a single point at pose.
func NewRoot(pose geometry.Pose) *Segment {
	return &Segment{
		Trajectory: []Point{PointAt(pose, 0)},
		Live:       true,
	}
}

// SpawnChild appends a new live child. Insertion order is preserved and
// used as a tie-break by selection.
func (s *Segment) SpawnChild() *Segment {
	child := &Segment{Parent: s, Live: true}
	s.Children = append(s.Children, child)
	return child
}

func (s *Segment) IsRoot() bool {
	return s.Parent == nil
}

// Alive reports whether the segment and all of its ancestors are live.
func (s *Segment) Alive() bool {
	for node := s; node != nil; node = node.Parent {
		if !node.Live {
			return false
		}
	}
	return true
}

// Start returns the first trajectory point.
func (s *Segment) Start() (Point, bool) {
	if len(s.Trajectory) == 0 {
		return Point{}, false
	}
	return s.Trajectory[0], true
}

// End returns the last trajectory point.
func (s *Segment) End() (Point, bool) {
	if len(s.Trajectory) == 0 {
		return Point{}, false
	}
	return s.Trajectory[len(s.Trajectory)-1], true
}

func (s *Segment) Length() float64 {
	return Length(s.Trajectory)
}

func (s *Segment) Duration() time.Duration {
	return Duration(s.Trajectory)
}

func (s *Segment) Depth() int {
	depth := 0
	for node := s.Parent; node != nil; node = node.Parent {
		depth++
	}
	return depth
}

// IndexOf returns the position of child among the children, or -1.
func (s *Segment) IndexOf(child *Segment) int {
	for i, c := range s.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// RemoveChild unlinks the i-th child, keeping the order of the others, and
// returns it detached.
func (s *Segment) RemoveChild(i int) *Segment {
	child := s.Children[i]
	copy(s.Children[i:], s.Children[i+1:])
	s.Children[len(s.Children)-1] = nil
	s.Children = s.Children[:len(s.Children)-1]
	child.Parent = nil
	return child
}

// Detach unlinks the segment from its parent so it can serve as a new root.
func (s *Segment) Detach() {
	if s.Parent == nil {
		return
	}
	if i := s.Parent.IndexOf(s); i >= 0 {
		s.Parent.RemoveChild(i)
		return
	}
	s.Parent = nil
}

// Walk visits the subtree in pre-order, parent before children and
// children in insertion order. Returning false from visit skips the
// children of that segment.
func (s *Segment) Walk(visit func(*Segment) bool) {
	stack := []*Segment{s}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(node) {
			continue
		}
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
}

// Size counts the segments of the subtree including s.
func (s *Segment) Size() int {
	n := 0
	s.Walk(func(*Segment) bool {
		n++
		return true
	})
	return n
}

// Collect returns the subtree in pre-order.
func (s *Segment) Collect() []*Segment {
	var out []*Segment
	s.Walk(func(node *Segment) bool {
		out = append(out, node)
		return true
	})
	return out
}

// Continuous reports whether child starts where parent ends, within tolerance
// in position. Only the position is compared: time restarts per segment and
// recovery motions may change the orientation in place. Segments without
// points are never continuous.
func Continuous(parent, child *Segment, tolerance float64) bool {
	end, ok := parent.End()
	if !ok {
		return false
	}
	start, ok := child.Start()
	if !ok {
		return false
	}
	return geometry.Distance(end.Position, start.Position) <= tolerance
}
