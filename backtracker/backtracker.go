// Package backtracker produces recovery motions for when the planner finds
// no viable branch to commit to.
package backtracker

import (
	"math"
	"time"

	"stickynav/geometry"
	"stickynav/trajectory"
)

type BackTracker interface {
	// Recover returns a trajectory starting at pose. An empty result means
	// no recovery is possible right now.
	Recover(root *trajectory.Segment, pose geometry.Pose) []trajectory.Point
	// SegmentExecuted is called for every committed segment.
	SegmentExecuted(segment *trajectory.Segment)
}

// RotateInPlace turns on the spot by YawStep at YawRate.
type RotateInPlace struct {
	YawStep        float64
	YawRate        float64
	SampleInterval time.Duration
}

func NewRotateInPlace() *RotateInPlace {
	return &RotateInPlace{
		YawStep:        math.Pi / 2,
		YawRate:        math.Pi / 4,
		SampleInterval: 100 * time.Millisecond,
	}
}

func (r *RotateInPlace) Recover(_ *trajectory.Segment, pose geometry.Pose) []trajectory.Point {
	return rotation(pose, r.YawStep, r.YawRate, r.SampleInterval)
}

func (r *RotateInPlace) SegmentExecuted(*trajectory.Segment) {}

func rotation(pose geometry.Pose, step, rate float64, interval time.Duration) []trajectory.Point {
	if rate <= 0 || step == 0 || interval <= 0 {
		return nil
	}
	duration := math.Abs(step) / rate
	n := int(math.Ceil(duration / interval.Seconds()))
	start := pose.Yaw()

	points := make([]trajectory.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		t := math.Min(float64(i)*interval.Seconds(), duration)
		points = append(points, trajectory.PointAt(
			geometry.NewPose(pose.Position, start+step*t/duration),
			time.Duration(t*float64(time.Second)),
		))
	}
	return points
}

// RotateReverse rotates in place up to MaxTurns times in a row and then
// drives back along the most recently executed segment.
type RotateReverse struct {
	RotateInPlace
	MaxTurns int
	MaxStack int

	turns    int
	executed [][]trajectory.Point
}

func NewRotateReverse() *RotateReverse {
	return &RotateReverse{
		RotateInPlace: *NewRotateInPlace(),
		MaxTurns:      3,
		MaxStack:      100,
	}
}

func (r *RotateReverse) SegmentExecuted(segment *trajectory.Segment) {
	r.turns = 0
	if len(segment.Trajectory) < 2 {
		return
	}
	points := make([]trajectory.Point, len(segment.Trajectory))
	copy(points, segment.Trajectory)
	r.executed = append(r.executed, points)
	if r.MaxStack > 0 && len(r.executed) > r.MaxStack {
		r.executed = r.executed[len(r.executed)-r.MaxStack:]
	}
}

func (r *RotateReverse) Recover(root *trajectory.Segment, pose geometry.Pose) []trajectory.Point {
	if r.turns < r.MaxTurns || len(r.executed) == 0 {
		r.turns++
		return r.RotateInPlace.Recover(root, pose)
	}
	r.turns = 0
	last := r.executed[len(r.executed)-1]
	r.executed = r.executed[:len(r.executed)-1]
	return reverse(last)
}

// Depth is the number of executed segments available for reversing.
func (r *RotateReverse) Depth() int {
	return len(r.executed)
}

func reverse(points []trajectory.Point) []trajectory.Point {
	total := trajectory.Duration(points)
	out := make([]trajectory.Point, len(points))
	for i, p := range points {
		p.Time = total - p.Time
		out[len(points)-1-i] = p
	}
	return out
}
