package backtracker

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"stickynav/geometry"
	"stickynav/trajectory"
)

func executedSegment(from, to r3.Vec) *trajectory.Segment {
	root := trajectory.NewRoot(geometry.NewPose(from, 0))
	s := root.SpawnChild()
	s.Trajectory = []trajectory.Point{
		{Position: from},
		{Position: r3.Scale(0.5, r3.Add(from, to)), Time: time.Second},
		{Position: to, Time: 2 * time.Second},
	}
	return s
}

func TestRotateInPlace(t *testing.T) {
	t.Run("turns on the spot", func(t *testing.T) {
		b := NewRotateInPlace()
		pose := geometry.NewPose(r3.Vec{X: 1, Y: 2}, 0.5)

		points := b.Recover(nil, pose)

		require.NotEmpty(t, points)
		for _, p := range points {
			require.Equal(t, pose.Position, p.Position, "rotation must not translate")
		}
		require.InDelta(t, 0.5, points[0].Yaw(), 1e-9)
		require.InDelta(t, 0.5+math.Pi/2, points[len(points)-1].Yaw(), 1e-9)
		require.Equal(t, 2*time.Second, trajectory.Duration(points))
	})

	t.Run("invalid parameters give no recovery", func(t *testing.T) {
		b := &RotateInPlace{YawStep: 1, YawRate: 0, SampleInterval: time.Second}
		require.Empty(t, b.Recover(nil, geometry.Pose{}))
	})
}

func TestRotateReverse(t *testing.T) {
	t.Run("rotates while nothing was executed", func(t *testing.T) {
		b := NewRotateReverse()
		pose := geometry.NewPose(r3.Vec{}, 0)
		for i := 0; i < 5; i++ {
			points := b.Recover(nil, pose)
			require.Equal(t, pose.Position, points[len(points)-1].Position)
		}
	})

	t.Run("reverses after max turns", func(t *testing.T) {
		b := NewRotateReverse()
		b.MaxTurns = 2
		b.SegmentExecuted(executedSegment(r3.Vec{}, r3.Vec{X: 2}))
		pose := geometry.NewPose(r3.Vec{X: 2}, 0)

		b.Recover(nil, pose)
		b.Recover(nil, pose)
		points := b.Recover(nil, pose)

		require.Equal(t, r3.Vec{X: 2}, points[0].Position, "reverse starts at the end of the executed segment")
		require.Equal(t, r3.Vec{}, points[len(points)-1].Position)
		require.Equal(t, time.Duration(0), points[0].Time)
		require.Equal(t, 2*time.Second, points[len(points)-1].Time)
		require.Equal(t, 0, b.Depth())
	})

	t.Run("executing resets the turn counter", func(t *testing.T) {
		b := NewRotateReverse()
		b.MaxTurns = 1
		pose := geometry.NewPose(r3.Vec{X: 2}, 0)
		b.SegmentExecuted(executedSegment(r3.Vec{}, r3.Vec{X: 2}))
		b.Recover(nil, pose)
		b.SegmentExecuted(executedSegment(r3.Vec{X: 2}, r3.Vec{X: 3}))

		points := b.Recover(nil, pose)
		require.Equal(t, pose.Position, points[len(points)-1].Position, "first recovery after a commit rotates")
		require.Equal(t, 2, b.Depth())
	})

	t.Run("stack is bounded", func(t *testing.T) {
		b := NewRotateReverse()
		b.MaxStack = 2
		for i := 0; i < 5; i++ {
			b.SegmentExecuted(executedSegment(r3.Vec{X: float64(i)}, r3.Vec{X: float64(i + 1)}))
		}
		require.Equal(t, 2, b.Depth())
	})

	t.Run("degenerate segments are not stacked", func(t *testing.T) {
		b := NewRotateReverse()
		b.SegmentExecuted(trajectory.NewRoot(geometry.Pose{}))
		require.Equal(t, 0, b.Depth())
	})
}
