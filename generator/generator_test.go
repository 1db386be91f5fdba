package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"stickynav/geometry"
	"stickynav/trajectory"
	"stickynav/worldmap"
)

func openWorld() *worldmap.Grid {
	return worldmap.NewGrid(0.5, r3.Vec{X: -50, Y: -50, Z: -1}, r3.Vec{X: 50, Y: 50, Z: 1})
}

func TestRandomLinearExpand(t *testing.T) {
	t.Run("attaches a continuous child", func(t *testing.T) {
		g := NewRandomLinear(openWorld(), WithSeed(7))
		root := trajectory.NewRoot(geometry.NewPose(r3.Vec{}, 0))

		for i := 0; i < 20; i++ {
			added := g.Expand(root)
			require.Len(t, added, 1)
			child := added[0]
			require.NotNil(t, child.Parent)
			require.True(t, trajectory.Continuous(child.Parent, child, 1e-9), "new segments must start at their parent's end")
			require.GreaterOrEqual(t, child.Length(), 0.5-1e-9)
			require.LessOrEqual(t, child.Length(), 2.0+1e-9)
		}
		require.Equal(t, 21, root.Size())
	})

	t.Run("time stamps follow the velocity", func(t *testing.T) {
		g := NewRandomLinear(openWorld(), WithSeed(3), WithVelocity(2), WithDistance(4, 4), WithSampleInterval(500*time.Millisecond))
		root := trajectory.NewRoot(geometry.NewPose(r3.Vec{}, 0))

		child := g.Expand(root)[0]
		require.Len(t, child.Trajectory, 5)
		require.Equal(t, 2*time.Second, child.Duration())
		require.InDelta(t, 4.0, child.Length(), 1e-9)
	})

	t.Run("never extends dead subtrees", func(t *testing.T) {
		g := NewRandomLinear(openWorld(), WithSeed(11))
		root := trajectory.NewRoot(geometry.NewPose(r3.Vec{}, 0))
		dead := g.Expand(root)[0]
		dead.Live = false

		for i := 0; i < 30; i++ {
			for _, s := range g.Expand(root) {
				require.NotSame(t, dead, s.Parent)
				require.True(t, s.Parent.Alive())
			}
		}
		require.Empty(t, dead.Children)
	})

	t.Run("yields nothing when boxed in", func(t *testing.T) {
		world := worldmap.NewGrid(0.5, r3.Vec{X: -0.2, Y: -0.2, Z: -0.2}, r3.Vec{X: 0.2, Y: 0.2, Z: 0.2})
		g := NewRandomLinear(world, WithSeed(5), WithMaxTries(3))
		root := trajectory.NewRoot(geometry.NewPose(r3.Vec{}, 0))

		require.Empty(t, g.Expand(root))
		require.Empty(t, root.Children, "failed attempts must not touch the tree")
	})

	t.Run("same seed same tree", func(t *testing.T) {
		expand := func() []trajectory.Point {
			g := NewRandomLinear(openWorld(), WithSeed(42))
			root := trajectory.NewRoot(geometry.NewPose(r3.Vec{}, 0))
			return g.Expand(root)[0].Trajectory
		}
		require.Equal(t, expand(), expand())
	})
}

func TestRandomLinearUpdateSegment(t *testing.T) {
	world := openWorld()
	g := NewRandomLinear(world, WithSeed(9))
	root := trajectory.NewRoot(geometry.NewPose(r3.Vec{}, 0))
	child := g.Expand(root)[0]

	require.True(t, g.UpdateSegment(child))

	end, _ := child.End()
	world.AddObstacle(end.Position)
	require.False(t, g.UpdateSegment(child), "segments crossing new obstacles are killed")
}
