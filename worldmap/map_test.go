package worldmap

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func newTestGrid() *Grid {
	return NewGrid(1, r3.Vec{X: -5, Y: -5, Z: 0}, r3.Vec{X: 5, Y: 5, Z: 1})
}

func TestGridTraversable(t *testing.T) {
	t.Run("free space inside bounds", func(t *testing.T) {
		g := newTestGrid()
		require.True(t, g.IsTraversable(r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}))
	})

	t.Run("outside bounds", func(t *testing.T) {
		g := newTestGrid()
		require.False(t, g.IsTraversable(r3.Vec{X: 6, Z: 0.5}))
	})

	t.Run("obstacles block their voxel", func(t *testing.T) {
		g := newTestGrid()
		g.AddObstacle(r3.Vec{X: 1.2, Y: 1.7, Z: 0.5})
		require.False(t, g.IsTraversable(r3.Vec{X: 1.9, Y: 1.1, Z: 0.1}))
		require.True(t, g.IsTraversable(r3.Vec{X: 2.1, Y: 1.1, Z: 0.1}))
	})

	t.Run("boxes block every voxel between corners", func(t *testing.T) {
		g := newTestGrid()
		g.AddBox(r3.Vec{X: 0, Y: 0, Z: 0}, r3.Vec{X: 2.5, Y: 0.5, Z: 0.5})
		for _, x := range []float64{0.5, 1.5, 2.5} {
			require.False(t, g.IsTraversable(r3.Vec{X: x, Y: 0.5, Z: 0.5}))
		}
		require.True(t, g.IsTraversable(r3.Vec{X: 3.5, Y: 0.5, Z: 0.5}))
	})
}

func TestGridObserve(t *testing.T) {
	g := newTestGrid()
	center := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}

	before := g.CountUnobserved(center, 1.5)
	require.Greater(t, before, 0)

	added := g.Observe(center, 1.5)
	require.Equal(t, before, added, "observe should mark every unobserved voxel in range")
	require.Equal(t, 0, g.CountUnobserved(center, 1.5))
	require.Equal(t, 0, g.Observe(center, 1.5), "observing twice adds nothing")
	require.True(t, g.IsObserved(center))
	require.Equal(t, added, g.ObservedCount())
}
