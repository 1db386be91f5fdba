// Package worldmap holds the environment contract consumed by the planning
// strategies and a sparse voxel grid implementing it.
package worldmap

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// Map answers feasibility and sensing queries. The planner never calls it
// directly; it is handed down to generators and evaluators.
type Map interface {
	IsTraversable(position r3.Vec) bool
	IsObserved(position r3.Vec) bool
}

type voxel struct{ x, y, z int }

// Grid is a bounded sparse voxel map. Voxels are free unless marked
// occupied. It is safe for concurrent use.
type Grid struct {
	mu         sync.RWMutex
	resolution float64
	min, max   r3.Vec
	occupied   map[voxel]struct{}
	observed   map[voxel]struct{}
}

func NewGrid(resolution float64, min, max r3.Vec) *Grid {
	if resolution <= 0 {
		resolution = 1
	}
	return &Grid{
		resolution: resolution,
		min:        min,
		max:        max,
		occupied:   make(map[voxel]struct{}),
		observed:   make(map[voxel]struct{}),
	}
}

func (g *Grid) Resolution() float64 {
	return g.resolution
}

func (g *Grid) key(p r3.Vec) voxel {
	return voxel{
		x: int(math.Floor(p.X / g.resolution)),
		y: int(math.Floor(p.Y / g.resolution)),
		z: int(math.Floor(p.Z / g.resolution)),
	}
}

func (g *Grid) center(v voxel) r3.Vec {
	return r3.Vec{
		X: (float64(v.x) + 0.5) * g.resolution,
		Y: (float64(v.y) + 0.5) * g.resolution,
		Z: (float64(v.z) + 0.5) * g.resolution,
	}
}

func (g *Grid) InBounds(p r3.Vec) bool {
	return p.X >= g.min.X && p.X <= g.max.X &&
		p.Y >= g.min.Y && p.Y <= g.max.Y &&
		p.Z >= g.min.Z && p.Z <= g.max.Z
}

// AddObstacle marks the voxel containing p as occupied.
func (g *Grid) AddObstacle(p r3.Vec) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.occupied[g.key(p)] = struct{}{}
}

// AddBox marks every voxel between the two corners as occupied.
func (g *Grid) AddBox(from, to r3.Vec) {
	g.mu.Lock()
	defer g.mu.Unlock()
	lo, hi := g.key(from), g.key(to)
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for z := lo.z; z <= hi.z; z++ {
				g.occupied[voxel{x, y, z}] = struct{}{}
			}
		}
	}
}

func (g *Grid) IsTraversable(p r3.Vec) bool {
	if !g.InBounds(p) {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, blocked := g.occupied[g.key(p)]
	return !blocked
}

func (g *Grid) IsObserved(p r3.Vec) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.observed[g.key(p)]
	return ok
}

// Observe marks all in-bounds voxels whose centers lie within radius of
// center as observed and returns how many were newly observed.
func (g *Grid) Observe(center r3.Vec, radius float64) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	added := 0
	g.forEachVoxel(center, radius, func(v voxel) {
		if _, ok := g.observed[v]; !ok {
			g.observed[v] = struct{}{}
			added++
		}
	})
	return added
}

// CountUnobserved returns the number of in-bounds voxels within radius of
// center that have not been observed yet.
func (g *Grid) CountUnobserved(center r3.Vec, radius float64) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	count := 0
	g.forEachVoxel(center, radius, func(v voxel) {
		if _, ok := g.observed[v]; !ok {
			count++
		}
	})
	return count
}

func (g *Grid) ObservedCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.observed)
}

// forEachVoxel must be called with the lock held.
func (g *Grid) forEachVoxel(center r3.Vec, radius float64, fn func(voxel)) {
	offset := r3.Vec{X: radius, Y: radius, Z: radius}
	lo, hi := g.key(r3.Sub(center, offset)), g.key(r3.Add(center, offset))
	for x := lo.x; x <= hi.x; x++ {
		for y := lo.y; y <= hi.y; y++ {
			for z := lo.z; z <= hi.z; z++ {
				v := voxel{x, y, z}
				c := g.center(v)
				if !g.InBounds(c) || r3.Norm(r3.Sub(c, center)) > radius {
					continue
				}
				fn(v)
			}
		}
	}
}
