// Package generator proposes new trajectory segments extending the tree.
package generator

import (
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"

	"stickynav/geometry"
	"stickynav/trajectory"
	"stickynav/worldmap"
)

type Generator interface {
	// Expand attaches zero or more new segments to alive nodes of the tree
	// and returns them. Producing nothing is not an error.
	Expand(root *trajectory.Segment) []*trajectory.Segment
	// UpdateSegment re-checks the feasibility of an existing segment,
	// false kills it and its subtree.
	UpdateSegment(segment *trajectory.Segment) bool
}

type Option func(g *RandomLinear)

func WithVelocity(velocity float64) Option {
	return func(g *RandomLinear) {
		if velocity > 0 {
			g.velocity = velocity
		}
	}
}

func WithDistance(min, max float64) Option {
	return func(g *RandomLinear) {
		if min > 0 && max >= min {
			g.minDistance = min
			g.maxDistance = max
		}
	}
}

func WithSampleInterval(interval time.Duration) Option {
	return func(g *RandomLinear) {
		if interval > 0 {
			g.sampleInterval = interval
		}
	}
}

func WithMaxTries(tries int) Option {
	return func(g *RandomLinear) {
		if tries > 0 {
			g.maxTries = tries
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(g *RandomLinear) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// RandomLinear extends a uniformly sampled alive node by a straight line of
// random heading and length, driven at constant velocity.
type RandomLinear struct {
	world          worldmap.Map
	rng            *rand.Rand
	velocity       float64
	minDistance    float64
	maxDistance    float64
	sampleInterval time.Duration
	maxTries       int
}

func NewRandomLinear(world worldmap.Map, options ...Option) *RandomLinear {
	g := &RandomLinear{ // Default values
		world:          world,
		rng:            rand.New(rand.NewSource(1)),
		velocity:       1.0,
		minDistance:    0.5,
		maxDistance:    2.0,
		sampleInterval: 100 * time.Millisecond,
		maxTries:       10,
	}
	for _, option := range options {
		option(g)
	}
	return g
}

func (g *RandomLinear) Expand(root *trajectory.Segment) []*trajectory.Segment {
	candidates := aliveSegments(root)
	if len(candidates) == 0 {
		return nil
	}

	for try := 0; try < g.maxTries; try++ {
		parent := candidates[g.rng.Intn(len(candidates))]
		start, ok := parent.End()
		if !ok {
			continue
		}
		yaw := (g.rng.Float64()*2 - 1) * math.Pi
		distance := g.minDistance + g.rng.Float64()*(g.maxDistance-g.minDistance)
		points := g.straightLine(start.Position, yaw, distance)
		if !g.traversable(points) {
			continue
		}
		child := parent.SpawnChild()
		child.Trajectory = points
		return []*trajectory.Segment{child}
	}
	return nil
}

func (g *RandomLinear) UpdateSegment(segment *trajectory.Segment) bool {
	return g.traversable(segment.Trajectory)
}

func (g *RandomLinear) straightLine(from r3.Vec, yaw, distance float64) []trajectory.Point {
	step := g.velocity * g.sampleInterval.Seconds()
	n := int(math.Ceil(distance / step))
	heading := geometry.Heading(yaw)
	orientation := geometry.YawQuat(yaw)

	points := make([]trajectory.Point, 0, n+1)
	for i := 0; i <= n; i++ {
		d := math.Min(float64(i)*step, distance)
		points = append(points, trajectory.Point{
			Position:    r3.Add(from, r3.Scale(d, heading)),
			Orientation: orientation,
			Time:        time.Duration(d / g.velocity * float64(time.Second)),
		})
	}
	return points
}

func (g *RandomLinear) traversable(points []trajectory.Point) bool {
	if g.world == nil {
		return true
	}
	for _, p := range points {
		if !g.world.IsTraversable(p.Position) {
			return false
		}
	}
	return true
}

// aliveSegments lists the segments that may be extended: live, with live
// ancestors.
func aliveSegments(root *trajectory.Segment) []*trajectory.Segment {
	var out []*trajectory.Segment
	for _, s := range root.Collect() {
		if s.Alive() {
			out = append(out, s)
		}
	}
	return out
}
