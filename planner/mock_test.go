package planner

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"stickynav/evaluator"
	"stickynav/geometry"
	"stickynav/metrics"
	"stickynav/trajectory"
	"stickynav/visualization"
)

// scriptedGenerator attaches one straight segment per gain. The gain is
// stored in Info and read back by infoGain.
type scriptedGenerator struct {
	batches [][]float64 // gains per Expand call
	repeat  []float64   // gains once the batches are used up
	attach  func(root *trajectory.Segment) *trajectory.Segment
	blocked func(segment *trajectory.Segment) bool
	calls   int
	updated int
	created int
}

func (g *scriptedGenerator) Expand(root *trajectory.Segment) []*trajectory.Segment {
	gains := g.repeat
	if g.calls < len(g.batches) {
		gains = g.batches[g.calls]
	}
	g.calls++

	parent := root
	if g.attach != nil {
		parent = g.attach(root)
	}
	var added []*trajectory.Segment
	for _, gain := range gains {
		end, _ := parent.End()
		g.created++
		child := parent.SpawnChild()
		child.Trajectory = []trajectory.Point{
			{Position: end.Position, Time: 0},
			{Position: r3.Add(end.Position, r3.Vec{X: 1, Y: 0.1 * float64(g.created)}), Time: time.Second},
		}
		child.Info = gain
		added = append(added, child)
	}
	return added
}

func (g *scriptedGenerator) UpdateSegment(segment *trajectory.Segment) bool {
	g.updated++
	return g.blocked == nil || !g.blocked(segment)
}

// deepest follows the first child down to a leaf.
func deepest(root *trajectory.Segment) *trajectory.Segment {
	node := root
	for len(node.Children) > 0 {
		node = node.Children[0]
	}
	return node
}

var infoGain = evaluator.GainFunc(func(segment *trajectory.Segment) bool {
	gain, ok := segment.Info.(float64)
	if !ok || math.IsNaN(gain) {
		return false
	}
	segment.Gain = gain
	return true
})

type recordingExecutor struct {
	requests [][]trajectory.Point
}

func (e *recordingExecutor) RequestMovement(points []trajectory.Point) {
	e.requests = append(e.requests, points)
}

type countingBackTracker struct {
	points   []trajectory.Point
	recovers int
	executed []*trajectory.Segment
}

func (b *countingBackTracker) Recover(*trajectory.Segment, geometry.Pose) []trajectory.Point {
	b.recovers++
	return b.points
}

func (b *countingBackTracker) SegmentExecuted(segment *trajectory.Segment) {
	b.executed = append(b.executed, segment)
}

type recordingSink struct {
	records []metrics.RoundMetric
	err     error
	closed  bool
}

func (s *recordingSink) Record(m metrics.RoundMetric) error {
	s.records = append(s.records, m)
	return s.err
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

type recordingVisualization struct {
	candidates int
	completed  []*trajectory.Segment
	markers    visualization.Markers
}

func (v *recordingVisualization) PublishCandidates(segments []*trajectory.Segment) {
	v.candidates += len(segments)
}

func (v *recordingVisualization) PublishCompleted(segment *trajectory.Segment) {
	v.completed = append(v.completed, segment)
}

func (v *recordingVisualization) PublishMarkers(markers visualization.Markers) {
	v.markers = append(v.markers, markers...)
}

type fixture struct {
	planner     *Planner
	generator   *scriptedGenerator
	executor    *recordingExecutor
	backTracker *countingBackTracker
}

// newFixture returns an initialized planner whose values equal the
// scripted gains.
func newFixture(t *testing.T, gen *scriptedGenerator, constraints Constraints, options ...Option) fixture {
	t.Helper()
	eval, err := evaluator.NewComposite(infoGain,
		evaluator.WithCostComputer(evaluator.NoCost{}),
		evaluator.WithValueComputer(evaluator.Simple{GainWeight: 1}),
		evaluator.WithValueMarkers(),
	)
	require.NoError(t, err)

	f := fixture{
		generator:   gen,
		executor:    &recordingExecutor{},
		backTracker: &countingBackTracker{},
	}
	f.planner, err = New(f.executor, gen, eval, f.backTracker, constraints, options...)
	require.NoError(t, err)
	f.planner.Initialize(geometry.NewPose(r3.Vec{}, 0))
	return f
}

// arrive reports the robot at the current target.
func (f fixture) arrive() {
	target, _ := f.planner.Target()
	f.planner.UpdatePose(target)
}

func (f fixture) iterate(t *testing.T) Decision {
	t.Helper()
	decision, err := f.planner.Iterate()
	require.NoError(t, err)
	return decision
}

var errSinkFull = errors.New("sink full")
