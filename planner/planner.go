// Package planner runs the online planning loop: it grows the trajectory
// tree, decides when to commit to its best branch, re-roots the tree on
// commit and keeps the remaining tree up to date.
package planner

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"stickynav/backtracker"
	"stickynav/evaluator"
	"stickynav/generator"
	"stickynav/geometry"
	"stickynav/metrics"
	"stickynav/trajectory"
	"stickynav/visualization"
)

var (
	ErrNotInitialized = errors.New("planner: planning has not been initialized")
	ErrMissingModule  = errors.New("planner: missing module")
)

// Executor dispatches trajectories to the actuation layer. RequestMovement
// must not block until the motion completes.
type Executor interface {
	RequestMovement(points []trajectory.Point)
}

// ExecutorFunc adapts a function to an Executor.
type ExecutorFunc func(points []trajectory.Point)

func (f ExecutorFunc) RequestMovement(points []trajectory.Point) {
	f(points)
}

type Decision int

const (
	DecisionNone Decision = iota
	DecisionCommit
	DecisionRecover
)

func (d Decision) String() string {
	switch d {
	case DecisionCommit:
		return "commit"
	case DecisionRecover:
		return "recover"
	default:
		return "none"
	}
}

type Option func(p *Planner)

func WithVerbose() Option {
	return func(p *Planner) {
		p.verbose = true
	}
}

func WithVisualization(sink visualization.Sink) Option {
	return func(p *Planner) {
		if sink != nil {
			p.visualization = sink
			p.visualize = true
		}
	}
}

func WithCollector(collector metrics.Collector) Option {
	return func(p *Planner) {
		if collector != nil {
			p.collector = collector
		}
	}
}

// WithPerformanceLog sends one record per decision to sink.
func WithPerformanceLog(sink metrics.Sink) Option {
	return func(p *Planner) {
		p.performance = sink
	}
}

// WithReplanThresholds sets how close to its target the robot has to be
// before the next decision is taken.
func WithReplanThresholds(position, yaw float64) Option {
	return func(p *Planner) {
		if position > 0 {
			p.odometry.positionThreshold = position
		}
		if yaw > 0 {
			p.odometry.yawThreshold = yaw
		}
	}
}

func WithContinuityTolerance(tolerance float64) Option {
	return func(p *Planner) {
		if tolerance > 0 {
			p.continuityTolerance = tolerance
		}
	}
}

// WithIdleInterval sets how long Run waits when there is nothing to do.
func WithIdleInterval(interval time.Duration) Option {
	return func(p *Planner) {
		if interval > 0 {
			p.idleInterval = interval
		}
	}
}

// WithVerification verifies the tree after every iteration. Debug only.
func WithVerification() Option {
	return func(p *Planner) {
		p.verifyEveryIteration = true
	}
}

type Planner struct {
	executor    Executor
	generator   generator.Generator
	evaluator   evaluator.Evaluator
	backTracker backtracker.BackTracker
	constraints Constraints

	verbose              bool
	visualize            bool
	visualization        visualization.Sink
	collector            metrics.Collector
	performance          metrics.Sink
	continuityTolerance  float64
	idleInterval         time.Duration
	verifyEveryIteration bool

	planning    atomic.Bool
	running     atomic.Bool
	goalReached atomic.Bool
	odometry    odometry

	session *session
}

func New(executor Executor, gen generator.Generator, eval evaluator.Evaluator, bt backtracker.BackTracker, constraints Constraints, options ...Option) (*Planner, error) {
	switch {
	case executor == nil:
		return nil, errors.Join(ErrMissingModule, errors.New("executor"))
	case gen == nil:
		return nil, errors.Join(ErrMissingModule, errors.New("trajectory generator"))
	case eval == nil:
		return nil, errors.Join(ErrMissingModule, errors.New("trajectory evaluator"))
	case bt == nil:
		return nil, errors.Join(ErrMissingModule, errors.New("back tracker"))
	}
	if err := constraints.Validate(); err != nil {
		return nil, err
	}

	p := &Planner{ // Default values
		executor:            executor,
		generator:           gen,
		evaluator:           eval,
		backTracker:         bt,
		constraints:         constraints,
		visualization:       visualization.NewNoopSink(),
		collector:           metrics.NewCollector(),
		continuityTolerance: 1e-6,
		idleInterval:        10 * time.Millisecond,
	}
	p.odometry.positionThreshold = 0.1
	p.odometry.yawThreshold = 0.1
	for _, option := range options {
		option(p)
	}
	return p, nil
}

// Initialize starts a new session with the root at pose.
func (p *Planner) Initialize(pose geometry.Pose) {
	p.odometry.reset(pose)
	p.session = newSession(uuid.NewString(), trajectory.NewRoot(pose))
	p.collector.Start()
	p.goalReached.Store(false)
	p.planning.Store(true)
	p.running.Store(true)

	if p.verbose {
		log.Info().Str("session", p.session.id).Msgf("planning initialized at (%.2f, %.2f, %.2f)",
			pose.Position.X, pose.Position.Y, pose.Position.Z)
	}
}

// UpdatePose is the localization feed. It is safe to call concurrently
// with the planning loop.
func (p *Planner) UpdatePose(pose geometry.Pose) {
	p.odometry.update(pose)
}

func (p *Planner) Pose() geometry.Pose {
	pose, _, _ := p.odometry.snapshot()
	return pose
}

// Target returns the current movement target and whether it was reached.
func (p *Planner) Target() (geometry.Pose, bool) {
	_, target, reached := p.odometry.snapshot()
	return target, reached
}

// SetPlanning pauses or resumes expansion and decisions at the next
// iteration boundary.
func (p *Planner) SetPlanning(planning bool) {
	p.planning.Store(planning)
}

// Stop ends the session at the next iteration boundary.
func (p *Planner) Stop() {
	p.planning.Store(false)
	p.running.Store(false)
}

// SignalGoalReached makes Run return at the next iteration boundary.
func (p *Planner) SignalGoalReached() {
	p.goalReached.Store(true)
}

// Root returns the current tree root. Only the planning goroutine may use
// the tree while Run is active.
func (p *Planner) Root() *trajectory.Segment {
	if p.session == nil {
		return nil
	}
	return p.session.root
}

// Run iterates until Stop, SignalGoalReached or ctx cancellation. The tree
// is torn down on return.
func (p *Planner) Run(ctx context.Context) error {
	if p.session == nil {
		return ErrNotInitialized
	}
	defer p.teardown()

	for p.running.Load() {
		if p.goalReached.Load() {
			log.Info().Str("session", p.session.id).Msg("goal reached, planning loop stopped")
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !p.planning.Load() {
			p.idle(ctx)
			continue
		}

		if _, err := p.Iterate(); err != nil {
			return err
		}
		if !p.session.expanded && !p.session.issued {
			p.idle(ctx)
		}
	}
	return nil
}

func (p *Planner) idle(ctx context.Context) {
	timer := time.NewTimer(p.idleInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (p *Planner) teardown() {
	s := p.session
	p.planning.Store(false)
	p.running.Store(false)
	log.Info().Str("session", s.id).Msgf("planning stopped after %d decisions (%d commits, %d recoveries), %d segments killed at root change, %d during update",
		s.stats.Rounds, s.stats.Commits, s.stats.Recoveries, s.stats.KilledNext, s.stats.KilledUpdate)
	s.stats.TreeSize = 0
	s.root = nil
}

// Iterate runs one round: expansion, an optional decision and the tree
// update. No other party may touch the tree during a round.
func (p *Planner) Iterate() (Decision, error) {
	s := p.session
	if s == nil || s.root == nil {
		return DecisionNone, ErrNotInitialized
	}
	s.stats.Iterations++
	pose, _, targetReached := p.odometry.snapshot()

	s.expanded = false
	s.issued = false
	if !p.constraints.maximumReached(s.budget) {
		p.expandTrajectories()
	}

	decision := DecisionNone
	var pending metrics.RoundMetric
	if targetReached && p.constraints.ready(s.budget) {
		pending = metrics.RoundMetric{
			Session:     s.id,
			NewSegments: s.budget.newSegments,
			NewTries:    s.budget.newTries,
		}
		decision, pending.Value = p.requestNextTrajectory(pose)
	}

	p.updateTree()

	if decision != DecisionNone {
		s.stats.Rounds++
		pending.Round = s.stats.Rounds
		pending.TreeSize = s.treeSize
		pending.Outcome = metrics.OutcomeCommit
		if decision == DecisionRecover {
			pending.Outcome = metrics.OutcomeRecover
		}
		p.recordRound(p.collector.Complete(pending))
	}

	if p.verifyEveryIteration {
		// Violations are logged by Verify and must not stop the loop.
		_ = p.Verify()
	}
	return decision, nil
}

func (p *Planner) recordRound(m metrics.RoundMetric) {
	if p.verbose {
		log.Info().Str("session", m.Session).Msgf("%s (round %d): %d new segments, %d tries, killed %d at root change and %d during update, value %.3f, %.3fs (%.3fs in stages)",
			m.Outcome, m.Round, m.NewSegments, m.NewTries, m.KilledNext, m.KilledUpdate, m.Value, m.Duration.Seconds(), m.Timings.Total().Seconds())
	} else {
		log.Debug().Str("session", m.Session).Int("round", m.Round).Str("outcome", string(m.Outcome)).Msg("decision")
	}
	if p.performance == nil {
		return
	}
	if err := p.performance.Record(m); err != nil {
		log.Warn().Err(err).Msg("failed to record performance")
	}
}

// checkMinNewValue reports whether a live segment below (not including)
// root reaches the minimum value.
func (p *Planner) checkMinNewValue(root *trajectory.Segment) bool {
	if p.constraints.MinNewValue == 0 {
		return false
	}
	found := false
	root.Walk(func(s *trajectory.Segment) bool {
		if found || !s.Live {
			return false
		}
		if s != root && !math.IsNaN(s.Value) && s.Value >= p.constraints.MinNewValue {
			found = true
			return false
		}
		return true
	})
	return found
}
