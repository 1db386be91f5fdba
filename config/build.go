package config

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"stickynav/backtracker"
	"stickynav/evaluator"
	"stickynav/generator"
	"stickynav/worldmap"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

const (
	CostSegmentTime   = "segment_time"
	CostSegmentLength = "segment_length"
	CostNone          = "none"

	ValueSimple              = "simple"
	ValueRelative            = "relative"
	ValueExponentialDiscount = "exponential_discount"

	NextImmediateBest  = "immediate_best"
	NextSubsequentBest = "subsequent_best"

	UpdaterDefault      = "default"
	UpdaterRecomputeAll = "recompute_all"
	UpdaterPruneBelow   = "prune_below"
	UpdaterNothing      = "nothing"

	GeneratorRandomLinear = "random_linear"

	BackTrackerRotateInPlace = "rotate_in_place"
	BackTrackerRotateReverse = "rotate_reverse"
)

// BuildEvaluator assembles the composite evaluator around gain.
func BuildEvaluator(cfg Evaluator, gain evaluator.GainComputer) (*evaluator.Composite, error) {
	cost, err := buildCost(cfg.Cost)
	if err != nil {
		return nil, err
	}
	value, err := buildValue(cfg.Value)
	if err != nil {
		return nil, err
	}
	next, err := buildNext(cfg.Next)
	if err != nil {
		return nil, err
	}
	updater, err := buildUpdater(cfg.Updater)
	if err != nil {
		return nil, err
	}

	options := []evaluator.Option{
		evaluator.WithCostComputer(cost),
		evaluator.WithValueComputer(value),
		evaluator.WithNextSelector(next),
		evaluator.WithUpdater(updater),
	}
	if cfg.ValueMarkers {
		options = append(options, evaluator.WithValueMarkers())
	}
	return evaluator.NewComposite(gain, options...)
}

func buildCost(cfg Cost) (evaluator.CostComputer, error) {
	switch cfg.Name {
	case CostSegmentTime:
		return evaluator.SegmentTime{Accumulate: cfg.Accumulate}, nil
	case CostSegmentLength:
		return evaluator.SegmentLength{Accumulate: cfg.Accumulate}, nil
	case CostNone:
		return evaluator.NoCost{}, nil
	}
	return nil, fmt.Errorf("%w: cost %q", ErrUnknownStrategy, cfg.Name)
}

func buildValue(cfg Value) (evaluator.ValueComputer, error) {
	switch cfg.Name {
	case ValueSimple:
		return evaluator.Simple{GainWeight: cfg.GainWeight, CostWeight: cfg.CostWeight, Accumulate: cfg.Accumulate}, nil
	case ValueRelative:
		return evaluator.Relative{}, nil
	case ValueExponentialDiscount:
		return evaluator.ExponentialDiscount{Lambda: cfg.Lambda}, nil
	}
	return nil, fmt.Errorf("%w: value %q", ErrUnknownStrategy, cfg.Name)
}

func buildNext(name string) (evaluator.NextSelector, error) {
	switch name {
	case NextImmediateBest:
		return evaluator.ImmediateBest{}, nil
	case NextSubsequentBest:
		return evaluator.SubsequentBest{}, nil
	}
	return nil, fmt.Errorf("%w: next selector %q", ErrUnknownStrategy, name)
}

func buildUpdater(cfg Updater) (evaluator.Updater, error) {
	switch cfg.Name {
	case UpdaterDefault:
		return evaluator.Default{}, nil
	case UpdaterRecomputeAll:
		return evaluator.RecomputeAll{}, nil
	case UpdaterNothing:
		return evaluator.Nothing{}, nil
	case UpdaterPruneBelow:
		if cfg.Following == UpdaterPruneBelow {
			return nil, fmt.Errorf("%w: prune_below can not follow itself", ErrUnknownStrategy)
		}
		var following evaluator.Updater = evaluator.Default{}
		if cfg.Following != "" {
			var err error
			if following, err = buildUpdater(Updater{Name: cfg.Following}); err != nil {
				return nil, err
			}
		}
		return evaluator.PruneBelow{Threshold: cfg.Threshold, Following: following}, nil
	}
	return nil, fmt.Errorf("%w: updater %q", ErrUnknownStrategy, cfg.Name)
}

func BuildGenerator(cfg Generator, world worldmap.Map) (*generator.RandomLinear, error) {
	if cfg.Name != GeneratorRandomLinear {
		return nil, fmt.Errorf("%w: generator %q", ErrUnknownStrategy, cfg.Name)
	}
	return generator.NewRandomLinear(world,
		generator.WithVelocity(cfg.Velocity),
		generator.WithDistance(cfg.MinDistance, cfg.MaxDistance),
		generator.WithSampleInterval(cfg.SampleInterval),
		generator.WithMaxTries(cfg.MaxTries),
		generator.WithSeed(cfg.Seed),
	), nil
}

func BuildBackTracker(cfg BackTracker) (backtracker.BackTracker, error) {
	rotate := backtracker.NewRotateInPlace()
	if cfg.YawStep != 0 {
		rotate.YawStep = cfg.YawStep
	}
	if cfg.YawRate > 0 {
		rotate.YawRate = cfg.YawRate
	}
	if cfg.SampleInterval > 0 {
		rotate.SampleInterval = cfg.SampleInterval
	}

	switch cfg.Name {
	case BackTrackerRotateInPlace:
		return rotate, nil
	case BackTrackerRotateReverse:
		bt := backtracker.NewRotateReverse()
		bt.RotateInPlace = *rotate
		if cfg.MaxTurns > 0 {
			bt.MaxTurns = cfg.MaxTurns
		}
		if cfg.MaxStack > 0 {
			bt.MaxStack = cfg.MaxStack
		}
		return bt, nil
	}
	return nil, fmt.Errorf("%w: back tracker %q", ErrUnknownStrategy, cfg.Name)
}

// BuildWorld creates the simulated map with its obstacles.
func BuildWorld(cfg World) *worldmap.Grid {
	grid := worldmap.NewGrid(cfg.Resolution, vec(cfg.Min), vec(cfg.Max))
	for _, box := range cfg.Obstacles {
		grid.AddBox(vec(box.Min), vec(box.Max))
	}
	return grid
}

func vec(v [3]float64) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}
