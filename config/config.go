// Package config loads the planner configuration from YAML and builds the
// configured strategies.
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"stickynav/planner"
)

type Config struct {
	Constraints Constraints `yaml:"constraints"`
	Planner     Planner     `yaml:"planner"`
	Evaluator   Evaluator   `yaml:"evaluator"`
	Generator   Generator   `yaml:"generator"`
	BackTracker BackTracker `yaml:"back_tracker"`
	World       World       `yaml:"world"`
	Robot       Robot       `yaml:"robot"`
}

type Constraints struct {
	MaxNewSegments int     `yaml:"max_new_segments"`
	MinNewSegments int     `yaml:"min_new_segments"`
	MinNewTries    int     `yaml:"min_new_tries"`
	MaxNewTries    int     `yaml:"max_new_tries"`
	MinNewValue    float64 `yaml:"min_new_value"`
	ExpandBatch    int     `yaml:"expand_batch"`
}

type Planner struct {
	ReplanPositionThreshold float64       `yaml:"replan_position_threshold"`
	ReplanYawThreshold      float64       `yaml:"replan_yaw_threshold"`
	ContinuityTolerance     float64       `yaml:"continuity_tolerance"`
	IdleInterval            time.Duration `yaml:"idle_interval"`
	Verbose                 bool          `yaml:"verbose"`
	Verify                  bool          `yaml:"verify"`
}

type Evaluator struct {
	GainRadius   float64 `yaml:"gain_radius"`
	Cost         Cost    `yaml:"cost"`
	Value        Value   `yaml:"value"`
	Next         string  `yaml:"next"`
	Updater      Updater `yaml:"updater"`
	ValueMarkers bool    `yaml:"value_markers"`
}

type Cost struct {
	Name       string `yaml:"name"`
	Accumulate bool   `yaml:"accumulate"`
}

type Value struct {
	Name       string  `yaml:"name"`
	GainWeight float64 `yaml:"gain_weight"`
	CostWeight float64 `yaml:"cost_weight"`
	Lambda     float64 `yaml:"lambda"`
	Accumulate bool    `yaml:"accumulate"`
}

type Updater struct {
	Name      string  `yaml:"name"`
	Threshold float64 `yaml:"threshold"`
	Following string  `yaml:"following"`
}

type Generator struct {
	Name           string        `yaml:"name"`
	Velocity       float64       `yaml:"velocity"`
	MinDistance    float64       `yaml:"min_distance"`
	MaxDistance    float64       `yaml:"max_distance"`
	SampleInterval time.Duration `yaml:"sample_interval"`
	MaxTries       int           `yaml:"max_tries"`
	Seed           uint64        `yaml:"seed"`
}

type BackTracker struct {
	Name           string        `yaml:"name"`
	YawStep        float64       `yaml:"yaw_step"`
	YawRate        float64       `yaml:"yaw_rate"`
	SampleInterval time.Duration `yaml:"sample_interval"`
	MaxTurns       int           `yaml:"max_turns"`
	MaxStack       int           `yaml:"max_stack"`
}

type Box struct {
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`
}

// World describes the simulated map.
type World struct {
	Resolution    float64       `yaml:"resolution"`
	Min           [3]float64    `yaml:"min"`
	Max           [3]float64    `yaml:"max"`
	Obstacles     []Box         `yaml:"obstacles"`
	SensorRadius  float64       `yaml:"sensor_radius"`
	Start         [3]float64    `yaml:"start"`
	StartYaw      float64       `yaml:"start_yaw"`
	CheckInterval time.Duration `yaml:"check_interval"` // How often exploration progress is checked
}

// Robot describes the simulated robot.
type Robot struct {
	// TimeScale speeds up trajectory playback, 2 plays twice as fast.
	TimeScale float64 `yaml:"time_scale"`
}

// Default values
func Default() Config {
	return Config{
		Constraints: Constraints{
			MinNewSegments: 5,
			MaxNewSegments: 50,
			MaxNewTries:    200,
			ExpandBatch:    1,
		},
		Planner: Planner{
			ReplanPositionThreshold: 0.1,
			ReplanYawThreshold:      0.1,
			ContinuityTolerance:     1e-6,
			IdleInterval:            10 * time.Millisecond,
		},
		Evaluator: Evaluator{
			GainRadius:   1.5,
			Cost:         Cost{Name: CostSegmentTime},
			Value:        Value{Name: ValueSimple, GainWeight: 1, CostWeight: 1},
			Next:         NextImmediateBest,
			Updater:      Updater{Name: UpdaterDefault},
			ValueMarkers: true,
		},
		Generator: Generator{
			Name:           GeneratorRandomLinear,
			Velocity:       1,
			MinDistance:    0.5,
			MaxDistance:    2,
			SampleInterval: 100 * time.Millisecond,
			MaxTries:       10,
			Seed:           1,
		},
		BackTracker: BackTracker{
			Name:           BackTrackerRotateReverse,
			YawStep:        math.Pi / 2,
			YawRate:        math.Pi / 4,
			SampleInterval: 100 * time.Millisecond,
			MaxTurns:       3,
			MaxStack:       100,
		},
		World: World{
			Resolution:    0.5,
			Min:           [3]float64{-10, -10, 0},
			Max:           [3]float64{10, 10, 0.5},
			SensorRadius:  2,
			CheckInterval: 100 * time.Millisecond,
		},
		Robot: Robot{
			TimeScale: 10,
		},
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	errs := []error{c.PlannerConstraints().Validate()}
	if c.Evaluator.GainRadius <= 0 {
		errs = append(errs, errors.New("evaluator gain radius must be positive"))
	}
	if c.World.Resolution <= 0 {
		errs = append(errs, errors.New("world resolution must be positive"))
	}
	for i := range c.World.Min {
		if c.World.Min[i] > c.World.Max[i] {
			errs = append(errs, fmt.Errorf("world bounds are inverted on axis %d", i))
		}
	}
	if c.Robot.TimeScale <= 0 {
		errs = append(errs, errors.New("robot time scale must be positive"))
	}
	if c.Generator.MinDistance > c.Generator.MaxDistance {
		errs = append(errs, errors.New("generator min distance exceeds max distance"))
	}

	// Strategy names are checked by building them.
	if _, err := buildCost(c.Evaluator.Cost); err != nil {
		errs = append(errs, err)
	}
	if _, err := buildValue(c.Evaluator.Value); err != nil {
		errs = append(errs, err)
	}
	if _, err := buildNext(c.Evaluator.Next); err != nil {
		errs = append(errs, err)
	}
	if _, err := buildUpdater(c.Evaluator.Updater); err != nil {
		errs = append(errs, err)
	}
	if c.Generator.Name != GeneratorRandomLinear {
		errs = append(errs, fmt.Errorf("%w: generator %q", ErrUnknownStrategy, c.Generator.Name))
	}
	if _, err := BuildBackTracker(c.BackTracker); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c Config) PlannerConstraints() planner.Constraints {
	return planner.Constraints{
		MaxNewSegments: c.Constraints.MaxNewSegments,
		MinNewSegments: c.Constraints.MinNewSegments,
		MinNewTries:    c.Constraints.MinNewTries,
		MaxNewTries:    c.Constraints.MaxNewTries,
		MinNewValue:    c.Constraints.MinNewValue,
		ExpandBatch:    c.Constraints.ExpandBatch,
	}
}

// PlannerOptions translates the planner section into planner options.
func (c Config) PlannerOptions() []planner.Option {
	options := []planner.Option{
		planner.WithReplanThresholds(c.Planner.ReplanPositionThreshold, c.Planner.ReplanYawThreshold),
		planner.WithContinuityTolerance(c.Planner.ContinuityTolerance),
		planner.WithIdleInterval(c.Planner.IdleInterval),
	}
	if c.Planner.Verbose {
		options = append(options, planner.WithVerbose())
	}
	if c.Planner.Verify {
		options = append(options, planner.WithVerification())
	}
	return options
}
