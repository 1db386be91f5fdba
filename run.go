package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"stickynav/config"
	"stickynav/geometry"
	"stickynav/metrics"
	"stickynav/perflog"
	"stickynav/planner"
	"stickynav/sim"
	"stickynav/visualization"
	"stickynav/worldmap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Explore the configured world with a simulated robot",
	Long: `Run a planning session against a simulated robot. The session ends when
the whole map is observed, the duration elapses or the process is interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if verbose, _ := flags.GetBool("verbose"); verbose {
			cfg.Planner.Verbose = true
		}
		if flags.Changed("seed") {
			cfg.Generator.Seed, _ = flags.GetUint64("seed")
		}
		duration, _ := flags.GetDuration("duration")
		csvDir, _ := flags.GetString("csv-dir")
		sqlitePath, _ := flags.GetString("sqlite")
		metricsAddr, _ := flags.GetString("metrics-addr")
		vizPath, _ := flags.GetString("viz")

		return runSession(cmd.Context(), cfg, sessionOutputs{
			duration:    duration,
			csvDir:      csvDir,
			sqlitePath:  sqlitePath,
			metricsAddr: metricsAddr,
			vizPath:     vizPath,
		})
	},
}

var verifyConfigCmd = &cobra.Command{
	Use:   "verify-config",
	Short: "Validate a configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		start := startPose(cfg.World)
		if !config.BuildWorld(cfg.World).IsTraversable(start.Position) {
			return fmt.Errorf("start position %v is not traversable", start.Position)
		}
		cmd.Printf("configuration ok: %s cost, %s value, %s selection, %s updater, %s back tracker\n",
			cfg.Evaluator.Cost.Name, cfg.Evaluator.Value.Name, cfg.Evaluator.Next,
			cfg.Evaluator.Updater.Name, cfg.BackTracker.Name)
		return nil
	},
}

func init() {
	runCmd.Flags().Duration("duration", time.Minute, "maximum session length")
	runCmd.Flags().Uint64("seed", 1, "generator seed")
	runCmd.Flags().String("csv-dir", "", "directory for the CSV performance log")
	runCmd.Flags().String("sqlite", "", "SQLite database for the performance log")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	runCmd.Flags().String("viz", "", "write an HTML visualization of the session to this file")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

type sessionOutputs struct {
	duration    time.Duration
	csvDir      string
	sqlitePath  string
	metricsAddr string
	vizPath     string
}

func startPose(world config.World) geometry.Pose {
	return geometry.NewPose(r3.Vec{X: world.Start[0], Y: world.Start[1], Z: world.Start[2]}, world.StartYaw)
}

func runSession(ctx context.Context, cfg config.Config, out sessionOutputs) error {
	world := config.BuildWorld(cfg.World)
	start := startPose(cfg.World)
	if !world.IsTraversable(start.Position) {
		return fmt.Errorf("start position %v is not traversable", start.Position)
	}

	sinks, closeSinks, err := openSinks(out)
	if err != nil {
		return err
	}
	defer closeSinks()

	var p *planner.Planner
	robot := sim.NewRobot(world, start,
		sim.WithTimeScale(cfg.Robot.TimeScale),
		sim.WithSensorRadius(cfg.World.SensorRadius),
		sim.WithPoseListener(func(pose geometry.Pose) { p.UpdatePose(pose) }),
	)

	eval, err := config.BuildEvaluator(cfg.Evaluator, sim.FrontierGain{World: world, Radius: cfg.Evaluator.GainRadius})
	if err != nil {
		return err
	}
	gen, err := config.BuildGenerator(cfg.Generator, world)
	if err != nil {
		return err
	}
	bt, err := config.BuildBackTracker(cfg.BackTracker)
	if err != nil {
		return err
	}

	options := cfg.PlannerOptions()
	switch {
	case len(sinks) > 0:
		options = append(options, planner.WithPerformanceLog(metrics.MultiSink(sinks...)))
	case !cfg.Planner.Verbose:
		// Nobody reads the round records.
		options = append(options, planner.WithCollector(metrics.NewDummyCollector()))
	}
	var recorder *visualization.Recorder
	if out.vizPath != "" {
		recorder = visualization.NewRecorder("stickynav session")
		options = append(options, planner.WithVisualization(recorder))
	}

	p, err = planner.New(robot, gen, eval, bt, cfg.PlannerConstraints(), options...)
	if err != nil {
		return err
	}
	p.Initialize(start)

	ctx, cancel := context.WithTimeout(ctx, out.duration)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return p.Run(gctx)
	})
	g.Go(func() error {
		return robot.Run(gctx)
	})
	g.Go(func() error {
		return watchExploration(gctx, world, cfg.World, p.SignalGoalReached)
	})
	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	stats := p.Stats()
	executed, travelled := robot.Progress()
	log.Info().Str("session", stats.Session).Msgf("%d iterations, %d commits, %d recoveries, %d trajectories executed, %.2fm travelled, %d voxels observed",
		stats.Iterations, stats.Commits, stats.Recoveries, executed, travelled, world.ObservedCount())

	if recorder != nil {
		if err := recorder.WriteFile(out.vizPath); err != nil {
			return err
		}
		log.Info().Msgf("visualization written to %s", out.vizPath)
	}
	return nil
}

// watchExploration signals the goal once every voxel of the world has been
// observed.
func watchExploration(ctx context.Context, world *worldmap.Grid, cfg config.World, goalReached func()) error {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	min := r3.Vec{X: cfg.Min[0], Y: cfg.Min[1], Z: cfg.Min[2]}
	max := r3.Vec{X: cfg.Max[0], Y: cfg.Max[1], Z: cfg.Max[2]}
	center := r3.Scale(0.5, r3.Add(min, max))
	radius := r3.Norm(r3.Sub(max, center)) + world.Resolution()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if world.CountUnobserved(center, radius) == 0 {
				log.Info().Msg("world fully observed")
				goalReached()
				return nil
			}
		}
	}
}

func openSinks(out sessionOutputs) ([]metrics.Sink, func(), error) {
	var sinks []metrics.Sink
	var server *http.Server
	closeAll := func() {
		if err := metrics.MultiSink(sinks...).Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close performance log")
		}
		if server != nil {
			_ = server.Close()
		}
	}

	if out.csvDir != "" {
		w, err := metrics.NewWriter(out.csvDir)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msgf("writing performance log to %s", w.Path())
		sinks = append(sinks, w)
	}
	if out.sqlitePath != "" {
		store, err := perflog.Open(out.sqlitePath)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		sinks = append(sinks, store)
	}
	if out.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		sinks = append(sinks, metrics.NewPrometheusSink(reg))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		server = &http.Server{Addr: out.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func(server *http.Server) {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("metrics server failed")
			}
		}(server)
		log.Info().Msgf("serving metrics on %s/metrics", out.metricsAddr)
	}
	return sinks, closeAll, nil
}
