// Package sim simulates a robot that executes planned trajectories on a
// voxel map and feeds its pose back to the planner.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"stickynav/geometry"
	"stickynav/trajectory"
	"stickynav/worldmap"
)

type Option func(r *Robot)

// WithTimeScale plays trajectories faster (> 1) or slower (< 1) than
// their timestamps.
func WithTimeScale(scale float64) Option {
	return func(r *Robot) {
		if scale > 0 {
			r.timeScale = scale
		}
	}
}

// WithSensorRadius sets how far the robot observes the map around itself.
func WithSensorRadius(radius float64) Option {
	return func(r *Robot) {
		if radius > 0 {
			r.sensorRadius = radius
		}
	}
}

// WithPoseListener registers the odometry feed, usually Planner.UpdatePose.
func WithPoseListener(listener func(geometry.Pose)) Option {
	return func(r *Robot) {
		r.listener = listener
	}
}

// Robot implements the planner executor. Requested trajectories are queued
// and played back by Run. A newer request replaces one that has not started.
type Robot struct {
	world        *worldmap.Grid
	timeScale    float64
	sensorRadius float64
	listener     func(geometry.Pose)
	requests     chan []trajectory.Point

	mu        sync.Mutex
	pose      geometry.Pose
	executed  int
	travelled float64
}

func NewRobot(world *worldmap.Grid, start geometry.Pose, options ...Option) *Robot {
	r := &Robot{ // Default values
		world:        world,
		timeScale:    1,
		sensorRadius: 2,
		requests:     make(chan []trajectory.Point, 1),
		pose:         start,
	}
	for _, option := range options {
		option(r)
	}
	if r.world != nil {
		r.world.Observe(start.Position, r.sensorRadius)
	}
	return r
}

func (r *Robot) RequestMovement(points []trajectory.Point) {
	if len(points) == 0 {
		return
	}
	for {
		select {
		case r.requests <- points:
			return
		default:
		}
		select {
		case dropped := <-r.requests:
			log.Debug().Msgf("replacing pending trajectory of %d points", len(dropped))
		default:
		}
	}
}

// Run plays requested trajectories until ctx is done.
func (r *Robot) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case points := <-r.requests:
			if err := r.play(ctx, points); err != nil {
				return err
			}
		}
	}
}

func (r *Robot) play(ctx context.Context, points []trajectory.Point) error {
	previous := points[0].Time
	for _, point := range points {
		if wait := time.Duration(float64(point.Time-previous) / r.timeScale); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		previous = point.Time
		r.moveTo(point.Pose())
	}

	r.mu.Lock()
	r.executed++
	r.mu.Unlock()
	return nil
}

func (r *Robot) moveTo(pose geometry.Pose) {
	r.mu.Lock()
	r.travelled += geometry.Distance(r.pose.Position, pose.Position)
	r.pose = pose
	r.mu.Unlock()

	if r.world != nil {
		r.world.Observe(pose.Position, r.sensorRadius)
	}
	if r.listener != nil {
		r.listener(pose)
	}
}

func (r *Robot) Pose() geometry.Pose {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pose
}

// Progress returns the number of completed trajectories and the distance
// travelled so far.
func (r *Robot) Progress() (executed int, travelled float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.executed, r.travelled
}
