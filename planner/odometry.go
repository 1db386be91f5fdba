package planner

import (
	"sync"

	"stickynav/geometry"
)

// odometry is written by the localization feed and read by the planning
// loop. Readers always see position, orientation and target state from the
// same update.
type odometry struct {
	mu            sync.RWMutex
	pose          geometry.Pose
	target        geometry.Pose
	targetReached bool

	positionThreshold float64
	yawThreshold      float64
}

func (o *odometry) reset(pose geometry.Pose) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pose = pose
	o.target = pose
	o.targetReached = true
}

func (o *odometry) update(pose geometry.Pose) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pose = pose
	if !o.targetReached && o.near(pose) {
		o.targetReached = true
	}
}

// setTarget must happen before the movement is requested so the feed can
// not report the old target as reached.
func (o *odometry) setTarget(target geometry.Pose) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.target = target
	o.targetReached = false
}

// near must be called with the lock held.
func (o *odometry) near(pose geometry.Pose) bool {
	return geometry.Distance(pose.Position, o.target.Position) < o.positionThreshold &&
		geometry.AngleDiff(pose.Yaw(), o.target.Yaw()) < o.yawThreshold
}

func (o *odometry) snapshot() (pose geometry.Pose, target geometry.Pose, reached bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.pose, o.target, o.targetReached
}
