package geometry

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Pose is a position plus orientation in the world frame.
type Pose struct {
	Position    r3.Vec
	Orientation quat.Number
}

// NewPose returns a pose at position with a heading of yaw radians about +Z.
func NewPose(position r3.Vec, yaw float64) Pose {
	return Pose{Position: position, Orientation: YawQuat(yaw)}
}

func (p Pose) Yaw() float64 {
	return Yaw(p.Orientation)
}

// YawQuat returns the unit quaternion of a rotation of yaw radians about +Z.
func YawQuat(yaw float64) quat.Number {
	return quat.Number{Real: math.Cos(yaw / 2), Kmag: math.Sin(yaw / 2)}
}

// Yaw extracts the heading about +Z from an orientation. A zero quaternion
// is treated as the identity.
func Yaw(q quat.Number) float64 {
	if q == (quat.Number{}) {
		return 0
	}
	n := quat.Abs(q)
	w, x, y, z := q.Real/n, q.Imag/n, q.Jmag/n, q.Kmag/n
	return math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
}

// Distance is the euclidean distance between two positions.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// AngleDiff returns the absolute difference between two headings wrapped
// to [0, pi].
func AngleDiff(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// Heading returns the unit vector in the XY plane for a yaw angle.
func Heading(yaw float64) r3.Vec {
	return r3.Vec{X: math.Cos(yaw), Y: math.Sin(yaw)}
}
