package trajectory

import (
	"time"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"stickynav/geometry"
)

// Point is a single sample of a trajectory. Time is measured from the start
// of the segment the point belongs to.
type Point struct {
	Position    r3.Vec
	Orientation quat.Number
	Time        time.Duration
}

func PointAt(pose geometry.Pose, t time.Duration) Point {
	return Point{Position: pose.Position, Orientation: pose.Orientation, Time: t}
}

func (p Point) Pose() geometry.Pose {
	return geometry.Pose{Position: p.Position, Orientation: p.Orientation}
}

func (p Point) Yaw() float64 {
	return geometry.Yaw(p.Orientation)
}

// Length is the summed distance between consecutive points.
func Length(points []Point) float64 {
	length := 0.0
	for i := 1; i < len(points); i++ {
		length += geometry.Distance(points[i-1].Position, points[i].Position)
	}
	return length
}

// Duration is the time stamp of the last point.
func Duration(points []Point) time.Duration {
	if len(points) == 0 {
		return 0
	}
	return points[len(points)-1].Time
}
