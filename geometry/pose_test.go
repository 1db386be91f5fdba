package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestYaw(t *testing.T) {
	t.Run("round trips through the quaternion", func(t *testing.T) {
		for _, yaw := range []float64{0, 0.3, math.Pi / 2, -2.5, math.Pi - 0.01} {
			require.InDelta(t, yaw, Yaw(YawQuat(yaw)), 1e-9, "yaw %v should round trip", yaw)
		}
	})

	t.Run("zero quaternion is identity", func(t *testing.T) {
		require.Equal(t, 0.0, Yaw(quat.Number{}))
	})

	t.Run("non unit quaternion is normalized", func(t *testing.T) {
		q := YawQuat(1.0)
		q = quat.Scale(3, q)
		require.InDelta(t, 1.0, Yaw(q), 1e-9)
	})
}

func TestAngleDiff(t *testing.T) {
	require.InDelta(t, 0.0, AngleDiff(math.Pi, -math.Pi), 1e-9, "pi and -pi are the same heading")
	require.InDelta(t, 0.2, AngleDiff(math.Pi-0.1, -math.Pi+0.1), 1e-9, "difference should wrap")
	require.InDelta(t, math.Pi/2, AngleDiff(0, math.Pi/2), 1e-9)
	require.InDelta(t, math.Pi/2, AngleDiff(math.Pi/2, 0), 1e-9)
}

func TestDistance(t *testing.T) {
	require.InDelta(t, 5.0, Distance(r3.Vec{X: 3, Y: 4}, r3.Vec{}), 1e-12)
}

func TestNewPose(t *testing.T) {
	p := NewPose(r3.Vec{X: 1, Y: 2, Z: 3}, 0.7)
	require.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, p.Position)
	require.InDelta(t, 0.7, p.Yaw(), 1e-9)
	require.InDelta(t, 1.0, r3.Norm(Heading(p.Yaw())), 1e-12)
}
