package visualization

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"stickynav/geometry"
	"stickynav/trajectory"
)

func TestRecorder(t *testing.T) {
	newSegment := func(value float64) *trajectory.Segment {
		root := trajectory.NewRoot(geometry.NewPose(r3.Vec{}, 0))
		s := root.SpawnChild()
		s.Trajectory = []trajectory.Point{{Position: r3.Vec{}}, {Position: r3.Vec{X: 1, Y: 2}}}
		s.Value = value
		return s
	}

	t.Run("records published data", func(t *testing.T) {
		r := NewRecorder("test")
		r.PublishCandidates([]*trajectory.Segment{newSegment(1), newSegment(2)})
		r.PublishCompleted(newSegment(3))
		r.PublishMarkers(Markers{{Position: r3.Vec{X: 1}, Value: 4, Label: "v"}})

		candidates, markers, commits := r.Counts()
		require.Equal(t, 2, candidates)
		require.Equal(t, 1, markers)
		require.Equal(t, 1, commits)
	})

	t.Run("renders html", func(t *testing.T) {
		r := NewRecorder("tree")
		r.PublishCandidates([]*trajectory.Segment{newSegment(0.5)})
		r.PublishCompleted(newSegment(0.5))

		var buf bytes.Buffer
		require.NoError(t, r.Render(&buf))
		require.Contains(t, buf.String(), "candidates")
		require.Contains(t, buf.String(), "Committed value")
	})

	t.Run("renders an empty recorder", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewRecorder("empty").Render(&buf))
	})

	t.Run("writes to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tree.html")
		require.NoError(t, NewRecorder("file").WriteFile(path))
		require.FileExists(t, path)
	})
}

func TestMarkersAdd(t *testing.T) {
	var m Markers
	m.Add(Marker{Value: 1})
	m.Add(Marker{Value: 2})
	require.Len(t, m, 2)
}
