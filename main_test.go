package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stickynav/config"
	"stickynav/perflog"
)

func TestRunSession(t *testing.T) {
	dir := t.TempDir()
	vizPath := filepath.Join(dir, "session.html")
	dbPath := filepath.Join(dir, "rounds.db")

	cfg := config.Default()
	cfg.Robot.TimeScale = 50
	err := runSession(context.Background(), cfg, sessionOutputs{
		duration:   300 * time.Millisecond,
		csvDir:     dir,
		sqlitePath: dbPath,
		vizPath:    vizPath,
	})
	require.NoError(t, err)

	info, err := os.Stat(vizPath)
	require.NoError(t, err)
	require.Positive(t, info.Size())

	matches, err := filepath.Glob(filepath.Join(dir, "*", "rounds.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	store, err := perflog.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
}

func TestRunSessionRejectsBlockedStart(t *testing.T) {
	cfg := config.Default()
	cfg.World.Obstacles = []config.Box{{Min: [3]float64{-0.2, -0.2, 0}, Max: [3]float64{0.2, 0.2, 0.4}}}

	err := runSession(context.Background(), cfg, sessionOutputs{duration: time.Second})
	require.ErrorContains(t, err, "not traversable")
}
