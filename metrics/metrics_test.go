package metrics

import (
	"encoding/csv"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("accumulates until complete", func(t *testing.T) {
		c := NewCollector()
		c.Start()
		c.AddDuration(StageExpand, 2*time.Millisecond)
		c.AddDuration(StageExpand, 3*time.Millisecond)
		c.AddDuration(StageSelect, time.Millisecond)
		c.AddKilledNext(4)
		c.AddKilledUpdate(2)
		c.AddKilledUpdate(1)

		m := c.Complete(RoundMetric{Round: 3, Outcome: OutcomeCommit})

		require.Equal(t, 3, m.Round, "caller fields should be kept")
		require.Equal(t, 5*time.Millisecond, m.Timings[StageExpand])
		require.Equal(t, time.Millisecond, m.Timings[StageSelect])
		require.Equal(t, 6*time.Millisecond, m.Timings.Total())
		require.Equal(t, 4, m.KilledNext)
		require.Equal(t, 3, m.KilledUpdate)
		require.False(t, m.Time.IsZero())
	})

	t.Run("complete starts over", func(t *testing.T) {
		c := NewCollector()
		c.Start()
		c.AddDuration(StageGain, time.Second)
		c.AddKilledNext(1)
		c.Complete(RoundMetric{})

		m := c.Complete(RoundMetric{})
		require.Equal(t, Timings{}, m.Timings)
		require.Equal(t, 0, m.KilledNext)
	})

	t.Run("ignores unknown stages", func(t *testing.T) {
		c := NewCollector()
		c.Start()
		require.NotPanics(t, func() {
			c.AddDuration(NumStages, time.Second)
			c.AddDuration(-1, time.Second)
		})
	})

	t.Run("dummy collector passes records through", func(t *testing.T) {
		c := NewDummyCollector()
		c.Start()
		c.AddDuration(StageCost, time.Second)
		c.AddKilledNext(10)
		require.Equal(t, RoundMetric{Round: 1}, c.Complete(RoundMetric{Round: 1}))
	})
}

func TestStageString(t *testing.T) {
	require.Equal(t, "select", StageSelect.String())
	require.Equal(t, "update", StageUpdate.String())
	require.Equal(t, "unknown", NumStages.String())
}

func TestWriter(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	require.NoError(t, err)

	m := RoundMetric{Session: "s", Round: 1, Time: time.Now(), Outcome: OutcomeRecover, NewTries: 4, Value: 0.5}
	m.Timings[StageValue] = 1500 * time.Microsecond
	require.NoError(t, w.Record(m))
	require.NoError(t, w.Record(m))
	require.NoError(t, w.Close())

	f, err := os.Open(w.Path())
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3, "header plus one row per record")
	require.Equal(t, header, rows[0])
	require.Len(t, rows[1], len(header))
	require.Equal(t, "recover", rows[1][3])
	require.Equal(t, "4", rows[1][5])
	require.Equal(t, "0.001500", rows[1][15])
	require.Equal(t, "value_wall", rows[0][15], "stage timings are wall clock")
}

type fakeSink struct {
	records []RoundMetric
	err     error
	closed  bool
}

func (f *fakeSink) Record(m RoundMetric) error {
	f.records = append(f.records, m)
	return f.err
}

func (f *fakeSink) Close() error {
	f.closed = true
	return f.err
}

func TestMultiSink(t *testing.T) {
	boom := errors.New("boom")
	ok, failing := &fakeSink{}, &fakeSink{err: boom}
	sink := MultiSink(failing, ok)

	err := sink.Record(RoundMetric{Round: 2})
	require.ErrorIs(t, err, boom)
	require.Len(t, ok.records, 1, "a failing sink must not starve the others")

	require.ErrorIs(t, sink.Close(), boom)
	require.True(t, ok.closed)
	require.True(t, failing.closed)
}

func TestPrometheusSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheusSink(reg)

	m := RoundMetric{Outcome: OutcomeCommit, NewSegments: 3, NewTries: 5, KilledNext: 2, KilledUpdate: 1, TreeSize: 7, Value: 1.25}
	require.NoError(t, p.Record(m))
	require.NoError(t, p.Record(RoundMetric{Outcome: OutcomeRecover, NewTries: 1}))

	require.Equal(t, 1.0, testutil.ToFloat64(p.decisions.WithLabelValues("commit")))
	require.Equal(t, 1.0, testutil.ToFloat64(p.decisions.WithLabelValues("recover")))
	require.Equal(t, 2.0, testutil.ToFloat64(p.killed.WithLabelValues("root_change")))
	require.Equal(t, 1.0, testutil.ToFloat64(p.killed.WithLabelValues("update")))
	require.Equal(t, 3.0, testutil.ToFloat64(p.segments))
	require.Equal(t, 6.0, testutil.ToFloat64(p.tries))
	require.Equal(t, 0.0, testutil.ToFloat64(p.treeSize))
	require.Equal(t, 1.25, testutil.ToFloat64(p.value), "recoveries should not overwrite the committed value")
	require.NoError(t, p.Close())
}
