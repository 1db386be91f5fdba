package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusSink exports round records as counters and histograms.
type PrometheusSink struct {
	decisions *prometheus.CounterVec
	killed    *prometheus.CounterVec
	segments  prometheus.Counter
	tries     prometheus.Counter
	treeSize  prometheus.Gauge
	value     prometheus.Gauge
	stages    *prometheus.HistogramVec
}

func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	factory := promauto.With(reg)
	return &PrometheusSink{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stickynav_decisions_total",
			Help: "Planner decisions by outcome",
		}, []string{"outcome"}),
		killed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "stickynav_segments_killed_total",
			Help: "Segments removed from the tree by phase",
		}, []string{"phase"}),
		segments: factory.NewCounter(prometheus.CounterOpts{
			Name: "stickynav_segments_new_total",
			Help: "Viable segments added to the tree",
		}),
		tries: factory.NewCounter(prometheus.CounterOpts{
			Name: "stickynav_expansion_tries_total",
			Help: "Expansion attempts",
		}),
		treeSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stickynav_tree_size",
			Help: "Segments in the tree after the last decision",
		}),
		value: factory.NewGauge(prometheus.GaugeOpts{
			Name: "stickynav_committed_value",
			Help: "Value of the last committed segment",
		}),
		stages: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stickynav_stage_duration_seconds",
			Help:    "Time spent per pipeline stage between decisions",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"stage"}),
	}
}

func (p *PrometheusSink) Record(m RoundMetric) error {
	p.decisions.WithLabelValues(string(m.Outcome)).Inc()
	p.killed.WithLabelValues("root_change").Add(float64(m.KilledNext))
	p.killed.WithLabelValues("update").Add(float64(m.KilledUpdate))
	p.segments.Add(float64(m.NewSegments))
	p.tries.Add(float64(m.NewTries))
	p.treeSize.Set(float64(m.TreeSize))
	if m.Outcome == OutcomeCommit {
		p.value.Set(m.Value)
	}
	for stage, d := range m.Timings {
		p.stages.WithLabelValues(Stage(stage).String()).Observe(d.Seconds())
	}
	return nil
}

func (p *PrometheusSink) Close() error {
	return nil
}
