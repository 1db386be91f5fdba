package metrics

import (
	"time"
)

type Stage int

const (
	StageSelect Stage = iota
	StageExpand
	StageGain
	StageCost
	StageValue
	StageUpdate
	NumStages
)

var stageNames = [NumStages]string{"select", "expand", "gain", "cost", "value", "update"}

func (s Stage) String() string {
	if s < 0 || s >= NumStages {
		return "unknown"
	}
	return stageNames[s]
}

type Outcome string

const (
	OutcomeCommit  Outcome = "commit"
	OutcomeRecover Outcome = "recover"
)

type Timings [NumStages]time.Duration

func (t Timings) Total() time.Duration {
	var total time.Duration
	for _, d := range t {
		total += d
	}
	return total
}

// RoundMetric describes the planning work between two decisions.
type RoundMetric struct {
	Session      string
	Round        int
	Time         time.Time
	Outcome      Outcome
	NewSegments  int
	NewTries     int
	KilledNext   int // Segments dropped by re-rooting
	KilledUpdate int // Segments pruned by the tree update
	TreeSize     int
	Value        float64 // Value of the committed segment
	Duration     time.Duration
	Timings      Timings
}

// Collector accumulates timings and attrition between two decisions. It is
// driven by the single planning goroutine.
type Collector interface {
	Start()
	AddDuration(stage Stage, d time.Duration)
	AddKilledNext(n int)
	AddKilledUpdate(n int)
	// Complete fills the accumulated fields into m and starts over.
	Complete(m RoundMetric) RoundMetric
}

type collector struct {
	startTime    time.Time
	timings      Timings
	killedNext   int
	killedUpdate int
}

func NewCollector() Collector {
	return &collector{}
}

func (c *collector) Start() {
	c.startTime = time.Now()
	c.timings = Timings{}
	c.killedNext = 0
	c.killedUpdate = 0
}

func (c *collector) AddDuration(stage Stage, d time.Duration) {
	if stage < 0 || stage >= NumStages {
		return
	}
	c.timings[stage] += d
}

func (c *collector) AddKilledNext(n int) {
	c.killedNext += n
}

func (c *collector) AddKilledUpdate(n int) {
	c.killedUpdate += n
}

func (c *collector) Complete(m RoundMetric) RoundMetric {
	m.Time = time.Now()
	m.Duration = time.Since(c.startTime)
	m.Timings = c.timings
	m.KilledNext = c.killedNext
	m.KilledUpdate = c.killedUpdate
	c.Start()
	return m
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (c *dummyCollector) Start()                                   {}
func (c *dummyCollector) AddDuration(stage Stage, d time.Duration) {}
func (c *dummyCollector) AddKilledNext(n int)                      {}
func (c *dummyCollector) AddKilledUpdate(n int)                    {}
func (c *dummyCollector) Complete(m RoundMetric) RoundMetric       { return m }
