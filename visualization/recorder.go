package visualization

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"stickynav/trajectory"
)

const maxRecordedCandidates = 20000

// Recorder keeps what the planner published and renders it as an HTML page.
type Recorder struct {
	mu         sync.Mutex
	title      string
	candidates []opts.ScatterData
	markers    []opts.ScatterData
	executed   []opts.ScatterData
	values     []float64
	maxValue   float64
}

func NewRecorder(title string) *Recorder {
	return &Recorder{title: title}
}

func (r *Recorder) PublishCandidates(segments []*trajectory.Segment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range segments {
		end, ok := s.End()
		if !ok || len(r.candidates) >= maxRecordedCandidates {
			continue
		}
		r.candidates = append(r.candidates, opts.ScatterData{Value: []interface{}{end.Position.X, end.Position.Y, s.Value}})
		r.trackMax(s.Value)
	}
}

func (r *Recorder) PublishCompleted(segment *trajectory.Segment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range segment.Trajectory {
		r.executed = append(r.executed, opts.ScatterData{Value: []interface{}{p.Position.X, p.Position.Y, segment.Value}})
	}
	r.values = append(r.values, segment.Value)
	r.trackMax(segment.Value)
}

func (r *Recorder) PublishMarkers(markers Markers) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range markers {
		if len(r.markers) >= maxRecordedCandidates {
			return
		}
		r.markers = append(r.markers, opts.ScatterData{Name: m.Label, Value: []interface{}{m.Position.X, m.Position.Y, m.Value}})
		r.trackMax(m.Value)
	}
}

func (r *Recorder) trackMax(v float64) {
	if !math.IsInf(v, 0) && !math.IsNaN(v) && v > r.maxValue {
		r.maxValue = v
	}
}

// Counts returns the number of recorded candidates, markers and commits.
func (r *Recorder) Counts() (candidates, markers, commits int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.candidates), len(r.markers), len(r.values)
}

// Render writes the tree scatter plot and the committed value history.
func (r *Recorder) Render(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	maxValue := r.maxValue
	if maxValue == 0 {
		maxValue = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: r.title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: r.title, Subtitle: fmt.Sprintf("candidates=%d commits=%d", len(r.candidates), len(r.values))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxValue),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#3e4989", "#26828e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("candidates", r.candidates, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	scatter.AddSeries("markers", r.markers, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	scatter.AddSeries("executed", r.executed, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	x := make([]string, len(r.values))
	y := make([]opts.LineData, len(r.values))
	for i, v := range r.values {
		x[i] = strconv.Itoa(i + 1)
		y[i] = opts.LineData{Value: v}
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Committed value"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(x).AddSeries("value", y)

	page := components.NewPage()
	page.AddCharts(scatter, line)
	return page.Render(w)
}

// WriteFile renders the page into path.
func (r *Recorder) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create visualization file: %w", err)
	}
	defer f.Close()

	if err := r.Render(f); err != nil {
		return fmt.Errorf("failed to render visualization: %w", err)
	}
	return nil
}
