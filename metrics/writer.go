package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Durations are wall clock seconds, not CPU time.
var header = []string{
	"session", "round", "time", "outcome", "new_segments", "new_tries",
	"killed_next", "killed_update", "tree_size", "value", "duration_wall",
	"select_wall", "expand_wall", "gain_wall", "cost_wall", "value_wall", "update_wall",
}

// Writer streams round records into a CSV file.
type Writer struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// NewWriter creates baseDir/<timestamp>/rounds.csv and writes the header.
func NewWriter(baseDir string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	dir := filepath.Join(baseDir, timestamp)
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, "rounds.csv")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create rounds file: %w", err)
	}

	w := &Writer{path: path, file: f, writer: csv.NewWriter(f)}
	err = w.writer.Write(header)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write rounds header: %w", err)
	}
	w.writer.Flush()
	return w, nil
}

func (w *Writer) Path() string {
	return w.path
}

func (w *Writer) Record(m RoundMetric) error {
	row := []string{
		m.Session,
		strconv.Itoa(m.Round),
		m.Time.Format(time.RFC3339Nano),
		string(m.Outcome),
		strconv.Itoa(m.NewSegments),
		strconv.Itoa(m.NewTries),
		strconv.Itoa(m.KilledNext),
		strconv.Itoa(m.KilledUpdate),
		strconv.Itoa(m.TreeSize),
		strconv.FormatFloat(m.Value, 'g', -1, 64),
		strconv.FormatFloat(m.Duration.Seconds(), 'f', 6, 64),
	}
	for _, d := range m.Timings {
		row = append(row, strconv.FormatFloat(d.Seconds(), 'f', 6, 64))
	}
	err := w.writer.Write(row)
	if err != nil {
		return fmt.Errorf("failed to write round row: %w", err)
	}
	w.writer.Flush()
	return w.writer.Error()
}

func (w *Writer) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush rounds file: %w", err)
	}
	return w.file.Close()
}
