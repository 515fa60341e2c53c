package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bgsforge/powerstate/internal/dataset"
	"github.com/bgsforge/powerstate/internal/report"
	"github.com/bgsforge/powerstate/internal/sphere"
)

// Summary is the machine-readable result of a run.
type Summary struct {
	Power       string            `yaml:"power" json:"power"`
	GeneratedAt time.Time         `yaml:"generated_at" json:"generated_at"`
	LastTick    *time.Time        `yaml:"last_tick,omitempty" json:"last_tick,omitempty"`
	Spheres     []*sphere.Summary `yaml:"spheres" json:"spheres"`
	Totals      report.Totals     `yaml:"totals" json:"totals"`
}

// NewSummary builds a Summary from an aggregation result. A zero lastTick
// is left out.
func NewSummary(power string, generated, lastTick time.Time, res *sphere.Result) *Summary {
	s := &Summary{Power: power, GeneratedAt: generated.UTC(), Spheres: res.Spheres, Totals: res.Totals}
	if !lastTick.IsZero() {
		t := lastTick.UTC()
		s.LastTick = &t
	}
	return s
}

// Report is everything one run writes.
type Report struct {
	Summary  *Summary
	Advanced *report.Document
	// Simple is nil when the power has no simple report.
	Simple *report.Document

	AdvancedFile string
	SimpleFile   string
}

// Blocks returns the blocks of both documents.
func (r *Report) Blocks() []dataset.Block {
	var blocks []dataset.Block
	if r.Advanced != nil {
		blocks = append(blocks, r.Advanced.Blocks()...)
	}
	if r.Simple != nil {
		blocks = append(blocks, r.Simple.Blocks()...)
	}
	return blocks
}

// Write writes the report into dir and returns the written paths. Markdown
// produces one file per document, the other formats a single file named
// after the advanced document.
func Write(dir string, f Format, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	formatter, err := GetFormatter(f)
	if err != nil {
		return nil, err
	}

	type target struct {
		file  string
		value interface{}
	}
	var targets []target
	switch f {
	case FormatMarkdown:
		targets = append(targets, target{r.AdvancedFile, r.Advanced})
		if r.Simple != nil && r.SimpleFile != "" {
			targets = append(targets, target{r.SimpleFile, r.Simple})
		}
	case FormatXLSX:
		targets = append(targets, target{r.AdvancedFile, r})
	default:
		targets = append(targets, target{r.AdvancedFile, r.Summary})
	}

	var written []string
	for _, t := range targets {
		path := filepath.Join(dir, f.FileName(t.file))
		if err := writeFile(path, formatter, t.value); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, formatter Formatter, v interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := formatter.FormatToWriter(file, v); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
