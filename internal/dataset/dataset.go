// Package dataset implements the report data set: an ordered collection of
// typed records that is filtered, deduplicated, sorted and formatted into a
// titled table block.
//
// The pipeline order is fixed (filter, dedupe, sort, format) and every stage
// is a strategy supplied through Options. Rendering never mutates the
// accumulated records, so rendering twice yields identical output.
package dataset

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/bgsforge/powerstate/internal/logging"
)

// Record is a row source. Validate reports a missing or inconsistent field
// as a *MalformedRecordError.
type Record interface {
	Validate() error
}

// MalformedRecordError marks a record that cannot be rendered. Such records
// are dropped with a warning; they never abort a render.
type MalformedRecordError struct {
	Dataset string
	Reason  string
}

func (e *MalformedRecordError) Error() string {
	if e.Dataset == "" {
		return "malformed record: " + e.Reason
	}
	return fmt.Sprintf("malformed record in %q: %s", e.Dataset, e.Reason)
}

// Malformed is a shorthand for record Validate implementations.
func Malformed(format string, args ...any) error {
	return &MalformedRecordError{Reason: fmt.Sprintf(format, args...)}
}

// Options configures a DataSet. Nil strategies fall back to the defaults:
// keep everything, exact-equality dedupe, insertion order, and no cells.
type Options[R Record] struct {
	Title       string
	Icon        string
	Description string

	// FilterText explains the filter and is printed above the table.
	FilterText string

	// Columns are the table headers. Without columns the block renders as a list.
	Columns []string

	// Filter returns true for records to keep.
	Filter func(R) bool

	// Dedupe removes or groups duplicate records.
	Dedupe func([]R) []R

	// Compare must be a total order; ties are broken by the implementation,
	// never by insertion order.
	Compare func(a, b R) int

	// Format turns a record into table cells.
	Format func(R) ([]string, error)

	Logger logging.Logger
}

// DataSet accumulates records of one type. It is not safe for concurrent use.
type DataSet[R Record] struct {
	opts    Options[R]
	records []R
	dropped int
}

// New creates an empty DataSet.
func New[R Record](opts Options[R]) *DataSet[R] {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Dedupe == nil {
		opts.Dedupe = Unique[R]
	}
	opts.Columns = slices.Clone(opts.Columns)
	return &DataSet[R]{opts: opts}
}

// Title returns the block title.
func (d *DataSet[R]) Title() string { return d.opts.Title }

// Add appends records. Records failing validation are dropped and logged.
// No deduplication happens at insert time.
func (d *DataSet[R]) Add(records ...R) {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			d.drop(err)
			continue
		}
		d.records = append(d.records, r)
	}
}

func (d *DataSet[R]) drop(err error) {
	d.dropped++
	var mre *MalformedRecordError
	if errors.As(err, &mre) && mre.Dataset == "" {
		mre.Dataset = d.opts.Title
	}
	d.opts.Logger.Warn("dropping malformed record",
		logging.String("dataset", d.opts.Title),
		logging.Err(err))
}

// HasRecords reports whether any record was accepted.
func (d *DataSet[R]) HasRecords() bool { return len(d.records) > 0 }

// Len returns the number of accepted records, before the pipeline runs.
func (d *DataSet[R]) Len() int { return len(d.records) }

// Dropped returns the number of records discarded as malformed so far.
func (d *DataSet[R]) Dropped() int { return d.dropped }

// SetColumns overrides the table headers.
func (d *DataSet[R]) SetColumns(columns ...string) {
	d.opts.Columns = slices.Clone(columns)
}

// SetDescription replaces the description, typically with totals known only
// after aggregation.
func (d *DataSet[R]) SetDescription(description string) {
	d.opts.Description = description
}

// Records runs filter, dedupe and sort over a copy of the accumulated records.
func (d *DataSet[R]) Records() []R {
	out := slices.Clone(d.records)
	if d.opts.Filter != nil {
		out = slices.DeleteFunc(out, func(r R) bool { return !d.opts.Filter(r) })
	}
	out = d.opts.Dedupe(out)
	if d.opts.Compare != nil {
		slices.SortStableFunc(out, d.opts.Compare)
	}
	return out
}

// Table runs the full pipeline and returns the resulting block.
func (d *DataSet[R]) Table() Table {
	t := Table{
		ID:          AnchorID(d.opts.Title),
		Title:       d.opts.Title,
		Icon:        d.opts.Icon,
		Description: d.opts.Description,
		FilterText:  d.opts.FilterText,
		Columns:     slices.Clone(d.opts.Columns),
	}
	for _, r := range d.Records() {
		cells, err := d.format(r)
		if err != nil {
			d.drop(err)
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func (d *DataSet[R]) format(r R) ([]string, error) {
	if d.opts.Format == nil {
		return []string{fmt.Sprint(r)}, nil
	}
	return d.opts.Format(r)
}

// Unique removes exact duplicates, keeping the first occurrence.
func Unique[R any](records []R) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		if !slices.ContainsFunc(out, func(o R) bool { return reflect.DeepEqual(o, r) }) {
			out = append(out, r)
		}
	}
	return out
}
