package dataset

import (
	"cmp"
	"errors"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bgsforge/powerstate/internal/logging"
)

type sphereRow struct {
	Name   string
	Buffer int
}

func (r sphereRow) Validate() error {
	if r.Name == "" {
		return Malformed("missing name")
	}
	return nil
}

func newSphereSet(opts Options[sphereRow]) *DataSet[sphereRow] {
	if opts.Title == "" {
		opts.Title = "Spheres"
	}
	if opts.Columns == nil {
		opts.Columns = []string{"Sphere", "Buffer"}
	}
	opts.Compare = func(a, b sphereRow) int {
		return cmp.Or(cmp.Compare(a.Buffer, b.Buffer), cmp.Compare(a.Name, b.Name))
	}
	opts.Format = func(r sphereRow) ([]string, error) {
		return []string{r.Name, strconv.Itoa(r.Buffer)}, nil
	}
	return New(opts)
}

func render(t *testing.T, b Block) string {
	t.Helper()
	var sb strings.Builder
	if err := Render(&sb, b); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return sb.String()
}

func TestRender_EmptyEmitsNone(t *testing.T) {
	ds := newSphereSet(Options[sphereRow]{})
	out := render(t, ds)

	if !strings.Contains(out, "\nNONE\n") {
		t.Errorf("expected NONE marker, got:\n%s", out)
	}
	if strings.Contains(out, "| Sphere") {
		t.Errorf("empty data set must not print a header:\n%s", out)
	}
}

func TestRender_AllFilteredEmitsNone(t *testing.T) {
	ds := newSphereSet(Options[sphereRow]{
		Filter: func(r sphereRow) bool { return r.Name != "Cubeo" },
	})
	ds.Add(sphereRow{Name: "Cubeo", Buffer: 1})

	if !ds.HasRecords() {
		t.Fatal("HasRecords should report accumulated records before filtering")
	}
	if out := render(t, ds); !strings.Contains(out, "\nNONE\n") {
		t.Errorf("expected NONE marker, got:\n%s", out)
	}
}

func TestRender_Table(t *testing.T) {
	ds := newSphereSet(Options[sphereRow]{
		Title:       "Control systems by buffer",
		Icon:        "fortify",
		Description: "Sorted by buffer.",
		FilterText:  "*Ignored: Cubeo*",
	})
	ds.Add(sphereRow{Name: "Rhea", Buffer: 2}, sphereRow{Name: "Kappa", Buffer: -1})

	out := render(t, ds)
	want := []string{
		`<div class="card bg-darken" markdown="1">`,
		`### <img class="card-icon" alt="fortify" src="fortify.svg"> Control systems by buffer {#control-systems-by-buffer}`,
		"{:.card-header}",
		"Sorted by buffer.\n\n*Ignored: Cubeo*\n\n",
		"| Sphere | Buffer\n| -| -\n| Kappa | -1\n| Rhea | 2\n",
		"{:.table .table-borderless}",
		`<a href="#">Back to Top</a>`,
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q:\n%s", w, out)
		}
	}
}

func TestRender_ListWithoutColumns(t *testing.T) {
	ds := New(Options[sphereRow]{
		Title:  "Notes",
		Format: func(r sphereRow) ([]string, error) { return []string{r.Name}, nil },
	})
	ds.Add(sphereRow{Name: "first"})

	out := render(t, ds)
	if !strings.Contains(out, "- first\n") {
		t.Errorf("expected list item, got:\n%s", out)
	}
	if strings.Contains(out, "table-responsive") {
		t.Errorf("list block must not render a table:\n%s", out)
	}
}

func TestSetColumns_Overrides(t *testing.T) {
	ds := newSphereSet(Options[sphereRow]{})
	ds.SetColumns("A", "B")
	ds.Add(sphereRow{Name: "Rhea"})

	if cols := ds.Table().Columns; strings.Join(cols, ",") != "A,B" {
		t.Errorf("Columns = %v, want [A B]", cols)
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	records := []sphereRow{{"Rhea", 2}, {"Kappa", -1}, {"Rhea", 2}}

	once := newSphereSet(Options[sphereRow]{})
	once.Add(records...)

	twice := newSphereSet(Options[sphereRow]{})
	twice.Add(records...)
	twice.Add(records...)

	if a, b := render(t, once), render(t, twice); a != b {
		t.Errorf("double add changed output:\n%s\n---\n%s", a, b)
	}
	if rows := once.Table().Rows; len(rows) != 2 {
		t.Errorf("expected 2 unique rows, got %d", len(rows))
	}
}

func TestRender_Idempotent(t *testing.T) {
	ds := newSphereSet(Options[sphereRow]{})
	ds.Add(sphereRow{"B", 1}, sphereRow{"A", 1}, sphereRow{"C", 0})

	first := render(t, ds)
	if second := render(t, ds); first != second {
		t.Errorf("render not idempotent")
	}
	rows := ds.Table().Rows
	if rows[0][0] != "C" || rows[1][0] != "A" || rows[2][0] != "B" {
		t.Errorf("unexpected order %v", rows)
	}
}

func TestPipeline_Order(t *testing.T) {
	var stages []string
	ds := New(Options[sphereRow]{
		Title: "Order",
		Filter: func(r sphereRow) bool {
			stages = append(stages, "filter")
			return true
		},
		Dedupe: func(rs []sphereRow) []sphereRow {
			stages = append(stages, "dedupe")
			return rs
		},
		Compare: func(a, b sphereRow) int {
			stages = append(stages, "sort")
			return cmp.Compare(a.Name, b.Name)
		},
		Format: func(r sphereRow) ([]string, error) {
			stages = append(stages, "format")
			return []string{r.Name}, nil
		},
	})
	ds.Add(sphereRow{Name: "b"}, sphereRow{Name: "a"})
	ds.Table()

	order := []string{"filter", "dedupe", "sort", "format"}
	pos := 0
	for _, s := range stages {
		for pos < len(order) && s != order[pos] {
			pos++
		}
		if pos == len(order) {
			t.Fatalf("stage order violated: %v", stages)
		}
	}
}

func TestGroupingDedupe(t *testing.T) {
	ds := newSphereSet(Options[sphereRow]{
		Dedupe: func(rs []sphereRow) []sphereRow {
			sums := map[string]int{}
			var names []string
			for _, r := range rs {
				if _, ok := sums[r.Name]; !ok {
					names = append(names, r.Name)
				}
				sums[r.Name] += r.Buffer
			}
			out := make([]sphereRow, 0, len(names))
			for _, n := range names {
				out = append(out, sphereRow{n, sums[n]})
			}
			return out
		},
	})
	ds.Add(sphereRow{"Rhea", 1}, sphereRow{"Rhea", 1}, sphereRow{"Kappa", 5})

	rows := ds.Table().Rows
	if len(rows) != 2 || rows[0][1] != "2" {
		t.Errorf("grouping dedupe failed: %v", rows)
	}
}

func TestMalformedRecords_Dropped(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ds := newSphereSet(Options[sphereRow]{Logger: logging.NewLoggerFromCore(core)})
	ds.Add(sphereRow{Name: ""}, sphereRow{Name: "Rhea"})

	if ds.Len() != 1 || ds.Dropped() != 1 {
		t.Errorf("Len = %d, Dropped = %d, want 1 and 1", ds.Len(), ds.Dropped())
	}
	if logs.FilterMessage("dropping malformed record").Len() != 1 {
		t.Errorf("expected one warning, got %d", logs.Len())
	}
}

func TestFormatError_DropsRow(t *testing.T) {
	ds := New(Options[sphereRow]{
		Title:   "Broken",
		Columns: []string{"Sphere"},
		Format: func(r sphereRow) ([]string, error) {
			if r.Buffer < 0 {
				return nil, Malformed("negative buffer for %s", r.Name)
			}
			return []string{r.Name}, nil
		},
	})
	ds.Add(sphereRow{"Rhea", 1}, sphereRow{"Kappa", -1})

	rows := ds.Table().Rows
	if len(rows) != 1 || rows[0][0] != "Rhea" {
		t.Errorf("expected only Rhea, got %v", rows)
	}
}

func TestMalformedRecordError(t *testing.T) {
	err := Malformed("missing %s", "faction")
	var mre *MalformedRecordError
	if !errors.As(err, &mre) {
		t.Fatalf("expected *MalformedRecordError, got %T", err)
	}
	if err.Error() != "malformed record: missing faction" {
		t.Errorf("Error() = %q", err.Error())
	}
	mre.Dataset = "Wars"
	if !strings.Contains(err.Error(), `"Wars"`) {
		t.Errorf("Error() should name the data set: %q", err.Error())
	}
}

func TestAnchorID(t *testing.T) {
	tests := map[string]string{
		"Control systems by profit":         "control-systems-by-profit",
		"Best factions to push (flipping)!": "best-factions-to-push-flipping",
		"1st Wars to support":               "st-wars-to-support",
	}
	for in, want := range tests {
		if got := AnchorID(in); got != want {
			t.Errorf("AnchorID(%q) = %q, want %q", in, got, want)
		}
	}
}
