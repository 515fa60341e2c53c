package output

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bgsforge/powerstate/internal/dataset"
	"github.com/bgsforge/powerstate/internal/report"
)

const (
	maxSheetName = 31
	columnWidth  = 24
)

var (
	markdownLink   = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	lineBreak      = regexp.MustCompile(`(?i)<br\s*/?>`)
	htmlTag        = regexp.MustCompile(`<[^>]+>`)
	sheetForbidden = regexp.MustCompile(`[\[\]:*?/\\]`)
)

// PlainText strips Markdown links and HTML from a cell.
func PlainText(cell string) string {
	s := markdownLink.ReplaceAllString(cell, "$1")
	s = lineBreak.ReplaceAllString(s, "\n")
	s = htmlTag.ReplaceAllString(s, "")
	return strings.TrimSpace(strings.ReplaceAll(s, "*", ""))
}

// sheetName makes a valid, unique sheet name from a title. Sheet names are
// compared case-insensitively.
func sheetName(title string, used map[string]bool) string {
	base := strings.TrimSpace(sheetForbidden.ReplaceAllString(title, ""))
	if base == "" {
		base = "Sheet"
	}
	name := truncate(base, maxSheetName)
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncate(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

// XLSXFormatter writes a workbook with one sheet per data set.
type XLSXFormatter struct{}

// NewXLSXFormatter creates a new XLSX formatter.
func NewXLSXFormatter() *XLSXFormatter {
	return &XLSXFormatter{}
}

// Format returns the workbook bytes as a string.
func (f *XLSXFormatter) Format(v interface{}) (string, error) { return formatString(f, v) }

// sheet is one worksheet before it is written.
type sheet struct {
	title  string
	header []string
	rows   [][]string
}

func tableSheet(t dataset.Table) sheet {
	s := sheet{title: t.Title, header: t.Columns}
	if len(s.header) == 0 {
		s.header = []string{t.Title}
	}
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = PlainText(c)
		}
		s.rows = append(s.rows, cells)
	}
	if len(s.rows) == 0 {
		s.rows = [][]string{{dataset.NoneMarker}}
	}
	return s
}

func blockSheets(blocks []dataset.Block) []sheet {
	out := make([]sheet, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, tableSheet(b.Table()))
	}
	return out
}

func summarySheet(s *Summary) sheet {
	sh := sheet{
		title: "Spheres",
		header: []string{"Control System", "Priority", "Fort Priority", "State", "Active", "Possible",
			"Needed", "Buffer", "Total", "Income", "Upkeep", "Overhead", "Profit", "Overlap Income", "From HQ"},
	}
	for _, sp := range s.Spheres {
		sh.rows = append(sh.rows, []string{
			sp.Name, sp.Priority, sp.FortPriority, sp.State,
			fmt.Sprint(sp.Flip.Active), fmt.Sprint(sp.Flip.Possible), fmt.Sprint(sp.Flip.Needed),
			fmt.Sprintf("%+d", sp.Flip.Buffer), fmt.Sprint(sp.Flip.Total),
			fmt.Sprint(sp.Income), fmt.Sprint(sp.Upkeep), fmt.Sprintf("%.1f", sp.Overhead),
			fmt.Sprintf("%.1f", sp.Profit), fmt.Sprint(sp.OverlapIncome), fmt.Sprintf("%.1f", sp.DistToHQ),
		})
	}
	return sh
}

func xlsxSheets(v interface{}) ([]sheet, error) {
	switch x := v.(type) {
	case *Report:
		var sheets []sheet
		if x.Summary != nil {
			sheets = append(sheets, summarySheet(x.Summary))
		}
		return append(sheets, blockSheets(x.Blocks())...), nil
	case *report.Document:
		return blockSheets(x.Blocks()), nil
	case []dataset.Block:
		return blockSheets(x), nil
	default:
		return nil, fmt.Errorf("xlsx formatter does not support type %T", v)
	}
}

// FormatToWriter accepts a *Report, a *report.Document or a slice of blocks.
func (f *XLSXFormatter) FormatToWriter(w io.Writer, v interface{}) error {
	sheets, err := xlsxSheets(v)
	if err != nil {
		return err
	}
	if len(sheets) == 0 {
		return fmt.Errorf("xlsx export: no data sets")
	}

	book := excelize.NewFile()
	defer book.Close()

	used := map[string]bool{}
	for i, sh := range sheets {
		name := sheetName(sh.title, used)
		if i == 0 {
			if err := book.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := book.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeSheet(book, name, sh); err != nil {
			return err
		}
	}
	book.SetActiveSheet(0)

	if err := book.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(book *excelize.File, name string, sh sheet) error {
	rows := append([][]string{sh.header}, sh.rows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := book.SetSheetRow(name, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", name, i+1, err)
		}
	}
	last, err := excelize.ColumnNumberToName(max(len(sh.header), 1))
	if err != nil {
		return err
	}
	if err := book.SetColWidth(name, "A", last, columnWidth); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}
