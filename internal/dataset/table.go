package dataset

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// NoneMarker replaces the table when no rows survive the pipeline.
const NoneMarker = "NONE"

// Table is a rendered data set, independent of the output format.
type Table struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Icon        string     `yaml:"icon,omitempty" json:"icon,omitempty"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	FilterText  string     `yaml:"filter_text,omitempty" json:"filter_text,omitempty"`
	Columns     []string   `yaml:"columns,omitempty" json:"columns,omitempty"`
	Rows        [][]string `yaml:"rows" json:"rows"`
}

// Block is the type-erased view of a DataSet used when assembling documents.
type Block interface {
	Title() string
	HasRecords() bool
	Table() Table
}

var (
	leadingNonAlpha = regexp.MustCompile(`^[^a-zA-Z]+`)
	anchorStrip     = regexp.MustCompile(`[^a-zA-Z0-9 -]`)
)

// AnchorID derives the heading anchor used in the table of contents.
func AnchorID(title string) string {
	id := leadingNonAlpha.ReplaceAllString(title, "")
	id = anchorStrip.ReplaceAllString(id, "")
	return strings.ToLower(strings.ReplaceAll(id, " ", "-"))
}

// Render writes b as a kramdown card.
func Render(w io.Writer, b Block) error {
	return b.Table().WriteMarkdown(w)
}

// WriteMarkdown writes the table as a kramdown card block. An empty table
// prints the NONE marker instead of a header.
func (t Table) WriteMarkdown(w io.Writer) error {
	var sb strings.Builder

	sb.WriteString("<div class=\"card bg-darken\" markdown=\"1\">\n")
	icon := ""
	if t.Icon != "" {
		icon = fmt.Sprintf("<img class=\"card-icon\" alt=\"%s\" src=\"%s.svg\"> ", t.Icon, t.Icon)
	}
	fmt.Fprintf(&sb, "### %s%s {#%s}\n", icon, t.Title, t.ID)
	sb.WriteString("{:.card-header}\n")
	sb.WriteString("<div class=\"card-body\" markdown=\"1\">\n")
	if t.Description != "" {
		sb.WriteString(t.Description + "\n\n")
	}
	if t.FilterText != "" {
		sb.WriteString(t.FilterText + "\n\n")
	}

	table := len(t.Columns) > 0
	switch {
	case len(t.Rows) == 0:
		sb.WriteString(NoneMarker + "\n")
	case table:
		sb.WriteString("<div class=\"table-responsive\" markdown=\"1\">\n")
		sb.WriteString("| " + strings.Join(t.Columns, " | ") + "\n")
		sb.WriteString(strings.Repeat("| -", len(t.Columns)) + "\n")
		for _, row := range t.Rows {
			sb.WriteString("| " + strings.Join(row, " | ") + "\n")
		}
		sb.WriteString("{:.table .table-borderless}\n")
		sb.WriteString("</div>\n")
	default:
		for _, row := range t.Rows {
			sb.WriteString("- " + strings.Join(row, " ") + "\n")
		}
	}

	sb.WriteString("\n<div class=\"text-right\"><a href=\"#\">Back to Top</a></div>\n\n")
	sb.WriteString("</div></div>\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write %q: %w", t.Title, err)
	}
	return nil
}
