// Package report defines the record types and data set variants of a power
// report and assembles them into advanced and simple documents.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bgsforge/powerstate/internal/dataset"
)

// Kind selects one of the two documents of a report.
type Kind string

const (
	// KindAdvanced is the full report with blacklist filters only.
	KindAdvanced Kind = "advanced"

	// KindSimple lists priority spheres for players.
	KindSimple Kind = "simple"
)

func (k Kind) String() string { return string(k) }

// ParseKind parses a document kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "advanced":
		return KindAdvanced, nil
	case "simple":
		return KindSimple, nil
	default:
		return "", fmt.Errorf("invalid report kind: %q (expected advanced or simple)", s)
	}
}

// Preamble is the document header.
type Preamble struct {
	Power       string
	Icon        string
	GeneratedAt time.Time

	// LastTick is omitted when zero.
	LastTick time.Time

	// AdvancedLink and SimpleLink are the file names of the two documents.
	// An empty SimpleLink means there is no simple document.
	AdvancedLink string
	SimpleLink   string

	// PriorityToggle adds the "hide entries without fortification priority" switch.
	PriorityToggle bool
}

// Section is a block of a document. Optional sections are left out when
// their data set has no records.
type Section struct {
	Block    dataset.Block
	Optional bool
}

// Document is a rendered report.
type Document struct {
	Kind     Kind
	Preamble Preamble
	Sections []Section
}

// Blocks returns the blocks that will be written.
func (d *Document) Blocks() []dataset.Block {
	var out []dataset.Block
	for _, s := range d.Sections {
		if s.Optional && !s.Block.HasRecords() {
			continue
		}
		out = append(out, s.Block)
	}
	return out
}

func timeago(t time.Time) string {
	stamp := t.UTC().Format(time.RFC3339)
	return fmt.Sprintf(`<u><em class="timeago" datetime="%s" data-toggle="tooltip" title="%s"></em></u>`, stamp, stamp)
}

func (d *Document) writePreamble(sb *strings.Builder) {
	p := d.Preamble
	fmt.Fprintf(sb, "# %s Report\n", p.Power)
	sb.WriteString("{:.no_toc .text-center}\n")
	if p.Icon != "" {
		fmt.Fprintf(sb, "<p class=\"text-center\"><img alt=\"%s\" src=\"%s\" width=\"200\" height=\"200\"></p>\n", p.Power, p.Icon)
	}
	fmt.Fprintf(sb, "<p class=\"text-center\">Generated: %s", timeago(p.GeneratedAt))
	if !p.LastTick.IsZero() {
		fmt.Fprintf(sb, "<br>Last BGS tick: %s", timeago(p.LastTick))
	}
	sb.WriteString("</p>\n")

	sb.WriteString("<p class=\"text-center\" markdown=\"1\">\n")
	if d.Kind == KindSimple {
		sb.WriteString("This is the simple report, based on priority targets and intended to help focus our BGS efforts.\\\\\n")
		fmt.Fprintf(sb, "For an unfiltered, advanced report [click here](%s).\n", p.AdvancedLink)
	} else {
		sb.WriteString("This is the advanced report with only limited filters and priorities, intended for full information and overview.\n")
		if p.SimpleLink != "" {
			fmt.Fprintf(sb, "<br>For the simple report for players [click here](%s).\n", p.SimpleLink)
		}
		if p.PriorityToggle {
			sb.WriteString("<br><br><input id=\"hide-no-prio\" type=\"checkbox\" checked><label for=\"hide-no-prio\">Hide entries without fortification priority</label>\n")
		}
	}
	sb.WriteString("</p>\n\n")

	sb.WriteString("<div class=\"card bg-darken\">\n")
	sb.WriteString("  <h3 class=\"card-header\">Table of Contents</h3>\n")
	sb.WriteString("  <div class=\"card-body\" markdown=\"1\">\n")
	sb.WriteString("* TOC Entry\n{:toc}\n")
	sb.WriteString("  </div>\n</div>\n\n")
}

// WriteMarkdown writes the preamble followed by every visible block.
func (d *Document) WriteMarkdown(w io.Writer) error {
	var sb strings.Builder
	d.writePreamble(&sb)
	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write preamble: %w", err)
	}
	for _, b := range d.Blocks() {
		if err := dataset.Render(w, b); err != nil {
			return err
		}
	}
	return nil
}
