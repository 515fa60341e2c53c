package report

import (
	"strings"
	"testing"
	"time"

	"github.com/bgsforge/powerstate/internal/priority"
)

func writeDocument(t *testing.T, d *Document) string {
	t.Helper()
	var sb strings.Builder
	if err := d.WriteMarkdown(&sb); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	return sb.String()
}

func TestSet_SimpleOmitsEmptyOptionalBlocks(t *testing.T) {
	s := NewSet(testContext())
	s.SimpleWars.Add(WarRecord{
		Faction: faction(1, "Fighter", 0.3), System: system("S", 1),
		Control: sphere("Rhea", -1, 0.4, 1), Role: RoleAttacking, Priority: priority.TierTop,
	})

	doc := s.Simple(Preamble{Power: "Aisling Duval", AdvancedLink: "advanced.html"})
	blocks := doc.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("expected sphere list and wars, got %d blocks", len(blocks))
	}
	if blocks[0].Title() != "Control systems to focus on" {
		t.Errorf("first block = %q", blocks[0].Title())
	}

	out := writeDocument(t, doc)
	if !strings.Contains(out, "This is the simple report") || !strings.Contains(out, "[click here](advanced.html)") {
		t.Errorf("simple preamble missing:\n%s", out)
	}
	if strings.Contains(out, "Recommended stations") {
		t.Error("empty optional block was rendered")
	}
	if !strings.Contains(out, "{#control-systems-to-focus-on}") || !strings.Contains(out, "\nNONE\n") {
		t.Error("mandatory empty block should render with NONE")
	}
}

func TestSet_AdvancedRendersAllBlocks(t *testing.T) {
	s := NewSet(testContext())
	s.SetTotals(Totals{Income: 100, Upkeep: 40, Overheads: 20})

	doc := s.Advanced(Preamble{
		Power:          "Aisling Duval",
		Icon:           "aisling.png",
		GeneratedAt:    testNow,
		LastTick:       testNow.Add(-3 * time.Hour),
		SimpleLink:     "index.html",
		PriorityToggle: true,
	})
	if len(doc.Blocks()) != 13 {
		t.Errorf("advanced document should keep every block, got %d", len(doc.Blocks()))
	}

	out := writeDocument(t, doc)
	for _, want := range []string{
		"# Aisling Duval Report\n{:.no_toc .text-center}",
		`src="aisling.png"`,
		"Last BGS tick:",
		"[click here](index.html)",
		`id="hide-no-prio"`,
		"* TOC Entry\n{:toc}",
		"**Totals:** Income 100 CC",
		"Warring favorable factions",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("advanced document missing %q", want)
		}
	}
	if strings.Index(out, "Warring favorable factions") > strings.Index(out, "Control systems by profit") {
		t.Error("wars should precede profit")
	}
}

func TestPreamble_NoSimpleLink(t *testing.T) {
	out := writeDocument(t, NewSet(testContext()).Advanced(Preamble{Power: "Felicia Winters"}))
	if strings.Contains(out, "simple report for players") || strings.Contains(out, "Last BGS tick") {
		t.Errorf("unexpected optional preamble parts:\n%s", out)
	}
}
