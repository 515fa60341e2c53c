package priority

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/bgsforge/powerstate/internal/api"
)

type fakeCards map[string][]api.Card

func (f fakeCards) BoardCards(_ context.Context, boardID string) ([]api.Card, error) {
	cards, ok := f[boardID]
	if !ok {
		return nil, errors.New("no such board")
	}
	return cards, nil
}

func testMapping() TrelloMapping {
	return TrelloMapping{
		ConfigBoard:          "cfg",
		PriorityList:         "prio",
		PriorityLabels:       Labels{Top: "l-top", High: "l-high", Low: "l-low"},
		BlacklistList:        "black",
		DoNotFortifyLabel:    "l-dnf",
		ManagedByOthersLabel: "l-other",
		FortBoard:            "fort",
		FortList:             "forts",
		FortLabels:           Labels{Top: "f-top", High: "f-higher", Low: "f-high"},
		OrdersList:           "orders",
	}
}

func TestLoadTrello(t *testing.T) {
	src := fakeCards{
		"cfg": {
			{Name: "Rhea", IDList: "prio", IDLabels: []string{"l-low", "l-top"}},
			{Name: "Kappa", IDList: "prio", IDLabels: []string{"l-high"}},
			{Name: "Unlabeled", IDList: "prio"},
			{Name: "Mbutas", IDList: "black", IDLabels: []string{"l-dnf"}},
			{Name: "Guathiti", IDList: "black", IDLabels: []string{"l-other"}},
		},
		"fort": {
			{Name: "Rhea - needs 2000 merits", IDList: "forts", IDLabels: []string{"f-higher"}},
			{Name: "Kappa", IDList: "forts", IDLabels: []string{"f-top"}},
			{Name: "General orders", IDList: "orders"},
			{Name: DefaultDoNotFortifyMarker, IDList: "orders"},
			{Name: "Vaka", IDList: "orders"},
			{Name: "Mbutas", IDList: "orders"},
			{Name: "!!! END !!!", IDList: "orders"},
			{Name: "After section", IDList: "orders"},
		},
	}

	e, err := LoadTrello(context.Background(), src, testMapping())
	if err != nil {
		t.Fatalf("LoadTrello: %v", err)
	}

	if e.Priorities["Rhea"] != 1 || e.Priorities["Kappa"] != 2 {
		t.Errorf("Priorities = %v", e.Priorities)
	}
	if _, ok := e.Priorities["Unlabeled"]; ok {
		t.Error("unlabeled card should have no priority")
	}
	if e.FortPriorities["Rhea"] != 2 || e.FortPriorities["Kappa"] != 1 {
		t.Errorf("FortPriorities = %v", e.FortPriorities)
	}
	if want := []string{"Mbutas", "Vaka"}; !slices.Equal(e.DoNotFortify, want) {
		t.Errorf("DoNotFortify = %v, want %v", e.DoNotFortify, want)
	}
	if want := []string{"Guathiti"}; !slices.Equal(e.ManagedByOthers, want) {
		t.Errorf("ManagedByOthers = %v, want %v", e.ManagedByOthers, want)
	}
}

func TestLoadTrello_BoardError(t *testing.T) {
	m := testMapping()
	m.FortBoard = "missing"
	if _, err := LoadTrello(context.Background(), fakeCards{"cfg": nil}, m); err == nil {
		t.Fatal("expected error for missing board")
	}
}

func TestTrelloMapping_Enabled(t *testing.T) {
	if (TrelloMapping{}).Enabled() {
		t.Error("zero mapping should be disabled")
	}
	if !testMapping().Enabled() {
		t.Error("configured mapping should be enabled")
	}
}

func TestSphereName(t *testing.T) {
	tests := map[string]string{
		"Rhea - needs merits": "Rhea",
		"LHS 1234":            "LHS 1234",
		"Col 285 Sector AB-C": "Col 285 Sector AB-C",
		"  Kappa  -  x":       "Kappa",
	}
	for in, want := range tests {
		if got := sphereName(in); got != want {
			t.Errorf("sphereName(%q) = %q, want %q", in, got, want)
		}
	}
}
