package galaxy

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewFlipData(t *testing.T) {
	tests := []struct {
		name                    string
		total, active, possible int
		wantNeeded, wantBuffer  int
		wantState               FlipState
	}{
		{"active sphere", 10, 6, 8, 5, 1, FlipActive},
		{"exactly half", 10, 5, 5, 5, 0, FlipActive},
		{"incomplete sphere", 10, 3, 6, 5, -2, FlipIncomplete},
		{"impossible sphere", 10, 1, 4, 5, -4, FlipImpossible},
		{"odd total", 7, 3, 5, 4, -1, FlipIncomplete},
		{"empty sphere", 0, 0, 0, 0, 0, FlipImpossible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fd := NewFlipData(tt.total, tt.active, tt.possible, 0)
			if fd.Needed != tt.wantNeeded {
				t.Errorf("Needed = %d, want %d", fd.Needed, tt.wantNeeded)
			}
			if fd.Buffer != tt.wantBuffer {
				t.Errorf("Buffer = %d, want %d", fd.Buffer, tt.wantBuffer)
			}
			if fd.Buffer != fd.Active-fd.Needed {
				t.Errorf("Buffer invariant broken: %d != %d-%d", fd.Buffer, fd.Active, fd.Needed)
			}
			if want := int(math.Ceil(float64(tt.total) / 2)); fd.Needed != want {
				t.Errorf("Needed = %d, want ceil(total/2) = %d", fd.Needed, want)
			}
			if got := fd.State(); got != tt.wantState {
				t.Errorf("State = %s, want %s", got, tt.wantState)
			}
		})
	}
}

func TestFlipData_AbsBuffer(t *testing.T) {
	if got := NewFlipData(10, 2, 2, 0).AbsBuffer(); got != 3 {
		t.Errorf("AbsBuffer = %d, want 3", got)
	}
}

func TestFaction_InfluenceAt(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	fac := &Faction{
		Influence: 0.40,
		InfluenceHistory: map[string]float64{
			"1699000000": 0.30,
			"1699300000": 0.35,
			"1699990000": 0.39,
			"garbage":    0.99,
		},
	}

	if got := fac.InfluenceAt(now.Add(-7 * 24 * time.Hour)); got != 0.35 {
		t.Errorf("week-old influence = %v, want 0.35", got)
	}
	if got := fac.InfluenceAt(now.Add(-30 * 24 * time.Hour)); got != 0.40 {
		t.Errorf("no sample before cutoff should fall back to current, got %v", got)
	}
	if got := (&Faction{Influence: 0.2}).InfluenceAt(now); got != 0.2 {
		t.Errorf("empty history should give current influence, got %v", got)
	}
}

func TestFaction_HasState(t *testing.T) {
	fac := &Faction{
		ActiveStates:  []FactionState{{State: "Boom"}},
		PendingStates: []FactionState{{State: "Civil War"}},
	}
	if !fac.HasState("civil war") {
		t.Error("pending state should match case-insensitively")
	}
	if !fac.HasActiveState("boom") {
		t.Error("expected active Boom")
	}
	if fac.HasActiveState("civil war") {
		t.Error("pending state reported as active")
	}
}

func TestSystemFactions_Controller(t *testing.T) {
	a := &Faction{ID: 1, Name: "Alpha", Influence: 0.2}
	b := &Faction{ID: 2, Name: "Beta", Influence: 0.5}
	c := &Faction{ID: 3, Name: "Gamma", Influence: 0}

	explicit := &SystemFactions{ControllingFaction: &FactionRef{ID: 1}, Factions: []*Faction{a, b}}
	if got := explicit.Controller(); got != a {
		t.Errorf("explicit controller = %v, want Alpha", got)
	}

	implicit := &SystemFactions{Factions: []*Faction{a, b, c}}
	if got := implicit.Controller(); got != b {
		t.Errorf("implicit controller = %v, want Beta", got)
	}

	none := &SystemFactions{Factions: []*Faction{c}}
	if got := none.Controller(); got != nil {
		t.Errorf("expected no controller, got %v", got)
	}

	if len(implicit.Present()) != 2 {
		t.Errorf("Present should drop zero-influence factions")
	}
}

func TestSystemFactions_LastUpdate(t *testing.T) {
	sf := &SystemFactions{Factions: []*Faction{{LastUpdate: 100}, {LastUpdate: 300}, {LastUpdate: 200}}}
	if got := sf.LastUpdate(); !got.Equal(time.Unix(300, 0)) {
		t.Errorf("LastUpdate = %v, want unix 300", got)
	}
	if !(&SystemFactions{}).LastUpdate().IsZero() {
		t.Error("expected zero time without factions")
	}
}

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "systems.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestLoadSnapshot(t *testing.T) {
	path := writeSnapshot(t, `[
		{"id": 1, "edsm_id": 11, "name": "Cubeo", "x": 0, "y": 0, "z": 0, "population": 100, "power": "Aisling Duval", "power_state": "Control"},
		{"id": 2, "externalId": 22, "name": "Nearby", "x": 3, "y": 4, "z": 0, "population": 5000, "power": "Aisling Duval", "power_state": "Exploited"},
		{"id": 3, "edsm_id": 33, "name": "Elsewhere", "x": 100, "y": 0, "z": 0, "population": null, "government": null}
	]`)

	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(snap.Systems) != 3 {
		t.Fatalf("expected 3 systems, got %d", len(snap.Systems))
	}

	nearby, err := snap.Find("nearby")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if nearby.ExternalID != 22 {
		t.Errorf("ExternalID = %d, want 22 from externalId key", nearby.ExternalID)
	}
	if nearby.Location.X != 3 || nearby.Location.Y != 4 {
		t.Errorf("Location not populated: %+v", nearby.Location)
	}

	control, exploited := snap.PowerSystems("Aisling Duval")
	if len(control) != 1 || len(exploited) != 1 {
		t.Errorf("PowerSystems = %d control, %d exploited", len(control), len(exploited))
	}

	AnnotateDistances(control[0], control, exploited)
	if nearby.DistToHQ != 5 {
		t.Errorf("DistToHQ = %v, want 5", nearby.DistToHQ)
	}
}

func TestLoadSnapshot_Fatal(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }},
		{"corrupt json", func(t *testing.T) string { return writeSnapshot(t, `[{"id": 1,`) }},
		{"empty array", func(t *testing.T) string { return writeSnapshot(t, `[]`) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSnapshot(tt.path(t))
			if !errors.Is(err, ErrFatalInput) {
				t.Fatalf("expected ErrFatalInput, got %v", err)
			}
			var fie *FatalInputError
			if !errors.As(err, &fie) {
				t.Errorf("expected *FatalInputError, got %T", err)
			}
		})
	}
}

func TestSnapshot_FindSuggestion(t *testing.T) {
	snap := NewSnapshot([]*System{{Name: "Cubeo"}, {Name: "Rhea"}})

	_, err := snap.Find("Cubeu")
	if !errors.Is(err, ErrSystemNotFound) {
		t.Fatalf("expected ErrSystemNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), `did you mean "Cubeo"`) {
		t.Errorf("expected suggestion in %q", err.Error())
	}

	_, err = snap.Find("Completely Different")
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Errorf("unexpected suggestion for distant name: %v", err)
	}
}
