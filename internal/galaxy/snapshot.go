package galaxy

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/agnivade/levenshtein"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrFatalInput marks failures that make any report meaningless.
var ErrFatalInput = errors.New("fatal input error")

// ErrSystemNotFound is returned when a named system is not in the snapshot.
var ErrSystemNotFound = errors.New("system not found")

// FatalInputError describes a missing or corrupt base snapshot.
type FatalInputError struct {
	Path string
	Err  error
}

func (e *FatalInputError) Error() string {
	return fmt.Sprintf("load snapshot %s: %v", e.Path, e.Err)
}

func (e *FatalInputError) Unwrap() []error { return []error{ErrFatalInput, e.Err} }

// Snapshot is the loaded set of populated systems.
type Snapshot struct {
	Systems []*System
	byName  map[string]*System
}

// rawSystem accepts the alternative external id key used by some dumps.
type rawSystem struct {
	System
	ExternalIDAlt int64 `json:"externalId"`
}

// LoadSnapshot reads a JSON array of systems. Every failure is a *FatalInputError.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &FatalInputError{Path: path, Err: err}
	}

	var raw []rawSystem
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &FatalInputError{Path: path, Err: fmt.Errorf("parse systems: %w", err)}
	}
	if len(raw) == 0 {
		return nil, &FatalInputError{Path: path, Err: errors.New("snapshot contains no systems")}
	}

	systems := make([]*System, 0, len(raw))
	for i := range raw {
		sys := raw[i].System
		if sys.ExternalID == 0 {
			sys.ExternalID = raw[i].ExternalIDAlt
		}
		systems = append(systems, &sys)
	}
	return NewSnapshot(systems), nil
}

// NewSnapshot indexes systems by name and computes their locations.
func NewSnapshot(systems []*System) *Snapshot {
	s := &Snapshot{Systems: systems, byName: make(map[string]*System, len(systems))}
	for _, sys := range systems {
		sys.Locate()
		s.byName[strings.ToLower(sys.Name)] = sys
	}
	return s
}

// Find looks a system up by case-insensitive name. The error suggests the
// closest known name when there is no exact match.
func (s *Snapshot) Find(name string) (*System, error) {
	if sys, ok := s.byName[strings.ToLower(name)]; ok {
		return sys, nil
	}
	if suggestion := s.closest(name); suggestion != "" {
		return nil, fmt.Errorf("%w: %q (did you mean %q?)", ErrSystemNotFound, name, suggestion)
	}
	return nil, fmt.Errorf("%w: %q", ErrSystemNotFound, name)
}

func (s *Snapshot) closest(name string) string {
	target := strings.ToLower(name)
	best, bestDist := "", len(target)/2+1
	for _, sys := range s.Systems {
		d := levenshtein.ComputeDistance(target, strings.ToLower(sys.Name))
		if d < bestDist {
			best, bestDist = sys.Name, d
		}
	}
	return best
}

// PowerSystems splits the power's systems into control (including the home
// system) and exploited systems, keeping snapshot order.
func (s *Snapshot) PowerSystems(power string) (control, exploited []*System) {
	for _, sys := range s.Systems {
		if !sys.SamePower(power) {
			continue
		}
		switch sys.PowerState {
		case StateControl, StateHomeSystem:
			control = append(control, sys)
		case StateExploited:
			exploited = append(exploited, sys)
		}
	}
	return control, exploited
}
