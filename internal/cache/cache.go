// Package cache stores per-system faction data between runs and implements
// the cache-first faction source used by the aggregator.
//
// Two backends share the Store interface: one JSON file per system (the
// historical layout, <dir>/<edsm id>.json) and a SQLite database at
// <dir>/cache.db.
package cache

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/bgsforge/powerstate/internal/galaxy"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrNotCached is returned by Store.Get for unknown systems.
	ErrNotCached = errors.New("not cached")

	// ErrSystemDataUnavailable means neither the network nor the cache
	// produced faction data for a system.
	ErrSystemDataUnavailable = errors.New("system data unavailable")

	// ErrUnknownBackend is returned by OpenStore.
	ErrUnknownBackend = errors.New("unknown cache backend")
)

// UnavailableError is returned when a system has to be skipped.
type UnavailableError struct {
	SystemID int64
	Err      error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("system %d: %v", e.SystemID, ErrSystemDataUnavailable)
	}
	return fmt.Sprintf("system %d: %v: %v", e.SystemID, ErrSystemDataUnavailable, e.Err)
}

func (e *UnavailableError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSystemDataUnavailable}
	}
	return []error{ErrSystemDataUnavailable, e.Err}
}

// Entry is one cached faction payload.
type Entry struct {
	SystemID  int64
	Data      *galaxy.SystemFactions
	FetchedAt time.Time
}

// Age returns how old the entry is at now.
func (e *Entry) Age(now time.Time) time.Duration { return now.Sub(e.FetchedAt) }

// Stats describes the cache contents.
type Stats struct {
	Backend string    `yaml:"backend" json:"backend"`
	Path    string    `yaml:"path" json:"path"`
	Entries int64     `yaml:"entries" json:"entries"`
	Bytes   int64     `yaml:"bytes" json:"bytes"`
	Oldest  time.Time `yaml:"oldest,omitempty" json:"oldest,omitempty"`
	Newest  time.Time `yaml:"newest,omitempty" json:"newest,omitempty"`
}

// Store persists faction payloads by EDSM system id.
type Store interface {
	Get(systemID int64) (*Entry, error)
	Put(systemID int64, data *galaxy.SystemFactions, fetchedAt time.Time) error
	Stats() (*Stats, error)
	Clear() error
	Close() error
	Path() string
}

// Backend names.
const (
	BackendFiles  = "files"
	BackendSQLite = "sqlite"
)

// OpenStore opens the named backend rooted at dir.
func OpenStore(backend, dir string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFiles:
		return OpenFileStore(dir)
	case BackendSQLite:
		return OpenSQLite(dir)
	default:
		return nil, fmt.Errorf("%w: %q (expected files or sqlite)", ErrUnknownBackend, backend)
	}
}
