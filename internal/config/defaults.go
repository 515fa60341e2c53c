package config

import (
	"slices"
	"strings"
	"time"

	"github.com/bgsforge/powerstate/internal/logging"
	"github.com/bgsforge/powerstate/internal/priority"
)

// DefaultConfig returns configuration with sensible defaults.
// These defaults are used when no config file exists or when
// config file is missing specific fields.
func DefaultConfig() *Config {
	return &Config{
		Snapshot: "data/systems_populated.json",
		Cache: CacheConfig{
			Backend: "files",
			Dir:     "data/edsm_cache",
			MaxAge:  6 * time.Hour,
		},
		API: APIConfig{
			EDSMURL:    "https://www.edsm.net/api-system-v1",
			EBGSURL:    "https://elitebgs.app/api/ebgs/v5",
			TrelloURL:  "https://api.trello.com/1",
			MinWait:    10 * time.Second,
			MaxWait:    60 * time.Second,
			MaxRetries: 5,
			Timeout:    30 * time.Second,
		},
		Output: OutputConfig{
			Dir:    "html",
			Format: "markdown",
		},
		Log: logging.LogConfig{
			Level:  "info",
			Format: "console",
		},
		Powers: map[string]PowerConfig{
			"aisling": {
				Name:                   "Aisling Duval",
				Headquarters:           "Cubeo",
				Output:                 "advanced.html",
				SimpleOutput:           "index.html",
				FavorableGovernments:   []string{"cooperative", "confederacy", "communism"},
				UnfavorableGovernments: []string{"feudal", "prison colony", "theocracy"},
				AllegianceBlacklist:    []string{"empire"},
				Capabilities: priority.Capabilities{
					PriorityColumns: true,
					SimpleReport:    true,
					StationDrops:    true,
				},
			},
			"winters": {
				Name:                   "Felicia Winters",
				Headquarters:           "Rhea",
				Output:                 "winters.html",
				FavorableGovernments:   []string{"corporate"},
				UnfavorableGovernments: []string{"feudal", "patronage", "communism", "cooperative"},
			},
		},
	}
}

// Merge merges loaded config with defaults.
// Values from loaded config take precedence over defaults.
// Returns a new Config with merged values.
func Merge(loaded, defaults *Config) *Config {
	result := &Config{}

	result.Snapshot = orString(loaded.Snapshot, defaults.Snapshot)
	result.Cache = mergeCacheConfig(loaded.Cache, defaults.Cache)
	result.API = mergeAPIConfig(loaded.API, defaults.API)
	result.Output = OutputConfig{
		Dir:    orString(loaded.Output.Dir, defaults.Output.Dir),
		Format: strings.ToLower(orString(loaded.Output.Format, defaults.Output.Format)),
	}
	result.Log = logging.LogConfig{
		Level:  orString(loaded.Log.Level, defaults.Log.Level),
		Format: orString(loaded.Log.Format, defaults.Log.Format),
	}

	// Powers are replaced as a whole, a file with its own powers does not
	// inherit the built-in ones.
	powers := defaults.Powers
	if len(loaded.Powers) > 0 {
		powers = loaded.Powers
	}
	result.Powers = make(map[string]PowerConfig, len(powers))
	for id, p := range powers {
		result.Powers[strings.ToLower(id)] = p
	}
	return result
}

func orString(loaded, def string) string {
	if loaded != "" {
		return loaded
	}
	return def
}

func mergeCacheConfig(loaded, defaults CacheConfig) CacheConfig {
	result := CacheConfig{
		Backend: strings.ToLower(orString(loaded.Backend, defaults.Backend)),
		Dir:     orString(loaded.Dir, defaults.Dir),
		MaxAge:  loaded.MaxAge,
	}
	if loaded.MaxAge == 0 {
		result.MaxAge = defaults.MaxAge
	}
	return result
}

func mergeAPIConfig(loaded, defaults APIConfig) APIConfig {
	result := APIConfig{
		EDSMURL:     orString(loaded.EDSMURL, defaults.EDSMURL),
		EBGSURL:     orString(loaded.EBGSURL, defaults.EBGSURL),
		TrelloURL:   orString(loaded.TrelloURL, defaults.TrelloURL),
		TrelloKey:   loaded.TrelloKey,
		TrelloToken: loaded.TrelloToken,

		// RequestsPerSecond 0 means unthrottled, so it is taken as is
		RequestsPerSecond: loaded.RequestsPerSecond,
		MinWait:           loaded.MinWait,
		MaxWait:           loaded.MaxWait,
		MaxRetries:        loaded.MaxRetries,
		Timeout:           loaded.Timeout,
	}
	if result.MinWait == 0 {
		result.MinWait = defaults.MinWait
	}
	if result.MaxWait == 0 {
		result.MaxWait = defaults.MaxWait
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}
	if result.Timeout == 0 {
		result.Timeout = defaults.Timeout
	}
	return result
}

// ValidFormats lists the valid values for output format
var ValidFormats = []string{"markdown", "yaml", "json", "xlsx"}

// ValidBackends lists the valid values for cache backend
var ValidBackends = []string{"files", "sqlite"}

// IsValidFormat checks if the given format value is valid
func IsValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
