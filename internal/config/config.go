// Package config loads powerstate.yaml: shared settings plus one section per
// power. The configuration is read once at startup and passed explicitly to
// the components that need it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bgsforge/powerstate/internal/favor"
	"github.com/bgsforge/powerstate/internal/logging"
	"github.com/bgsforge/powerstate/internal/priority"
)

// ConfigFileName is the name of the powerstate configuration file
const ConfigFileName = "powerstate.yaml"

// Config holds all powerstate configuration
type Config struct {
	// Snapshot is the populated systems JSON file.
	Snapshot string                 `yaml:"snapshot"`
	Cache    CacheConfig            `yaml:"cache"`
	API      APIConfig              `yaml:"api"`
	Output   OutputConfig           `yaml:"output"`
	Log      logging.LogConfig      `yaml:"log"`
	Powers   map[string]PowerConfig `yaml:"powers"`

	// dir is the directory of the loaded file; relative paths resolve against it.
	dir string
}

// CacheConfig holds configuration for the per-system faction cache
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	Dir     string        `yaml:"dir"`
	MaxAge  time.Duration `yaml:"max_age"`
}

// APIConfig holds endpoints, credentials and throttling for the web APIs
type APIConfig struct {
	EDSMURL     string `yaml:"edsm_url"`
	EBGSURL     string `yaml:"ebgs_url"`
	TrelloURL   string `yaml:"trello_url"`
	TrelloKey   string `yaml:"trello_key,omitempty"`
	TrelloToken string `yaml:"trello_token,omitempty"`

	RequestsPerSecond float64       `yaml:"requests_per_second"`
	MinWait           time.Duration `yaml:"min_wait"`
	MaxWait           time.Duration `yaml:"max_wait"`
	MaxRetries        int           `yaml:"max_retries"`
	Timeout           time.Duration `yaml:"timeout"`
}

// OutputConfig holds configuration for report output
type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// PowerConfig is everything specific to one power.
type PowerConfig struct {
	Name         string `yaml:"name"`
	Headquarters string `yaml:"headquarters"`
	Icon         string `yaml:"icon,omitempty"`

	// Output and SimpleOutput are file names in the output directory. An
	// empty SimpleOutput disables the simple report.
	Output       string `yaml:"output"`
	SimpleOutput string `yaml:"simple_output,omitempty"`

	FavorableGovernments   []string `yaml:"favorable_governments"`
	UnfavorableGovernments []string `yaml:"unfavorable_governments"`
	AllegianceBlacklist    []string `yaml:"allegiance_blacklist,omitempty"`

	// IgnoredSpheres are never reported on. Defaults to the headquarters.
	IgnoredSpheres []string `yaml:"ignored_spheres,omitempty"`

	Capabilities priority.Capabilities  `yaml:"capabilities"`
	Board        priority.Entries       `yaml:"board,omitempty"`
	Trello       priority.TrelloMapping `yaml:"trello,omitempty"`
}

// Classifier builds the favorability classifier of the power.
func (p PowerConfig) Classifier() *favor.Classifier {
	return favor.New(p.FavorableGovernments, p.UnfavorableGovernments, p.AllegianceBlacklist)
}

// Ignored returns the ignored spheres, defaulting to the headquarters.
func (p PowerConfig) Ignored() []string {
	if len(p.IgnoredSpheres) > 0 {
		return p.IgnoredSpheres
	}
	return []string{p.Headquarters}
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrUnknownPower is returned for a power identifier missing from the config
var ErrUnknownPower = errors.New("unknown power")

// Power returns the configuration of the power with the given identifier.
func (c *Config) Power(id string) (*PowerConfig, error) {
	p, ok := c.Powers[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, fmt.Errorf("%w %q (configured: %s)", ErrUnknownPower, id, strings.Join(c.PowerIDs(), ", "))
	}
	return &p, nil
}

// PowerIDs lists the configured power identifiers in order.
func (c *Config) PowerIDs() []string {
	ids := make([]string, 0, len(c.Powers))
	for id := range c.Powers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve makes a relative path relative to the config file directory.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}

// Load reads powerstate.yaml, searching from workDir up the directory tree.
// If no config is found, returns defaults.
func Load(workDir string) (*Config, error) {
	path, err := FindConfigFile(workDir)
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFromPath(path)
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())
	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		merged.dir = abs
	}

	if err := Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// FindConfigFile locates powerstate.yaml by walking up from startDir.
func FindConfigFile(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		path := filepath.Join(currentDir, ConfigFileName)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// Validate checks that config values are valid.
func Validate(cfg *Config) error {
	if cfg.Snapshot == "" {
		return fmt.Errorf("%w: snapshot must be set", ErrInvalidConfig)
	}
	if !slices.Contains(ValidBackends, cfg.Cache.Backend) {
		return fmt.Errorf("%w: cache.backend must be one of %v, got %q",
			ErrInvalidConfig, ValidBackends, cfg.Cache.Backend)
	}
	if cfg.Cache.MaxAge < 0 {
		return fmt.Errorf("%w: cache.max_age must be non-negative, got %s",
			ErrInvalidConfig, cfg.Cache.MaxAge)
	}
	if !IsValidFormat(cfg.Output.Format) {
		return fmt.Errorf("%w: output.format must be one of %v, got %q",
			ErrInvalidConfig, ValidFormats, cfg.Output.Format)
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	if cfg.API.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: api.requests_per_second must be non-negative, got %f",
			ErrInvalidConfig, cfg.API.RequestsPerSecond)
	}
	if cfg.API.MaxRetries < 0 {
		return fmt.Errorf("%w: api.max_retries must be non-negative, got %d",
			ErrInvalidConfig, cfg.API.MaxRetries)
	}
	if len(cfg.Powers) == 0 {
		return fmt.Errorf("%w: at least one power must be configured", ErrInvalidConfig)
	}
	for _, id := range cfg.PowerIDs() {
		p := cfg.Powers[id]
		if p.Name == "" || p.Headquarters == "" {
			return fmt.Errorf("%w: powers.%s needs name and headquarters", ErrInvalidConfig, id)
		}
		if len(p.FavorableGovernments) == 0 {
			return fmt.Errorf("%w: powers.%s needs favorable_governments", ErrInvalidConfig, id)
		}
		if p.Output == "" {
			return fmt.Errorf("%w: powers.%s needs output", ErrInvalidConfig, id)
		}
		if p.Output == p.SimpleOutput {
			return fmt.Errorf("%w: powers.%s output and simple_output must differ", ErrInvalidConfig, id)
		}
	}
	return nil
}

// SaveDefault writes the default configuration to powerstate.yaml in workDir.
func SaveDefault(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	configPath := filepath.Join(absDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# powerstate configuration\n# Powers are selected with `powerstate report -p <id>`.\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return configPath, nil
}
