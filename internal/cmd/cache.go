package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bgsforge/powerstate/internal/cache"
	"github.com/bgsforge/powerstate/internal/config"
	"github.com/bgsforge/powerstate/internal/output"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the faction cache",
	Long: `Inspect or clear the per-system faction cache.

The backend and directory come from the cache section of powerstate.yaml.

Examples:
  powerstate cache stats
  powerstate cache stats --format json
  powerstate cache clear`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and entry ages",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached system",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

var cacheStatsFormat string

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
	cacheStatsCmd.Flags().StringVar(&cacheStatsFormat, "format", "yaml", "Output format (yaml|json)")
}

// cacheStatsView is the printed form of cache.Stats.
type cacheStatsView struct {
	Backend string `yaml:"backend" json:"backend"`
	Path    string `yaml:"path" json:"path"`
	Entries int64  `yaml:"entries" json:"entries"`
	Size    string `yaml:"size" json:"size"`
	Oldest  string `yaml:"oldest,omitempty" json:"oldest,omitempty"`
	Newest  string `yaml:"newest,omitempty" json:"newest,omitempty"`
}

func newCacheStatsView(s *cache.Stats, now time.Time) cacheStatsView {
	v := cacheStatsView{
		Backend: s.Backend,
		Path:    s.Path,
		Entries: s.Entries,
		Size:    humanize.Bytes(uint64(max(s.Bytes, 0))),
	}
	if !s.Oldest.IsZero() {
		v.Oldest = humanize.RelTime(s.Oldest, now, "ago", "from now")
	}
	if !s.Newest.IsZero() {
		v.Newest = humanize.RelTime(s.Newest, now, "ago", "from now")
	}
	return v
}

func openCache() (cache.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openCacheFor(cfg)
}

func openCacheFor(cfg *config.Config) (cache.Store, error) {
	store, err := cache.OpenStore(cfg.Cache.Backend, cfg.Resolve(cfg.Cache.Dir))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return store, nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(cacheStatsFormat)
	if err != nil {
		return err
	}
	if format != output.FormatYAML && format != output.FormatJSON {
		return fmt.Errorf("cache stats supports yaml or json, not %s", format)
	}

	store, err := openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	return writeCacheStats(cmd.OutOrStdout(), store, format, time.Now())
}

func writeCacheStats(w io.Writer, store cache.Store, format output.Format, now time.Time) error {
	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("read cache stats: %w", err)
	}
	formatter, err := output.GetFormatter(format)
	if err != nil {
		return err
	}
	return formatter.FormatToWriter(w, newCacheStatsView(stats, now))
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	store, err := openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	return clearCache(cmd.OutOrStdout(), store)
}

func clearCache(w io.Writer, store cache.Store) error {
	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("read cache stats: %w", err)
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	fmt.Fprintf(w, "Removed %s cached systems from %s\n", humanize.Comma(stats.Entries), store.Path())
	return nil
}
