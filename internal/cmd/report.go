package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bgsforge/powerstate/internal/api"
	"github.com/bgsforge/powerstate/internal/cache"
	"github.com/bgsforge/powerstate/internal/config"
	"github.com/bgsforge/powerstate/internal/galaxy"
	"github.com/bgsforge/powerstate/internal/logging"
	"github.com/bgsforge/powerstate/internal/output"
	"github.com/bgsforge/powerstate/internal/priority"
	"github.com/bgsforge/powerstate/internal/report"
	"github.com/bgsforge/powerstate/internal/sphere"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the BGS report of a power",
	Long: `Generate the background simulation report of one power.

The power identifier is a key under powers in powerstate.yaml, matched
case-insensitively, so "aisling" and "AISLING" select the same power. It
selects the government classification, the priority board and the output
file names. Faction data is served
from the cache while it is younger than cache.max_age and fetched from EDSM
otherwise. Systems without any faction data are skipped with a warning.

Output formats:
  markdown  Advanced document plus the simple document when enabled (default)
  yaml      Per-sphere summary of flip state and economics
  json      Same summary as JSON
  xlsx      Workbook with the summary and one sheet per data set

Examples:
  powerstate report -p aisling
  powerstate report -p aisling --cache-only --no-simple
  powerstate report -p winters --format json -o out/`,
	RunE: runReport,
}

var (
	reportPower     string
	reportCacheOnly bool
	reportFormat    formatFlag
	reportOutput    string
	reportNoSimple  bool
)

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&reportPower, "power", "p", "", "Power identifier from the config, case-insensitive (required)")
	reportCmd.Flags().BoolVar(&reportCacheOnly, "cache-only", false, "Use cached faction data only, never fetch")
	reportCmd.Flags().Var(&reportFormat, "format", "Output format (markdown|yaml|json|xlsx), overrides the config")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Output directory, overrides the config")
	reportCmd.Flags().BoolVar(&reportNoSimple, "no-simple", false, "Skip the simple report")
	_ = reportCmd.MarkFlagRequired("power")
}

// formatFlag is a pflag.Value that validates output formats while parsing.
type formatFlag struct {
	format output.Format
}

var _ pflag.Value = (*formatFlag)(nil)

func (f *formatFlag) String() string { return f.format.String() }

func (f *formatFlag) Set(s string) error {
	format, err := output.ParseFormat(s)
	if err != nil {
		return err
	}
	f.format = format
	return nil
}

func (f *formatFlag) Type() string { return "format" }

// reportOptions are the command line choices of one run.
type reportOptions struct {
	Power     string
	CacheOnly bool
	Format    output.Format
	OutputDir string
	NoSimple  bool
	Now       time.Time
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	opts := reportOptions{
		Power:     reportPower,
		CacheOnly: reportCacheOnly,
		Format:    reportFormat.format,
		OutputDir: reportOutput,
		NoSimple:  reportNoSimple,
		Now:       time.Now(),
	}
	if opts.Format == "" {
		if opts.Format, err = output.ParseFormat(cfg.Output.Format); err != nil {
			return err
		}
	}

	paths, err := generateReport(commandContext(cmd), cfg, log, opts)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
	}
	return nil
}

// generateReport runs the whole pipeline for one power and returns the
// written files.
func generateReport(ctx context.Context, cfg *config.Config, log logging.Logger, opts reportOptions) ([]string, error) {
	power, err := cfg.Power(opts.Power)
	if err != nil {
		return nil, err
	}
	log = log.With(logging.String("power", power.Name))

	snapshotPath := cfg.Resolve(cfg.Snapshot)
	snap, err := galaxy.LoadSnapshot(snapshotPath)
	if err != nil {
		return nil, err
	}
	hq, err := snap.Find(power.Headquarters)
	if err != nil {
		return nil, &galaxy.FatalInputError{Path: snapshotPath, Err: fmt.Errorf("headquarters: %w", err)}
	}
	control, exploited := snap.PowerSystems(power.Name)
	galaxy.AnnotateDistances(hq, control, exploited)
	if len(control) == 0 {
		log.Warn("power has no control systems in snapshot", logging.String("snapshot", snapshotPath))
	}
	log.Info("loaded snapshot",
		logging.Int("systems", len(snap.Systems)),
		logging.Int("control", len(control)),
		logging.Int("exploited", len(exploited)))

	client := api.NewClient(api.Options{
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		MinWait:           cfg.API.MinWait,
		MaxWait:           cfg.API.MaxWait,
		MaxRetries:        cfg.API.MaxRetries,
		Timeout:           cfg.API.Timeout,
		Logger:            log.Named("api"),
	})
	edsm := api.NewEDSM(client, cfg.API.EDSMURL)

	board := loadBoard(ctx, cfg, power, client, opts.CacheOnly, log)

	store, err := cache.OpenStore(cfg.Cache.Backend, cfg.Resolve(cfg.Cache.Dir))
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	var (
		fetcher  cache.Fetcher
		stations sphere.StationSource
	)
	if !opts.CacheOnly {
		fetcher = edsm
		stations = edsm
	}
	source := cache.NewSource(store, fetcher, cache.SourceOptions{
		MaxAge:    cfg.Cache.MaxAge,
		CacheOnly: opts.CacheOnly,
		Logger:    log.Named("cache"),
		Now:       func() time.Time { return opts.Now },
	})

	set := report.NewSet(report.Context{
		Board:        board,
		Capabilities: power.Capabilities,
		Now:          opts.Now,
		Logger:       log.Named("dataset"),
	})
	res, err := sphere.New(sphere.Options{
		Control:      control,
		Exploited:    exploited,
		Factions:     source,
		Stations:     stations,
		Classifier:   power.Classifier(),
		Board:        board,
		Capabilities: power.Capabilities,
		Logger:       log,
		Now:          opts.Now,
	}).Run(ctx, set)
	if err != nil {
		return nil, err
	}

	tick := lastTick(ctx, api.NewEliteBGS(client, cfg.API.EBGSURL), opts.CacheOnly, log)

	pre := report.Preamble{
		Power:          power.Name,
		Icon:           power.Icon,
		GeneratedAt:    opts.Now,
		LastTick:       tick,
		AdvancedLink:   power.Output,
		PriorityToggle: power.Capabilities.PriorityColumns,
	}
	withSimple := power.Capabilities.SimpleReport && power.SimpleOutput != "" && !opts.NoSimple
	if withSimple {
		pre.SimpleLink = power.SimpleOutput
	}

	r := &output.Report{
		Summary:      output.NewSummary(power.Name, opts.Now, tick, res),
		Advanced:     set.Advanced(pre),
		AdvancedFile: power.Output,
	}
	if withSimple {
		r.Simple = set.Simple(pre)
		r.SimpleFile = power.SimpleOutput
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = cfg.Resolve(cfg.Output.Dir)
	}
	return output.Write(dir, opts.Format, r)
}

// loadBoard combines the static board with the project boards. A board
// that cannot be read leaves the static priorities in place.
func loadBoard(ctx context.Context, cfg *config.Config, power *config.PowerConfig, client *api.Client, cacheOnly bool, log logging.Logger) *priority.Board {
	entries := []priority.Entries{power.Board}
	switch {
	case !power.Trello.Enabled():
	case cacheOnly:
		log.Info("cache only, skipping project boards")
	default:
		trello := api.NewTrello(client, cfg.API.TrelloURL, cfg.API.TrelloKey, cfg.API.TrelloToken)
		e, err := priority.LoadTrello(ctx, trello, power.Trello)
		if err != nil {
			log.Warn("project boards unavailable, using configured priorities", logging.Err(err))
			break
		}
		entries = append(entries, e)
	}
	return priority.NewBoard(power.Ignored(), entries...)
}

// lastTick returns the last BGS tick or zero when it is unknown.
func lastTick(ctx context.Context, bgs *api.EliteBGS, cacheOnly bool, log logging.Logger) time.Time {
	if cacheOnly {
		return time.Time{}
	}
	t, err := bgs.LastTick(ctx)
	if err != nil {
		if !errors.Is(err, api.ErrNoTick) {
			log.Warn("last tick unavailable", logging.Err(err))
		}
		return time.Time{}
	}
	return t
}
