// Package commands implements refbench's CLI command handlers.
package commands

import (
	"fmt"
	"io"
	"log"
	"net/http/httptest"
	"time"

	"github.com/spf13/cobra"

	"github.com/vp8lrefine/backref/internal/config"
	"github.com/vp8lrefine/backref/internal/lossless"
	"github.com/vp8lrefine/backref/internal/metrics"
	"github.com/vp8lrefine/backref/internal/report"
	"github.com/vp8lrefine/backref/internal/synth"
)

// RunCommand drives one or more synthetic refinement passes and reports
// their statistics.
type RunCommand struct {
	configPath string
	width      int
	height     int
	cacheBits  int
	quality    int
	pattern    string
	seed       int64
	format     string
	silent     bool
	metricsOn  bool
}

// NewRunCommand builds the "run" subcommand.
func NewRunCommand() *cobra.Command {
	rc := &RunCommand{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Refine backward references over a synthetic pixel buffer",
		Long:  "Generate a synthetic image, seed it with a greedy LZ77 pass, then run cost-optimal refinement and report the result.",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.configPath, "config", "", "Explicit config file path (default: ./.refbench.yaml or $HOME/.refbench.yaml)")
	cmd.Flags().IntVar(&rc.width, "width", 0, "Image width (0 = config default)")
	cmd.Flags().IntVar(&rc.height, "height", 0, "Image height (0 = config default)")
	cmd.Flags().IntVar(&rc.cacheBits, "cache-bits", -1, "Color cache bits, 0 disables (-1 = config default)")
	cmd.Flags().IntVar(&rc.quality, "quality", 0, "Match-finder quality 0-100 (0 = config default)")
	cmd.Flags().StringVar(&rc.pattern, "pattern", "", "Synthetic pattern: gradient, palette, noise (empty = config default)")
	cmd.Flags().Int64Var(&rc.seed, "seed", 0, "Deterministic RNG seed (0 = config default)")
	cmd.Flags().StringVar(&rc.format, "format", "", "Output format: text, json (empty = config default)")
	cmd.Flags().BoolVar(&rc.silent, "silent", false, "Disable progress output")
	cmd.Flags().BoolVar(&rc.metricsOn, "metrics", false, "Print a Prometheus exposition dump of the run's counters")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rc.configPath)
	if err != nil {
		return err
	}
	rc.applyOverrides(cfg)

	restore := suppressStandardLogger(rc.silent)
	defer restore()

	out := cmd.OutOrStdout()
	progress := cmd.ErrOrStderr()

	rc.progressf(progress, "generating pattern=%s width=%d height=%d seed=%d", cfg.Pattern, cfg.Width, cfg.Height, cfg.Seed)
	argb := synth.Generate(synth.Pattern(cfg.Pattern), cfg.Width, cfg.Height, cfg.Seed)

	hc := lossless.NewHashChain(len(argb))
	hc.Fill(argb, cfg.Quality, cfg.Width, cfg.Height, false)

	seed := lossless.NewBackwardRefs(len(argb))
	cache := &lossless.ColorCache{}
	lossless.SeedLZ77(cfg.Width, cfg.Height, argb, cfg.CacheBits, hc, cache, seed)
	rc.progressf(progress, "seed pass produced %d tokens", seed.Len())

	collector := metrics.New()

	started := time.Now()
	refined, stats, err := lossless.RefineBackwardReferencesWithStats(cfg.Width, cfg.Height, argb, cfg.CacheBits, hc, seed, collector.IncOverflow)
	duration := time.Since(started)
	if err != nil {
		return fmt.Errorf("refine: %w", err)
	}
	collector.ObserveActiveIntervals(stats.PeakIntervals)
	collector.ObserveDuration(duration.Seconds())
	rc.progressf(progress, "refine pass produced %d tokens in %s", refined.Len(), duration.Round(time.Microsecond))

	run := report.Run{
		Width:          cfg.Width,
		Height:         cfg.Height,
		CacheBits:      cfg.CacheBits,
		SeedTokens:     seed.Len(),
		RefinedTokens:  refined.Len(),
		TotalCostBits:  float64(stats.TotalCostBits) / float64(int64(1)<<lossless.LOG2PrecisionBits),
		PathLength:     refined.Len(),
		PeakIntervals:  stats.PeakIntervals,
		OverflowEvents: int64(stats.Overflows),
		DurationMillis: float64(duration.Microseconds()) / 1000,
	}

	switch cfg.Format {
	case "json":
		if err := report.WriteJSON(out, []report.Run{run}); err != nil {
			return err
		}
	default:
		report.WriteTable(out, []report.Run{run})
	}

	if rc.metricsOn {
		return dumpMetrics(out, collector)
	}
	return nil
}

func (rc *RunCommand) applyOverrides(cfg *config.Config) {
	if rc.width > 0 {
		cfg.Width = rc.width
	}
	if rc.height > 0 {
		cfg.Height = rc.height
	}
	if rc.cacheBits >= 0 {
		cfg.CacheBits = rc.cacheBits
	}
	if rc.quality > 0 {
		cfg.Quality = rc.quality
	}
	if rc.pattern != "" {
		cfg.Pattern = rc.pattern
	}
	if rc.seed != 0 {
		cfg.Seed = rc.seed
	}
	if rc.format != "" {
		cfg.Format = rc.format
	}
}

func (rc *RunCommand) progressf(w io.Writer, format string, args ...any) {
	if rc.silent {
		return
	}
	fmt.Fprintf(w, "progress: "+format+"\n", args...)
}

func suppressStandardLogger(silent bool) func() {
	if !silent {
		return func() {}
	}
	previousWriter := log.Writer()
	previousPrefix := log.Prefix()
	previousFlags := log.Flags()

	log.SetOutput(io.Discard)

	return func() {
		log.SetOutput(previousWriter)
		log.SetPrefix(previousPrefix)
		log.SetFlags(previousFlags)
	}
}

func dumpMetrics(w io.Writer, c *metrics.Collector) error {
	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)
	_, err := w.Write(rec.Body.Bytes())
	return err
}
