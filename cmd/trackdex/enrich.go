package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"trackdex/internal/enrich"
	"trackdex/internal/logger"
	"trackdex/internal/progress"
	"trackdex/internal/ratelimit"
	"trackdex/internal/shutdown"
	"trackdex/internal/store"
)

var workersFlag int

var enrichCmd = &cobra.Command{
	Use:   "enrich <artist>",
	Short: "Enrich every stored track of an artist",
	Long: `Runs the enrichment pipeline over every stored track of the given
artist, querying the configured providers in priority order and saving
the merged results back to the database.

Examples:
  trackdex enrich Josman
  trackdex enrich "Laylow" --workers 3`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)
	enrichCmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "concurrent workers (overrides the config file)")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if workersFlag > 0 {
		cfg.Workers = workersFlag
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
	}

	sh := shutdown.New()
	sh.Listen()

	log := newLogger(cfg)
	defer log.Close()

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	artist := args[0]
	tracks, err := st.LoadByArtist(sh.Context(), artist)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no tracks found for artist %q, add some with 'trackdex add'", artist)
		}
		return err
	}
	log.Info("Enriching %d tracks by %s", len(tracks), artist)

	orch := enrich.NewOrchestrator(buildProviders(cfg, log), cfg.Pipeline(), ratelimit.New(), log)
	runner := enrich.NewRunner(orch, log)
	runner.SetWorkers(cfg.Workers)

	var bar *progress.Bar
	if cfg.Verbose {
		runner.OnProgress(func(processed, total int, label string) {
			log.Debug("[%d/%d] %s", processed, total, label)
		})
	} else {
		bar = progress.New(len(tracks))
		log.SetProgressBar(true)
		runner.OnProgress(func(processed, total int, label string) {
			bar.Set(processed, label)
		})
	}

	stats := runner.Run(sh.Context(), tracks)

	if bar != nil {
		bar.Finish()
		log.SetProgressBar(false)
	}

	// Save with a fresh context so an interrupt does not lose the
	// tracks already enriched.
	saved := 0
	for _, t := range tracks {
		if err := st.Save(context.Background(), t); err != nil {
			log.Error("Failed to save %q: %v", t.Title, err)
			continue
		}
		saved++
	}

	printStats(log, stats, saved)

	if sh.Context().Err() != nil {
		log.Warn("Enrichment interrupted, partial results saved")
		return nil
	}

	log.Info("=== Enrichment completed ===")
	return nil
}

func printStats(log *logger.Logger, stats *enrich.BatchStats, saved int) {
	log.Info("Processed %d tracks in %s (%d saved)", stats.Processed, stats.Elapsed.Round(time.Millisecond), saved)
	log.Info("Complete: %d  Partial: %d  Unenriched: %d",
		len(stats.Complete), len(stats.Partial), len(stats.Unenriched))

	names := make([]string, 0, len(stats.PerProvider))
	for name := range stats.PerProvider {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := stats.PerProvider[name]
		log.Info("  %-15s attempted=%d succeeded=%d not_found=%d failed=%d",
			name, t.Attempted, t.Succeeded, t.NotFound, t.Failed)
	}

	for title, msg := range stats.Errors {
		log.Warn("Track %q failed: %s", title, msg)
	}
}
