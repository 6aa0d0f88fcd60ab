package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arunsworld/nursery"

	"trackdex/internal/logger"
	"trackdex/internal/music"
)

// ProgressFunc is called after each processed track. It must tolerate
// being called from worker goroutines; the runner already shields the
// batch from a panicking callback.
type ProgressFunc func(processed, total int, label string)

// BatchStats aggregates one batch run.
type BatchStats struct {
	mu sync.Mutex

	Processed   int
	Elapsed     time.Duration
	PerProvider map[string]*ProviderTally

	Complete   []string
	Partial    []string
	Unenriched []string

	// Errors maps track titles to the message of an unexpected failure.
	Errors map[string]string
}

func newBatchStats() *BatchStats {
	return &BatchStats{
		PerProvider: make(map[string]*ProviderTally),
		Errors:      make(map[string]string),
	}
}

func (s *BatchStats) merge(title string, rep *TrackReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, t := range rep.PerProvider {
		agg, ok := s.PerProvider[name]
		if !ok {
			agg = &ProviderTally{}
			s.PerProvider[name] = agg
		}
		agg.add(t)
	}
	switch rep.Status {
	case StatusComplete:
		s.Complete = append(s.Complete, title)
	case StatusPartial:
		s.Partial = append(s.Partial, title)
	default:
		s.Unenriched = append(s.Unenriched, title)
	}
}

func (s *BatchStats) recordFailure(title, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Unenriched = append(s.Unenriched, title)
	s.Errors[title] = msg
}

func (s *BatchStats) bump() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Processed++
	return s.Processed
}

// Runner drives the orchestrator over a track collection. Sequential by
// default; with workers > 1 tracks are fanned out to a bounded pool, each
// track owned by exactly one worker.
type Runner struct {
	orch       *Orchestrator
	log        *logger.Logger
	workers    int
	onProgress ProgressFunc
}

// NewRunner creates a sequential runner.
func NewRunner(orch *Orchestrator, log *logger.Logger) *Runner {
	return &Runner{orch: orch, log: log, workers: 1}
}

// SetWorkers sets the pool size; values below 2 keep sequential mode.
func (r *Runner) SetWorkers(n int) {
	r.workers = n
}

// OnProgress registers the progress callback.
func (r *Runner) OnProgress(fn ProgressFunc) {
	r.onProgress = fn
}

// Run enriches every track and returns the aggregate stats. Cancellation
// is honoured between tracks; the track being enriched finishes its
// in-flight provider call. A single track blowing up is recorded and the
// batch moves on.
func (r *Runner) Run(ctx context.Context, tracks []*music.Track) *BatchStats {
	stats := newBatchStats()
	start := time.Now()

	if r.workers > 1 {
		r.runPool(ctx, tracks, stats)
	} else {
		for _, t := range tracks {
			if ctx.Err() != nil {
				r.log.Warn("batch cancelled after %d of %d tracks", stats.Processed, len(tracks))
				break
			}
			r.enrichOne(ctx, t, stats)
			r.reportProgress(stats.bump(), len(tracks), t.Title)
		}
	}

	stats.Elapsed = time.Since(start)
	return stats
}

func (r *Runner) runPool(ctx context.Context, tracks []*music.Track, stats *BatchStats) {
	jobs := make(chan *music.Track)

	nursery.RunConcurrentlyWithContext(ctx,
		func(ctx context.Context, _ chan error) {
			defer close(jobs)
			for _, t := range tracks {
				select {
				case jobs <- t:
				case <-ctx.Done():
					return
				}
			}
		},
		func(ctx context.Context, _ chan error) {
			nursery.RunMultipleCopiesConcurrentlyWithContext(ctx, r.workers,
				func(ctx context.Context, _ chan error) {
					for t := range jobs {
						if ctx.Err() != nil {
							return
						}
						r.enrichOne(ctx, t, stats)
						r.reportProgress(stats.bump(), len(tracks), t.Title)
					}
				})
		},
	)
}

// enrichOne runs one track through the orchestrator and folds the report
// into stats. Unexpected panics mark the track unenriched with the
// message attached.
func (r *Runner) enrichOne(ctx context.Context, t *music.Track, stats *BatchStats) {
	defer func() {
		if rec := recover(); rec != nil {
			msg := fmt.Sprintf("%v", rec)
			r.log.Error("unexpected failure enriching %q: %s", t.Title, msg)
			stats.recordFailure(t.Title, msg)
		}
	}()

	report, err := r.orch.EnrichTrack(ctx, t)
	stats.merge(t.Title, report)
	if err != nil {
		r.log.Debug("enrichment of %q stopped early: %v", t.Title, err)
	}
}

func (r *Runner) reportProgress(processed, total int, label string) {
	if r.onProgress == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Debug("progress callback panicked: %v", rec)
		}
	}()
	r.onProgress(processed, total, label)
}
