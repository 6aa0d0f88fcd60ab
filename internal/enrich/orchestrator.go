package enrich

import (
	"context"
	"fmt"

	"trackdex/internal/logger"
	"trackdex/internal/music"
	"trackdex/internal/ratelimit"
)

// DefaultDurationTolerance is the spread, in seconds, within which two
// reported durations count as the same.
const DefaultDurationTolerance = 2

// Config is the pipeline policy. Priorities and thresholds live here,
// not in provider code: a new source is added by registering an adapter
// and naming it in a priority list.
type Config struct {
	// ProviderPriority orders provider names per field group, best first.
	ProviderPriority map[FieldGroup][]string

	// ConfidenceThresholds sets the per-field minimum confidence a
	// candidate needs to overwrite an existing value.
	ConfidenceThresholds map[music.FieldKey]float64

	// ProviderOverrides replaces a threshold for one provider only.
	ProviderOverrides map[string]map[music.FieldKey]float64

	// FirstWriteGated lists fields whose threshold applies even to the
	// first write. Everything else accepts the first good source as is.
	FirstWriteGated []music.FieldKey

	// DurationToleranceSec defaults to DefaultDurationTolerance when zero.
	DurationToleranceSec int

	// MaxProvidersPerGroup caps attempts per group; zero means unlimited.
	MaxProvidersPerGroup int

	// MinTrust is the provenance confidence a field needs for its group
	// to count as satisfied.
	MinTrust float64
}

// TrackStatus summarizes how far a track got in one pass.
type TrackStatus string

const (
	StatusComplete   TrackStatus = "complete"
	StatusPartial    TrackStatus = "partial"
	StatusUnenriched TrackStatus = "unenriched"
)

// ProviderTally counts one provider's outcomes.
type ProviderTally struct {
	Attempted int
	Succeeded int
	NotFound  int
	Failed    int
}

func (t *ProviderTally) add(other *ProviderTally) {
	t.Attempted += other.Attempted
	t.Succeeded += other.Succeeded
	t.NotFound += other.NotFound
	t.Failed += other.Failed
}

// TrackReport is the outcome of one enrichment pass over one track.
type TrackReport struct {
	Status        TrackStatus
	FieldsWritten int
	CreditsAdded  int
	PerProvider   map[string]*ProviderTally
}

func (r *TrackReport) tally(provider string) *ProviderTally {
	t, ok := r.PerProvider[provider]
	if !ok {
		t = &ProviderTally{}
		r.PerProvider[provider] = t
	}
	return t
}

// Orchestrator runs the per-track pipeline: for each unsatisfied field
// group it tries providers in priority order, throttled and fault
// isolated, and routes every result through the resolver.
type Orchestrator struct {
	providers map[string]Provider
	resolver  *Resolver
	limiter   *ratelimit.Limiter
	cfg       Config
	log       *logger.Logger
}

// NewOrchestrator wires the pipeline. Providers not named in any
// priority list are never called.
func NewOrchestrator(providers []Provider, cfg Config, limiter *ratelimit.Limiter, log *logger.Logger) *Orchestrator {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	for group, names := range cfg.ProviderPriority {
		for _, name := range names {
			p, ok := byName[name]
			if !ok {
				continue
			}
			if !covers(p, group) {
				log.Warn("provider %s is prioritized for %s but does not declare that group", name, group)
			}
		}
	}
	return &Orchestrator{
		providers: byName,
		resolver:  NewResolver(cfg, log),
		limiter:   limiter,
		cfg:       cfg,
		log:       log,
	}
}

// EnrichTrack runs one pass over the track. A provider failure moves the
// pipeline to the next provider; only context cancellation returns an
// error, and the report still reflects whatever was merged before it.
func (o *Orchestrator) EnrichTrack(ctx context.Context, t *music.Track) (*TrackReport, error) {
	report := &TrackReport{PerProvider: make(map[string]*ProviderTally)}
	view := ViewOf(t)

	for _, group := range AllGroups {
		names := o.cfg.ProviderPriority[group]
		if len(names) == 0 {
			continue
		}
		if o.groupSatisfied(t, group) {
			o.log.Debug("skipping %s providers for %q: group already satisfied", group, t.Title)
			continue
		}

		tried := 0
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				report.Status = o.status(t)
				return report, err
			}
			if o.cfg.MaxProvidersPerGroup > 0 && tried >= o.cfg.MaxProvidersPerGroup {
				break
			}

			p, ok := o.providers[name]
			if !ok {
				o.log.Debug("no adapter registered for %q, skipping", name)
				continue
			}

			if err := o.limiter.Acquire(ctx, p.Name(), p.RateLimit()); err != nil {
				report.Status = o.status(t)
				return report, err
			}
			tried++

			tally := report.tally(p.Name())
			tally.Attempted++

			out := o.attempt(ctx, p, view)
			switch out.Kind {
			case OutcomeFailed:
				tally.Failed++
				o.log.Warn("%s failed on %q: %s", p.Name(), t.Title, out.Reason)
			case OutcomeNotFound:
				tally.NotFound++
				o.log.Debug("%s has no match for %q", p.Name(), t.Title)
			case OutcomeEnriched:
				tally.Succeeded++
				res := o.resolver.Apply(t, p, out)
				report.FieldsWritten += res.FieldsWritten
				report.CreditsAdded += res.CreditsAdded
			}

			if o.groupSatisfied(t, group) {
				break
			}
		}
	}

	report.Status = o.status(t)
	return report, nil
}

func covers(p Provider, group FieldGroup) bool {
	for _, g := range p.Groups() {
		if g == group {
			return true
		}
	}
	return false
}

// attempt isolates the adapter call: a panicking provider becomes a
// Failed outcome instead of taking the batch down.
func (o *Orchestrator) attempt(ctx context.Context, p Provider, view TrackView) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Failed(fmt.Sprintf("provider panicked: %v", r))
		}
	}()
	return p.Attempt(ctx, view)
}

// groupSatisfied reports whether a group needs no further providers.
func (o *Orchestrator) groupSatisfied(t *music.Track, group FieldGroup) bool {
	if group == GroupCredits {
		return t.HasCompleteCredits()
	}
	for _, key := range groupFields[group] {
		prov, ok := t.Provenance[key]
		if !ok || prov.Confidence < o.cfg.MinTrust {
			return false
		}
	}
	return true
}

func (o *Orchestrator) status(t *music.Track) TrackStatus {
	complete := true
	for _, group := range AllGroups {
		if len(o.cfg.ProviderPriority[group]) == 0 {
			continue
		}
		if !o.groupSatisfied(t, group) {
			complete = false
			break
		}
	}
	if complete {
		return StatusComplete
	}
	if len(t.Provenance) > 0 || len(t.Credits) > 0 {
		return StatusPartial
	}
	return StatusUnenriched
}
