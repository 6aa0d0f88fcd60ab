package enrich

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"trackdex/internal/logger"
	"trackdex/internal/music"
)

// Resolver decides, field by field, whether a provider's candidate value
// is written, ignored, or merged. Scalars follow first-good-source-wins:
// overwriting needs a strictly higher-priority source and enough
// confidence. Collections only ever grow.
type Resolver struct {
	priorities  map[FieldGroup][]string
	thresholds  map[music.FieldKey]float64
	overrides   map[string]map[music.FieldKey]float64
	gated       map[music.FieldKey]bool
	durationTol int
	log         *logger.Logger
}

// MergeResult counts what one outcome actually changed on the track.
type MergeResult struct {
	FieldsWritten int
	CreditsAdded  int
}

// NewResolver builds a resolver from pipeline configuration.
func NewResolver(cfg Config, log *logger.Logger) *Resolver {
	gated := make(map[music.FieldKey]bool, len(cfg.FirstWriteGated))
	for _, key := range cfg.FirstWriteGated {
		gated[key] = true
	}

	tol := cfg.DurationToleranceSec
	if tol == 0 {
		tol = DefaultDurationTolerance
	}

	return &Resolver{
		priorities:  cfg.ProviderPriority,
		thresholds:  cfg.ConfidenceThresholds,
		overrides:   cfg.ProviderOverrides,
		gated:       gated,
		durationTol: tol,
		log:         log,
	}
}

// Apply merges one provider outcome into the track.
func (r *Resolver) Apply(t *music.Track, p Provider, out Outcome) MergeResult {
	var res MergeResult
	if out.Kind != OutcomeEnriched {
		return res
	}

	for key, raw := range out.Fields {
		if r.applyScalar(t, p, key, raw, out.Confidence) {
			res.FieldsWritten++
		}
	}
	for _, c := range out.Credits {
		if t.AddCredit(c) {
			res.CreditsAdded++
		}
	}
	return res
}

func (r *Resolver) applyScalar(t *music.Track, p Provider, key music.FieldKey, raw interface{}, native map[music.FieldKey]float64) bool {
	value, err := normalizeScalar(key, raw)
	if err != nil {
		r.log.Warn("%s sent an unusable %s for %q: %v", p.Name(), key, t.Title, err)
		return false
	}

	confidence := p.TrustScore()
	if c, ok := native[key]; ok {
		confidence = c
	}

	if !t.IsSet(key) {
		if r.gated[key] && confidence < r.threshold(p.Name(), key) {
			r.log.Debug("ignoring %s=%v from %s for %q: confidence %.2f below %.2f",
				key, value, p.Name(), t.Title, confidence, r.threshold(p.Name(), key))
			return false
		}
		return r.write(t, p, key, value, confidence)
	}

	// Trusted durations are never replaced. Beyond tolerance the
	// disagreement is surfaced, within it the candidate is consistent.
	if key == music.FieldDuration {
		r.checkDuration(t, p, value.(int))
		return false
	}

	cur := t.Provenance[key]
	group := GroupOf(key)
	if r.rank(group, p.Name()) >= r.rank(group, cur.Source) {
		r.log.Debug("keeping %s from %s for %q: %s does not outrank it",
			key, cur.Source, t.Title, p.Name())
		return false
	}
	if confidence < r.threshold(p.Name(), key) {
		r.log.Debug("not overwriting %s for %q: %s confidence %.2f below %.2f",
			key, t.Title, p.Name(), confidence, r.threshold(p.Name(), key))
		return false
	}
	return r.write(t, p, key, value, confidence)
}

func (r *Resolver) write(t *music.Track, p Provider, key music.FieldKey, value interface{}, confidence float64) bool {
	prov := music.Provenance{Source: p.Name(), Confidence: confidence, At: time.Now()}
	if err := t.SetValue(key, value, prov); err != nil {
		r.log.Warn("could not set %s from %s for %q: %v", key, p.Name(), t.Title, err)
		return false
	}
	r.log.Debug("set %s=%v from %s for %q (confidence %.2f)", key, value, p.Name(), t.Title, confidence)
	return true
}

func (r *Resolver) checkDuration(t *music.Track, p Provider, candidate int) {
	diff := int(math.Abs(float64(candidate - t.DurationSec)))
	if diff > r.durationTol {
		r.log.Warn("duration discrepancy for %q: %s says %ds, keeping %ds from %s",
			t.Title, p.Name(), candidate, t.DurationSec, t.Provenance[music.FieldDuration].Source)
	}
}

// rank returns a provider's position in the group's priority list; names
// not in the list rank below every listed one. Lower is better.
func (r *Resolver) rank(group FieldGroup, name string) int {
	list := r.priorities[group]
	for i, n := range list {
		if n == name {
			return i
		}
	}
	return len(list)
}

func (r *Resolver) threshold(provider string, key music.FieldKey) float64 {
	if per, ok := r.overrides[provider]; ok {
		if th, ok := per[key]; ok {
			return th
		}
	}
	return r.thresholds[key]
}

// normalizeScalar coerces a candidate into the track's native type.
// Durations arrive as seconds, a float, or "MM:SS" text.
func normalizeScalar(key music.FieldKey, raw interface{}) (interface{}, error) {
	switch key {
	case music.FieldBPM:
		return toInt(raw)
	case music.FieldDuration:
		if s, ok := raw.(string); ok {
			return parseDuration(s)
		}
		return toInt(raw)
	case music.FieldMusicalKey, music.FieldGenre:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", raw)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown field %q", key)
}

func toInt(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(math.Round(v)), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", raw)
}

// parseDuration accepts "MM:SS", "M:SS" or a plain number of seconds.
func parseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	if mins, secs, ok := strings.Cut(s, ":"); ok {
		m, err := strconv.Atoi(strings.TrimSpace(mins))
		if err != nil {
			return 0, fmt.Errorf("bad duration %q", s)
		}
		sec, err := strconv.Atoi(strings.TrimSpace(secs))
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("bad duration %q", s)
		}
		return m*60 + sec, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad duration %q", s)
	}
	return n, nil
}
