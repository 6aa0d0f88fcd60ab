// Package enrich implements the enrichment pipeline: it walks a
// prioritized list of providers per field group, throttles each call,
// and merges the results into the track while keeping provenance.
package enrich

import (
	"context"

	"trackdex/internal/music"
	"trackdex/internal/ratelimit"
)

// FieldGroup names a cluster of track attributes resolved together.
type FieldGroup string

const (
	GroupTempo    FieldGroup = "tempo"
	GroupMetadata FieldGroup = "metadata"
	GroupCredits  FieldGroup = "credits"
)

// AllGroups lists the field groups in the order the pipeline visits them.
var AllGroups = []FieldGroup{GroupTempo, GroupMetadata, GroupCredits}

var groupFields = map[FieldGroup][]music.FieldKey{
	GroupTempo:    {music.FieldBPM, music.FieldMusicalKey},
	GroupMetadata: {music.FieldDuration, music.FieldGenre},
}

// GroupOf returns the field group a scalar field belongs to.
func GroupOf(key music.FieldKey) FieldGroup {
	for group, fields := range groupFields {
		for _, f := range fields {
			if f == key {
				return group
			}
		}
	}
	return GroupMetadata
}

// TrackView is the read-only identity a provider gets to search with.
// Providers never touch the track itself.
type TrackView struct {
	Title  string
	Artist string
	Album  string
}

// ViewOf builds the provider-facing view of a track.
func ViewOf(t *music.Track) TrackView {
	return TrackView{Title: t.Title, Artist: t.ArtistName(), Album: t.Album}
}

// OutcomeKind classifies an adapter call's result.
type OutcomeKind int

const (
	// OutcomeEnriched means the provider found the track and returned data.
	OutcomeEnriched OutcomeKind = iota
	// OutcomeNotFound means the provider has no record of the track.
	OutcomeNotFound
	// OutcomeFailed means a transport-level failure: timeout, connection
	// error, malformed payload.
	OutcomeFailed
)

// Outcome is the typed result of one adapter call. Failure is a value
// here, never a panic, so the pipeline can record it and move on.
type Outcome struct {
	Kind OutcomeKind

	// Fields maps scalar field keys to candidate values. Durations may be
	// an int in seconds or a "MM:SS" string; the resolver normalizes.
	Fields map[music.FieldKey]interface{}

	// Confidence carries per-field native confidence where the provider
	// reports one. Fields without an entry fall back to the provider's
	// static trust score.
	Confidence map[music.FieldKey]float64

	Credits []music.Credit

	// Reason describes a Failed outcome.
	Reason string
}

// Enriched builds a successful outcome.
func Enriched(fields map[music.FieldKey]interface{}) Outcome {
	return Outcome{Kind: OutcomeEnriched, Fields: fields}
}

// NotFound builds the negative-but-normal outcome.
func NotFound() Outcome {
	return Outcome{Kind: OutcomeNotFound}
}

// Failed builds a transport-failure outcome.
func Failed(reason string) Outcome {
	return Outcome{Kind: OutcomeFailed, Reason: reason}
}

// WithConfidence attaches a native confidence for one field.
func (o Outcome) WithConfidence(key music.FieldKey, confidence float64) Outcome {
	if o.Confidence == nil {
		o.Confidence = make(map[music.FieldKey]float64)
	}
	o.Confidence[key] = confidence
	return o
}

// WithCredits attaches credit entries to the outcome.
func (o Outcome) WithCredits(credits ...music.Credit) Outcome {
	o.Credits = append(o.Credits, credits...)
	return o
}

// Provider is one external data source. Implementations must return
// NotFound for missing records rather than an error, and reserve Failed
// for transport problems.
type Provider interface {
	// Name identifies the provider in priority lists and provenance.
	Name() string

	// Groups lists the field groups this provider can populate.
	Groups() []FieldGroup

	// TrustScore is the static 0..1 reliability weight used when the
	// provider reports no native confidence.
	TrustScore() float64

	// RateLimit declares the provider's request budget.
	RateLimit() ratelimit.Spec

	// Attempt looks the track up and returns what it found.
	Attempt(ctx context.Context, view TrackView) Outcome
}
