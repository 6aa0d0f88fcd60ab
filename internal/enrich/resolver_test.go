package enrich

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"trackdex/internal/logger"
	"trackdex/internal/music"
)

func testLogger() *logger.Logger {
	l := logger.New(false)
	l.SetOutput(io.Discard)
	return l
}

func tempoConfig(names ...string) Config {
	return Config{
		ProviderPriority: map[FieldGroup][]string{GroupTempo: names},
		ConfidenceThresholds: map[music.FieldKey]float64{music.FieldBPM: 0.7},
		FirstWriteGated:      []music.FieldKey{music.FieldBPM},
		MinTrust:             0.5,
	}
}

func newTestTrack(title string) *music.Track {
	return music.NewTrack(title, music.NewArtist("Josman"))
}

func TestResolverFirstSourceWins(t *testing.T) {
	cfg := tempoConfig("first", "second")
	cfg.ProviderPriority[GroupMetadata] = []string{"first", "second"}
	r := NewResolver(cfg, testLogger())
	track := newTestTrack("Goal")

	// Even a low-trust source fills an unset, ungated field.
	low := &mockProvider{name: "second", trust: 0.3}
	res := r.Apply(track, low, Enriched(map[music.FieldKey]interface{}{music.FieldGenre: "rap"}))
	if res.FieldsWritten != 1 {
		t.Fatalf("fields written = %d, want 1", res.FieldsWritten)
	}
	if track.Genre != "rap" {
		t.Errorf("genre = %q, want rap", track.Genre)
	}

	// A same-or-lower-priority source never replaces it.
	res = r.Apply(track, low, Enriched(map[music.FieldKey]interface{}{music.FieldGenre: "pop"}))
	if res.FieldsWritten != 0 || track.Genre != "rap" {
		t.Errorf("genre = %q after same-priority retry, want rap", track.Genre)
	}
}

func TestResolverBPMFirstWriteGate(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		wantSet    bool
	}{
		{"below threshold ignored even when unset", 0.5, false},
		{"at threshold written", 0.7, true},
		{"above threshold written", 0.9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tempoConfig("acousticbrainz"), testLogger())
			track := newTestTrack("Goal")
			p := &mockProvider{name: "acousticbrainz", trust: 0.6}

			out := Enriched(map[music.FieldKey]interface{}{music.FieldBPM: 140}).
				WithConfidence(music.FieldBPM, tt.confidence)
			r.Apply(track, p, out)

			if track.IsSet(music.FieldBPM) != tt.wantSet {
				t.Errorf("bpm set = %v, want %v", track.IsSet(music.FieldBPM), tt.wantSet)
			}
		})
	}
}

func TestResolverOverwriteRules(t *testing.T) {
	cfg := tempoConfig("top", "middle", "bottom")
	cfg.ProviderPriority[GroupMetadata] = []string{"top", "middle", "bottom"}
	cfg.ConfidenceThresholds[music.FieldGenre] = 0.7

	tests := []struct {
		name       string
		provider   string
		confidence float64
		wantGenre  string
	}{
		{"higher priority with confidence overwrites", "top", 0.9, "new"},
		{"higher priority below threshold ignored", "top", 0.4, "old"},
		{"lower priority ignored regardless", "bottom", 0.99, "old"},
		{"unlisted provider ranks below everything", "stranger", 0.99, "old"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(cfg, testLogger())
			track := newTestTrack("Goal")

			seed := &mockProvider{name: "middle", trust: 0.8}
			r.Apply(track, seed, Enriched(map[music.FieldKey]interface{}{music.FieldGenre: "old"}))

			p := &mockProvider{name: tt.provider, trust: tt.confidence}
			r.Apply(track, p, Enriched(map[music.FieldKey]interface{}{music.FieldGenre: "new"}))

			if track.Genre != tt.wantGenre {
				t.Errorf("genre = %q, want %q", track.Genre, tt.wantGenre)
			}
		})
	}
}

func TestResolverPriorityMonotonicity(t *testing.T) {
	r := NewResolver(tempoConfig("top", "middle", "bottom"), testLogger())
	track := newTestTrack("Goal")

	top := &mockProvider{name: "top", trust: 0.95}
	r.Apply(track, top, Enriched(map[music.FieldKey]interface{}{music.FieldMusicalKey: "Ré mineur"}))

	for _, name := range []string{"top", "middle", "bottom"} {
		p := &mockProvider{name: name, trust: 0.99}
		res := r.Apply(track, p, Enriched(map[music.FieldKey]interface{}{music.FieldMusicalKey: "Do majeur"}))
		if res.FieldsWritten != 0 {
			t.Errorf("provider %s overwrote a value set at top priority", name)
		}
	}
	if track.MusicalKey != "Ré mineur" {
		t.Errorf("musical key = %q, want Ré mineur", track.MusicalKey)
	}
	if track.Provenance[music.FieldMusicalKey].Source != "top" {
		t.Errorf("provenance source = %q, want top", track.Provenance[music.FieldMusicalKey].Source)
	}
}

func TestResolverDurationNormalization(t *testing.T) {
	r := NewResolver(tempoConfig("deezer"), testLogger())
	track := newTestTrack("Goal")
	p := &mockProvider{name: "deezer", trust: 0.85}

	r.Apply(track, p, Enriched(map[music.FieldKey]interface{}{music.FieldDuration: "3:42"}))
	if track.DurationSec != 222 {
		t.Errorf("duration = %d, want 222", track.DurationSec)
	}
}

func TestResolverDurationTolerance(t *testing.T) {
	tests := []struct {
		name      string
		candidate int
		wantWarn  bool
	}{
		{"within tolerance is consistent", 223, false},
		{"exactly at tolerance is consistent", 224, false},
		{"beyond tolerance flagged", 230, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.New(false)
			log.SetOutput(&buf)

			r := NewResolver(tempoConfig("deezer", "other"), log)
			track := newTestTrack("Goal")

			r.Apply(track, &mockProvider{name: "deezer", trust: 0.85},
				Enriched(map[music.FieldKey]interface{}{music.FieldDuration: 222}))
			r.Apply(track, &mockProvider{name: "other", trust: 0.9},
				Enriched(map[music.FieldKey]interface{}{music.FieldDuration: tt.candidate}))

			if track.DurationSec != 222 {
				t.Errorf("duration = %d, trusted value must never be replaced", track.DurationSec)
			}
			warned := strings.Contains(buf.String(), "duration discrepancy")
			if warned != tt.wantWarn {
				t.Errorf("discrepancy warning logged = %v, want %v", warned, tt.wantWarn)
			}
		})
	}
}

func TestResolverIdempotence(t *testing.T) {
	r := NewResolver(tempoConfig("getsongbpm"), testLogger())
	track := newTestTrack("Goal")
	p := &mockProvider{name: "getsongbpm", trust: 0.9}

	out := Enriched(map[music.FieldKey]interface{}{
		music.FieldBPM:        138,
		music.FieldMusicalKey: "Fa# mineur",
	}).WithConfidence(music.FieldBPM, 0.9)

	first := r.Apply(track, p, out)
	if first.FieldsWritten != 2 {
		t.Fatalf("first apply wrote %d fields, want 2", first.FieldsWritten)
	}
	provBefore := track.Provenance[music.FieldBPM]

	second := r.Apply(track, p, out)
	if second.FieldsWritten != 0 {
		t.Errorf("second apply wrote %d fields, want 0", second.FieldsWritten)
	}
	if track.Provenance[music.FieldBPM] != provBefore {
		t.Error("repeat apply touched provenance")
	}
}

func TestResolverCreditDedup(t *testing.T) {
	r := NewResolver(tempoConfig("genius"), testLogger())
	track := newTestTrack("Goal")
	p := &mockProvider{name: "genius", trust: 0.8}

	credit := music.Credit{Name: "Eazy Dew", Role: music.RoleProducer, Source: "genius"}
	out := Enriched(nil).WithCredits(credit, credit)

	res := r.Apply(track, p, out)
	if res.CreditsAdded != 1 {
		t.Errorf("credits added = %d, want 1", res.CreditsAdded)
	}

	// Same credit from another source is still a structural duplicate.
	dup := credit
	dup.Source = "rapedia"
	res = r.Apply(track, p, Enriched(nil).WithCredits(dup))
	if res.CreditsAdded != 0 || len(track.Credits) != 1 {
		t.Errorf("credits = %d, want exactly 1", len(track.Credits))
	}
}

func TestResolverPerProviderThresholdOverride(t *testing.T) {
	cfg := tempoConfig("acousticbrainz")
	cfg.ProviderOverrides = map[string]map[music.FieldKey]float64{
		"acousticbrainz": {music.FieldBPM: 0.4},
	}

	r := NewResolver(cfg, testLogger())
	track := newTestTrack("Goal")
	p := &mockProvider{name: "acousticbrainz", trust: 0.6}

	out := Enriched(map[music.FieldKey]interface{}{music.FieldBPM: 140}).
		WithConfidence(music.FieldBPM, 0.5)
	r.Apply(track, p, out)

	if track.BPM != 140 {
		t.Errorf("bpm = %d, want 140 with the relaxed per-provider threshold", track.BPM)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"3:42", 222, false},
		{"03:05", 185, false},
		{"0:59", 59, false},
		{"222", 222, false},
		{"3:75", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDuration(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
