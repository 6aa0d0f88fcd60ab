// Package music contains the domain model: artists, tracks, credits and
// certifications, plus the per-field provenance that records which
// source last wrote each enrichable value.
package music

import (
	"fmt"
	"time"
)

// FieldKey identifies a scalar enrichable field on a Track.
type FieldKey string

const (
	FieldBPM        FieldKey = "bpm"
	FieldMusicalKey FieldKey = "musical_key"
	FieldDuration   FieldKey = "duration"
	FieldGenre      FieldKey = "genre"
)

// ScalarFields lists every scalar enrichable field.
var ScalarFields = []FieldKey{FieldBPM, FieldMusicalKey, FieldDuration, FieldGenre}

// Provenance records which source wrote a field's current value, when,
// and with what confidence. A set field has exactly one provenance entry.
type Provenance struct {
	Source     string    `json:"source"`
	Confidence float64   `json:"confidence"`
	At         time.Time `json:"at"`
}

// Track is a mutable catalog entry enriched across passes. Scalar fields
// are considered unset until a provenance entry exists for them.
type Track struct {
	ID     int64
	Title  string
	Artist *Artist
	Album  string

	BPM         int
	MusicalKey  string
	DurationSec int
	Genre       string

	Credits        []Credit
	Certifications []Certification

	Provenance map[FieldKey]Provenance

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTrack creates an empty track owned by artist.
func NewTrack(title string, artist *Artist) *Track {
	now := time.Now()
	return &Track{
		Title:      title,
		Artist:     artist,
		Provenance: make(map[FieldKey]Provenance),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ArtistName returns the owning artist's name, or empty for orphans.
func (t *Track) ArtistName() string {
	if t.Artist == nil {
		return ""
	}
	return t.Artist.Name
}

// IsSet reports whether the field currently holds an attributed value.
func (t *Track) IsSet(key FieldKey) bool {
	_, ok := t.Provenance[key]
	return ok
}

// Value returns the field's current value and whether it is set.
func (t *Track) Value(key FieldKey) (interface{}, bool) {
	if !t.IsSet(key) {
		return nil, false
	}
	switch key {
	case FieldBPM:
		return t.BPM, true
	case FieldMusicalKey:
		return t.MusicalKey, true
	case FieldDuration:
		return t.DurationSec, true
	case FieldGenre:
		return t.Genre, true
	}
	return nil, false
}

// SetValue writes a scalar field together with its provenance entry.
func (t *Track) SetValue(key FieldKey, value interface{}, prov Provenance) error {
	switch key {
	case FieldBPM:
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("bpm requires an int, got %T", value)
		}
		t.BPM = v
	case FieldDuration:
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("duration requires an int, got %T", value)
		}
		t.DurationSec = v
	case FieldMusicalKey:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("musical key requires a string, got %T", value)
		}
		t.MusicalKey = v
	case FieldGenre:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("genre requires a string, got %T", value)
		}
		t.Genre = v
	default:
		return fmt.Errorf("unknown field %q", key)
	}

	if t.Provenance == nil {
		t.Provenance = make(map[FieldKey]Provenance)
	}
	t.Provenance[key] = prov
	t.UpdatedAt = time.Now()
	return nil
}

// AddCredit appends a credit unless a structurally equal one exists.
// Returns true if the credit was added.
func (t *Track) AddCredit(c Credit) bool {
	for _, existing := range t.Credits {
		if existing.Equal(c) {
			return false
		}
	}
	t.Credits = append(t.Credits, c)
	t.UpdatedAt = time.Now()
	return true
}

// AddCertification appends a certification unless an equal one exists.
func (t *Track) AddCertification(c Certification) bool {
	for _, existing := range t.Certifications {
		if existing.Equal(c) {
			return false
		}
	}
	t.Certifications = append(t.Certifications, c)
	t.UpdatedAt = time.Now()
	return true
}

// CreditsByRole returns all credits with the given role.
func (t *Track) CreditsByRole(role Role) []Credit {
	var out []Credit
	for _, c := range t.Credits {
		if c.Role == role {
			out = append(out, c)
		}
	}
	return out
}

// Producers returns the names credited with any production role.
func (t *Track) Producers() []string {
	return t.namesByRole(RoleProducer, RoleCoProducer, RoleExecutiveProducer, RoleVocalProducer)
}

// Writers returns the names credited with any writing role.
func (t *Track) Writers() []string {
	return t.namesByRole(RoleWriter, RoleComposer, RoleLyricist)
}

func (t *Track) namesByRole(roles ...Role) []string {
	var out []string
	for _, role := range roles {
		for _, c := range t.CreditsByRole(role) {
			out = append(out, c.Name)
		}
	}
	return out
}

// HasCompleteCredits reports whether the credit list looks complete:
// at least two credits including a producer or a writer.
func (t *Track) HasCompleteCredits() bool {
	if len(t.Credits) < 2 {
		return false
	}
	return len(t.Producers()) > 0 || len(t.Writers()) > 0
}
