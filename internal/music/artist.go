package music

import "time"

// Artist is the long-lived container for tracks. Tracks keep a
// back-reference used only for lookups, never for lifecycle.
type Artist struct {
	ID        int64
	Name      string
	SpotifyID string
	DeezerID  string
	Tracks    []*Track
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewArtist creates an artist with no tracks.
func NewArtist(name string) *Artist {
	now := time.Now()
	return &Artist{Name: name, CreatedAt: now, UpdatedAt: now}
}

// AddTrack appends a track (deduplicated by identity) and sets its
// back-reference.
func (a *Artist) AddTrack(t *Track) {
	for _, existing := range a.Tracks {
		if existing == t {
			return
		}
	}
	a.Tracks = append(a.Tracks, t)
	t.Artist = a
	a.UpdatedAt = time.Now()
}
