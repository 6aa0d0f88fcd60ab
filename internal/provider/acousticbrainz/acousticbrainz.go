package acousticbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"trackdex/internal/enrich"
	"trackdex/internal/match"
	"trackdex/internal/music"
	"trackdex/internal/ratelimit"
)

// Client resolves a track to a MusicBrainz recording, then fetches its
// acoustic analysis from AcousticBrainz. Detected BPM carries the
// analyzer's own confidence, so it only sticks when the detection is
// solid. Implements enrich.Provider for the tempo group.
type Client struct {
	httpClient *http.Client
	mbURL      string
	abURL      string
}

// New creates a new AcousticBrainz client.
func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		mbURL:      "https://musicbrainz.org/ws/2",
		abURL:      "https://acousticbrainz.org/api/v1",
	}
}

func (c *Client) Name() string { return "acousticbrainz" }

func (c *Client) Groups() []enrich.FieldGroup {
	return []enrich.FieldGroup{enrich.GroupTempo}
}

// TrustScore is low: detection is algorithmic, not editorial.
func (c *Client) TrustScore() float64 { return 0.6 }

// RateLimit covers both the MusicBrainz lookup and the analysis fetch,
// honouring MusicBrainz's 1 request/second policy.
func (c *Client) RateLimit() ratelimit.Spec {
	return ratelimit.Spec{MaxRequests: 1, Window: 2 * time.Second}
}

// Attempt finds the recording MBID and fetches its low-level analysis.
func (c *Client) Attempt(ctx context.Context, view enrich.TrackView) enrich.Outcome {
	mbid, outcome := c.findRecording(ctx, view)
	if outcome != nil {
		return *outcome
	}

	reqURL := fmt.Sprintf("%s/%s/low-level", c.abURL, mbid)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return enrich.Failed(fmt.Sprintf("failed to create acousticbrainz request: %v", err))
	}
	req.Header.Set("User-Agent", "trackdex/1.0")

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return enrich.Failed(fmt.Sprintf("acousticbrainz request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return enrich.NotFound()
	}
	if resp.StatusCode != http.StatusOK {
		return enrich.Failed(fmt.Sprintf("acousticbrainz returned %d", resp.StatusCode))
	}

	var analysis lowLevelResponse
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return enrich.Failed(fmt.Sprintf("failed to decode acousticbrainz response: %v", err))
	}

	bpm := int(analysis.Rhythm.BPM + 0.5)
	if bpm <= 0 {
		return enrich.NotFound()
	}

	fields := map[music.FieldKey]interface{}{music.FieldBPM: bpm}
	if name, err := music.KeyScaleName(analysis.Tonal.KeyKey, analysis.Tonal.KeyScale); err == nil {
		fields[music.FieldMusicalKey] = name
	}

	return enrich.Enriched(fields).
		WithConfidence(music.FieldBPM, analysis.Rhythm.BPMConfidence)
}

// findRecording resolves (title, artist) to a MusicBrainz recording ID.
// A non-nil outcome short-circuits the attempt.
func (c *Client) findRecording(ctx context.Context, view enrich.TrackView) (string, *enrich.Outcome) {
	fail := func(format string, args ...interface{}) (string, *enrich.Outcome) {
		o := enrich.Failed(fmt.Sprintf(format, args...))
		return "", &o
	}

	query := fmt.Sprintf("recording:%q AND artist:%q", view.Title, view.Artist)
	reqURL := fmt.Sprintf("%s/recording?query=%s&fmt=json&limit=5", c.mbURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fail("failed to create musicbrainz request: %v", err)
	}
	req.Header.Set("User-Agent", "trackdex/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return fail("musicbrainz search request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail("musicbrainz search returned %d", resp.StatusCode)
	}

	var searchResp recordingSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return fail("failed to decode musicbrainz response: %v", err)
	}

	bestID := ""
	bestScore := 0.0
	for _, rec := range searchResp.Recordings {
		artist := ""
		if len(rec.ArtistCredit) > 0 {
			artist = rec.ArtistCredit[0].Name
		}
		score := match.Score(view.Title, view.Artist, rec.Title, artist)
		if score > bestScore {
			bestID, bestScore = rec.ID, score
		}
	}
	if bestScore < match.DefaultThreshold {
		o := enrich.NotFound()
		return "", &o
	}
	return bestID, nil
}

// doWithRetry executes the request, retrying once on 429/503 with backoff.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		resp.Body.Close()
		retryAfter := 2
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if parsed, err := strconv.Atoi(ra); err == nil {
				retryAfter = parsed
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(retryAfter) * time.Second):
		}

		retry := req.Clone(ctx)
		return c.httpClient.Do(retry)
	}

	return resp, nil
}

// MusicBrainz and AcousticBrainz response types

type recordingSearchResponse struct {
	Recordings []recording `json:"recordings"`
}

type recording struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	ArtistCredit []artistCredit `json:"artist-credit"`
}

type artistCredit struct {
	Name string `json:"name"`
}

type lowLevelResponse struct {
	Rhythm rhythm `json:"rhythm"`
	Tonal  tonal  `json:"tonal"`
}

type rhythm struct {
	BPM           float64 `json:"bpm"`
	BPMConfidence float64 `json:"bpm_confidence"`
}

type tonal struct {
	KeyKey   string `json:"key_key"`
	KeyScale string `json:"key_scale"`
}
