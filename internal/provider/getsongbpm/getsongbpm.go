package getsongbpm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trackdex/internal/cache"
	"trackdex/internal/enrich"
	"trackdex/internal/match"
	"trackdex/internal/music"
	"trackdex/internal/ratelimit"
)

// Client is a GetSongBPM API client that implements enrich.Provider.
// It fills the tempo group: BPM and musical key. The service requires
// an API key and is slow, so results are cached when a cache is given.
type Client struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	cache      *cache.Cache
}

// New creates a new GetSongBPM client. cache may be nil.
func New(apiKey string, c *cache.Cache) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiURL:     "https://api.getsong.co",
		apiKey:     apiKey,
		cache:      c,
	}
}

func (c *Client) Name() string { return "getsongbpm" }

func (c *Client) Groups() []enrich.FieldGroup {
	return []enrich.FieldGroup{enrich.GroupTempo}
}

func (c *Client) TrustScore() float64 { return 0.9 }

func (c *Client) RateLimit() ratelimit.Spec {
	return ratelimit.Spec{MaxRequests: 1, Window: time.Second}
}

// cached is the JSON shape stored per (artist, title) lookup.
type cached struct {
	BPM int    `json:"bpm"`
	Key string `json:"key"`
}

// Attempt looks the track up by title and artist.
func (c *Client) Attempt(ctx context.Context, view enrich.TrackView) enrich.Outcome {
	if c.apiKey == "" {
		return enrich.Failed("getsongbpm api key not configured")
	}

	cacheKey := cache.Key("getsongbpm", view.Artist, view.Title)
	var hit cached
	if c.cache.Get(cacheKey, &hit) {
		return outcomeFrom(hit)
	}

	lookup := fmt.Sprintf("song:%s artist:%s", view.Title, view.Artist)
	reqURL := fmt.Sprintf("%s/search/?api_key=%s&type=both&lookup=%s",
		c.apiURL, url.QueryEscape(c.apiKey), url.QueryEscape(lookup))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return enrich.Failed(fmt.Sprintf("failed to create getsongbpm request: %v", err))
	}
	req.Header.Set("User-Agent", "trackdex/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return enrich.Failed(fmt.Sprintf("getsongbpm request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return enrich.Failed(fmt.Sprintf("getsongbpm returned %d", resp.StatusCode))
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return enrich.Failed(fmt.Sprintf("failed to decode getsongbpm response: %v", err))
	}

	song, ok := bestMatch(view, searchResp.Search)
	if !ok {
		return enrich.NotFound()
	}

	bpm, err := strconv.Atoi(strings.TrimSpace(song.Tempo))
	if err != nil || bpm <= 0 {
		return enrich.NotFound()
	}

	result := cached{BPM: bpm, Key: frenchKey(song.KeyOf)}
	// A broken cache must not fail the lookup.
	_ = c.cache.Put(cacheKey, result)
	return outcomeFrom(result)
}

func outcomeFrom(hit cached) enrich.Outcome {
	if hit.BPM <= 0 {
		return enrich.NotFound()
	}
	fields := map[music.FieldKey]interface{}{music.FieldBPM: hit.BPM}
	if hit.Key != "" {
		fields[music.FieldMusicalKey] = hit.Key
	}
	return enrich.Enriched(fields)
}

func bestMatch(view enrich.TrackView, songs []song) (song, bool) {
	var best song
	bestScore := 0.0
	for _, s := range songs {
		score := match.Score(view.Title, view.Artist, s.Title, s.Artist.Name)
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	return best, bestScore >= match.DefaultThreshold
}

// frenchKey converts GetSongBPM's "F#m" style key into French notation.
func frenchKey(keyOf string) string {
	keyOf = strings.TrimSpace(keyOf)
	if keyOf == "" {
		return ""
	}
	scale := "major"
	if strings.HasSuffix(keyOf, "m") {
		scale = "minor"
		keyOf = strings.TrimSuffix(keyOf, "m")
	}
	name, err := music.KeyScaleName(keyOf, scale)
	if err != nil {
		return ""
	}
	return name
}

// GetSongBPM API response types

type searchResponse struct {
	Search []song `json:"search"`
}

type song struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Tempo  string     `json:"tempo"`
	KeyOf  string     `json:"key_of"`
	Artist songArtist `json:"artist"`
}

type songArtist struct {
	Name string `json:"name"`
}
