package deezer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trackdex/internal/enrich"
	"trackdex/internal/match"
	"trackdex/internal/music"
	"trackdex/internal/ratelimit"
)

// Client is a Deezer API client that implements enrich.Provider. It
// fills the metadata group with the track duration and the album genre.
type Client struct {
	httpClient *http.Client
	apiURL     string
}

// New creates a new Deezer client.
func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     "https://api.deezer.com",
	}
}

func (c *Client) Name() string { return "deezer" }

func (c *Client) Groups() []enrich.FieldGroup {
	return []enrich.FieldGroup{enrich.GroupMetadata}
}

func (c *Client) TrustScore() float64 { return 0.85 }

// RateLimit mirrors Deezer's published quota of 50 requests per 5 seconds.
func (c *Client) RateLimit() ratelimit.Spec {
	return ratelimit.Spec{MaxRequests: 50, Window: 5 * time.Second}
}

// Attempt searches Deezer for the track and returns its duration.
func (c *Client) Attempt(ctx context.Context, view enrich.TrackView) enrich.Outcome {
	q := buildQuery(view)
	if q == "" {
		return enrich.NotFound()
	}

	reqURL := fmt.Sprintf("%s/search?q=%s&limit=5", c.apiURL, url.QueryEscape(q))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return enrich.Failed(fmt.Sprintf("failed to create deezer request: %v", err))
	}
	req.Header.Set("User-Agent", "trackdex/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return enrich.Failed(fmt.Sprintf("deezer search request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return enrich.Failed(fmt.Sprintf("deezer search returned %d", resp.StatusCode))
	}

	var searchResp searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return enrich.Failed(fmt.Sprintf("failed to decode deezer response: %v", err))
	}
	if searchResp.Error != nil {
		return enrich.Failed(fmt.Sprintf("deezer API error: %s", searchResp.Error.Message))
	}

	item, ok := bestMatch(view, searchResp.Data)
	if !ok {
		return enrich.NotFound()
	}

	fields := map[music.FieldKey]interface{}{
		music.FieldDuration: item.Duration,
	}
	// The search payload carries no genre; that lives on the album.
	// A failed album lookup just means no genre, not a failed attempt.
	if genre := c.albumGenre(ctx, item.Album.ID); genre != "" {
		fields[music.FieldGenre] = genre
	}

	return enrich.Enriched(fields)
}

func (c *Client) albumGenre(ctx context.Context, albumID int) string {
	if albumID == 0 {
		return ""
	}

	reqURL := fmt.Sprintf("%s/album/%d", c.apiURL, albumID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "trackdex/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var album albumResponse
	if err := json.NewDecoder(resp.Body).Decode(&album); err != nil {
		return ""
	}
	if len(album.Genres.Data) == 0 {
		return ""
	}
	return album.Genres.Data[0].Name
}

// bestMatch returns the highest-scoring hit above the match threshold.
func bestMatch(view enrich.TrackView, items []trackItem) (trackItem, bool) {
	var best trackItem
	bestScore := 0.0
	for _, item := range items {
		score := match.Score(view.Title, view.Artist, item.TitleShort, item.Artist.Name)
		if score > bestScore {
			best, bestScore = item, score
		}
	}
	return best, bestScore >= match.DefaultThreshold
}

func buildQuery(view enrich.TrackView) string {
	escape := func(s string) string {
		return strings.ReplaceAll(s, "\"", "")
	}
	var parts []string
	if view.Title != "" {
		parts = append(parts, "track:\""+escape(view.Title)+"\"")
	}
	if view.Artist != "" {
		parts = append(parts, "artist:\""+escape(view.Artist)+"\"")
	}
	if view.Album != "" {
		parts = append(parts, "album:\""+escape(view.Album)+"\"")
	}
	return strings.Join(parts, " ")
}

// Deezer API response types

type searchResponse struct {
	Data  []trackItem `json:"data"`
	Error *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type trackItem struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	TitleShort string `json:"title_short"`
	Duration   int    `json:"duration"`
	Artist     artist `json:"artist"`
	Album      album  `json:"album"`
}

type artist struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type album struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

type albumResponse struct {
	Genres struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	} `json:"genres"`
}
