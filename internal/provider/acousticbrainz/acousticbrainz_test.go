package acousticbrainz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"trackdex/internal/enrich"
	"trackdex/internal/music"
)

const goalMBID = "3c1f5b47-9a7e-4b9a-8c9a-000000000001"

func recordingHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(recordingSearchResponse{
		Recordings: []recording{
			{
				ID:           goalMBID,
				Title:        "Goal",
				ArtistCredit: []artistCredit{{Name: "Josman"}},
			},
		},
	})
}

func TestAttempt(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recording", recordingHandler)
	mux.HandleFunc("/"+goalMBID+"/low-level", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(lowLevelResponse{
			Rhythm: rhythm{BPM: 139.7, BPMConfidence: 0.82},
			Tonal:  tonal{KeyKey: "F#", KeyScale: "minor"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New()
	c.mbURL = srv.URL
	c.abURL = srv.URL

	out := c.Attempt(context.Background(), enrich.TrackView{Title: "Goal", Artist: "Josman"})
	if out.Kind != enrich.OutcomeEnriched {
		t.Fatalf("outcome = %v, want enriched (%s)", out.Kind, out.Reason)
	}
	if got := out.Fields[music.FieldBPM]; got != 140 {
		t.Errorf("bpm = %v, want rounded 140", got)
	}
	if got := out.Confidence[music.FieldBPM]; got != 0.82 {
		t.Errorf("bpm confidence = %v, want the analyzer's 0.82", got)
	}
	if got := out.Fields[music.FieldMusicalKey]; got != "Fa#/Solb mineur" {
		t.Errorf("musical key = %v, want Fa#/Solb mineur", got)
	}
}

func TestAttemptNoRecording(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recording", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(recordingSearchResponse{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New()
	c.mbURL = srv.URL
	c.abURL = srv.URL

	out := c.Attempt(context.Background(), enrich.TrackView{Title: "Goal", Artist: "Josman"})
	if out.Kind != enrich.OutcomeNotFound {
		t.Errorf("outcome = %v, want not found when no recording matches", out.Kind)
	}
}

func TestAttemptAnalysisMissing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recording", recordingHandler)
	mux.HandleFunc("/"+goalMBID+"/low-level", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New()
	c.mbURL = srv.URL
	c.abURL = srv.URL

	out := c.Attempt(context.Background(), enrich.TrackView{Title: "Goal", Artist: "Josman"})
	if out.Kind != enrich.OutcomeNotFound {
		t.Errorf("outcome = %v, unanalyzed recordings are a normal miss", out.Kind)
	}
}

func TestAttemptSearchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New()
	c.mbURL = srv.URL
	c.abURL = srv.URL

	out := c.Attempt(context.Background(), enrich.TrackView{Title: "Goal", Artist: "Josman"})
	if out.Kind != enrich.OutcomeFailed {
		t.Errorf("outcome = %v, want failed on a server error", out.Kind)
	}
}
