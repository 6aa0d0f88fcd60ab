package certs

import (
	"io"
	"strings"
	"testing"
	"time"

	"trackdex/internal/logger"
	"trackdex/internal/music"
)

const snepSample = "\uFEFF" + `Interprète;Titre;Éditeur / Distributeur;Catégorie;Certification;Date de sortie;Date de constat
Josman;Goal;Universal;Singles;Or;12/04/2019;03/06/2021
Josman;J'rap encore;Universal;Singles;Platine;01/03/2018;15/09/2020
Josman;Inconnu;Universal;Singles;Mystère;01/01/2020;01/01/2021
`

func TestParseCSV(t *testing.T) {
	entries, err := ParseCSV(strings.NewReader(snepSample))
	if err != nil {
		t.Fatalf("ParseCSV failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (unknown level skipped)", len(entries))
	}

	e := entries[0]
	if e.Artist != "Josman" || e.Title != "Goal" {
		t.Errorf("identity = %s / %s", e.Artist, e.Title)
	}
	if e.Cert.Level != music.LevelOr {
		t.Errorf("level = %s, want Or", e.Cert.Level)
	}
	if e.Cert.Category != music.CategorySingles {
		t.Errorf("category = %s, want Singles", e.Cert.Category)
	}
	if e.Cert.Body != "SNEP" || e.Cert.Country != "FR" {
		t.Errorf("body/country = %s/%s", e.Cert.Body, e.Cert.Country)
	}
	if e.Cert.Publisher != "Universal" {
		t.Errorf("publisher = %s", e.Cert.Publisher)
	}

	want := time.Date(2021, 6, 3, 0, 0, 0, 0, time.UTC)
	if !e.Cert.CertifiedAt.Equal(want) {
		t.Errorf("certified at = %v, want %v", e.Cert.CertifiedAt, want)
	}
}

func TestParseCSVMissingColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Titre;Certification\nGoal;Or\n"))
	if err == nil {
		t.Fatal("expected an error for a missing required column")
	}
}

func TestMerge(t *testing.T) {
	entries, err := ParseCSV(strings.NewReader(snepSample))
	if err != nil {
		t.Fatal(err)
	}

	artist := music.NewArtist("Josman")
	goal := music.NewTrack("Goal", artist)
	other := music.NewTrack("Intro", artist)

	log := logger.New(false)
	log.SetOutput(io.Discard)

	added := Merge(entries, []*music.Track{goal, other}, log)
	if added != 1 {
		t.Errorf("added = %d, want 1", added)
	}
	if len(goal.Certifications) != 1 {
		t.Fatalf("goal certifications = %d, want 1", len(goal.Certifications))
	}
	if len(other.Certifications) != 0 {
		t.Errorf("unrelated track picked up %d certifications", len(other.Certifications))
	}

	// Re-importing the same file adds nothing.
	if again := Merge(entries, []*music.Track{goal, other}, log); again != 0 {
		t.Errorf("second merge added %d awards, want 0", again)
	}
}
