// Package certs imports certification awards from the CSV exports
// published by certifying bodies (SNEP). Files are semicolon separated
// with French headers and dates.
package certs

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"trackdex/internal/logger"
	"trackdex/internal/match"
	"trackdex/internal/music"
)

// Entry is one certified award with the identity needed to attach it to
// a track.
type Entry struct {
	Artist string
	Title  string
	Cert   music.Certification
}

const frenchDate = "02/01/2006"

// ParseCSV reads a SNEP-style export. Rows with an unknown certification
// level are skipped; a missing required header is an error.
func ParseCSV(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}

		artist := cols.get(record, "interprète")
		title := cols.get(record, "titre")
		if artist == "" || title == "" {
			continue
		}

		level, ok := music.ParseCertLevel(cols.get(record, "certification"))
		if !ok {
			continue
		}

		cert := music.Certification{
			Level:     level,
			Category:  music.ParseCertCategory(cols.get(record, "catégorie")),
			Publisher: cols.get(record, "éditeur / distributeur"),
			Country:   "FR",
			Body:      "SNEP",
		}
		if d, err := time.Parse(frenchDate, cols.get(record, "date de sortie")); err == nil {
			cert.ReleasedAt = d
		}
		if d, err := time.Parse(frenchDate, cols.get(record, "date de constat")); err == nil {
			cert.CertifiedAt = d
		}

		entries = append(entries, Entry{Artist: artist, Title: title, Cert: cert})
	}
	return entries, nil
}

// ImportFile parses the CSV at path.
func ImportFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open certification file: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// Merge attaches entries to the tracks they certify. Matching uses the
// same fuzzy scoring as the providers; duplicates are dropped by the
// track itself. Returns the number of awards actually added.
func Merge(entries []Entry, tracks []*music.Track, log *logger.Logger) int {
	added := 0
	for _, e := range entries {
		for _, t := range tracks {
			if match.Score(t.Title, t.ArtistName(), e.Title, e.Artist) < match.DefaultThreshold {
				continue
			}
			if t.AddCertification(e.Cert) {
				log.Debug("certified %q: %s (%s)", t.Title, e.Cert.Level, e.Cert.Category)
				added++
			}
		}
	}
	return added
}

type columns map[string]int

// mapColumns indexes the header, tolerating a BOM and case or spacing
// variants.
func mapColumns(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\uFEFF")
		name = strings.ToLower(strings.Join(strings.Fields(name), " "))
		cols[name] = i
	}
	for _, required := range []string{"interprète", "titre", "certification"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing column %q in certification csv", required)
		}
	}
	return cols, nil
}

func (c columns) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
