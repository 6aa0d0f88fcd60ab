package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"trackdex/internal/certs"
	"trackdex/internal/music"
	"trackdex/internal/store"
)

var certsArtist string

var importCertsCmd = &cobra.Command{
	Use:   "import-certs <csv>",
	Short: "Import SNEP certifications from a CSV export",
	Long: `Reads a SNEP certification CSV export and attaches the matching
certifications to stored tracks.

Examples:
  trackdex import-certs certifications.csv
  trackdex import-certs certifications.csv --artist Josman`,
	Args: cobra.ExactArgs(1),
	RunE: runImportCerts,
}

func init() {
	rootCmd.AddCommand(importCertsCmd)
	importCertsCmd.Flags().StringVar(&certsArtist, "artist", "", "only match tracks by this artist")
}

func runImportCerts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	defer log.Close()

	entries, err := certs.ImportFile(args[0])
	if err != nil {
		return err
	}
	log.Info("Parsed %d certification entries", len(entries))

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	ctx := context.Background()

	var tracks []*music.Track
	if certsArtist != "" {
		tracks, err = st.LoadByArtist(ctx, certsArtist)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no tracks found for artist %q", certsArtist)
			}
			return err
		}
	} else {
		seen := make(map[string]bool)
		for _, e := range entries {
			if seen[e.Artist] {
				continue
			}
			seen[e.Artist] = true

			loaded, err := st.LoadByArtist(ctx, e.Artist)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return err
			}
			tracks = append(tracks, loaded...)
		}
	}

	if len(tracks) == 0 {
		log.Warn("No stored tracks match the CSV artists")
		return nil
	}

	added := certs.Merge(entries, tracks, log)
	if added == 0 {
		log.Info("No new certifications to attach")
		return nil
	}

	saved := 0
	for _, t := range tracks {
		if len(t.Certifications) == 0 {
			continue
		}
		if err := st.Save(ctx, t); err != nil {
			log.Error("Failed to save %q: %v", t.Title, err)
			continue
		}
		saved++
	}

	log.Info("Attached %d certifications across %d tracks", added, saved)
	return nil
}
