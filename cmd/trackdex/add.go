package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"trackdex/internal/music"
)

var addAlbum string

var addCmd = &cobra.Command{
	Use:   "add <artist> <title>",
	Short: "Add a track to the database",
	Long: `Adds a track to the local database so later enrichment runs can
fill in its metadata.

Examples:
  trackdex add Josman Goal
  trackdex add Josman "J'aurai pu" --album "M.A.N.H"`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addAlbum, "album", "", "album the track belongs to")
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	defer log.Close()

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	artist := music.NewArtist(args[0])
	track := music.NewTrack(args[1], artist)
	track.Album = addAlbum

	if err := st.Save(context.Background(), track); err != nil {
		return fmt.Errorf("failed to save track: %w", err)
	}

	log.Info("Added %q by %s", track.Title, artist.Name)
	return nil
}
