package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"trackdex/internal/enrich"
	"trackdex/internal/ratelimit"
	"trackdex/internal/shutdown"
	"trackdex/internal/store"
	"trackdex/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with live job progress",
	Long: `Starts an HTTP server that exposes enrichment runs as background
jobs. Progress is pushed to clients over WebSocket.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sh := shutdown.New()
	sh.Listen()

	log := newLogger(cfg)
	defer log.Close()

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	orch := enrich.NewOrchestrator(buildProviders(cfg, log), cfg.Pipeline(), ratelimit.New(), log)

	enrichFn := func(ctx context.Context, artist string, onProgress enrich.ProgressFunc) (*enrich.BatchStats, error) {
		tracks, err := st.LoadByArtist(ctx, artist)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("no tracks found for artist %q", artist)
			}
			return nil, err
		}

		runner := enrich.NewRunner(orch, log)
		runner.SetWorkers(cfg.Workers)
		runner.OnProgress(onProgress)
		stats := runner.Run(ctx, tracks)

		for _, t := range tracks {
			if err := st.Save(context.Background(), t); err != nil {
				log.Error("Failed to save %q: %v", t.Title, err)
			}
		}

		if err := ctx.Err(); err != nil {
			return stats, err
		}
		return stats, nil
	}

	jobMgr := web.NewJobManager()
	jobMgr.StartCleanup(sh.Context())

	srv := web.NewServer(sh.Context(), jobMgr, enrichFn, log)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Router(),
	}

	sh.AddCleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Warn("HTTP server shutdown: %v", err)
		}
	})

	log.Info("Listening on http://%s", cfg.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
