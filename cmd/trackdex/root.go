package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"trackdex/internal/cache"
	"trackdex/internal/config"
	"trackdex/internal/enrich"
	"trackdex/internal/logger"
	"trackdex/internal/provider/acousticbrainz"
	"trackdex/internal/provider/deezer"
	"trackdex/internal/provider/getsongbpm"
	"trackdex/internal/store"
)

var (
	cfgFile     string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "trackdex",
	Short: "Multi-source music metadata enrichment",
	Long: `trackdex enriches a local music database with tempo, key, duration,
genre and credits data pulled from several public providers, reconciling
conflicting answers by source priority and confidence.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ./trackdex.yaml and ~/.config/trackdex/)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfigFile(cfgFile)
	if err != nil {
		return cfg, err
	}
	if verboseFlag {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger. Non-verbose runs additionally log to a
// timestamped file so the console stays clean for the progress bar.
func newLogger(cfg config.Config) *logger.Logger {
	log := logger.New(cfg.Verbose)

	if !cfg.Verbose {
		logDir := config.GetDefaultLogPath()
		if err := os.MkdirAll(logDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
		} else {
			logFile := filepath.Join(logDir, fmt.Sprintf("trackdex_%s.log", time.Now().Format("2006-01-02_15-04-05")))
			if err := log.SetFileLog(logFile); err != nil {
				fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
			} else {
				log.Debug("Logging to file: %s", logFile)
			}
		}
	}

	return log
}

func openStore(cfg config.Config) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return store.Open(cfg.DBPath)
}

func buildProviders(cfg config.Config, log *logger.Logger) []enrich.Provider {
	providers := []enrich.Provider{
		deezer.New(),
		acousticbrainz.New(),
	}

	if cfg.GetSongBPMAPIKey == "" {
		log.Warn("getsongbpm_api_key not set, the getsongbpm provider is disabled")
		return providers
	}

	var c *cache.Cache
	if cfg.CacheDir != "" {
		var err error
		c, err = cache.New(cfg.CacheDir)
		if err != nil {
			log.Warn("Failed to create cache directory %s: %v", cfg.CacheDir, err)
			c = nil
		}
	}

	return append(providers, getsongbpm.New(cfg.GetSongBPMAPIKey, c))
}
