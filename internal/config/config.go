package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"trackdex/internal/enrich"
	"trackdex/internal/music"
)

// Config contains the program configuration
type Config struct {
	DBPath     string `yaml:"db_path"`
	Verbose    bool   `yaml:"verbose"`
	Workers    int    `yaml:"workers"`
	CacheDir   string `yaml:"cache_dir"`
	ListenAddr string `yaml:"listen_addr"`

	GetSongBPMAPIKey string `yaml:"getsongbpm_api_key"`

	ProviderPriority     map[string][]string           `yaml:"provider_priority"`
	ConfidenceThresholds map[string]float64            `yaml:"confidence_thresholds"`
	ProviderOverrides    map[string]map[string]float64 `yaml:"provider_overrides"`
	FirstWriteGated      []string                      `yaml:"first_write_gated"`
	DurationTolerance    int                           `yaml:"duration_tolerance_seconds"`
	MaxProvidersPerGroup int                           `yaml:"max_providers_per_field_group"`
	MinTrust             float64                       `yaml:"min_trust"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		DBPath:     filepath.Join(homeDir(), ".local", "share", "trackdex", "trackdex.db"),
		Workers:    1,
		ListenAddr: "localhost:8765",
		ProviderPriority: map[string][]string{
			"tempo":    {"getsongbpm", "acousticbrainz"},
			"metadata": {"deezer"},
		},
		ConfidenceThresholds: map[string]float64{"bpm": 0.7},
		FirstWriteGated:      []string{"bpm"},
		DurationTolerance:    2,
		MinTrust:             0.5,
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.DBPath = ExpandHome(cfg.DBPath)
	cfg.CacheDir = ExpandHome(cfg.CacheDir)

	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./trackdex.yaml",
		"./trackdex.yml",
		filepath.Join(home, ".config", "trackdex", "config.yaml"),
		filepath.Join(home, ".config", "trackdex", "config.yml"),
		filepath.Join(home, ".trackdex.yaml"),
		filepath.Join(home, ".trackdex.yml"),
	}

	for _, path := range locations {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "trackdex", "config.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "trackdex", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

var validGroups = map[string]bool{"tempo": true, "metadata": true, "credits": true}

var validFields = map[string]bool{
	"bpm":         true,
	"musical_key": true,
	"duration":    true,
	"genre":       true,
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path cannot be empty")
	}

	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Workers > 8 {
		return fmt.Errorf("workers cannot exceed 8 (to avoid provider bans), got %d", c.Workers)
	}

	if len(c.ProviderPriority) == 0 {
		return fmt.Errorf("provider_priority cannot be empty")
	}
	for group := range c.ProviderPriority {
		if !validGroups[group] {
			return fmt.Errorf("unknown field group %q, valid groups: tempo, metadata, credits", group)
		}
	}

	for field, threshold := range c.ConfidenceThresholds {
		if !validFields[field] {
			return fmt.Errorf("unknown field %q in confidence_thresholds", field)
		}
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("threshold for %s must be between 0.0 and 1.0, got %.2f", field, threshold)
		}
	}
	for _, field := range c.FirstWriteGated {
		if !validFields[field] {
			return fmt.Errorf("unknown field %q in first_write_gated", field)
		}
	}

	if c.DurationTolerance < 0 {
		return fmt.Errorf("duration_tolerance_seconds cannot be negative, got %d", c.DurationTolerance)
	}
	if c.MinTrust < 0 || c.MinTrust > 1 {
		return fmt.Errorf("min_trust must be between 0.0 and 1.0, got %.2f", c.MinTrust)
	}

	return nil
}

// Pipeline converts the file-level settings into the enrichment policy.
func (c *Config) Pipeline() enrich.Config {
	priority := make(map[enrich.FieldGroup][]string, len(c.ProviderPriority))
	for group, names := range c.ProviderPriority {
		priority[enrich.FieldGroup(group)] = names
	}

	thresholds := make(map[music.FieldKey]float64, len(c.ConfidenceThresholds))
	for field, th := range c.ConfidenceThresholds {
		thresholds[music.FieldKey(field)] = th
	}

	overrides := make(map[string]map[music.FieldKey]float64, len(c.ProviderOverrides))
	for provider, per := range c.ProviderOverrides {
		m := make(map[music.FieldKey]float64, len(per))
		for field, th := range per {
			m[music.FieldKey(field)] = th
		}
		overrides[provider] = m
	}

	gated := make([]music.FieldKey, 0, len(c.FirstWriteGated))
	for _, field := range c.FirstWriteGated {
		gated = append(gated, music.FieldKey(field))
	}

	return enrich.Config{
		ProviderPriority:     priority,
		ConfidenceThresholds: thresholds,
		ProviderOverrides:    overrides,
		FirstWriteGated:      gated,
		DurationToleranceSec: c.DurationTolerance,
		MaxProvidersPerGroup: c.MaxProvidersPerGroup,
		MinTrust:             c.MinTrust,
	}
}
