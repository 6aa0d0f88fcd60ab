package config

import (
	"os"
	"path/filepath"
	"testing"

	"trackdex/internal/enrich"
	"trackdex/internal/music"
)

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			DBPath:  "/tmp/trackdex.db",
			Workers: 1,
			ProviderPriority: map[string][]string{
				"tempo": {"getsongbpm", "acousticbrainz"},
			},
			ConfidenceThresholds: map[string]float64{"bpm": 0.7},
			FirstWriteGated:      []string{"bpm"},
			DurationTolerance:    2,
			MinTrust:             0.5,
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:    "empty db path",
			modify:  func(c *Config) { c.DBPath = "" },
			wantErr: true,
		},
		{
			name:    "workers 0",
			modify:  func(c *Config) { c.Workers = 0 },
			wantErr: true,
		},
		{
			name:   "workers 8",
			modify: func(c *Config) { c.Workers = 8 },
		},
		{
			name:    "workers 9",
			modify:  func(c *Config) { c.Workers = 9 },
			wantErr: true,
		},
		{
			name:    "no priorities",
			modify:  func(c *Config) { c.ProviderPriority = nil },
			wantErr: true,
		},
		{
			name: "unknown field group",
			modify: func(c *Config) {
				c.ProviderPriority["lyrics"] = []string{"genius"}
			},
			wantErr: true,
		},
		{
			name: "unknown threshold field",
			modify: func(c *Config) {
				c.ConfidenceThresholds["loudness"] = 0.5
			},
			wantErr: true,
		},
		{
			name: "threshold above 1",
			modify: func(c *Config) {
				c.ConfidenceThresholds["bpm"] = 1.1
			},
			wantErr: true,
		},
		{
			name:   "threshold 0.0",
			modify: func(c *Config) { c.ConfidenceThresholds["bpm"] = 0.0 },
		},
		{
			name:    "unknown gated field",
			modify:  func(c *Config) { c.FirstWriteGated = []string{"loudness"} },
			wantErr: true,
		},
		{
			name:    "negative duration tolerance",
			modify:  func(c *Config) { c.DurationTolerance = -1 },
			wantErr: true,
		},
		{
			name:   "zero duration tolerance",
			modify: func(c *Config) { c.DurationTolerance = 0 },
		},
		{
			name:    "min trust above 1",
			modify:  func(c *Config) { c.MinTrust = 1.5 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `db_path: /tmp/test.db
workers: 4
min_trust: 0.6
provider_priority:
  tempo: [rapedia, getsongbpm]
provider_overrides:
  acousticbrainz:
    bpm: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}

	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q, want /tmp/test.db", cfg.DBPath)
	}
	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.MinTrust != 0.6 {
		t.Errorf("MinTrust = %f, want 0.6", cfg.MinTrust)
	}
	if got := cfg.ProviderPriority["tempo"]; len(got) != 2 || got[0] != "rapedia" {
		t.Errorf("tempo priority = %v, want [rapedia getsongbpm]", got)
	}
	if cfg.ProviderOverrides["acousticbrainz"]["bpm"] != 0.5 {
		t.Errorf("acousticbrainz bpm override = %v, want 0.5", cfg.ProviderOverrides["acousticbrainz"])
	}
	// Defaults survive a partial file.
	if cfg.ConfidenceThresholds["bpm"] != 0.7 {
		t.Errorf("bpm threshold = %f, want default 0.7", cfg.ConfidenceThresholds["bpm"])
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	cfg, err := LoadConfigFile("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfigFile() should return defaults for missing file, got error: %v", err)
	}
	if cfg.Workers != 1 {
		t.Errorf("expected default Workers=1, got %d", cfg.Workers)
	}
	if len(cfg.ProviderPriority["tempo"]) == 0 {
		t.Error("expected a default tempo priority list")
	}
}

func TestExpandHome(t *testing.T) {
	home := homeDir()
	tests := []struct {
		input string
		want  string
	}{
		{"~/Music", filepath.Join(home, "Music")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~notslash", "~notslash"},
	}

	for _, tt := range tests {
		got := ExpandHome(tt.input)
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPipeline(t *testing.T) {
	cfg := DefaultConfig()
	pipeline := cfg.Pipeline()

	if got := pipeline.ProviderPriority[enrich.GroupTempo]; len(got) == 0 {
		t.Fatal("tempo priority lost in conversion")
	}
	if pipeline.ConfidenceThresholds[music.FieldBPM] != 0.7 {
		t.Errorf("bpm threshold = %f, want 0.7", pipeline.ConfidenceThresholds[music.FieldBPM])
	}
	if len(pipeline.FirstWriteGated) != 1 || pipeline.FirstWriteGated[0] != music.FieldBPM {
		t.Errorf("first write gated = %v, want [bpm]", pipeline.FirstWriteGated)
	}
	if pipeline.DurationToleranceSec != 2 {
		t.Errorf("duration tolerance = %d, want 2", pipeline.DurationToleranceSec)
	}
}
