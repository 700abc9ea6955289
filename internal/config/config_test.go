package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SegmentMS != 60_000 {
		t.Errorf("SegmentMS = %d, want 60000", cfg.SegmentMS)
	}
	if cfg.ExportWorkers != 4 {
		t.Errorf("ExportWorkers = %d, want 4", cfg.ExportWorkers)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.RetryDelay() != 2*time.Second {
		t.Errorf("RetryDelay() = %s, want 2s", cfg.RetryDelay())
	}
	if cfg.PacingDelay() != 500*time.Millisecond {
		t.Errorf("PacingDelay() = %s, want 500ms", cfg.PacingDelay())
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "setlist.yaml")

	content := []byte("segment_length_ms: 30000\nexport_workers: 2\ndownloads_dir: music\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}

	if cfg.SegmentMS != 30000 {
		t.Errorf("SegmentMS = %d, want 30000", cfg.SegmentMS)
	}
	if cfg.ExportWorkers != 2 {
		t.Errorf("ExportWorkers = %d, want 2", cfg.ExportWorkers)
	}
	if cfg.DownloadsDir != "music" {
		t.Errorf("DownloadsDir = %q, want %q", cfg.DownloadsDir, "music")
	}
	// Unset fields keep their defaults
	if cfg.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want default 3", cfg.MaxAttempts)
	}
}

func TestLoadConfigFileMissing(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing config file should fall back to defaults, got: %v", err)
	}
	if cfg.SegmentMS != DefaultConfig().SegmentMS {
		t.Error("expected default config for missing file")
	}
}

func TestLoadConfigFileAPIKeyFromEnv(t *testing.T) {
	t.Setenv(APIKeyEnv, "secret-key")

	cfg, err := LoadConfigFile("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey != "secret-key" {
		t.Errorf("APIKey = %q, want %q", cfg.APIKey, "secret-key")
	}
}

func TestSaveAndReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.SegmentMS = 45_000

	if err := SaveConfigFile(cfg, path); err != nil {
		t.Fatalf("SaveConfigFile() error: %v", err)
	}

	loaded, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}
	if loaded.SegmentMS != 45_000 {
		t.Errorf("SegmentMS = %d, want 45000", loaded.SegmentMS)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"segment too short", func(c *Config) { c.SegmentMS = 500 }, true},
		{"zero workers", func(c *Config) { c.ExportWorkers = 0 }, true},
		{"too many workers", func(c *Config) { c.ExportWorkers = 32 }, true},
		{"zero attempts", func(c *Config) { c.MaxAttempts = 0 }, true},
		{"negative pacing", func(c *Config) { c.PacingDelayMS = -1 }, true},
		{"empty recognize url", func(c *Config) { c.RecognizeURL = "" }, true},
		{"bad recognize url scheme", func(c *Config) { c.RecognizeURL = "ftp://x" }, true},
		{"empty downloads dir", func(c *Config) { c.DownloadsDir = "" }, true},
		{"empty results dir", func(c *Config) { c.ResultsDir = "" }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()

	if got := ExpandHome("~/music"); got != filepath.Join(home, "music") {
		t.Errorf("ExpandHome(~/music) = %q", got)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandHome(/abs/path) = %q", got)
	}
}
