package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// APIKeyEnv is the environment variable holding the recognition service
// API key. It is read from the environment (or a .env file loaded by
// main) rather than the config file so the key never lands on disk in
// plain sight next to everything else.
const APIKeyEnv = "SETLIST_API_KEY"

// Config contains the program configuration.
type Config struct {
	DownloadsDir  string `yaml:"downloads_dir"`
	ResultsDir    string `yaml:"results_dir"`
	SegmentMS     int    `yaml:"segment_length_ms"`
	ExportWorkers int    `yaml:"export_workers"`
	MaxAttempts   int    `yaml:"max_attempts"`
	RetryDelayMS  int    `yaml:"retry_delay_ms"`
	PacingDelayMS int    `yaml:"pacing_delay_ms"`
	RecognizeURL  string `yaml:"recognize_url"`
	Debug         bool   `yaml:"debug"`

	// APIKey is populated from the environment, never from YAML.
	APIKey string `yaml:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DownloadsDir:  "downloads",
		ResultsDir:    "recognised-lists",
		SegmentMS:     60_000,
		ExportWorkers: 4,
		MaxAttempts:   3,
		RetryDelayMS:  2000,
		PacingDelayMS: 500,
		RecognizeURL:  "https://api.setlist-recognition.dev/v1/recognize",
	}
}

// SegmentLength returns the segment window as a duration.
func (c *Config) SegmentLength() time.Duration {
	return time.Duration(c.SegmentMS) * time.Millisecond
}

// RetryDelay returns the fixed wait between recognition attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

// PacingDelay returns the wait inserted between consecutive segment
// recognitions to respect the remote service's rate limits.
func (c *Config) PacingDelay() time.Duration {
	return time.Duration(c.PacingDelayMS) * time.Millisecond
}

// LoadConfigFile loads configuration from a YAML file. If path is empty,
// standard locations are searched. Returns defaults if no file is found.
// The recognition API key is always taken from the environment.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	cfg.APIKey = os.Getenv(APIKeyEnv)

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

	cfg.DownloadsDir = ExpandHome(cfg.DownloadsDir)
	cfg.ResultsDir = ExpandHome(cfg.ResultsDir)

	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations.
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./setlist.yaml",
		"./setlist.yml",
		filepath.Join(home, ".config", "setlist", "config.yaml"),
		filepath.Join(home, ".config", "setlist", "config.yml"),
		filepath.Join(home, ".setlist.yaml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile writes the configuration to a YAML file.
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path.
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "setlist", "config.yaml")
}

// GetDefaultLogPath returns the default log directory path.
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "setlist", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SegmentMS < 1000 {
		return fmt.Errorf("segment_length_ms must be at least 1000, got %d", c.SegmentMS)
	}

	if c.ExportWorkers < 1 {
		return fmt.Errorf("export_workers must be at least 1, got %d", c.ExportWorkers)
	}
	if c.ExportWorkers > 16 {
		return fmt.Errorf("export_workers cannot exceed 16, got %d", c.ExportWorkers)
	}

	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}

	if c.RetryDelayMS < 0 || c.PacingDelayMS < 0 {
		return fmt.Errorf("retry and pacing delays cannot be negative")
	}

	if c.RecognizeURL == "" {
		return fmt.Errorf("recognize_url cannot be empty")
	}
	if !strings.HasPrefix(c.RecognizeURL, "http://") && !strings.HasPrefix(c.RecognizeURL, "https://") {
		return fmt.Errorf("recognize_url must start with http:// or https://")
	}

	if c.DownloadsDir == "" {
		return fmt.Errorf("downloads_dir cannot be empty")
	}
	if c.ResultsDir == "" {
		return fmt.Errorf("results_dir cannot be empty")
	}

	return nil
}
