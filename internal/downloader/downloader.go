package downloader

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"setlist/internal/config"
	"setlist/internal/logger"
	"setlist/pkg/utils"
)

// allowedDomains is the exhaustive set of hosts we will download from.
// Anything else is rejected before any network access happens.
var allowedDomains = map[string]bool{
	"youtube.com":        true,
	"www.youtube.com":    true,
	"m.youtube.com":      true,
	"youtu.be":           true,
	"soundcloud.com":     true,
	"www.soundcloud.com": true,
	"m.soundcloud.com":   true,
}

// ValidateURL checks the URL scheme and domain against the allowlist.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %q", parsed.Scheme)
	}
	if !allowedDomains[parsed.Hostname()] {
		return fmt.Errorf("unsupported domain: %q (allowed: YouTube, SoundCloud)", parsed.Hostname())
	}
	return nil
}

// IsURL reports whether s looks like an http(s) URL rather than a file path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// SanitizeURL strips query parameters and fragments before logging, so
// tokens embedded in share links never reach the log file.
func SanitizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

// Downloader retrieves audio from an allowed URL into the downloads
// directory using yt-dlp.
type Downloader struct {
	Config config.Config
	Logger *logger.Logger
}

// New creates a new Downloader instance.
func New(cfg config.Config, log *logger.Logger) *Downloader {
	return &Downloader{Config: cfg, Logger: log}
}

// Download validates the URL, fetches its audio as mp3 into the
// downloads directory and returns the media title.
func (d *Downloader) Download(ctx context.Context, rawURL string) (string, error) {
	if err := ValidateURL(rawURL); err != nil {
		return "", err
	}

	if err := utils.EnsureDir(d.Config.DownloadsDir); err != nil {
		return "", err
	}

	safeURL := SanitizeURL(rawURL)
	d.Logger.Info("Starting download...")
	d.Logger.Debug("Downloading from: %s", safeURL)

	outputTemplate := filepath.Join(d.Config.DownloadsDir, "%(title)s.%(ext)s")
	cmd := exec.CommandContext(ctx, "yt-dlp",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", "192",
		"-f", "bestaudio/best",
		"--restrict-filenames",
		"--no-simulate",
		"--print", "title",
		"-o", outputTemplate,
		rawURL,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("download cancelled")
		}
		return "", fmt.Errorf("yt-dlp failed for %s: %w\nDetails: %s", safeURL, err, stderr.String())
	}

	title := firstLine(&stdout)
	if title == "" {
		title = "Unknown Title"
	}

	if err := d.verifyDownloadDir(); err != nil {
		d.Logger.Warn("Download directory check: %v", err)
	}

	d.Logger.Info("Successfully downloaded: %s!", title)
	return title, nil
}

func firstLine(buf *bytes.Buffer) string {
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}

// verifyDownloadDir removes anything that resolved outside the downloads
// directory, e.g. through a symlink planted between runs.
func (d *Downloader) verifyDownloadDir() error {
	realDir, err := filepath.EvalSymlinks(d.Config.DownloadsDir)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(d.Config.DownloadsDir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		path := filepath.Join(d.Config.DownloadsDir, e.Name())
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(real, realDir+string(os.PathSeparator)) {
			d.Logger.Error("Security: %s resolved outside the download directory, removing", e.Name())
			os.Remove(path)
		}
	}
	return nil
}
