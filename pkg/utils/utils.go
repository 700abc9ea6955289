package utils

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// CheckDependencies verifies that required external commands are installed.
func CheckDependencies() error {
	if _, err := exec.LookPath("yt-dlp"); err != nil {
		return fmt.Errorf("required command 'yt-dlp' not found in PATH. Install with: pip install yt-dlp")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("required command 'ffmpeg' not found in PATH")
	}

	return nil
}

// CreateTempDir creates a temporary folder for audio segments.
func CreateTempDir() (string, error) {
	dir, err := os.MkdirTemp("", "setlist-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary directory: %w", err)
	}
	return dir, nil
}

// Cleanup removes the temporary folder.
// Safety check: only deletes directories under the system temp dir.
func Cleanup(dir string) error {
	if dir == "" {
		return nil
	}

	if !strings.HasPrefix(filepath.Clean(dir), filepath.Clean(os.TempDir())) {
		return fmt.Errorf("refusing to delete directory outside temp folder: %s", dir)
	}

	return os.RemoveAll(dir)
}

// EnsureDir creates dir if it does not exist yet.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FindMP3Files lists the .mp3 files directly inside dir, sorted by name
// for a stable processing order. Symlinks are skipped.
func FindMP3Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".mp3") {
			continue
		}
		if e.Type()&os.ModeSymlink != 0 {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}

	sort.Strings(files)
	return files, nil
}

// NewestFile returns the most recently modified file among paths.
func NewestFile(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("no files to choose from")
	}

	var newest string
	var newestTime time.Time
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = p
			newestTime = info.ModTime()
		}
	}

	if newest == "" {
		return "", fmt.Errorf("none of the candidate files could be read")
	}
	return newest, nil
}

var (
	unsafeTitleChars = regexp.MustCompile(`[^\w\s\-\(\)]`)
	titleWhitespace  = regexp.MustCompile(`\s+`)
)

// SanitizeTitle turns a media title into a safe file name stem.
func SanitizeTitle(title string) string {
	s := unsafeTitleChars.ReplaceAllString(title, "")
	s = strings.TrimSpace(s)
	return titleWhitespace.ReplaceAllString(s, "_")
}
