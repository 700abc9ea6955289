package tracklist

import (
	"fmt"
	"os"

	"setlist/internal/recognizer"
)

// Sink is the append-only results file for one run. Every write opens,
// appends and closes the file, so tracks recognized before a crash
// survive it.
type Sink struct {
	path string
}

// NewSink creates a Sink writing to path. The file itself is created by
// Init or by the first append.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// Path returns the results file path.
func (s *Sink) Path() string {
	return s.path
}

// Init truncates the results file and writes an opening banner followed
// by a blank line.
func (s *Sink) Init(banner string) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create results file %s: %w", s.path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "===== %s ======\n\n", banner); err != nil {
		return fmt.Errorf("failed to write banner to %s: %w", s.path, err)
	}
	return nil
}

// WriteHeader appends the per-file header line.
func (s *Sink) WriteHeader(baseName string) error {
	return s.append(fmt.Sprintf("===== %s ======\n", baseName))
}

// WriteTrack appends one canonical track line. The not-found sentinel is
// progress-only and is never persisted.
func (s *Sink) WriteTrack(track string) error {
	if track == recognizer.Sentinel {
		return nil
	}
	return s.append(track + "\n")
}

// WriteSeparator appends the blank line that closes a file's section.
func (s *Sink) WriteSeparator() error {
	return s.append("\n")
}

func (s *Sink) append(line string) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open results file %s: %w", s.path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write to results file %s: %w", s.path, err)
	}
	return nil
}
