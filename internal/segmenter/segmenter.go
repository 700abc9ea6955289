package segmenter

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.senan.xyz/taglib"

	"setlist/internal/config"
	"setlist/internal/logger"
)

// Segment is one fixed-length slice of a source recording. Index is
// 1-based and chronological; the last segment holds the remainder and
// may be shorter than the window.
type Segment struct {
	Index  int
	Start  time.Duration
	Length time.Duration
	Path   string
}

// Plan computes the segment layout for a recording of the given
// duration: ceil(duration/window) segments, the last one carrying
// duration mod window when that is nonzero.
func Plan(duration, window time.Duration) []Segment {
	if duration <= 0 || window <= 0 {
		return nil
	}

	var segments []Segment
	for start, idx := time.Duration(0), 1; start < duration; start, idx = start+window, idx+1 {
		length := window
		if remaining := duration - start; remaining < window {
			length = remaining
		}
		segments = append(segments, Segment{Index: idx, Start: start, Length: length})
	}
	return segments
}

// Segmenter slices an audio file into window-length mp3 segments,
// exporting them concurrently with a bounded worker pool.
type Segmenter struct {
	Config config.Config
	Logger *logger.Logger
}

// New creates a new Segmenter instance.
func New(cfg config.Config, log *logger.Logger) *Segmenter {
	return &Segmenter{Config: cfg, Logger: log}
}

// Probe reads the audio properties of path and returns its duration.
func (s *Segmenter) Probe(path string) (time.Duration, error) {
	props, err := taglib.ReadProperties(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read audio properties of %s: %w", path, err)
	}
	if props.Length <= 0 {
		return 0, fmt.Errorf("audio file %s reports zero duration", path)
	}
	return props.Length, nil
}

// Split materializes the segments of audioFile into outDir as
// "<index>.mp3". A failed probe aborts the whole file; a failed export
// of a single segment is logged and that segment is simply absent.
// Returns the segments that exported successfully, in index order.
func (s *Segmenter) Split(ctx context.Context, audioFile, outDir string) ([]Segment, error) {
	duration, err := s.Probe(audioFile)
	if err != nil {
		return nil, err
	}

	segments := Plan(duration, s.Config.SegmentLength())
	s.Logger.Debug("Segmenting %s: %d segments of up to %s", audioFile, len(segments), s.Config.SegmentLength())

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, s.Config.ExportWorkers)
	var failedMu sync.Mutex
	var failed []int

	for i := range segments {
		segments[i].Path = filepath.Join(outDir, fmt.Sprintf("%d.mp3", segments[i].Index))

		wg.Add(1)
		go func(seg Segment) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := s.export(ctx, audioFile, seg); err != nil {
				s.Logger.Warn("Failed to export segment %d: %v", seg.Index, err)
				failedMu.Lock()
				failed = append(failed, seg.Index)
				failedMu.Unlock()
			}
		}(segments[i])
	}

	wg.Wait()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("segmentation cancelled")
	}

	if len(failed) == 0 {
		return segments, nil
	}
	if len(failed) == len(segments) {
		return nil, fmt.Errorf("all %d segments of %s failed to export", len(segments), audioFile)
	}

	s.Logger.Warn("%d of %d segments failed to export and will be skipped", len(failed), len(segments))

	failedSet := make(map[int]bool, len(failed))
	for _, idx := range failed {
		failedSet[idx] = true
	}
	kept := segments[:0]
	for _, seg := range segments {
		if !failedSet[seg.Index] {
			kept = append(kept, seg)
		}
	}
	return kept, nil
}

// export cuts one segment out of the source with ffmpeg. The stream is
// copied, not re-encoded, so exports stay cheap enough to parallelize.
func (s *Segmenter) export(ctx context.Context, audioFile string, seg Segment) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-v", "quiet",
		"-ss", formatSeconds(seg.Start),
		"-t", formatSeconds(seg.Length),
		"-i", audioFile,
		"-acodec", "copy",
		seg.Path,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}
	return nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// ListSegments returns the segment files in dir sorted by their numeric
// index. A lexical sort would put "10.mp3" before "2.mp3" and corrupt
// the chronology of the tracklist.
func ListSegments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list segment directory %s: %w", dir, err)
	}

	type indexed struct {
		index int
		path  string
	}

	var files []indexed
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		idx, err := strconv.Atoi(stem)
		if err != nil {
			continue
		}
		files = append(files, indexed{index: idx, path: filepath.Join(dir, e.Name())})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}
