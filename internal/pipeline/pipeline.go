// Package pipeline drives the segmentation-recognition-aggregation flow
// for one or more audio files: slice each file into windows, recognize
// the windows in chronological order against the remote service, and
// aggregate the distinct tracks into an ordered tracklist.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"setlist/internal/config"
	"setlist/internal/logger"
	"setlist/internal/recognizer"
	"setlist/internal/segmenter"
	"setlist/internal/tracklist"
	"setlist/pkg/utils"
)

// Hooks let callers observe pipeline progress without the pipeline
// knowing about progress bars or web jobs.
type Hooks struct {
	OnSegmentsReady func(total int)
	OnProgress      func()
	OnTrackFound    func(track string)
	OnFileDone      func(file string, tracks []string)
}

// Pipeline processes audio files into tracklists.
type Pipeline struct {
	Config     config.Config
	Logger     *logger.Logger
	Recognizer recognizer.Recognizer
	Segmenter  *segmenter.Segmenter
	Hooks      Hooks
}

// New creates a Pipeline with the retry-wrapped recognition client.
func New(cfg config.Config, log *logger.Logger) *Pipeline {
	client := recognizer.New(cfg.RecognizeURL, cfg.APIKey, log)
	return &Pipeline{
		Config:     cfg,
		Logger:     log,
		Recognizer: recognizer.NewRetrier(client, cfg.MaxAttempts, cfg.RetryDelay()),
		Segmenter:  segmenter.New(cfg, log),
	}
}

// RunBatch processes every file in files in order, numbering progress.
// An empty candidate set is a normal outcome, not an error. A file that
// fails to process is logged and the batch moves on.
func (p *Pipeline) RunBatch(ctx context.Context, files []string, sink *tracklist.Sink) error {
	if len(files) == 0 {
		p.Logger.Warn("No MP3 files found in '%s' directory.", p.Config.DownloadsDir)
		return nil
	}

	p.Logger.Info("Found %d MP3 file(s) to process...", len(files))

	for i, file := range files {
		if ctx.Err() != nil {
			return fmt.Errorf("batch cancelled")
		}

		tracks, err := p.ProcessFile(ctx, file, sink, i+1, len(files))
		if err != nil {
			p.Logger.Error("Error processing %s: %v", file, err)
			continue
		}
		if p.Hooks.OnFileDone != nil {
			p.Hooks.OnFileDone(file, tracks)
		}
	}

	p.Logger.Info("\nAll files processed!")
	p.Logger.Info("Results saved to %s", sink.Path())
	return nil
}

// ProcessFile runs the full per-file pipeline: header, scratch
// directory, segmentation, ordered recognition, separator and summary.
// It returns the distinct tracks found, in discovery order. Only a
// decode failure aborts the file; sink write failures are logged and
// processing continues in memory.
func (p *Pipeline) ProcessFile(ctx context.Context, audioFile string, sink *tracklist.Sink, fileIndex, totalFiles int) ([]string, error) {
	if totalFiles > 2 {
		p.Logger.Info("\n[%d/%d] Processing file: %s", fileIndex, totalFiles, audioFile)
	} else {
		p.Logger.Info("\nProcessing file: %s", audioFile)
	}

	if err := sink.WriteHeader(filepath.Base(audioFile)); err != nil {
		p.Logger.Error("Error writing header for %s: %v", audioFile, err)
		return nil, nil
	}

	tmpDir, err := utils.CreateTempDir()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := utils.Cleanup(tmpDir); err != nil {
			p.Logger.Warn("Error removing segment directory: %v", err)
		}
	}()

	p.Logger.Info("1/2 Segmenting audio file...")
	if _, err := p.Segmenter.Split(ctx, audioFile, tmpDir); err != nil {
		return nil, fmt.Errorf("failed to segment %s: %w", audioFile, err)
	}

	segments, err := segmenter.ListSegments(tmpDir)
	if err != nil {
		return nil, err
	}
	p.Logger.Debug("Found %d segments to process", len(segments))

	if p.Hooks.OnSegmentsReady != nil {
		p.Hooks.OnSegmentsReady(len(segments))
	}

	p.Logger.Info("2/2 Recognizing segments...")
	set := tracklist.NewSet()
	p.RecognizeSegments(ctx, segments, set, sink)

	if err := sink.WriteSeparator(); err != nil {
		p.Logger.Error("Error writing separator for %s: %v", audioFile, err)
	}

	tracks := set.Tracks()
	if len(tracks) > 0 {
		p.Logger.Info("\n--- Tracklist (%d tracks) ---", len(tracks))
		for i, track := range tracks {
			p.Logger.Info("  %d. %s", i+1, track)
		}
		p.Logger.Info("---")
	}

	p.Logger.Info("Successfully processed file: %s", audioFile)
	p.Logger.Debug("Found %d unique tracks in %s", len(tracks), audioFile)
	return tracks, nil
}

// RecognizeSegments is the recognition sequencer: strictly sequential,
// in segment index order, with a pacing delay between calls. Each newly
// discovered track is appended to the sink immediately so partial
// progress survives a crash.
func (p *Pipeline) RecognizeSegments(ctx context.Context, segments []string, set *tracklist.Set, sink *tracklist.Sink) {
	total := len(segments)

	for i, segPath := range segments {
		if ctx.Err() != nil {
			p.Logger.Warn("Recognition cancelled after %d of %d segments", i, total)
			return
		}

		result := p.Recognizer.Recognize(ctx, segPath)
		p.Logger.Info("[%d/%d]: %s", i+1, total, result)

		if result.Found && set.Add(result.Track) {
			p.Logger.Debug("Added new unique track: %s", result.Track)
			if err := sink.WriteTrack(result.Track); err != nil {
				p.Logger.Error("Error writing track to results file: %v", err)
			}
			if p.Hooks.OnTrackFound != nil {
				p.Hooks.OnTrackFound(result.Track)
			}
		}

		if p.Hooks.OnProgress != nil {
			p.Hooks.OnProgress()
		}

		// Throttle request rate independent of per-call latency.
		if i+1 < total {
			p.pace(ctx)
		}
	}
}

func (p *Pipeline) pace(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(p.Config.PacingDelay()):
	}
}
