package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"setlist/internal/config"
	"setlist/internal/downloader"
	"setlist/internal/logger"
	"setlist/internal/pipeline"
	"setlist/internal/progress"
	"setlist/internal/shutdown"
	"setlist/internal/tracklist"
	"setlist/pkg/utils"
)

func main() {
	// A .env file may carry the recognition API key; absence is fine.
	godotenv.Load()

	args, cfg, err := parseArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(1)
	}

	sh := shutdown.New()
	sh.Listen()

	log := logger.New(cfg.Debug)
	defer log.Close()

	logDir := config.GetDefaultLogPath()
	if err := os.MkdirAll(logDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
	} else {
		logFile := filepath.Join(logDir, fmt.Sprintf("setlist_%s.log", time.Now().Format("2006-01-02_15-04-05")))
		if err := log.SetFileLog(logFile); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
		} else {
			log.Debug("Logging to file: %s", logFile)
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Error("Configuration error: %v", err)
		os.Exit(1)
	}

	log.Debug("Checking dependencies...")
	if err := utils.CheckDependencies(); err != nil {
		log.Error("Dependency check failed: %v", err)
		os.Exit(1)
	}

	a := &app{cfg: cfg, log: log, sh: sh}

	switch args.command {
	case "scan", "scan-downloads":
		err = a.runScan()
	case "download":
		err = a.runDownload(args.target)
	case "recognize":
		err = a.runRecognize(args.target)
	default:
		log.Error("Unknown command: %s", args.command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

type app struct {
	cfg config.Config
	log *logger.Logger
	sh  *shutdown.Handler
}

// newPipeline wires progress-bar and summary-table hooks into a fresh
// pipeline. The bar owns the terminal between segmentation and the end
// of each file; detailed lines keep flowing to the log file.
func (a *app) newPipeline() *pipeline.Pipeline {
	pipe := pipeline.New(a.cfg, a.log)

	var bar *progress.Bar
	pipe.Hooks = pipeline.Hooks{
		OnSegmentsReady: func(total int) {
			if !a.cfg.Debug && total > 0 {
				bar = progress.New(total)
				a.log.SetProgressBar(true)
			}
		},
		OnProgress: func() {
			if bar != nil {
				bar.Increment()
			}
		},
		OnFileDone: func(file string, tracks []string) {
			if bar != nil {
				bar.Finish()
				a.log.SetProgressBar(false)
				bar = nil

				if len(tracks) > 0 {
					fmt.Println(renderTracklist(tracks))
				}
			}
		},
	}
	return pipe
}

// runScan recognizes every MP3 already sitting in the downloads directory.
func (a *app) runScan() error {
	a.log.Info("Scanning '%s' directory for MP3 files...", a.cfg.DownloadsDir)

	if err := utils.EnsureDir(a.cfg.DownloadsDir); err != nil {
		return err
	}

	files, err := utils.FindMP3Files(a.cfg.DownloadsDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		a.log.Warn("No MP3 files found in '%s' directory.", a.cfg.DownloadsDir)
		return nil
	}

	sink, err := a.newSink(timestampedName(), fmt.Sprintf("Scan results for %s directory", a.cfg.DownloadsDir))
	if err != nil {
		return err
	}

	a.log.Info("Starting processing...")
	return a.newPipeline().RunBatch(a.sh.Context(), files, sink)
}

// runDownload fetches a URL's audio into the downloads directory and
// recognizes everything found there afterwards.
func (a *app) runDownload(url string) error {
	if url == "" {
		return fmt.Errorf("missing URL. Usage: setlist download <url> [--debug]")
	}

	dl := downloader.New(a.cfg, a.log)
	title, err := dl.Download(a.sh.Context(), url)
	if err != nil {
		return err
	}

	files, err := utils.FindMP3Files(a.cfg.DownloadsDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		a.log.Warn("No MP3 files found in '%s' directory.", a.cfg.DownloadsDir)
		return nil
	}

	sink, err := a.newSink(resultsName(title), "Download Results")
	if err != nil {
		return err
	}

	return a.newPipeline().RunBatch(a.sh.Context(), files, sink)
}

// runRecognize handles a local audio file, or downloads a URL first and
// recognizes the newest file it produced.
func (a *app) runRecognize(target string) error {
	if target == "" {
		return fmt.Errorf("missing file path or URL. Usage: setlist recognize <file_or_url> [--debug]")
	}

	if downloader.IsURL(target) {
		a.log.Info("URL detected: %s", downloader.SanitizeURL(target))

		dl := downloader.New(a.cfg, a.log)
		title, err := dl.Download(a.sh.Context(), target)
		if err != nil {
			return err
		}

		files, err := utils.FindMP3Files(a.cfg.DownloadsDir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no MP3 files found in '%s' directory after download", a.cfg.DownloadsDir)
		}

		newest, err := utils.NewestFile(files)
		if err != nil {
			return err
		}

		sink, err := a.newSink(resultsName(title), "Recognition Results")
		if err != nil {
			return err
		}

		return a.newPipeline().RunBatch(a.sh.Context(), []string{newest}, sink)
	}

	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("file '%s' not found", target)
	}

	sink, err := a.newSink(timestampedName(), "Recognition Results")
	if err != nil {
		return err
	}

	return a.newPipeline().RunBatch(a.sh.Context(), []string{target}, sink)
}

// newSink creates the results file inside the results directory and
// writes its opening banner.
func (a *app) newSink(name, banner string) (*tracklist.Sink, error) {
	if err := utils.EnsureDir(a.cfg.ResultsDir); err != nil {
		return nil, err
	}

	sink := tracklist.NewSink(filepath.Join(a.cfg.ResultsDir, name))
	if err := sink.Init(banner); err != nil {
		return nil, err
	}

	a.log.Debug("Created results file: %s", sink.Path())
	return sink, nil
}

func timestampedName() string {
	return fmt.Sprintf("songs-%s.txt", time.Now().Format("020106-150405"))
}

// resultsName derives the results file name from the media title,
// falling back to a timestamp when the title sanitizes to nothing.
func resultsName(title string) string {
	if safe := utils.SanitizeTitle(title); safe != "" {
		return safe + ".txt"
	}
	return timestampedName()
}
