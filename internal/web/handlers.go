package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"setlist/internal/downloader"
	"setlist/internal/pipeline"
	"setlist/internal/tracklist"
	"setlist/pkg/utils"
)

type RecognizeRequest struct {
	URL string `json:"url"`
}

type JobResponse struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Status      JobStatus `json:"status"`
	Progress    int       `json:"progress"`
	Total       int       `json:"total"`
	Tracks      []string  `json:"tracks"`
	ResultsFile string    `json:"results_file,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   string    `json:"created_at"`
	StartedAt   *string   `json:"started_at,omitempty"`
	CompletedAt *string   `json:"completed_at,omitempty"`
}

func (s *Server) handleRecognize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RecognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.URL == "" {
		http.Error(w, "URL is required", http.StatusBadRequest)
		return
	}

	// Reject disallowed URLs before a job ever exists.
	if err := downloader.ValidateURL(req.URL); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := s.jobMgr.CreateJob(req.URL, s.config)
	s.logger.Info("Created job %s for URL: %s", job.ID, downloader.SanitizeURL(req.URL))

	go s.processJob(job)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.jobToResponse(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobs := s.jobMgr.ListJobs()
	responses := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = s.jobToResponse(job)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	// Extract job ID from path: /api/jobs/{id} or /api/jobs/{id}/cancel
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	if r.Method == http.MethodGet && len(parts) == 1 {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(s.jobToResponse(job))
		return
	}

	if r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "cancel" {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		if job.Cancel != nil {
			job.Cancel()
		}

		s.jobMgr.UpdateJob(jobID, func(j *Job) {
			j.Status = StatusCancelled
		})

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "cancelled"})
		return
	}

	http.Error(w, "Invalid request", http.StatusBadRequest)
}

// processJob downloads the job's URL into a private scratch directory
// and runs the recognition pipeline over every mp3 it produced.
func (s *Server) processJob(job *Job) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Cancel = cancel
		j.Status = StatusRunning
	})

	s.logger.Info("Starting job %s", job.ID)

	tempDir, err := utils.CreateTempDir()
	if err != nil {
		s.failJob(job.ID, err)
		return
	}
	defer utils.Cleanup(tempDir)

	// Each job downloads into its own directory so concurrent jobs
	// never see each other's files.
	jobConfig := job.Config
	jobConfig.DownloadsDir = tempDir

	dl := downloader.New(jobConfig, s.logger)
	title, err := dl.Download(ctx, job.URL)
	if err != nil {
		s.failJob(job.ID, err)
		return
	}

	files, err := utils.FindMP3Files(tempDir)
	if err != nil {
		s.failJob(job.ID, err)
		return
	}
	if len(files) == 0 {
		s.failJob(job.ID, errors.New("no MP3 files were produced by the download"))
		return
	}

	if err := utils.EnsureDir(jobConfig.ResultsDir); err != nil {
		s.failJob(job.ID, err)
		return
	}
	resultsPath := filepath.Join(jobConfig.ResultsDir, utils.SanitizeTitle(title)+".txt")
	sink := tracklist.NewSink(resultsPath)
	if err := sink.Init("Recognition Results"); err != nil {
		s.failJob(job.ID, err)
		return
	}

	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.ResultsFile = resultsPath
	})

	pipe := pipeline.New(jobConfig, s.logger)
	pipe.Hooks = pipeline.Hooks{
		OnSegmentsReady: func(total int) {
			s.jobMgr.UpdateJob(job.ID, func(j *Job) {
				j.Total = total
				j.Progress = 0
			})
		},
		OnProgress: func() {
			s.jobMgr.UpdateJob(job.ID, func(j *Job) {
				j.Progress++
			})
		},
		OnTrackFound: func(track string) {
			s.jobMgr.UpdateJob(job.ID, func(j *Job) {
				j.Tracks = append(j.Tracks, track)
			})
		},
	}

	if err := pipe.RunBatch(ctx, files, sink); err != nil {
		s.failJob(job.ID, err)
		return
	}

	if ctx.Err() != nil {
		// Cancelled jobs are marked by the cancel handler.
		return
	}

	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusCompleted
	})

	s.logger.Info("Job %s completed successfully", job.ID)
}

func (s *Server) failJob(jobID string, err error) {
	s.logger.Error("Job %s failed: %v", jobID, err)
	s.jobMgr.UpdateJob(jobID, func(j *Job) {
		if j.Status != StatusCancelled {
			j.Status = StatusFailed
			j.Error = err.Error()
		}
	})
}

func (s *Server) jobToResponse(job *Job) *JobResponse {
	resp := &JobResponse{
		ID:          job.ID,
		URL:         job.URL,
		Status:      job.Status,
		Progress:    job.Progress,
		Total:       job.Total,
		Tracks:      append([]string(nil), job.Tracks...),
		ResultsFile: job.ResultsFile,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt.Format(time.DateTime),
	}

	if job.StartedAt != nil {
		started := job.StartedAt.Format(time.DateTime)
		resp.StartedAt = &started
	}

	if job.CompletedAt != nil {
		completed := job.CompletedAt.Format(time.DateTime)
		resp.CompletedAt = &completed
	}

	return resp
}
