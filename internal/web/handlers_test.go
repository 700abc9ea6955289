package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"setlist/internal/config"
	"setlist/internal/logger"
)

func newTestServer() *Server {
	return NewServer(NewJobManager(), config.DefaultConfig(), logger.New(false))
}

func TestHandleRecognizeRejectsDisallowedDomain(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/recognize",
		strings.NewReader(`{"url":"https://example.com/x"}`))
	rec := httptest.NewRecorder()

	s.handleRecognize(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for disallowed domain", rec.Code)
	}
	// No job may exist: the URL was rejected before any work started.
	if jobs := s.jobMgr.ListJobs(); len(jobs) != 0 {
		t.Errorf("%d jobs created for a rejected URL, want 0", len(jobs))
	}
}

func TestHandleRecognizeRequiresURL(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/recognize", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	s.handleRecognize(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for missing URL", rec.Code)
	}
}

func TestHandleRecognizeRejectsGet(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/recognize", nil)
	rec := httptest.NewRecorder()

	s.handleRecognize(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleListJobs(t *testing.T) {
	s := newTestServer()
	s.jobMgr.CreateJob("https://youtube.com/watch?v=x", s.config)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	rec := httptest.NewRecorder()

	s.handleListJobs(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var jobs []*JobResponse
	if err := json.NewDecoder(rec.Body).Decode(&jobs); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(jobs) != 1 {
		t.Errorf("got %d jobs, want 1", len(jobs))
	}
}

func TestHandleJobActionGetUnknown(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/jobs/job_missing", nil)
	rec := httptest.NewRecorder()

	s.handleJobAction(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleJobActionCancel(t *testing.T) {
	s := newTestServer()
	job := s.jobMgr.CreateJob("https://youtube.com/watch?v=x", s.config)

	req := httptest.NewRequest(http.MethodPost, "/api/jobs/"+job.ID+"/cancel", nil)
	rec := httptest.NewRecorder()

	s.handleJobAction(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	j, err := s.jobMgr.GetJob(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if j.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", j.Status)
	}
}
