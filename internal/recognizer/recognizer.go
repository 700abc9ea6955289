package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"setlist/internal/logger"
)

// Sentinel is the display value for a segment that yielded no track.
// It stands for both "no track identified" and "service call failed
// after retries"; the output artifact cannot distinguish the two.
const Sentinel = "Not found"

// Result is the two-case outcome of recognizing one segment: either a
// canonical "Artist - Title" string, or not found. Callers branch on
// Found rather than on errors.
type Result struct {
	Track string
	Found bool
}

// Found wraps a canonical track string in a positive Result.
func Found(track string) Result {
	return Result{Track: track, Found: true}
}

// NotFound is the negative Result.
func NotFound() Result {
	return Result{}
}

// String renders the result for progress output.
func (r Result) String() string {
	if r.Found {
		return r.Track
	}
	return Sentinel
}

// Recognizer identifies the track contained in one audio segment.
type Recognizer interface {
	Recognize(ctx context.Context, path string) Result
}

// Client submits one audio segment to the remote fingerprint
// recognition service. It performs exactly one attempt per call and
// never returns an error: every failure mode (unreadable file,
// transport error, service error, no track in the response) collapses
// into NotFound. Retrying is the Retrier's job.
type Client struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	logger     *logger.Logger
}

// New creates a recognition service client.
func New(apiURL, apiKey string, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     apiURL,
		apiKey:     apiKey,
		logger:     log,
	}
}

// Recognize uploads the segment at path and returns the recognition
// outcome for a single attempt.
func (c *Client) Recognize(ctx context.Context, path string) Result {
	result, err := c.recognize(ctx, path)
	if err != nil {
		c.logger.Debug("Recognition of %s failed: %v", filepath.Base(path), err)
		return NotFound()
	}
	return result
}

func (c *Client) recognize(ctx context.Context, path string) (Result, error) {
	body, contentType, err := buildUpload(path)
	if err != nil {
		return NotFound(), err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, body)
	if err != nil {
		return NotFound(), fmt.Errorf("failed to create recognition request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", "setlist/1.0")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NotFound(), fmt.Errorf("recognition request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return NotFound(), fmt.Errorf("recognition service returned %d: %s", resp.StatusCode, respBody)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return NotFound(), fmt.Errorf("failed to decode recognition response: %w", err)
	}

	if apiResp.Track == nil || apiResp.Track.Title == "" {
		return NotFound(), nil
	}

	return Found(canonical(apiResp.Track.Subtitle, apiResp.Track.Title)), nil
}

// buildUpload packs the segment file into a multipart request body.
func buildUpload(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open segment %s: %w", path, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("failed to read segment %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize upload: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

// canonical renders the "Artist - Title" form used everywhere downstream.
// The service reports the artist in the subtitle field.
func canonical(subtitle, title string) string {
	return subtitle + " - " + title
}

// Recognition service response types

type apiResponse struct {
	Track *trackPayload `json:"track"`
}

type trackPayload struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}
