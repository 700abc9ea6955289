package recognizer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"setlist/internal/logger"
)

func writeSegment(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "1.mp3")
	if err := os.WriteFile(path, []byte("fake-audio-bytes"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL, "test-key", logger.New(false))
}

func TestRecognizeFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("X-API-Key = %q, want %q", got, "test-key")
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing multipart file field: %v", err)
		} else {
			file.Close()
		}

		w.Write([]byte(`{"track":{"title":"Blue","subtitle":"Joni"}}`))
	})

	result := client.Recognize(context.Background(), writeSegment(t))
	if !result.Found {
		t.Fatal("expected a found result")
	}
	if result.Track != "Joni - Blue" {
		t.Errorf("Track = %q, want %q", result.Track, "Joni - Blue")
	}
}

func TestRecognizeNoTrack(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"matches":[]}`))
	})

	result := client.Recognize(context.Background(), writeSegment(t))
	if result.Found {
		t.Errorf("expected not found, got %q", result.Track)
	}
	if result.String() != Sentinel {
		t.Errorf("String() = %q, want sentinel", result.String())
	}
}

func TestRecognizeServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	if result := client.Recognize(context.Background(), writeSegment(t)); result.Found {
		t.Error("service error should fold into not found")
	}
}

func TestRecognizeBadJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"track":`))
	})

	if result := client.Recognize(context.Background(), writeSegment(t)); result.Found {
		t.Error("undecodable response should fold into not found")
	}
}

func TestRecognizeUnreadableFile(t *testing.T) {
	client := New("http://127.0.0.1:1", "", logger.New(false))

	result := client.Recognize(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	if result.Found {
		t.Error("unreadable segment should fold into not found")
	}
}

func TestRecognizeUnreachableService(t *testing.T) {
	// Reserved port, nothing listens there.
	client := New("http://127.0.0.1:1", "", logger.New(false))

	if result := client.Recognize(context.Background(), writeSegment(t)); result.Found {
		t.Error("transport error should fold into not found")
	}
}

func TestResultString(t *testing.T) {
	if got := Found("A - B").String(); got != "A - B" {
		t.Errorf("Found().String() = %q", got)
	}
	if got := NotFound().String(); got != Sentinel {
		t.Errorf("NotFound().String() = %q, want %q", got, Sentinel)
	}
}
