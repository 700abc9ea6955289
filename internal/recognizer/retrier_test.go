package recognizer

import (
	"context"
	"testing"
	"time"
)

// scriptedRecognizer fails until attempt succeedOn, then returns track.
// succeedOn = 0 means it never succeeds.
type scriptedRecognizer struct {
	attempts  int
	succeedOn int
	track     string
}

func (s *scriptedRecognizer) Recognize(_ context.Context, _ string) Result {
	s.attempts++
	if s.succeedOn > 0 && s.attempts >= s.succeedOn {
		return Found(s.track)
	}
	return NotFound()
}

func TestRetrierExhaustsAttempts(t *testing.T) {
	inner := &scriptedRecognizer{succeedOn: 0}
	r := NewRetrier(inner, 3, 0)

	result := r.Recognize(context.Background(), "seg.mp3")
	if result.Found {
		t.Error("expected not found after exhaustion")
	}
	if inner.attempts != 3 {
		t.Errorf("attempts = %d, want exactly 3", inner.attempts)
	}
}

func TestRetrierStopsOnSuccess(t *testing.T) {
	inner := &scriptedRecognizer{succeedOn: 2, track: "A - B"}
	r := NewRetrier(inner, 3, 0)

	result := r.Recognize(context.Background(), "seg.mp3")
	if !result.Found || result.Track != "A - B" {
		t.Fatalf("result = %+v, want found A - B", result)
	}
	if inner.attempts != 2 {
		t.Errorf("attempts = %d, want exactly 2", inner.attempts)
	}
}

func TestRetrierFirstAttemptSuccess(t *testing.T) {
	inner := &scriptedRecognizer{succeedOn: 1, track: "A - B"}
	r := NewRetrier(inner, 3, 0)

	r.Recognize(context.Background(), "seg.mp3")
	if inner.attempts != 1 {
		t.Errorf("attempts = %d, want 1", inner.attempts)
	}
}

func TestRetrierClampsAttempts(t *testing.T) {
	inner := &scriptedRecognizer{succeedOn: 0}
	r := NewRetrier(inner, 0, 0)

	r.Recognize(context.Background(), "seg.mp3")
	if inner.attempts != 1 {
		t.Errorf("attempts = %d, want 1 (clamped)", inner.attempts)
	}
}

func TestRetrierHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &scriptedRecognizer{succeedOn: 0}
	r := NewRetrier(inner, 5, time.Minute)

	result := r.Recognize(ctx, "seg.mp3")
	if result.Found {
		t.Error("cancelled retry should yield not found")
	}
	if inner.attempts != 1 {
		t.Errorf("attempts = %d, want 1 (no retries after cancellation)", inner.attempts)
	}
}
