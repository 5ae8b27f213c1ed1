package monitor

import (
	"context"
	"testing"
	"time"
)

func TestBackoffDoublesAndCaps(t *testing.T) {
	ctx := context.Background()

	next, err := backoff(ctx, time.Millisecond, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != 2*time.Millisecond {
		t.Fatalf("next = %v, want 2ms", next)
	}

	next, err = backoff(ctx, 8*time.Millisecond, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != 10*time.Millisecond {
		t.Fatalf("next = %v, want cap of 10ms", next)
	}
}

func TestBackoffCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := backoff(ctx, time.Minute, time.Minute); err == nil {
		t.Fatalf("expected context error")
	}
}
