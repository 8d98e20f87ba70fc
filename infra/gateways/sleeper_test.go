package gateways

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSleeperWaits(t *testing.T) {
	start := time.Now()
	if err := NewSleeper().Sleep(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 10*time.Millisecond {
		t.Fatalf("expected to wait at least 10ms, waited %s", elapsed)
	}
}

func TestSleeperStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := NewSleeper().Sleep(ctx, time.Minute)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected to return promptly, waited %s", elapsed)
	}
}
