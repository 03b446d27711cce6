package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParkAlreadyReady(t *testing.T) {
	w := New("p")
	ready := make(chan struct{})
	close(ready)

	if err := (ChannelParker{}).Park(WithWorker(context.Background(), w), ready); err != nil {
		t.Fatalf("Park err = %v", err)
	}
	if w.Parks() != 0 {
		t.Errorf("ready channel should not count as a park, got %d", w.Parks())
	}
}

func TestParkWakesOnReady(t *testing.T) {
	w := New("p")
	ready := make(chan struct{})
	ctx := WithWorker(context.Background(), w)

	done := make(chan error, 1)
	go func() {
		done <- ChannelParker{}.Park(ctx, ready)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for w.Status() != Parked {
		if time.Now().After(deadline) {
			t.Fatal("worker never parked")
		}
		time.Sleep(time.Millisecond)
	}
	close(ready)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Park err = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Park did not return after ready")
	}
	if w.Status() != Runnable {
		t.Errorf("status after wake = %s, want RUNNABLE", w.Status())
	}
	if w.Parks() != 1 {
		t.Errorf("Parks = %d, want 1", w.Parks())
	}
}

func TestParkCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ChannelParker{}.Park(ctx, make(chan struct{}))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Park err = %v, want context.Canceled", err)
	}
}

func TestParkReadyWinsOverCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ready := make(chan struct{})
	close(ready)

	for range 100 {
		if err := (ChannelParker{}).Park(ctx, ready); err != nil {
			t.Fatalf("Park err = %v, want nil when already granted", err)
		}
	}
}
