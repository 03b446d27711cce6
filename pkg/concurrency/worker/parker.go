package worker

import (
	"context"
	"time"

	"github.com/isharak/ballerina/pkg/logging"
)

// Parker suspends the calling worker until ready is closed or ctx is done.
// It is the only place a worker yields while waiting for a lock.
type Parker interface {
	Park(ctx context.Context, ready <-chan struct{}) error
}

// ChannelParker blocks the calling goroutine on the ready channel. It works for
// thread-per-worker execution and for goroutines multiplexed by the Go runtime.
type ChannelParker struct{}

// Park returns nil once ready is closed, or ctx.Err() if ctx ends first. When
// both happen together, readiness wins so a granted lock is never mistaken
// for a cancellation.
func (ChannelParker) Park(ctx context.Context, ready <-chan struct{}) error {
	select {
	case <-ready:
		return nil
	default:
	}

	w := FromContext(ctx)
	if w != nil {
		w.parks.Add(1)
		w.setStatus(Parked)
		defer w.setStatus(Runnable)
	}

	start := time.Now()
	select {
	case <-ready:
		if w != nil {
			logging.WithWorker(uint64(w.ID)).Debug("worker resumed", "parked_for", time.Since(start))
		}
		return nil
	case <-ctx.Done():
		select {
		case <-ready:
			return nil
		default:
		}
		return ctx.Err()
	}
}
