package worker

import "context"

type ctxKey struct{}

// WithWorker returns a context that carries w. Parkers use it to record
// scheduling state; lock managers use it to resolve the calling worker.
func WithWorker(ctx context.Context, w *Worker) context.Context {
	return context.WithValue(ctx, ctxKey{}, w)
}

// FromContext returns the worker carried by ctx, or nil.
func FromContext(ctx context.Context) *Worker {
	w, _ := ctx.Value(ctxKey{}).(*Worker)
	return w
}

// IDFromContext returns the id of the worker carried by ctx, or None.
func IDFromContext(ctx context.Context) ID {
	if w := FromContext(ctx); w != nil {
		return w.ID
	}
	return None
}
