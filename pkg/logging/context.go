package logging

import (
	"log/slog"
)

// WithWorker creates a logger carrying the worker id.
//
// Example:
//
//	log := logging.WithWorker(uint64(w.ID))
//	log.Debug("parked", "entry", key)
func WithWorker(workerID uint64) *slog.Logger {
	return GetLogger().With("worker", workerID)
}

// WithStructure creates a logger carrying the structure id.
func WithStructure(structureID uint64) *slog.Logger {
	return GetLogger().With("structure", structureID)
}

// WithLock creates a logger with lock context.
//
// Example:
//
//	log := logging.WithLock(uint64(w.ID), "s3/int/0")
//	log.Debug("lock handed off", "to", next)
func WithLock(workerID uint64, entry string) *slog.Logger {
	return GetLogger().With("worker", workerID, "entry", entry)
}

// WithComponent creates a logger with component/subsystem context.
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithError creates a logger with error context.
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
