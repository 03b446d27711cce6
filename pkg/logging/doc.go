// Package logging provides the process-wide structured logger used by the
// value model, the lock protocol and the worker scheduler.
//
// The package wraps [log/slog] and keeps one global logger that is configured
// once and then retrieved with GetLogger. Subsystems never build their own
// slog.Logger, so level and destination are controlled from a single place.
//
// # Initialisation
//
//	if err := logging.Init(logging.Config{Level: logging.LevelDebug, Format: "json"}); err != nil {
//	    log.Fatal(err)
//	}
//
// If GetLogger is called before Init, a default INFO logger writing text to
// stderr is created lazily.
//
// # Context helpers
//
//	log := logging.WithWorker(uint64(w.ID))    // adds worker field
//	log := logging.WithStructure(s.ID())       // adds structure field
//	log := logging.WithLock(uint64(w.ID), key) // adds worker and entry fields
package logging
