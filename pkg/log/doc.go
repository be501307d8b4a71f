// Package log provides the engine's leveled logging.
//
// Use the package-level functions for convenience:
//
//	log.Info("fingerprinted %d files", count)
//	log.Warn("skipping %s: %v", path, err)
//
// Progress output is opt-in: the default logger only writes to stderr
// once verbose mode is enabled (spec §6 — "a boolean flag toggles
// progress logging to standard error").
package log
