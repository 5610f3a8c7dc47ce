// Package logging provides a minimal logging interface and adapters for
// the archivist research loop.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the loop, invoker and runner use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - ArchivistLogger with session/run context and domain helpers
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	arch, _ := archivist.New(model, func(o *archivist.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
