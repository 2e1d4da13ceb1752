package api

import (
	"log/slog"
	"time"
)

// DefaultMaxUploadBytes bounds a single evidence upload when MaxUploadBytes
// is not set.
const DefaultMaxUploadBytes int64 = 32 << 20

// HTTPServerConfig holds the settings of the evidence API process: its
// listeners, shutdown timing and per-request limits.
type HTTPServerConfig struct {
	// ListenAddr serves the /api/evidence and /api/status routes.
	ListenAddr string

	// MetricsAddr serves Prometheus metrics; empty disables the listener.
	MetricsAddr string

	// EnablePprof mounts net/http/pprof on the API router.
	EnablePprof bool

	Log *slog.Logger

	// DrainDuration is how long /readyz reports not-ready before the
	// listeners close.
	DrainDuration time.Duration

	// GracefulShutdownDuration caps how long in-flight uploads and fetches
	// may run once shutdown starts.
	GracefulShutdownDuration time.Duration

	// ReadTimeout covers the whole request including the multipart body,
	// so it must allow a MaxUploadBytes upload to arrive.
	ReadTimeout time.Duration

	WriteTimeout time.Duration

	// MaxUploadBytes caps the request body of POST /api/evidence. Larger
	// bodies are answered with 413. Non-positive selects DefaultMaxUploadBytes.
	MaxUploadBytes int64
}

// UploadLimit returns the effective body limit for evidence uploads.
func (c *HTTPServerConfig) UploadLimit() int64 {
	if c == nil || c.MaxUploadBytes <= 0 {
		return DefaultMaxUploadBytes
	}
	return c.MaxUploadBytes
}
