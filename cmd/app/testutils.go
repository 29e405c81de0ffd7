package main

import (
	"io"
	"log/slog"
	"testing"
)

// newBareApplication builds an application with config and logger only,
// enough for middleware and helper tests that never touch a service.
func newBareApplication(t *testing.T) *application {
	t.Helper()

	cfg := &Config{Environment: "test", Version: "test"}
	cfg.Limiter.RPS = 2
	cfg.Limiter.Burst = 4
	cfg.Limiter.Enabled = true

	return &application{
		config: cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
