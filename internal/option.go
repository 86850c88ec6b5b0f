package internal

import "log/slog"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	logger  *slog.Logger
	version string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger overrides the structured logger. By default the server logs
// JSON to stdout at the configured level.
func WithLogger(logger *slog.Logger) Option {
	return func(a *application) {
		a.logger = logger
	}
}

// WithVersion sets the version reported by telemetry and the MCP handshake.
func WithVersion(version string) Option {
	return func(a *application) {
		a.version = version
	}
}
