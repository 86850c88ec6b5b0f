package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/doclife/internal/apperr"
	"github.com/starford/doclife/internal/parser"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Docs  DocsConfig        `yaml:"docs"`
	Git   GitConfig         `yaml:"git"`
	Auth  AuthConfig        `yaml:"auth"`
	Watch WatchConfig       `yaml:"watch"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Docs.Validate(); err != nil {
		return err
	}
	if err := c.Git.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Watch.Validate(); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// DocsConfig describes the document corpus.
//
// Root is the project root; Roots, and every document path reported, are
// relative to it. Ephemeral names directories whose documents are never
// managed. ExcludeFiles names files that are never managed wherever they sit.
type DocsConfig struct {
	Root           string   `yaml:"root"`
	Roots          []string `yaml:"roots"`
	Ephemeral      []string `yaml:"ephemeral"`
	ExcludeFiles   []string `yaml:"exclude_files"`
	Extensions     []string `yaml:"extensions"`
	StatusMatching string   `yaml:"status_matching"`
}

// Validate validates the docs configuration.
func (c *DocsConfig) Validate() error {
	if c.StatusMatching == "" {
		c.StatusMatching = string(parser.Lenient)
	}
	if len(c.Roots) == 0 {
		return fmt.Errorf("docs: %w", apperr.ErrNoRoots)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.Roots, validation.Each(validation.Required)),
		validation.Field(&c.Extensions, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.StatusMatching, validation.In(string(parser.Lenient), string(parser.Strict))),
	)
}

// GitConfig configures code-change detection.
type GitConfig struct {
	Repo           string        `yaml:"repo"`
	DefaultRange   string        `yaml:"default_range"`
	Timeout        time.Duration `yaml:"timeout"`
	CodeExtensions []string      `yaml:"code_extensions"`
}

// Validate validates the git configuration.
func (c *GitConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultRange, validation.Required),
		validation.Field(&c.Timeout, validation.Required),
		validation.Field(&c.CodeExtensions, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the HTTP surface.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// WatchConfig configures the file watcher used by the serve command.
type WatchConfig struct {
	Debounce  time.Duration `yaml:"debounce"`
	AutoApply bool          `yaml:"auto_apply"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required),
	)
}

// TelemetryConfig enables OpenTelemetry spans and metrics, exported to stderr.
type TelemetryConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Validate validates the telemetry configuration.
func (c *TelemetryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Interval, validation.When(c.Enabled, validation.Required)),
	)
}

// RepoDir returns the git repository directory, defaulting to the docs root.
func (c *Config) RepoDir() string {
	if c.Git.Repo != "" {
		return c.Git.Repo
	}
	return c.Docs.Root
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Docs: DocsConfig{
			Root:           ".",
			Roots:          []string{"docs"},
			Ephemeral:      []string{"scratch-pads", "handoffs"},
			ExcludeFiles:   []string{"CLAUDE.md", "AGENTS.md", "README.md"},
			Extensions:     []string{".md"},
			StatusMatching: string(parser.Lenient),
		},
		Git: GitConfig{
			DefaultRange: "HEAD~1..HEAD",
			Timeout:      30 * time.Second,
			CodeExtensions: []string{
				".go", ".py", ".js", ".jsx", ".ts", ".tsx", ".rs", ".java", ".kt",
				".swift", ".c", ".h", ".cc", ".cpp", ".hpp", ".cs", ".rb", ".php",
				".scala", ".sh", ".sql", ".vue", ".svelte",
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			Interval: 15 * time.Second,
		},
	}
}
