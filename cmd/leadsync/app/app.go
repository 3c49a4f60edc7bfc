// Package app provides the application context and dependency management
// for the leadsync CLI. It centralizes configuration, logging, and the
// lazily built leadsync client that commands share.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/leadsync"
	"github.com/agentstation/leadsync/cmd/application"
	"github.com/agentstation/leadsync/pkg/errors"
)

// App represents the leadsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// client is lazy-initialized on first use
	mu     sync.RWMutex
	client leadsync.Client
}

var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
// Configuration is loaded from the default sources and can be replaced
// with functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the --format value, empty when output should be
// detected from the terminal.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Leadsync returns the leadsync client, creating it lazily if needed.
// This is thread-safe and ensures only one instance is created.
func (a *App) Leadsync() (leadsync.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	c, err := leadsync.New(a.clientOptions()...)
	if err != nil {
		return nil, errors.WrapResource("create", "leadsync client", "", err)
	}

	a.client = c
	return c, nil
}

// LeadsyncWithOptions returns a new client built from the configuration
// with opts applied on top. The serve command uses it to attach a schema
// cache.
func (a *App) LeadsyncWithOptions(opts ...leadsync.Option) (leadsync.Client, error) {
	c, err := leadsync.New(append(a.clientOptions(), opts...)...)
	if err != nil {
		return nil, errors.WrapResource("create", "leadsync client", "with custom options", err)
	}
	return c, nil
}

// Shutdown performs graceful shutdown of the application. The client holds
// no background goroutines, so this only drops it.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		a.logger.Debug().Str("list_id", a.client.ListID()).Msg("Releasing leadsync client")
		a.client = nil
	}
	return nil
}

// clientOptions maps the configuration onto leadsync options. Unset values
// keep the client defaults.
func (a *App) clientOptions() []leadsync.Option {
	c := a.config
	opts := []leadsync.Option{
		leadsync.WithToken(c.APIToken),
		leadsync.WithListID(c.ListID),
		leadsync.WithFallbackFieldIDs(c.EmailFieldID, c.TaxIDFieldID, c.AmountFieldID),
		leadsync.WithLogger(a.logger),
	}
	if c.BaseURL != "" {
		opts = append(opts, leadsync.WithBaseURL(c.BaseURL))
	}
	if c.CountryCode != "" {
		opts = append(opts, leadsync.WithCountryCode(c.CountryCode))
	}
	if c.Concurrency > 0 {
		opts = append(opts, leadsync.WithConcurrency(c.Concurrency))
	}
	if c.LookupMaxPages > 0 {
		opts = append(opts, leadsync.WithLookupMaxPages(c.LookupMaxPages))
	}
	if c.StatusColumn != "" {
		opts = append(opts, leadsync.WithStatusColumn(c.StatusColumn))
	}
	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return errors.NewValidationError("config", nil, "config cannot be nil")
		}
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a prebuilt leadsync client (useful for testing).
func WithClient(c leadsync.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
