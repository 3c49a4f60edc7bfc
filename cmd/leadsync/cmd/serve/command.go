// Package serve provides the HTTP API command for the leadsync CLI.
package serve

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/leadsync/cmd/application"
	"github.com/agentstation/leadsync/internal/cmd/alerts"
	"github.com/agentstation/leadsync/internal/server"
	"github.com/agentstation/leadsync/pkg/errors"
)

// NewCommand creates the serve command. defaults seeds flag defaults, so
// an API key from configuration is used unless --api-key overrides it.
func NewCommand(app application.Application, defaults server.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		GroupID: "core",
		Short:   "Start the lead ingestion API",
		Long: `Start the HTTP API that reconciles leads into the configured list.

Endpoints:
  GET  /health           liveness
  GET  <prefix>/health   liveness
  GET  <prefix>/ready    schema and cache status
  POST <prefix>/leads    {"lead": {...}}, {"leads": [...]} or {"task": {...}}

List schemas are cached for --schema-ttl so bursts of requests resolve
fields once.`,
		Example: `  # Start on default port 8080
  leadsync serve

  # Require an API key
  CLICKUP_API_TOKEN=... API_KEY=secret leadsync serve --auth

  # Allow a browser form on another origin
  leadsync serve --cors-origins "https://example.com"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := parseConfig(cmd, defaults)
			if err != nil {
				return err
			}
			return runServer(cmd, app, cfg)
		},
	}

	cmd.Flags().Int("port", defaults.Port, "Server port")
	cmd.Flags().String("host", defaults.Host, "Bind address")
	cmd.Flags().String("prefix", defaults.PathPrefix, "API path prefix")

	cmd.Flags().Bool("cors", defaults.CORSEnabled, "Enable CORS for all origins")
	cmd.Flags().StringSlice("cors-origins", defaults.CORSOrigins, "Allowed CORS origins (comma-separated)")

	cmd.Flags().Bool("auth", defaults.AuthEnabled, "Enable API key authentication")
	cmd.Flags().String("auth-header", defaults.AuthHeader, "Authentication header name")
	cmd.Flags().String("api-key", "", "API key clients must present (default from API_KEY)")

	cmd.Flags().Int("rate-limit", defaults.RateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Duration("schema-ttl", defaults.SchemaTTL, "How long a resolved list schema is cached")

	cmd.Flags().Duration("read-timeout", defaults.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", defaults.WriteTimeout, "HTTP write timeout")
	cmd.Flags().Duration("idle-timeout", defaults.IdleTimeout, "HTTP idle timeout")
	cmd.Flags().Duration("shutdown-timeout", defaults.ShutdownTimeout, "How long in-flight requests may drain on shutdown")

	return cmd
}

func runServer(cmd *cobra.Command, app application.Application, cfg server.Config) error {
	logger := app.Logger()

	logger.Info().
		Int("port", cfg.Port).
		Str("host", cfg.Host).
		Str("prefix", cfg.PathPrefix).
		Bool("cors", cfg.CORSEnabled).
		Bool("auth", cfg.AuthEnabled).
		Int("rate_limit", cfg.RateLimit).
		Dur("schema_ttl", cfg.SchemaTTL).
		Msg("Starting API server")

	srv, err := server.New(app, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	notices := alerts.NewFormatWriter(cmd.ErrOrStderr(), "")
	_ = notices.WriteAlert(alerts.NewInfo("API server listening on " + srv.Addr()).WithDetails("Press Ctrl+C to stop"))

	// cmd.Context() is canceled by SIGINT/SIGTERM from main.go
	if err := srv.Run(cmd.Context()); err != nil {
		return err
	}

	_ = notices.WriteAlert(alerts.NewSuccess("API server stopped gracefully"))
	return nil
}

// parseConfig reads flags into a server configuration.
func parseConfig(cmd *cobra.Command, defaults server.Config) (server.Config, error) {
	cfg := defaults
	cfg.Port = mustGetInt(cmd, "port")
	cfg.Host = mustGetString(cmd, "host")
	cfg.PathPrefix = mustGetString(cmd, "prefix")
	cfg.CORSEnabled = mustGetBool(cmd, "cors")
	cfg.CORSOrigins = mustGetStringSlice(cmd, "cors-origins")
	cfg.AuthEnabled = mustGetBool(cmd, "auth")
	cfg.AuthHeader = mustGetString(cmd, "auth-header")
	cfg.RateLimit = mustGetInt(cmd, "rate-limit")
	cfg.SchemaTTL = mustGetDuration(cmd, "schema-ttl")
	cfg.ReadTimeout = mustGetDuration(cmd, "read-timeout")
	cfg.WriteTimeout = mustGetDuration(cmd, "write-timeout")
	cfg.IdleTimeout = mustGetDuration(cmd, "idle-timeout")
	cfg.ShutdownTimeout = mustGetDuration(cmd, "shutdown-timeout")

	if key := mustGetString(cmd, "api-key"); key != "" {
		cfg.APIKey = key
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return cfg, errors.NewValidationError("port", cfg.Port, "must be between 1 and 65535")
	}
	if cfg.RateLimit < 0 {
		return cfg, errors.NewValidationError("rate-limit", cfg.RateLimit, "cannot be negative")
	}
	if cfg.AuthEnabled && cfg.APIKey == "" {
		return cfg, errors.NewConfigError("serve", "--auth requires an API key (--api-key or API_KEY)", errors.ErrAPIKeyRequired)
	}
	return cfg, nil
}

// mustGetInt retrieves an integer flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}
