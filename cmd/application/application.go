// Package application provides the application interface for leadsync commands.
//
// The Application interface defines the contract between the application layer and
// command implementations, enabling dependency injection and testability.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            ls, err := app.Leadsync()
//	            if err != nil {
//	                return err
//	            }
//	            sch := ls.Schema(cmd.Context())
//	            // ... print the schema
//	            return nil
//	        },
//	    }
//	}
//
// Testing with Mocks:
//
//	mock := &application.Mock{
//	    LeadsyncFunc: func(...leadsync.Option) (leadsync.Client, error) {
//	        return leadsync.New(leadsync.WithToken(tok), leadsync.WithListID(id), leadsync.WithBaseURL(fake.URL))
//	    },
//	}
//	cmd := NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/leadsync"
)

// Application provides the application interface that commands need.
// The App struct from cmd/leadsync/app implements this interface.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Leadsync returns the default client built from configuration,
	// creating it on first use.
	Leadsync() (leadsync.Client, error)

	// LeadsyncWithOptions returns a new client built from configuration
	// with opts applied on top. The result is not cached.
	LeadsyncWithOptions(opts ...leadsync.Option) (leadsync.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
