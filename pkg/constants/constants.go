// Package constants provides shared constants used throughout leadsync.
// This includes timeouts, limits, file permissions, and the default
// ClickUp field names the schema resolver looks for.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the timeout for every call to the task tracker API
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// LockPollInterval is how often a waiter re-checks a contended lead key
	LockPollInterval = 100 * time.Millisecond

	// ShutdownTimeout bounds graceful shutdown of the HTTP server
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// DefaultConcurrency is the default number of leads reconciled at once in a batch
	DefaultConcurrency = 5

	// MaxConcurrency caps the batch fan-out regardless of configuration
	MaxConcurrency = 50

	// DefaultLookupMaxPages bounds the fallback linear scan of a list
	DefaultLookupMaxPages = 50

	// MaxLeadsPerRequest caps the batch size accepted by the HTTP API
	MaxLeadsPerRequest = 500

	// MaxRequestBodyBytes caps the HTTP API request body (4 MiB)
	MaxRequestBodyBytes = 4 << 20
)

// Cache constants
const (
	// SchemaCacheTTL is how long the HTTP server reuses a fetched list schema
	SchemaCacheTTL = 1 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 5 * time.Minute
)

// Domain defaults
const (
	// DefaultBaseURL is the ClickUp API v2 root
	DefaultBaseURL = "https://api.clickup.com/api/v2"

	// DefaultHomeCountryCode is the calling code assumed for numbers without one
	DefaultHomeCountryCode = "55"

	// DefaultStatusColumn is the CSV column that records per-row progress
	DefaultStatusColumn = "status"

	// StatusDone marks a CSV row that reconciled successfully
	StatusDone = "done"

	// StatusError marks a CSV row that was skipped
	StatusError = "error"

	// PurchasesHeading opens the purchase history section of a task description
	PurchasesHeading = "Compras:"

	// PurchaseDateLayout is the date layout used in purchase history lines
	PurchaseDateLayout = "02/01/2006"
)
