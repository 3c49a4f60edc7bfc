package leadsync

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/leadsync/pkg/constants"
	"github.com/agentstation/leadsync/pkg/errors"
	"github.com/agentstation/leadsync/pkg/schema"
)

// Option is a function that configures a Client
type Option func(*config) error

// config holds everything New needs to assemble a Client.
type config struct {
	token      string
	listID     string
	baseURL    string
	authScheme string
	timeout    time.Duration
	httpClient *http.Client

	emailFieldID  string
	taxIDFieldID  string
	amountFieldID string

	countryCode  string
	concurrency  int
	maxPages     int
	statusColumn string
	schemaCache  schema.Cache
	logger       *zerolog.Logger
}

func defaultConfig() *config {
	return &config{
		baseURL:      constants.DefaultBaseURL,
		timeout:      constants.DefaultHTTPTimeout,
		countryCode:  constants.DefaultHomeCountryCode,
		concurrency:  constants.DefaultConcurrency,
		maxPages:     constants.DefaultLookupMaxPages,
		statusColumn: constants.DefaultStatusColumn,
	}
}

// validate reports the first missing required setting.
func (c *config) validate() error {
	if c.token == "" {
		return errors.NewConfigError("clickup", "api token is required", errors.ErrAPIKeyRequired)
	}
	if c.listID == "" {
		return errors.NewConfigError("clickup", "list id is required", errors.ErrInvalidInput)
	}
	return nil
}

// WithToken sets the ClickUp API token
func WithToken(token string) Option {
	return func(c *config) error {
		c.token = token
		return nil
	}
}

// WithListID sets the list every lead is reconciled into
func WithListID(id string) Option {
	return func(c *config) error {
		c.listID = id
		return nil
	}
}

// WithBaseURL overrides the ClickUp API root
func WithBaseURL(url string) Option {
	return func(c *config) error {
		if url != "" {
			c.baseURL = url
		}
		return nil
	}
}

// WithAuthScheme selects how the token is sent: "" for the raw token,
// "bearer" for a Bearer prefix.
func WithAuthScheme(scheme string) Option {
	return func(c *config) error {
		c.authScheme = scheme
		return nil
	}
}

// WithTimeout sets the per-call HTTP timeout
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return errors.NewValidationError("timeout", d, "must be positive")
		}
		c.timeout = d
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for remote calls
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) error {
		c.httpClient = hc
		return nil
	}
}

// WithFallbackFieldIDs sets the field ids used when the list schema lacks
// the email, tax id or sale amount field. Empty values are ignored.
func WithFallbackFieldIDs(email, taxID, amount string) Option {
	return func(c *config) error {
		if email != "" {
			c.emailFieldID = email
		}
		if taxID != "" {
			c.taxIDFieldID = taxID
		}
		if amount != "" {
			c.amountFieldID = amount
		}
		return nil
	}
}

// WithCountryCode sets the calling code assumed for phone numbers without one
func WithCountryCode(code string) Option {
	return func(c *config) error {
		if code != "" {
			c.countryCode = code
		}
		return nil
	}
}

// WithConcurrency bounds how many leads are reconciled at once
func WithConcurrency(n int) Option {
	return func(c *config) error {
		if n < 1 || n > constants.MaxConcurrency {
			return errors.NewValidationError("concurrency", n, "out of range")
		}
		c.concurrency = n
		return nil
	}
}

// WithLookupMaxPages bounds the fallback scan when the filtered lookup misses
func WithLookupMaxPages(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return errors.NewValidationError("lookup_max_pages", n, "must be at least 1")
		}
		c.maxPages = n
		return nil
	}
}

// WithStatusColumn sets the CSV column Import records progress in
func WithStatusColumn(name string) Option {
	return func(c *config) error {
		if name != "" {
			c.statusColumn = name
		}
		return nil
	}
}

// WithSchemaCache caches resolved list schemas between calls.
// Long-running processes should set this; one-shot imports need not.
func WithSchemaCache(cache schema.Cache) Option {
	return func(c *config) error {
		c.schemaCache = cache
		return nil
	}
}

// WithLogger sets the logger for the client and everything it builds
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}
