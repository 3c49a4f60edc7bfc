package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/leadsync/pkg/constants"
	"github.com/agentstation/leadsync/pkg/errors"
)

// Configuration keys. Each is also read from the upper-cased environment
// variable of the same name, e.g. CLICKUP_API_TOKEN.
const (
	KeyAPIToken       = "clickup_api_token"
	KeyListID         = "clickup_list_id"
	KeyBaseURL        = "clickup_base_url"
	KeyEmailFieldID   = "clickup_email_field_id"
	KeyTaxIDFieldID   = "clickup_tax_id_field_id"
	KeyAmountFieldID  = "clickup_amount_field_id"
	KeyCountryCode    = "home_country_code"
	KeyConcurrency    = "concurrency"
	KeyStatusColumn   = "status_column"
	KeyLookupMaxPages = "lookup_max_pages"
	KeyServerAPIKey   = "api_key"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// ClickUp connection
	APIToken string
	ListID   string
	BaseURL  string

	// Fallback field ids, used when the list schema has no matching field
	EmailFieldID  string
	TaxIDFieldID  string
	AmountFieldID string

	// Reconciliation
	CountryCode    string
	Concurrency    int
	StatusColumn   string
	LookupMaxPages int

	// ServerAPIKey is the key clients must present when serve runs with --auth.
	ServerAPIKey string

	// Logging configuration
	LogLevel    string // from --log-level only
	EnvLogLevel string // from LOG_LEVEL
	LogFormat   string
	LogOutput   string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables
//  3. .env files
//  4. Config file (configFile, or .leadsync.yaml in $HOME or the working directory)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "reading "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".leadsync")
		// a missing default config file is fine
		_ = v.ReadInConfig()
	}

	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		APIToken: v.GetString(KeyAPIToken),
		ListID:   v.GetString(KeyListID),
		BaseURL:  v.GetString(KeyBaseURL),

		EmailFieldID:  v.GetString(KeyEmailFieldID),
		TaxIDFieldID:  v.GetString(KeyTaxIDFieldID),
		AmountFieldID: v.GetString(KeyAmountFieldID),

		CountryCode:    v.GetString(KeyCountryCode),
		Concurrency:    v.GetInt(KeyConcurrency),
		StatusColumn:   v.GetString(KeyStatusColumn),
		LookupMaxPages: v.GetInt(KeyLookupMaxPages),

		ServerAPIKey: v.GetString(KeyServerAPIKey),

		EnvLogLevel: os.Getenv("LOG_LEVEL"),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBaseURL, constants.DefaultBaseURL)
	v.SetDefault(KeyCountryCode, constants.DefaultHomeCountryCode)
	v.SetDefault(KeyConcurrency, constants.DefaultConcurrency)
	v.SetDefault(KeyStatusColumn, constants.DefaultStatusColumn)
	v.SetDefault(KeyLookupMaxPages, constants.DefaultLookupMaxPages)
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags so flag values take
// precedence over the config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	c.LogLevel = logLevel
}

// loadEnvFiles loads environment variables from .env files. godotenv never
// overrides variables already set, so .env.local only fills gaps.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
