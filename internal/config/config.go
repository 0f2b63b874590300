package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The transport defaults retry each request five times in total with a
// 0.3 second backoff factor.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "websummary"

	// DefaultTimeout is the per-request timeout. Retries get a fresh timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts is the total number of attempts per request,
	// the first try included.
	DefaultMaxAttempts = 5

	// DefaultBackoff is the base retry delay. It doubles after every attempt:
	// 0.3s, 0.6s, 1.2s, 2.4s.
	DefaultBackoff = 300 * time.Millisecond

	// DefaultWorkers of 1 keeps the crawl strictly sequential.
	// Higher values fetch pages in parallel from the shared frontier.
	DefaultWorkers = 1

	// DefaultMaxPages of 0 means the crawl runs until the frontier is empty.
	DefaultMaxPages = 0

	// DefaultTopKeywords is the number of keywords shown in the report.
	DefaultTopKeywords = 10

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent is a browser-like User-Agent. Many small sites serve
	// reduced pages or refuse requests from unknown agents.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"
)

// Config holds all configuration options for a websummary run.
// This struct is populated from CLI flags and passed through the
// application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// SeedURL is the URL the crawl starts from. Its host scopes the crawl.
	SeedURL string

	// Timeout is the timeout for each HTTP request attempt.
	Timeout time.Duration

	// MaxAttempts is the total number of attempts per request.
	MaxAttempts int

	// Backoff is the base delay between attempts.
	Backoff time.Duration

	// Workers is the number of pages fetched concurrently.
	Workers int

	// MaxPages stops the crawl after this many visits. 0 means no limit.
	MaxPages int

	// TopKeywords is the number of keywords reported.
	TopKeywords int

	// Stopwords are extra words left out of the keyword ranking.
	Stopwords []string

	// RateLimit caps requests per second across all workers.
	// 0 disables the limiter.
	RateLimit float64

	// ProxyURL routes requests through an HTTP(S) or SOCKS5 proxy.
	// Empty means direct connections (environment proxies still apply).
	ProxyURL string

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default.
	MaxBodySize int64

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the site configuration file.
	// If empty, .websummary is searched in the current and home directories.
	ConfigFilePath string

	// SiteConfigs holds site-specific configurations from the config file.
	SiteConfigs *File

	// JSONReport outputs the report as JSON. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport outputs the report as Markdown. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to this path instead of stdout.
	ReportFile string

	// SaveToDB archives the finished report in the SQLite database.
	// Archived reports are only read back by the history command;
	// a crawl never loads state from them.
	SaveToDB bool

	// DBDir is the directory holding the SQLite database.
	DBDir string
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, attempts).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:     DefaultTimeout,
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     DefaultBackoff,
		Workers:     DefaultWorkers,
		MaxPages:    DefaultMaxPages,
		TopKeywords: DefaultTopKeywords,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		DBDir:       XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for websummary.
// On Linux: ~/.local/share/websummary
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for websummary.
// On Linux: ~/.config/websummary
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first error found, since fixing one error often makes
// others irrelevant.
func (c *Config) Validate() error {
	if c.SeedURL == "" {
		return ErrNoSeed
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if c.Backoff < 0 {
		return ErrInvalidBackoff
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.TopKeywords <= 0 {
		return ErrInvalidTopKeywords
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
