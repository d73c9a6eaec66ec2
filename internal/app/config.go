package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Lang is the Wikipedia language code passed to the converter.
	Lang string
	// Resources are page names given on the command line or in config.
	Resources []string
	// InputPath optionally names a file with one resource per line.
	InputPath string

	OutputPath         string
	OutputMarkdownPath string
	OutputPDFPath      string

	// Converter selection. DOMDir wins over JSONpediaJar, which wins over
	// the HTTP service.
	JSONpediaURL string
	JSONpediaJar string
	JavaPath     string
	DOMDir       string

	RetryAttempts  int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
	MaxConcurrent  int

	// Cleanup
	DisableClean    bool
	ExcludeSections []string

	// ServeAddr switches the CLI to HTTP server mode when set.
	ServeAddr string

	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	Verbose bool
}

// Defaults shared by flag parsing and config file overlay.
const (
	DefaultLang          = "en"
	DefaultOutputPath    = "lists.json"
	DefaultCacheDir      = ".wikilists-cache"
	DefaultMaxConcurrent = 4
	DefaultRetryAttempts = 5
	DefaultRetryDelay    = time.Second
	DefaultTimeout       = 60 * time.Second
)

// DefaultConfig returns the settings used when no flag, env var or config
// file says otherwise.
func DefaultConfig() Config {
	return Config{
		Lang:           DefaultLang,
		OutputPath:     DefaultOutputPath,
		RetryAttempts:  DefaultRetryAttempts,
		RetryDelay:     DefaultRetryDelay,
		RequestTimeout: DefaultTimeout,
		MaxConcurrent:  DefaultMaxConcurrent,
		CacheDir:       DefaultCacheDir,
	}
}
