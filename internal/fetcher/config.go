package fetcher

import "time"

const (
	DefaultTimeout       = 30 * time.Second
	DefaultStatusTimeout = 10 * time.Second
	DefaultMaxBodySize   = 10 * 1024 * 1024
	DefaultUserAgent     = "SEOChecker/1.0 (+https://github.com/Harvey-AU/seo-checker)"
)

// Config holds the settings for page retrieval
type Config struct {
	Timeout       time.Duration // Total time allowed for the page GET
	StatusTimeout time.Duration // Time allowed for a status probe
	UserAgent     string        // User agent sent with every request
	MaxBodySize   int           // Response bodies are truncated beyond this size
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Timeout:       DefaultTimeout,
		StatusTimeout: DefaultStatusTimeout,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
	}
}
