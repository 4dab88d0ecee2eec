package analyzer

import (
	"time"

	"github.com/Harvey-AU/seo-checker/internal/fetcher"
	"github.com/Harvey-AU/seo-checker/internal/liveness"
	"github.com/Harvey-AU/seo-checker/internal/signals"
	"github.com/Harvey-AU/seo-checker/internal/util"
)

// Config holds the settings for an Engine
type Config struct {
	FetchTimeout       time.Duration // Deadline for the page GET
	ProbeTimeout       time.Duration // Deadline for each liveness probe and signal lookup
	StatusTimeout      time.Duration // Deadline for status probes
	LinkWorkers        int           // Maximum concurrent link probes
	MaxLinks           int           // Cap on anchors probed per page, 0 for no cap
	ProbeRate          float64       // Probes per second, 0 for unlimited
	UserAgent          string        // User agent for all outbound requests
	MaxBodySize        int           // Page bodies are truncated beyond this size
	PageRankKey        string        // Open PageRank API key
	PageRankEndpoint   string        // Override for the page-rank service URL
	Offline            bool          // Skip the page-rank lookup
	DetectTechnologies bool          // Fingerprint the page with wappalyzer
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		FetchTimeout:       fetcher.DefaultTimeout,
		ProbeTimeout:       liveness.DefaultTimeout,
		StatusTimeout:      fetcher.DefaultStatusTimeout,
		LinkWorkers:        liveness.DefaultWorkers,
		UserAgent:          fetcher.DefaultUserAgent,
		MaxBodySize:        fetcher.DefaultMaxBodySize,
		PageRankEndpoint:   signals.DefaultPageRankEndpoint,
		DetectTechnologies: true,
	}
}

// ConfigFromEnv overlays environment variables on DefaultConfig
func ConfigFromEnv() *Config {
	config := DefaultConfig()

	config.FetchTimeout = util.GetEnvDuration("FETCH_TIMEOUT", config.FetchTimeout)
	config.ProbeTimeout = util.GetEnvDuration("PROBE_TIMEOUT", config.ProbeTimeout)
	config.StatusTimeout = util.GetEnvDuration("STATUS_TIMEOUT", config.StatusTimeout)
	config.LinkWorkers = util.GetEnvInt("LINK_WORKERS", config.LinkWorkers)
	config.MaxLinks = util.GetEnvInt("MAX_LINKS", config.MaxLinks)
	config.ProbeRate = util.GetEnvFloat("PROBE_RATE", config.ProbeRate)
	config.UserAgent = util.GetEnvWithDefault("USER_AGENT", config.UserAgent)
	config.PageRankKey = util.GetEnvWithDefault("OPEN_PAGERANK_KEY", "")
	config.PageRankEndpoint = util.GetEnvWithDefault("OPEN_PAGERANK_ENDPOINT", config.PageRankEndpoint)
	config.Offline = util.GetEnvBool("OFFLINE_MODE", config.Offline)
	config.DetectTechnologies = util.GetEnvBool("DETECT_TECHNOLOGIES", config.DetectTechnologies)

	return config
}
