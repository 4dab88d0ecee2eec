package main

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Harvey-AU/seo-checker/internal/util"
)

// Config holds the application configuration loaded from environment variables
type Config struct {
	Port                 string  // HTTP port to listen on
	Env                  string  // Environment (development/production)
	SentryDSN            string  // Sentry DSN for error tracking
	LogLevel             string  // Log level (debug, info, warn, error)
	ObservabilityEnabled bool    // Toggle OpenTelemetry + Prometheus exporters
	MetricsAddr          string  // Address for Prometheus metrics endpoint (":9464" style)
	OTLPEndpoint         string  // OTLP HTTP endpoint for trace export
	OTLPHeaders          string  // Comma separated headers for OTLP exporter
	OTLPInsecure         bool    // Disable TLS verification for OTLP exporter
	APIRateLimit         float64 // Requests per second allowed per client IP
	APIRateBurst         int     // Burst allowance per client IP
	TrustProxyHeaders    bool    // Identify clients by X-Forwarded-For/X-Real-IP (only behind a proxy)
}

func loadConfig() *Config {
	return &Config{
		Port:                 util.GetEnvWithDefault("PORT", "8080"),
		Env:                  util.GetEnvWithDefault("APP_ENV", "development"),
		SentryDSN:            os.Getenv("SENTRY_DSN"),
		LogLevel:             util.GetEnvWithDefault("LOG_LEVEL", "info"),
		ObservabilityEnabled: util.GetEnvBool("OBSERVABILITY_ENABLED", true),
		MetricsAddr:          util.GetEnvWithDefault("METRICS_ADDR", ":9464"),
		OTLPEndpoint:         os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPHeaders:          os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"),
		OTLPInsecure:         util.GetEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		APIRateLimit:         util.GetEnvFloat("API_RATE_LIMIT", 2),
		APIRateBurst:         util.GetEnvInt("API_RATE_BURST", 5),
		TrustProxyHeaders:    util.GetEnvBool("TRUST_PROXY_HEADERS", false),
	}
}

func parseOTLPHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return headers
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(value)
	}

	return headers
}

// setupLogging configures the global zerolog logger
func setupLogging(config *Config) {
	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	if config.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
		return
	}

	log.Logger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", "seo-checker").
		Logger()
}
