package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Harvey-AU/seo-checker/internal/analyzer"
	"github.com/Harvey-AU/seo-checker/internal/api"
	"github.com/Harvey-AU/seo-checker/internal/observability"
)

func main() {
	// .env.local takes priority for development
	godotenv.Load(".env.local", ".env")

	config := loadConfig()
	setupLogging(config)

	if config.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.SentryDSN,
			Environment: config.Env,
			TracesSampleRate: func() float64 {
				if config.Env == "production" {
					return 0.1
				}
				return 1.0
			}(),
			AttachStacktrace: true,
			Debug:            config.Env == "development",
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialise Sentry")
		} else {
			log.Info().Str("environment", config.Env).Msg("Sentry initialised successfully")
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Warn().Msg("Sentry DSN not configured, error tracking disabled")
	}

	obsProviders, shutdownObs := startObservability(config)
	defer shutdownObs()

	engineConfig := analyzer.ConfigFromEnv()
	engine, err := analyzer.New(engineConfig, nil)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("Failed to create analysis engine")
	}

	log.Info().
		Int("link_workers", engineConfig.LinkWorkers).
		Dur("fetch_timeout", engineConfig.FetchTimeout).
		Bool("offline", engineConfig.Offline).
		Bool("detect_technologies", engineConfig.DetectTechnologies).
		Msg("Analysis engine ready")

	mux := http.NewServeMux()
	api.NewHandler(engine).SetupRoutes(mux)

	// Outermost middleware is applied last
	var handler http.Handler = mux
	if config.APIRateLimit > 0 {
		handler = api.NewRateLimiter(config.APIRateLimit, config.APIRateBurst, config.TrustProxyHeaders).Middleware(handler)
	}
	handler = api.LoggingMiddleware(handler)
	handler = api.RequestIDMiddleware(handler)
	handler = api.SecurityHeadersMiddleware(handler)
	handler = api.CORSMiddleware(handler)
	handler = observability.WrapHandler(handler, obsProviders)

	server := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		<-stop
		log.Info().Msg("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			sentry.CaptureException(err)
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		close(done)
	}()

	log.Info().Str("port", config.Port).Msg("Starting server")

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("Server error")
	}

	<-done
	log.Info().Msg("Server stopped")
}

// startObservability initialises telemetry and the metrics server. The
// returned function flushes and stops both.
func startObservability(config *Config) (*observability.Providers, func()) {
	noop := func() {}
	if !config.ObservabilityEnabled {
		return nil, noop
	}

	providers, err := observability.Init(context.Background(), observability.Config{
		Enabled:        true,
		ServiceName:    "seo-checker",
		Environment:    config.Env,
		OTLPEndpoint:   strings.TrimSpace(config.OTLPEndpoint),
		OTLPHeaders:    parseOTLPHeaders(config.OTLPHeaders),
		OTLPInsecure:   config.OTLPInsecure,
		MetricsAddress: config.MetricsAddr,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialise observability providers")
		return nil, noop
	}

	var metricsSrv *http.Server
	if providers.MetricsHandler != nil && config.MetricsAddr != "" {
		metricsSrv = &http.Server{
			Addr:              config.MetricsAddr,
			Handler:           providers.MetricsHandler,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			log.Info().Str("addr", config.MetricsAddr).Msg("Metrics server listening")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				sentry.CaptureException(err)
				log.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	return providers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Warn().Err(err).Msg("Graceful shutdown of metrics server failed")
			}
		}
		if err := providers.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush telemetry providers cleanly")
		}
	}
}
