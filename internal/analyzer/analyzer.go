// Package analyzer runs the full SEO analysis of a single page.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Harvey-AU/seo-checker/internal/extract"
	"github.com/Harvey-AU/seo-checker/internal/fetcher"
	"github.com/Harvey-AU/seo-checker/internal/links"
	"github.com/Harvey-AU/seo-checker/internal/liveness"
	"github.com/Harvey-AU/seo-checker/internal/markup"
	"github.com/Harvey-AU/seo-checker/internal/observability"
	"github.com/Harvey-AU/seo-checker/internal/signals"
	"github.com/Harvey-AU/seo-checker/internal/techdetect"
	"github.com/Harvey-AU/seo-checker/internal/util"
)

const (
	robotsPath = "/robots.txt"
	robotsType = "text/plain"
)

// Engine analyses pages. It holds no per-analysis state and is safe for concurrent use.
type Engine struct {
	config   *Config
	fetcher  *fetcher.Fetcher
	checker  *liveness.Checker
	prober   *signals.Prober
	detector *techdetect.Detector
}

// New creates an Engine. A nil client gets the fetcher's pooled client, which
// is then shared by every probe.
func New(config *Config, client *http.Client) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}

	f := fetcher.New(&fetcher.Config{
		Timeout:       config.FetchTimeout,
		StatusTimeout: config.StatusTimeout,
		UserAgent:     config.UserAgent,
		MaxBodySize:   config.MaxBodySize,
	}, client)

	checker := liveness.New(f.Client(), liveness.Options{
		Workers:   config.LinkWorkers,
		Timeout:   config.ProbeTimeout,
		Rate:      config.ProbeRate,
		UserAgent: config.UserAgent,
	})

	prober := signals.New(f.Client(), checker, signals.Options{
		PageRankKey:      config.PageRankKey,
		PageRankEndpoint: config.PageRankEndpoint,
		Offline:          config.Offline,
		Timeout:          config.ProbeTimeout,
		UserAgent:        config.UserAgent,
	})

	e := &Engine{
		config:  config,
		fetcher: f,
		checker: checker,
		prober:  prober,
	}

	if config.DetectTechnologies {
		detector, err := techdetect.New()
		if err != nil {
			return nil, fmt.Errorf("load technology fingerprints: %w", err)
		}
		e.detector = detector
	}

	return e, nil
}

// Config returns the engine configuration
func (e *Engine) Config() *Config {
	return e.config
}

// Status probes target for reachability without analysing it
func (e *Engine) Status(ctx context.Context, target string) *fetcher.StatusResult {
	return e.fetcher.Status(ctx, target)
}

// Analyze fetches target, extracts its SEO fields and checks its links and
// site resources. Only fetch and parse failures are returned as errors;
// individual probe failures are reported in the result.
func (e *Engine) Analyze(ctx context.Context, target string) (*Result, error) {
	ctx, span := observability.StartAnalysisSpan(ctx, observability.AnalysisSpanInfo{
		URL:     target,
		Offline: e.config.Offline,
	})
	defer span.End()

	start := time.Now()

	page, err := e.fetch(ctx, target)
	if err != nil {
		e.recordFailure(ctx, target, "fetch_failed", err, start)
		return nil, err
	}

	base := page.FinalURL
	if base == "" {
		base = target
	}
	tree, err := markup.Parse(page.Body, base)
	if err != nil {
		e.recordFailure(ctx, target, "parse_failed", err, start)
		return nil, err
	}

	fields := extract.Extract(ctx, tree)
	resources := links.CollectResources(tree)

	var (
		health LinkHealth
		techs  techdetect.Technologies
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		health = e.linkHealth(gctx, tree, fields.AnchorLinks)
		return nil
	})
	if e.detector != nil {
		g.Go(func() error {
			techs = e.detector.Detect(page.Headers, page.Body)
			return nil
		})
	}
	_ = g.Wait()

	info := PageInfo{
		FinalURL:    page.FinalURL,
		StatusCode:  page.StatusCode,
		ContentType: page.ContentType,
		Encoding:    page.Encoding,
		ElapsedMS:   page.Elapsed.Milliseconds(),
		Timings:     page.Timings,
		Truncated:   page.Truncated,
	}
	result := Assemble(target, info, fields, resources, health, techs)

	observability.RecordAnalysis(ctx, observability.AnalysisMetrics{
		Status:      "success",
		Duration:    time.Since(start),
		AnchorCount: fields.AnchorLinks.Len(),
		BrokenCount: len(health.BrokenAnchors),
	})

	log.Info().
		Str("url", target).
		Int("status", page.StatusCode).
		Int("anchors", fields.AnchorLinks.Len()).
		Int("broken", len(health.BrokenAnchors)).
		Dur("duration", time.Since(start)).
		Msg("Analysis completed")

	return result, nil
}

func (e *Engine) fetch(ctx context.Context, target string) (*fetcher.Page, error) {
	ctx, span := observability.StartStageSpan(ctx, "fetch")
	defer span.End()
	return e.fetcher.Fetch(ctx, target)
}

// linkHealth runs the anchor checks, the robots/sitemap chain and the page
// rank lookup concurrently. Each branch writes only its own fields.
func (e *Engine) linkHealth(ctx context.Context, tree *markup.Tree, anchors links.Set) LinkHealth {
	ctx, span := observability.StartStageSpan(ctx, "link_health")
	defer span.End()

	toCheck := anchors.Sorted()
	if e.config.MaxLinks > 0 && len(toCheck) > e.config.MaxLinks {
		toCheck = toCheck[:e.config.MaxLinks]
	}

	health := LinkHealth{CheckedLinks: len(toCheck)}
	origin := tree.Origin()

	var g errgroup.Group
	g.Go(func() error {
		health.BrokenAnchors = e.checker.CheckLinks(ctx, toCheck)
		return nil
	})
	g.Go(func() error {
		robotsURL, ok := e.checker.CheckSiteResource(ctx, origin, robotsPath, robotsType)
		if ok {
			health.RobotsTxtURL = &robotsURL
		}
		health.SitemapURLs = e.prober.SitemapLinks(ctx, origin, robotsURL)
		return nil
	})
	g.Go(func() error {
		health.PageRank = e.prober.PageRank(ctx, util.Hostname(origin))
		return nil
	})
	_ = g.Wait()

	return health
}

// recordFailure logs a fatal analysis error. Decode and parse failures are
// reported to Sentry; unreachable sites are routine.
func (e *Engine) recordFailure(ctx context.Context, target, status string, err error, start time.Time) {
	observability.RecordAnalysis(ctx, observability.AnalysisMetrics{
		Status:   status,
		Duration: time.Since(start),
	})

	var fe *fetcher.FetchError
	var pe *markup.ParseError
	switch {
	case errors.As(err, &fe) && fe.Kind != fetcher.KindDecode:
		log.Warn().Err(err).Str("url", target).Str("kind", fe.Kind.String()).Msg("Failed to fetch page")
	case errors.As(err, &pe):
		log.Warn().Err(err).Str("url", target).Msg("Failed to parse page")
		sentry.CaptureException(err)
	default:
		log.Error().Err(err).Str("url", target).Msg("Analysis failed")
		sentry.CaptureException(err)
	}
}
