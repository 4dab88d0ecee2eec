// Package liveness probes URLs for reachability.
package liveness

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Harvey-AU/seo-checker/internal/links"
	"github.com/Harvey-AU/seo-checker/internal/observability"
)

const (
	DefaultWorkers = 8
	DefaultTimeout = 10 * time.Second

	// Bytes read from a probe body before it is closed, so the connection can be reused
	drainLimit = 64 * 1024
)

// Options controls probe concurrency and pacing
type Options struct {
	Workers   int           // Maximum probes in flight
	Timeout   time.Duration // Per-probe deadline
	Rate      float64       // Probes per second across all workers; 0 means unlimited
	UserAgent string
}

// Result is the outcome of probing one URL
type Result struct {
	URL         string
	StatusCode  int
	ContentType string
	Err         error
}

// Broken reports whether the probe failed or the server answered with an error status
func (r Result) Broken() bool {
	return r.Err != nil || r.StatusCode >= http.StatusBadRequest
}

// Checker issues liveness probes over a shared client
type Checker struct {
	client  *http.Client
	opts    Options
	limiter *rate.Limiter
}

// New creates a Checker. Zero options fall back to defaults.
func New(client *http.Client, opts Options) *Checker {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	c := &Checker{client: client, opts: opts}
	if opts.Rate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.Rate), opts.Workers)
	}
	return c
}

// Probe checks a single URL. HEAD is tried first; servers that reject it get a GET.
func (c *Checker) Probe(ctx context.Context, target string) Result {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Result{URL: target, Err: err}
		}
	}

	result := c.do(ctx, http.MethodHead, target)
	if result.Err == nil && needsGetFallback(result.StatusCode) {
		result = c.do(ctx, http.MethodGet, target)
	}
	return result
}

func needsGetFallback(status int) bool {
	switch status {
	case http.StatusMethodNotAllowed, http.StatusForbidden, http.StatusNotImplemented:
		return true
	}
	return false
}

func (c *Checker) do(ctx context.Context, method, target string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	result := Result{URL: target}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		result.Err = err
		return result
	}
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		result.Err = err
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))

	result.StatusCode = resp.StatusCode
	result.ContentType = resp.Header.Get("Content-Type")
	return result
}

// CheckLinks probes every URL with at most Workers in flight and returns the
// broken ones in the order their probes completed. A failing probe never
// aborts the batch.
func (c *Checker) CheckLinks(ctx context.Context, urls []string) []string {
	broken := make([]string, 0)
	if len(urls) == 0 {
		return broken
	}

	results := make(chan Result, len(urls))

	var g errgroup.Group
	g.SetLimit(c.opts.Workers)
	for _, u := range urls {
		g.Go(func() error {
			results <- c.Probe(ctx, u)
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	for r := range results {
		observability.RecordProbe(ctx, "anchor", r.Broken())
		if !r.Broken() {
			continue
		}
		event := log.Debug().Str("url", r.URL).Int("status", r.StatusCode)
		if r.Err != nil {
			event = event.Err(r.Err)
		}
		event.Msg("Broken link")
		broken = append(broken, r.URL)
	}

	return broken
}

// CheckSiteResource probes origin+path and returns its absolute URL when it is
// live. When the server sends a Content-Type it must contain wantType.
func (c *Checker) CheckSiteResource(ctx context.Context, origin, path, wantType string) (string, bool) {
	target := links.Resolve(path, origin)
	result := c.Probe(ctx, target)

	ok := !result.Broken()
	if ok && result.ContentType != "" && wantType != "" {
		ok = strings.Contains(strings.ToLower(result.ContentType), strings.ToLower(wantType))
	}
	observability.RecordProbe(ctx, strings.TrimPrefix(path, "/"), !ok)

	log.Debug().
		Str("url", target).
		Int("status", result.StatusCode).
		Str("content_type", result.ContentType).
		Bool("live", ok).
		Msg("Checked site resource")

	if !ok {
		return "", false
	}
	return target, true
}
