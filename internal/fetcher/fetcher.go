package fetcher

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog/log"
)

const (
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptLanguage = "en-US,en;q=0.9"
)

// Page is a retrieved document with its body decoded to UTF-8
type Page struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Encoding    string
	Headers     http.Header
	Body        []byte
	Elapsed     time.Duration
	Timings     Timings
	Truncated   bool // Body was cut off at Config.MaxBodySize
}

// Fetcher retrieves pages through a colly collector backed by a shared client
type Fetcher struct {
	config    *Config
	client    *http.Client
	collector *colly.Collector
}

// New creates a Fetcher. A nil client gets a pooled client built from config.
func New(config *Config, client *http.Client) *Fetcher {
	if config == nil {
		config = DefaultConfig()
	}
	if client == nil {
		client = NewClient(config.Timeout)
	}

	c := colly.NewCollector(
		colly.UserAgent(config.UserAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
		colly.MaxBodySize(config.MaxBodySize),
	)
	c.SetClient(client)

	return &Fetcher{
		config:    config,
		client:    client,
		collector: c,
	}
}

// Client returns the shared HTTP client so probes reuse the same connection pool
func (f *Fetcher) Client() *http.Client {
	return f.client
}

// Config returns the fetcher configuration
func (f *Fetcher) Config() *Config {
	return f.config
}

// Fetch performs a single GET of target. HTTP error statuses are returned as
// pages; only transport failures, deadlines and undecodable bodies are errors.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	page := &Page{URL: target}
	collector := f.collector.Clone()
	collector.Context = withTimings(ctx, &page.Timings)

	var (
		transportErr error
		sawHeaders   bool
		sawBody      bool
	)

	// Clone drops request callbacks, so they are registered per fetch
	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", acceptHeader)
		r.Headers.Set("Accept-Language", acceptLanguage)

		log.Debug().
			Str("url", r.URL.String()).
			Msg("Fetcher sending request")
	})

	collector.OnResponseHeaders(func(r *colly.Response) {
		sawHeaders = true
	})

	collector.OnResponse(func(r *colly.Response) {
		sawBody = true
		page.FinalURL = r.Request.URL.String()
		page.StatusCode = r.StatusCode
		if r.Headers != nil {
			page.Headers = r.Headers.Clone()
			page.ContentType = r.Headers.Get("Content-Type")
		}
		page.Body = r.Body
		if limit := f.config.MaxBodySize; limit > 0 && len(r.Body) >= limit {
			page.Truncated = true
			log.Debug().
				Str("url", r.Request.URL.String()).
				Int("max_body_size", limit).
				Msg("Response body truncated")
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		transportErr = err
	})

	start := time.Now()
	err := collector.Visit(target)
	page.Elapsed = time.Since(start)

	if err != nil {
		kind := KindNetwork
		switch {
		case isTimeoutErr(err) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			kind = KindTimeout
		case transportErr == nil && sawHeaders:
			// The response arrived but colly could not convert its charset
			kind = KindDecode
		}
		log.Debug().
			Err(err).
			Str("url", target).
			Str("kind", kind.String()).
			Msg("Fetch failed")
		return nil, &FetchError{Kind: kind, URL: target, Err: err}
	}
	if !sawBody {
		return nil, &FetchError{Kind: KindNetwork, URL: target, Err: errors.New("no response received")}
	}

	body, encoding, err := decodeBody(page.Body, page.ContentType)
	if err != nil {
		return nil, &FetchError{Kind: KindDecode, URL: target, Err: err}
	}
	page.Body = body
	page.Encoding = encoding

	log.Debug().
		Str("url", target).
		Int("status", page.StatusCode).
		Str("encoding", encoding).
		Dur("elapsed", page.Elapsed).
		Bool("truncated", page.Truncated).
		Msg("Fetched page")

	return page, nil
}
