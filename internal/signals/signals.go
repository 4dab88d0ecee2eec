// Package signals gathers site-level signals: sitemap locations and page rank.
package signals

import (
	"context"
	"net/http"
	"time"

	"github.com/Harvey-AU/seo-checker/internal/liveness"
)

const (
	DefaultPageRankEndpoint = "https://openpagerank.com/api/v1.0/getPageRank"
	DefaultTimeout          = 10 * time.Second

	sitemapPath = "/sitemap.xml"

	// robots.txt bodies beyond this size are truncated
	maxRobotsSize = 1 << 20
)

// Options configures the Prober
type Options struct {
	PageRankKey      string
	PageRankEndpoint string
	Offline          bool // skip the page-rank lookup entirely
	Timeout          time.Duration
	UserAgent        string
}

// Prober looks up signals that live outside the analysed page
type Prober struct {
	client  *http.Client
	checker *liveness.Checker
	opts    Options
}

// New creates a Prober sharing client and checker with the rest of the analysis
func New(client *http.Client, checker *liveness.Checker, opts Options) *Prober {
	if client == nil {
		client = http.DefaultClient
	}
	if opts.PageRankEndpoint == "" {
		opts.PageRankEndpoint = DefaultPageRankEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Prober{client: client, checker: checker, opts: opts}
}

func (p *Prober) newRequest(ctx context.Context, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	if p.opts.UserAgent != "" {
		req.Header.Set("User-Agent", p.opts.UserAgent)
	}
	return req, nil
}
