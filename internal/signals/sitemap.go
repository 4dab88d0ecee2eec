package signals

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"
)

// SitemapLinks locates the site's sitemaps. A live /sitemap.xml at the origin
// wins; otherwise the Sitemap declarations in robotsURL are used. robotsURL
// may be empty when the site has no usable robots.txt.
func (p *Prober) SitemapLinks(ctx context.Context, origin, robotsURL string) []string {
	if sitemap, ok := p.checker.CheckSiteResource(ctx, origin, sitemapPath, "xml"); ok {
		return []string{sitemap}
	}
	if robotsURL == "" {
		return nil
	}

	declared, err := p.robotsSitemaps(ctx, robotsURL)
	if err != nil {
		log.Debug().Err(err).Str("url", robotsURL).Msg("Could not read sitemaps from robots.txt")
		return nil
	}
	if len(declared) == 0 {
		return nil
	}
	return declared
}

func (p *Prober) robotsSitemaps(ctx context.Context, robotsURL string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	req, err := p.newRequest(ctx, robotsURL)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("robots.txt returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data.Sitemaps, nil
}
