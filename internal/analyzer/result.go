package analyzer

import (
	"github.com/Harvey-AU/seo-checker/internal/extract"
	"github.com/Harvey-AU/seo-checker/internal/fetcher"
	"github.com/Harvey-AU/seo-checker/internal/links"
	"github.com/Harvey-AU/seo-checker/internal/techdetect"
)

// PageInfo describes how the page was retrieved
type PageInfo struct {
	FinalURL    string          `json:"final_url"`
	StatusCode  int             `json:"status_code"`
	ContentType string          `json:"content_type,omitempty"`
	Encoding    string          `json:"encoding"`
	ElapsedMS   int64           `json:"elapsed_ms"`
	Timings     fetcher.Timings `json:"timings"`
	Truncated   bool            `json:"truncated,omitempty"`
}

// LinkHealth reports reachability of the page's links and site resources
type LinkHealth struct {
	BrokenAnchors []string `json:"broken_anchors"`
	CheckedLinks  int      `json:"checked_links"`
	RobotsTxtURL  *string  `json:"robots_txt_url,omitempty"`
	SitemapURLs   []string `json:"sitemap_urls,omitempty"`
	PageRank      int      `json:"page_rank"`
}

// Result is the full analysis of one page
type Result struct {
	URL          string                  `json:"url"`
	Page         PageInfo                `json:"page"`
	Fields       *extract.Fields         `json:"fields"`
	Resources    *links.Resources        `json:"resources"`
	LinkHealth   LinkHealth              `json:"link_health"`
	Technologies techdetect.Technologies `json:"technologies,omitempty"`
}

// Assemble combines the pieces of an analysis into a Result. It performs no I/O.
func Assemble(url string, page PageInfo, fields *extract.Fields, resources *links.Resources, health LinkHealth, techs techdetect.Technologies) *Result {
	if fields == nil {
		fields = &extract.Fields{
			Headings:         map[int][]string{},
			InlineStyledTags: []string{},
			ImagesMissingAlt: []string{},
			AnchorLinks:      links.NewSet(),
		}
	}
	if resources == nil {
		resources = &links.Resources{Images: links.NewSet(), Stylesheets: links.NewSet(), Scripts: links.NewSet()}
	}
	if health.BrokenAnchors == nil {
		health.BrokenAnchors = []string{}
	}

	return &Result{
		URL:          url,
		Page:         page,
		Fields:       fields,
		Resources:    resources,
		LinkHealth:   health,
		Technologies: techs,
	}
}
