// Package extract pulls SEO-relevant fields out of a parsed document.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Harvey-AU/seo-checker/internal/links"
	"github.com/Harvey-AU/seo-checker/internal/markup"
)

const headingLevels = 6

const (
	headingPath     = "//h%d"
	inlineStylePath = "//*[@style]"
	missingAltPath  = "//img[not(@alt)]"
)

// Fields holds everything extracted from a single document. Scalar fields are
// nil when the document does not carry them.
type Fields struct {
	Title            *string          `json:"title,omitempty"`
	Description      *string          `json:"description,omitempty"`
	FaviconURL       *string          `json:"favicon_url,omitempty"`
	RobotsMeta       *string          `json:"robots_meta,omitempty"`
	Headings         map[int][]string `json:"headings"`
	InlineStyledTags []string         `json:"inline_styled_tags"`
	ImagesMissingAlt []string         `json:"images_missing_alt"`
	AnchorLinks      links.Set        `json:"anchor_links"`
}

// scalarField describes one first-match field
type scalarField struct {
	name    string
	xpath   string
	resolve bool // value is a reference to make absolute
	set     func(*Fields, string)
}

var scalarFields = []scalarField{
	{
		name:  "title",
		xpath: "//title/text()",
		set:   func(f *Fields, v string) { f.Title = &v },
	},
	{
		name:  "description",
		xpath: `//meta[lower-case(@name)="description"]/@content`,
		set:   func(f *Fields, v string) { f.Description = &v },
	},
	{
		name:    "favicon",
		xpath:   `//link[contains(lower-case(@rel), "icon")]/@href`,
		resolve: true,
		set:     func(f *Fields, v string) { f.FaviconURL = &v },
	},
	{
		name:  "robots_meta",
		xpath: `//meta[lower-case(@name)="robots"]/@content`,
		set:   func(f *Fields, v string) { f.RobotsMeta = &v },
	},
}

// Extract reads every field from tree. Missing fields are left nil or empty.
func Extract(ctx context.Context, tree *markup.Tree) *Fields {
	fields := &Fields{
		InlineStyledTags: make([]string, 0),
		ImagesMissingAlt: make([]string, 0),
	}

	for _, sf := range scalarFields {
		nodes := tree.Query(sf.xpath, false)
		if len(nodes) == 0 {
			continue
		}
		value := strings.TrimSpace(markup.Text(nodes[0]))
		if value == "" {
			continue
		}
		if sf.resolve {
			value = links.Resolve(value, tree.Origin())
		}
		sf.set(fields, value)
	}

	fields.Headings = extractHeadings(ctx, tree)

	for _, n := range tree.Query(inlineStylePath, true) {
		fields.InlineStyledTags = append(fields.InlineStyledTags, markup.StartTag(n))
	}
	for _, n := range tree.Query(missingAltPath, true) {
		fields.ImagesMissingAlt = append(fields.ImagesMissingAlt, markup.StartTag(n))
	}

	fields.AnchorLinks = links.Anchors(tree)

	log.Debug().
		Str("origin", tree.Origin()).
		Int("anchors", fields.AnchorLinks.Len()).
		Int("heading_levels", len(fields.Headings)).
		Msg("Extracted fields")

	return fields
}

// extractHeadings queries the six heading levels concurrently. Levels with no
// non-empty heading are omitted from the result.
func extractHeadings(ctx context.Context, tree *markup.Tree) map[int][]string {
	var levels [headingLevels][]string

	g, _ := errgroup.WithContext(ctx)
	for level := 1; level <= headingLevels; level++ {
		g.Go(func() error {
			nodes := tree.Query(fmt.Sprintf(headingPath, level), true)
			texts := make([]string, 0, len(nodes))
			for _, n := range nodes {
				texts = append(texts, markup.Text(n))
			}
			levels[level-1] = CleanHeadings(texts)
			return nil
		})
	}
	_ = g.Wait()

	headings := make(map[int][]string)
	for i, entries := range levels {
		if len(entries) > 0 {
			headings[i+1] = entries
		}
	}
	return headings
}

// CleanHeadings trims each value, collapses internal whitespace runs to a
// single space and drops values left empty. Order is preserved.
func CleanHeadings(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.Join(strings.Fields(v), " "); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	return cleaned
}
