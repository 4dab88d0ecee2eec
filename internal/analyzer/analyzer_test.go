package analyzer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harvey-AU/seo-checker/internal/fetcher"
	"github.com/Harvey-AU/seo-checker/internal/markup"
	"github.com/Harvey-AU/seo-checker/internal/testutil"
)

const homePage = `<!DOCTYPE html>
<html>
<head>
  <title>Example Shop</title>
  <meta name="description" content="Everything for sale">
  <link rel="icon" href="/favicon.ico">
  <link rel="stylesheet" href="/site.css">
</head>
<body>
  <h1>Welcome</h1>
  <h2>Deals</h2><h2>News</h2>
  <p style="font-weight:bold">Hello</p>
  <img src="/hero.png">
  <a href="/products">Products</a>
  <a href="/products">Products again</a>
  <a href="/old-page">Old</a>
  <a href="#top">Top</a>
  <a href="mailto:shop@example.com">Mail</a>
</body>
</html>`

type site struct {
	robots  string
	sitemap bool
	rank    string
}

func newSite(t *testing.T, s site) *httptest.Server {
	t.Helper()

	routes := testutil.Routes{
		"/":         testutil.HTML(homePage),
		"/products": testutil.Status(http.StatusOK),
		"/empty":    testutil.HTML(""),
		"/rank": testutil.Content("application/json",
			`{"status_code":200,"response":[{"status_code":200,"rank":"`+s.rank+`"}]}`),
	}
	if s.robots != "" {
		routes["/robots.txt"] = testutil.Content("text/plain", s.robots)
	}
	if s.sitemap {
		routes["/sitemap.xml"] = testutil.Content("application/xml", "<urlset/>")
	}

	return testutil.NewSite(t, routes)
}

func testConfig(server *httptest.Server) *Config {
	config := DefaultConfig()
	config.FetchTimeout = 5 * time.Second
	config.ProbeTimeout = 2 * time.Second
	config.DetectTechnologies = false
	config.PageRankEndpoint = server.URL + "/rank"
	config.PageRankKey = "test-key"
	return config
}

func TestAnalyze(t *testing.T) {
	server := newSite(t, site{robots: "User-agent: *\nDisallow:\n", sitemap: true, rank: "5"})

	engine, err := New(testConfig(server), nil)
	require.NoError(t, err)

	result, err := engine.Analyze(context.Background(), server.URL+"/")
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/", result.URL)
	assert.Equal(t, http.StatusOK, result.Page.StatusCode)
	assert.Equal(t, "utf-8", result.Page.Encoding)

	fields := result.Fields
	require.NotNil(t, fields.Title)
	assert.Equal(t, "Example Shop", *fields.Title)
	require.NotNil(t, fields.Description)
	assert.Equal(t, "Everything for sale", *fields.Description)
	require.NotNil(t, fields.FaviconURL)
	assert.Equal(t, server.URL+"/favicon.ico", *fields.FaviconURL)
	assert.Nil(t, fields.RobotsMeta)
	assert.Equal(t, map[int][]string{1: {"Welcome"}, 2: {"Deals", "News"}}, fields.Headings)
	assert.Equal(t, []string{`<p style="font-weight:bold">`}, fields.InlineStyledTags)
	assert.Equal(t, []string{`<img src="/hero.png">`}, fields.ImagesMissingAlt)
	assert.Equal(t, []string{server.URL + "/old-page", server.URL + "/products"}, fields.AnchorLinks.Sorted())

	assert.Equal(t, []string{server.URL + "/site.css"}, result.Resources.Stylesheets.Sorted())
	assert.Equal(t, []string{server.URL + "/hero.png"}, result.Resources.Images.Sorted())

	health := result.LinkHealth
	assert.Equal(t, []string{server.URL + "/old-page"}, health.BrokenAnchors)
	assert.Equal(t, 2, health.CheckedLinks)
	require.NotNil(t, health.RobotsTxtURL)
	assert.Equal(t, server.URL+"/robots.txt", *health.RobotsTxtURL)
	assert.Equal(t, []string{server.URL + "/sitemap.xml"}, health.SitemapURLs)
	assert.Equal(t, 5, health.PageRank)
	assert.Nil(t, result.Technologies)
}

func TestAnalyzeSitemapFromRobots(t *testing.T) {
	server := newSite(t, site{robots: "Sitemap: https://example.com/sitemap_index.xml\n"})

	config := testConfig(server)
	config.Offline = true
	engine, err := New(config, nil)
	require.NoError(t, err)

	result, err := engine.Analyze(context.Background(), server.URL+"/")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/sitemap_index.xml"}, result.LinkHealth.SitemapURLs)
	assert.Equal(t, 0, result.LinkHealth.PageRank)
}

func TestAnalyzeWithoutSiteResources(t *testing.T) {
	server := newSite(t, site{})

	config := testConfig(server)
	config.Offline = true
	engine, err := New(config, nil)
	require.NoError(t, err)

	result, err := engine.Analyze(context.Background(), server.URL+"/")
	require.NoError(t, err)

	assert.Nil(t, result.LinkHealth.RobotsTxtURL)
	assert.Empty(t, result.LinkHealth.SitemapURLs)
}

func TestAnalyzeMaxLinks(t *testing.T) {
	server := newSite(t, site{})

	config := testConfig(server)
	config.Offline = true
	config.MaxLinks = 1
	engine, err := New(config, nil)
	require.NoError(t, err)

	result, err := engine.Analyze(context.Background(), server.URL+"/")
	require.NoError(t, err)

	// Sorted anchors are capped, so only /old-page is probed
	assert.Equal(t, 1, result.LinkHealth.CheckedLinks)
	assert.Equal(t, []string{server.URL + "/old-page"}, result.LinkHealth.BrokenAnchors)
	assert.Equal(t, 2, result.Fields.AnchorLinks.Len())
}

func TestAnalyzeErrorStatusPage(t *testing.T) {
	server := newSite(t, site{})

	config := testConfig(server)
	config.Offline = true
	engine, err := New(config, nil)
	require.NoError(t, err)

	result, err := engine.Analyze(context.Background(), server.URL+"/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, result.Page.StatusCode)
}

func TestAnalyzeEmptyBody(t *testing.T) {
	server := newSite(t, site{})

	config := testConfig(server)
	config.Offline = true
	engine, err := New(config, nil)
	require.NoError(t, err)

	_, err = engine.Analyze(context.Background(), server.URL+"/empty")
	require.Error(t, err)

	var pe *markup.ParseError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, markup.ErrEmptyDocument)
}

func TestAnalyzeUnreachable(t *testing.T) {
	server := newSite(t, site{})
	target := server.URL + "/"
	config := testConfig(server)
	config.Offline = true
	server.Close()

	engine, err := New(config, nil)
	require.NoError(t, err)

	_, err = engine.Analyze(context.Background(), target)
	require.Error(t, err)

	var fe *fetcher.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fetcher.KindNetwork, fe.Kind)
}

func TestAnalyzeConcurrentUse(t *testing.T) {
	server := newSite(t, site{sitemap: true})

	config := testConfig(server)
	config.Offline = true
	engine, err := New(config, nil)
	require.NoError(t, err)

	const runs = 4
	errs := make(chan error, runs)
	for range runs {
		go func() {
			result, err := engine.Analyze(context.Background(), server.URL+"/")
			if err == nil && len(result.LinkHealth.BrokenAnchors) != 1 {
				err = assert.AnError
			}
			errs <- err
		}()
	}
	for range runs {
		assert.NoError(t, <-errs)
	}
}

func TestAnalyzeDetectsTechnologies(t *testing.T) {
	server := newSite(t, site{})

	config := testConfig(server)
	config.Offline = true
	config.DetectTechnologies = true
	engine, err := New(config, nil)
	require.NoError(t, err)

	result, err := engine.Analyze(context.Background(), server.URL+"/")
	require.NoError(t, err)
	assert.NotNil(t, result.Technologies)
}

func TestResultJSON(t *testing.T) {
	server := newSite(t, site{sitemap: true})

	config := testConfig(server)
	config.Offline = true
	engine, err := New(config, nil)
	require.NoError(t, err)

	result, err := engine.Analyze(context.Background(), server.URL+"/")
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	fields := decoded["fields"].(map[string]any)
	anchors := fields["anchor_links"].([]any)
	got := make([]string, 0, len(anchors))
	for _, a := range anchors {
		got = append(got, a.(string))
	}
	assert.True(t, sort.StringsAreSorted(got))
	assert.Contains(t, fields, "headings")
	assert.Contains(t, decoded["link_health"], "broken_anchors")
}

func TestStatus(t *testing.T) {
	server := newSite(t, site{})
	engine, err := New(testConfig(server), nil)
	require.NoError(t, err)

	status := engine.Status(context.Background(), server.URL+"/")
	assert.True(t, status.OK())
	assert.Equal(t, http.StatusOK, status.Status)
}
