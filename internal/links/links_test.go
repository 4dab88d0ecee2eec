package links

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harvey-AU/seo-checker/internal/markup"
)

func TestIsNavigable(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"/about", true},
		{"https://other.example/x", true},
		{"page.html", true},
		{"//cdn.example.com/x", true},
		{"/#section", true},
		{"", false},
		{"   ", false},
		{"/", false},
		{" / ", false},
		{"#", false},
		{"#top", false},
		{"javascript:void(0)", false},
		{"JavaScript:alert(1)", false},
		{"mailto:a@b.c", false},
		{"tel:+61400000000", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNavigable(tt.ref))
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		ref    string
		origin string
		want   string
	}{
		{"root relative", "/img/logo.png", "https://example.com", "https://example.com/img/logo.png"},
		{"path relative", "page.html", "https://example.com", "https://example.com/page.html"},
		{"protocol relative", "//cdn.example.com/a.js", "https://example.com", "https://cdn.example.com/a.js"},
		{"protocol relative http", "//cdn.example.com/a.js", "http://example.com", "http://cdn.example.com/a.js"},
		{"absolute unchanged", "http://other.example/x?y=1", "https://example.com", "http://other.example/x?y=1"},
		{"absolute upper case", "HTTPS://Other.example/", "https://example.com", "HTTPS://Other.example/"},
		{"origin trailing slash", "/a", "https://example.com/", "https://example.com/a"},
		{"surrounding whitespace", "  /a  ", "https://example.com", "https://example.com/a"},
		{"repeated slashes", "///a", "https://example.com", "https://example.com/a"},
		{"host-less triple slash", "///about/team", "http://example.com:8080", "http://example.com:8080/about/team"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.ref, tt.origin))
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	for _, ref := range []string{"/x", "y", "//cdn.example.com/z", "https://a.example/b"} {
		once := Resolve(ref, "https://example.com")
		assert.Equal(t, once, Resolve(once, "https://example.com"))
	}
}

func TestAnchors(t *testing.T) {
	doc := `<html><body>
		<a href="/a">A</a>
		<a href="/a">A again</a>
		<a href="https://ext.example/b">B</a>
		<a href="#top">Top</a>
		<a href="/">Home</a>
		<a href="mailto:x@example.com">Mail</a>
		<a>No href</a>
		<a href="c.html">C</a>
		<a href="///about">About</a>
	</body></html>`

	tree, err := markup.Parse([]byte(doc), "https://example.com/dir/page")
	require.NoError(t, err)

	anchors := Anchors(tree)
	assert.Equal(t, []string{
		"https://example.com/a",
		"https://example.com/about",
		"https://example.com/c.html",
		"https://ext.example/b",
	}, anchors.Sorted())
}

func TestCollectResources(t *testing.T) {
	doc := `<html><head>
		<link rel="stylesheet" href="/css/site.css">
		<link rel="preload stylesheet" href="//cdn.example.com/x.css">
		<link rel="icon" href="/favicon.ico">
		<script src="/js/app.js"></script>
		<script>inline()</script>
	</head><body>
		<img src="/a.png"><img src="/a.png"><img src="data:image/png;base64,AAAA"><img>
	</body></html>`

	tree, err := markup.Parse([]byte(doc), "https://example.com")
	require.NoError(t, err)

	res := CollectResources(tree)
	assert.Equal(t, []string{"https://example.com/a.png"}, res.Images.Sorted())
	assert.Equal(t, []string{"https://cdn.example.com/x.css", "https://example.com/css/site.css"}, res.Stylesheets.Sorted())
	assert.Equal(t, []string{"https://example.com/js/app.js"}, res.Scripts.Sorted())
}

func TestSetJSON(t *testing.T) {
	s := NewSet("b", "a", "b")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("a"))

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(data))

	var decoded Set
	require.NoError(t, json.Unmarshal([]byte(`["x","x","y"]`), &decoded))
	assert.Equal(t, 2, decoded.Len())
}
