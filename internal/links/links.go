// Package links classifies and resolves document references.
package links

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Harvey-AU/seo-checker/internal/markup"
)

var nonNavigablePrefixes = []string{"javascript:", "mailto:", "tel:"}

// IsNavigable reports whether an anchor reference points at another page.
// Fragment-only refs, the bare root "/" and script, mail and phone schemes
// are excluded.
func IsNavigable(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "/" || strings.HasPrefix(ref, "#") {
		return false
	}

	lower := strings.ToLower(ref)
	for _, prefix := range nonNavigablePrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

// Resolve turns ref into an absolute URL against origin (scheme://host).
//
// Absolute http(s) refs are returned unchanged. Protocol-relative refs take
// the origin's scheme when a host follows the "//"; anything else, including
// host-less refs like "///about", is joined to the origin root.
func Resolve(ref, origin string) string {
	ref = strings.TrimSpace(ref)
	origin = strings.TrimRight(origin, "/")

	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return ref
	}

	if strings.HasPrefix(ref, "//") && !strings.HasPrefix(ref, "///") {
		scheme, _, found := strings.Cut(origin, "://")
		if !found {
			scheme = "https"
		}
		return scheme + ":" + ref
	}

	return origin + "/" + strings.TrimLeft(ref, "/")
}

// Anchors returns the resolved set of navigable anchor targets in the document
func Anchors(tree *markup.Tree) Set {
	anchors := NewSet()
	tree.Document().Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !IsNavigable(href) {
			return
		}
		anchors.Add(Resolve(href, tree.Origin()))
	})
	return anchors
}

// Resources lists the assets a page depends on
type Resources struct {
	Images      Set `json:"images"`
	Stylesheets Set `json:"stylesheets"`
	Scripts     Set `json:"scripts"`
}

// CollectResources gathers image, stylesheet and script references. Inline
// data URIs are skipped.
func CollectResources(tree *markup.Tree) *Resources {
	res := &Resources{
		Images:      NewSet(),
		Stylesheets: NewSet(),
		Scripts:     NewSet(),
	}

	collect := func(selector, attr string, into Set) {
		tree.Document().Find(selector).Each(func(_ int, s *goquery.Selection) {
			ref := strings.TrimSpace(s.AttrOr(attr, ""))
			if ref == "" || strings.HasPrefix(strings.ToLower(ref), "data:") {
				return
			}
			into.Add(Resolve(ref, tree.Origin()))
		})
	}

	collect("img[src]", "src", res.Images)
	collect(`link[rel~="stylesheet"][href]`, "href", res.Stylesheets)
	collect("script[src]", "src", res.Scripts)

	return res
}
