// Package techdetect identifies the technologies a page is built with.
package techdetect

import (
	"net/http"
	"sort"
	"sync"

	wappalyzer "github.com/projectdiscovery/wappalyzergo"
	"github.com/rs/zerolog/log"
)

// Technologies maps a technology name to its category names,
// e.g. {"WordPress": ["CMS", "Blogs"]}
type Technologies map[string][]string

// Names returns the detected technology names in lexical order
func (t Technologies) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detector fingerprints pages against the wappalyzer rule set
type Detector struct {
	client *wappalyzer.Wappalyze
}

var (
	categoryNames     map[int]string
	categoryNamesOnce sync.Once
)

// New loads the fingerprint database. It is expensive; build one Detector and share it.
func New() (*Detector, error) {
	client, err := wappalyzer.New()
	if err != nil {
		return nil, err
	}

	categoryNamesOnce.Do(func() {
		categoryNames = make(map[int]string)
		for id, cat := range wappalyzer.GetCategoriesMapping() {
			categoryNames[id] = cat.Name
		}
	})

	return &Detector{client: client}, nil
}

// Detect fingerprints a response from its headers and body
func (d *Detector) Detect(headers http.Header, body []byte) Technologies {
	techs := make(Technologies)
	if headers == nil {
		headers = make(http.Header)
	}

	for tech, info := range d.client.FingerprintWithCats(headers, body) {
		categories := make([]string, 0, len(info.Cats))
		for _, id := range info.Cats {
			if name, ok := categoryNames[id]; ok {
				categories = append(categories, name)
			}
		}
		sort.Strings(categories)
		techs[tech] = categories
	}

	log.Debug().
		Int("tech_count", len(techs)).
		Strs("technologies", techs.Names()).
		Msg("Technology detection completed")

	return techs
}
