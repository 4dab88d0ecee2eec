package signals

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

type pageRankResponse struct {
	StatusCode int             `json:"status_code"`
	Response   []pageRankEntry `json:"response"`
}

type pageRankEntry struct {
	StatusCode int       `json:"status_code"`
	Domain     string    `json:"domain"`
	Rank       rankValue `json:"rank"`
}

// rankValue accepts the rank as a JSON number, a numeric string or null
type rankValue int

func (r *rankValue) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*r = 0
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return err
	}
	*r = rankValue(n)
	return nil
}

// PageRank returns the domain's rank from the page-rank service. Any failure,
// and offline mode, yields 0.
func (p *Prober) PageRank(ctx context.Context, domain string) int {
	if p.opts.Offline || domain == "" {
		return 0
	}

	rank, err := p.fetchPageRank(ctx, domain)
	if err != nil {
		log.Debug().Err(err).Str("domain", domain).Msg("Page rank lookup failed")
		return 0
	}
	return rank
}

func (p *Prober) fetchPageRank(ctx context.Context, domain string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	endpoint, err := url.Parse(p.opts.PageRankEndpoint)
	if err != nil {
		return 0, err
	}
	query := endpoint.Query()
	query.Set("domains[0]", domain)
	endpoint.RawQuery = query.Encode()

	req, err := p.newRequest(ctx, endpoint.String())
	if err != nil {
		return 0, err
	}
	req.Header.Set("API-OPR", p.opts.PageRankKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &statusError{code: resp.StatusCode}
	}

	var payload pageRankResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, err
	}
	if payload.StatusCode != 0 && payload.StatusCode != http.StatusOK {
		return 0, &statusError{code: payload.StatusCode}
	}
	if len(payload.Response) == 0 {
		return 0, nil
	}

	entry := payload.Response[0]
	if entry.StatusCode != 0 && entry.StatusCode != http.StatusOK {
		return 0, &statusError{code: entry.StatusCode}
	}
	if entry.Rank < 0 {
		return 0, nil
	}
	return int(entry.Rank), nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return "page rank service returned status " + strconv.Itoa(e.code)
}
