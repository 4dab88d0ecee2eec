package fetcher

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const statusUnavailable = "Connection unavailable"

// StatusResult is the outcome of a lightweight reachability probe
type StatusResult struct {
	URL     string  `json:"url"`
	Status  int     `json:"status,omitempty"`
	Elapsed float64 `json:"elapsed,omitempty"` // seconds
	Error   string  `json:"error,omitempty"`
}

// OK reports whether the probe saw a 200 response
func (s *StatusResult) OK() bool {
	return s.Error == ""
}

// Status issues a bounded GET to target and reports the status and elapsed time.
// It never returns an error; failures are described in the result.
func (f *Fetcher) Status(ctx context.Context, target string) *StatusResult {
	result := &StatusResult{URL: target}

	ctx, cancel := context.WithTimeout(ctx, f.config.StatusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		result.Error = statusUnavailable
		return result
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", target).Msg("Status probe failed")
		result.Error = statusUnavailable
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))

	result.Status = resp.StatusCode
	result.Elapsed = time.Since(start).Seconds()
	if resp.StatusCode != http.StatusOK {
		result.Error = statusUnavailable
	}
	return result
}
