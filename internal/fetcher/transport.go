package fetcher

import (
	"context"
	"crypto/tls"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Timings records connection phase durations for a single request, in milliseconds
type Timings struct {
	DNSLookup     int64 `json:"dns_lookup_ms"`
	TCPConnection int64 `json:"tcp_connection_ms"`
	TLSHandshake  int64 `json:"tls_handshake_ms"`
	TTFB          int64 `json:"ttfb_ms"`
}

type timingsKey struct{}

func withTimings(ctx context.Context, t *Timings) context.Context {
	return context.WithValue(ctx, timingsKey{}, t)
}

func timingsFrom(ctx context.Context) *Timings {
	t, _ := ctx.Value(timingsKey{}).(*Timings)
	return t
}

// tracingRoundTripper fills in the Timings carried by the request context.
// Requests without one pass straight through.
type tracingRoundTripper struct {
	transport http.RoundTripper
}

func (t *tracingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	timings := timingsFrom(req.Context())
	if timings == nil {
		return t.transport.RoundTrip(req)
	}

	var dnsStart, connectStart, tlsStart time.Time
	requestStart := time.Now()

	trace := &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			if !dnsStart.IsZero() {
				timings.DNSLookup = time.Since(dnsStart).Milliseconds()
			}
		},
		ConnectStart: func(string, string) {
			connectStart = time.Now()
		},
		ConnectDone: func(_, _ string, err error) {
			if err == nil && !connectStart.IsZero() {
				timings.TCPConnection = time.Since(connectStart).Milliseconds()
			}
		},
		TLSHandshakeStart: func() {
			tlsStart = time.Now()
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, err error) {
			if err == nil && !tlsStart.IsZero() {
				timings.TLSHandshake = time.Since(tlsStart).Milliseconds()
			}
		},
		GotFirstResponseByte: func() {
			timings.TTFB = time.Since(requestStart).Milliseconds()
		},
	}

	req = req.WithContext(httptrace.WithClientTrace(req.Context(), trace))
	return t.transport.RoundTrip(req)
}

// NewClient builds the pooled client shared by the page fetch and every probe
func NewClient(timeout time.Duration) *http.Client {
	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 25,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     120 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: &tracingRoundTripper{transport: otelhttp.NewTransport(base)},
	}
}
