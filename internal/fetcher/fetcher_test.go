package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(timeout time.Duration) *Fetcher {
	config := DefaultConfig()
	config.Timeout = timeout
	config.StatusTimeout = timeout
	return New(config, nil)
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/utf8":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html><head><title>Café</title></head></html>"))
		case "/latin1":
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			w.Write([]byte("<html><head><title>Caf\xe9</title></head></html>"))
		case "/meta":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><head><meta charset="iso-8859-1"><title>Caf` + "\xe9" + `</title></head></html>`))
		case "/missing":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("<html><title>Not found</title></html>"))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	tests := []struct {
		name         string
		path         string
		wantStatus   int
		wantEncoding string
		wantContains string
	}{
		{
			name:         "declared utf-8",
			path:         "/utf8",
			wantStatus:   http.StatusOK,
			wantEncoding: "utf-8",
			wantContains: "<title>Café</title>",
		},
		{
			name:         "declared latin-1 is converted",
			path:         "/latin1",
			wantStatus:   http.StatusOK,
			wantEncoding: "windows-1252",
			wantContains: "<title>Café</title>",
		},
		{
			name:         "meta charset without header",
			path:         "/meta",
			wantStatus:   http.StatusOK,
			wantEncoding: "windows-1252",
			wantContains: "<title>Café</title>",
		},
		{
			name:         "error status is still a page",
			path:         "/missing",
			wantStatus:   http.StatusNotFound,
			wantEncoding: "utf-8",
			wantContains: "Not found",
		},
	}

	f := newTestFetcher(5 * time.Second)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.Fetch(context.Background(), server.URL+tt.path)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, page.StatusCode)
			assert.Equal(t, tt.wantEncoding, page.Encoding)
			assert.Contains(t, string(page.Body), tt.wantContains)
			assert.Equal(t, server.URL+tt.path, page.FinalURL)
			assert.NotEmpty(t, page.ContentType)
		})
	}
}

func TestFetchInvalidUTF8(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><title>\xff\xfe broken</title></html>"))
	}))
	defer server.Close()

	_, err := newTestFetcher(5*time.Second).Fetch(context.Background(), server.URL)
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindDecode, fe.Kind)
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	_, err := newTestFetcher(100*time.Millisecond).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "expected timeout, got %v", err)
}

func TestFetchNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := server.URL
	server.Close()

	_, err := newTestFetcher(time.Second).Fetch(context.Background(), target)
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, KindNetwork, fe.Kind)
	assert.Equal(t, target, fe.URL)
}

func TestFetchRecordsTimings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	page, err := newTestFetcher(5*time.Second).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, page.Timings.TTFB, int64(10))
	assert.GreaterOrEqual(t, page.Elapsed, 10*time.Millisecond)
}

func TestFetchSendsAcceptHeaders(t *testing.T) {
	received := make(chan http.Header, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r.Header.Clone()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	f := newTestFetcher(5 * time.Second)
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), server.URL)
		require.NoError(t, err)

		headers := <-received
		assert.Equal(t, acceptHeader, headers.Get("Accept"))
		assert.Equal(t, acceptLanguage, headers.Get("Accept-Language"))
		assert.Equal(t, DefaultUserAgent, headers.Get("User-Agent"))
	}
}

func TestFetchMarksTruncatedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Path == "/small" {
			w.Write([]byte("<p>hi</p>"))
			return
		}
		w.Write([]byte("<html><body>" + strings.Repeat("a", 256) + "</body></html>"))
	}))
	defer server.Close()

	config := DefaultConfig()
	config.MaxBodySize = 64
	f := New(config, nil)

	page, err := f.Fetch(context.Background(), server.URL+"/large")
	require.NoError(t, err)
	assert.True(t, page.Truncated)
	assert.Len(t, page.Body, 64)

	page, err = f.Fetch(context.Background(), server.URL+"/small")
	require.NoError(t, err)
	assert.False(t, page.Truncated)
	assert.Equal(t, "<p>hi</p>", string(page.Body))
}

func TestStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := newTestFetcher(time.Second)

	up := f.Status(context.Background(), server.URL)
	assert.True(t, up.OK())
	assert.Equal(t, http.StatusOK, up.Status)
	assert.Equal(t, server.URL, up.URL)

	down := f.Status(context.Background(), server.URL+"/down")
	assert.False(t, down.OK())
	assert.Equal(t, http.StatusServiceUnavailable, down.Status)
	assert.Equal(t, statusUnavailable, down.Error)

	server.Close()
	gone := f.Status(context.Background(), server.URL)
	assert.False(t, gone.OK())
	assert.Zero(t, gone.Status)
}
