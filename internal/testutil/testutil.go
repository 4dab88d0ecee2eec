// Package testutil provides fixture web sites for tests.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// Routes maps exact request paths to handlers
type Routes map[string]http.HandlerFunc

// NewSite starts a server answering the given routes. Unknown paths get a 404.
// The server is closed when the test finishes.
func NewSite(t *testing.T, routes Routes) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := routes[r.URL.Path]; ok && handler != nil {
			handler(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

// HTML serves body as UTF-8 HTML
func HTML(body string) http.HandlerFunc {
	return Content("text/html; charset=utf-8", body)
}

// Content serves body with the given Content-Type
func Content(contentType, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		if r.Method != http.MethodHead {
			w.Write([]byte(body))
		}
	}
}

// Status answers every request with code and no body
func Status(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}
}

// RejectHead answers HEAD with 405 and delegates other methods to next
func RejectHead(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}
