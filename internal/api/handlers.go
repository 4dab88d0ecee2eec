package api

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/Harvey-AU/seo-checker/internal/analyzer"
	"github.com/Harvey-AU/seo-checker/internal/fetcher"
	"github.com/Harvey-AU/seo-checker/internal/util"
)

// Version is the current API version (can be set via ldflags at build time)
var Version = "1.0.0"

const (
	serviceName = "seo-checker"

	// Request bodies beyond this size are rejected
	maxRequestBody = 64 * 1024
)

// Analyzer is the analysis surface the handlers depend on
type Analyzer interface {
	Analyze(ctx context.Context, target string) (*analyzer.Result, error)
	Status(ctx context.Context, target string) *fetcher.StatusResult
}

// Handler holds dependencies for API handlers
type Handler struct {
	Analyzer Analyzer
}

// NewHandler creates a new API handler with dependencies
func NewHandler(a Analyzer) *Handler {
	return &Handler{Analyzer: a}
}

// SetupRoutes configures all API routes
func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HealthCheck)
	mux.HandleFunc("/v1/analyze", h.AnalyzeHandler)
	mux.HandleFunc("/v1/status", h.StatusHandler)
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		MethodNotAllowed(w, r)
		return
	}
	WriteHealthy(w, r, serviceName, Version)
}

// URLRequest is the body accepted by the analyze and status endpoints
type URLRequest struct {
	URL string `json:"url"`
}

// AnalyzeHandler runs a full analysis of the submitted URL
func (h *Handler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, r)
		return
	}

	target, ok := h.readTarget(w, r)
	if !ok {
		return
	}

	logger := loggerWithRequest(r)
	logger.Info().Str("url", target).Msg("Analysing page")

	result, err := h.Analyzer.Analyze(r.Context(), target)
	if err != nil {
		WriteAnalysisError(w, r, err)
		return
	}

	WriteSuccess(w, r, result, "Page analysed")
}

// StatusHandler reports whether the submitted URL is reachable
func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowed(w, r)
		return
	}

	target, ok := h.readTarget(w, r)
	if !ok {
		return
	}

	WriteSuccess(w, r, h.Analyzer.Status(r.Context(), target), "")
}

// readTarget decodes the URL from a JSON or form body, normalises it and
// validates it. On failure the error response has already been written.
func (h *Handler) readTarget(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var raw string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			BadRequest(w, r, "Invalid form body")
			return "", false
		}
		raw = r.PostFormValue("url")
	default:
		var req URLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			BadRequest(w, r, "Invalid JSON request body")
			return "", false
		}
		raw = req.URL
	}

	if strings.TrimSpace(raw) == "" {
		ValidationError(w, r, "url is required")
		return "", false
	}

	target := util.NormaliseTargetURL(raw)
	if target == "" {
		ValidationError(w, r, "url is not a valid http or https URL")
		return "", false
	}
	if err := util.ValidateTargetURL(target); err != nil {
		ValidationError(w, r, err.Error())
		return "", false
	}

	return target, true
}
