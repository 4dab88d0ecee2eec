package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Harvey-AU/seo-checker/internal/fetcher"
	"github.com/Harvey-AU/seo-checker/internal/markup"
)

// ErrorResponse represents a standardised error response
type ErrorResponse struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorCode represents standard error codes
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeMethodNotAllowed ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeParseFailed      ErrorCode = "PARSE_FAILED"
	ErrCodeRateLimit        ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Server errors (5xx)
	ErrCodeInternal    ErrorCode = "INTERNAL_ERROR"
	ErrCodeFetchFailed ErrorCode = "FETCH_FAILED"
	ErrCodeTimeout     ErrorCode = "FETCH_TIMEOUT"
)

// WriteErrorMessage writes a standardised error response with a custom message
func WriteErrorMessage(w http.ResponseWriter, r *http.Request, message string, status int, code ErrorCode) {
	requestID := GetRequestID(r)

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.
		Str("request_id", requestID).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Str("code", string(code)).
		Str("message", message).
		Msg("API error response")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Status:    status,
		Message:   message,
		Code:      string(code),
		RequestID: requestID,
	}); err != nil {
		log.Error().Err(err).Msg("Failed to encode error response")
	}
}

// BadRequest responds with a 400 Bad Request error
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorMessage(w, r, message, http.StatusBadRequest, ErrCodeBadRequest)
}

// ValidationError responds with a 400 for input that parsed but is not acceptable
func ValidationError(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorMessage(w, r, message, http.StatusBadRequest, ErrCodeValidation)
}

// NotFound responds with a 404 Not Found error
func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorMessage(w, r, message, http.StatusNotFound, ErrCodeNotFound)
}

// MethodNotAllowed responds with a 405 Method Not Allowed error
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteErrorMessage(w, r, "Method not allowed", http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed)
}

// InternalError responds with a 500 Internal Server Error
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	WriteErrorMessage(w, r, err.Error(), http.StatusInternalServerError, ErrCodeInternal)
}

// TooManyRequests responds with 429 and Retry-After header
func TooManyRequests(w http.ResponseWriter, r *http.Request, message string, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds <= 0 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	WriteErrorMessage(w, r, message, http.StatusTooManyRequests, ErrCodeRateLimit)
}

// WriteAnalysisError maps an analysis failure onto an HTTP response
func WriteAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *fetcher.FetchError
	var pe *markup.ParseError

	switch {
	case errors.As(err, &fe) && fe.Kind == fetcher.KindTimeout:
		WriteErrorMessage(w, r, "Timed out fetching the page, please retry", http.StatusGatewayTimeout, ErrCodeTimeout)
	case errors.As(err, &fe) && fe.Kind == fetcher.KindDecode:
		WriteErrorMessage(w, r, "The page could not be decoded as text", http.StatusBadGateway, ErrCodeFetchFailed)
	case errors.As(err, &fe):
		WriteErrorMessage(w, r, "Could not reach the page, please retry", http.StatusBadGateway, ErrCodeFetchFailed)
	case errors.As(err, &pe):
		WriteErrorMessage(w, r, "The page content could not be parsed", http.StatusUnprocessableEntity, ErrCodeParseFailed)
	default:
		InternalError(w, r, err)
	}
}
