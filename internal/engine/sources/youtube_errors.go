package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anatolykoptev/go_ytpulse/internal/engine"
)

// Error kinds. Match with errors.Is; *APIError carries the details.
var (
	ErrMissingCredential = errors.New("youtube: API key is required")
	ErrTransport         = errors.New("youtube: transport failure")
	ErrServer            = errors.New("youtube: server error")
	ErrQuota             = errors.New("youtube: quota or rate limit exceeded")
	ErrClient            = errors.New("youtube: request rejected")
)

// quotaReasons are the error reasons Google reports when a key is throttled
// or out of daily quota, whatever the HTTP status.
var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"dailyLimitExceeded":    true,
}

// APIError describes a failed YouTube Data API call.
type APIError struct {
	Kind       error // one of the Err* sentinels
	Endpoint   string
	StatusCode int    // 0 for transport failures
	Reason     string // first reason from the error body, if any
	Message    string
	Err        error // underlying transport error, if any
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Endpoint, e.Err)
	case e.Reason != "":
		return fmt.Sprintf("%v: %s returned %d (%s): %s", e.Kind, e.Endpoint, e.StatusCode, e.Reason, e.Message)
	default:
		return fmt.Sprintf("%v: %s returned %d: %s", e.Kind, e.Endpoint, e.StatusCode, e.Message)
	}
}

// Is reports whether target is the error kind.
func (e *APIError) Is(target error) bool { return target == e.Kind }

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed.
func (e *APIError) Retryable() bool {
	return e.Kind == ErrServer || e.Kind == ErrTransport
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Domain  string `json:"domain"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"error"`
}

const maxErrorMessage = 300

// classifyResponse turns a non-200 response into an *APIError.
// A quota reason in the body wins over the status code.
func classifyResponse(endpoint string, status int, body []byte) *APIError {
	e := &APIError{Endpoint: endpoint, StatusCode: status}

	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		e.Message = parsed.Error.Message
		for _, item := range parsed.Error.Errors {
			if e.Reason == "" {
				e.Reason = item.Reason
			}
			if quotaReasons[item.Reason] {
				e.Reason = item.Reason
				e.Kind = ErrQuota
				break
			}
		}
	}
	if e.Message == "" {
		e.Message = engine.TruncateRunes(strings.TrimSpace(string(body)), maxErrorMessage, "...")
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}

	if e.Kind == nil {
		switch {
		case status == http.StatusForbidden || status == http.StatusTooManyRequests:
			e.Kind = ErrQuota
		case status >= 500:
			e.Kind = ErrServer
		default:
			e.Kind = ErrClient
		}
	}
	return e
}
