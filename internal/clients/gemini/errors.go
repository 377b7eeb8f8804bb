package gemini

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// IsModelNotFound reports whether err indicates the requested model or
// version does not exist for this credential. Triggers fallback to the
// next candidate model.
func IsModelNotFound(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusNotFound {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "not_found")
}

// IsQuotaExceeded reports whether err indicates the provider's rate or
// usage quota was hit. Triggers backoff and, on exhaustion, the cycle
// circuit breaker.
func IsQuotaExceeded(err error) bool {
	if err == nil {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return true
		}
		if apiErr.Status == "RESOURCE_EXHAUSTED" {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") || strings.Contains(msg, "429")
}
