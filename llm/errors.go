package llm

import (
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// IsQuotaError reports whether a generation failure is a quota or billing
// problem. Such failures are recoverable: callers can answer directly
// from retrieval instead.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 429 {
			return true
		}
		if code, ok := apiErr.Code.(string); ok {
			if code == "insufficient_quota" || code == "rate_limit_exceeded" || code == "billing_hard_limit_reached" {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") ||
		strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "billing")
}
