package llm

import (
	"errors"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestIsQuotaError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"generic", errors.New("connection refused"), false},
		{"api status 429", &openai.APIError{HTTPStatusCode: 429}, true},
		{"api quota code", &openai.APIError{Code: "insufficient_quota"}, true},
		{"api unrelated", &openai.APIError{HTTPStatusCode: 500, Code: "server_error"}, false},
		{"quota in message", errors.New("you exceeded your current quota"), true},
		{"rate limit in message", errors.New("rate limit reached for requests"), true},
		{"wrapped api error", fmt.Errorf("llm generate: %w", &openai.APIError{HTTPStatusCode: 429}), true},
	}

	for _, tc := range cases {
		if got := IsQuotaError(tc.err); got != tc.want {
			t.Errorf("%s: IsQuotaError = %v, want %v", tc.name, got, tc.want)
		}
	}
}
