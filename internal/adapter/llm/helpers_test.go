package llm

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"devteam-ai/internal/domain"
)

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, domain.ErrRateLimit},
		{http.StatusUnauthorized, domain.ErrAuthInvalid},
		{http.StatusForbidden, domain.ErrAuthInvalid},
		{http.StatusRequestEntityTooLarge, domain.ErrContextOverflow},
		{http.StatusGatewayTimeout, domain.ErrTimeout},
		{http.StatusInternalServerError, domain.ErrProviderError},
		{http.StatusBadGateway, domain.ErrProviderError},
		{http.StatusServiceUnavailable, domain.ErrProviderError},
		{http.StatusBadRequest, domain.ErrInvalidInput},
		{http.StatusTeapot, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		err := mapHTTPError(tt.status, []byte(`{"error":"x"}`))
		if !errors.Is(err, tt.want) {
			t.Errorf("mapHTTPError(%d) = %v, want %v", tt.status, err, tt.want)
		}
	}
}

func TestMapHTTPErrorIncludesTruncatedBody(t *testing.T) {
	err := mapHTTPError(http.StatusTooManyRequests, []byte(`{"error":{"message":"quota"}}`))
	if !strings.Contains(err.Error(), "API error 429") || !strings.Contains(err.Error(), "quota") {
		t.Errorf("error = %q", err)
	}

	long := strings.Repeat("a", 4*maxErrorBody)
	err = mapHTTPError(http.StatusInternalServerError, []byte(long))
	if len(err.Error()) > 2*maxErrorBody {
		t.Errorf("error body not truncated: %d bytes", len(err.Error()))
	}
}
