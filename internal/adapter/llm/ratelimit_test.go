package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devteam-ai/internal/domain"
	"devteam-ai/internal/infra/config"
)

func TestRateLimitedProviderAllowsBurst(t *testing.T) {
	calls := 0
	inner := &mockProvider{
		name: "openai",
		chatFunc: func(context.Context, domain.ChatRequest) (*domain.ChatResponse, error) {
			calls++
			return &domain.ChatResponse{}, nil
		},
	}
	p := NewRateLimitedProvider(inner, config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, Burst: 3})

	for range make([]struct{}, 3) {
		_, err := p.Chat(context.Background(), domain.ChatRequest{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
	assert.Equal(t, "openai", p.Name())
}

func TestRateLimitedProviderRespectsContext(t *testing.T) {
	calls := 0
	inner := &mockProvider{
		name: "openai",
		chatFunc: func(context.Context, domain.ChatRequest) (*domain.ChatResponse, error) {
			calls++
			return &domain.ChatResponse{}, nil
		},
	}
	p := NewRateLimitedProvider(inner, config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, Burst: 1})

	_, err := p.Chat(context.Background(), domain.ChatRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Chat(ctx, domain.ChatRequest{})
	assert.ErrorIs(t, err, context.Canceled)

	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Chat(ctx, domain.ChatRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimit)

	assert.Equal(t, 1, calls)
}
