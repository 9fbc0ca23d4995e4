package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"devteam-ai/internal/domain"
	"devteam-ai/internal/infra/config"
)

// RateLimitedProvider throttles outbound completion calls with a token
// bucket. Callers block until a token is free or ctx is done.
type RateLimitedProvider struct {
	inner   domain.LLMProvider
	limiter *rate.Limiter
}

// NewRateLimitedProvider wraps inner with cfg.RequestsPerMin / cfg.Burst.
func NewRateLimitedProvider(inner domain.LLMProvider, cfg config.RateLimitConfig) *RateLimitedProvider {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if cfg.RequestsPerMin > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMin) / 60.0)
	}
	return &RateLimitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Chat implements domain.LLMProvider.
func (p *RateLimitedProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("provider %q: wait for rate limit: %w", p.inner.Name(), ctx.Err())
		}
		// Wait reports an error without blocking when the deadline is
		// shorter than the time until the next token.
		return nil, fmt.Errorf("provider %q: %w: %v", p.inner.Name(), domain.ErrRateLimit, err)
	}
	return p.inner.Chat(ctx, req)
}

// Name implements domain.LLMProvider.
func (p *RateLimitedProvider) Name() string { return p.inner.Name() }

var _ domain.LLMProvider = (*RateLimitedProvider)(nil)
