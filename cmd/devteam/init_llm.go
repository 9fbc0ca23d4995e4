package main

import (
	"context"
	"fmt"
	"log/slog"

	"devteam-ai/internal/adapter/llm"
	"devteam-ai/internal/domain"
	"devteam-ai/internal/infra/config"
)

// LLMComponents holds the provider registry and the provider agents use.
type LLMComponents struct {
	Registry   *llm.Registry
	DefaultLLM domain.LLMProvider
	Breakers   []*llm.CircuitBreakerProvider
}

// initLLM builds every configured provider, wraps each with rate limiting
// and a circuit breaker when enabled, and resolves the default with its
// failover chain.
func initLLM(ctx context.Context, cfg *config.Config, log *slog.Logger) (*LLMComponents, error) {
	registry := llm.NewRegistry()
	var breakers []*llm.CircuitBreakerProvider

	cbCfg := cfg.LLM.CircuitBreaker
	rlCfg := cfg.LLM.RateLimit
	for _, pc := range cfg.LLM.Providers {
		provider, err := createLLMProvider(ctx, pc, log)
		if err != nil {
			return nil, fmt.Errorf("llm provider %s: %w", pc.Name, err)
		}

		// The limiter sits inside the breaker so throttled waits never count
		// as failures.
		if rlCfg.Enabled {
			provider = llm.NewRateLimitedProvider(provider, rlCfg)
		}
		if cbCfg.Enabled {
			cb := llm.NewCircuitBreakerProvider(provider, cbCfg, log)
			breakers = append(breakers, cb)
			provider = cb
		}

		if err := registry.Register(provider); err != nil {
			return nil, fmt.Errorf("llm provider %s: %w", pc.Name, err)
		}
	}

	if cbCfg.Enabled {
		log.Info("llm circuit breaker enabled",
			"max_failures", cbCfg.MaxFailures,
			"timeout", cbCfg.Timeout,
			"interval", cbCfg.Interval,
		)
	}
	if rlCfg.Enabled {
		log.Info("llm rate limit enabled", "requests_per_min", rlCfg.RequestsPerMin, "burst", rlCfg.Burst)
	}

	defaultLLM, err := registry.Get(cfg.LLM.DefaultProvider)
	if err != nil {
		return nil, fmt.Errorf("default llm provider: %w", err)
	}

	if cfg.LLM.Failover.Enabled && len(cfg.LLM.Failover.Fallbacks) > 0 {
		var fallbacks []domain.LLMProvider
		for _, name := range cfg.LLM.Failover.Fallbacks {
			fb, err := registry.Get(name)
			if err != nil {
				return nil, fmt.Errorf("failover provider %s: %w", name, err)
			}
			fallbacks = append(fallbacks, fb)
		}
		defaultLLM = llm.NewFailoverProvider(defaultLLM, fallbacks, log)
		log.Info("model failover enabled", "fallbacks", cfg.LLM.Failover.Fallbacks)
	}

	return &LLMComponents{
		Registry:   registry,
		DefaultLLM: defaultLLM,
		Breakers:   breakers,
	}, nil
}

func createLLMProvider(ctx context.Context, pc config.ProviderConfig, log *slog.Logger) (domain.LLMProvider, error) {
	switch pc.Type {
	case "openai", "":
		return llm.NewOpenAIProvider(pc, log), nil
	case "bedrock":
		return createBedrockProvider(ctx, pc, log)
	default:
		return nil, fmt.Errorf("unknown provider type: %s", pc.Type)
	}
}
