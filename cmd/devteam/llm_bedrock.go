//go:build bedrock

package main

import (
	"context"
	"log/slog"

	"devteam-ai/internal/adapter/llm"
	"devteam-ai/internal/domain"
	"devteam-ai/internal/infra/config"
)

func createBedrockProvider(ctx context.Context, pc config.ProviderConfig, log *slog.Logger) (domain.LLMProvider, error) {
	return llm.NewBedrockProvider(ctx, pc, log)
}
