package main

import (
	"context"
	"fmt"

	"devteam-ai/internal/adapter/llm"
	"devteam-ai/internal/adapter/store"
	"devteam-ai/internal/domain"
	"devteam-ai/internal/infra/logger"
	"devteam-ai/internal/usecase/multiagent"
)

// teamComponents is everything needed to start conversations.
type teamComponents struct {
	Catalog  multiagent.Catalog
	Provider domain.LLMProvider
	Store    domain.TranscriptStore
	Options  []multiagent.TeamOption
	Breakers []*llm.CircuitBreakerProvider
}

// newTeam starts a conversation with the configured defaults.
func (tc *teamComponents) newTeam(extra ...multiagent.TeamOption) (*multiagent.Team, error) {
	opts := append(append([]multiagent.TeamOption{}, tc.Options...), extra...)
	return multiagent.NewTeam(tc.Catalog, tc.Provider, opts...)
}

// initTeam wires the catalog, provider and transcript store from the
// loaded config. The store is closed with the app.
func (rt *app) initTeam(ctx context.Context) (*teamComponents, error) {
	cfg := rt.cfg

	catalog, err := buildCatalog(cfg.Agent.Instructions)
	if err != nil {
		return nil, err
	}

	llmc, err := initLLM(ctx, cfg, logger.Component(rt.log, "llm"))
	if err != nil {
		return nil, err
	}

	start, err := domain.ParseAgentType(cfg.Team.StartAgent)
	if err != nil {
		return nil, fmt.Errorf("team.start_agent: %w", err)
	}

	var transcripts domain.TranscriptStore = store.NoopTranscriptStore{}
	if cfg.Store.Enabled {
		s, err := store.NewSQLiteTranscriptStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open transcript store: %w", err)
		}
		rt.onClose(s.Close)
		transcripts = s
		rt.log.Info("transcript store enabled", "path", cfg.Store.Path)
	}

	teamLog := logger.Component(rt.log, "team")
	opts := []multiagent.TeamOption{
		multiagent.WithStartAgent(start),
		multiagent.WithMaxHandoffs(cfg.Team.MaxHandoffs),
		multiagent.WithProject(cfg.Team.ProjectID),
		multiagent.WithEnvironment(domain.EnvFromMap(cfg.Team.Environment)),
		multiagent.WithTranscriptStore(transcripts),
		multiagent.WithTeamLogger(teamLog),
		multiagent.WithAgentOptions(
			multiagent.WithModel(cfg.Agent.Model),
			multiagent.WithTemperature(cfg.Agent.Temperature),
			multiagent.WithMaxHistory(cfg.Agent.MaxHistory),
			multiagent.WithTimeout(cfg.Agent.Timeout),
		),
	}

	return &teamComponents{
		Catalog:  catalog,
		Provider: llmc.DefaultLLM,
		Store:    transcripts,
		Options:  opts,
		Breakers: llmc.Breakers,
	}, nil
}

// buildCatalog applies per-role instruction overrides keyed by role name.
func buildCatalog(instructions map[string]string) (multiagent.Catalog, error) {
	catalog := multiagent.DefaultCatalog()
	if len(instructions) == 0 {
		return catalog, nil
	}
	overrides := make(map[domain.AgentType]string, len(instructions))
	for name, text := range instructions {
		t, err := domain.ParseAgentType(name)
		if err != nil {
			return multiagent.Catalog{}, fmt.Errorf("agent.instructions: %w", err)
		}
		overrides[t] = text
	}
	return catalog.WithInstructions(overrides), nil
}
