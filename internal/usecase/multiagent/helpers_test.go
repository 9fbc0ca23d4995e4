package multiagent

import (
	"context"
	"fmt"
	"sync"

	"devteam-ai/internal/domain"
	"devteam-ai/internal/infra/logger"
)

// step is one scripted provider outcome.
type step struct {
	reply string
	err   error
}

// scriptedProvider replays steps in order and records every request.
type scriptedProvider struct {
	mu       sync.Mutex
	steps    []step
	requests []domain.ChatRequest
}

func script(steps ...step) *scriptedProvider {
	return &scriptedProvider{steps: steps}
}

func (p *scriptedProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(p.steps) == 0 {
		return nil, fmt.Errorf("unexpected call %d", len(p.requests))
	}
	s := p.steps[0]
	p.steps = p.steps[1:]
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ChatResponse{Message: domain.Message{Role: domain.RoleAssistant, Content: s.reply}}, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) calls() []domain.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.ChatRequest(nil), p.requests...)
}

// echoProvider replies with a fixed text forever.
type echoProvider struct{ reply string }

func (p echoProvider) Chat(context.Context, domain.ChatRequest) (*domain.ChatResponse, error) {
	return &domain.ChatResponse{Message: domain.Message{Role: domain.RoleAssistant, Content: p.reply}}, nil
}

func (echoProvider) Name() string { return "echo" }

func msgs(n int) []domain.Message {
	out := make([]domain.Message, n)
	for i := range out {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		out[i] = domain.Message{Role: role, Content: fmt.Sprintf("m%d", i)}
	}
	return out
}

func newAgent(t domain.AgentType, p domain.LLMProvider, opts ...AgentOption) *SpecializedAgent {
	profile, _ := DefaultCatalog().Profile(t)
	return NewSpecializedAgent(profile, p, append([]AgentOption{WithLogger(logger.Discard())}, opts...)...)
}

// memStore is an in-memory transcript store.
type memStore struct {
	mu      sync.Mutex
	entries []domain.TranscriptEntry
	err     error
}

func (s *memStore) Append(_ context.Context, e domain.TranscriptEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *memStore) List(_ context.Context, id string) ([]domain.TranscriptEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.TranscriptEntry
	for _, e := range s.entries {
		if e.SessionID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) Sessions(context.Context) ([]string, error) { return nil, nil }
func (s *memStore) Close() error                               { return nil }

// lateProvider answers after its caller has cancelled, like a reply that
// was already in flight.
type lateProvider struct {
	reply  string
	cancel context.CancelFunc
}

func (p lateProvider) Chat(context.Context, domain.ChatRequest) (*domain.ChatResponse, error) {
	p.cancel()
	return &domain.ChatResponse{Message: domain.Message{Role: domain.RoleAssistant, Content: p.reply}}, nil
}

func (lateProvider) Name() string { return "late" }
