package multiagent

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"devteam-ai/internal/domain"
	"devteam-ai/internal/infra/tracer"
)

// Defaults for a SpecializedAgent.
const (
	DefaultMaxHistory  = 10
	DefaultModel       = "gpt-4o"
	DefaultTemperature = 0.7
)

const handoffConvention = `When you need to handoff to another specialized agent, use the phrase "I'll handoff to the [AGENT_TYPE] to handle this."`

// AgentOption configures a SpecializedAgent.
type AgentOption func(*SpecializedAgent)

// WithMaxHistory sets the history cap. Non-positive values are ignored.
func WithMaxHistory(n int) AgentOption {
	return func(a *SpecializedAgent) {
		if n > 0 {
			a.maxHistory = n
		}
	}
}

// WithModel sets the model identifier sent with every completion request.
func WithModel(model string) AgentOption {
	return func(a *SpecializedAgent) {
		if model != "" {
			a.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) AgentOption {
	return func(a *SpecializedAgent) { a.temperature = t }
}

// WithTimeout bounds each completion call. Zero means no extra bound.
func WithTimeout(d time.Duration) AgentOption {
	return func(a *SpecializedAgent) { a.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) AgentOption {
	return func(a *SpecializedAgent) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithHandoffOrder sets the role order used to resolve handoff phrases.
func WithHandoffOrder(order []domain.AgentType) AgentOption {
	return func(a *SpecializedAgent) { a.order = slices.Clone(order) }
}

// SpecializedAgent answers queries in the voice of one role and keeps a
// bounded conversation history. ProcessQuery must not be called
// concurrently on the same agent; history updates are atomic with respect
// to SetHistory.
type SpecializedAgent struct {
	profile     domain.AgentProfile
	provider    domain.LLMProvider
	order       []domain.AgentType
	maxHistory  int
	model       string
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	history []domain.Message
}

// NewSpecializedAgent creates an agent for profile backed by provider.
func NewSpecializedAgent(profile domain.AgentProfile, provider domain.LLMProvider, opts ...AgentOption) *SpecializedAgent {
	a := &SpecializedAgent{
		profile:     profile,
		provider:    provider,
		order:       domain.AgentTypes(),
		maxHistory:  DefaultMaxHistory,
		model:       DefaultModel,
		temperature: DefaultTemperature,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("agent", string(profile.Type))
	return a
}

// Type returns the role this agent plays.
func (a *SpecializedAgent) Type() domain.AgentType { return a.profile.Type }

// SetHistory replaces the history with the last max-history messages of msgs.
func (a *SpecializedAgent) SetHistory(msgs []domain.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = lastN(msgs, a.maxHistory)
}

// History returns a copy of the retained history.
func (a *SpecializedAgent) History() []domain.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.history)
}

// ProcessQuery sends query to the model together with the system prompt,
// retained history and the optional handoff note, and returns the reply.
//
// A non-empty actx.ConversationHistory replaces the retained history. The
// replacement and the new exchange are committed together once the model
// has answered; on error or when ctx is done the history is left as it was.
func (a *SpecializedAgent) ProcessQuery(ctx context.Context, query string, actx *domain.AgentContext) (string, error) {
	ctx, span := tracer.StartSpan(ctx, "agent.process_query",
		trace.WithAttributes(tracer.StringAttr("agent.type", string(a.profile.Type))),
	)
	defer span.End()

	if actx == nil {
		actx = &domain.AgentContext{}
	}

	base := a.History()
	replace := len(actx.ConversationHistory) > 0
	if replace {
		base = lastN(actx.ConversationHistory, a.maxHistory)
	}

	req := domain.ChatRequest{
		Model:       a.model,
		Messages:    a.buildMessages(query, base, actx),
		Temperature: a.temperature,
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := a.provider.Chat(callCtx, req)
	if err == nil && resp == nil {
		err = fmt.Errorf("%w: empty response", domain.ErrMalformedResponse)
	}
	// A reply that lands after the caller gave up is not committed.
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		err = domain.NewDomainError("SpecializedAgent.ProcessQuery", fmt.Errorf("%w: %w", domain.ErrCompletionFailed, err), string(a.profile.Type))
		tracer.RecordError(span, err)
		a.logger.Warn("completion failed", "error", err, "duration", time.Since(start))
		return "", err
	}
	reply := resp.Message.Content

	a.mu.Lock()
	if replace {
		a.history = base
	}
	a.history = append(a.history,
		domain.Message{Role: domain.RoleUser, Content: query},
		domain.Message{Role: domain.RoleAssistant, Content: reply},
	)
	a.history = lastN(a.history, 2*a.maxHistory)
	size := len(a.history)
	a.mu.Unlock()

	span.SetAttributes(tracer.IntAttr("agent.history_len", size))
	tracer.SetOK(span)
	a.logger.Debug("query processed",
		"duration", time.Since(start),
		"history_len", size,
		"reply_len", len(reply),
	)
	return reply, nil
}

// CheckForHandoff reports the role text hands control to, if any.
func (a *SpecializedAgent) CheckForHandoff(text string) (domain.AgentType, bool) {
	return DetectHandoff(text, a.order)
}

// SystemPrompt composes the system message for actx.
func (a *SpecializedAgent) SystemPrompt(actx *domain.AgentContext) string {
	var b strings.Builder
	b.WriteString(a.profile.Instructions)

	if actx != nil && actx.ProjectID != "" {
		fmt.Fprintf(&b, "\n\nYou are working on project with ID: %s.", actx.ProjectID)
	}
	if actx != nil && actx.EnvironmentVariables != nil {
		b.WriteString("\n\nThe following environment information is available to you:")
		for _, kv := range actx.EnvironmentVariables {
			fmt.Fprintf(&b, "\n- %s: %s", kv.Key, kv.Value)
		}
	}

	b.WriteString("\n\n")
	b.WriteString(handoffConvention)
	return b.String()
}

func (a *SpecializedAgent) buildMessages(query string, history []domain.Message, actx *domain.AgentContext) []domain.Message {
	msgs := make([]domain.Message, 0, len(history)+3)
	msgs = append(msgs, domain.Message{Role: domain.RoleSystem, Content: a.SystemPrompt(actx)})

	for _, m := range history {
		if m.Role == domain.RoleUser || m.Role == domain.RoleAssistant {
			msgs = append(msgs, domain.Message{Role: m.Role, Content: m.Content})
		}
	}
	if actx.HandoffContext != "" {
		msgs = append(msgs, domain.Message{
			Role:    domain.RoleSystem,
			Content: "Previous agent provided this context: " + actx.HandoffContext,
		})
	}
	return append(msgs, domain.Message{Role: domain.RoleUser, Content: query})
}

// lastN returns a copy of the last n messages of msgs.
func lastN(msgs []domain.Message, n int) []domain.Message {
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	if len(msgs) == 0 {
		return nil
	}
	return slices.Clone(msgs)
}
