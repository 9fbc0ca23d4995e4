package multiagent

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/trace"

	"devteam-ai/internal/domain"
	"devteam-ai/internal/infra/tracer"
)

// DefaultMaxHandoffs is how many times one Ask follows a handoff.
const DefaultMaxHandoffs = 1

// TeamOption configures a Team.
type TeamOption func(*Team)

// WithStartAgent sets the role that receives the first query and that
// Reset returns to.
func WithStartAgent(t domain.AgentType) TeamOption {
	return func(tm *Team) { tm.start = t }
}

// WithMaxHandoffs bounds how many handoffs a single Ask follows. Zero
// reports handoffs without invoking the next role.
func WithMaxHandoffs(n int) TeamOption {
	return func(tm *Team) {
		if n >= 0 {
			tm.maxHandoffs = n
		}
	}
}

// WithProject sets the project id shown to every role.
func WithProject(id string) TeamOption {
	return func(tm *Team) { tm.projectID = id }
}

// WithEnvironment sets the environment entries shown to every role.
func WithEnvironment(env []domain.EnvVar) TeamOption {
	return func(tm *Team) { tm.env = slices.Clone(env) }
}

// WithTranscriptStore records every query and reply in s.
func WithTranscriptStore(s domain.TranscriptStore) TeamOption {
	return func(tm *Team) { tm.store = s }
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) TeamOption {
	return func(tm *Team) {
		if id != "" {
			tm.id = id
		}
	}
}

// WithTeamLogger sets the logger.
func WithTeamLogger(l *slog.Logger) TeamOption {
	return func(tm *Team) {
		if l != nil {
			tm.logger = l
		}
	}
}

// WithAgentOptions applies opts to every role's agent.
func WithAgentOptions(opts ...AgentOption) TeamOption {
	return func(tm *Team) { tm.agentOpts = append(tm.agentOpts, opts...) }
}

// Team routes a conversation between the roles of a catalog. Each role has
// its own SpecializedAgent and history. Ask is not safe for concurrent use
// on one Team; SessionRegistry serializes callers.
type Team struct {
	id          string
	catalog     Catalog
	agents      map[domain.AgentType]*SpecializedAgent
	start       domain.AgentType
	maxHandoffs int
	projectID   string
	env         []domain.EnvVar
	store       domain.TranscriptStore
	logger      *slog.Logger
	agentOpts   []AgentOption
	seq         atomic.Int64

	mu      sync.RWMutex
	current domain.AgentType
}

// NewTeam builds one agent per catalog role, all backed by provider.
func NewTeam(catalog Catalog, provider domain.LLMProvider, opts ...TeamOption) (*Team, error) {
	if catalog.Len() == 0 {
		return nil, domain.NewDomainError("NewTeam", domain.ErrInvalidInput, "empty catalog")
	}
	tm := &Team{
		id:          ulid.Make().String(),
		catalog:     catalog,
		start:       domain.ProjectOrchestrator,
		maxHandoffs: DefaultMaxHandoffs,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(tm)
	}
	if _, ok := catalog.Profile(tm.start); !ok {
		return nil, domain.NewDomainError("NewTeam", domain.ErrUnknownAgent, string(tm.start))
	}
	tm.logger = tm.logger.With("session_id", tm.id)

	order := catalog.Types()
	tm.agents = make(map[domain.AgentType]*SpecializedAgent, len(order))
	for _, p := range catalog.profiles {
		agentOpts := append([]AgentOption{WithLogger(tm.logger), WithHandoffOrder(order)}, tm.agentOpts...)
		tm.agents[p.Type] = NewSpecializedAgent(p, provider, agentOpts...)
	}
	tm.current = tm.start
	return tm, nil
}

// SessionID returns the ULID identifying this conversation.
func (t *Team) SessionID() string { return t.id }

// ProjectID returns the project id shown to the roles.
func (t *Team) ProjectID() string { return t.projectID }

// Catalog returns the roles of the team.
func (t *Team) Catalog() Catalog { return t.catalog }

// Current returns the role that receives the next query.
func (t *Team) Current() domain.AgentType {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// SetCurrent hands control to role explicitly.
func (t *Team) SetCurrent(role domain.AgentType) error {
	if _, ok := t.agents[role]; !ok {
		return domain.NewDomainError("Team.SetCurrent", domain.ErrUnknownAgent, string(role))
	}
	t.mu.Lock()
	t.current = role
	t.mu.Unlock()
	return nil
}

// Agent returns the agent playing role.
func (t *Team) Agent(role domain.AgentType) (*SpecializedAgent, bool) {
	a, ok := t.agents[role]
	return a, ok
}

// Histories returns a snapshot of every non-empty role history.
func (t *Team) Histories() map[domain.AgentType][]domain.Message {
	out := make(map[domain.AgentType][]domain.Message)
	for role, a := range t.agents {
		if h := a.History(); len(h) > 0 {
			out[role] = h
		}
	}
	return out
}

// Reset clears every history and returns control to the start role.
func (t *Team) Reset() {
	for _, a := range t.agents {
		a.SetHistory(nil)
	}
	t.mu.Lock()
	t.current = t.start
	t.mu.Unlock()
	t.logger.Info("team reset", "agent", string(t.start))
}

// Ask sends query to the current role. When the reply hands off to another
// role, control moves there; up to MaxHandoffs of those roles are asked the
// same query in turn, each given the previous reply as its handoff note.
// On error the turns completed so far are returned with it.
func (t *Team) Ask(ctx context.Context, query string) ([]domain.Turn, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.NewDomainError("Team.Ask", domain.ErrInvalidInput, "empty query")
	}

	ctx, span := tracer.StartSpan(ctx, "team.ask",
		trace.WithAttributes(tracer.StringAttr("session.id", t.id)),
	)
	defer span.End()

	role := t.Current()
	t.record(ctx, domain.TranscriptEntry{Agent: role, Role: domain.RoleUser, Content: query})

	var (
		turns []domain.Turn
		from  domain.AgentType
		note  string
	)
	for hop := 0; ; hop++ {
		agent := t.agents[role]
		reply, err := agent.ProcessQuery(ctx, query, &domain.AgentContext{
			ProjectID:            t.projectID,
			HandoffContext:       note,
			EnvironmentVariables: t.env,
		})
		if err != nil {
			tracer.RecordError(span, err)
			span.SetAttributes(tracer.IntAttr("team.turns", len(turns)))
			return turns, fmt.Errorf("team ask %s: %w", role, err)
		}

		turn := domain.Turn{Agent: role, Reply: reply, From: from}
		next, ok := agent.CheckForHandoff(reply)
		if ok && next != role {
			turn.Handoff = &next
		}

		entry := domain.TranscriptEntry{Agent: role, Role: domain.RoleAssistant, Content: reply}
		if turn.Handoff != nil {
			entry.HandoffTo = next
		}
		t.record(ctx, entry)

		if turn.Handoff == nil {
			turns = append(turns, turn)
			break
		}

		if err := ctx.Err(); err != nil {
			tracer.RecordError(span, err)
			return append(turns, turn), fmt.Errorf("team ask %s: %w", role, err)
		}
		t.logger.Info("handoff", "from", string(role), "to", string(next), "hop", hop+1)
		if err := t.SetCurrent(next); err != nil {
			return append(turns, turn), err
		}
		if hop >= t.maxHandoffs {
			turns = append(turns, turn)
			break
		}
		turn.HandedOff = true
		turns = append(turns, turn)
		from, note, role = role, reply, next
	}

	span.SetAttributes(
		tracer.IntAttr("team.turns", len(turns)),
		tracer.StringAttr("team.current", string(t.Current())),
	)
	tracer.SetOK(span)
	return turns, nil
}

// record appends to the transcript. Store failures never fail a turn.
func (t *Team) record(ctx context.Context, e domain.TranscriptEntry) {
	if t.store == nil {
		return
	}
	e.SessionID = t.id
	e.Seq = t.seq.Add(1)
	e.CreatedAt = time.Now().UTC()
	if err := t.store.Append(ctx, e); err != nil {
		t.logger.Warn("transcript append failed", "error", err, "seq", e.Seq)
	}
}
