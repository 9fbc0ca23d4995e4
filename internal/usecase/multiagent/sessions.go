package multiagent

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"devteam-ai/internal/domain"
)

// SessionOptions are the per-session inputs accepted when a session is
// created. Zero values fall back to the factory's defaults.
type SessionOptions struct {
	ProjectID   string
	Environment []domain.EnvVar
	StartAgent  domain.AgentType
}

// TeamFactory builds the Team backing a new session.
type TeamFactory func(opts SessionOptions) (*Team, error)

// NewTeamFactory returns a factory that builds teams from catalog and
// provider with base options, overridden per session by SessionOptions.
func NewTeamFactory(catalog Catalog, provider domain.LLMProvider, base ...TeamOption) TeamFactory {
	return func(o SessionOptions) (*Team, error) {
		opts := slices.Clone(base)
		if o.ProjectID != "" {
			opts = append(opts, WithProject(o.ProjectID))
		}
		if o.Environment != nil {
			opts = append(opts, WithEnvironment(o.Environment))
		}
		if o.StartAgent != "" {
			opts = append(opts, WithStartAgent(o.StartAgent))
		}
		return NewTeam(catalog, provider, opts...)
	}
}

// SessionInfo summarizes a live session.
type SessionInfo struct {
	ID           string           `json:"id"`
	CurrentAgent domain.AgentType `json:"current_agent"`
	ProjectID    string           `json:"project_id,omitempty"`
}

// SessionRegistry holds live team sessions and serializes work on each one.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*teamSession
	newTeam  TeamFactory
	logger   *slog.Logger
}

type teamSession struct {
	team *Team
	// lock is a one-slot semaphore so waiting can be abandoned on ctx.
	lock chan struct{}
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry(factory TeamFactory, logger *slog.Logger) *SessionRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionRegistry{
		sessions: make(map[string]*teamSession),
		newTeam:  factory,
		logger:   logger,
	}
}

// Create starts a new session.
func (r *SessionRegistry) Create(opts SessionOptions) (*Team, error) {
	team, err := r.newTeam(opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[team.SessionID()]; exists {
		return nil, domain.NewDomainError("SessionRegistry.Create", domain.ErrDuplicate, team.SessionID())
	}
	r.sessions[team.SessionID()] = &teamSession{team: team, lock: make(chan struct{}, 1)}
	r.logger.Info("session created", "session_id", team.SessionID(), "agent", string(team.Current()))
	return team, nil
}

// Get returns the team of session id.
func (r *SessionRegistry) Get(id string) (*Team, error) {
	s, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return s.team, nil
}

func (r *SessionRegistry) get(id string) (*teamSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.NewDomainError("SessionRegistry.Get", domain.ErrSessionNotFound, id)
	}
	return s, nil
}

// Do runs fn with exclusive access to session id. It gives up waiting for
// the session when ctx is done.
func (r *SessionRegistry) Do(ctx context.Context, id string, fn func(*Team) error) error {
	s, err := r.get(id)
	if err != nil {
		return err
	}
	select {
	case s.lock <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("session %s: %w", id, ctx.Err())
	}
	defer func() { <-s.lock }()
	return fn(s.team)
}

// Ask forwards query to session id.
func (r *SessionRegistry) Ask(ctx context.Context, id, query string) ([]domain.Turn, error) {
	var turns []domain.Turn
	err := r.Do(ctx, id, func(t *Team) error {
		var askErr error
		turns, askErr = t.Ask(ctx, query)
		return askErr
	})
	return turns, err
}

// Remove ends session id.
func (r *SessionRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return domain.NewDomainError("SessionRegistry.Remove", domain.ErrSessionNotFound, id)
	}
	delete(r.sessions, id)
	r.logger.Info("session removed", "session_id", id)
	return nil
}

// List returns every live session sorted by id.
func (r *SessionRegistry) List() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SessionInfo, 0, len(r.sessions))
	for id, s := range r.sessions {
		out = append(out, SessionInfo{
			ID:           id,
			CurrentAgent: s.team.Current(),
			ProjectID:    s.team.ProjectID(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
