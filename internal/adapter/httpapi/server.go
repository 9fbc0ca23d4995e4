package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sony/gobreaker/v2"

	"devteam-ai/internal/adapter/llm"
	"devteam-ai/internal/domain"
	"devteam-ai/internal/usecase/multiagent"
)

const maxBodyBytes = 1 << 20

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTranscripts exposes recorded transcripts under /v1/sessions/{id}/transcript.
func WithTranscripts(store domain.TranscriptStore) ServerOption {
	return func(s *Server) { s.transcripts = store }
}

// WithBreakers reports the provider circuit breakers under /healthz.
func WithBreakers(breakers ...*llm.CircuitBreakerProvider) ServerOption {
	return func(s *Server) { s.breakers = append(s.breakers, breakers...) }
}

// WithRateLimit throttles requests per client IP until ctx is done.
func WithRateLimit(ctx context.Context, cfg RateLimitConfig) ServerOption {
	return func(s *Server) {
		if cfg.RequestsPerMin > 0 {
			s.limit = RateLimit(ctx, cfg)
		}
	}
}

// Server exposes team sessions over HTTP.
type Server struct {
	router      chi.Router
	sessions    *multiagent.SessionRegistry
	catalog     multiagent.Catalog
	transcripts domain.TranscriptStore
	breakers    []*llm.CircuitBreakerProvider
	logger      *slog.Logger
	limit       func(http.Handler) http.Handler
}

// NewServer creates a Server with all routes configured.
func NewServer(sessions *multiagent.SessionRegistry, catalog multiagent.Catalog, opts ...ServerOption) *Server {
	s := &Server{
		sessions: sessions,
		catalog:  catalog,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP implements http.Handler, delegating to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)
	if s.limit != nil {
		r.Use(s.limit)
	}

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/agents", s.handleListAgents)
		r.Post("/handoff/detect", s.handleDetect)
		r.Post("/handoff/suggest", s.handleSuggest)

		r.Get("/transcripts", s.handleListTranscripts)

		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions", s.handleListSessions)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/messages", s.handleAsk)
			r.Post("/reset", s.handleReset)
			r.Put("/agent", s.handleSetAgent)
			r.Get("/transcript", s.handleTranscript)
		})
	})
	return r
}

type healthResponse struct {
	Status    string           `json:"status"`
	Providers []providerHealth `json:"providers,omitempty"`
}

type providerHealth struct {
	Name                string `json:"name"`
	State               string `json:"state"`
	Requests            uint32 `json:"requests"`
	ConsecutiveFailures uint32 `json:"consecutive_failures"`
	TotalFailures       uint32 `json:"total_failures"`
}

type errorResponse struct {
	Error string           `json:"error"`
	Code  domain.ErrorCode `json:"code"`
}

type createSessionRequest struct {
	ProjectID   string            `json:"project_id"`
	Environment map[string]string `json:"environment"`
	StartAgent  string            `json:"start_agent"`
}

type sessionResponse struct {
	ID           string                                `json:"id"`
	CurrentAgent domain.AgentType                      `json:"current_agent"`
	ProjectID    string                                `json:"project_id,omitempty"`
	History      map[domain.AgentType][]domain.Message `json:"history,omitempty"`
}

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	Turns        []domain.Turn    `json:"turns"`
	CurrentAgent domain.AgentType `json:"current_agent"`
	Error        string           `json:"error,omitempty"`
	Code         domain.ErrorCode `json:"code,omitempty"`
}

type setAgentRequest struct {
	Agent string `json:"agent"`
}

type textRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Agent *domain.AgentType `json:"agent"`
}

type agentInfo struct {
	Type     domain.AgentType `json:"type"`
	Name     string           `json:"name"`
	Keywords []string         `json:"keywords"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	opts := multiagent.SessionOptions{
		ProjectID:   req.ProjectID,
		Environment: domain.EnvFromMap(req.Environment),
	}
	if req.StartAgent != "" {
		t, err := domain.ParseAgentType(req.StartAgent)
		if err != nil {
			writeError(w, err)
			return
		}
		opts.StartAgent = t
	}

	team, err := s.sessions.Create(opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:           team.SessionID(),
		CurrentAgent: team.Current(),
		ProjectID:    team.ProjectID(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.List())
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	team, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		ID:           team.SessionID(),
		CurrentAgent: team.Current(),
		ProjectID:    team.ProjectID(),
		History:      team.Histories(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	id := chi.URLParam(r, "id")

	var resp askResponse
	err := s.sessions.Do(r.Context(), id, func(t *multiagent.Team) error {
		turns, err := t.Ask(r.Context(), req.Query)
		resp.Turns = turns
		resp.CurrentAgent = t.Current()
		return err
	})
	if resp.Turns == nil {
		resp.Turns = []domain.Turn{}
	}
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound || status == http.StatusBadRequest {
			writeError(w, err)
			return
		}
		resp.Error = err.Error()
		resp.Code = domain.ErrorCodeOf(err)
		writeJSON(w, status, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	err := s.sessions.Do(r.Context(), chi.URLParam(r, "id"), func(t *multiagent.Team) error {
		t.Reset()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetAgent(w http.ResponseWriter, r *http.Request) {
	var req setAgentRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	role, err := domain.ParseAgentType(req.Agent)
	if err != nil {
		writeError(w, err)
		return
	}
	var current domain.AgentType
	err = s.sessions.Do(r.Context(), chi.URLParam(r, "id"), func(t *multiagent.Team) error {
		if err := t.SetCurrent(role); err != nil {
			return err
		}
		current = t.Current()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.AgentType{"current_agent": current})
}

// handleHealth reports "degraded" while any provider breaker is open.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	for _, b := range s.breakers {
		state, counts := b.State(), b.Counts()
		if state == gobreaker.StateOpen {
			resp.Status = "degraded"
		}
		resp.Providers = append(resp.Providers, providerHealth{
			Name:                b.Name(),
			State:               state.String(),
			Requests:            counts.Requests,
			ConsecutiveFailures: counts.ConsecutiveFailures,
			TotalFailures:       counts.TotalFailures,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTranscripts(w http.ResponseWriter, r *http.Request) {
	if s.transcripts == nil {
		writeError(w, domain.NewDomainError("transcripts", domain.ErrNotFound, "transcripts are disabled"))
		return
	}
	ids, err := s.transcripts.Sessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if s.transcripts == nil {
		writeError(w, domain.NewDomainError("transcript", domain.ErrNotFound, "transcripts are disabled"))
		return
	}
	entries, err := s.transcripts.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.TranscriptEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	profiles := s.catalog.Profiles()
	out := make([]agentInfo, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, agentInfo{Type: p.Type, Name: p.Type.DisplayName(), Keywords: p.HandoffKeywords})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	var resp detectResponse
	if t, ok := multiagent.DetectHandoff(req.Text, s.catalog.Types()); ok {
		resp.Agent = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	out := multiagent.SuggestByKeywords(s.catalog, req.Text)
	if out == nil {
		out = []multiagent.Suggestion{}
	}
	writeJSON(w, http.StatusOK, out)
}

// decodeBody reads a JSON body into v. An empty body is accepted only when
// allowEmpty is set. It writes the error response and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return true
	case errors.Is(err, io.EOF) && allowEmpty:
		return true
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large", Code: domain.CodeInvalidInput})
		return false
	}
	writeError(w, domain.NewDomainError("decode", domain.ErrInvalidInput, fmt.Sprintf("invalid JSON body: %v", err)))
	return false
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Code: domain.ErrorCodeOf(err)})
}

// statusFor maps an error to an HTTP status via its domain code.
func statusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch domain.ErrorCodeOf(err) {
	case domain.CodeSessionNotFound, domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeInvalidInput, domain.CodeUnknownAgent:
		return http.StatusBadRequest
	case domain.CodeDuplicate:
		return http.StatusConflict
	case domain.CodeTimeout:
		return http.StatusGatewayTimeout
	case domain.CodeCompletionFailed, domain.CodeProviderError, domain.CodeRateLimit,
		domain.CodeAuthInvalid, domain.CodeCircuitOpen, domain.CodeContextOverflow,
		domain.CodeMalformedResponse, domain.CodeProviderNotFound:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
