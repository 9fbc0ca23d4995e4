package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devteam-ai/internal/domain"
	"devteam-ai/internal/infra/config"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewOpenAIProvider(config.ProviderConfig{
		Name:    "test",
		BaseURL: server.URL + "/",
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
	}, nil)
}

func TestOpenAIProviderChat(t *testing.T) {
	var body map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openaiResponse{
			ID:    "chatcmpl-123",
			Model: "gpt-4o-mini",
			Choices: []openaiChoice{
				{Message: &openaiReplyMessage{Role: "assistant", Content: ptr("Hello! How can I help?")}, FinishReason: "stop"},
				{Message: &openaiReplyMessage{Role: "assistant", Content: ptr("ignored")}},
			},
			Usage:   openaiUsage{PromptTokens: 10, CompletionTokens: 8, TotalTokens: 18},
			Created: 1700000000,
		})
	})

	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		Temperature: 0.7,
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "You are a QA tester."},
			{Role: domain.RoleUser, Content: "Hello"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello! How can I help?", resp.Message.Content)
	assert.Equal(t, domain.RoleAssistant, resp.Message.Role)
	assert.Equal(t, 18, resp.Usage.TotalTokens)
	assert.Equal(t, time.Unix(1700000000, 0), resp.CreatedAt)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.InDelta(t, 0.7, body["temperature"], 1e-9)
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, map[string]any{"role": "system", "content": "You are a QA tester."}, msgs[0])
}

func TestOpenAIProviderConfiguredModelWins(t *testing.T) {
	var got openaiRequest
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	})

	_, err := p.Chat(context.Background(), domain.ChatRequest{Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Zero(t, got.Temperature)
}

func TestOpenAIProviderRequestModelWithoutConfiguredModel(t *testing.T) {
	var got openaiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	t.Cleanup(server.Close)
	p := NewOpenAIProvider(config.ProviderConfig{Name: "bare", BaseURL: server.URL}, nil)

	_, err := p.Chat(context.Background(), domain.ChatRequest{Model: "llama3-70b"})
	require.NoError(t, err)
	assert.Equal(t, "llama3-70b", got.Model)
}

func TestOpenAIProviderAcceptsAny2xx(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"choices":[{"message":{"content":"queued"}}]}`))
	})

	resp, err := p.Chat(context.Background(), domain.ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "queued", resp.Message.Content)
}

func TestOpenAIProviderHTTPErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, domain.ErrRateLimit},
		{http.StatusUnauthorized, domain.ErrAuthInvalid},
		{http.StatusInternalServerError, domain.ErrProviderError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"nope"}`, tt.status)
			})
			_, err := p.Chat(context.Background(), domain.ChatRequest{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "test:")
		})
	}
}

func TestOpenAIProviderMalformedResponses(t *testing.T) {
	for name, payload := range map[string]string{
		"empty choices":          `{"id":"x","choices":[]}`,
		"no choices":             `{"id":"x"}`,
		"invalid json":           `<html>gateway</html>`,
		"choice without message": `{"choices":[{}]}`,
		"null message":           `{"choices":[{"message":null}]}`,
		"missing content":        `{"choices":[{"message":{"role":"assistant"}}]}`,
		"null content":           `{"choices":[{"message":{"content":null}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(payload))
			})
			_, err := p.Chat(context.Background(), domain.ChatRequest{})
			assert.ErrorIs(t, err, domain.ErrMalformedResponse)
		})
	}
}

func TestOpenAIProviderContextCancelled(t *testing.T) {
	release := make(chan struct{})
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := p.Chat(ctx, domain.ChatRequest{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpenAIProviderNoAuthHeaderWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"choices":[{"message":{"content":"local"}}]}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider(config.ProviderConfig{Name: "ollama", BaseURL: server.URL}, nil)
	resp, err := p.Chat(context.Background(), domain.ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "local", resp.Message.Content)
	assert.Equal(t, "ollama", p.Name())
}

func TestNewHTTPClientTimeouts(t *testing.T) {
	c := NewHTTPClient(config.ProviderConfig{ConnTimeout: time.Second, RespTimeout: 2 * time.Second})
	assert.Equal(t, 3*time.Second, c.Timeout)

	tr := NewPooledTransport(0, 0, config.PoolConfig{MaxIdleConns: 7})
	assert.Equal(t, 7, tr.MaxIdleConns)
	assert.Equal(t, defaultMaxIdleConnsPerHost, tr.MaxIdleConnsPerHost)
	assert.Equal(t, defaultRespTimeout, tr.ResponseHeaderTimeout)
}

func TestOpenAIProviderEmptyContentIsAReply(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":""}}]}`))
	})

	resp, err := p.Chat(context.Background(), domain.ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "", resp.Message.Content)
}

func ptr(s string) *string { return &s }

func TestFailoverSendsFallbackItsOwnModel(t *testing.T) {
	primary := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"down"}`, http.StatusInternalServerError)
	})

	var got openaiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"choices":[{"message":{"content":"from groq"}}]}`))
	}))
	t.Cleanup(server.Close)
	fallback := NewOpenAIProvider(config.ProviderConfig{
		Name:    "groq",
		BaseURL: server.URL,
		Model:   "llama-3.1-70b",
	}, nil)

	fp := NewFailoverProvider(primary, []domain.LLMProvider{fallback}, nil)
	resp, err := fp.Chat(context.Background(), domain.ChatRequest{Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "from groq", resp.Message.Content)
	assert.Equal(t, "llama-3.1-70b", got.Model)
}
