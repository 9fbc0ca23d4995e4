package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devteam-ai/internal/domain"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(replying("openai", "")))
	require.NoError(t, r.Register(replying("groq", "")))

	err := r.Register(replying("openai", ""))
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	p, err := r.Get("groq")
	require.NoError(t, err)
	assert.Equal(t, "groq", p.Name())

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)
	assert.Equal(t, domain.CodeProviderNotFound, domain.ErrorCodeOf(err))

	assert.Equal(t, []string{"groq", "openai"}, r.List())
}
