package multiagent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devteam-ai/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, 8, c.Len())
	assert.Equal(t, domain.AgentTypes(), c.Types())

	for _, p := range c.Profiles() {
		assert.NotEmpty(t, p.Instructions, p.Type)
		assert.NotEmpty(t, p.HandoffKeywords, p.Type)
	}

	pm, ok := c.Profile(domain.ProductManager)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(pm.Instructions, "You are an expert Product Manager"))

	_, ok = c.Profile("JANITOR")
	assert.False(t, ok)
}

func TestCatalogWithInstructions(t *testing.T) {
	base := DefaultCatalog()
	c := base.WithInstructions(map[domain.AgentType]string{
		domain.QATester: "You only write property tests.",
		"JANITOR":       "ignored",
	})

	assert.Equal(t, base.Types(), c.Types())
	qa, _ := c.Profile(domain.QATester)
	assert.Equal(t, "You only write property tests.", qa.Instructions)

	orig, _ := base.Profile(domain.QATester)
	assert.NotEqual(t, qa.Instructions, orig.Instructions)
}

func TestCatalogProfilesAreCopies(t *testing.T) {
	c := DefaultCatalog()
	p, _ := c.Profile(domain.BackendDeveloper)
	p.HandoffKeywords[0] = "mutated"

	again, _ := c.Profile(domain.BackendDeveloper)
	assert.Equal(t, "api", again.HandoffKeywords[0])

	profiles := c.Profiles()
	profiles[0].Instructions = "mutated"
	first, _ := c.Profile(profiles[0].Type)
	assert.NotEqual(t, "mutated", first.Instructions)
}
