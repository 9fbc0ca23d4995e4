package domain

import (
	"sort"
	"strings"
)

// AgentType identifies one of the specialized roles on the team.
type AgentType string

// Known agent types, in enumeration order. The order is significant: handoff
// detection resolves ambiguous names to the first matching type.
const (
	ProductManager      AgentType = "PRODUCT_MANAGER"
	SoftwareArchitect   AgentType = "SOFTWARE_ARCHITECT"
	FrontendDeveloper   AgentType = "FRONTEND_DEVELOPER"
	BackendDeveloper    AgentType = "BACKEND_DEVELOPER"
	DevOpsEngineer      AgentType = "DEVOPS_ENGINEER"
	QATester            AgentType = "QA_TESTER"
	TechnicalWriter     AgentType = "TECHNICAL_WRITER"
	ProjectOrchestrator AgentType = "PROJECT_ORCHESTRATOR"
)

// AgentTypes returns every known agent type in enumeration order.
func AgentTypes() []AgentType {
	return []AgentType{
		ProductManager,
		SoftwareArchitect,
		FrontendDeveloper,
		BackendDeveloper,
		DevOpsEngineer,
		QATester,
		TechnicalWriter,
		ProjectOrchestrator,
	}
}

// Token returns the canonical matching token: upper case, whitespace
// replaced by underscores.
func (t AgentType) Token() string {
	return CanonicalToken(string(t))
}

// DisplayName returns a human readable name, e.g. "Frontend Developer".
func (t AgentType) DisplayName() string {
	words := strings.Split(strings.ToLower(string(t)), "_")
	for i, w := range words {
		if special, ok := displayWords[w]; ok {
			words[i] = special
			continue
		}
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

var displayWords = map[string]string{
	"qa":     "QA",
	"devops": "DevOps",
}

// CanonicalToken upper-cases s and replaces every whitespace rune with an
// underscore.
func CanonicalToken(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			return '_'
		}
		return r
	}, strings.ToUpper(s))
}

// ParseAgentType resolves a user supplied name ("qa tester", "QA_TESTER")
// to a known agent type.
func ParseAgentType(s string) (AgentType, error) {
	tok := CanonicalToken(strings.TrimSpace(s))
	for _, t := range AgentTypes() {
		if t.Token() == tok {
			return t, nil
		}
	}
	return "", NewDomainError("ParseAgentType", ErrUnknownAgent, s)
}

// AgentProfile is the static definition of a role: its system instructions
// and the topic keywords associated with it.
type AgentProfile struct {
	Type            AgentType `json:"type"             yaml:"type"`
	Instructions    string    `json:"instructions"     yaml:"instructions"`
	HandoffKeywords []string  `json:"handoff_keywords" yaml:"handoff_keywords"`
}

// EnvVar is a single environment entry surfaced to the model.
type EnvVar struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EnvFromMap converts a map to an EnvVar slice sorted by key so the
// rendered prompt is deterministic.
func EnvFromMap(m map[string]string) []EnvVar {
	if len(m) == 0 {
		return nil
	}
	out := make([]EnvVar, 0, len(m))
	for k, v := range m {
		out = append(out, EnvVar{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// AgentContext carries optional per-call inputs for a specialized agent.
type AgentContext struct {
	ProjectID string
	// ConversationHistory, when non-empty, replaces the agent's retained history.
	ConversationHistory []Message
	// HandoffContext is a note left by the previous agent.
	HandoffContext string
	// EnvironmentVariables are rendered in order into the system prompt.
	EnvironmentVariables []EnvVar
}

// Turn is the outcome of one agent step within a team conversation.
type Turn struct {
	Agent   AgentType  `json:"agent"`
	Reply   string     `json:"reply"`
	Handoff *AgentType `json:"handoff,omitempty"`
	// HandedOff reports whether the team followed Handoff.
	HandedOff bool `json:"handed_off"`
	// From is set when this turn was produced as the result of a handoff.
	From AgentType `json:"from,omitempty"`
}
