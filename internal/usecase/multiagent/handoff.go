package multiagent

import (
	"regexp"
	"strings"

	"devteam-ai/internal/domain"
)

// handoffPattern matches the phrase agents are told to use when passing
// control, e.g. "I'll handoff to the QA Tester to handle this."
var handoffPattern = regexp.MustCompile(`(?i)(?:I'll handoff to|I'll hand off to|Let me hand off to|Let's hand off to|Handing off to|This should be handled by) the (\w+\s?\w*) (?:agent|specialist|developer|engineer|manager|writer|tester|orchestrator|architect)`)

// DetectHandoff reports which role, if any, text hands control to. Only the
// first phrase in text is considered. The extracted name matches a role when
// the canonical tokens are equal or either contains the other; the first
// such role in order wins.
func DetectHandoff(text string, order []domain.AgentType) (domain.AgentType, bool) {
	m := handoffPattern.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return "", false
	}
	candidate := domain.CanonicalToken(m[1])

	for _, t := range order {
		tok := t.Token()
		if tok == candidate || strings.Contains(tok, candidate) || strings.Contains(candidate, tok) {
			return t, true
		}
	}
	return "", false
}

// HandoffPhrase renders the phrase for t that DetectHandoff recognizes.
func HandoffPhrase(t domain.AgentType) string {
	return "I'll handoff to the " + t.DisplayName() + " to handle this."
}
