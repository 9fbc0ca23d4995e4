package multiagent

import (
	"slices"
	"strings"

	"devteam-ai/internal/domain"
)

// Suggestion is a role ranked by how many of its keywords a text mentions.
type Suggestion struct {
	Agent   domain.AgentType `json:"agent"`
	Score   int              `json:"score"`
	Matched []string         `json:"matched"`
}

// SuggestByKeywords ranks roles by case-insensitive keyword occurrences in
// text. Roles without a hit are omitted; ties keep catalog order.
func SuggestByKeywords(c Catalog, text string) []Suggestion {
	lower := strings.ToLower(text)
	var out []Suggestion
	for _, p := range c.profiles {
		s := Suggestion{Agent: p.Type}
		for _, kw := range p.HandoffKeywords {
			kw = strings.ToLower(kw)
			if kw == "" {
				continue
			}
			if n := strings.Count(lower, kw); n > 0 {
				s.Score += n
				s.Matched = append(s.Matched, kw)
			}
		}
		if s.Score > 0 {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b Suggestion) int { return b.Score - a.Score })
	return out
}
