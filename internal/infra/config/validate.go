package config

import (
	"fmt"
	"net"
	"strings"

	"devteam-ai/internal/domain"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateAgent(cfg, ve)
	validateTeam(cfg, ve)
	validateLLM(cfg, ve)
	validateStore(cfg, ve)
	validateServer(cfg, ve)
	validateTracer(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateAgent(cfg *Config, ve *ValidationError) {
	if cfg.Agent.Model == "" {
		ve.Add("agent.model must not be empty")
	}
	if cfg.Agent.Temperature < 0 || cfg.Agent.Temperature > 2 {
		ve.Add("agent.temperature must be between 0 and 2")
	}
	if cfg.Agent.MaxHistory <= 0 {
		ve.Add("agent.max_history must be > 0")
	}
	if cfg.Agent.Timeout <= 0 {
		ve.Add("agent.timeout must be > 0")
	}
	for name, text := range cfg.Agent.Instructions {
		if _, err := domain.ParseAgentType(name); err != nil {
			ve.Add("agent.instructions: unknown agent type %q", name)
		}
		if strings.TrimSpace(text) == "" {
			ve.Add("agent.instructions[%s] must not be empty", name)
		}
	}
}

func validateTeam(cfg *Config, ve *ValidationError) {
	if _, err := domain.ParseAgentType(cfg.Team.StartAgent); err != nil {
		ve.Add("team.start_agent %q is not a known agent type", cfg.Team.StartAgent)
	}
	if cfg.Team.MaxHandoffs < 0 {
		ve.Add("team.max_handoffs must be >= 0")
	}
}

var validProviderTypes = map[string]bool{
	"openai":  true,
	"bedrock": true,
}

func validateLLM(cfg *Config, ve *ValidationError) {
	if cfg.LLM.DefaultProvider == "" {
		ve.Add("llm.default_provider must not be empty")
	}
	if len(cfg.LLM.Providers) == 0 {
		ve.Add("llm.providers must not be empty")
		return
	}

	seen := make(map[string]bool)
	foundDefault := false
	for i, p := range cfg.LLM.Providers {
		if p.Name == "" {
			ve.Add("llm.providers[%d].name must not be empty", i)
			continue
		}
		if seen[p.Name] {
			ve.Add("llm.providers[%d]: duplicate provider name %q", i, p.Name)
		}
		seen[p.Name] = true

		if p.Type != "" && !validProviderTypes[p.Type] {
			ve.Add("llm.providers[%d].type %q is invalid (want: openai, bedrock)", i, p.Type)
		}
		if p.Type == "bedrock" && p.Region == "" {
			ve.Add("llm.providers[%d] (%s): region is required for bedrock provider", i, p.Name)
		}
		if p.Name == cfg.LLM.DefaultProvider {
			foundDefault = true
		}
	}

	if !foundDefault && cfg.LLM.DefaultProvider != "" {
		ve.Add("llm.default_provider %q does not match any configured provider", cfg.LLM.DefaultProvider)
	}

	if cfg.LLM.Failover.Enabled {
		for _, fb := range cfg.LLM.Failover.Fallbacks {
			if !seen[fb] {
				ve.Add("llm.failover.fallbacks: unknown provider %q", fb)
			}
		}
	}

	if rl := cfg.LLM.RateLimit; rl.Enabled {
		if rl.RequestsPerMin <= 0 {
			ve.Add("llm.rate_limit.requests_per_min must be > 0 when rate limiting is enabled")
		}
		if rl.Burst <= 0 {
			ve.Add("llm.rate_limit.burst must be > 0 when rate limiting is enabled")
		}
	}
}

func validateStore(cfg *Config, ve *ValidationError) {
	if cfg.Store.Enabled && cfg.Store.Path == "" {
		ve.Add("store.path is required when store is enabled")
	}
}

func validateServer(cfg *Config, ve *ValidationError) {
	if cfg.Server.RequestsPerMin < 0 || cfg.Server.Burst < 0 {
		ve.Add("server.requests_per_min and server.burst must be >= 0")
	}
	if cfg.Server.Addr == "" {
		ve.Add("server.addr must not be empty")
		return
	}
	if _, _, err := net.SplitHostPort(cfg.Server.Addr); err != nil {
		ve.Add("server.addr %q is invalid: %v", cfg.Server.Addr, err)
	}
}

var validExporters = map[string]bool{
	"noop":   true,
	"stdout": true,
	"":       true,
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !validExporters[cfg.Tracer.Exporter] {
		ve.Add("tracer.exporter %q is invalid (want: noop, stdout)", cfg.Tracer.Exporter)
	}
}
