package multiagent

import (
	"slices"

	"devteam-ai/internal/domain"
)

// Catalog is the ordered, read-only set of role profiles known to a team.
// Its order is the enumeration order used to break handoff ties.
type Catalog struct {
	profiles []domain.AgentProfile
}

// NewCatalog builds a catalog from profiles in the given order.
func NewCatalog(profiles ...domain.AgentProfile) Catalog {
	out := make([]domain.AgentProfile, len(profiles))
	for i, p := range profiles {
		p.HandoffKeywords = slices.Clone(p.HandoffKeywords)
		out[i] = p
	}
	return Catalog{profiles: out}
}

// DefaultCatalog returns the built-in development team.
func DefaultCatalog() Catalog {
	profiles := make([]domain.AgentProfile, 0, len(domain.AgentTypes()))
	for _, t := range domain.AgentTypes() {
		profiles = append(profiles, domain.AgentProfile{
			Type:            t,
			Instructions:    defaultInstructions[t],
			HandoffKeywords: defaultKeywords[t],
		})
	}
	return NewCatalog(profiles...)
}

// WithInstructions returns a copy of c with the instructions of the given
// roles replaced. Unknown roles are ignored and the order is unchanged.
func (c Catalog) WithInstructions(overrides map[domain.AgentType]string) Catalog {
	out := NewCatalog(c.profiles...)
	for i := range out.profiles {
		if text, ok := overrides[out.profiles[i].Type]; ok && text != "" {
			out.profiles[i].Instructions = text
		}
	}
	return out
}

// Profiles returns a copy of the profiles in catalog order.
func (c Catalog) Profiles() []domain.AgentProfile {
	return NewCatalog(c.profiles...).profiles
}

// Types returns the role identifiers in catalog order.
func (c Catalog) Types() []domain.AgentType {
	types := make([]domain.AgentType, len(c.profiles))
	for i, p := range c.profiles {
		types[i] = p.Type
	}
	return types
}

// Profile looks up the profile of t.
func (c Catalog) Profile(t domain.AgentType) (domain.AgentProfile, bool) {
	for _, p := range c.profiles {
		if p.Type == t {
			p.HandoffKeywords = slices.Clone(p.HandoffKeywords)
			return p, true
		}
	}
	return domain.AgentProfile{}, false
}

// Len returns the number of roles.
func (c Catalog) Len() int { return len(c.profiles) }

var defaultInstructions = map[domain.AgentType]string{
	domain.ProductManager: `You are an expert Product Manager specializing in construction software solutions. 
Your responsibility is to gather requirements, define user stories, and create product specifications.
Focus on understanding user needs and translating them into clear, actionable development tasks.`,

	domain.SoftwareArchitect: `You are an expert Software Architect with deep knowledge of modern web development.
Your responsibility is to design system architecture, select appropriate technologies, and ensure scalable, maintainable solutions.
Focus on creating robust technical designs that meet both functional and non-functional requirements.`,

	domain.FrontendDeveloper: `You are an expert Frontend Developer specializing in Next.js 15, TypeScript, and Shadcn UI.
Your responsibility is to build beautiful, responsive user interfaces and client-side functionality.
Focus on writing clean, efficient code that follows best practices and delivers excellent user experiences.`,

	domain.BackendDeveloper: `You are an expert Backend Developer specializing in Next.js API routes, Prisma ORM, and Supabase.
Your responsibility is to develop server-side logic, database interactions, and API endpoints.
Focus on creating secure, performant solutions that handle complex business logic.`,

	domain.DevOpsEngineer: `You are an expert DevOps Engineer specializing in CI/CD pipelines and cloud infrastructure.
Your responsibility is to streamline deployment processes and ensure optimal system performance.
Focus on automating workflows and implementing monitoring solutions.`,

	domain.QATester: `You are an expert QA Tester with a keen eye for detail and edge cases.
Your responsibility is to develop comprehensive test plans and ensure software quality.
Focus on identifying bugs, validating requirements, and improving the overall user experience.`,

	domain.TechnicalWriter: `You are an expert Technical Writer with excellent communication skills.
Your responsibility is to create clear, concise documentation for developers and end-users.
Focus on explaining complex concepts in accessible language and providing helpful examples.`,

	domain.ProjectOrchestrator: `You are the Project Orchestrator responsible for coordinating the AI development team.
Your responsibility is to manage the overall workflow, assign tasks to specialized agents, and ensure project success.
Focus on understanding requirements and effectively delegating to the most appropriate specialized agents.`,
}

// defaultKeywords are topic hints per role. Handoff detection never reads
// them; only SuggestByKeywords does.
var defaultKeywords = map[domain.AgentType][]string{
	domain.ProductManager:      {"requirements", "user stories", "product", "feature", "specification"},
	domain.SoftwareArchitect:   {"architecture", "design", "system design", "technical design", "technology selection"},
	domain.FrontendDeveloper:   {"ui", "frontend", "interface", "component", "react", "client-side"},
	domain.BackendDeveloper:    {"api", "backend", "database", "server", "endpoint", "data model"},
	domain.DevOpsEngineer:      {"deployment", "ci/cd", "infrastructure", "pipeline", "hosting", "monitoring"},
	domain.QATester:            {"testing", "qa", "quality", "test plan", "bug", "validation"},
	domain.TechnicalWriter:     {"documentation", "docs", "guide", "tutorial", "readme", "explain"},
	domain.ProjectOrchestrator: {"coordinate", "manage", "overview", "workflow", "project", "plan", "schedule"},
}
