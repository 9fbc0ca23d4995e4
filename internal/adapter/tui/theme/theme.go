// Package theme provides the colors and styles shared by the TUI.
// All styles use adaptive colors that work on both light and dark terminals.
package theme

import (
	"github.com/charmbracelet/lipgloss"

	"devteam-ai/internal/domain"
)

var (
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#66bb6a"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef5350"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#e65100", Dark: "#ffa726"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#0277bd", Dark: "#4fc3f7"}
	ColorAccent  = lipgloss.AdaptiveColor{Light: "#6a1b9a", Dark: "#ce93d8"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9e9e9e"}
	ColorBorder  = lipgloss.AdaptiveColor{Light: "#bdbdbd", Dark: "#616161"}
	ColorBgAlt   = lipgloss.AdaptiveColor{Light: "#f5f5f5", Dark: "#2d2d2d"}
	ColorFgDim   = lipgloss.AdaptiveColor{Light: "#9e9e9e", Dark: "#757575"}
)

// agentColors gives every role a stable label color.
var agentColors = map[domain.AgentType]lipgloss.AdaptiveColor{
	domain.ProductManager:      {Light: "#ad1457", Dark: "#f48fb1"},
	domain.SoftwareArchitect:   {Light: "#4527a0", Dark: "#b39ddb"},
	domain.FrontendDeveloper:   {Light: "#00838f", Dark: "#80deea"},
	domain.BackendDeveloper:    {Light: "#2e7d32", Dark: "#a5d6a7"},
	domain.DevOpsEngineer:      {Light: "#ef6c00", Dark: "#ffcc80"},
	domain.QATester:            {Light: "#c62828", Dark: "#ef9a9a"},
	domain.TechnicalWriter:     {Light: "#5d4037", Dark: "#bcaaa4"},
	domain.ProjectOrchestrator: {Light: "#6a1b9a", Dark: "#ce93d8"},
}

var (
	Dim = lipgloss.NewStyle().Faint(true)

	TextError = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	TextInfo  = lipgloss.NewStyle().Foreground(ColorInfo)
	TextMuted = lipgloss.NewStyle().Foreground(ColorMuted)

	UserLabel   = lipgloss.NewStyle().Foreground(ColorInfo).Bold(true)
	SystemLabel = lipgloss.NewStyle().Foreground(ColorMuted).Bold(true)
	ErrorLabel  = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	HandoffLine = lipgloss.NewStyle().Foreground(ColorWarning).Italic(true)

	Timestamp = lipgloss.NewStyle().Foreground(ColorFgDim).Faint(true)

	StatusBar = lipgloss.NewStyle().
			Foreground(ColorFgDim).
			Background(ColorBgAlt).
			Padding(0, 1)

	StatusKey = lipgloss.NewStyle().Foreground(ColorInfo).Bold(true)

	InputPrompt      = lipgloss.NewStyle().Foreground(ColorInfo).Bold(true)
	InputPlaceholder = lipgloss.NewStyle().Foreground(ColorFgDim)
)

// MaxContentWidth is the max width for readable text content.
const MaxContentWidth = 100

// AgentLabel renders the display name of t in its role color.
func AgentLabel(t domain.AgentType) string {
	style := lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	if c, ok := agentColors[t]; ok {
		style = style.Foreground(c)
	}
	return style.Render(t.DisplayName())
}
