package output

import "github.com/charmbracelet/lipgloss"

// Styles holds lipgloss styles for text output.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
	Path    lipgloss.Style

	SuccessIcon string
	WarningIcon string
	ErrorIcon   string
}

// NewStyles returns colored styles for a terminal and plain ones otherwise.
func NewStyles(isTTY bool) *Styles {
	if !isTTY {
		plain := lipgloss.NewStyle()
		return &Styles{
			Header:      plain,
			Success:     plain,
			Warning:     plain,
			Error:       plain,
			Muted:       plain,
			Bold:        plain,
			Path:        plain,
			SuccessIcon: "[ok]",
			WarningIcon: "[warn]",
			ErrorIcon:   "[error]",
		}
	}
	return &Styles{
		Header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0074D9")),
		Success:     lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC40")),
		Warning:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF851B")),
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4136")),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		Bold:        lipgloss.NewStyle().Bold(true),
		Path:        lipgloss.NewStyle().Foreground(lipgloss.Color("#7FDBFF")),
		SuccessIcon: "✓",
		WarningIcon: "!",
		ErrorIcon:   "✗",
	}
}
