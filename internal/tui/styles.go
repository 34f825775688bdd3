package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/arcview/internal/render"
	"github.com/leapstack-labs/arcview/internal/workspace"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0074D9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4136"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC40"))
	headingStyle = lipgloss.NewStyle().Bold(true)
	panelStyle   = lipgloss.NewStyle().MarginRight(3)
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4B5563")).
			Padding(0, 1)
)

// cellWidth is the number of terminal columns per grid cell; two columns
// make cells roughly square.
const cellWidth = 2

// renderGrid draws a grid as background-colored blocks.
func renderGrid(g render.Grid) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(g.Role.Title()))
	b.WriteString(" ")
	if len(g.Colors) == 0 {
		b.WriteString(mutedStyle.Render("empty"))
		return b.String()
	}
	b.WriteString(mutedStyle.Render(strconv.Itoa(g.Rows) + "x" + strconv.Itoa(g.Columns)))

	blank := strings.Repeat(" ", cellWidth)
	for i, c := range g.Colors {
		if i%g.Columns == 0 {
			b.WriteString("\n")
		}
		b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(c)).Render(blank))
	}
	return b.String()
}

// renderExample lays out the panels of one example side by side.
func renderExample(ev render.ExampleView) string {
	header := headingStyle.Render("Example " + strconv.Itoa(ev.Number()))
	if ev.Matches != nil {
		if *ev.Matches {
			header += " " + successStyle.Render("match")
		} else {
			header += " " + errorStyle.Render("mismatch")
		}
	}

	panels := []string{panelStyle.Render(renderGrid(ev.Input)), panelStyle.Render(renderGrid(ev.Middle))}
	if ev.Output != nil {
		panels = append(panels, renderGrid(*ev.Output))
	}

	body := header + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, panels...)
	if ev.TransformErr != "" {
		body += "\n" + errorStyle.Render(ev.TransformErr)
	}
	return cardStyle.Render(body)
}

// renderExamples renders every visible example of v.
func renderExamples(v workspace.View) string {
	if len(v.Examples) == 0 {
		return mutedStyle.Render("No examples in this set. Press o to open a task file.")
	}
	parts := make([]string, len(v.Examples))
	for i, ev := range v.Examples {
		parts[i] = renderExample(ev)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderLegend draws the palette as numbered swatches.
func renderLegend() string {
	legend := render.PaletteLegend()
	parts := make([]string, len(legend))
	for i, l := range legend {
		swatch := lipgloss.NewStyle().Background(lipgloss.Color(l.Color)).Render(strings.Repeat(" ", cellWidth))
		parts[i] = swatch + " " + strconv.Itoa(l.Value)
	}
	return strings.Join(parts, "  ")
}
