package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the key binding overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Logo.Render(logo))
	b.WriteString(styles.MutedText.Render("  keyboard shortcuts"))
	b.WriteString("\n")

	for _, group := range m.keys.helpGroups() {
		b.WriteString("\n")
		b.WriteString(styles.AccentText.Bold(true).Render(group.title))
		b.WriteString("\n")
		for _, binding := range group.bindings {
			h := binding.Help()
			b.WriteString("  ")
			b.WriteString(styles.Key.Render(padRight(h.Key, 10)))
			b.WriteString(styles.Text.Render(h.Desc))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("Press any key to close"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func padRight(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s + " "
}
