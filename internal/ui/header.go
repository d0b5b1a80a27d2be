package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/wakubase/internal/health"
)

const logo = "wakubase"

// renderHeader renders the status bar: logo, node health, node URL and the
// last sync error.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	sep := "  "

	parts := []string{
		styles.Logo.Render(logo),
		m.renderHealth(),
		styles.MutedText.Render(truncateMiddle(m.data.settings.NodeURL, 40)),
		styles.FaintText.Render(string(m.data.settings.NodeType) + " node"),
	}

	snap := m.data.feed
	switch {
	case snap.LastError != nil:
		msg := snap.LastError.Error()
		if snap.IsOffline() {
			msg = fmt.Sprintf("%s (x%d)", msg, snap.ConsecutiveFailures)
		}
		parts = append(parts, styles.DangerText.Render(truncate(msg, m.width/2)))
	case !snap.LastUpdated.IsZero():
		parts = append(parts, styles.FaintText.Render("synced "+humanizeDuration(time.Since(snap.LastUpdated))+" ago"))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, sep))
}

func (m Model) renderHealth() string {
	styles := m.theme.Styles()
	switch m.data.health {
	case health.Healthy:
		return styles.SuccessText.Render("● healthy")
	case health.Checking:
		return styles.WarningText.Render("◌ checking")
	default:
		return styles.DangerText.Render("● unhealthy")
	}
}

// renderFooter shows the flash message or the key hints for the view.
func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.flash != "" {
		style := styles.SuccessText
		if m.flashError {
			style = styles.DangerText
		}
		return styles.Footer.Width(m.width).Render(style.Render(truncate(m.flash, m.width-2)))
	}

	var hints [][2]string
	switch m.currentView {
	case ViewSettings:
		hints = [][2]string{{"enter", "edit"}, {"R", "reset"}, {"esc", "back"}}
	case ViewLogs:
		hints = [][2]string{{"j/k", "scroll"}, {"g/G", "top/bottom"}, {"esc", "back"}}
	default:
		switch m.focus {
		case PaneTopics:
			hints = [][2]string{{"enter", "watch"}, {"a", "add"}, {"d", "delete"}}
		case PaneMessages:
			hints = [][2]string{{"d", "delete"}, {"C", "clear"}, {"m", "mark seen"}}
		case PaneCompose:
			hints = [][2]string{{"enter", "send"}, {"esc", "leave"}}
		}
		hints = append(hints, [2]string{"tab", "pane"})
	}
	hints = append(hints, [2]string{"s", "settings"}, [2]string{"L", "log"}, [2]string{"T", "theme"}, [2]string{"?", "help"}, [2]string{"q", "quit"})

	items := make([]string, 0, len(hints))
	for _, h := range hints {
		items = append(items, styles.Key.Render(h[0])+" "+styles.MutedText.Render(h[1]))
	}
	return styles.Footer.Width(m.width).Render(lipgloss.NewStyle().MaxWidth(m.width).Render(strings.Join(items, "  ")))
}
