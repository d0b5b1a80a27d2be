package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/five82/wakubase/internal/logtail"
)

const logTailLines = 500

func (m Model) fetchLogsCmd() tea.Cmd {
	path := m.logPath
	return func() tea.Msg {
		if path == "" {
			return logMsg{}
		}
		lines, err := logtail.Read(path, logTailLines)
		return logMsg{lines: lines, err: err}
	}
}

func (m *Model) updateLogViewport() {
	atBottom := m.logViewport.AtBottom() || m.logViewport.TotalLineCount() == 0
	m.logViewport.SetContent(m.renderLogLines())
	if atBottom {
		m.logViewport.GotoBottom()
	}
}

func (m Model) renderLogLines() string {
	styles := m.theme.Styles()
	if m.logErr != nil {
		return styles.DangerText.Render("Cannot read log: " + m.logErr.Error())
	}
	if len(m.logLines) == 0 {
		return styles.MutedText.Render("No log entries yet.")
	}
	out := make([]string, 0, len(m.logLines))
	for _, line := range m.logLines {
		entry := logtail.Parse(line)
		out = append(out, m.levelStyle(entry).Render(entry.String()))
	}
	return strings.Join(out, "\n")
}

func (m Model) levelStyle(entry logtail.Entry) lipgloss.Style {
	styles := m.theme.Styles()
	if !entry.Structured {
		return styles.MutedText
	}
	switch {
	case entry.Level >= zerolog.ErrorLevel && entry.Level <= zerolog.PanicLevel:
		return styles.DangerText
	case entry.Level == zerolog.WarnLevel:
		return styles.WarningText
	case entry.Level <= zerolog.DebugLevel:
		return styles.FaintText
	default:
		return styles.Text
	}
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := styles.AccentText.Bold(true).Render("Log") + "  " +
		styles.FaintText.Render(truncateMiddle(m.logPath, m.width-10))
	body := lipgloss.JoinVertical(lipgloss.Left, title, m.logViewport.View())
	return m.theme.Pane(true).
		Width(m.width - 2).
		Height(m.contentHeight() - 2).
		Render(body)
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Top):
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, k.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.logViewport, cmd = m.logViewport.Update(msg)
	return m, cmd
}
