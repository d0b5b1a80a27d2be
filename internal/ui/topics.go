package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/wakubase/internal/settings"
)

func (m Model) renderTopics() string {
	styles := m.theme.Styles()
	width := m.topicsWidth()
	height := m.contentHeight() - 2
	inner := width - 2

	var lines []string
	title := styles.AccentText.Bold(true).Render("Topics")
	lines = append(lines, title+styles.FaintText.Render(fmt.Sprintf(" (%d)", len(m.data.topics))))

	rows := height - 1
	if m.promptMode == promptAddTopic {
		rows--
	}
	if len(m.data.topics) == 0 {
		lines = append(lines, styles.MutedText.Render("No topics. Press a to add one."))
	} else {
		start, end := window(len(m.data.topics), m.topicCursor, rows)
		for i := start; i < end; i++ {
			t := m.data.topics[i]
			marker := "  "
			if m.data.hasSelected && t.ID == m.data.selected.ID {
				marker = "▸ "
			}
			label := marker + truncateMiddle(t.Topic, inner-2)
			switch {
			case i == m.topicCursor && m.focus == PaneTopics:
				label = styles.Selected.Width(inner).Render(label)
			case m.data.hasSelected && t.ID == m.data.selected.ID:
				label = styles.AccentText.Render(label)
			default:
				label = styles.Text.Render(label)
			}
			lines = append(lines, label)
		}
	}
	if m.promptMode == promptAddTopic {
		lines = append(lines, m.prompt.View())
	}

	return m.theme.Pane(m.focus == PaneTopics).
		Width(inner).
		Height(height).
		Render(strings.Join(lines, "\n"))
}

func (m Model) handleTopicsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	count := len(m.data.topics)
	switch {
	case key.Matches(msg, k.Down):
		m.topicCursor = clamp(m.topicCursor+1, 0, count-1)
	case key.Matches(msg, k.Up):
		m.topicCursor = clamp(m.topicCursor-1, 0, count-1)
	case key.Matches(msg, k.Top):
		m.topicCursor = 0
	case key.Matches(msg, k.Bottom):
		m.topicCursor = clamp(count-1, 0, count-1)
	case key.Matches(msg, k.Select):
		if count == 0 || m.selection == nil {
			return m, nil
		}
		t := m.data.topics[m.topicCursor]
		sel := m.selection
		return m, actionCmd("Watching "+t.Topic, func() error {
			if !sel.Select(t.ID) {
				return fmt.Errorf("topic %s no longer exists", t.Topic)
			}
			return nil
		})
	case key.Matches(msg, k.AddTopic):
		m.openPrompt(promptAddTopic, "topic › ", "")
		m.prompt.Placeholder = "/app/1/name/proto"
	case key.Matches(msg, k.Delete):
		if count == 0 || m.selection == nil {
			return m, nil
		}
		t := m.data.topics[m.topicCursor]
		sel := m.selection
		return m, actionCmd("Deleted "+t.Topic, func() error {
			return sel.Delete(t.ID)
		})
	case key.Matches(msg, k.Compose):
		m.setFocus(PaneCompose)
	}
	return m, nil
}

func (m *Model) openPrompt(mode promptMode, label, value string) {
	m.promptMode = mode
	m.prompt.Prompt = label
	m.prompt.Placeholder = ""
	m.prompt.SetValue(value)
	m.prompt.CursorEnd()
	m.prompt.Focus()
}

func (m *Model) closePrompt() {
	m.promptMode = promptNone
	m.prompt.Blur()
	m.prompt.SetValue("")
}

// handlePromptKey feeds the prompt until enter or esc.
func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		value := m.prompt.Value()
		mode, settingKey := m.promptMode, m.promptKey
		m.closePrompt()
		return m, m.submitPrompt(mode, settingKey, value)
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) submitPrompt(mode promptMode, settingKey settings.Key, value string) tea.Cmd {
	switch mode {
	case promptAddTopic:
		if m.selection == nil {
			return nil
		}
		sel := m.selection
		return func() tea.Msg {
			t, err := sel.Add(value)
			if err != nil {
				return actionResultMsg{err: err}
			}
			return actionResultMsg{text: "Added " + t.Topic}
		}
	case promptEditSetting:
		return m.saveSettingCmd(settingKey, value)
	}
	return nil
}
