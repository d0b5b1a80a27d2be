package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/wakubase/internal/feed"
	"github.com/five82/wakubase/internal/settings"
	"github.com/five82/wakubase/internal/state"
)

const composeHeight = 3 // one input row plus border

func (m Model) rightInnerWidth() int {
	w := m.width - m.topicsWidth() - 2
	if w < 10 {
		w = 10
	}
	return w
}

func (m Model) renderMessages() string {
	styles := m.theme.Styles()
	inner := m.rightInnerWidth()
	height := m.contentHeight() - composeHeight - 2
	if height < 1 {
		height = 1
	}
	snap := m.data.feed

	var lines []string
	title := "Messages"
	if snap.Topic != "" {
		title += " · " + truncateMiddle(snap.Topic, inner-20)
	}
	header := styles.AccentText.Bold(true).Render(title)
	if n := snap.NewCount(); n > 0 {
		header += styles.SuccessText.Render(fmt.Sprintf("  %d new", n))
	}
	lines = append(lines, header)

	rows := height - 1
	switch {
	case len(snap.Messages) == 0 && m.lightNode():
		lines = append(lines, styles.MutedText.Render("Light node: message sync is disabled."))
	case snap.Topic == "":
		lines = append(lines, styles.MutedText.Render("Select a topic to start syncing."))
	case len(snap.Messages) == 0:
		lines = append(lines, styles.MutedText.Render("Waiting for messages..."))
	default:
		start, end := window(len(snap.Messages), m.messageCursor, rows)
		for i := start; i < end; i++ {
			lines = append(lines, m.renderMessageRow(snap.Messages[i], inner, i == m.messageCursor && m.focus == PaneMessages))
		}
	}

	return m.theme.Pane(m.focus == PaneMessages).
		Width(inner).
		Height(height).
		Render(strings.Join(lines, "\n"))
}

func (m Model) lightNode() bool {
	t := m.data.settings.NodeType
	return t != "" && t != settings.NodeFull
}

func (m Model) renderMessageRow(msg state.Message, width int, selected bool) string {
	styles := m.theme.Styles()

	marker := "  "
	if msg.IsNew {
		marker = "● "
	}
	stamp := "--:--:--"
	if at, ok := msg.Timestamp.Time(); ok {
		stamp = at.Local().Format("15:04:05")
	}

	text, ok := msg.Text()
	body := singleLine(text)
	if !ok {
		body = "[undecodable] " + body
	}
	prefix := marker + stamp + "  "
	body = truncate(body, width-len([]rune(prefix)))

	if selected {
		return styles.Selected.Width(width).Render(prefix + body)
	}
	markerStyle := styles.FaintText
	if msg.IsNew {
		markerStyle = styles.SuccessText
	}
	bodyStyle := styles.Text
	if !ok {
		bodyStyle = styles.WarningText
	}
	return markerStyle.Render(marker) + styles.MutedText.Render(stamp+"  ") + bodyStyle.Render(body)
}

func (m Model) renderCompose() string {
	focused := m.focus == PaneCompose
	content := m.compose.View()
	if m.sending {
		content = m.theme.Styles().MutedText.Render("Sending...")
	}
	return m.theme.Pane(focused).
		Width(m.rightInnerWidth()).
		Height(composeHeight - 2).
		Render(content)
}

func (m Model) handleMessagesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	messages := m.data.feed.Messages
	count := len(messages)
	switch {
	case key.Matches(msg, k.Down):
		m.messageCursor = clamp(m.messageCursor+1, 0, count-1)
	case key.Matches(msg, k.Up):
		m.messageCursor = clamp(m.messageCursor-1, 0, count-1)
	case key.Matches(msg, k.Top):
		m.messageCursor = 0
	case key.Matches(msg, k.Bottom):
		m.messageCursor = clamp(count-1, 0, count-1)
	case key.Matches(msg, k.Delete):
		if count == 0 || m.feed == nil {
			return m, nil
		}
		ts := messages[m.messageCursor].Timestamp
		engine := m.feed
		return m, actionCmd("Message deleted", func() error {
			engine.DeleteMessage(ts)
			return nil
		})
	case key.Matches(msg, k.ClearAll):
		if m.feed == nil {
			return m, nil
		}
		engine := m.feed
		return m, actionCmd("Messages cleared", func() error {
			engine.ClearMessages()
			return nil
		})
	case key.Matches(msg, k.MarkSeen):
		if m.feed == nil {
			return m, nil
		}
		engine := m.feed
		return m, actionCmd("", func() error {
			engine.MarkSeen()
			return nil
		})
	case key.Matches(msg, k.Compose):
		m.setFocus(PaneCompose)
	}
	return m, nil
}

// handleComposeKey edits the compose line. Enter sends, esc leaves it.
func (m Model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.setFocus(PaneMessages)
		return m, nil
	case tea.KeyTab:
		m.setFocus(PaneTopics)
		return m, nil
	case tea.KeyShiftTab:
		m.setFocus(PaneMessages)
		return m, nil
	case tea.KeyEnter:
		if m.sending {
			return m, nil
		}
		text := m.compose.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.sending = true
		return m, m.sendCmd(text)
	}
	var cmd tea.Cmd
	m.compose, cmd = m.compose.Update(msg)
	return m, cmd
}

func (m Model) sendCmd(text string) tea.Cmd {
	engine := m.feed
	ctx := m.ctx
	return func() tea.Msg {
		if engine == nil {
			return sendResultMsg{err: errors.New("sync engine unavailable")}
		}
		sendCtx, cancel := contextWithTimeout(ctx, 10*time.Second)
		defer cancel()
		err := engine.Send(sendCtx, text)
		if errors.Is(err, feed.ErrNoTopic) {
			err = errors.New("select a topic before sending")
		}
		return sendResultMsg{err: err}
	}
}
