package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/wakubase/internal/settings"
)

var settingLabels = map[settings.Key]string{
	settings.KeyNodeType:         "Node type",
	settings.KeyNodeURL:          "Node URL",
	settings.KeyNetworkType:      "Network",
	settings.KeyCustomNetworkURL: "Custom network URL",
	settings.KeyAutoSelectNew:    "Auto-select new topics",
	settings.KeyTheme:            "Theme",
}

var settingHints = map[settings.Key]string{
	settings.KeyNodeType:         "full | light",
	settings.KeyNodeURL:          "http://host:port",
	settings.KeyNetworkType:      "bootstrap | custom",
	settings.KeyCustomNetworkURL: "used when network is custom",
	settings.KeyAutoSelectNew:    "true | false",
	settings.KeyTheme:            "light | dark",
}

func settingString(s settings.Settings, k settings.Key) string {
	v, err := s.Value(k)
	if err != nil {
		return ""
	}
	return fmt.Sprint(v)
}

func (m Model) renderSettings() string {
	styles := m.theme.Styles()
	inner := m.width - 2
	if inner < 20 {
		inner = 20
	}
	height := m.contentHeight() - 2

	keys := settings.Keys()
	labelWidth := 0
	for _, k := range keys {
		if l := len(settingLabels[k]); l > labelWidth {
			labelWidth = l
		}
	}

	lines := []string{styles.AccentText.Bold(true).Render("Settings"), ""}
	for i, k := range keys {
		value := settingString(m.data.settings, k)
		if value == "" {
			value = "(unset)"
		}
		label := fmt.Sprintf("%-*s", labelWidth, settingLabels[k])
		if i == m.settingCursor {
			if m.promptMode == promptEditSetting {
				lines = append(lines, styles.AccentText.Render(label)+"  "+m.prompt.View())
				continue
			}
			row := label + "  " + value
			lines = append(lines, styles.Selected.Width(inner).Render(row))
			continue
		}
		lines = append(lines,
			styles.MutedText.Render(label)+"  "+styles.Text.Render(value)+
				"  "+styles.FaintText.Render(settingHints[k]))
	}
	lines = append(lines, "", styles.FaintText.Render("enter edit · R reset to defaults · esc back"))

	return m.theme.Pane(true).
		Width(inner).
		Height(height).
		Render(strings.Join(lines, "\n"))
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	keys := settings.Keys()
	switch {
	case key.Matches(msg, k.Down):
		m.settingCursor = clamp(m.settingCursor+1, 0, len(keys)-1)
	case key.Matches(msg, k.Up):
		m.settingCursor = clamp(m.settingCursor-1, 0, len(keys)-1)
	case key.Matches(msg, k.Top):
		m.settingCursor = 0
	case key.Matches(msg, k.Bottom):
		m.settingCursor = len(keys) - 1
	case key.Matches(msg, k.Select):
		sk := keys[m.settingCursor]
		m.promptKey = sk
		m.openPrompt(promptEditSetting, "", settingString(m.data.settings, sk))
		m.prompt.Placeholder = settingHints[sk]
	case key.Matches(msg, k.ResetDefs):
		if m.settings == nil {
			return m, nil
		}
		store := m.settings
		return m, actionCmd("Settings reset to defaults", store.ResetToDefaults)
	}
	return m, nil
}

func (m Model) saveSettingCmd(k settings.Key, raw string) tea.Cmd {
	if m.settings == nil {
		return nil
	}
	store := m.settings
	return func() tea.Msg {
		value, err := settings.ParseValue(k, raw)
		if err == nil {
			err = store.Set(k, value)
		}
		if err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{text: fmt.Sprintf("%s updated", settingLabels[k])}
	}
}
