package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/wakubase/internal/feed"
	"github.com/five82/wakubase/internal/health"
	"github.com/five82/wakubase/internal/settings"
	"github.com/five82/wakubase/internal/state"
	"github.com/five82/wakubase/internal/topics"
)

// View represents the current active view.
type View int

const (
	ViewMain View = iota
	ViewSettings
	ViewLogs
)

// Pane identifies the focused pane of the main view.
type Pane int

const (
	PaneTopics Pane = iota
	PaneMessages
	PaneCompose
	paneCount
)

// promptMode says what the single-line prompt is collecting.
type promptMode int

const (
	promptNone promptMode = iota
	promptAddTopic
	promptEditSetting
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Settings  *settings.Store
	Registry  *topics.Registry
	Selection *topics.Selection
	Health    *health.Poller
	Feed      *feed.Engine
	LogPath   string
	PollTick  time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	settings  *settings.Store
	registry  *topics.Registry
	selection *topics.Selection
	health    *health.Poller
	feed      *feed.Engine
	logPath   string
	pollTick  time.Duration
	keys      keyMap

	// UI state
	theme       Theme
	currentView View
	focus       Pane
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Data state
	data        dataMsg
	lastUpdated time.Time

	// Cursors
	topicCursor   int
	messageCursor int
	settingCursor int

	// Inputs
	compose    textinput.Model
	prompt     textinput.Model
	promptMode promptMode
	promptKey  settings.Key
	sending    bool

	// Status line
	flash      string
	flashError bool

	// Log view
	logViewport viewport.Model
	logLines    []string
	logErr      error
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = 500 * time.Millisecond
	}

	compose := textinput.New()
	compose.Placeholder = "Type a message and press enter"
	compose.Prompt = "› "
	compose.CharLimit = 4096
	compose.Cursor.SetMode(cursor.CursorStatic)

	prompt := textinput.New()
	prompt.CharLimit = 512
	prompt.Cursor.SetMode(cursor.CursorStatic)

	m := Model{
		ctx:         ctx,
		settings:    opts.Settings,
		registry:    opts.Registry,
		selection:   opts.Selection,
		health:      opts.Health,
		feed:        opts.Feed,
		logPath:     opts.LogPath,
		pollTick:    pollTick,
		keys:        DefaultKeyMap(),
		currentView: ViewMain,
		focus:       PaneTopics,
		compose:     compose,
		prompt:      prompt,
		logViewport: viewport.New(0, 0),
	}
	m.theme = ThemeFor(settings.ThemeLight)
	if m.settings != nil {
		m.theme = ThemeFor(m.settings.Theme())
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.pollTick),
		m.fetchSnapshotCmd(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case dataMsg:
		m.applyData(msg)
		return m, nil

	case sendResultMsg:
		m.sending = false
		if msg.err != nil {
			m.setFlash(msg.err.Error(), true)
			return m, nil
		}
		m.compose.SetValue("")
		m.setFlash("Message sent", false)
		return m, m.fetchSnapshotCmd()

	case actionResultMsg:
		if msg.err != nil {
			m.setFlash(msg.err.Error(), true)
		} else if msg.text != "" {
			m.setFlash(msg.text, false)
		}
		return m, m.fetchSnapshotCmd()

	case logMsg:
		m.logLines = msg.lines
		m.logErr = msg.err
		m.updateLogViewport()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewSettings:
		return m.renderSettings()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderMainView()
	}
}

// renderMainView lays out topics on the left and messages on the right.
func (m Model) renderMainView() string {
	left := m.renderTopics()
	right := lipgloss.JoinVertical(lipgloss.Left, m.renderMessages(), m.renderCompose())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// contentHeight is the number of rows left for panes.
func (m Model) contentHeight() int {
	h := m.height - 2 // header + footer
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) topicsWidth() int {
	w := m.width / 3
	if w < 24 {
		w = 24
	}
	if w > 48 {
		w = 48
	}
	return w
}

func (m *Model) resize() {
	w := m.width - m.topicsWidth() - 6
	if w < 10 {
		w = 10
	}
	m.compose.Width = w
	m.prompt.Width = w
	m.logViewport.Width = m.width - 2
	m.logViewport.Height = m.contentHeight() - 3 // border + title
	m.updateLogViewport()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	m.flash = ""
	if m.promptMode != promptNone {
		return m.handlePromptKey(msg)
	}
	if m.currentView == ViewMain && m.focus == PaneCompose && m.compose.Focused() {
		return m.handleComposeKey(msg)
	}

	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, k.CycleTheme):
		return m, m.toggleThemeCmd()
	case key.Matches(msg, k.Escape):
		m.currentView = ViewMain
		return m, nil
	case key.Matches(msg, k.ViewSettings):
		m.toggleView(ViewSettings)
		return m, nil
	case key.Matches(msg, k.ViewLogs):
		m.toggleView(ViewLogs)
		if m.currentView == ViewLogs {
			return m, m.fetchLogsCmd()
		}
		return m, nil
	}

	switch m.currentView {
	case ViewSettings:
		return m.handleSettingsKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}

	switch {
	case key.Matches(msg, k.Tab):
		m.setFocus((m.focus + 1) % paneCount)
		return m, nil
	case key.Matches(msg, k.ShiftTab):
		m.setFocus((m.focus + paneCount - 1) % paneCount)
		return m, nil
	}

	switch m.focus {
	case PaneTopics:
		return m.handleTopicsKey(msg)
	case PaneMessages:
		return m.handleMessagesKey(msg)
	case PaneCompose:
		if key.Matches(msg, k.Compose) || key.Matches(msg, k.Confirm) {
			m.setFocus(PaneCompose)
		}
	}
	return m, nil
}

func (m *Model) toggleView(v View) {
	if m.currentView == v {
		m.currentView = ViewMain
		return
	}
	m.currentView = v
}

func (m *Model) setFocus(p Pane) {
	m.focus = p
	if p == PaneCompose {
		m.compose.Focus()
		return
	}
	m.compose.Blur()
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.fetchSnapshotCmd()}
	if m.currentView == ViewLogs {
		cmds = append(cmds, m.fetchLogsCmd())
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m *Model) applyData(d dataMsg) {
	m.data = d
	m.lastUpdated = time.Now()
	m.theme = ThemeFor(d.settings.Theme)
	m.topicCursor = clamp(m.topicCursor, 0, len(d.topics)-1)
	m.messageCursor = clamp(m.messageCursor, 0, len(d.feed.Messages)-1)
}

func (m *Model) setFlash(text string, isError bool) {
	m.flash = text
	m.flashError = isError
}

// Messages

type tickMsg time.Time

// dataMsg carries one consistent read of every store the UI renders.
type dataMsg struct {
	feed        state.Snapshot
	topics      []topics.ContentTopic
	selected    topics.ContentTopic
	hasSelected bool
	health      health.Status
	settings    settings.Settings
}

type sendResultMsg struct{ err error }

type actionResultMsg struct {
	text string
	err  error
}

type logMsg struct {
	lines []string
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchSnapshotCmd() tea.Cmd {
	return func() tea.Msg {
		return m.readData()
	}
}

func (m Model) readData() dataMsg {
	var d dataMsg
	if m.feed != nil {
		d.feed = m.feed.Snapshot()
	}
	if m.registry != nil {
		d.topics = m.registry.Topics()
	}
	if m.selection != nil {
		d.selected, d.hasSelected = m.selection.Selected()
	}
	if m.health != nil {
		d.health = m.health.Status()
	}
	if m.settings != nil {
		d.settings = m.settings.All()
	} else {
		d.settings = settings.Defaults()
	}
	return d
}

// actionCmd runs a store mutation off the update loop.
func actionCmd(done string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return actionResultMsg{err: err}
		}
		return actionResultMsg{text: done}
	}
}

func (m Model) toggleThemeCmd() tea.Cmd {
	if m.settings == nil {
		return nil
	}
	next := NextTheme(m.data.settings.Theme)
	store := m.settings
	return actionCmd("Theme: "+string(next), func() error {
		return store.Set(settings.KeyTheme, next)
	})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	return err
}
