package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/roster/internal/logtail"
)

// logState holds the log view state.
type logState struct {
	lines    []string
	err      error
	follow   bool
	minLevel string // "", DEBUG, INFO, WARN or ERROR
}

var logLevels = []string{"", "DEBUG", "INFO", "WARN", "ERROR"}

type logLinesMsg struct {
	lines []string
	err   error
}

// refreshLogs reads the tail of the log file off the update loop.
func (m *Model) refreshLogs() tea.Cmd {
	path := m.logPath
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLines)
		return logLinesMsg{lines: lines, err: err}
	}
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logState.err = msg.err
	if msg.err == nil {
		m.logState.lines = msg.lines
	}
	m.renderLogViewport()
}

func (m *Model) resizeLogViewport() {
	m.logViewport.Width = max(m.width-2, 1)
	m.logViewport.Height = max(m.contentHeight()-2, 1)
}

// renderLogViewport pushes the filtered, colorized lines into the viewport.
func (m *Model) renderLogViewport() {
	if !m.ready {
		return
	}
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	palette := logtail.Palette{
		Timestamp: styles.FaintText,
		Component: styles.AccentText,
		Separator: styles.FaintText,
		Message:   styles.Text,
		Levels:    map[string]lipgloss.Style{},
	}
	for _, level := range logLevels[1:] {
		palette.Levels[level] = styles.LevelStyle(level).Bold(true)
	}
	palette.Levels["TRACE"] = styles.FaintText

	lines := logtail.Filter(m.logState.lines, m.logState.minLevel)
	rendered := make([]string, len(lines))
	for i, line := range lines {
		rendered[i] = logtail.Colorize(line, palette)
	}
	m.logViewport.SetContent(strings.Join(rendered, "\n"))
	if m.logState.follow {
		m.logViewport.GotoBottom()
	}
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logViewport.GotoBottom()
			return m, m.refreshLogs()
		}
		return m, nil
	case key.Matches(msg, m.keys.CycleLevel):
		m.logState.minLevel = nextLevel(m.logState.minLevel)
		m.prefs.LogLevel = m.logState.minLevel
		m.savePrefs()
		m.renderLogViewport()
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.logState.follow = false
		m.logViewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		return m, nil
	case key.Matches(msg, m.keys.HalfPageDown):
		m.logViewport.HalfPageDown()
		return m, nil
	case key.Matches(msg, m.keys.HalfPageUp):
		m.logState.follow = false
		m.logViewport.HalfPageUp()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.logState.follow = false
		m.logViewport.ScrollUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
		return m, nil
	}
	return m, nil
}

func nextLevel(current string) string {
	for i, level := range logLevels {
		if level == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return logLevels[0]
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	height := m.contentHeight()

	var content string
	switch {
	case m.logPath == "":
		content = styles.MutedText.Render("No log file configured")
	case m.logState.err != nil:
		content = styles.DangerText.Render(fmt.Sprintf("Read %s: %v", m.logPath, m.logState.err))
	case len(m.logState.lines) == 0:
		content = styles.MutedText.Render("Log is empty")
	default:
		content = m.logViewport.View()
	}
	return m.renderTitledBox(m.logTitle(), content, m.width, height, true)
}

func (m Model) logTitle() string {
	parts := []string{"Log"}
	if m.logState.minLevel != "" {
		parts = append(parts, "≥ "+m.logState.minLevel)
	}
	if m.logState.follow {
		parts = append(parts, "following")
	} else {
		parts = append(parts, "paused")
	}
	return strings.Join(parts, " · ")
}
