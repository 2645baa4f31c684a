package ui

import (
	"fmt"
	"strings"

	"github.com/five82/roster/internal/controller"
)

// renderHeader renders the title line: logo, list summary, endpoint and
// in-flight count.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)
	sep := bg.Render(" · ", styles.FaintText)

	segments := []string{bg.Render("roster", styles.Logo)}
	if m.snapshot.Loading() {
		segments = append(segments, bg.Render("loading", styles.WarningText))
	} else {
		segments = append(segments, bg.Render(fmt.Sprintf("%d users", len(m.snapshot.Users)), styles.Text))
	}
	if m.pending > 0 {
		segments = append(segments, bg.Render(fmt.Sprintf("%d in flight", m.pending), styles.InfoText))
	}
	if !m.snapshot.UpdatedAt.IsZero() {
		segments = append(segments, bg.Render("updated "+m.snapshot.UpdatedAt.Format("15:04:05"), styles.MutedText))
	}
	if m.apiBase != "" && m.width >= LayoutCompactWidth {
		segments = append(segments, bg.Render(truncate(m.apiBase, 48), styles.FaintText))
	}
	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}

// renderCommandBar renders the key hints for the current view followed by
// the last operation outcome.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := newBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd
	switch m.currentView {
	case ViewLogs:
		follow := "Pause"
		if !m.logState.follow {
			follow = "Follow"
		}
		level := m.logState.minLevel
		if level == "" {
			level = "All"
		}
		commands = []cmd{
			{"Space", follow},
			{"f", level},
			{"j/k", "Scroll"},
			{"u", "Users"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"a", "Add"},
			{"e", "Edit"},
			{"d", "Delete"},
			{"r", "Reload"},
			{"l", "Logs"},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments, bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments, bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	if m.status.text != "" {
		style := styles.DangerText
		switch m.status.outcome {
		case controller.Applied:
			style = styles.SuccessText
		case controller.Rejected:
			style = styles.WarningText
		}
		segments = append(segments, bg.Render(truncate(m.status.text, 60), style))
	}

	return styles.Header.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}
