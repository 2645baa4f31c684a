package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/roster/internal/controller"
	"github.com/five82/roster/internal/directory"
)

// handleUsersKey processes keyboard input for the user list.
func (m Model) handleUsersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Users)
	half := max(m.listRows()/2, 1)

	if key.Matches(msg, m.keys.Add) {
		m.modal = newUserForm(formAdd, 0, "", "")
		return m, nil
	}

	if count == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.selectedRow = clamp(m.selectedRow+1, 0, count-1)
	case key.Matches(msg, m.keys.Up):
		m.selectedRow = clamp(m.selectedRow-1, 0, count-1)
	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = count - 1
	case key.Matches(msg, m.keys.HalfPageDown):
		m.selectedRow = clamp(m.selectedRow+half, 0, count-1)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.selectedRow = clamp(m.selectedRow-half, 0, count-1)

	case key.Matches(msg, m.keys.Edit):
		if u, ok := m.selectedUser(); ok {
			m.modal = newUserForm(formEdit, u.ID, u.Name, u.Email)
		}
	case key.Matches(msg, m.keys.Delete):
		u, ok := m.selectedUser()
		if !ok {
			return m, nil
		}
		if m.prefs.ConfirmDelete {
			m.modal = confirmDelete{id: u.ID, name: u.Name}
			return m, nil
		}
		return m.dispatch(m.ctl.DeleteUser(u.ID))
	}
	return m, nil
}

// contentHeight is the space below the header and command bar.
func (m Model) contentHeight() int {
	return max(m.height-2, 3)
}

// listRows is how many users fit in the list box.
func (m Model) listRows() int {
	return max(m.contentHeight()-3, 1) // borders + column header
}

// renderUsers renders the user list and, on wide terminals, the detail pane.
func (m Model) renderUsers() string {
	styles := m.theme.Styles()
	height := m.contentHeight()

	if m.snapshot.Loading() {
		msg := styles.MutedText.Render("Loading users…")
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, msg)
	}

	listWidth := m.width
	showDetail := m.width >= LayoutCompactWidth
	if showDetail {
		listWidth = m.width * 60 / 100
	}

	title := fmt.Sprintf("Users (%d)", len(m.snapshot.Users))
	list := m.renderTitledBox(title, m.renderUserTable(listWidth-2), listWidth, height, true)
	if !showDetail {
		return list
	}

	detailWidth := m.width - listWidth
	var detail string
	if u, ok := m.selectedUser(); ok {
		detail = m.renderUserDetail(u, detailWidth-4)
	} else {
		detail = styles.MutedText.Render("Select a user")
	}
	pane := m.renderTitledBox("Details", detail, detailWidth, height, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, list, pane)
}

type tableLayout struct {
	id, name, email, company int
}

func (m Model) tableLayout(width int) tableLayout {
	l := tableLayout{id: 5}
	rest := width - l.id - 2
	if m.width >= LayoutWideWidth {
		l.company = rest / 4
		rest -= l.company + 1
	}
	l.name = rest * 45 / 100
	l.email = rest - l.name - 1
	return l
}

func (l tableLayout) row(id, name, email, company string) string {
	cells := []string{column(id, l.id), column(name, l.name), column(email, l.email)}
	if l.company > 0 {
		cells = append(cells, column(company, l.company))
	}
	return " " + strings.Join(cells, " ")
}

// renderUserTable renders the visible window of users as styled rows.
func (m Model) renderUserTable(width int) string {
	users := m.snapshot.Users
	layout := m.tableLayout(width)
	rows := m.listRows()
	offset := 0
	if m.selectedRow >= rows {
		offset = m.selectedRow - rows + 1
	}

	bgColor := m.theme.FocusBg
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Muted)).
		Background(lipgloss.Color(bgColor)).
		Bold(true).
		Width(width).
		Render(layout.row("ID", "Name", "Email", "Company"))

	lines := []string{header}
	for i := offset; i < len(users) && i < offset+rows; i++ {
		u := users[i]
		content := layout.row(fmt.Sprintf("#%d", u.ID), u.Name, u.Email, u.Company.Name)
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.Text)).
			Background(lipgloss.Color(bgColor)).
			Width(width)
		if i == m.selectedRow {
			style = style.
				Foreground(lipgloss.Color(m.theme.SelectionText)).
				Background(lipgloss.Color(m.theme.SelectionBg))
		}
		lines = append(lines, style.Render(content))
	}
	return strings.Join(lines, "\n")
}

// renderUserDetail lists every field of u, including the ones this client
// never edits.
func (m Model) renderUserDetail(u directory.User, width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	labelWidth := 10

	type field struct{ label, value string }
	addr := u.Address
	street := strings.TrimSpace(strings.Join([]string{addr.Street, addr.Suite}, " "))
	city := strings.TrimSpace(strings.Join([]string{addr.City, addr.Zipcode}, " "))
	fields := []field{
		{"Name", u.Name},
		{"Username", u.Username},
		{"Email", u.Email},
		{"Phone", u.Phone},
		{"Website", u.Website},
		{"", ""},
		{"Street", street},
		{"City", city},
		{"Geo", fmt.Sprintf("%.4f, %.4f", addr.Geo.Lat.Float(), addr.Geo.Lng.Float())},
		{"", ""},
		{"Company", u.Company.Name},
		{"Motto", u.Company.CatchPhrase},
		{"Business", u.Company.BS},
	}
	if extras := u.Extras(); len(extras) > 0 {
		fields = append(fields, field{"", ""})
		for _, name := range slices.Sorted(maps.Keys(extras)) {
			fields = append(fields, field{name, compactJSON(extras[name])})
		}
	}

	valueWidth := max(width-labelWidth-1, 1)
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.label == "" {
			lines = append(lines, "")
			continue
		}
		value := f.value
		style := styles.Text
		if strings.TrimSpace(value) == "" {
			value, style = "—", styles.FaintText
		}
		lines = append(lines,
			styles.MutedText.Render(padRight(f.label, labelWidth))+" "+style.Render(truncate(value, valueWidth)))
	}
	return strings.Join(lines, "\n")
}

// compactJSON renders an unknown field on one line.
func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// describeResult turns a task result into a short status line.
func describeResult(res controller.Result) string {
	subject := string(res.Op)
	if res.UserID != 0 {
		subject = fmt.Sprintf("%s #%d", res.Op, res.UserID)
	}
	switch res.Outcome {
	case controller.Applied:
		return subject + " done"
	case controller.Rejected:
		return fmt.Sprintf("%s rejected (HTTP %d)", subject, res.Status)
	default:
		if res.Err != nil {
			return fmt.Sprintf("%s failed: %v", subject, res.Err)
		}
		return subject + " failed"
	}
}
