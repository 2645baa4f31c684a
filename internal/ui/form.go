package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type formMode int

const (
	formAdd formMode = iota
	formEdit
)

// submitFormMsg carries a validated form to the model.
type submitFormMsg struct {
	mode  formMode
	id    int
	name  string
	email string
}

// userForm edits the two fields the directory lets us set.
type userForm struct {
	mode   formMode
	userID int
	inputs [2]textinput.Model // name, email
	focus  int
	err    string
}

func newUserForm(mode formMode, id int, name, email string) userForm {
	f := userForm{mode: mode, userID: id}
	for i, placeholder := range []string{"Full name", "name@example.com"} {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = 120
		in.Width = 40
		f.inputs[i] = in
	}
	f.inputs[0].SetValue(name)
	f.inputs[1].SetValue(email)
	for i := range f.inputs {
		f.inputs[i].CursorEnd()
	}
	f.inputs[0].Focus()
	return f
}

func (f userForm) title() string {
	if f.mode == formEdit {
		return fmt.Sprintf("Edit user #%d", f.userID)
	}
	return "Add user"
}

// Update implements Modal.
func (f userForm) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
		return f, cmd, false
	}

	switch {
	case key.Matches(keyMsg, keys.Escape):
		return f, nil, true
	case key.Matches(keyMsg, keys.NextField):
		f.setFocus(f.focus + 1)
		return f, nil, false
	case key.Matches(keyMsg, keys.PrevField):
		f.setFocus(f.focus - 1)
		return f, nil, false
	case key.Matches(keyMsg, keys.Confirm):
		name := strings.TrimSpace(f.inputs[0].Value())
		email := strings.TrimSpace(f.inputs[1].Value())
		if name == "" {
			f.err = "name is required"
			f.setFocus(0)
			return f, nil, false
		}
		submit := submitFormMsg{mode: f.mode, id: f.userID, name: name, email: email}
		return f, func() tea.Msg { return submit }, true
	}

	f.err = ""
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd, false
}

func (f *userForm) setFocus(i int) {
	n := len(f.inputs)
	i = ((i % n) + n) % n
	f.inputs[f.focus].Blur()
	f.focus = i
	f.inputs[i].Focus()
}

// View implements Modal.
func (f userForm) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	labels := []string{"Name", "Email"}

	var b strings.Builder
	for i, in := range f.inputs {
		label := styles.MutedText
		if i == f.focus {
			label = styles.AccentText
		}
		b.WriteString(label.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n\n")
	}
	if f.err != "" {
		b.WriteString(styles.DangerText.Render(f.err))
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render("enter save · tab next field · esc cancel"))
	return renderModal(theme, f.title(), b.String(), width, height, 52)
}

// confirmDeleteMsg is sent when the operator confirms a delete.
type confirmDeleteMsg struct {
	id int
}

// confirmDelete asks before deleting a user.
type confirmDelete struct {
	id   int
	name string
}

// Update implements Modal.
func (c confirmDelete) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case key.Matches(keyMsg, keys.Yes):
		id := c.id
		return c, func() tea.Msg { return confirmDeleteMsg{id: id} }, true
	case key.Matches(keyMsg, keys.No):
		return c, nil, true
	}
	return c, nil, false
}

// View implements Modal.
func (c confirmDelete) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	body := styles.Text.Render(fmt.Sprintf("Delete #%d %s?", c.id, c.name)) + "\n\n" +
		styles.FaintText.Render("y delete · n cancel")
	return renderModal(theme, "Confirm delete", body, width, height, 44)
}
