// Package ui provides the Bubble Tea terminal interface for roster.
//
// # Architecture Overview
//
// Model implements tea.Model. It never touches the store directly: it reads
// snapshots through the Controller on every tick and dispatches user intents
// (add, edit, delete, reload) as controller tasks. Each dispatched task is
// awaited in a tea.Cmd so its outcome lands back in Update as a message and
// shows up in the command bar; the controller itself stays fire-and-forget.
//
// # Package Structure
//
//   - app.go: Model, Options, message types and the Run entry point
//   - users.go: user list, detail pane and list navigation
//   - form.go: add/edit form and delete confirmation modals
//   - logs.go: tail of roster's own log file with level filter and follow mode
//   - header.go: title line and command bar
//   - help.go: help overlay generated from the key map
//   - keys.go: key bindings
//   - theme.go: color themes and lipgloss styles
//   - render.go: titled boxes and background-preserving text segments
//
// # Views
//
//   - Users (default): list of users; the detail pane appears on terminals at
//     least LayoutCompactWidth columns wide. Until the first list arrives the
//     pane shows a loading placeholder.
//   - Logs: the last LogTailLines lines of the log file, colorized by level.
//
// # Keyboard
//
//	j/k, g/G, ctrl+d/u   move selection or scroll
//	a / e, enter / d      add, edit, delete the selected user
//	r                     reload the list from the directory
//	l / u, esc            log view / user list
//	space / f             follow toggle, minimum level (log view)
//	T                     cycle theme (saved to prefs)
//	h, ?                  help
//	q, ctrl+c             quit
//
// # Preferences
//
// Theme, delete confirmation and the log view level live in prefs.Prefs and
// are written back whenever the operator changes them.
package ui
