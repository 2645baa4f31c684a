package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/roster/internal/controller"
	"github.com/five82/roster/internal/directory"
	"github.com/five82/roster/internal/prefs"
	"github.com/five82/roster/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewUsers View = iota
	ViewLogs
)

// Controller is what the UI needs from the synchronization controller.
type Controller interface {
	Snapshot() state.Snapshot
	LoadAll() *controller.Task
	AddUser(name, email string) *controller.Task
	UpdateUser(id int, name, email string) *controller.Task
	DeleteUser(id int) *controller.Task
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Controller Controller
	Logger     logrus.FieldLogger
	LogPath    string
	Prefs      prefs.Prefs
	PrefsPath  string
	APIBase    string
	Tick       time.Duration
}

// statusLine is the outcome of the most recent operation.
type statusLine struct {
	text    string
	outcome controller.Outcome
	at      time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	ctl       Controller
	logger    logrus.FieldLogger
	logPath   string
	prefs     prefs.Prefs
	prefsPath string
	apiBase   string
	tick      time.Duration
	keys      keyMap
	now       func() time.Time

	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool

	snapshot    state.Snapshot
	selectedRow int

	modal    Modal
	showHelp bool

	pending int
	status  statusLine

	logViewport viewport.Model
	logState    logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}
	logger := opts.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return Model{
		ctx:         ctx,
		ctl:         opts.Controller,
		logger:      logger.WithField("component", "ui"),
		logPath:     opts.LogPath,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		apiBase:     opts.APIBase,
		tick:        tick,
		keys:        DefaultKeyMap(),
		now:         time.Now,
		theme:       GetTheme(opts.Prefs.Theme),
		currentView: ViewUsers,
		logState:    logState{follow: true, minLevel: opts.Prefs.LogLevel},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.ctl != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.ctl))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.logViewport = viewport.New(0, 0)
		}
		m.ready = true
		m.resizeLogViewport()
		m.renderLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(state.Snapshot(msg))
		return m, nil

	case taskDoneMsg:
		return m.handleTaskDone(controller.Result(msg))

	case submitFormMsg:
		return m.handleSubmit(msg)

	case confirmDeleteMsg:
		return m.dispatch(m.ctl.DeleteUser(msg.id))

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil
	}

	if m.modal != nil {
		var cmd tea.Cmd
		var closed bool
		m.modal, cmd, closed = m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		}
		return m, cmd
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
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderUsers())
	}
	return b.String()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		var cmd tea.Cmd
		var closed bool
		m.modal, cmd, closed = m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.renderLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.ViewUsers):
		m.currentView = ViewUsers
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, m.refreshLogs()

	case key.Matches(msg, m.keys.Reload):
		return m.dispatch(m.ctl.LoadAll())
	}

	switch m.currentView {
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleUsersKey(msg)
	}
}

// handleTick re-reads the store and, when following, the log file.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.ctl != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.ctl))
	}
	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if !m.status.at.IsZero() && m.now().Sub(m.status.at) > StatusTTL {
		m.status = statusLine{}
	}
	return m, tea.Batch(cmds...)
}

// dispatch tracks a controller task and reports its result back to Update.
func (m Model) dispatch(task *controller.Task) (tea.Model, tea.Cmd) {
	m.pending++
	ctx := m.ctx
	return m, func() tea.Msg {
		res, err := task.Wait(ctx)
		if err != nil {
			res.Outcome, res.Err = controller.Failed, err
		}
		return taskDoneMsg(res)
	}
}

func (m Model) handleTaskDone(res controller.Result) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}
	m.status = statusLine{text: describeResult(res), outcome: res.Outcome, at: m.now()}
	if res.OK() {
		m.applySnapshot(res.Snapshot)
	}
	return m, nil
}

func (m Model) handleSubmit(msg submitFormMsg) (tea.Model, tea.Cmd) {
	if msg.mode == formEdit {
		return m.dispatch(m.ctl.UpdateUser(msg.id, msg.name, msg.email))
	}
	return m.dispatch(m.ctl.AddUser(msg.name, msg.email))
}

// applySnapshot installs a newer snapshot, keeping the selected user by id.
func (m *Model) applySnapshot(snap state.Snapshot) {
	if snap.Version < m.snapshot.Version {
		return
	}
	selectedID := 0
	if u, ok := m.selectedUser(); ok {
		selectedID = u.ID
	}
	m.snapshot = snap
	if selectedID != 0 {
		for i, u := range snap.Users {
			if u.ID == selectedID {
				m.selectedRow = i
				return
			}
		}
	}
	m.selectedRow = clamp(m.selectedRow, 0, len(snap.Users)-1)
}

func (m Model) selectedUser() (directory.User, bool) {
	users := m.snapshot.Users
	if m.selectedRow < 0 || m.selectedRow >= len(users) {
		return directory.User{}, false
	}
	return users[m.selectedRow], true
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.WithError(err).Warn("save preferences")
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type taskDoneMsg controller.Result

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(ctl Controller) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(ctl.Snapshot())
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
