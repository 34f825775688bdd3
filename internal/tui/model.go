// Package tui is the terminal task viewer.
//
// It drives the same workspace as the web UI: t switches between the
// training and test sets, m between one-at-a-time and show-all, the arrow
// keys page through examples, o opens a task file and e edits transform
// code that ctrl+s applies.
package tui

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/arcview/internal/transform"
	"github.com/leapstack-labs/arcview/internal/viewstate"
	"github.com/leapstack-labs/arcview/internal/workspace"
	"github.com/leapstack-labs/arcview/pkg/grid"
)

type mode int

const (
	modeView mode = iota
	modeBrowse
	modeEdit
)

// loadedMsg reports the outcome of opening a task file.
type loadedMsg struct {
	path string
	err  error
}

// appliedMsg reports the outcome of applying transform code.
type appliedMsg struct {
	results []transform.Result
	err     error
}

// Options configure the terminal viewer.
type Options struct {
	// StartDir is where the file picker opens; empty means the working directory.
	StartDir string
}

// Model is the bubbletea model of the viewer.
type Model struct {
	ctx  context.Context // bounds transform runs; Run sets the program context
	ws   *workspace.Workspace
	keys keyMap
	mode mode

	filepicker filepicker.Model
	viewport   viewport.Model
	editor     textarea.Model
	help       help.Model

	status    string
	statusErr bool
	width     int
	height    int
	ready     bool
}

// New creates the viewer model over ws.
func New(ws *workspace.Workspace, opts Options) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".json", ".yaml", ".yml"}
	fp.CurrentDirectory = opts.StartDir
	if fp.CurrentDirectory == "" {
		if wd, err := os.Getwd(); err == nil {
			fp.CurrentDirectory = wd
		}
	}
	fp.ShowHidden = false
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.AutoHeight = false
	fp.Height = 15
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFDC00")).Bold(true)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#0074D9")).Bold(true)
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC40"))
	fp.Styles.DisabledFile = lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))

	editor := textarea.New()
	editor.Placeholder = "def transform(grid):\n    return grid"
	editor.ShowLineNumbers = true
	editor.CharLimit = 64 << 10
	editor.SetWidth(80)
	editor.SetHeight(10)
	editor.SetValue(ws.Code())

	vp := viewport.New(80, 20)

	m := Model{
		ctx:        context.Background(),
		ws:         ws,
		keys:       defaultKeyMap(),
		filepicker: fp,
		viewport:   vp,
		editor:     editor,
		help:       help.New(),
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.ready = true

	case loadedMsg:
		if msg.err != nil {
			m.setError("Error loading " + msg.path + ": " + msg.err.Error())
		} else {
			m.setStatus("Loaded " + msg.path)
		}
		m.refresh()
		return m, nil

	case appliedMsg:
		m.reportApply(msg)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeBrowse:
			return m.updateBrowse(msg)
		case modeEdit:
			return m.updateEdit(msg)
		default:
			if quit, cmd := m.updateView(msg); quit || cmd != nil {
				return m, cmd
			}
		}
	}

	// The file picker reads directories asynchronously; pass it every
	// non-key message so it can process the results.
	if _, isKey := msg.(tea.KeyMsg); !isKey {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.mode == modeView {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// updateView handles keys while browsing examples. It reports whether the
// key was fully handled, along with any command to run.
func (m *Model) updateView(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return true, tea.Quit

	case key.Matches(msg, m.keys.ToggleSet):
		m.ws.ToggleActiveSet()
		m.setStatus("")

	case key.Matches(msg, m.keys.ToggleMode):
		if err := m.ws.ToggleDisplayMode(); errors.Is(err, viewstate.ErrDisplayModeLocked) {
			m.setError("Display mode is locked: test examples are always shown together.")
		} else {
			m.setStatus("")
		}

	case key.Matches(msg, m.keys.Prev):
		m.ws.Previous()

	case key.Matches(msg, m.keys.Next):
		m.ws.Next()

	case key.Matches(msg, m.keys.Open):
		m.mode = modeBrowse
		m.setStatus("Choose a task file (esc to cancel)")
		return true, m.filepicker.Init()

	case key.Matches(msg, m.keys.Edit):
		m.mode = modeEdit
		m.setStatus("Editing transform code: ctrl+s applies, esc returns")
		return true, m.editor.Focus()

	case key.Matches(msg, m.keys.Apply):
		return true, m.applyCmd()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()

	default:
		return false, nil
	}

	m.refresh()
	return true, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.mode = modeView
		m.setStatus("")
		return m, nil
	}

	var cmd tea.Cmd
	m.filepicker, cmd = m.filepicker.Update(msg)

	if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
		m.mode = modeView
		m.setStatus("Loading " + path + "...")
		return m, tea.Batch(cmd, m.loadCmd(path))
	}
	if didSelect, path := m.filepicker.DidSelectDisabledFile(msg); didSelect {
		m.setError(path + " is not a task file")
	}
	return m, cmd
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.editor.Blur()
		m.mode = modeView
		m.setStatus("")
		return m, nil
	case key.Matches(msg, m.keys.Apply):
		return m, m.applyCmd()
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) loadCmd(path string) tea.Cmd {
	ws := m.ws
	return func() tea.Msg {
		return loadedMsg{path: path, err: ws.LoadFile(path)}
	}
}

func (m Model) applyCmd() tea.Cmd {
	ctx, ws := m.ctx, m.ws
	code := m.editor.Value()
	return func() tea.Msg {
		results, err := ws.Apply(ctx, code)
		return appliedMsg{results: results, err: err}
	}
}

func (m *Model) reportApply(msg appliedMsg) {
	if msg.err != nil {
		m.setError(msg.err.Error())
		return
	}
	solved, checked := transform.Summary(msg.results)
	failed := 0
	for _, r := range msg.results {
		if r.Err != nil {
			failed++
		}
	}
	status := "Applied to " + strconv.Itoa(len(msg.results)) + " examples"
	if checked > 0 {
		status += ", solved " + strconv.Itoa(solved) + " of " + strconv.Itoa(checked)
	}
	if failed > 0 {
		m.setError(status + ", " + strconv.Itoa(failed) + " failed")
		return
	}
	m.setStatus(status)
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(s string) {
	m.status, m.statusErr = s, true
}

// refresh re-renders the examples into the viewport.
func (m *Model) refresh() {
	m.viewport.SetContent(renderExamples(m.ws.View()))
}

// resize fits the viewport between the header and the footer.
func (m *Model) resize() {
	if m.width == 0 {
		return
	}
	footer := lipgloss.Height(m.footerView())
	header := lipgloss.Height(m.headerView())
	height := max(m.height-header-footer, 3)

	m.viewport.Width = m.width
	m.viewport.Height = height
	m.filepicker.Height = height
	m.editor.SetWidth(max(m.width-2, 20))
	m.help.Width = m.width
}

// View implements tea.Model.
func (m Model) View() string {
	var body string
	switch m.mode {
	case modeBrowse:
		body = m.filepicker.View()
	case modeEdit:
		body = m.editor.View()
	default:
		body = m.viewport.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), body, m.footerView())
}

func (m Model) headerView() string {
	v := m.ws.View()

	name := v.Name
	if name == "" {
		name = "no task loaded"
	}
	title := titleStyle.Render("arcview") + " " + mutedStyle.Render(name)

	setName := "Training"
	if v.State.ActiveSet == grid.SetTest {
		setName = "Test"
	}
	line := headingStyle.Render(setName+" Examples") + " " + mutedStyle.Render("("+strconv.Itoa(v.ActiveCount)+")")
	if v.State.DisplayMode == viewstate.ModeSingle && v.ActiveCount > 0 {
		line += "  Example " + strconv.Itoa(v.State.CurrentIndex+1) + " of " + strconv.Itoa(v.ActiveCount)
	} else {
		line += "  showing all"
	}
	if v.State.ModeLocked {
		line += mutedStyle.Render(" (locked)")
	}
	return title + "\n" + line
}

func (m Model) footerView() string {
	var b strings.Builder
	if m.status != "" {
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(successStyle.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(renderLegend())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Run starts the viewer and blocks until the user quits or ctx ends.
func Run(ctx context.Context, ws *workspace.Workspace, opts Options) error {
	m := New(ws, opts)
	m.ctx = ctx
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
