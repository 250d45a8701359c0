package results

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Paintersrp/rgpanel/internal/config"
	"github.com/Paintersrp/rgpanel/internal/jump"
	"github.com/Paintersrp/rgpanel/internal/search"
	"github.com/Paintersrp/rgpanel/internal/state"
)

var writeClipboard = clipboard.WriteAll

type editorFinishedMsg struct {
	err error
}

type Model struct {
	session *search.Session
	queue   *Queue
	watcher *state.ProjectWatcher
	editor  config.CommandTemplate
	scope   search.Scope
	project string

	input   textinput.Model
	list    list.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	opts        search.Options
	run         search.RunID
	running     bool
	current     int
	matches     int
	diagnostics int
	status      string
	failed      bool
	width       int
	height      int
}

type params struct {
	session *search.Session
	queue   *Queue
	watcher *state.ProjectWatcher
	editor  config.CommandTemplate
	scope   search.Scope
	project string
	opts    search.Options
	term    string
}

// NewModel builds the results panel for dir. The panel owns a search session
// and, when watching is enabled, a project watcher that re-runs the last
// search after files change.
func NewModel(s *state.State, dir, term string) (*Model, error) {
	if s == nil || s.Config == nil {
		return nil, fmt.Errorf("results panel requires configured state dependencies")
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	scope := search.ResolveScope(dir, nil, nil)

	queue := NewQueue()
	session := s.NewSession(dir, queue.Push)

	watcher, err := s.NewWatcher(dir)
	if err != nil {
		s.Logger().Warn("auto-refresh disabled", "dir", dir, "err", err)
		watcher = nil
	}

	return newModel(params{
		session: session,
		queue:   queue,
		watcher: watcher,
		editor:  s.Config.Editor,
		scope:   scope,
		project: dir,
		opts:    s.Config.SearchOptions(),
		term:    term,
	}), nil
}

func newModel(p params) *Model {
	ti := textinput.New()
	ti.Placeholder = "Search term"
	ti.Prompt = "rg › "
	ti.PromptStyle = focusedStyle
	ti.TextStyle = focusedStyle
	ti.SetValue(p.term)
	ti.Focus()

	delegate := list.NewDefaultDelegate()
	lm := list.New(nil, delegate, 0, 0)
	lm.Title = "Results"
	lm.SetShowHelp(false)
	lm.SetFilteringEnabled(false)
	lm.DisableQuitKeybindings()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = focusedStyle

	return &Model{
		session: p.session,
		queue:   p.queue,
		watcher: p.watcher,
		editor:  p.editor,
		scope:   p.scope,
		project: p.project,
		input:   ti,
		list:    lm,
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
		opts:    p.opts.Clone(),
		current: -1,
		status:  search.StatusReady,
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.queue.Next()}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.Start())
	}
	if strings.TrimSpace(m.input.Value()) != "" {
		cmds = append(cmds, m.startSearch())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h, v := appStyle.GetFrameSize()
		m.input.Width = msg.Width - h - 8
		m.list.SetSize(msg.Width-h, max(msg.Height-v-6, 3))
		return m, nil

	case NotificationsMsg:
		cmd := m.apply(msg.Notifications)
		return m, tea.Batch(cmd, m.queue.Next())

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case state.ProjectChangedMsg:
		var cmd tea.Cmd
		if !m.running && m.session.Request().Term != "" {
			cmd = m.restart()
		}
		return m, tea.Batch(cmd, m.watcher.Start())

	case state.ProjectWatcherErrMsg:
		m.setError(fmt.Errorf("watch failed: %w", msg.Err))
		return m, m.watcher.Start()

	case editorFinishedMsg:
		if msg.err != nil {
			m.setError(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, m.quit()
		case key.Matches(msg, m.keys.toggleWord):
			m.opts.WholeWord = !m.opts.WholeWord
			return m, m.optionsChanged()
		case key.Matches(msg, m.keys.toggleCase):
			m.opts.CaseSensitive = !m.opts.CaseSensitive
			return m, m.optionsChanged()
		case key.Matches(msg, m.keys.toggleRegex):
			m.opts.UseRegex = !m.opts.UseRegex
			return m, m.optionsChanged()
		case key.Matches(msg, m.keys.refresh):
			return m, m.restart()
		case key.Matches(msg, m.keys.clear):
			m.clear()
			return m, nil
		case key.Matches(msg, m.keys.copy):
			m.copySelected()
			return m, nil
		case key.Matches(msg, m.keys.focus):
			m.toggleFocus()
			return m, nil
		case key.Matches(msg, m.keys.enter):
			if m.input.Focused() {
				return m, m.startSearch()
			}
			return m, m.jumpSelected()
		}
	}

	var cmd tea.Cmd
	if m.input.Focused() {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *Model) View() string {
	header := lipgloss.JoinHorizontal(
		lipgloss.Center,
		titleStyle.Render("rgpanel"),
		" ",
		m.toggles(),
	)

	inputView := m.input.View()
	if !m.input.Focused() {
		inputView = blurredStyle.Render(inputView)
	}

	status := m.status
	if m.running {
		status = m.spinner.View() + " " + status
	}
	if m.diagnostics > 0 {
		status += fmt.Sprintf(" (%d skipped)", m.diagnostics)
	}
	if m.failed {
		status = errorStyle.Render(status)
	} else {
		status = statusStyle.Render(status)
	}

	return appStyle.Render(strings.Join([]string{
		header,
		inputView,
		m.list.View(),
		status,
		m.help.View(m.keys),
	}, "\n"))
}

func (m *Model) toggles() string {
	render := func(label string, on bool) string {
		if on {
			return toggleOnStyle.Render(label)
		}
		return toggleOffStyle.Render(label)
	}
	return strings.Join([]string{
		render("[w]ord", m.opts.WholeWord),
		render("[c]ase", m.opts.CaseSensitive),
		render("[r]egex", m.opts.UseRegex),
	}, " ")
}

// startSearch runs the term in the input against the panel scope,
// replacing any search in progress.
func (m *Model) startSearch() tea.Cmd {
	req := search.Request{Term: m.input.Value(), Scope: m.scope}
	run, err := m.session.Start(context.Background(), req, m.opts)
	if err != nil {
		if errors.Is(err, search.ErrNothingToSearch) {
			m.status = search.StatusReady
			m.failed = false
			return nil
		}
		m.running = false
		m.setError(err)
		return nil
	}

	m.run = run.ID()
	m.resetResults()
	m.running = true
	m.failed = false
	m.status = search.StatusSearching
	return m.spinner.Tick
}

func (m *Model) restart() tea.Cmd {
	if m.input.Value() == "" {
		m.input.SetValue(m.session.Request().Term)
	}
	return m.startSearch()
}

func (m *Model) optionsChanged() tea.Cmd {
	if m.input.Value() == "" {
		return nil
	}
	return m.startSearch()
}

func (m *Model) clear() {
	if m.session.Cancel() {
		m.running = false
	}
	m.input.SetValue("")
	m.resetResults()
	m.failed = false
	m.status = search.StatusReady
}

func (m *Model) resetResults() {
	m.list.SetItems(nil)
	m.current = -1
	m.matches = 0
	m.diagnostics = 0
}

func (m *Model) quit() tea.Cmd {
	m.session.Cancel()
	m.queue.Close()
	if m.watcher != nil {
		m.watcher.Close()
	}
	return tea.Quit
}

func (m *Model) toggleFocus() {
	if m.input.Focused() {
		m.input.Blur()
		return
	}
	m.input.Focus()
}

// apply folds notifications of the current run into the list. Notifications
// from runs older than the current one are dropped.
func (m *Model) apply(batch []search.Notification) tea.Cmd {
	var cmds []tea.Cmd
	for _, n := range batch {
		if n.RunID() < m.run {
			continue
		}

		switch n := n.(type) {
		case search.SearchStarted:
			m.run = n.Run
		case search.FileStarted:
			cmds = append(cmds, m.list.InsertItem(len(m.list.Items()), newFileItem(n.File, m.project)))
			m.current = len(m.list.Items()) - 1
		case search.MatchAdded:
			cmds = append(cmds, m.addMatch(n.Match()))
		case search.Diagnostic:
			m.diagnostics++
		case search.SearchFinished:
			m.running = false
			m.status = search.FormatFinished(n.Stats)
			m.failed = n.Err != nil
			if n.Err != nil {
				m.status += " " + n.Err.Error()
			}
		case search.SearchCancelled:
			m.running = false
			m.status = "Search cancelled."
		case search.LaunchFailed:
			m.running = false
			m.setError(n.Err)
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) addMatch(match search.Match) tea.Cmd {
	m.matches++
	if m.current >= 0 {
		if file, ok := m.list.Items()[m.current].(fileItem); ok {
			file.count++
			m.list.SetItem(m.current, file)
		}
	}
	return m.list.InsertItem(len(m.list.Items()), matchItem{match: match})
}

func (m *Model) selectedLocation() (search.Location, bool) {
	item, ok := m.list.SelectedItem().(locatable)
	if !ok {
		return search.Location{}, false
	}
	return item.location(), true
}

func (m *Model) jumpSelected() tea.Cmd {
	loc, ok := m.selectedLocation()
	if !ok {
		return nil
	}

	cmd, wait, err := jump.Command(m.editor, loc, m.project)
	if err != nil {
		m.setError(err)
		return nil
	}

	m.status = "Opened " + loc.String()
	m.failed = false
	if wait {
		return tea.ExecProcess(cmd, func(err error) tea.Msg {
			return editorFinishedMsg{err: err}
		})
	}
	return func() tea.Msg {
		if err := cmd.Start(); err != nil {
			return editorFinishedMsg{err: err}
		}
		return editorFinishedMsg{err: cmd.Process.Release()}
	}
}

func (m *Model) copySelected() {
	loc, ok := m.selectedLocation()
	if !ok {
		return
	}
	if err := writeClipboard(loc.String()); err != nil {
		m.setError(fmt.Errorf("copy failed: %w", err))
		return
	}
	m.failed = false
	m.status = "Copied " + loc.String()
}

func (m *Model) setError(err error) {
	m.failed = true
	m.status = err.Error()
}
