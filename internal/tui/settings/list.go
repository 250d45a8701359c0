package settings

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/erikgeiser/promptkit/selection"

	"github.com/Paintersrp/rgpanel/internal/config"
)

type ListItem struct {
	key   string
	value string
}

func (i ListItem) Title() string       { return i.key }
func (i ListItem) Description() string { return i.value }
func (i ListItem) FilterValue() string { return i.key }

type listKeyMap struct {
	toggleHelpMenu key.Binding
	edit           key.Binding
	exitInputMode  key.Binding
	quit           key.Binding
}

func newListKeyMap() *listKeyMap {
	return &listKeyMap{
		toggleHelpMenu: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "toggle help"),
		),
		edit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "edit setting"),
		),
		exitInputMode: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel edit"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

type mode int

const (
	browsing mode = iota
	typing
	choosing
)

// ListModel edits settings one key at a time. Keys with a fixed set of
// values use a selection prompt, the rest a text input. Each change is
// validated and saved immediately.
type ListModel struct {
	list    list.Model
	keys    *listKeyMap
	config  *config.Config
	input   textinput.Model
	choice  *selection.Model[string]
	mode    mode
	editing string
	err     error
}

func NewListModel(cfg *config.Config) ListModel {
	keys := newListKeyMap()

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedItemStyle
	delegate.Styles.SelectedDesc = selectedItemStyle

	l := list.New(items(cfg), delegate, 0, 0)
	l.Title = "Configuration"
	l.Styles.Title = titleStyle
	l.DisableQuitKeybindings()
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.edit, keys.toggleHelpMenu, keys.quit}
	}

	input := textinput.New()
	input.Cursor.Style = cursorStyle
	input.PromptStyle = focusedStyle
	input.TextStyle = focusedStyle

	return ListModel{
		list:   l,
		keys:   keys,
		config: cfg,
		input:  input,
	}
}

func items(cfg *config.Config) []list.Item {
	var out []list.Item
	for _, k := range config.Keys() {
		v, _ := cfg.Get(k)
		out = append(out, ListItem{key: k, value: v})
	}
	return out
}

func (m ListModel) Init() tea.Cmd {
	return nil
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := appStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case typing:
			return m.updateInput(msg)
		case choosing:
			return m.updateChoice(msg)
		}

		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.toggleHelpMenu):
			m.list.SetShowHelp(!m.list.ShowHelp())
			return m, nil
		case key.Matches(msg, m.keys.edit):
			return m.startEdit()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m ListModel) startEdit() (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(ListItem)
	if !ok {
		return m, nil
	}
	m.editing = item.key
	m.err = nil

	if choices := config.Choices(item.key); choices != nil {
		sel := selection.New("Select a value for "+item.key, choices)
		sel.Filter = nil
		m.choice = selection.NewModel(sel)
		m.mode = choosing
		return m, m.choice.Init()
	}

	m.input.SetValue(item.value)
	m.input.CursorEnd()
	m.mode = typing
	return m, m.input.Focus()
}

func (m ListModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.exitInputMode):
		m.input.Blur()
		m.mode = browsing
		return m, nil
	case key.Matches(msg, m.keys.edit):
		m.input.Blur()
		return m.save(m.input.Value())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m ListModel) updateChoice(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.exitInputMode):
		m.mode = browsing
		return m, nil
	case key.Matches(msg, m.keys.edit):
		value, err := m.choice.Value()
		if err != nil {
			return m, nil
		}
		return m.save(value)
	}

	_, cmd := m.choice.Update(msg)
	return m, cmd
}

// save applies value to the key being edited. A rejected value keeps the
// old setting and is reported in the status bar.
func (m ListModel) save(value string) (tea.Model, tea.Cmd) {
	m.mode = browsing
	if err := m.config.Set(m.editing, value); err != nil {
		m.err = err
		return m, m.list.NewStatusMessage(errorStyle(err.Error()))
	}

	current, _ := m.config.Get(m.editing)
	m.list.SetItem(m.list.Index(), ListItem{key: m.editing, value: current})
	return m, m.list.NewStatusMessage(statusMessageStyle("Updated and Saved: " + m.editing))
}

func (m ListModel) View() string {
	switch m.mode {
	case typing:
		return appStyle.Render(inputStyle.Render(
			textStyle.Render("Editing: "+m.editing) + "\n" + m.input.View(),
		))
	case choosing:
		return appStyle.Render(m.choice.View())
	}
	return appStyle.Render(m.list.View())
}

func Run(c *config.Config) error {
	_, err := tea.NewProgram(NewListModel(c), tea.WithAltScreen()).Run()
	return err
}
