package results

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	enter       key.Binding
	focus       key.Binding
	toggleWord  key.Binding
	toggleCase  key.Binding
	toggleRegex key.Binding
	refresh     key.Binding
	clear       key.Binding
	copy        key.Binding
	quit        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "search/open"),
		),
		focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "focus"),
		),
		toggleWord: key.NewBinding(
			key.WithKeys("alt+w"),
			key.WithHelp("alt+w", "whole word"),
		),
		toggleCase: key.NewBinding(
			key.WithKeys("alt+c"),
			key.WithHelp("alt+c", "case"),
		),
		toggleRegex: key.NewBinding(
			key.WithKeys("alt+r"),
			key.WithHelp("alt+r", "regex"),
		),
		refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh"),
		),
		clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear"),
		),
		copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy location"),
		),
		quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.focus, k.toggleWord, k.toggleCase, k.toggleRegex, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.enter, k.focus, k.refresh, k.clear, k.copy},
		{k.toggleWord, k.toggleCase, k.toggleRegex, k.quit},
	}
}
