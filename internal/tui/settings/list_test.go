package settings

import (
	"slices"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Paintersrp/rgpanel/internal/config"
)

func newTestModel(t *testing.T) (ListModel, *config.Config) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfg := config.Default()
	m := NewListModel(cfg)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 60})
	return updated.(ListModel), cfg
}

func selectKey(t *testing.T, m ListModel, key string) ListModel {
	t.Helper()
	idx := slices.Index(config.Keys(), key)
	if idx < 0 {
		t.Fatalf("unknown key %q", key)
	}
	m.list.Select(idx)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(ListModel)
}

func TestEditTextSetting(t *testing.T) {
	m, cfg := newTestModel(t)
	m = selectKey(t, m, "ripgrep.path")
	if m.mode != typing {
		t.Fatalf("mode = %v, want typing", m.mode)
	}
	if m.input.Value() != "rg" {
		t.Fatalf("input prefilled with %q, want rg", m.input.Value())
	}

	m.input.SetValue("/usr/local/bin/rg")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(ListModel)

	if m.mode != browsing || m.err != nil {
		t.Fatalf("mode = %v err = %v", m.mode, m.err)
	}
	if cfg.Ripgrep.Path != "/usr/local/bin/rg" {
		t.Fatalf("ripgrep.path = %q", cfg.Ripgrep.Path)
	}
	item := m.list.SelectedItem().(ListItem)
	if item.value != "/usr/local/bin/rg" {
		t.Fatalf("list item not refreshed: %#v", item)
	}
}

func TestInvalidValueKeepsSetting(t *testing.T) {
	m, cfg := newTestModel(t)
	m = selectKey(t, m, "watch.debounce")
	m.input.SetValue("soon")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(ListModel)

	if m.err == nil {
		t.Fatalf("expected an error for an invalid duration")
	}
	if got, _ := cfg.Get("watch.debounce"); got != "300ms" {
		t.Fatalf("watch.debounce changed to %q", got)
	}
}

func TestEscapeCancelsEdit(t *testing.T) {
	m, cfg := newTestModel(t)
	m = selectKey(t, m, "editor.exec")
	m.input.SetValue("code")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(ListModel)

	if m.mode != browsing {
		t.Fatalf("mode = %v, want browsing", m.mode)
	}
	if cfg.Editor.Exec != "nvim" {
		t.Fatalf("editor.exec changed to %q", cfg.Editor.Exec)
	}
}

func TestChoiceSettingUsesSelection(t *testing.T) {
	m, cfg := newTestModel(t)
	m = selectKey(t, m, "search.use_regex")
	if m.mode != choosing || m.choice == nil {
		t.Fatalf("mode = %v, want choosing", m.mode)
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(ListModel)
	if m.mode != browsing {
		t.Fatalf("mode = %v, want browsing", m.mode)
	}
	if !cfg.Search.UseRegex {
		t.Fatalf("use_regex was not set to the first choice")
	}
}
