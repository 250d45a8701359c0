package results

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Paintersrp/rgpanel/internal/search"
)

const fixture = `{"type":"begin","data":{"path":{"text":"a.txt"}}}
{"type":"match","data":{"path":{"text":"a.txt"},"lines":{"text":"foo bar"},"line_number":3,"submatches":[{"start":0,"end":3}]}}
{"type":"summary","data":{"stats":{"matches":1},"elapsed_total":{"nanos":5000000}}}
`

type staticProcess struct {
	out io.Reader
}

func (p staticProcess) Stdout() io.Reader  { return p.out }
func (p staticProcess) Stderr() io.Reader  { return strings.NewReader("") }
func (p staticProcess) Kill() error        { return nil }
func (p staticProcess) Wait() (int, error) { return 0, nil }

type staticLauncher struct {
	mu     sync.Mutex
	output string
	args   [][]string
}

func (l *staticLauncher) Launch(_ context.Context, _ string, args []string) (search.Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.args = append(l.args, args)
	return staticProcess{out: strings.NewReader(l.output)}, nil
}

func (l *staticLauncher) calls() [][]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.args)
}

func newTestModel(t *testing.T, output string) (*Model, *staticLauncher) {
	t.Helper()
	l := &staticLauncher{output: output}
	q := NewQueue()
	session := search.NewSession(l, search.WithListener(q.Push))
	t.Cleanup(func() { session.Close() })

	m := newModel(params{
		session: session,
		queue:   q,
		scope:   search.DirScope("."),
		project: ".",
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, l
}

// drain feeds queued notifications to the model until the current run ends.
func drain(t *testing.T, m *Model) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for m.running {
		msgs := make(chan tea.Msg, 1)
		go func() { msgs <- m.queue.Next()() }()
		select {
		case msg := <-msgs:
			m.Update(msg)
		case <-deadline:
			t.Fatalf("search did not finish, status %q", m.status)
		}
	}
}

func TestSearchPopulatesList(t *testing.T) {
	m, l := newTestModel(t, fixture)
	m.input.SetValue("foo")

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.running || m.status != search.StatusSearching {
		t.Fatalf("expected a running search, status %q", m.status)
	}
	drain(t, m)

	if got, want := m.status, "Found 1 result in 0.005000 seconds."; got != want {
		t.Fatalf("status = %q, want %q", got, want)
	}
	if len(l.calls()) != 1 {
		t.Fatalf("launched %d searches, want 1", len(l.calls()))
	}

	items := m.list.Items()
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	file, ok := items[0].(fileItem)
	if !ok || file.file != "a.txt" || file.count != 1 {
		t.Fatalf("first item = %#v", items[0])
	}
	match, ok := items[1].(matchItem)
	if !ok || match.match.LineNumber != 3 {
		t.Fatalf("second item = %#v", items[1])
	}
	if !strings.Contains(m.View(), "Found 1 result") {
		t.Fatalf("view is missing the status line")
	}
}

func TestEmptyTermDoesNotLaunch(t *testing.T) {
	m, l := newTestModel(t, fixture)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(l.calls()) != 0 {
		t.Fatalf("empty term launched a search")
	}
	if m.status != search.StatusReady || m.running {
		t.Fatalf("status = %q running = %v", m.status, m.running)
	}
}

func TestToggleRestartsSearch(t *testing.T) {
	m, l := newTestModel(t, fixture)
	m.input.SetValue("foo")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, m)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}, Alt: true})
	if !m.opts.WholeWord {
		t.Fatalf("alt+w did not toggle whole word")
	}
	drain(t, m)

	calls := l.calls()
	if len(calls) != 2 {
		t.Fatalf("launched %d searches, want 2", len(calls))
	}
	if !slices.Contains(calls[1], "--word-regexp") {
		t.Fatalf("restarted search missing --word-regexp: %q", calls[1])
	}
	if len(m.list.Items()) != 2 {
		t.Fatalf("results were not replaced, got %d items", len(m.list.Items()))
	}
}

func TestStaleNotificationsAreDropped(t *testing.T) {
	m, _ := newTestModel(t, fixture)
	m.run = 5

	m.apply([]search.Notification{
		search.FileStarted{Run: 4, File: "old.txt"},
		search.SearchFinished{Run: 4, Stats: search.Stats{MatchCount: 9}},
	})
	if len(m.list.Items()) != 0 {
		t.Fatalf("stale file was added")
	}
	if m.status != search.StatusReady {
		t.Fatalf("stale finish changed the status to %q", m.status)
	}
}

func TestCopyAndClear(t *testing.T) {
	var copied string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = s
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })

	m, _ := newTestModel(t, fixture)
	m.input.SetValue("foo")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, m)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.input.Focused() {
		t.Fatalf("tab should move focus to the list")
	}
	m.list.Select(1)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	if copied != "a.txt:3:1" {
		t.Fatalf("copied %q, want a.txt:3:1", copied)
	}
	if m.status != "Copied a.txt:3:1" {
		t.Fatalf("status = %q", m.status)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if len(m.list.Items()) != 0 || m.input.Value() != "" {
		t.Fatalf("clear left %d items and term %q", len(m.list.Items()), m.input.Value())
	}
	if m.status != search.StatusReady {
		t.Fatalf("status after clear = %q", m.status)
	}
}

func TestRefreshRerunsLastRequest(t *testing.T) {
	m, l := newTestModel(t, fixture)
	m.input.SetValue("foo")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, m)

	m.input.SetValue("")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	drain(t, m)

	if m.input.Value() != "foo" {
		t.Fatalf("refresh did not restore the term, got %q", m.input.Value())
	}
	if len(l.calls()) != 2 {
		t.Fatalf("launched %d searches, want 2", len(l.calls()))
	}
}

func TestQueueDeliversInOrderAndCloses(t *testing.T) {
	q := NewQueue()
	q.Push(search.FileStarted{Run: 1, File: "a"})
	q.Push(search.FileStarted{Run: 1, File: "b"})

	msg, ok := q.Next()().(NotificationsMsg)
	if !ok || len(msg.Notifications) != 2 {
		t.Fatalf("Next = %#v", msg)
	}
	if msg.Notifications[1].(search.FileStarted).File != "b" {
		t.Fatalf("notifications out of order: %#v", msg.Notifications)
	}

	done := make(chan tea.Msg, 1)
	go func() { done <- q.Next()() }()
	q.Close()
	select {
	case msg := <-done:
		if msg != nil {
			t.Fatalf("Next after Close = %#v, want nil", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Next did not return after Close")
	}

	q.Push(search.FileStarted{Run: 2})
	if msg := q.Next()(); msg != nil {
		t.Fatalf("Push after Close was queued: %#v", msg)
	}
}
