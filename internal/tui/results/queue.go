package results

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Paintersrp/rgpanel/internal/search"
)

// NotificationsMsg delivers every notification queued since the last one.
type NotificationsMsg struct {
	Notifications []search.Notification
}

// Queue hands session notifications to the bubbletea program. Push never
// blocks, so it is safe to use as a session listener while the session lock
// is held.
type Queue struct {
	mu     sync.Mutex
	items  []search.Notification
	closed bool
	ready  chan struct{}
}

func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Push appends n. It is a search.Listener.
func (q *Queue) Push(n search.Notification) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, n)
	q.mu.Unlock()
	q.signal()
}

// Next returns a command that waits for queued notifications. It yields nil
// once the queue is closed and drained.
func (q *Queue) Next() tea.Cmd {
	return func() tea.Msg {
		for {
			q.mu.Lock()
			if len(q.items) > 0 {
				batch := q.items
				q.items = nil
				q.mu.Unlock()
				return NotificationsMsg{Notifications: batch}
			}
			if q.closed {
				q.mu.Unlock()
				return nil
			}
			q.mu.Unlock()
			<-q.ready
		}
	}
}

func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
