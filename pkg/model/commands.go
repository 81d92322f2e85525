package model

import (
	"context"
	"sync"
	"time"

	"github.com/byxorna/orderpane/pkg/pane"
	tea "github.com/charmbracelet/bubbletea"
)

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

// autoscrollMsg is one autoscroll frame, in list rows.
type autoscrollMsg int
type externalChangeMsg struct{}
type statusMessageTimeoutMsg int

// sender forwards autoscroll frames into the running program. It is set once
// the program exists, after the model is built.
type sender struct {
	mu sync.Mutex
	fn func(tea.Msg)
}

func (s *sender) set(fn func(tea.Msg)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fn = fn
}

func (s *sender) send(msg tea.Msg) {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

// noticeQueue collects controller notices during Update so they can be
// turned into status messages afterwards.
type noticeQueue struct {
	notices []pane.Notice
}

func (q *noticeQueue) Notify(n pane.Notice) {
	q.notices = append(q.notices, n)
}

func (q *noticeQueue) drain() []pane.Notice {
	out := q.notices
	q.notices = nil
	return out
}

// run hands a controller task to bubbletea. Its result comes back to Update
// as a pane.Msg.
func run(ctx context.Context, task pane.Task) tea.Cmd {
	if task == nil {
		return nil
	}
	return func() tea.Msg {
		return task(ctx)
	}
}

func waitForChange(ctx context.Context, changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			return externalChangeMsg{}
		}
	}
}

// waitForStatusMessageTimeout fires once d has passed. id lets Update ignore
// timeouts of messages that have since been replaced.
func waitForStatusMessageTimeout(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg(id)
	})
}
