// Package board is the terminal view of the date-bucketed task list.
package board

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ohare93/delegate/internal/domain"
	"github.com/ohare93/delegate/internal/views"
	"github.com/ohare93/delegate/internal/watcher"
)

// Service is the part of the tracker the board drives
type Service interface {
	ListTasks(ctx context.Context, actorID int64, mode views.Mode) (*views.Result, error)
	UpdateTask(ctx context.Context, actorID, taskID int64, patch domain.Patch) (*domain.Task, error)
}

type Model struct {
	svc   Service
	actor *domain.User

	buckets views.DateBuckets
	loaded  bool
	tab     int // index into views.Buckets
	cursor  int

	filtering bool
	filter    textinput.Model

	message string
	err     error
	width   int
	height  int

	// File watcher, nil when the store is not file backed
	fileWatcher *watcher.Watcher
}

// New creates a board for actor. w may be nil.
func New(svc Service, actor *domain.User, w *watcher.Watcher) Model {
	ti := textinput.New()
	ti.Placeholder = "title"
	ti.CharLimit = 128
	ti.Width = 40

	return Model{
		svc:         svc,
		actor:       actor,
		filter:      ti,
		fileWatcher: w,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadTasks(m.svc, m.actor.ID)}
	if m.fileWatcher != nil {
		cmds = append(cmds, listenForWatcherEvents(m.fileWatcher))
	}
	return tea.Batch(cmds...)
}

// Bucket returns the bucket of the active tab
func (m Model) Bucket() views.Bucket {
	return views.Buckets[m.tab]
}

// visibleTasks returns the active tab's tasks after the title filter
func (m Model) visibleTasks() []*domain.Task {
	tasks := m.buckets.Get(m.Bucket())
	needle := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	if needle == "" {
		return tasks
	}
	out := make([]*domain.Task, 0, len(tasks))
	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Title), needle) {
			out = append(out, task)
		}
	}
	return out
}

// Selected returns the task under the cursor, or nil
func (m Model) Selected() *domain.Task {
	tasks := m.visibleTasks()
	if m.cursor < 0 || m.cursor >= len(tasks) {
		return nil
	}
	return tasks[m.cursor]
}

func (m *Model) clampCursor() {
	n := len(m.visibleTasks())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
