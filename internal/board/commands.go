package board

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ohare93/delegate/internal/domain"
	"github.com/ohare93/delegate/internal/views"
	"github.com/ohare93/delegate/internal/watcher"
)

type tasksLoadedMsg struct {
	buckets views.DateBuckets
	err     error
}

func loadTasks(svc Service, actorID int64) tea.Cmd {
	return func() tea.Msg {
		result, err := svc.ListTasks(context.Background(), actorID, views.ModeDate)
		if err != nil {
			return tasksLoadedMsg{err: err}
		}
		return tasksLoadedMsg{buckets: *result.ByDate}
	}
}

type taskUpdatedMsg struct {
	task *domain.Task
	err  error
}

// cycleStatus moves a task to the next status through the status-only update
func cycleStatus(svc Service, actorID int64, task *domain.Task) tea.Cmd {
	next := task.Status.Next()
	return func() tea.Msg {
		updated, err := svc.UpdateTask(context.Background(), actorID, task.ID, domain.StatusPatch(next))
		return taskUpdatedMsg{task: updated, err: err}
	}
}

type watcherEventMsg struct {
	event watcher.Event
}

type watcherErrorMsg struct {
	err error
}

func listenForWatcherEvents(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		select {
		case event := <-w.Events:
			return watcherEventMsg{event: event}
		case err := <-w.Errors:
			return watcherErrorMsg{err: err}
		}
	}
}
