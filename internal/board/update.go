package board

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ohare93/delegate/internal/views"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			return m.handleFilterKey(msg)
		}
		return m.handleKey(msg)

	case tasksLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.buckets = msg.buckets
		m.loaded = true
		m.clampCursor()
		return m, nil

	case taskUpdatedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.message = fmt.Sprintf("Task #%d is now %s", msg.task.ID, msg.task.Status)
		return m, loadTasks(m.svc, m.actor.ID)

	case watcherEventMsg:
		// Another process wrote the store
		return m, tea.Batch(
			loadTasks(m.svc, m.actor.ID),
			listenForWatcherEvents(m.fileWatcher),
		)

	case watcherErrorMsg:
		m.err = fmt.Errorf("file watcher: %w", msg.err)
		return m, listenForWatcherEvents(m.fileWatcher)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.message = ""
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.visibleTasks())-1 {
			m.cursor++
			m.message = ""
		}
		return m, nil

	case "tab", "right", "l":
		m.tab = (m.tab + 1) % len(views.Buckets)
		m.cursor = 0
		return m, nil

	case "shift+tab", "left", "h":
		m.tab = (m.tab + len(views.Buckets) - 1) % len(views.Buckets)
		m.cursor = 0
		return m, nil

	case "s":
		task := m.Selected()
		if task == nil {
			return m, nil
		}
		return m, cycleStatus(m.svc, m.actor.ID, task)

	case "/":
		m.filtering = true
		m.filter.Focus()
		return m, nil

	case "esc":
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.cursor = 0
		}
		return m, nil

	case "r":
		m.message = "Reloading..."
		return m, loadTasks(m.svc, m.actor.ID)
	}

	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filtering = false
		m.filter.Blur()
		m.cursor = 0
		return m, nil
	case "esc":
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.cursor = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.clampCursor()
	return m, cmd
}
