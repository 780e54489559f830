package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ohare93/delegate/internal/domain"
	"github.com/ohare93/delegate/internal/views"
)

var bucketTitles = map[views.Bucket]string{
	views.BucketToday:  "Today",
	views.BucketWeek:   "This week",
	views.BucketFuture: "Later",
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Tasks for " + m.actor.FullName()))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if !m.loaded && m.err == nil {
		b.WriteString("Loading...\n")
	} else {
		tasks := m.visibleTasks()
		if len(tasks) == 0 {
			b.WriteString(helpStyle.Render("  nothing here"))
			b.WriteString("\n")
		}
		for i, task := range tasks {
			line := m.renderRow(task)
			if i == m.cursor {
				b.WriteString(selectedRowStyle.Render(line))
			} else {
				b.WriteString(rowStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.filtering {
		b.WriteString("Filter: " + m.filter.View() + "\n")
	} else if v := m.filter.Value(); v != "" {
		b.WriteString(helpStyle.Render(fmt.Sprintf("filter: %q (esc to clear)", v)) + "\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	} else if m.message != "" {
		b.WriteString(messageStyle.Render(m.message) + "\n")
	}
	b.WriteString(helpStyle.Render("tab/←/→ switch • j/k move • s next status • / filter • r reload • q quit"))
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(views.Buckets))
	for i, bucket := range views.Buckets {
		label := fmt.Sprintf("%s (%d)", bucketTitles[bucket], len(m.buckets.Get(bucket)))
		if i == m.tab {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderRow(task *domain.Task) string {
	return fmt.Sprintf("#%-4d %s  %-8s %-11s %-30s %s",
		task.ID,
		task.DueDate,
		priorityStyle(task.Priority).Render(string(task.Priority)),
		statusStyle(task.Status).Render(string(task.Status)),
		truncate(task.Title, 30),
		domain.GroupKey(task.ResponsibleSurname, task.ResponsibleName),
	)
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
