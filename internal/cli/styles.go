package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ohare93/delegate/internal/domain"
)

// Consistent color scheme for task states across all views
var (
	StyleToDo       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // Blue - not started
	StyleInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // Green - active
	StyleDone       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // Gray - finished
	StyleCancelled  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // Red - dropped

	// Priority levels
	StyleHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	StyleMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	StyleLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	// UI elements
	StyleDim       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	StyleHighlight = lipgloss.NewStyle().Bold(true)
	StyleHeader    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("8"))
	StyleLabel     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)

// GetPriorityStyle returns the appropriate style for a given priority level
func GetPriorityStyle(priority domain.Priority) lipgloss.Style {
	switch priority {
	case domain.PriorityHigh:
		return StyleHigh
	case domain.PriorityMedium:
		return StyleMedium
	case domain.PriorityLow:
		return StyleLow
	default:
		return lipgloss.NewStyle()
	}
}

// GetStatusStyle returns the appropriate style for a given status
func GetStatusStyle(status domain.Status) lipgloss.Style {
	switch status {
	case domain.StatusToDo:
		return StyleToDo
	case domain.StatusInProgress:
		return StyleInProgress
	case domain.StatusDone:
		return StyleDone
	case domain.StatusCancelled:
		return StyleCancelled
	default:
		return lipgloss.NewStyle()
	}
}

func renderTaskTable(w io.Writer, tasks []*domain.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, StyleDim.Render("  no tasks"))
		return
	}

	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = []string{
			strconv.FormatInt(t.ID, 10),
			t.DueDate.String(),
			GetPriorityStyle(t.Priority).Render(string(t.Priority)),
			GetStatusStyle(t.Status).Render(string(t.Status)),
			t.Title,
			domain.GroupKey(t.CreatorSurname, t.CreatorName),
			domain.GroupKey(t.ResponsibleSurname, t.ResponsibleName),
		}
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleDim).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return StyleHighlight.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("ID", "DUE", "PRIORITY", "STATUS", "TITLE", "CREATOR", "RESPONSIBLE").
		Rows(rows...)
	fmt.Fprintln(w, tbl.String())
}

func renderUserTable(w io.Writer, users []*domain.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, StyleDim.Render("  no users"))
		return
	}

	rows := make([][]string, len(users))
	for i, u := range users {
		leader := ""
		if u.LeaderID != nil {
			leader = strconv.FormatInt(*u.LeaderID, 10)
		}
		rows[i] = []string{strconv.FormatInt(u.ID, 10), u.Login, u.FullName(), leader}
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(StyleDim).
		Headers("ID", "LOGIN", "NAME", "LEADER").
		Rows(rows...)
	fmt.Fprintln(w, tbl.String())
}

func renderTaskDetails(w io.Writer, t *domain.Task) {
	line := func(label, value string) {
		fmt.Fprintln(w, StyleLabel.Render(label), value)
	}
	line("Task:", fmt.Sprintf("#%d %s", t.ID, StyleHighlight.Render(t.Title)))
	if t.Description != "" {
		line("Description:", t.Description)
	}
	line("Due:", t.DueDate.String())
	line("Priority:", GetPriorityStyle(t.Priority).Render(string(t.Priority)))
	line("Status:", GetStatusStyle(t.Status).Render(string(t.Status)))
	line("Creator:", fmt.Sprintf("%s (#%d)", domain.GroupKey(t.CreatorSurname, t.CreatorName), t.CreatorID))
	line("Responsible:", fmt.Sprintf("%s (#%d)", domain.GroupKey(t.ResponsibleSurname, t.ResponsibleName), t.ResponsibleID))
	line("Created:", t.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	line("Updated:", t.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
}

func renderUserDetails(w io.Writer, u *domain.User) {
	fmt.Fprintln(w, StyleLabel.Render("User:"), fmt.Sprintf("#%d %s", u.ID, StyleHighlight.Render(u.FullName())))
	fmt.Fprintln(w, StyleLabel.Render("Login:"), u.Login)
	if u.LeaderID != nil {
		fmt.Fprintln(w, StyleLabel.Render("Leader:"), fmt.Sprintf("#%d", *u.LeaderID))
	} else {
		fmt.Fprintln(w, StyleLabel.Render("Leader:"), StyleDim.Render("none"))
	}
}
