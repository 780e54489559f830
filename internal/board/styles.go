package board

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ohare93/delegate/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("6")).
			MarginBottom(1)

	tabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("8"))

	activeTabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(lipgloss.Color("6")).
			Underline(true)

	rowStyle = lipgloss.NewStyle().
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(lipgloss.Color("240")).
				Bold(true)

	// Status colors
	toDoColor       = lipgloss.Color("2") // Green
	inProgressColor = lipgloss.Color("3") // Yellow
	doneColor       = lipgloss.Color("8") // Gray
	cancelledColor  = lipgloss.Color("1") // Red

	// Priority colors
	highColor   = lipgloss.Color("3")
	mediumColor = lipgloss.Color("6")
	lowColor    = lipgloss.Color("8")

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))
)

func statusStyle(s domain.Status) lipgloss.Style {
	switch s {
	case domain.StatusInProgress:
		return lipgloss.NewStyle().Foreground(inProgressColor)
	case domain.StatusDone:
		return lipgloss.NewStyle().Foreground(doneColor)
	case domain.StatusCancelled:
		return lipgloss.NewStyle().Foreground(cancelledColor)
	default:
		return lipgloss.NewStyle().Foreground(toDoColor)
	}
}

func priorityStyle(p domain.Priority) lipgloss.Style {
	switch p {
	case domain.PriorityHigh:
		return lipgloss.NewStyle().Foreground(highColor).Bold(true)
	case domain.PriorityMedium:
		return lipgloss.NewStyle().Foreground(mediumColor)
	default:
		return lipgloss.NewStyle().Foreground(lowColor)
	}
}
