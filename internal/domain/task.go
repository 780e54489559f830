package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Priority levels for tasks
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status represents the lifecycle state of a task. Any status may follow any
// other.
type Status string

const (
	StatusToDo       Status = "to_do"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every status in display order
var Statuses = []Status{StatusToDo, StatusInProgress, StatusDone, StatusCancelled}

// Priorities lists every priority in ascending order
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ValidatePriority checks if a priority string is valid
func ValidatePriority(p string) bool {
	switch Priority(p) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ValidateStatus checks if a status string is valid
func ValidateStatus(s string) bool {
	switch Status(s) {
	case StatusToDo, StatusInProgress, StatusDone, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsClosed reports whether the status takes a task out of the date buckets
func (s Status) IsClosed() bool {
	return s == StatusDone || s == StatusCancelled
}

// Next returns the status after s in display order, wrapping around
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return StatusToDo
}

// Weight returns a numeric weight for sorting
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Task is an assignment from a creator to one of their direct subordinates.
// The *Name/*Surname fields are joined from the users table and never written.
type Task struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	DueDate       Date      `json:"due_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Priority      Priority  `json:"priority"`
	Status        Status    `json:"status"`
	CreatorID     int64     `json:"creator_id"`
	ResponsibleID int64     `json:"responsible_id"`

	CreatorName        string `json:"creator_name,omitempty"`
	CreatorSurname     string `json:"creator_surname,omitempty"`
	ResponsibleName    string `json:"responsible_name,omitempty"`
	ResponsibleSurname string `json:"responsible_surname,omitempty"`
}

// ResponsibleKey is the key the responsible-grouped view files this task under
func (t *Task) ResponsibleKey() string {
	return GroupKey(t.ResponsibleSurname, t.ResponsibleName)
}

// Clone returns a copy of the task
func (t *Task) Clone() *Task {
	c := *t
	return &c
}

// NewTask is the input for creating a task
type NewTask struct {
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	DueDate       *Date    `json:"due_date,omitempty"`
	Priority      Priority `json:"priority"`
	Status        Status   `json:"status,omitempty"`
	ResponsibleID int64    `json:"responsible_id"`
}

// UnmarshalJSON accepts end_date as an alias of due_date
func (n *NewTask) UnmarshalJSON(data []byte) error {
	type newTaskAlias NewTask
	var aux struct {
		newTaskAlias
		EndDate *Date `json:"end_date,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*n = NewTask(aux.newTaskAlias)
	if n.DueDate == nil {
		n.DueDate = aux.EndDate
	}
	return nil
}

// Validate checks that all required fields are present and well formed
func (n NewTask) Validate() error {
	if strings.TrimSpace(n.Title) == "" {
		return Invalid("title", "title is required")
	}
	if n.DueDate == nil || n.DueDate.IsZero() {
		return Invalid("due_date", "due date is required")
	}
	if n.Priority == "" {
		return Invalid("priority", "priority is required")
	}
	if !ValidatePriority(string(n.Priority)) {
		return Invalid("priority", "invalid priority: %s (must be low|medium|high)", n.Priority)
	}
	if n.Status != "" && !ValidateStatus(string(n.Status)) {
		return Invalid("status", "invalid status: %s (must be to_do|in_progress|done|cancelled)", n.Status)
	}
	if n.ResponsibleID <= 0 {
		return Invalid("responsible_id", "responsible is required")
	}
	return nil
}
