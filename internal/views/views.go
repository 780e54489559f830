// Package views derives read-only projections of a task set.
package views

import (
	"fmt"
	"sort"
	"time"

	"github.com/ohare93/delegate/internal/domain"
)

// Mode selects how a task list is grouped
type Mode string

const (
	ModeNone        Mode = "none"
	ModeDate        Mode = "date"
	ModeResponsible Mode = "responsible"
)

// ParseMode accepts "", "none", "date" and "responsible"
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeNone:
		return ModeNone, nil
	case ModeDate, ModeResponsible:
		return Mode(s), nil
	default:
		return "", domain.Invalid("group", "invalid group: %s (must be none|date|responsible)", s)
	}
}

// Bucket is one of the date-grouped partitions
type Bucket string

const (
	BucketToday  Bucket = "today"
	BucketWeek   Bucket = "week"
	BucketFuture Bucket = "future"
)

// Buckets lists the buckets in display order
var Buckets = []Bucket{BucketToday, BucketWeek, BucketFuture}

// WeekHorizon is how many days past today the week bucket reaches
const WeekHorizon = 7

// DateBuckets is the date-grouped view
type DateBuckets struct {
	Today  []*domain.Task `json:"today"`
	Week   []*domain.Task `json:"week"`
	Future []*domain.Task `json:"future"`
}

// Get returns the tasks of one bucket
func (b DateBuckets) Get(bucket Bucket) []*domain.Task {
	switch bucket {
	case BucketToday:
		return b.Today
	case BucketWeek:
		return b.Week
	case BucketFuture:
		return b.Future
	default:
		return nil
	}
}

// Len returns the number of bucketed tasks
func (b DateBuckets) Len() int {
	return len(b.Today) + len(b.Week) + len(b.Future)
}

// Today returns the calendar date of now in loc
func Today(now time.Time, loc *time.Location) domain.Date {
	if loc == nil {
		loc = time.Local
	}
	return domain.DateOf(now.In(loc))
}

// BucketOf returns the bucket a task falls into relative to today. Closed
// tasks and tasks due before today fall into no bucket.
func BucketOf(task *domain.Task, today domain.Date) (Bucket, bool) {
	if task.Status.IsClosed() {
		return "", false
	}
	due := task.DueDate
	horizon := today.AddDays(WeekHorizon)
	switch {
	case due == today:
		return BucketToday, true
	case due.After(today) && !due.After(horizon):
		return BucketWeek, true
	case due.After(horizon):
		return BucketFuture, true
	default:
		return "", false
	}
}

// BucketByDate partitions tasks into today/week/future. Each bucket is ordered
// by last update, newest first.
func BucketByDate(tasks []*domain.Task, today domain.Date) DateBuckets {
	out := DateBuckets{
		Today:  []*domain.Task{},
		Week:   []*domain.Task{},
		Future: []*domain.Task{},
	}
	for _, task := range tasks {
		bucket, ok := BucketOf(task, today)
		if !ok {
			continue
		}
		switch bucket {
		case BucketToday:
			out.Today = append(out.Today, task)
		case BucketWeek:
			out.Week = append(out.Week, task)
		case BucketFuture:
			out.Future = append(out.Future, task)
		}
	}
	SortByUpdatedDesc(out.Today)
	SortByUpdatedDesc(out.Week)
	SortByUpdatedDesc(out.Future)
	return out
}

// GroupByResponsible files tasks under "<surname> <name>" of their responsible
// party. Every subordinate gets a key, even with no tasks. Subordinates sharing
// a surname and name share a key.
func GroupByResponsible(subordinates []*domain.User, tasks []*domain.Task) map[string][]*domain.Task {
	grouped := make(map[string][]*domain.Task, len(subordinates))
	for _, sub := range subordinates {
		if _, ok := grouped[sub.GroupKey()]; !ok {
			grouped[sub.GroupKey()] = []*domain.Task{}
		}
	}
	for _, task := range tasks {
		key := task.ResponsibleKey()
		grouped[key] = append(grouped[key], task)
	}
	return grouped
}

// GroupKeys returns the keys of a grouped view, sorted
func GroupKeys(grouped map[string][]*domain.Task) []string {
	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SortByUpdatedDesc orders tasks by last update, newest first, id breaking ties
func SortByUpdatedDesc(tasks []*domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].UpdatedAt.Equal(tasks[j].UpdatedAt) {
			return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})
}

// Result is a task list in one of the three modes. Exactly one of the fields
// is set, matching Mode.
type Result struct {
	Mode          Mode
	Tasks         []*domain.Task
	ByDate        *DateBuckets
	ByResponsible map[string][]*domain.Task
}

// Payload returns the value to serialize for the result's mode
func (r *Result) Payload() any {
	switch r.Mode {
	case ModeDate:
		return r.ByDate
	case ModeResponsible:
		return r.ByResponsible
	default:
		return r.Tasks
	}
}

func (r *Result) String() string {
	switch r.Mode {
	case ModeDate:
		return fmt.Sprintf("date view: %d today, %d week, %d future",
			len(r.ByDate.Today), len(r.ByDate.Week), len(r.ByDate.Future))
	case ModeResponsible:
		return fmt.Sprintf("responsible view: %d groups", len(r.ByResponsible))
	default:
		return fmt.Sprintf("flat view: %d tasks", len(r.Tasks))
	}
}
