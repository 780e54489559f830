package views

import (
	"errors"
	"testing"
	"time"

	"github.com/ohare93/delegate/internal/domain"
)

var today = domain.NewDate(2025, time.January, 10)

func task(id int64, due domain.Date, status domain.Status, updated int) *domain.Task {
	return &domain.Task{
		ID:        id,
		DueDate:   due,
		Status:    status,
		UpdatedAt: time.Date(2025, 1, 1, updated, 0, 0, 0, time.UTC),
	}
}

func TestBucketOf(t *testing.T) {
	tests := []struct {
		name   string
		due    domain.Date
		status domain.Status
		want   Bucket
		ok     bool
	}{
		{"due today", today, domain.StatusToDo, BucketToday, true},
		{"due tomorrow", today.AddDays(1), domain.StatusInProgress, BucketWeek, true},
		{"due at horizon", today.AddDays(7), domain.StatusToDo, BucketWeek, true},
		{"past horizon", today.AddDays(8), domain.StatusToDo, BucketFuture, true},
		{"overdue open task", today.AddDays(-1), domain.StatusToDo, "", false},
		{"done today", today, domain.StatusDone, "", false},
		{"cancelled next week", today.AddDays(3), domain.StatusCancelled, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BucketOf(task(1, tt.due, tt.status, 0), today)
			if got != tt.want || ok != tt.ok {
				t.Errorf("BucketOf() = %q, %v, want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBucketByDateIsPartition(t *testing.T) {
	var tasks []*domain.Task
	id := int64(0)
	for offset := -3; offset <= 12; offset++ {
		for _, st := range domain.Statuses {
			id++
			tasks = append(tasks, task(id, today.AddDays(offset), st, int(id%24)))
		}
	}

	buckets := BucketByDate(tasks, today)

	seen := map[int64]Bucket{}
	for _, b := range Buckets {
		for _, task := range buckets.Get(b) {
			if prev, dup := seen[task.ID]; dup {
				t.Fatalf("task %d in both %s and %s", task.ID, prev, b)
			}
			seen[task.ID] = b
		}
	}

	for _, task := range tasks {
		_, inBucket := seen[task.ID]
		open := !task.Status.IsClosed()
		notOverdue := !task.DueDate.Before(today)
		if inBucket != (open && notOverdue) {
			t.Errorf("task %d (due %s, %s) bucketed = %v", task.ID, task.DueDate, task.Status, inBucket)
		}
	}
	if buckets.Len() != len(seen) {
		t.Errorf("Len() = %d, want %d", buckets.Len(), len(seen))
	}
}

func TestBucketByDateOrdersByUpdate(t *testing.T) {
	tasks := []*domain.Task{
		task(1, today, domain.StatusToDo, 1),
		task(2, today, domain.StatusToDo, 5),
		task(3, today, domain.StatusToDo, 3),
	}
	got := BucketByDate(tasks, today).Today
	want := []int64{2, 3, 1}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("Today order = %v, want %v", ids(got), want)
		}
	}
}

func TestBucketByDateEmptyBucketsAreNonNil(t *testing.T) {
	b := BucketByDate(nil, today)
	if b.Today == nil || b.Week == nil || b.Future == nil {
		t.Error("empty buckets should be empty slices")
	}
}

func TestGroupByResponsible(t *testing.T) {
	subs := []*domain.User{
		{ID: 2, Name: "Sam", Surname: "Petrov"},
		{ID: 3, Name: "Anna", Surname: "Orlova"},
		{ID: 4, Name: "Sam", Surname: "Petrov"},
	}
	tasks := []*domain.Task{
		{ID: 1, ResponsibleID: 2, ResponsibleName: "Sam", ResponsibleSurname: "Petrov"},
		{ID: 2, ResponsibleID: 4, ResponsibleName: "Sam", ResponsibleSurname: "Petrov"},
	}

	grouped := GroupByResponsible(subs, tasks)

	if len(grouped) != 2 {
		t.Fatalf("GroupByResponsible() keys = %v, want 2 (namesakes merge)", GroupKeys(grouped))
	}
	anna, ok := grouped["Orlova Anna"]
	if !ok {
		t.Fatal("subordinate without tasks has no key")
	}
	if anna == nil || len(anna) != 0 {
		t.Errorf("Orlova Anna = %v, want empty slice", anna)
	}
	if got := ids(grouped["Petrov Sam"]); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Petrov Sam = %v, want [1 2]", got)
	}
}

func TestGroupByResponsibleAlwaysKeysEverySubordinate(t *testing.T) {
	subs := []*domain.User{
		{ID: 2, Name: "A", Surname: "X"},
		{ID: 3, Name: "B", Surname: "Y"},
		{ID: 4, Name: "C", Surname: "Z"},
	}
	grouped := GroupByResponsible(subs, nil)
	for _, s := range subs {
		if _, ok := grouped[s.GroupKey()]; !ok {
			t.Errorf("missing key for %s", s.GroupKey())
		}
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeNone, "none": ModeNone, "date": ModeDate, "responsible": ModeResponsible} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v, want %q", in, got, err, want)
		}
	}
	if _, err := ParseMode("assignee"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("ParseMode(assignee) error = %v, want validation", err)
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	now := time.Date(2025, 1, 9, 22, 30, 0, 0, time.UTC)
	if got := Today(now, loc); got != today {
		t.Errorf("Today() = %s, want %s", got, today)
	}
	if got := Today(now, time.UTC); got != today.AddDays(-1) {
		t.Errorf("Today(UTC) = %s, want %s", got, today.AddDays(-1))
	}
}

func ids(tasks []*domain.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
