package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ohare93/delegate/internal/auth"
	"github.com/ohare93/delegate/internal/directory"
	"github.com/ohare93/delegate/internal/domain"
	"github.com/ohare93/delegate/internal/store/filestore"
	"github.com/ohare93/delegate/internal/views"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	svc   *Service
	clock *clock

	director, manager, sub, sub2, outsider *domain.User
}

// newFixture builds the org: director leads manager, manager leads sub and
// sub2, outsider reports to nobody.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := filestore.Open(filepath.Join(t.TempDir(), filestore.DefaultDir))
	if err != nil {
		t.Fatalf("filestore.Open() error = %v", err)
	}
	dir := directory.New(store, &auth.BcryptHasher{Cost: bcrypt.MinCost})
	c := &clock{now: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)}

	f := &fixture{
		svc:   New(store, dir, Options{Clock: c.Now, Location: time.UTC}),
		clock: c,
	}
	f.director = mustRegister(t, dir, "director", "Dina", "Director", nil)
	f.manager = mustRegister(t, dir, "manager", "Max", "Manager", &f.director.ID)
	f.sub = mustRegister(t, dir, "sub", "Sam", "Sub", &f.manager.ID)
	f.sub2 = mustRegister(t, dir, "sub2", "Ann", "Aide", &f.manager.ID)
	f.outsider = mustRegister(t, dir, "outsider", "Oleg", "Outsider", nil)
	return f
}

func mustRegister(t *testing.T, dir *directory.Directory, login, name, surname string, leader *int64) *domain.User {
	t.Helper()
	u, err := dir.Register(context.Background(), domain.NewUser{
		Login: login, Password: "pw", Name: name, Surname: surname, LeaderID: leader,
	})
	if err != nil {
		t.Fatalf("Register(%s) error = %v", login, err)
	}
	return u
}

func date(day int) *domain.Date {
	d := domain.NewDate(2025, time.January, day)
	return &d
}

func (f *fixture) createFor(t *testing.T, responsible int64, title string, due *domain.Date) *domain.Task {
	t.Helper()
	task, err := f.svc.CreateTask(context.Background(), f.manager.ID, domain.NewTask{
		Title: title, DueDate: due, Priority: domain.PriorityHigh, ResponsibleID: responsible,
	})
	if err != nil {
		t.Fatalf("CreateTask(%s) error = %v", title, err)
	}
	return task
}

func assertDenied(t *testing.T, err error, want domain.Reason) {
	t.Helper()
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("error = %v, want forbidden", err)
	}
	if got, _ := domain.ReasonOf(err); got != want {
		t.Errorf("reason = %q, want %q", got, want)
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	f := newFixture(t)
	task := f.createFor(t, f.sub.ID, "A", date(10))

	if task.Status != domain.StatusToDo {
		t.Errorf("Status = %s, want to_do", task.Status)
	}
	if task.CreatorID != f.manager.ID || task.ResponsibleID != f.sub.ID {
		t.Errorf("creator/responsible = %d/%d", task.CreatorID, task.ResponsibleID)
	}
	if !task.CreatedAt.Equal(f.clock.now) || !task.UpdatedAt.Equal(task.CreatedAt) {
		t.Errorf("timestamps = %s / %s, want both %s", task.CreatedAt, task.UpdatedAt, f.clock.now)
	}
	if task.ResponsibleSurname != "Sub" || task.CreatorName != "Max" {
		t.Errorf("joined names missing: %+v", task)
	}
}

func TestCreateTaskAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("not a direct subordinate", func(t *testing.T) {
		_, err := f.svc.CreateTask(ctx, f.manager.ID, domain.NewTask{
			Title: "A", DueDate: date(10), Priority: domain.PriorityHigh, ResponsibleID: f.outsider.ID,
		})
		assertDenied(t, err, domain.ReasonNotSubordinate)
	})

	t.Run("two levels down", func(t *testing.T) {
		_, err := f.svc.CreateTask(ctx, f.director.ID, domain.NewTask{
			Title: "A", DueDate: date(10), Priority: domain.PriorityHigh, ResponsibleID: f.sub.ID,
		})
		assertDenied(t, err, domain.ReasonNotSubordinate)
	})

	t.Run("non-subordinate wins over invalid fields", func(t *testing.T) {
		_, err := f.svc.CreateTask(ctx, f.manager.ID, domain.NewTask{ResponsibleID: f.outsider.ID})
		assertDenied(t, err, domain.ReasonNotSubordinate)
	})

	t.Run("missing title for a subordinate", func(t *testing.T) {
		_, err := f.svc.CreateTask(ctx, f.manager.ID, domain.NewTask{
			DueDate: date(10), Priority: domain.PriorityHigh, ResponsibleID: f.sub.ID,
		})
		if !errors.Is(err, domain.ErrValidation) || domain.FieldOf(err) != "title" {
			t.Errorf("error = %v, want validation on title", err)
		}
	})

	t.Run("missing responsible", func(t *testing.T) {
		_, err := f.svc.CreateTask(ctx, f.manager.ID, domain.NewTask{Title: "A", DueDate: date(10), Priority: domain.PriorityLow})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("error = %v, want validation", err)
		}
	})

	list, err := f.svc.ListTasks(ctx, f.manager.ID, views.ModeNone)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(list.Tasks) != 0 {
		t.Errorf("rejected creates persisted %d tasks", len(list.Tasks))
	}
}

func TestUpdateTaskStatusOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createFor(t, f.sub.ID, "A", date(10))

	f.clock.Advance(time.Minute)
	done := domain.StatusDone
	updated, err := f.svc.UpdateTask(ctx, f.sub.ID, task.ID, domain.Patch{Status: &done})
	if err != nil {
		t.Fatalf("UpdateTask(status) error = %v", err)
	}
	if updated.Status != domain.StatusDone || !updated.UpdatedAt.Equal(f.clock.now) {
		t.Errorf("UpdateTask() = %s at %s", updated.Status, updated.UpdatedAt)
	}

	f.clock.Advance(time.Minute)
	title := "B"
	todo := domain.StatusToDo
	_, err = f.svc.UpdateTask(ctx, f.sub.ID, task.ID, domain.Patch{Status: &todo, Title: &title})
	assertDenied(t, err, domain.ReasonStatusOnly)

	current, err := f.svc.GetTask(ctx, f.manager.ID, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if current.Title != "A" || current.Status != domain.StatusDone || !current.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Errorf("rejected update persisted changes: %+v", current)
	}
}

func TestUpdateTaskEmptyPatchTouchesUpdatedAt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createFor(t, f.sub.ID, "A", date(12))

	f.clock.Advance(time.Hour)
	updated, err := f.svc.UpdateTask(ctx, f.manager.ID, task.ID, domain.Patch{})
	if err != nil {
		t.Fatalf("UpdateTask(empty) error = %v", err)
	}
	if !updated.UpdatedAt.After(task.UpdatedAt) {
		t.Errorf("UpdatedAt = %s, want after %s", updated.UpdatedAt, task.UpdatedAt)
	}
	if updated.Title != task.Title || updated.Status != task.Status || updated.DueDate != task.DueDate ||
		updated.Priority != task.Priority || updated.ResponsibleID != task.ResponsibleID {
		t.Errorf("empty patch changed fields: %+v vs %+v", updated, task)
	}
}

func TestUpdateTaskRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createFor(t, f.sub.ID, "A", date(12))
	inProgress := domain.StatusInProgress
	title := "renamed"

	t.Run("creator's leader may change status", func(t *testing.T) {
		if _, err := f.svc.UpdateTask(ctx, f.director.ID, task.ID, domain.Patch{Status: &inProgress}); err != nil {
			t.Errorf("UpdateTask() error = %v", err)
		}
	})
	t.Run("creator's leader may not rename", func(t *testing.T) {
		_, err := f.svc.UpdateTask(ctx, f.director.ID, task.ID, domain.Patch{Title: &title})
		assertDenied(t, err, domain.ReasonStatusOnly)
	})
	t.Run("peer has no rights", func(t *testing.T) {
		_, err := f.svc.UpdateTask(ctx, f.sub2.ID, task.ID, domain.Patch{Status: &inProgress})
		assertDenied(t, err, domain.ReasonNoEditRights)
	})
	t.Run("creator reassigns to another subordinate", func(t *testing.T) {
		updated, err := f.svc.UpdateTask(ctx, f.manager.ID, task.ID, domain.Patch{ResponsibleID: &f.sub2.ID, Title: &title})
		if err != nil {
			t.Fatalf("UpdateTask() error = %v", err)
		}
		if updated.ResponsibleID != f.sub2.ID || updated.ResponsibleSurname != "Aide" || updated.Title != title {
			t.Errorf("UpdateTask() = %+v", updated)
		}
	})
	t.Run("creator reassigns outside the team", func(t *testing.T) {
		_, err := f.svc.UpdateTask(ctx, f.manager.ID, task.ID, domain.Patch{ResponsibleID: &f.outsider.ID})
		assertDenied(t, err, domain.ReasonNotSubordinate)
	})
	t.Run("creator sends an invalid priority", func(t *testing.T) {
		bad := domain.Priority("urgent")
		_, err := f.svc.UpdateTask(ctx, f.manager.ID, task.ID, domain.Patch{Priority: &bad})
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("error = %v, want validation", err)
		}
	})
	t.Run("unknown task", func(t *testing.T) {
		_, err := f.svc.UpdateTask(ctx, f.manager.ID, 999, domain.Patch{})
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("error = %v, want not found", err)
		}
	})
}

func TestGetTaskVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.createFor(t, f.sub.ID, "A", date(12))

	for _, u := range []*domain.User{f.manager, f.sub, f.director} {
		if _, err := f.svc.GetTask(ctx, u.ID, task.ID); err != nil {
			t.Errorf("GetTask(as %s) error = %v", u.Login, err)
		}
	}
	for _, u := range []*domain.User{f.sub2, f.outsider} {
		_, err := f.svc.GetTask(ctx, u.ID, task.ID)
		assertDenied(t, err, domain.ReasonNoViewRights)
	}
	if _, err := f.svc.GetTask(ctx, f.manager.ID, 404); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetTask(404) error = %v, want not found", err)
	}
}

func TestListTasksByDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	today := f.createFor(t, f.sub.ID, "today", date(10))
	f.clock.Advance(time.Second)
	week := f.createFor(t, f.sub.ID, "week", date(17))
	f.clock.Advance(time.Second)
	future := f.createFor(t, f.sub.ID, "future", date(18))
	f.clock.Advance(time.Second)
	closed := f.createFor(t, f.sub.ID, "closed", date(11))
	if _, err := f.svc.UpdateTask(ctx, f.sub.ID, closed.ID, domain.StatusPatch(domain.StatusCancelled)); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	f.createFor(t, f.sub2.ID, "someone else's", date(10))

	result, err := f.svc.ListTasks(ctx, f.sub.ID, views.ModeDate)
	if err != nil {
		t.Fatalf("ListTasks(date) error = %v", err)
	}
	buckets := result.ByDate
	if len(buckets.Today) != 1 || buckets.Today[0].ID != today.ID {
		t.Errorf("Today = %v", buckets.Today)
	}
	if len(buckets.Week) != 1 || buckets.Week[0].ID != week.ID {
		t.Errorf("Week = %v", buckets.Week)
	}
	if len(buckets.Future) != 1 || buckets.Future[0].ID != future.ID {
		t.Errorf("Future = %v", buckets.Future)
	}
}

func TestListTasksByResponsible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createFor(t, f.sub.ID, "A", date(12))
	f.createFor(t, f.sub.ID, "B", date(13))

	result, err := f.svc.ListTasks(ctx, f.manager.ID, views.ModeResponsible)
	if err != nil {
		t.Fatalf("ListTasks(responsible) error = %v", err)
	}
	if got := len(result.ByResponsible["Sub Sam"]); got != 2 {
		t.Errorf("Sub Sam has %d tasks, want 2", got)
	}
	aide, ok := result.ByResponsible["Aide Ann"]
	if !ok || len(aide) != 0 {
		t.Errorf("Aide Ann = %v, %v, want present and empty", aide, ok)
	}
}

func TestListTasksFlatIncludesLeaderView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.createFor(t, f.sub.ID, "A", date(12))
	f.clock.Advance(time.Second)
	second := f.createFor(t, f.sub2.ID, "B", date(13))

	result, err := f.svc.ListTasks(ctx, f.manager.ID, views.ModeNone)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(result.Tasks) != 2 || result.Tasks[0].ID != second.ID || result.Tasks[1].ID != first.ID {
		t.Errorf("ListTasks() order = %v, want newest first", result.Tasks)
	}

	forSub, err := f.svc.ListTasks(ctx, f.sub.ID, "")
	if err != nil {
		t.Fatalf("ListTasks(sub) error = %v", err)
	}
	if len(forSub.Tasks) != 1 || forSub.Tasks[0].ID != first.ID {
		t.Errorf("ListTasks(sub) = %v", forSub.Tasks)
	}
}

func TestListTasksUnknownMode(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.ListTasks(context.Background(), f.manager.ID, views.Mode("priority")); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("ListTasks(priority) error = %v, want validation", err)
	}
}
