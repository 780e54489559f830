// Package tracker implements the task lifecycle: creation defaults, policy
// checked updates and the grouped task lists.
package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ohare93/delegate/internal/directory"
	"github.com/ohare93/delegate/internal/domain"
	"github.com/ohare93/delegate/internal/logging"
	"github.com/ohare93/delegate/internal/policy"
	"github.com/ohare93/delegate/internal/views"
)

// TaskStore is the persistence contract for tasks. Returned tasks carry the
// joined creator/responsible display names.
type TaskStore interface {
	InsertTask(ctx context.Context, task *domain.Task) (*domain.Task, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	// UpdateTaskFields applies patch and sets updated_at. An empty patch only
	// touches updated_at.
	UpdateTaskFields(ctx context.Context, id int64, patch domain.Patch, updatedAt time.Time) (*domain.Task, error)
	// ListTasksForUser returns tasks the user created, is responsible for, or
	// whose responsible party the user leads, newest update first.
	ListTasksForUser(ctx context.Context, userID int64) ([]*domain.Task, error)
	ListTasksForResponsible(ctx context.Context, userID int64) ([]*domain.Task, error)
	// ListTasksByLeader returns tasks whose responsible party is led by leaderID
	ListTasksByLeader(ctx context.Context, leaderID int64) ([]*domain.Task, error)
}

// Options configures a Service
type Options struct {
	Clock    func() time.Time // defaults to time.Now
	Location *time.Location   // zone "today" is computed in; defaults to time.Local
	Logger   *logrus.Entry    // defaults to a discarding logger
}

// Service is the entry point the transports call
type Service struct {
	tasks TaskStore
	dir   *directory.Directory
	now   func() time.Time
	loc   *time.Location
	log   *logrus.Entry
}

// New creates a Service
func New(tasks TaskStore, dir *directory.Directory, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Service{
		tasks: tasks,
		dir:   dir,
		now:   opts.Clock,
		loc:   opts.Location,
		log:   opts.Logger,
	}
}

// Directory returns the identity directory the service consults
func (s *Service) Directory() *directory.Directory {
	return s.dir
}

// Today returns the current calendar date in the service's zone
func (s *Service) Today() domain.Date {
	return views.Today(s.now(), s.loc)
}

// CreateTask assigns a new task from actorID to a direct subordinate
func (s *Service) CreateTask(ctx context.Context, actorID int64, in domain.NewTask) (*domain.Task, error) {
	const op = "tracker.Service.CreateTask"
	log := s.log.WithFields(logrus.Fields{"operation": op, "actor_id": actorID})

	if in.ResponsibleID <= 0 {
		return nil, domain.Invalid(domain.FieldResponsibleID, "responsible is required")
	}
	responsible, err := s.lookupUser(ctx, in.ResponsibleID)
	if err != nil {
		log.WithError(err).Error("failed to load responsible user")
		return nil, err
	}
	if err := policy.CanCreate(actorID, responsible); err != nil {
		log.WithField("responsible_id", in.ResponsibleID).Info("create denied: not a direct subordinate")
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = domain.StatusToDo
	}
	now := s.now()
	task := &domain.Task{
		Title:         in.Title,
		Description:   in.Description,
		DueDate:       *in.DueDate,
		CreatedAt:     now,
		UpdatedAt:     now,
		Priority:      in.Priority,
		Status:        status,
		CreatorID:     actorID,
		ResponsibleID: in.ResponsibleID,
	}

	created, err := s.tasks.InsertTask(ctx, task)
	if err != nil {
		log.WithError(err).Error("failed to insert task")
		return nil, err
	}
	log.WithField("task_id", created.ID).Info("task created")
	return created, nil
}

// GetTask returns a task the actor may view
func (s *Service) GetTask(ctx context.Context, actorID, taskID int64) (*domain.Task, error) {
	const op = "tracker.Service.GetTask"
	log := s.log.WithFields(logrus.Fields{"operation": op, "actor_id": actorID, "task_id": taskID})

	task, creator, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := policy.CanView(actorID, task, creator); err != nil {
		log.Info("view denied")
		return nil, err
	}
	return task, nil
}

// UpdateTask applies a patch the actor is allowed to make. updated_at is
// refreshed on every accepted update, including an empty patch.
func (s *Service) UpdateTask(ctx context.Context, actorID, taskID int64, patch domain.Patch) (*domain.Task, error) {
	const op = "tracker.Service.UpdateTask"
	log := s.log.WithFields(logrus.Fields{"operation": op, "actor_id": actorID, "task_id": taskID})

	task, creator, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	var newResponsible *domain.User
	if patch.ResponsibleID != nil {
		newResponsible, err = s.lookupUser(ctx, *patch.ResponsibleID)
		if err != nil {
			log.WithError(err).Error("failed to load new responsible user")
			return nil, err
		}
	}

	if err := policy.CanUpdate(actorID, task, creator, patch, newResponsible); err != nil {
		reason, _ := domain.ReasonOf(err)
		log.WithFields(logrus.Fields{"reason": reason, "fields": patch.Fields()}).Info("update denied")
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.tasks.UpdateTaskFields(ctx, taskID, patch, s.now())
	if err != nil {
		log.WithError(err).Error("failed to update task")
		return nil, err
	}
	log.WithField("fields", patch.Fields()).Info("task updated")
	return updated, nil
}

// ListTasks returns the actor's tasks grouped by mode
func (s *Service) ListTasks(ctx context.Context, actorID int64, mode views.Mode) (*views.Result, error) {
	const op = "tracker.Service.ListTasks"
	log := s.log.WithFields(logrus.Fields{"operation": op, "actor_id": actorID, "mode": mode})

	result := &views.Result{Mode: mode}
	switch mode {
	case views.ModeNone, "":
		result.Mode = views.ModeNone
		tasks, err := s.tasks.ListTasksForUser(ctx, actorID)
		if err != nil {
			log.WithError(err).Error("failed to list tasks")
			return nil, err
		}
		views.SortByUpdatedDesc(tasks)
		result.Tasks = tasks

	case views.ModeDate:
		tasks, err := s.tasks.ListTasksForResponsible(ctx, actorID)
		if err != nil {
			log.WithError(err).Error("failed to list responsible tasks")
			return nil, err
		}
		buckets := views.BucketByDate(tasks, s.Today())
		result.ByDate = &buckets

	case views.ModeResponsible:
		subs, err := s.dir.SubordinatesOf(ctx, actorID)
		if err != nil {
			log.WithError(err).Error("failed to list subordinates")
			return nil, err
		}
		tasks, err := s.tasks.ListTasksByLeader(ctx, actorID)
		if err != nil {
			log.WithError(err).Error("failed to list subordinate tasks")
			return nil, err
		}
		result.ByResponsible = views.GroupByResponsible(subs, tasks)

	default:
		return nil, domain.Invalid("group", "invalid group: %s (must be none|date|responsible)", mode)
	}

	log.Debug(result.String())
	return result, nil
}

// loadTask fetches a task and its creator's user record. A creator that no
// longer resolves is returned as nil.
func (s *Service) loadTask(ctx context.Context, taskID int64) (*domain.Task, *domain.User, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	creator, err := s.lookupUser(ctx, task.CreatorID)
	if err != nil {
		return nil, nil, err
	}
	return task, creator, nil
}

// lookupUser returns nil, nil for an unknown id
func (s *Service) lookupUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.dir.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
