// Package filestore keeps users and tasks as JSON lines in a directory.
//
// Every write rewrites the affected file through a temp file and rename, under
// an exclusive flock on the directory, so readers in other processes never see
// a partial file.
package filestore

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ohare93/delegate/internal/domain"
)

const (
	// DefaultDir is the store directory name used when none is configured
	DefaultDir = ".delegate"
	UsersFile  = "users.jsonl"
	TasksFile  = "tasks.jsonl"
)

// Store implements the user and task stores over two JSONL files
type Store struct {
	dir          string
	usersPath    string
	tasksPath    string
	lockPath     string
	lockInfoPath string

	mu sync.RWMutex
}

// Open creates the directory if needed and returns a Store over it
func Open(dir string) (*Store, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		dir = filepath.Join(cwd, DefaultDir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	return &Store{
		dir:          dir,
		usersPath:    filepath.Join(dir, UsersFile),
		tasksPath:    filepath.Join(dir, TasksFile),
		lockPath:     filepath.Join(dir, lockFile),
		lockInfoPath: filepath.Join(dir, lockInfoFile),
	}, nil
}

// Dir returns the store directory
func (s *Store) Dir() string {
	return s.dir
}

// Close is a no-op; it exists so callers can treat every store alike
func (s *Store) Close() error {
	return nil
}

// userRecord is the on-disk shape of a user. Unlike domain.User it keeps the
// password hash.
type userRecord struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Patronymic   string `json:"patronymic,omitempty"`
	Login        string `json:"login"`
	PasswordHash string `json:"password_hash"`
	LeaderID     *int64 `json:"leader_id,omitempty"`
}

func (r *userRecord) user() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Surname:      r.Surname,
		Patronymic:   r.Patronymic,
		Login:        r.Login,
		PasswordHash: r.PasswordHash,
		LeaderID:     r.LeaderID,
	}
}

func recordOf(u *domain.User) *userRecord {
	return &userRecord{
		ID:           u.ID,
		Name:         u.Name,
		Surname:      u.Surname,
		Patronymic:   u.Patronymic,
		Login:        u.Login,
		PasswordHash: u.PasswordHash,
		LeaderID:     u.LeaderID,
	}
}

// taskRecord is the on-disk shape of a task; display names are joined on read
type taskRecord struct {
	ID            int64           `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	DueDate       domain.Date     `json:"due_date"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Priority      domain.Priority `json:"priority"`
	Status        domain.Status   `json:"status"`
	CreatorID     int64           `json:"creator_id"`
	ResponsibleID int64           `json:"responsible_id"`
}

func taskRecordOf(t *domain.Task) *taskRecord {
	return &taskRecord{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		DueDate:       t.DueDate,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		Priority:      t.Priority,
		Status:        t.Status,
		CreatorID:     t.CreatorID,
		ResponsibleID: t.ResponsibleID,
	}
}

// join builds the domain task, filling display names from users
func (r *taskRecord) join(users map[int64]*userRecord) *domain.Task {
	t := &domain.Task{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		DueDate:       r.DueDate,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Priority:      r.Priority,
		Status:        r.Status,
		CreatorID:     r.CreatorID,
		ResponsibleID: r.ResponsibleID,
	}
	if c, ok := users[r.CreatorID]; ok {
		t.CreatorName, t.CreatorSurname = c.Name, c.Surname
	}
	if resp, ok := users[r.ResponsibleID]; ok {
		t.ResponsibleName, t.ResponsibleSurname = resp.Name, resp.Surname
	}
	return t
}

// --- users ---

// GetUser returns the user with id
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var out *domain.User
	err := s.withReadLock(ctx, func() error {
		users, err := s.loadUsers()
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.ID == id {
				out = u.user()
				return nil
			}
		}
		return domain.NotFound("user", id)
	})
	return out, domain.StoreFailure("get user", err)
}

// GetUserByLogin returns the user with login (case-sensitive)
func (s *Store) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	var out *domain.User
	err := s.withReadLock(ctx, func() error {
		users, err := s.loadUsers()
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.Login == login {
				out = u.user()
				return nil
			}
		}
		return domain.NotFound("user", login)
	})
	return out, domain.StoreFailure("get user by login", err)
}

// ListSubordinates returns the users whose leader is leaderID, by id
func (s *Store) ListSubordinates(ctx context.Context, leaderID int64) ([]*domain.User, error) {
	out := make([]*domain.User, 0)
	err := s.withReadLock(ctx, func() error {
		users, err := s.loadUsers()
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.LeaderID != nil && *u.LeaderID == leaderID {
				out = append(out, u.user())
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.StoreFailure("list subordinates", err)
	}
	return out, nil
}

// ListUsers returns every user, by id
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	out := make([]*domain.User, 0)
	err := s.withReadLock(ctx, func() error {
		users, err := s.loadUsers()
		if err != nil {
			return err
		}
		for _, u := range users {
			out = append(out, u.user())
		}
		return nil
	})
	if err != nil {
		return nil, domain.StoreFailure("list users", err)
	}
	return out, nil
}

// InsertUser assigns the next id and appends the user
func (s *Store) InsertUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	var out *domain.User
	err := s.withWriteLock(ctx, func() error {
		users, err := s.loadUsers()
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.Login == user.Login {
				return domain.Conflict("user with login %q already exists", user.Login)
			}
		}

		rec := recordOf(user)
		rec.ID = nextID(len(users), func(i int) int64 { return users[i].ID })
		users = append(users, rec)
		if err := writeJSONL(s.usersPath, users); err != nil {
			return err
		}
		out = rec.user()
		return nil
	})
	return out, domain.StoreFailure("insert user", err)
}

// SetLeader replaces userID's leader
func (s *Store) SetLeader(ctx context.Context, userID int64, leaderID *int64) (*domain.User, error) {
	var out *domain.User
	err := s.withWriteLock(ctx, func() error {
		users, err := s.loadUsers()
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.ID == userID {
				u.LeaderID = leaderID
				if err := writeJSONL(s.usersPath, users); err != nil {
					return err
				}
				out = u.user()
				return nil
			}
		}
		return domain.NotFound("user", userID)
	})
	return out, domain.StoreFailure("set leader", err)
}

// --- tasks ---

// InsertTask assigns the next id and appends the task
func (s *Store) InsertTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	var out *domain.Task
	err := s.withWriteLock(ctx, func() error {
		tasks, err := s.loadTasks()
		if err != nil {
			return err
		}
		users, err := s.userIndex()
		if err != nil {
			return err
		}

		rec := taskRecordOf(task)
		rec.ID = nextID(len(tasks), func(i int) int64 { return tasks[i].ID })
		tasks = append(tasks, rec)
		if err := writeJSONL(s.tasksPath, tasks); err != nil {
			return err
		}
		out = rec.join(users)
		return nil
	})
	return out, domain.StoreFailure("insert task", err)
}

// GetTask returns the joined task with id
func (s *Store) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	var out *domain.Task
	err := s.withReadLock(ctx, func() error {
		tasks, err := s.loadTasks()
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if t.ID == id {
				users, err := s.userIndex()
				if err != nil {
					return err
				}
				out = t.join(users)
				return nil
			}
		}
		return domain.NotFound("task", id)
	})
	return out, domain.StoreFailure("get task", err)
}

// UpdateTaskFields applies patch and stamps updatedAt
func (s *Store) UpdateTaskFields(ctx context.Context, id int64, patch domain.Patch, updatedAt time.Time) (*domain.Task, error) {
	var out *domain.Task
	err := s.withWriteLock(ctx, func() error {
		tasks, err := s.loadTasks()
		if err != nil {
			return err
		}
		users, err := s.userIndex()
		if err != nil {
			return err
		}
		for i, rec := range tasks {
			if rec.ID != id {
				continue
			}
			task := rec.join(users)
			patch.Apply(task)
			task.UpdatedAt = updatedAt
			tasks[i] = taskRecordOf(task)
			if err := writeJSONL(s.tasksPath, tasks); err != nil {
				return err
			}
			out = tasks[i].join(users)
			return nil
		}
		return domain.NotFound("task", id)
	})
	return out, domain.StoreFailure("update task", err)
}

// ListTasksForUser returns tasks the user created, is responsible for, or
// whose responsible party reports to the user
func (s *Store) ListTasksForUser(ctx context.Context, userID int64) ([]*domain.Task, error) {
	return s.listTasks(ctx, "list tasks for user", func(t *taskRecord, users map[int64]*userRecord) bool {
		if t.CreatorID == userID || t.ResponsibleID == userID {
			return true
		}
		resp, ok := users[t.ResponsibleID]
		return ok && resp.LeaderID != nil && *resp.LeaderID == userID
	}, byUpdatedDesc)
}

// ListTasksForResponsible returns tasks assigned to userID
func (s *Store) ListTasksForResponsible(ctx context.Context, userID int64) ([]*domain.Task, error) {
	return s.listTasks(ctx, "list tasks for responsible", func(t *taskRecord, _ map[int64]*userRecord) bool {
		return t.ResponsibleID == userID
	}, byUpdatedDesc)
}

// ListTasksByLeader returns tasks whose responsible party reports to leaderID,
// ordered by responsible surname and name, then newest update first
func (s *Store) ListTasksByLeader(ctx context.Context, leaderID int64) ([]*domain.Task, error) {
	return s.listTasks(ctx, "list tasks by leader", func(t *taskRecord, users map[int64]*userRecord) bool {
		resp, ok := users[t.ResponsibleID]
		return ok && resp.LeaderID != nil && *resp.LeaderID == leaderID
	}, byResponsibleThenUpdated)
}

func (s *Store) listTasks(ctx context.Context, op string, keep func(*taskRecord, map[int64]*userRecord) bool, less func(a, b *domain.Task) bool) ([]*domain.Task, error) {
	out := make([]*domain.Task, 0)
	err := s.withReadLock(ctx, func() error {
		tasks, err := s.loadTasks()
		if err != nil {
			return err
		}
		users, err := s.userIndex()
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if keep(t, users) {
				out = append(out, t.join(users))
			}
		}
		return nil
	})
	if err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out, nil
}

func byUpdatedDesc(a, b *domain.Task) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID > b.ID
}

func byResponsibleThenUpdated(a, b *domain.Task) bool {
	if a.ResponsibleSurname != b.ResponsibleSurname {
		return a.ResponsibleSurname < b.ResponsibleSurname
	}
	if a.ResponsibleName != b.ResponsibleName {
		return a.ResponsibleName < b.ResponsibleName
	}
	return byUpdatedDesc(a, b)
}

// --- files ---

func (s *Store) loadUsers() ([]*userRecord, error) {
	return readJSONL[userRecord](s.usersPath)
}

func (s *Store) loadTasks() ([]*taskRecord, error) {
	return readJSONL[taskRecord](s.tasksPath)
}

func (s *Store) userIndex() (map[int64]*userRecord, error) {
	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	index := make(map[int64]*userRecord, len(users))
	for _, u := range users {
		index[u.ID] = u
	}
	return index, nil
}

func nextID(n int, idAt func(int) int64) int64 {
	var max int64
	for i := 0; i < n; i++ {
		if id := idAt(i); id > max {
			max = id
		}
	}
	return max + 1
}

// readJSONL reads one record per line. A missing file is empty. A line that
// fails to parse is an error: skipping it would drop it on the next rewrite.
func readJSONL[T any](path string) ([]*T, error) {
	records := make([]*T, 0)

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec T
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("failed to parse %s line %d: %w", filepath.Base(path), lineNo, err)
		}
		records = append(records, &rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", filepath.Base(path), err)
	}

	return records, nil
}

// writeJSONL rewrites path through a temp file and an atomic rename
func writeJSONL[T any](path string, records []*T) error {
	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			f.Close()
			os.Remove(tempPath)
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		data = append(data, '\n')
		if _, err := w.Write(data); err != nil {
			f.Close()
			os.Remove(tempPath)
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to flush temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
