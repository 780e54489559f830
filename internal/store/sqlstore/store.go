// Package sqlstore implements the user and task stores on database/sql for
// SQLite, PostgreSQL and MySQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ohare93/delegate/internal/domain"
)

// Config holds connection and pool settings
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
}

// Store is a SQL backed user and task store
type Store struct {
	db      *sql.DB
	dialect dialect
}

// Open connects, applies pool settings and creates the schema if missing
func Open(ctx context.Context, cfg Config) (*Store, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	dsn, err := d.prepareDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", d.driver, err)
	}

	store := &Store{db: db, dialect: d}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return store, nil
}

// migrate creates the tables. Statements run one at a time since the mysql
// driver rejects multi-statement strings by default.
func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) q(query string) string {
	return s.dialect.rebind(query)
}

// --- users ---

const userColumns = `id, name, surname, patronymic, login, password_hash, leader_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u      domain.User
		leader sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Surname, &u.Patronymic, &u.Login, &u.PasswordHash, &leader); err != nil {
		return nil, err
	}
	if leader.Valid {
		id := leader.Int64
		u.LeaderID = &id
	}
	return &u, nil
}

func (s *Store) queryUser(ctx context.Context, op string, key any, where string, args ...any) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE `+where), args...)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("user", key)
	}
	if err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	return u, nil
}

func (s *Store) queryUsers(ctx context.Context, op, query string, args ...any) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, domain.StoreFailure(op, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	return users, nil
}

// GetUser returns the user with id
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.queryUser(ctx, "get user", id, `id = ?`, id)
}

// GetUserByLogin returns the user with login
func (s *Store) GetUserByLogin(ctx context.Context, login string) (*domain.User, error) {
	return s.queryUser(ctx, "get user by login", login, `login = ?`, login)
}

// ListSubordinates returns the users whose leader is leaderID, by id
func (s *Store) ListSubordinates(ctx context.Context, leaderID int64) ([]*domain.User, error) {
	return s.queryUsers(ctx, "list subordinates",
		`SELECT `+userColumns+` FROM users WHERE leader_id = ? ORDER BY id`, leaderID)
}

// ListUsers returns every user, by id
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.queryUsers(ctx, "list users", `SELECT `+userColumns+` FROM users ORDER BY id`)
}

// InsertUser stores a user and returns it with its id
func (s *Store) InsertUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	const op = "insert user"
	var leader sql.NullInt64
	if user.LeaderID != nil {
		leader = sql.NullInt64{Int64: *user.LeaderID, Valid: true}
	}

	id, err := s.insert(ctx,
		`INSERT INTO users (name, surname, patronymic, login, password_hash, leader_id) VALUES (?, ?, ?, ?, ?, ?)`,
		user.Name, user.Surname, user.Patronymic, user.Login, user.PasswordHash, leader)
	if isUniqueViolation(err) {
		return nil, domain.Conflict("user with login %q already exists", user.Login)
	}
	if err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	return s.GetUser(ctx, id)
}

// SetLeader replaces userID's leader
func (s *Store) SetLeader(ctx context.Context, userID int64, leaderID *int64) (*domain.User, error) {
	var leader sql.NullInt64
	if leaderID != nil {
		leader = sql.NullInt64{Int64: *leaderID, Valid: true}
	}
	if _, err := s.db.ExecContext(ctx, s.q(`UPDATE users SET leader_id = ? WHERE id = ?`), leader, userID); err != nil {
		return nil, domain.StoreFailure("set leader", err)
	}
	return s.GetUser(ctx, userID)
}

// --- tasks ---

const taskSelect = `SELECT t.id, t.title, t.description, t.due_date, t.created_at, t.updated_at,
	t.priority, t.status, t.creator_id, t.responsible_id,
	COALESCE(c.name, ''), COALESCE(c.surname, ''), COALESCE(r.name, ''), COALESCE(r.surname, '')
FROM tasks t
LEFT JOIN users c ON c.id = t.creator_id
LEFT JOIN users r ON r.id = t.responsible_id`

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
		&t.Priority, &t.Status, &t.CreatorID, &t.ResponsibleID,
		&t.CreatorName, &t.CreatorSurname, &t.ResponsibleName, &t.ResponsibleSurname)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) queryTasks(ctx context.Context, op, where, order string, args ...any) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, s.q(taskSelect+` WHERE `+where+` ORDER BY `+order), args...)
	if err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, domain.StoreFailure(op, err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	return tasks, nil
}

// InsertTask stores a task and returns the joined record
func (s *Store) InsertTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	id, err := s.insert(ctx,
		`INSERT INTO tasks (title, description, due_date, created_at, updated_at, priority, status, creator_id, responsible_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.Title, task.Description, task.DueDate, task.CreatedAt.UTC(), task.UpdatedAt.UTC(),
		string(task.Priority), string(task.Status), task.CreatorID, task.ResponsibleID)
	if err != nil {
		return nil, domain.StoreFailure("insert task", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask returns the joined task with id
func (s *Store) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx, s.q(taskSelect+` WHERE t.id = ?`), id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("task", id)
	}
	if err != nil {
		return nil, domain.StoreFailure("get task", err)
	}
	return t, nil
}

// UpdateTaskFields writes the set fields of patch and updated_at
func (s *Store) UpdateTaskFields(ctx context.Context, id int64, patch domain.Patch, updatedAt time.Time) (*domain.Task, error) {
	sets := []string{"updated_at = ?"}
	args := []any{updatedAt.UTC()}

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.DueDate != nil {
		sets = append(sets, "due_date = ?")
		args = append(args, *patch.DueDate)
	}
	if patch.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, string(*patch.Priority))
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.ResponsibleID != nil {
		sets = append(sets, "responsible_id = ?")
		args = append(args, *patch.ResponsibleID)
	}
	args = append(args, id)

	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, s.q(query), args...); err != nil {
		return nil, domain.StoreFailure("update task", err)
	}
	return s.GetTask(ctx, id)
}

// ListTasksForUser returns tasks the user created, is responsible for, or
// whose responsible party reports to the user
func (s *Store) ListTasksForUser(ctx context.Context, userID int64) ([]*domain.Task, error) {
	return s.queryTasks(ctx, "list tasks for user",
		`t.creator_id = ? OR t.responsible_id = ? OR r.leader_id = ?`,
		`t.updated_at DESC, t.id DESC`,
		userID, userID, userID)
}

// ListTasksForResponsible returns tasks assigned to userID
func (s *Store) ListTasksForResponsible(ctx context.Context, userID int64) ([]*domain.Task, error) {
	return s.queryTasks(ctx, "list tasks for responsible",
		`t.responsible_id = ?`,
		`t.updated_at DESC, t.id DESC`,
		userID)
}

// ListTasksByLeader returns tasks whose responsible party reports to leaderID
func (s *Store) ListTasksByLeader(ctx context.Context, leaderID int64) ([]*domain.Task, error) {
	return s.queryTasks(ctx, "list tasks by leader",
		`r.leader_id = ?`,
		`r.surname, r.name, t.updated_at DESC, t.id DESC`,
		leaderID)
}

func (s *Store) insert(ctx context.Context, query string, args ...any) (int64, error) {
	if s.dialect.returning {
		var id int64
		err := s.db.QueryRowContext(ctx, s.q(query+` RETURNING id`), args...).Scan(&id)
		return id, err
	}
	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
