package sqlstore

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Supported driver names, as registered with database/sql
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type dialect struct {
	driver    string
	returning bool // INSERT ... RETURNING id instead of LastInsertId
	schema    []string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		driver: DriverSQLite,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				surname TEXT NOT NULL,
				patronymic TEXT NOT NULL DEFAULT '',
				login TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				leader_id INTEGER REFERENCES users(id)
			)`,
			`CREATE TABLE IF NOT EXISTS tasks (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				due_date TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				priority TEXT NOT NULL,
				status TEXT NOT NULL,
				creator_id INTEGER NOT NULL REFERENCES users(id),
				responsible_id INTEGER NOT NULL REFERENCES users(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_users_leader ON users(leader_id)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_responsible ON tasks(responsible_id)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_creator ON tasks(creator_id)`,
		},
	},
	DriverPostgres: {
		driver:    DriverPostgres,
		returning: true,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL,
				surname TEXT NOT NULL,
				patronymic TEXT NOT NULL DEFAULT '',
				login TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				leader_id BIGINT REFERENCES users(id)
			)`,
			`CREATE TABLE IF NOT EXISTS tasks (
				id BIGSERIAL PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				due_date DATE NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL,
				priority TEXT NOT NULL,
				status TEXT NOT NULL,
				creator_id BIGINT NOT NULL REFERENCES users(id),
				responsible_id BIGINT NOT NULL REFERENCES users(id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_users_leader ON users(leader_id)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_responsible ON tasks(responsible_id)`,
			`CREATE INDEX IF NOT EXISTS idx_tasks_creator ON tasks(creator_id)`,
		},
	},
	DriverMySQL: {
		driver: DriverMySQL,
		schema: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				surname VARCHAR(255) NOT NULL,
				patronymic VARCHAR(255) NOT NULL DEFAULT '',
				login VARCHAR(255) NOT NULL UNIQUE,
				password_hash VARCHAR(255) NOT NULL,
				leader_id BIGINT NULL,
				INDEX idx_users_leader (leader_id),
				FOREIGN KEY (leader_id) REFERENCES users(id)
			)`,
			`CREATE TABLE IF NOT EXISTS tasks (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				description TEXT NOT NULL,
				due_date DATE NOT NULL,
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL,
				priority VARCHAR(16) NOT NULL,
				status VARCHAR(16) NOT NULL,
				creator_id BIGINT NOT NULL,
				responsible_id BIGINT NOT NULL,
				INDEX idx_tasks_responsible (responsible_id),
				INDEX idx_tasks_creator (creator_id),
				FOREIGN KEY (creator_id) REFERENCES users(id),
				FOREIGN KEY (responsible_id) REFERENCES users(id)
			)`,
		},
	},
}

func dialectFor(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported driver: %s (must be sqlite3|postgres|mysql)", driver)
	}
	return d, nil
}

// rebind rewrites ? placeholders to $n for postgres. Queries in this package
// never contain a literal question mark.
func (d dialect) rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// prepareDSN adds the connection options this package relies on
func (d dialect) prepareDSN(dsn string) (string, error) {
	switch d.driver {
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		return cfg.FormatDSN(), nil

	case DriverSQLite:
		path, query, _ := strings.Cut(dsn, "?")
		params, err := url.ParseQuery(query)
		if err != nil {
			return "", fmt.Errorf("invalid sqlite dsn: %w", err)
		}
		if params.Get("_busy_timeout") == "" {
			params.Set("_busy_timeout", "5000")
		}
		if params.Get("_foreign_keys") == "" {
			params.Set("_foreign_keys", "on")
		}
		return path + "?" + params.Encode(), nil

	default:
		return dsn, nil
	}
}

// isUniqueViolation reports whether err is the driver's unique constraint error
func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}
