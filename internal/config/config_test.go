package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != DefaultHTTPAddr || cfg.Store.Driver != DriverFile || cfg.Store.MaxOpenConns != 20 {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if cfg.Store.ConnMaxIdleTime != 30*time.Second {
		t.Errorf("ConnMaxIdleTime = %s, want 30s", cfg.Store.ConnMaxIdleTime)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
env: dev
timezone: Europe/Moscow
http:
  addr: ":8080"
store:
  driver: postgres
  dsn: postgres://localhost/delegate
  conn_max_idle_time: 1m
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Env != EnvDev || cfg.HTTP.Addr != ":8080" || cfg.Store.Driver != DriverPostgres {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.Store.ConnMaxIdleTime != time.Minute {
		t.Errorf("ConnMaxIdleTime = %s, want 1m", cfg.Store.ConnMaxIdleTime)
	}
	// Unset keys keep their defaults
	if cfg.Store.MaxIdleConns != DefaultMaxIdleConns {
		t.Errorf("MaxIdleConns = %d, want %d", cfg.Store.MaxIdleConns, DefaultMaxIdleConns)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Europe/Moscow" {
		t.Errorf("Location() = %v, %v", loc, err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "store:\n  driver: file\n")
	t.Setenv("DELEGATE_STORE_DRIVER", "sqlite3")
	t.Setenv("DELEGATE_STORE_DSN", "/tmp/delegate.db")
	t.Setenv("DELEGATE_HTTP_ADDR", ":9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Store.DSN != "/tmp/delegate.db" || cfg.HTTP.Addr != ":9999" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"unknown key", "colour: blue\n", "colour"},
		{"unknown driver", "store:\n  driver: redis\n", "invalid store.driver"},
		{"sql without dsn", "store:\n  driver: mysql\n", "store.dsn is required"},
		{"unknown env", "env: staging\n", "invalid env"},
		{"unknown timezone", "timezone: Mars/Olympus\n", "invalid timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Env = EnvProd
	cfg.Store.Dir = "/var/lib/delegate"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Env != EnvProd || loaded.Store.Dir != "/var/lib/delegate" || loaded.Store.ConnMaxIdleTime != cfg.Store.ConnMaxIdleTime {
		t.Errorf("Load() = %+v, want %+v", loaded, cfg)
	}
}
