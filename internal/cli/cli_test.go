package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ohare93/delegate/internal/domain"
)

type testEnv struct {
	dataDir    string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv(envPassword, "pw")
	t.Setenv(envUser, "")
	return &testEnv{
		dataDir:    filepath.Join(tmp, ".delegate"),
		configPath: filepath.Join(tmp, "config.yaml"),
	}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath, "--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("delegate %s: error = %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	today := time.Now().Format("2006-01-02")
	later := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	content := `users:
  - {login: alice, password: pw, name: Alice, surname: Smith, leader: boss}
  - {login: boss, password: pw, name: Dina, surname: Director}
  - {login: bob, password: pw, name: Bob, surname: Brown, leader: alice}
tasks:
  - {title: Quarterly report, due_date: ` + today + `, priority: high, creator: boss, responsible: alice}
  - {title: Onboarding, due_date: ` + later + `, priority: low, creator: alice, responsible: bob}
`
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write seed: %v", err)
	}
	out := e.mustRun(t, "user", "import", path)
	if !strings.Contains(out, "Imported 3 users") || !strings.Contains(out, "2 leader links, 2 tasks") {
		t.Fatalf("unexpected import output: %s", out)
	}
}

func TestImportResolvesForwardLeaders(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)

	out := e.mustRun(t, "user", "subordinates", "boss")
	if !strings.Contains(out, "alice") || strings.Contains(out, "bob") {
		t.Errorf("boss subordinates = %s, want only alice", out)
	}

	out = e.mustRun(t, "user", "show", "bob")
	if !strings.Contains(out, "Brown Bob") {
		t.Errorf("user show = %s", out)
	}
}

func TestImportIsRepeatable(t *testing.T) {
	e := newTestEnv(t)
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := "users:\n  - {login: boss, password: pw, name: Dina, surname: Director}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write seed: %v", err)
	}

	e.mustRun(t, "user", "import", path)
	out := e.mustRun(t, "user", "import", path)
	if !strings.Contains(out, "Imported 0 users (1 already present)") {
		t.Errorf("second import output = %s", out)
	}
}

func TestParseSeedRejectsUnknownFields(t *testing.T) {
	_, err := parseSeed(strings.NewReader("users:\n  - {login: a, boss: b}\n"))
	if err == nil {
		t.Fatal("Expected error for unknown seed field")
	}
}

func TestTaskListGroups(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)

	out := e.mustRun(t, "task", "list", "--as", "alice", "--group", "date")
	if !strings.Contains(out, "today (1)") || !strings.Contains(out, "Quarterly report") {
		t.Errorf("date view = %s", out)
	}
	// alice's own assignment to bob is not in her date view
	if strings.Contains(out, "Onboarding") {
		t.Errorf("date view should only hold alice's own tasks: %s", out)
	}

	out = e.mustRun(t, "task", "list", "--as", "boss", "--group", "responsible")
	if !strings.Contains(out, "Smith Alice (1)") {
		t.Errorf("responsible view = %s", out)
	}

	if _, err := e.run(t, "task", "list", "--as", "boss", "--group", "month"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("unknown group error = %v, want validation", err)
	}
}

func TestTaskCreateAndUpdate(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)

	out := e.mustRun(t, "task", "create", "--as", "boss", "--responsible", "alice",
		"--title", "Budget", "--due", "2030-01-01", "--priority", "medium")
	if !strings.Contains(out, "Created task #3 for Smith Alice") {
		t.Fatalf("create output = %s", out)
	}

	t.Run("create for a non-subordinate", func(t *testing.T) {
		_, err := e.run(t, "task", "create", "--as", "boss", "--responsible", "bob",
			"--title", "Skip level", "--due", "2030-01-01")
		if got, _ := domain.ReasonOf(err); got != domain.ReasonNotSubordinate {
			t.Errorf("reason = %q (err %v), want not_subordinate", got, err)
		}
	})

	t.Run("responsible may only change status", func(t *testing.T) {
		_, err := e.run(t, "task", "update", "3", "--as", "alice", "--title", "Mine now")
		if got, _ := domain.ReasonOf(err); got != domain.ReasonStatusOnly {
			t.Errorf("reason = %q (err %v), want status_only", got, err)
		}

		out := e.mustRun(t, "task", "update", "3", "--as", "alice", "--status", "in_progress")
		if !strings.Contains(out, "in_progress") {
			t.Errorf("update output = %s", out)
		}
	})

	t.Run("creator edits any field", func(t *testing.T) {
		e.mustRun(t, "task", "update", "3", "--as", "boss", "--title", "Budget 2030", "--description", "draft")
		out := e.mustRun(t, "task", "show", "3", "--as", "boss")
		for _, want := range []string{"Budget 2030", "draft", "in_progress"} {
			if !strings.Contains(out, want) {
				t.Errorf("show output missing %q: %s", want, out)
			}
		}
	})

	t.Run("outsider cannot view", func(t *testing.T) {
		_, err := e.run(t, "task", "show", "3", "--as", "bob")
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("error = %v, want forbidden", err)
		}
	})
}

func TestTaskCommandsNeedUser(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)

	if _, err := e.run(t, "task", "list"); err == nil || !strings.Contains(err.Error(), "--as") {
		t.Errorf("error = %v, want hint about --as", err)
	}

	t.Setenv(envPassword, "wrong")
	if _, err := e.run(t, "task", "list", "--as", "boss"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("error = %v, want unauthorized", err)
	}
}

func TestSetLeaderRejectsCycle(t *testing.T) {
	e := newTestEnv(t)
	e.seed(t)

	if _, err := e.run(t, "user", "set-leader", "boss", "bob"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("error = %v, want validation error for a cycle", err)
	}

	out := e.mustRun(t, "user", "set-leader", "bob", "none")
	if !strings.Contains(out, "reports to nobody") {
		t.Errorf("set-leader output = %s", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	e := newTestEnv(t)

	out := e.mustRun(t, "config", "init")
	if !strings.Contains(out, e.configPath) {
		t.Errorf("init output = %s", out)
	}
	if _, err := e.run(t, "config", "init"); err == nil {
		t.Error("Expected second init without --force to fail")
	}

	out = e.mustRun(t, "config", "show")
	if !strings.Contains(out, "driver: file") || !strings.Contains(out, "dir: "+e.dataDir) {
		t.Errorf("show output = %s", out)
	}
}
