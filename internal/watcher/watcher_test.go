package watcher

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ohare93/delegate/internal/domain"
	"github.com/ohare93/delegate/internal/store/filestore"
)

func TestNewWatcher(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer w.Close()

	if w.Events == nil {
		t.Error("Events channel should not be nil")
	}
	if w.Errors == nil {
		t.Error("Errors channel should not be nil")
	}
}

func TestWatchStore_MissingDir(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer w.Close()

	if err := w.WatchStore(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for missing store directory")
	}
}

func TestClassifyEvent(t *testing.T) {
	tests := []struct {
		path string
		want *EventType
	}{
		{"/data/.delegate/tasks.jsonl", ptr(TasksChanged)},
		{"/data/.delegate/users.jsonl", ptr(UsersChanged)},
		{"/data/.delegate/tasks.jsonl.tmp", nil},
		{"/data/.delegate/store.lock", nil},
	}
	for _, tt := range tests {
		got := classifyEvent(tt.path)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("classifyEvent(%s) = %v, want nil", tt.path, got.Type)
		case tt.want != nil && (got == nil || got.Type != *tt.want):
			t.Errorf("classifyEvent(%s) = %v, want %v", tt.path, got, *tt.want)
		}
	}
}

func TestWatcherSeesStoreWrites(t *testing.T) {
	store, err := filestore.Open(filepath.Join(t.TempDir(), filestore.DefaultDir))
	if err != nil {
		t.Fatalf("filestore.Open() error = %v", err)
	}

	w, err := New()
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer w.Close()

	if err := w.WatchStore(store.Dir()); err != nil {
		t.Fatalf("Failed to watch store: %v", err)
	}
	w.Start()

	// Give the watcher time to start
	time.Sleep(50 * time.Millisecond)

	_, err = store.InsertUser(context.Background(), &domain.User{Login: "a", Name: "A", Surname: "B", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("InsertUser() error = %v", err)
	}

	select {
	case event := <-w.Events:
		if event.Type != UsersChanged {
			t.Errorf("Expected UsersChanged, got %v", event.Type)
		}
	case <-time.After(2 * time.Second):
		t.Error("Timeout waiting for users change event")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	w.Start()
	w.Start()

	if err := w.Stop(); err != nil {
		t.Errorf("First stop failed: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Second stop failed: %v", err)
	}
}

func ptr(t EventType) *EventType { return &t }
