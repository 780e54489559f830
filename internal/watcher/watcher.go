package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ohare93/delegate/internal/store/filestore"
)

// EventType represents the type of file change event
type EventType int

const (
	TasksChanged EventType = iota
	UsersChanged
)

func (t EventType) String() string {
	switch t {
	case TasksChanged:
		return "tasks"
	case UsersChanged:
		return "users"
	default:
		return "unknown"
	}
}

// Event represents a file change event
type Event struct {
	Type EventType
	Path string
}

// Watcher watches a file store directory for changes made by other processes
type Watcher struct {
	watcher *fsnotify.Watcher
	Events  chan Event
	Errors  chan error
	done    chan struct{}
	mu      sync.Mutex
	running bool
}

// New creates a new file watcher
func New() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: fsWatcher,
		Events:  make(chan Event, 100),
		Errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// WatchStore adds a watch on a file store directory. The directory is watched
// rather than the files because writes replace them by rename.
func (w *Watcher) WatchStore(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("store directory does not exist: %s", dir)
	}

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch store directory: %w", err)
	}
	return nil
}

// Start begins watching for file changes
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.eventLoop()
}

// eventLoop processes file system events
func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// A rename onto the target shows up as Create
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			e := classifyEvent(event.Name)
			if e != nil {
				// Non-blocking send
				select {
				case w.Events <- *e:
				default:
					// Channel full, skip event
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		}
	}
}

// classifyEvent maps a path to an event, or nil for files nobody cares about
// (temp files, the lock)
func classifyEvent(path string) *Event {
	switch filepath.Base(path) {
	case filestore.TasksFile:
		return &Event{Type: TasksChanged, Path: path}
	case filestore.UsersFile:
		return &Event{Type: UsersChanged, Path: path}
	default:
		return nil
	}
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return w.watcher.Close()
	}

	close(w.done)
	w.running = false
	return w.watcher.Close()
}

// Close is an alias for Stop
func (w *Watcher) Close() error {
	return w.Stop()
}
