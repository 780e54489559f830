package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const (
	lockFile     = "store.lock"
	lockInfoFile = "store.lock.info"

	lockRetryDelay = 10 * time.Millisecond
)

// LockInfo describes the process holding the write lock
type LockInfo struct {
	Token     string    `json:"token"`
	PID       int       `json:"pid"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
}

// LockedError is returned when the store lock could not be taken before the
// context expired
type LockedError struct {
	Holder *LockInfo
	Err    error
}

func (e *LockedError) Error() string {
	if e.Holder != nil {
		return fmt.Sprintf("store is locked by pid %d on %s since %s",
			e.Holder.PID, e.Holder.Hostname, e.Holder.StartedAt.Format(time.RFC3339))
	}
	return "store is locked by another process"
}

func (e *LockedError) Unwrap() error {
	return e.Err
}

// withReadLock runs fn while holding a shared lock on the store directory
func (s *Store) withReadLock(ctx context.Context, fn func() error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fileLock := flock.New(s.lockPath)
	locked, err := fileLock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return s.lockFailure(err)
	}
	defer fileLock.Unlock()

	return fn()
}

// withWriteLock runs fn while holding an exclusive lock. The holder is
// recorded in a separate info file so a waiting process can report it.
func (s *Store) withWriteLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fileLock := flock.New(s.lockPath)
	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return s.lockFailure(err)
	}
	defer func() {
		_ = os.Remove(s.lockInfoPath)
		fileLock.Unlock()
	}()

	hostname, _ := os.Hostname()
	info := LockInfo{
		Token:     uuid.NewString(),
		PID:       os.Getpid(),
		Hostname:  hostname,
		StartedAt: time.Now(),
	}
	if data, err := json.Marshal(info); err == nil {
		// Best effort; the OS-level lock is what serializes writers
		_ = os.WriteFile(s.lockInfoPath, data, 0644)
	}

	return fn()
}

func (s *Store) lockFailure(err error) error {
	if err == nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		info, _ := readLockInfo(s.lockInfoPath)
		return &LockedError{Holder: info, Err: err}
	}
	return fmt.Errorf("failed to acquire lock: %w", err)
}

// readLockInfo reads the lock holder info file
func readLockInfo(path string) (*LockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}

	return &info, nil
}
