package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// ErrAlreadyRunning indicates another process holds the state directory.
var ErrAlreadyRunning = errors.New("state directory is locked by another instance")

// DirLock guards a state directory with flock(2) so two instances never
// write the same bbolt database or search index. The lock is released
// automatically if the process crashes.
type DirLock struct {
	path string
	file *os.File
}

// NewDirLock creates a lock for the given state directory.
func NewDirLock(stateDir string) *DirLock {
	return &DirLock{path: filepath.Join(stateDir, "mdshelf.lock")}
}

// TryLock attempts to acquire the lock without blocking. It returns
// ErrAlreadyRunning when another process holds it.
func (l *DirLock) TryLock() error {
	if l.file != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) {
			return ErrAlreadyRunning
		}
		return fmt.Errorf("flock failed: %w", err)
	}

	l.file = file
	return nil
}

// Unlock releases the lock. Calling Unlock on an unlocked DirLock is a no-op.
func (l *DirLock) Unlock() error {
	if l.file == nil {
		return nil
	}
	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("flock unlock failed: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close failed: %w", closeErr)
	}
	return nil
}

// Path returns the lock file path.
func (l *DirLock) Path() string {
	return l.path
}
