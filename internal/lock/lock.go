// Package lock enforces the single-writer-at-a-time discipline for
// organize and undo runs with an advisory lock file.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrHeld indicates another process currently owns the lock.
var ErrHeld = errors.New("another run is already in progress")

// RunLock guards a state directory against concurrent organize/undo runs.
type RunLock struct {
	fl *flock.Flock
}

// Acquire takes the lock file under dir without blocking. It fails with
// ErrHeld when another invocation holds it.
func Acquire(dir string) (*RunLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	fl := flock.New(filepath.Join(dir, "run.lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrHeld
	}
	return &RunLock{fl: fl}, nil
}

// Release drops the lock.
func (l *RunLock) Release() error {
	return l.fl.Unlock()
}
