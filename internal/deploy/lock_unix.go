// SPDX-License-Identifier: MPL-2.0

//go:build unix

package deploy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Lock holds a non-blocking exclusive flock on the lock file inside the
// game directory, refusing concurrent runs against the same target.
type Lock struct {
	file *os.File
}

// AcquireLock opens (or creates) the lock file in targetDir and takes an
// exclusive flock without blocking. Returns ErrLocked when another
// process already holds it.
func AcquireLock(targetDir string) (*Lock, error) {
	lockPath := filepath.Join(targetDir, lockFileName)

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", lockPath, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("flock %s: %w", lockPath, err)
	}

	return &Lock{file: f}, nil
}

// Release unlocks the flock and closes the descriptor. Safe to call more
// than once; subsequent calls are no-ops.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	// LOCK_UN before Close for explicitness; Close also releases the flock.
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
