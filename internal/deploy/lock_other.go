// SPDX-License-Identifier: MPL-2.0

//go:build !unix

package deploy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Lock marks a game directory as in-use via an exclusively created lock
// file. Unlike the flock variant there is no kernel-side cleanup, so a
// crashed run can leave the file behind; Release removes it on the
// normal path and a stale file must be deleted by hand.
type Lock struct {
	path string
}

// AcquireLock creates the lock file in targetDir with O_EXCL. Returns
// ErrLocked when the file already exists.
func AcquireLock(targetDir string) (*Lock, error) {
	lockPath := filepath.Join(targetDir, lockFileName)

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("create lock file %s: %w", lockPath, err)
	}
	_ = f.Close()

	return &Lock{path: lockPath}, nil
}

// Release removes the lock file. Safe to call more than once.
func (l *Lock) Release() {
	if l == nil || l.path == "" {
		return
	}
	_ = os.Remove(l.path)
	l.path = ""
}
