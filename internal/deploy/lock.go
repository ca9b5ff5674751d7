// SPDX-License-Identifier: MPL-2.0

package deploy

import "errors"

// lockFileName is the advisory lock file created in the game directory
// for the duration of a run. The zero-byte file is harmless if orphaned:
// the kernel releases the flock when the descriptor closes, including on
// process crash.
const lockFileName = ".omoritr-installer.lock"

// ErrLocked indicates another installer run currently holds the lock on
// the same game directory.
var ErrLocked = errors.New("another installer run is already working on this game directory")
