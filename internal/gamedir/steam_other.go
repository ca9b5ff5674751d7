// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package gamedir

import (
	"os"
	"path/filepath"
	"runtime"
)

// steamRoots returns the conventional Steam install roots on Linux and
// macOS, including the Flatpak location.
func steamRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	if runtime.GOOS == "darwin" {
		return []string{
			filepath.Join(home, "Library", "Application Support", "Steam"),
		}
	}

	return []string{
		filepath.Join(home, ".local/share/Steam"),
		filepath.Join(home, ".steam/steam"),
		filepath.Join(home, ".steam/root"),
		filepath.Join(home, ".var/app/com.valvesoftware.Steam/data/Steam"),
	}
}
