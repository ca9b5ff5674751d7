// SPDX-License-Identifier: MPL-2.0

//go:build windows

package gamedir

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

// steamRoots returns the Steam install root candidates on Windows. The
// registry value Steam itself maintains comes first; the conventional
// Program Files location is a fallback for broken registrations.
func steamRoots() []string {
	var roots []string

	if p := registrySteamPath(); p != "" {
		roots = append(roots, p)
	}

	if pf := os.Getenv("ProgramFiles(x86)"); pf != "" {
		roots = append(roots, filepath.Join(pf, "Steam"))
	}

	return roots
}

// registrySteamPath reads HKCU\SOFTWARE\Valve\Steam\SteamPath, the same
// value the Steam client writes on installation. Returns "" when the key
// is absent.
func registrySteamPath() string {
	key, err := registry.OpenKey(registry.CURRENT_USER, `SOFTWARE\Valve\Steam`, registry.QUERY_VALUE)
	if err != nil {
		return ""
	}
	defer key.Close()

	p, _, err := key.GetStringValue("SteamPath")
	if err != nil {
		return ""
	}
	return filepath.FromSlash(p)
}
