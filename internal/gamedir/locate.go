// SPDX-License-Identifier: MPL-2.0

package gamedir

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// steamGameSubdir is where Steam installs OMORI inside a library folder.
const steamGameSubdir = "steamapps/common/OMORI"

var (
	// ErrNotFound indicates no directory containing the expected marker
	// files could be located.
	ErrNotFound = errors.New("game installation not found")

	// ErrAmbiguous indicates multiple distinct directories qualify and
	// the user must pick one explicitly.
	ErrAmbiguous = errors.New("multiple game installations found")

	// ErrNotWritable indicates the located directory cannot be written
	// by the current user.
	ErrNotWritable = errors.New("game directory is not writable")
)

// Options configures Locate.
type Options struct {
	// Markers are the relative paths that must exist inside a candidate
	// directory. Defaults to {"OMORI.exe"} when empty.
	Markers []string

	// SteamRoots overrides the platform Steam root candidates,
	// primarily for tests.
	SteamRoots []string

	// Logger receives candidate-by-candidate discovery details at debug
	// level. Nil discards them.
	Logger *log.Logger
}

func (o *Options) markers() []string {
	if len(o.Markers) == 0 {
		return []string{"OMORI.exe"}
	}
	return o.Markers
}

func (o *Options) logger() *log.Logger {
	if o.Logger == nil {
		return log.New(io.Discard)
	}
	return o.Logger
}

// Locate determines the game installation directory. An explicit hint is
// validated and returned; otherwise Steam libraries are searched. The
// returned path is absolute, marker-verified, and writable.
func Locate(hint string, opts Options) (string, error) {
	logger := opts.logger()

	if hint != "" {
		abs, err := filepath.Abs(hint)
		if err != nil {
			return "", fmt.Errorf("resolving path %s: %w", hint, err)
		}
		logger.Debug("validating user-supplied game directory", "dir", abs)
		if err := validate(abs, opts.markers()); err != nil {
			return "", err
		}
		return abs, nil
	}

	roots := opts.SteamRoots
	if roots == nil {
		roots = steamRoots()
	}

	var candidates []string
	for _, root := range roots {
		logger.Debug("checking steam root", "root", root)
		if _, err := os.Stat(root); err != nil {
			continue
		}
		for _, lib := range libraryDirs(root, logger) {
			dir := filepath.Join(lib, filepath.FromSlash(steamGameSubdir))
			logger.Debug("checking library candidate", "dir", dir)
			if hasMarkers(dir, opts.markers()) {
				candidates = appendDistinct(candidates, dir)
			}
		}
	}

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("%w: no Steam library contains %s", ErrNotFound, strings.Join(opts.markers(), ", "))
	case 1:
		logger.Debug("game found", "dir", candidates[0])
		if err := checkWritable(candidates[0]); err != nil {
			return "", err
		}
		return candidates[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguous, strings.Join(candidates, ", "))
	}
}

// validate checks that dir exists, carries every marker, and is writable.
func validate(dir string, markers []string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotFound, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrNotFound, dir)
	}

	for _, marker := range markers {
		markerPath := filepath.Join(dir, filepath.FromSlash(marker))
		if _, err := os.Stat(markerPath); err != nil {
			return fmt.Errorf("%w: %s does not look like an OMORI installation (missing %s)", ErrNotFound, dir, marker)
		}
	}

	return checkWritable(dir)
}

// hasMarkers reports whether every marker exists under dir.
func hasMarkers(dir string, markers []string) bool {
	for _, marker := range markers {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(marker))); err != nil {
			return false
		}
	}
	return true
}

// checkWritable probes dir with a real file creation so a permission
// problem surfaces before the deployer has touched anything.
func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".omoritr-writecheck-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotWritable, dir, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

// appendDistinct appends dir to list unless an equivalent path (after
// symlink resolution) is already present.
func appendDistinct(list []string, dir string) []string {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = filepath.Clean(dir)
	}
	for _, existing := range list {
		existingResolved, err := filepath.EvalSymlinks(existing)
		if err != nil {
			existingResolved = filepath.Clean(existing)
		}
		if existingResolved == resolved {
			return list
		}
	}
	return append(list, dir)
}

// libraryDirs returns every Steam library folder reachable from root:
// the root itself plus each "path" entry in steamapps/libraryfolders.vdf.
func libraryDirs(root string, logger *log.Logger) []string {
	dirs := []string{root}

	vdfPath := filepath.Join(root, "steamapps", "libraryfolders.vdf")
	data, err := os.ReadFile(vdfPath)
	if err != nil {
		return dirs
	}
	logger.Debug("scanning library map", "file", vdfPath)

	for _, p := range parseLibraryFolders(string(data)) {
		if !filepath.IsAbs(p) {
			logger.Debug("skipping non-absolute library path", "path", p)
			continue
		}
		if _, err := os.Stat(p); err != nil {
			logger.Debug("skipping missing library path", "path", p)
			continue
		}
		dirs = appendDistinct(dirs, p)
	}

	return dirs
}
