// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
)

// SupportedVersion is the manifest format version this installer
// understands. The server bumps it when the wire format changes in a way
// old installers cannot handle.
const SupportedVersion = 1

var (
	// ErrInvalid indicates the server returned a document that is not a
	// well-formed, complete manifest.
	ErrInvalid = errors.New("invalid manifest")

	// ErrUnsupportedVersion indicates the manifest format is newer than
	// this installer understands; the user must update the installer.
	ErrUnsupportedVersion = errors.New("unsupported manifest version")
)

// Manifest describes the latest available translation package. It is
// immutable once fetched; every run fetches a fresh copy.
type Manifest struct {
	// Version is the package version identifier. Comparison against the
	// installed version is plain equality; the manifest is authoritative.
	Version string

	// PayloadURL is the download location of the package archive.
	PayloadURL string

	// Filename is the archive's file name, used for the staging file.
	Filename string

	// SHA256 is the lowercase hex-encoded digest of the archive.
	SHA256 string

	// Target is the directory inside the game installation the archive
	// is extracted into, slash-separated and relative ("" = game root).
	Target string

	// Files optionally lists the slash-separated relative paths (under
	// Target) the payload will write, for pre-flight checks.
	Files []string

	// Notes optionally carries Markdown release notes.
	Notes string
}

// manifestDoc is the JSON wire format of the manifest document.
type manifestDoc struct {
	ManifestVersion int        `json:"manifestVersion"`
	Package         packageDoc `json:"package"`
}

// packageDoc is the JSON wire format of the package description.
type packageDoc struct {
	Version  string   `json:"version"`
	URL      string   `json:"url"`
	Filename string   `json:"filename"`
	SHA256   string   `json:"sha256"`
	Target   string   `json:"target"`
	Files    []string `json:"files,omitempty"`
	Notes    string   `json:"notes,omitempty"`
}

// validate checks the decoded document for completeness and rejects path
// fields that could escape the game directory.
func (d *manifestDoc) validate() error {
	if d.ManifestVersion != SupportedVersion {
		return fmt.Errorf("%w: got %d, installer supports %d",
			ErrUnsupportedVersion, d.ManifestVersion, SupportedVersion)
	}

	p := d.Package
	if p.Version == "" {
		return fmt.Errorf("%w: package.version is empty", ErrInvalid)
	}
	if p.URL == "" {
		return fmt.Errorf("%w: package.url is empty", ErrInvalid)
	}
	if p.Filename == "" || p.Filename != filepath.Base(p.Filename) {
		return fmt.Errorf("%w: package.filename %q is not a bare file name", ErrInvalid, p.Filename)
	}
	if !isValidHexDigest(p.SHA256) {
		return fmt.Errorf("%w: package.sha256 %q is not a 64-character hex digest", ErrInvalid, p.SHA256)
	}
	if p.Target != "" && !isLocalRel(p.Target) {
		return fmt.Errorf("%w: package.target %q escapes the game directory", ErrInvalid, p.Target)
	}
	for _, f := range p.Files {
		if !isLocalRel(f) {
			return fmt.Errorf("%w: file entry %q escapes the game directory", ErrInvalid, f)
		}
	}

	return nil
}

// toManifest converts the wire document into the exported Manifest value.
func (d *manifestDoc) toManifest() *Manifest {
	return &Manifest{
		Version:    d.Package.Version,
		PayloadURL: d.Package.URL,
		Filename:   d.Package.Filename,
		SHA256:     d.Package.SHA256,
		Target:     d.Package.Target,
		Files:      d.Package.Files,
		Notes:      d.Package.Notes,
	}
}

// isLocalRel reports whether the slash-separated path p stays inside the
// directory it is joined to: relative, no "..", no absolute component.
func isLocalRel(p string) bool {
	return filepath.IsLocal(filepath.FromSlash(p))
}

// isValidHexDigest checks if s is a 64-character hex-encoded SHA256 digest.
func isValidHexDigest(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}
