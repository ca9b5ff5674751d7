// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// RecordFileName is the installation record's file name inside the game
// directory.
const RecordFileName = "omoritr-install.json"

// BackupEntry maps a file the deployer overwrote to the backup copy taken
// immediately before the write.
type BackupEntry struct {
	// Path is the slash-separated path relative to the game directory.
	Path string `json:"path"`

	// Backup is the absolute path of the pre-write copy.
	Backup string `json:"backup"`
}

// Record is the persisted installation state for a game directory. It is
// created on the first successful install and overwritten on each
// subsequent one; it is never written on a failed run.
type Record struct {
	// InstalledVersion is the package version currently deployed.
	InstalledVersion string `json:"installedVersion"`

	// InstalledAt is when the install committed.
	InstalledAt time.Time `json:"installedAt"`

	// Files lists every slash-separated relative path the install wrote,
	// so a later restore can also remove pure additions.
	Files []string `json:"files"`

	// BackupDir is the backup set taken by the recorded install.
	BackupDir string `json:"backupDir,omitempty"`

	// Backups maps overwritten files to their pre-install copies.
	Backups []BackupEntry `json:"backups,omitempty"`
}

// ReadRecord loads the installation record from targetDir. A missing
// record is not an error; it returns (nil, nil), meaning fresh install.
func ReadRecord(targetDir string) (*Record, error) {
	path := filepath.Join(targetDir, RecordFileName)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading installation record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing installation record %s: %w", path, err)
	}

	return &rec, nil
}

// WriteRecord persists rec atomically: the JSON is written to a temp file
// in the same directory and renamed over the record, so a crash mid-write
// cannot leave a truncated record.
func WriteRecord(targetDir string, rec *Record) (err error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding installation record: %w", err)
	}

	tmp, err := os.CreateTemp(targetDir, RecordFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating record temp file: %w", err)
	}

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing record temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing record temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(targetDir, RecordFileName)); err != nil {
		return fmt.Errorf("replacing installation record: %w", err)
	}
	renamed = true

	return nil
}
