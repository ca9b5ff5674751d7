// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadRecordMissingMeansFreshInstall(t *testing.T) {
	rec, err := ReadRecord(t.TempDir())
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if rec != nil {
		t.Errorf("want nil record for a directory without one, got %+v", rec)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	dir := t.TempDir()

	want := &Record{
		InstalledVersion: "2.3",
		InstalledAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Files:            []string{"www/mods/omoritr/mod.json", "www/mods/omoritr/tr.json"},
		BackupDir:        filepath.Join(dir, "backup-x"),
		Backups: []BackupEntry{
			{Path: "www/mods/omoritr/mod.json", Backup: filepath.Join(dir, "backup-x", "mod.json")},
		},
	}

	if err := WriteRecord(dir, want); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	got, err := ReadRecord(dir)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if got.InstalledVersion != want.InstalledVersion {
		t.Errorf("InstalledVersion = %q, want %q", got.InstalledVersion, want.InstalledVersion)
	}
	if !got.InstalledAt.Equal(want.InstalledAt) {
		t.Errorf("InstalledAt = %v, want %v", got.InstalledAt, want.InstalledAt)
	}
	if len(got.Files) != 2 || got.Files[0] != want.Files[0] {
		t.Errorf("Files = %v, want %v", got.Files, want.Files)
	}
	if len(got.Backups) != 1 || got.Backups[0] != want.Backups[0] {
		t.Errorf("Backups = %v, want %v", got.Backups, want.Backups)
	}
}

func TestReadRecordMalformed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, RecordFileName), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadRecord(dir); err == nil {
		t.Error("want an error for a malformed record")
	}
}

func TestWriteRecordLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := WriteRecord(dir, &Record{InstalledVersion: "2.1"}); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != RecordFileName {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("directory contents = %v, want only %s", names, RecordFileName)
	}
}
