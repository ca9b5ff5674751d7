// SPDX-License-Identifier: MPL-2.0

package deploy

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// maxEntryBytes is the upper bound on a single extracted file (2 GB).
// Prevents decompression bombs in a hostile or corrupt archive.
const maxEntryBytes = 2 << 30

var (
	// ErrBackup indicates the pre-write backup phase failed. Nothing
	// irreversible has happened; the target directory is untouched.
	ErrBackup = errors.New("backup failed")

	// ErrDeploy indicates the write or verify phase failed. The target
	// directory has been rolled back to its pre-run state.
	ErrDeploy = errors.New("deploy failed")
)

type (
	// Deployer applies package archives to a game directory. Backups are
	// staged under backupRoot, outside the target tree, in a fresh
	// directory per run.
	Deployer struct {
		targetDir  string
		backupRoot string
		logger     *log.Logger
	}

	// Option configures a Deployer during construction.
	Option func(*Deployer)

	// Applied describes a successfully applied (but not yet committed)
	// deploy: the files written and the backup set that can still undo it.
	Applied struct {
		// Files are the slash-separated relative paths written.
		Files []string

		// BackupDir holds this run's backup set.
		BackupDir string

		// Backups maps overwritten files to their pre-write copies.
		Backups []BackupEntry
	}

	// plannedFile pairs an archive entry with its target-relative path.
	plannedFile struct {
		rel string
		zf  *zip.File
	}
)

// WithLogger sets the logger for phase and rollback diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(d *Deployer) {
		d.logger = l
	}
}

// New creates a Deployer for targetDir that stages backups under
// backupRoot.
func New(targetDir, backupRoot string, opts ...Option) *Deployer {
	d := &Deployer{
		targetDir:  targetDir,
		backupRoot: backupRoot,
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Apply deploys the archive at archivePath into the target directory
// under targetSubdir (slash-separated, "" = target root).
//
// Phases: plan the entries, back up every file about to be overwritten,
// write all entries, verify the outputs. A backup failure aborts before
// anything is written (ErrBackup); a write or verify failure restores
// every backed-up file and deletes pure additions before returning
// (ErrDeploy). Either way the target ends fully at the old state or
// fully at the new one.
//
// On success the caller owns the returned Applied value: Commit it to
// make the install permanent, or Revert it to undo.
func (d *Deployer) Apply(archivePath, targetSubdir string) (*Applied, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening archive %s: %w", ErrDeploy, archivePath, err)
	}
	defer func() { _ = zr.Close() }() // read-only archive handle

	plan, err := planEntries(&zr.Reader, targetSubdir)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("planned deploy", "files", len(plan), "target", d.targetDir)

	// BackingUp: copy everything about to be overwritten before any
	// destructive write, so rollback stays possible until commit.
	backupDir, backups, err := d.backUp(plan)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("backup complete", "copied", len(backups), "dir", backupDir)

	// Writing: extract every entry over the target.
	written, err := d.writeFiles(plan)
	if err != nil {
		d.rollback(backups, written, backupDir)
		return nil, err
	}

	// Verifying: every expected output must exist before commit.
	if err := d.verifyWritten(plan); err != nil {
		d.rollback(backups, written, backupDir)
		return nil, err
	}

	rels := make([]string, len(plan))
	for i, pf := range plan {
		rels[i] = pf.rel
	}

	return &Applied{
		Files:     rels,
		BackupDir: backupDir,
		Backups:   backups,
	}, nil
}

// Commit persists the installation record for an applied deploy, making
// it permanent. Once the record is on disk the previous generation's
// backup set is superseded and gets discarded; exactly one backup
// generation is kept.
func Commit(targetDir, version string, applied *Applied, prev *Record) (*Record, error) {
	rec := &Record{
		InstalledVersion: version,
		InstalledAt:      time.Now().UTC(),
		Files:            applied.Files,
		BackupDir:        applied.BackupDir,
		Backups:          applied.Backups,
	}

	if err := WriteRecord(targetDir, rec); err != nil {
		return nil, err
	}

	if prev != nil && prev.BackupDir != "" && prev.BackupDir != applied.BackupDir {
		_ = os.RemoveAll(prev.BackupDir)
	}

	return rec, nil
}

// Revert undoes an applied-but-not-committed deploy: backed-up files are
// restored, pure additions are deleted. The backup set is discarded only
// when every restore succeeded.
func (d *Deployer) Revert(applied *Applied) error {
	if err := restoreSet(d.targetDir, applied.Files, applied.Backups, d.logger); err != nil {
		return err
	}
	_ = os.RemoveAll(applied.BackupDir)
	return nil
}

// Restore applies a committed record's backup set, returning the game
// directory to its pre-install state: recorded additions are removed and
// every backed-up file is copied back.
func Restore(targetDir string, rec *Record, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return restoreSet(targetDir, rec.Files, rec.Backups, logger)
}

// planEntries enumerates the archive's file entries and maps each to its
// target-relative path, rejecting anything that would land outside the
// target directory.
func planEntries(zr *zip.Reader, targetSubdir string) ([]plannedFile, error) {
	if targetSubdir != "" && !filepath.IsLocal(filepath.FromSlash(targetSubdir)) {
		return nil, fmt.Errorf("%w: target %q escapes the game directory", ErrDeploy, targetSubdir)
	}

	var plan []plannedFile
	seen := make(map[string]bool)

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(zf.Name)) {
			return nil, fmt.Errorf("%w: archive entry %q escapes the game directory", ErrDeploy, zf.Name)
		}

		rel := path.Join(targetSubdir, zf.Name)
		if seen[rel] {
			return nil, fmt.Errorf("%w: archive contains %q twice", ErrDeploy, rel)
		}
		seen[rel] = true

		plan = append(plan, plannedFile{rel: rel, zf: zf})
	}

	if len(plan) == 0 {
		return nil, fmt.Errorf("%w: archive contains no files", ErrDeploy)
	}

	return plan, nil
}

// backUp copies every file the plan will overwrite into a fresh backup
// directory. A failure here is a no-op rollback: the partial backup set
// is discarded and the target has not been touched.
func (d *Deployer) backUp(plan []plannedFile) (string, []BackupEntry, error) {
	if err := os.MkdirAll(d.backupRoot, 0o755); err != nil {
		return "", nil, fmt.Errorf("%w: creating backup root: %w", ErrBackup, err)
	}

	backupDir, err := os.MkdirTemp(d.backupRoot, "backup-")
	if err != nil {
		return "", nil, fmt.Errorf("%w: creating backup directory: %w", ErrBackup, err)
	}

	var backups []BackupEntry
	for _, pf := range plan {
		targetPath := filepath.Join(d.targetDir, filepath.FromSlash(pf.rel))
		if _, statErr := os.Stat(targetPath); statErr != nil {
			continue // pure addition, nothing to preserve
		}

		backupPath := filepath.Join(backupDir, filepath.FromSlash(pf.rel))
		if err := copyFile(targetPath, backupPath); err != nil {
			_ = os.RemoveAll(backupDir)
			return "", nil, fmt.Errorf("%w: copying %s: %w", ErrBackup, pf.rel, err)
		}
		backups = append(backups, BackupEntry{Path: pf.rel, Backup: backupPath})
	}

	return backupDir, backups, nil
}

// writeFiles extracts every planned entry into the target directory. The
// returned slice lists everything that may have been touched, including a
// final entry whose write failed partway.
func (d *Deployer) writeFiles(plan []plannedFile) ([]string, error) {
	var written []string
	for _, pf := range plan {
		targetPath := filepath.Join(d.targetDir, filepath.FromSlash(pf.rel))
		// Record before writing so a partial file is covered by rollback.
		written = append(written, pf.rel)
		if err := extractFile(pf.zf, targetPath); err != nil {
			return written, fmt.Errorf("%w: writing %s: %w", ErrDeploy, pf.rel, err)
		}
	}
	return written, nil
}

// verifyWritten confirms every planned output exists with the expected
// presence of content before the commit point.
func (d *Deployer) verifyWritten(plan []plannedFile) error {
	for _, pf := range plan {
		targetPath := filepath.Join(d.targetDir, filepath.FromSlash(pf.rel))
		info, err := os.Stat(targetPath)
		if err != nil {
			return fmt.Errorf("%w: verifying %s: %w", ErrDeploy, pf.rel, err)
		}
		if info.Size() == 0 && pf.zf.UncompressedSize64 > 0 {
			return fmt.Errorf("%w: verifying %s: file is empty", ErrDeploy, pf.rel)
		}
	}
	return nil
}

// rollback restores the target after a failed write or verify phase. The
// backup set is removed only if every restore succeeded; otherwise it is
// kept so the copies are not lost.
func (d *Deployer) rollback(backups []BackupEntry, written []string, backupDir string) {
	d.logger.Warn("deploy failed, rolling back", "restores", len(backups))

	if err := restoreSet(d.targetDir, written, backups, d.logger); err != nil {
		d.logger.Error("rollback incomplete, backup set kept", "dir", backupDir, "error", err)
		return
	}
	_ = os.RemoveAll(backupDir)
}

// restoreSet removes the pure additions among files and copies every
// backup entry over its original path. All failures are collected; a
// partial restore reports everything that went wrong.
func restoreSet(targetDir string, files []string, backups []BackupEntry, logger *log.Logger) error {
	backedUp := make(map[string]bool, len(backups))
	for _, b := range backups {
		backedUp[b.Path] = true
	}

	var errs []error

	for _, rel := range files {
		if backedUp[rel] {
			continue
		}
		targetPath := filepath.Join(targetDir, filepath.FromSlash(rel))
		if _, statErr := os.Lstat(targetPath); statErr != nil {
			continue // never actually created
		}
		if err := os.Remove(targetPath); err != nil {
			logger.Error("removing added file failed", "path", rel, "error", err)
			errs = append(errs, fmt.Errorf("removing %s: %w", rel, err))
		}
	}

	for _, b := range backups {
		targetPath := filepath.Join(targetDir, filepath.FromSlash(b.Path))
		if err := copyFile(b.Backup, targetPath); err != nil {
			logger.Error("restoring file failed", "path", b.Path, "error", err)
			errs = append(errs, fmt.Errorf("restoring %s: %w", b.Path, err))
		}
	}

	return errors.Join(errs...)
}

// extractFile writes a single archive entry to targetPath, creating
// parent directories as needed and capping the extracted size.
func extractFile(zf *zip.File, targetPath string) (err error) {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	src, err := zf.Open()
	if err != nil {
		return fmt.Errorf("opening archive entry: %w", err)
	}
	defer func() { _ = src.Close() }() // read-only entry handle

	dst, err := os.Create(targetPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	n, err := io.Copy(dst, io.LimitReader(src, maxEntryBytes+1))
	if err != nil {
		return err
	}
	if n > maxEntryBytes {
		return fmt.Errorf("entry exceeds %d bytes", int64(maxEntryBytes))
	}

	return nil
}

// copyFile copies src to dst, creating dst's parent directories and
// preserving the source file mode.
func copyFile(src, dst string) (err error) {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }() // read-only source handle

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}

	return nil
}
