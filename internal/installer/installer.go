// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/emreozcan/omoritr-installer/internal/config"
	"github.com/emreozcan/omoritr-installer/internal/deploy"
	"github.com/emreozcan/omoritr-installer/internal/gamedir"
	"github.com/emreozcan/omoritr-installer/internal/manifest"
	"github.com/emreozcan/omoritr-installer/internal/payload"
)

type (
	// Installer runs the installation pipeline against a configuration.
	Installer struct {
		cfg        *config.Config
		httpClient *http.Client
		logger     *log.Logger
		stagingDir string
	}

	// Option configures an Installer during construction.
	Option func(*Installer)

	// Options are the per-run knobs for Run.
	Options struct {
		// TargetDir pins the game directory, skipping autodetection.
		// Takes precedence over the configured game_dir.
		TargetDir string

		// Force reinstalls even when the installed version already
		// matches the manifest.
		Force bool

		// KeepPayload leaves the downloaded archive in the staging
		// directory after a successful install.
		KeepPayload bool

		// Progress, when set, receives download progress callbacks.
		Progress payload.ProgressFunc
	}

	// Status describes the installation state without changing anything.
	Status struct {
		// GameDir is the resolved game installation directory.
		GameDir string

		// InstalledVersion is the committed package version, or "" when
		// nothing is installed.
		InstalledVersion string

		// InstalledAt is when the recorded install committed.
		InstalledAt time.Time

		// LatestVersion is the version the manifest currently offers.
		LatestVersion string

		// Notes carries the manifest's Markdown release notes, if any.
		Notes string

		// UpToDate is true when the installed version matches the
		// manifest exactly.
		UpToDate bool
	}
)

// WithHTTPClient replaces the HTTP client used for the manifest and the
// payload download.
func WithHTTPClient(c *http.Client) Option {
	return func(i *Installer) {
		i.httpClient = c
	}
}

// WithLogger sets the logger passed down to every pipeline stage.
func WithLogger(l *log.Logger) Option {
	return func(i *Installer) {
		i.logger = l
	}
}

// WithStagingDir overrides where payloads and backups are staged.
// Defaults to the platform cache directory.
func WithStagingDir(dir string) Option {
	return func(i *Installer) {
		i.stagingDir = dir
	}
}

// New creates an Installer for the given configuration.
func New(cfg *config.Config, opts ...Option) *Installer {
	i := &Installer{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run executes the full pipeline: locate the game directory, take the
// run lock, read the installation record, fetch the manifest, compare
// versions, then download, verify, deploy and commit. Every failure
// comes back as an *Error carrying the stage's kind.
//
// The version comparison is plain equality. The manifest is
// authoritative, so a mismatch in either direction reinstalls.
func (i *Installer) Run(ctx context.Context, opts Options) (*Result, error) {
	targetDir, err := i.locate(opts.TargetDir)
	if err != nil {
		return nil, fail(err, false)
	}
	i.logger.Info("game directory resolved", "dir", targetDir)

	lock, err := deploy.AcquireLock(targetDir)
	if err != nil {
		return nil, fail(err, false)
	}
	defer lock.Release()

	rec, err := deploy.ReadRecord(targetDir)
	if err != nil {
		return nil, fail(err, false)
	}

	m, err := i.fetchManifest(ctx)
	if err != nil {
		return nil, fail(err, true)
	}

	if !opts.Force && rec != nil && rec.InstalledVersion == m.Version {
		i.logger.Info("already up to date", "version", m.Version)
		return &Result{
			Outcome: OutcomeAlreadyUpToDate,
			Version: m.Version,
			GameDir: targetDir,
		}, nil
	}

	staging, err := i.ensureStagingDir()
	if err != nil {
		return nil, fail(err, false)
	}

	archivePath := filepath.Join(staging, m.Filename)
	i.logger.Info("downloading package", "version", m.Version, "url", m.PayloadURL)
	size, err := payload.Download(ctx, i.httpClient, m.PayloadURL, archivePath, opts.Progress)
	if err != nil {
		return nil, fail(err, false)
	}
	i.logger.Debug("download complete", "bytes", size)

	// The payload is transient. It outlives the run only when the
	// install committed and the caller asked to keep it; an aborted run
	// never leaves the archive in the staging directory.
	committed := false
	defer func() {
		if committed && opts.KeepPayload {
			return
		}
		if rmErr := os.Remove(archivePath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			i.logger.Warn("could not remove downloaded package", "path", archivePath, "error", rmErr)
		}
	}()

	if err := payload.Verify(archivePath, m.SHA256); err != nil {
		return nil, fail(err, false)
	}

	backupRoot := i.cfg.BackupDir
	if backupRoot == "" {
		backupRoot = filepath.Join(staging, "backups")
	}

	d := deploy.New(targetDir, backupRoot, deploy.WithLogger(i.logger))
	applied, err := d.Apply(archivePath, m.Target)
	if err != nil {
		return nil, fail(err, false)
	}

	if err := checkDeclaredFiles(m, applied); err != nil {
		if revertErr := d.Revert(applied); revertErr != nil {
			i.logger.Error("revert after failed file check incomplete", "error", revertErr)
		}
		return nil, fail(err, false)
	}

	if _, err := deploy.Commit(targetDir, m.Version, applied, rec); err != nil {
		// The deploy is not permanent until the record is on disk, so an
		// uncommitted apply gets undone.
		if revertErr := d.Revert(applied); revertErr != nil {
			i.logger.Error("revert after failed commit incomplete", "error", revertErr)
		}
		return nil, fail(err, false)
	}
	committed = true

	i.logger.Info("install committed", "version", m.Version,
		"files", len(applied.Files), "backups", len(applied.Backups))

	return &Result{
		Outcome:       OutcomeInstalled,
		Version:       m.Version,
		GameDir:       targetDir,
		FilesWritten:  len(applied.Files),
		FilesBackedUp: len(applied.Backups),
	}, nil
}

// CheckStatus reports the installed and latest versions without taking
// the run lock or writing anything.
func (i *Installer) CheckStatus(ctx context.Context, targetHint string) (*Status, error) {
	targetDir, err := i.locate(targetHint)
	if err != nil {
		return nil, fail(err, false)
	}

	rec, err := deploy.ReadRecord(targetDir)
	if err != nil {
		return nil, fail(err, false)
	}

	m, err := i.fetchManifest(ctx)
	if err != nil {
		return nil, fail(err, true)
	}

	st := &Status{
		GameDir:       targetDir,
		LatestVersion: m.Version,
		Notes:         m.Notes,
	}
	if rec != nil {
		st.InstalledVersion = rec.InstalledVersion
		st.InstalledAt = rec.InstalledAt
		st.UpToDate = rec.InstalledVersion == m.Version
	}
	return st, nil
}

// Restore puts the game directory back to its recorded pre-install
// state and removes the installation record. Returns the version that
// was removed.
func (i *Installer) Restore(targetHint string) (string, error) {
	targetDir, err := i.locate(targetHint)
	if err != nil {
		return "", fail(err, false)
	}

	lock, err := deploy.AcquireLock(targetDir)
	if err != nil {
		return "", fail(err, false)
	}
	defer lock.Release()

	rec, err := deploy.ReadRecord(targetDir)
	if err != nil {
		return "", fail(err, false)
	}
	if rec == nil {
		return "", fail(fmt.Errorf("nothing to restore: no installation record in %s", targetDir), false)
	}

	if err := deploy.Restore(targetDir, rec, i.logger); err != nil {
		return "", fail(err, false)
	}

	if err := os.Remove(filepath.Join(targetDir, deploy.RecordFileName)); err != nil {
		return "", fail(fmt.Errorf("removing installation record: %w", err), false)
	}
	if rec.BackupDir != "" {
		_ = os.RemoveAll(rec.BackupDir)
	}

	i.logger.Info("installation restored", "version", rec.InstalledVersion)
	return rec.InstalledVersion, nil
}

// checkDeclaredFiles cross-checks the manifest's optional file list
// against what the deploy actually wrote. A package whose content does
// not match its own manifest is treated like a failed deploy.
func checkDeclaredFiles(m *manifest.Manifest, applied *deploy.Applied) error {
	if len(m.Files) == 0 {
		return nil
	}

	written := make(map[string]bool, len(applied.Files))
	for _, f := range applied.Files {
		written[f] = true
	}

	for _, f := range m.Files {
		rel := path.Join(m.Target, f)
		if !written[rel] {
			return fmt.Errorf("%w: package is missing declared file %s", deploy.ErrDeploy, f)
		}
	}
	return nil
}

// locate resolves the game directory from the explicit hint, the
// configured game_dir, or Steam discovery.
func (i *Installer) locate(hint string) (string, error) {
	if hint == "" {
		hint = i.cfg.GameDir
	}
	return gamedir.Locate(hint, gamedir.Options{
		Markers: i.cfg.Markers,
		Logger:  i.logger,
	})
}

// fetchManifest pulls a fresh manifest from the configured endpoint.
func (i *Installer) fetchManifest(ctx context.Context) (*manifest.Manifest, error) {
	client := manifest.NewClient(i.cfg.ManifestURL, manifest.WithHTTPClient(i.httpClient))
	return client.Fetch(ctx)
}

// ensureStagingDir resolves and creates the payload staging directory.
func (i *Installer) ensureStagingDir() (string, error) {
	dir := i.stagingDir
	if dir == "" {
		var err error
		dir, err = config.CacheDir()
		if err != nil {
			return "", fmt.Errorf("resolving staging directory: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	return dir, nil
}
