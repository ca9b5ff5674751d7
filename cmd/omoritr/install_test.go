// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/emreozcan/omoritr-installer/internal/config"
	"github.com/emreozcan/omoritr-installer/internal/installer"
)

// setupPackageServer creates an httptest server that serves a v1 manifest
// and a matching zip payload containing a single file "tr.json".
// Returns the server (closed via t.Cleanup) and the manifest URL.
func setupPackageServer(t *testing.T, version string) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("tr.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(`{"version":"` + version + `"}`)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	archive := buf.Bytes()
	sum := sha256.Sum256(archive)

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		doc := map[string]any{
			"manifestVersion": 1,
			"package": map[string]any{
				"version":  version,
				"url":      srv.URL + "/payload.zip",
				"filename": "omoritr.zip",
				"sha256":   hex.EncodeToString(sum[:]),
			},
		}
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			t.Errorf("encoding manifest: %v", err)
		}
	})
	mux.HandleFunc("/payload.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL + "/manifest.json"
}

// newTestGameDir creates a directory that passes marker validation.
func newTestGameDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "OMORI.exe"), []byte("mz"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func newTestInstaller(t *testing.T, manifestURL string) *installer.Installer {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.ManifestURL = manifestURL
	return installer.New(cfg, installer.WithStagingDir(t.TempDir()))
}

func TestRunInstallSuccess(t *testing.T) {
	manifestURL := setupPackageServer(t, "2.1")
	gameDir := newTestGameDir(t)

	var stdout, stderr bytes.Buffer
	p := installParams{
		stdout:  &stdout,
		stderr:  &stderr,
		inst:    newTestInstaller(t, manifestURL),
		gameDir: gameDir,
	}

	if err := runInstall(context.Background(), p); err != nil {
		t.Fatalf("runInstall: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.Contains(out, "2.1") {
		t.Errorf("output does not mention the installed version:\n%s", out)
	}
	if !strings.Contains(out, "Deployed 1 files") {
		t.Errorf("output does not report the deployed file count:\n%s", out)
	}
}

func TestRunInstallAlreadyUpToDate(t *testing.T) {
	manifestURL := setupPackageServer(t, "2.1")
	gameDir := newTestGameDir(t)
	inst := newTestInstaller(t, manifestURL)

	var first bytes.Buffer
	if err := runInstall(context.Background(), installParams{
		stdout: &first, stderr: &first, inst: inst, gameDir: gameDir,
	}); err != nil {
		t.Fatalf("first runInstall: %v", err)
	}

	var second bytes.Buffer
	if err := runInstall(context.Background(), installParams{
		stdout: &second, stderr: &second, inst: inst, gameDir: gameDir,
	}); err != nil {
		t.Fatalf("second runInstall: %v", err)
	}
	if !strings.Contains(second.String(), "Already up to date") {
		t.Errorf("second run output:\n%s", second.String())
	}
}

func TestRunStatusNotInstalled(t *testing.T) {
	manifestURL := setupPackageServer(t, "2.3")
	gameDir := newTestGameDir(t)

	var stdout bytes.Buffer
	p := statusParams{
		stdout:  &stdout,
		inst:    newTestInstaller(t, manifestURL),
		gameDir: gameDir,
	}

	if err := runStatus(context.Background(), p); err != nil {
		t.Fatalf("runStatus: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "(not installed)") {
		t.Errorf("output does not report missing installation:\n%s", out)
	}
	if !strings.Contains(out, "2.3") {
		t.Errorf("output does not mention the latest version:\n%s", out)
	}
}

func TestRunRestoreAfterInstall(t *testing.T) {
	manifestURL := setupPackageServer(t, "2.1")
	gameDir := newTestGameDir(t)
	inst := newTestInstaller(t, manifestURL)

	var out bytes.Buffer
	if err := runInstall(context.Background(), installParams{
		stdout: &out, stderr: &out, inst: inst, gameDir: gameDir,
	}); err != nil {
		t.Fatalf("runInstall: %v", err)
	}

	var restoreOut bytes.Buffer
	if err := runRestore(restoreParams{
		stdout: &restoreOut, inst: inst, gameDir: gameDir,
	}); err != nil {
		t.Fatalf("runRestore: %v", err)
	}
	if !strings.Contains(restoreOut.String(), "2.1") {
		t.Errorf("restore output:\n%s", restoreOut.String())
	}

	if _, err := os.Stat(filepath.Join(gameDir, "tr.json")); !os.IsNotExist(err) {
		t.Error("added translation file should be gone after restore")
	}
}

func TestClassifyInstallExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &installer.Error{Kind: installer.KindNotFound, Err: errors.New("x")}, 1},
		{"ambiguous", &installer.Error{Kind: installer.KindAmbiguous, Err: errors.New("x")}, 1},
		{"locked", &installer.Error{Kind: installer.KindLock, Err: errors.New("x")}, 1},
		{"not writable", &installer.Error{Kind: installer.KindNotWritable, Err: errors.New("x")}, 1},
		{"network", &installer.Error{Kind: installer.KindNetwork, Err: errors.New("x")}, 2},
		{"integrity", &installer.Error{Kind: installer.KindIntegrity, Err: errors.New("x")}, 2},
		{"deploy", &installer.Error{Kind: installer.KindDeploy, Err: errors.New("x")}, 2},
		{"untyped", errors.New("x"), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyInstallExitCode(tt.err); got != tt.want {
				t.Errorf("classifyInstallExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatInstallErrorSuggestsGameDirFlag(t *testing.T) {
	err := &installer.Error{Kind: installer.KindNotFound, Err: errors.New("game installation not found")}

	msg := formatInstallError(err, false)
	if !strings.Contains(msg, "--game-dir") {
		t.Errorf("message does not suggest --game-dir:\n%s", msg)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{3 << 20, "3.0 MiB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
