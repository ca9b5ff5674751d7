// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// overrideConfigDir points the package at a temp directory and restores
// the platform resolution on cleanup.
func overrideConfigDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	SetDirOverride(dir)
	t.Cleanup(func() { SetDirOverride("") })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	overrideConfigDir(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ManifestURL != DefaultManifestURL {
		t.Errorf("ManifestURL = %q, want default %q", cfg.ManifestURL, DefaultManifestURL)
	}
	if len(cfg.Markers) != 1 || cfg.Markers[0] != "OMORI.exe" {
		t.Errorf("Markers = %v, want [OMORI.exe]", cfg.Markers)
	}
	if cfg.GameDir != "" {
		t.Errorf("GameDir = %q, want empty", cfg.GameDir)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := overrideConfigDir(t)

	content := strings.Join([]string{
		`manifest_url = "https://mirror.example/manifest.json"`,
		`game_dir = "/games/OMORI"`,
		``,
		`[ui]`,
		`verbose = true`,
	}, "\n")
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ManifestURL != "https://mirror.example/manifest.json" {
		t.Errorf("ManifestURL = %q", cfg.ManifestURL)
	}
	if cfg.GameDir != "/games/OMORI" {
		t.Errorf("GameDir = %q", cfg.GameDir)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose should be true")
	}
	// Keys missing from the file keep their defaults.
	if len(cfg.Markers) != 1 || cfg.Markers[0] != "OMORI.exe" {
		t.Errorf("Markers = %v, want default", cfg.Markers)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	overrideConfigDir(t)

	t.Setenv("OMORITR_MANIFEST_URL", "https://mirror.example/env-manifest.json")
	t.Setenv("OMORITR_UI_VERBOSE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ManifestURL != "https://mirror.example/env-manifest.json" {
		t.Errorf("ManifestURL = %q, want the environment override", cfg.ManifestURL)
	}
	// Nested keys map through the underscore replacer.
	if !cfg.UI.Verbose {
		t.Error("OMORITR_UI_VERBOSE did not override ui.verbose")
	}
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	dir := overrideConfigDir(t)

	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("manifest_url = [broken"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Error("Load should fail on malformed TOML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	overrideConfigDir(t)

	want := DefaultConfig()
	want.GameDir = "/somewhere/OMORI"
	want.UI.Verbose = true

	if err := Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.GameDir != want.GameDir {
		t.Errorf("GameDir = %q, want %q", got.GameDir, want.GameDir)
	}
	if !got.UI.Verbose {
		t.Error("UI.Verbose lost in round trip")
	}
}

func TestCreateDefault_DoesNotClobber(t *testing.T) {
	dir := overrideConfigDir(t)

	path, err := CreateDefault()
	if err != nil {
		t.Fatalf("CreateDefault: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("config path %q not under override dir %q", path, dir)
	}

	// Mutate the file, then call CreateDefault again; the edit must survive.
	custom := []byte(`manifest_url = "https://mirror.example/m.json"` + "\n" + `markers = ["OMORI.exe"]` + "\n")
	if err := os.WriteFile(path, custom, 0o644); err != nil {
		t.Fatalf("rewriting config: %v", err)
	}

	if _, err := CreateDefault(); err != nil {
		t.Fatalf("second CreateDefault: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading config: %v", err)
	}
	if !strings.Contains(string(data), "mirror.example") {
		t.Error("CreateDefault overwrote an existing config file")
	}
}
