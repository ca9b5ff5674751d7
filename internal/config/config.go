// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name used for config and cache paths.
	AppName = "omoritr-installer"
	// ConfigFileName is the config file name without extension.
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"

	// DefaultManifestURL is the distribution server's package manifest.
	DefaultManifestURL = "https://omoritr.emreis.com/packages/v1_manifest.json"
)

// configDirOverride allows tests to redirect the config directory.
//
//nolint:gochecknoglobals // Test seam.
var configDirOverride = ""

// Config holds all installer settings.
type Config struct {
	// ManifestURL is the endpoint the package manifest is fetched from.
	ManifestURL string `mapstructure:"manifest_url" toml:"manifest_url"`

	// GameDir pins the OMORI install directory, skipping Steam discovery.
	// Empty means auto-detect.
	GameDir string `mapstructure:"game_dir" toml:"game_dir,omitempty"`

	// Markers are the relative paths that must exist inside a directory
	// for it to be accepted as a genuine OMORI installation.
	Markers []string `mapstructure:"markers" toml:"markers"`

	// BackupDir overrides where pre-install backups are staged.
	// Empty means the platform cache directory.
	BackupDir string `mapstructure:"backup_dir" toml:"backup_dir,omitempty"`

	// UI holds presentation settings.
	UI UIConfig `mapstructure:"ui" toml:"ui"`
}

// UIConfig holds presentation settings for the CLI front end.
type UIConfig struct {
	// Verbose enables debug-level output.
	Verbose bool `mapstructure:"verbose" toml:"verbose"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ManifestURL: DefaultManifestURL,
		Markers:     []string{"OMORI.exe"},
	}
}

// SetDirOverride redirects the config directory, primarily for tests.
// Pass "" to restore platform resolution.
func SetDirOverride(dir string) {
	configDirOverride = dir
}

// Dir returns the installer configuration directory using
// platform-specific conventions: %APPDATA% on Windows,
// ~/Library/Application Support on macOS, and $XDG_CONFIG_HOME
// (defaulting to ~/.config) elsewhere.
func Dir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var base string

	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolving home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, AppName), nil
}

// CacheDir returns the directory for transient installer data: downloaded
// payloads and backup sets awaiting the next install generation.
func CacheDir() (string, error) {
	if configDirOverride != "" {
		return filepath.Join(configDirOverride, "cache"), nil
	}

	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Load reads configuration from defaults, the config file (if present),
// and OMORITR_* environment variables. A missing config file is not an
// error; the defaults apply.
func Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("manifest_url", defaults.ManifestURL)
	v.SetDefault("game_dir", defaults.GameDir)
	v.SetDefault("markers", defaults.Markers)
	v.SetDefault("backup_dir", defaults.BackupDir)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileExt)

	cfgDir, err := Dir()
	if err != nil {
		return nil, err
	}
	v.AddConfigPath(cfgDir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("OMORITR")
	// Nested keys like ui.verbose map to OMORITR_UI_VERBOSE.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file found; defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.ManifestURL == "" {
		return nil, fmt.Errorf("manifest_url must not be empty")
	}
	if len(cfg.Markers) == 0 {
		return nil, fmt.Errorf("markers must not be empty")
	}

	return &cfg, nil
}

// Save writes cfg to the config file, creating the config directory as
// needed.
func Save(cfg *Config) error {
	cfgDir, err := Dir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateDefault writes a default config file if none exists yet. Returns
// the path of the config file in either case.
func CreateDefault() (string, error) {
	cfgDir, err := Dir()
	if err != nil {
		return "", err
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(cfgPath); err == nil {
		return cfgPath, nil
	}

	if err := Save(DefaultConfig()); err != nil {
		return "", err
	}
	return cfgPath, nil
}
