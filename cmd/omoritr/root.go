// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/emreozcan/omoritr-installer/internal/config"
	"github.com/emreozcan/omoritr-installer/internal/issue"
)

// debugLogFileName is created next to the executable so users can attach
// it to bug reports without hunting for it.
const debugLogFileName = "omoritr-debug.log"

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables verbose output
	verbose bool
	// cfgDir allows specifying a custom config directory
	cfgDir string

	// loadedConfig holds the configuration resolved by initRootConfig.
	loadedConfig = config.DefaultConfig()

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "omoritr",
		Short: "Installer for the OMORI Turkish translation",
		Long: TitleStyle.Render("omoritr") + SubtitleStyle.Render(" - Installer for the OMORI Turkish translation") + `

omoritr keeps the Turkish translation of OMORI installed and up to
date. It locates the game through Steam, downloads the latest
translation package, verifies it, and deploys it with automatic
backups so the game can always be returned to its original state.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Install OMORI through Steam
  2. Run: omoritr install
  3. Launch the game

` + SubtitleStyle.Render("Examples:") + `
  omoritr install                   Install or update the translation
  omoritr install --game-dir PATH   Use an explicit game directory
  omoritr status --notes            Show versions and release notes
  omoritr restore                   Return the game to its original files`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default is the platform config dir)")

	// Add subcommands
	rootCmd.AddCommand(newInstallCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newRestoreCommand())
	rootCmd.AddCommand(newConfigCommand())
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	if cfgDir != "" {
		config.SetDirOverride(cfgDir)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		return
	}
	loadedConfig = cfg

	// Apply verbose from config if not set via flag
	if !verbose {
		verbose = cfg.UI.Verbose
	}
}

// newLogger builds the diagnostic logger: everything goes to a debug log
// file next to the executable, and to stderr as well when verbose. The
// log file is best-effort; a read-only install location only loses the
// file copy.
func newLogger() *log.Logger {
	var writers []io.Writer

	if f := openDebugLogFile(); f != nil {
		writers = append(writers, f)
	}
	if verbose {
		writers = append(writers, os.Stderr)
	}
	if len(writers) == 0 {
		return log.New(io.Discard)
	}

	logger := log.New(io.MultiWriter(writers...))
	logger.SetLevel(log.DebugLevel)
	return logger
}

// openDebugLogFile opens (truncating) the debug log next to the
// executable, falling back to the working directory when the executable
// path cannot be resolved.
func openDebugLogFile() *os.File {
	dir := "."
	if exe, err := os.Executable(); err == nil {
		dir = filepath.Dir(exe)
	}

	f, err := os.Create(filepath.Join(dir, debugLogFileName))
	if err != nil {
		return nil
	}
	return f
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
