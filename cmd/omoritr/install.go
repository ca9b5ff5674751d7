// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/emreozcan/omoritr-installer/internal/config"
	"github.com/emreozcan/omoritr-installer/internal/installer"
	"github.com/emreozcan/omoritr-installer/internal/issue"
	"github.com/emreozcan/omoritr-installer/internal/manifest"
)

// installParams bundles the dependencies and flags for the install
// command, enabling the core logic in runInstall to be tested without a
// real Cobra command or live network calls.
type installParams struct {
	stdout      io.Writer
	stderr      io.Writer
	inst        *installer.Installer
	gameDir     string // explicit game directory (empty = autodetect)
	force       bool   // --force flag: reinstall even when up to date
	keepPayload bool   // --keep-payload flag: keep the downloaded archive
}

// newInstallCommand creates the `omoritr install` command, which brings
// the game directory to the manifest's current translation version.
func newInstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install or update the translation",
		Long: `Install or update the translation.

The install command locates the OMORI installation, fetches the package
manifest, and compares the published version with what is currently
installed. When they differ it downloads the package, verifies its
SHA256 checksum, backs up every file about to be overwritten, and
deploys the package. A failed deploy is rolled back completely.`,
		Example: `  # Install or update
  omoritr install

  # Point at a specific game directory
  omoritr install --game-dir "D:\SteamLibrary\steamapps\common\OMORI"

  # Reinstall the current version
  omoritr install --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			gameDir, _ := cmd.Flags().GetString("game-dir")
			force, _ := cmd.Flags().GetBool("force")
			keepPayload, _ := cmd.Flags().GetBool("keep-payload")

			p := installParams{
				stdout:      cmd.OutOrStdout(),
				stderr:      cmd.ErrOrStderr(),
				inst:        newInstaller(loadedConfig),
				gameDir:     gameDir,
				force:       force,
				keepPayload: keepPayload,
			}

			if err := runInstall(cmd.Context(), p); err != nil {
				fmt.Fprintln(p.stderr, ErrorStyle.Render("Error: ")+formatInstallError(err, verbose))
				return &ExitError{Code: classifyInstallExitCode(err), Err: err}
			}

			return nil
		},
	}

	cmd.Flags().String("game-dir", "", "OMORI installation directory (default: Steam autodetection)")
	cmd.Flags().BoolP("force", "f", false, "Reinstall even when already up to date")
	cmd.Flags().Bool("keep-payload", false, "Keep the downloaded package archive after installing")

	return cmd
}

// newInstaller builds the pipeline entry point from the loaded config.
func newInstaller(cfg *config.Config) *installer.Installer {
	return installer.New(cfg, installer.WithLogger(newLogger()))
}

// runInstall is the core install logic, separated from Cobra for
// testability. All user-facing output goes through p.stdout and p.stderr.
func runInstall(ctx context.Context, p installParams) error {
	progress := newProgressPrinter(p.stdout)

	res, err := p.inst.Run(ctx, installer.Options{
		TargetDir:   p.gameDir,
		Force:       p.force,
		KeepPayload: p.keepPayload,
		Progress:    progress.update,
	})
	progress.finish()
	if err != nil {
		return err
	}

	fmt.Fprintf(p.stdout, "Game directory: %s\n", ValueStyle.Render(res.GameDir))

	if res.Outcome == installer.OutcomeAlreadyUpToDate {
		fmt.Fprintln(p.stdout, SuccessStyle.Render(
			fmt.Sprintf("Already up to date (version %s)", res.Version)))
		return nil
	}

	fmt.Fprintf(p.stdout, "Deployed %d files (%d backed up)\n", res.FilesWritten, res.FilesBackedUp)
	fmt.Fprintln(p.stdout, SuccessStyle.Render(
		fmt.Sprintf("Successfully installed version %s", res.Version)))

	return nil
}

// progressPrinter renders download progress on a single rewritten line.
type progressPrinter struct {
	out     io.Writer
	started bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

func (p *progressPrinter) update(written, total int64) {
	p.started = true
	if total > 0 {
		fmt.Fprintf(p.out, "\rDownloading... %3d%% (%s / %s)",
			written*100/total, formatBytes(written), formatBytes(total))
		return
	}
	fmt.Fprintf(p.out, "\rDownloading... %s", formatBytes(written))
}

func (p *progressPrinter) finish() {
	if p.started {
		fmt.Fprintln(p.out)
	}
}

// formatBytes renders a byte count in a human-readable unit.
func formatBytes(n int64) string {
	const (
		kib = 1 << 10
		mib = 1 << 20
	)
	switch {
	case n >= mib:
		return fmt.Sprintf("%.1f MiB", float64(n)/mib)
	case n >= kib:
		return fmt.Sprintf("%.1f KiB", float64(n)/kib)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// classifyInstallExitCode maps a failed run to the appropriate process
// exit code. User-correctable situations use exit code 1; transient or
// unexpected failures use exit code 2.
func classifyInstallExitCode(err error) int {
	var instErr *installer.Error
	if !errors.As(err, &instErr) {
		return 2
	}

	switch instErr.Kind {
	case installer.KindNotFound,
		installer.KindAmbiguous,
		installer.KindNotWritable,
		installer.KindLock:
		return 1
	default:
		return 2
	}
}

// formatInstallError produces a user-friendly error message with
// actionable remediation guidance tailored to the failure kind.
func formatInstallError(err error, verboseMode bool) string {
	var instErr *installer.Error
	if !errors.As(err, &instErr) {
		return formatErrorForDisplay(err, verboseMode)
	}

	ctx := issue.NewContext().WithOperation("installing the translation")

	switch instErr.Kind {
	case installer.KindNotFound:
		ctx.WithSuggestion("Make sure OMORI is installed through Steam").
			WithSuggestion("Pass the installation directory explicitly: omoritr install --game-dir PATH")
	case installer.KindAmbiguous:
		ctx.WithSuggestion("Multiple OMORI installations were found").
			WithSuggestion("Pick one with: omoritr install --game-dir PATH")
	case installer.KindNotWritable:
		ctx.WithSuggestion("Check the permissions of the game directory").
			WithSuggestion("On Windows, try running the installer as administrator")
	case installer.KindNetwork:
		ctx.WithSuggestion("Check your network connection and try again")
	case installer.KindIntegrity:
		ctx.WithSuggestion("The downloaded package was corrupted in transit; try again").
			WithSuggestion("If this persists, report it at https://omoritr.emreis.com")
	case installer.KindParse:
		if errors.Is(err, manifest.ErrUnsupportedVersion) {
			ctx.WithSuggestion("This installer is too old for the current package format").
				WithSuggestion("Download the latest installer from https://omoritr.emreis.com")
		} else {
			ctx.WithSuggestion("The package manifest is malformed; try again later")
		}
	case installer.KindLock:
		ctx.WithSuggestion("Another installer run is working on the same game directory; wait for it to finish")
	case installer.KindBackup, installer.KindDeploy:
		ctx.WithSuggestion("The game directory was left unchanged").
			WithSuggestion("Check free disk space and file permissions, then try again")
	}

	return ctx.Wrap(instErr.Err).Format(verboseMode)
}
