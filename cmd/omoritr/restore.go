// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/emreozcan/omoritr-installer/internal/installer"
)

// restoreParams bundles the dependencies and flags for the restore command.
type restoreParams struct {
	stdout  io.Writer
	inst    *installer.Installer
	gameDir string
}

// newRestoreCommand creates the `omoritr restore` command, which removes
// the translation and puts the recorded original files back.
func newRestoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Remove the translation and restore the original game files",
		Long: `Remove the translation and restore the original game files.

Every file the installer overwrote is put back from the backup taken at
install time, and files the installer added are removed. The
installation record is cleared, so a later 'omoritr install' starts
fresh.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			gameDir, _ := cmd.Flags().GetString("game-dir")

			p := restoreParams{
				stdout:  cmd.OutOrStdout(),
				inst:    newInstaller(loadedConfig),
				gameDir: gameDir,
			}

			if err := runRestore(p); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatInstallError(err, verbose))
				return &ExitError{Code: classifyInstallExitCode(err), Err: err}
			}
			return nil
		},
	}

	cmd.Flags().String("game-dir", "", "OMORI installation directory (default: Steam autodetection)")

	return cmd
}

// runRestore is the core restore logic, separated from Cobra for testability.
func runRestore(p restoreParams) error {
	version, err := p.inst.Restore(p.gameDir)
	if err != nil {
		return err
	}

	fmt.Fprintln(p.stdout, SuccessStyle.Render(
		fmt.Sprintf("Removed version %s and restored the original game files", version)))
	return nil
}
