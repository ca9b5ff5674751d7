// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/emreozcan/omoritr-installer/internal/installer"
)

// statusParams bundles the dependencies and flags for the status command.
type statusParams struct {
	stdout    io.Writer
	inst      *installer.Installer
	gameDir   string
	showNotes bool // --notes flag: render release notes
}

// newStatusCommand creates the `omoritr status` command, which compares
// the installed translation version with the one the manifest offers.
func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show installed and latest translation versions",
		Example: `  # Compare installed and published versions
  omoritr status

  # Also render the release notes
  omoritr status --notes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true

			gameDir, _ := cmd.Flags().GetString("game-dir")
			showNotes, _ := cmd.Flags().GetBool("notes")

			p := statusParams{
				stdout:    cmd.OutOrStdout(),
				inst:      newInstaller(loadedConfig),
				gameDir:   gameDir,
				showNotes: showNotes,
			}

			if err := runStatus(cmd.Context(), p); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatInstallError(err, verbose))
				return &ExitError{Code: classifyInstallExitCode(err), Err: err}
			}
			return nil
		},
	}

	cmd.Flags().String("game-dir", "", "OMORI installation directory (default: Steam autodetection)")
	cmd.Flags().Bool("notes", false, "Render the package release notes")

	return cmd
}

// runStatus is the core status logic, separated from Cobra for testability.
func runStatus(ctx context.Context, p statusParams) error {
	st, err := p.inst.CheckStatus(ctx, p.gameDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(p.stdout, "Game directory:    %s\n", ValueStyle.Render(st.GameDir))

	if st.InstalledVersion == "" {
		fmt.Fprintln(p.stdout, "Installed version: (not installed)")
	} else {
		fmt.Fprintf(p.stdout, "Installed version: %s (installed %s)\n",
			ValueStyle.Render(st.InstalledVersion), st.InstalledAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(p.stdout, "Latest version:    %s\n", ValueStyle.Render(st.LatestVersion))

	switch {
	case st.UpToDate:
		fmt.Fprintln(p.stdout, SuccessStyle.Render("Up to date."))
	case st.InstalledVersion == "":
		fmt.Fprintln(p.stdout, WarningStyle.Render("Not installed."), "Run 'omoritr install'.")
	default:
		fmt.Fprintln(p.stdout, WarningStyle.Render("Update available."), "Run 'omoritr install'.")
	}

	if p.showNotes && st.Notes != "" {
		rendered, err := renderMarkdown(st.Notes)
		if err != nil {
			// Fall back to the raw notes rather than failing the command.
			rendered = st.Notes
		}
		fmt.Fprintln(p.stdout)
		fmt.Fprint(p.stdout, rendered)
	}

	return nil
}

// renderMarkdown renders markdown content using glamour.
func renderMarkdown(md string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(md)
}
