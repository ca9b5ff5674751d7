// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/emreozcan/omoritr-installer/internal/config"
)

// newConfigCommand creates the `omoritr config` command tree.
func newConfigCommand() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage omoritr configuration",
		Long: `Manage omoritr configuration.

Configuration is stored in:
  - Linux: ~/.config/omoritr-installer/config.toml
  - macOS: ~/Library/Application Support/omoritr-installer/config.toml
  - Windows: %APPDATA%\omoritr-installer\config.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFile(cmd)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath(cmd)
		},
	})

	return cfgCmd
}

// showConfig prints the effective configuration as TOML.
func showConfig(cmd *cobra.Command) error {
	data, err := toml.Marshal(loadedConfig)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	cmd.Print(string(data))
	return nil
}

// initConfigFile writes the default config file unless one already exists.
func initConfigFile(cmd *cobra.Command) error {
	path, err := config.CreateDefault()
	if err != nil {
		return err
	}
	cmd.Println("Configuration file: " + ValueStyle.Render(path))
	return nil
}

// showConfigPath prints where the config file is looked up.
func showConfigPath(cmd *cobra.Command) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	cmd.Println(filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
	return nil
}
