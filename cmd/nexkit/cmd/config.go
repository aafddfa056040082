/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/nexkit/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the nexkit configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a default configuration file to --config, or to the platform
default location when --config is not given.

Examples:
  nexkit config init
  nexkit config init --config ./nexkit.yaml --archive-dir ./archive --force`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationSkipConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		path := cfgFile
		if path == "" {
			path = config.GetDefaultConfigPath()
		}
		archiveDir := ""
		if cmd.Flags().Changed("archive-dir") {
			archiveDir = appConfig.ArchiveDir
		}
		return runConfigInit(cmd.OutOrStdout(), path, archiveDir, force)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
}

func runConfigInit(w io.Writer, path, archiveDir string, force bool) error {
	if config.ConfigExists(path) && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}
	cfg, err := config.BootstrapConfig(path, archiveDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote configuration to %s\n", path)
	fmt.Fprintf(w, "Archive directory: %s\n", cfg.ArchiveDir)
	return nil
}
