/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ssargent/nexkit/pkg/config"
	"github.com/ssargent/nexkit/pkg/logger"
)

// commands carrying this annotation start from the default configuration
// without reading a config file
const annotationSkipConfig = "nexkit/skip-config"

var (
	cfgFile   string
	appConfig = config.DefaultConfig()
	appLogger = zerolog.Nop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nexkit",
	Short: "nexkit - NeuroExplorer .nex/.nex5 toolkit",
	Long: `nexkit reads, writes and converts NeuroExplorer data files
(.nex and .nex5) and keeps them in a local archive that can be
served over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := logger.Init(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		appConfig = cfg
		appLogger = log
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default "+config.GetDefaultConfigPath()+")")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().StringP("archive-dir", "a", "", "archive directory")
}

// loadConfig reads the config file when there is one and applies the
// global flag overrides. A missing default config file is not an error.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if cmd.Annotations[annotationSkipConfig] == "" {
		path := cfgFile
		if path == "" {
			path = config.GetDefaultConfigPath()
		}
		switch {
		case config.ConfigExists(path):
			loaded, err := config.LoadConfig(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		case cfgFile != "":
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("archive-dir") {
		cfg.ArchiveDir, _ = flags.GetString("archive-dir")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
