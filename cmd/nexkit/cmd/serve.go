/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ssargent/nexkit/pkg/api"
	"github.com/ssargent/nexkit/pkg/metrics"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Serve the recording archive over HTTP.

Recordings are uploaded as raw .nex or .nex5 bytes, listed, summarized,
downloaded in either format and deleted. Prometheus metrics are exposed
at /metrics.

Examples:
  nexkit serve
  nexkit serve --port=9300 --bind=0.0.0.0 --archive-dir=./archive`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			appConfig.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("bind") {
			appConfig.Bind, _ = cmd.Flags().GetString("bind")
		}
		if err := appConfig.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		m := metrics.NewMetrics(nil)
		archive, err := openArchive(m)
		if err != nil {
			return err
		}
		defer archive.Close()

		writerConfig, err := appConfig.WriterConfig()
		if err != nil {
			return err
		}
		writerConfig.Logger = &appLogger
		writerConfig.Metrics = m

		return api.StartServer(ctx, archive, api.ServerConfig{
			Bind:   appConfig.Bind,
			Port:   appConfig.Port,
			Writer: writerConfig,
		}, m, &appLogger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 9300, "Port to listen on")
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to bind to")
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
