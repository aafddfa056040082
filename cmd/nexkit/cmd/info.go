/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/nexkit/pkg/nexfile"
	"github.com/ssargent/nexkit/pkg/recording"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show a summary of a .nex or .nex5 file",
	Long: `Show the header-level summary of a .nex or .nex5 file: timestamp
frequency, recording span and every variable with its kind and size.

Examples:
  nexkit info session.nex5
  nexkit info session.nex --output json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		return runInfo(cmd.OutOrStdout(), args[0], output)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().StringP("output", "o", outputTable, "output format (table or json)")
}

func runInfo(w io.Writer, path, output string) error {
	if err := validateOutput(output); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	session, err := nexfile.NewReader(nexfile.ReaderConfig{Logger: &appLogger}).Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return outputFileInfo(w, fileInfo{
		Path:    path,
		Format:  detectFileFormat(data),
		Summary: recording.Summarize(session),
	}, output)
}
