/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/nexkit/pkg/metrics"
	"github.com/ssargent/nexkit/pkg/nexfile"
	"github.com/ssargent/nexkit/pkg/storage"
)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage the local recording archive",
	Long: `Store, fetch, list and delete recordings in the local archive.

Recordings are kept as the original file bytes under time-sortable ids.

Examples:
  nexkit archive put session.nex5
  nexkit archive list
  nexkit archive get 2Jc8fQdPz7rQe2sQ3h4o7wXkZb1 session.nex
  nexkit archive delete 2Jc8fQdPz7rQe2sQ3h4o7wXkZb1`,
}

var archivePutCmd = &cobra.Command{
	Use:   "put <file>",
	Short: "Store a file in the archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(func(a *storage.Archive) error {
			return runArchivePut(cmd.OutOrStdout(), a, args[0])
		})
	},
}

var archiveGetCmd = &cobra.Command{
	Use:   "get <id> <out>",
	Short: "Write a stored recording to a file",
	Long: `Write a stored recording to a file. The stored bytes are written as-is
unless --format or the output extension asks for the other format.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return withArchive(func(a *storage.Archive) error {
			return runArchiveGet(cmd.OutOrStdout(), a, args[0], args[1], format)
		})
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored recordings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if err := validateOutput(output); err != nil {
			return err
		}
		return withArchive(func(a *storage.Archive) error {
			entries, err := a.List()
			if err != nil {
				return err
			}
			return outputEntries(cmd.OutOrStdout(), entries, output)
		})
	},
}

var archiveDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored recording",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(func(a *storage.Archive) error {
			return runArchiveDelete(cmd.OutOrStdout(), a, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archivePutCmd, archiveGetCmd, archiveListCmd, archiveDeleteCmd)

	archiveGetCmd.Flags().StringP("format", "f", "", "output format (nex or nex5)")
	archiveListCmd.Flags().StringP("output", "o", outputTable, "output format (table or json)")
}

// openArchive opens the configured archive directory
func openArchive(m *metrics.Metrics) (*storage.Archive, error) {
	writerConfig, err := appConfig.WriterConfig()
	if err != nil {
		return nil, err
	}
	writerConfig.Logger = &appLogger
	writerConfig.Metrics = m

	if err := os.MkdirAll(appConfig.ArchiveDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create archive dir: %w", err)
	}
	return storage.Open(appConfig.ArchiveDir, storage.ArchiveConfig{
		Writer:  nexfile.NewWriter(writerConfig),
		Logger:  &appLogger,
		Metrics: m,
	})
}

func withArchive(fn func(a *storage.Archive) error) error {
	a, err := openArchive(nil)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func runArchivePut(w io.Writer, a *storage.Archive, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	id, err := a.PutNamed(filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintln(w, id.String())
	return nil
}

func runArchiveGet(w io.Writer, a *storage.Archive, idText, out, formatFlag string) error {
	id, err := storage.ParseID(idText)
	if err != nil {
		return err
	}
	data, err := a.Raw(id)
	if err != nil {
		return err
	}
	stored, err := nexfile.DetectFormat(data)
	if err != nil {
		return err
	}
	format, err := outputFormat(out, formatFlag, stored)
	if err != nil {
		return err
	}

	if format != stored {
		session, err := a.Get(id)
		if err != nil {
			return err
		}
		writerConfig, err := appConfig.WriterConfig()
		if err != nil {
			return err
		}
		writerConfig.Format = format
		writerConfig.Logger = &appLogger
		if err := nexfile.NewWriter(writerConfig).Write(session, out); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s (converted %s -> %s)\n", out, stored, format)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(out), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", out, err)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Fprintf(w, "Wrote %s (%s)\n", out, formatBytes(len(data)))
	return nil
}

func runArchiveDelete(w io.Writer, a *storage.Archive, idText string) error {
	id, err := storage.ParseID(idText)
	if err != nil {
		return err
	}
	if err := a.Delete(id); err != nil {
		return err
	}
	fmt.Fprintf(w, "Deleted %s\n", id)
	return nil
}
