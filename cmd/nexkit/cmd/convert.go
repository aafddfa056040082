/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/nexkit/pkg/nexfile"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert between .nex and .nex5",
	Long: `Read a .nex or .nex5 file and write it again in the requested format.

The output format comes from --format, then from the output file
extension, then from writer.format in the config file.

Examples:
  nexkit convert session.nex session.nex5
  nexkit convert session.nex5 session.nex
  nexkit convert session.nex out.dat --format nex5 --sample-encoding int16`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		encoding, _ := cmd.Flags().GetString("sample-encoding")
		return runConvert(cmd.OutOrStdout(), args[0], args[1], format, encoding)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringP("format", "f", "", "output format (nex or nex5)")
	convertCmd.Flags().String("sample-encoding", "", "continuous and waveform sample encoding in .nex5 (float32 or int16)")
}

func runConvert(w io.Writer, in, out, formatFlag, encodingFlag string) error {
	writerConfig, err := appConfig.WriterConfig()
	if err != nil {
		return err
	}
	writerConfig.Format, err = outputFormat(out, formatFlag, writerConfig.Format)
	if err != nil {
		return err
	}
	if encodingFlag != "" {
		writerConfig.SampleEncoding, err = nexfile.ParseSampleEncoding(encodingFlag)
		if err != nil {
			return err
		}
	}
	writerConfig.Logger = &appLogger

	start := time.Now()
	session, err := nexfile.NewReader(nexfile.ReaderConfig{Logger: &appLogger}).Read(in)
	if err != nil {
		return err
	}
	if err := nexfile.NewWriter(writerConfig).Write(session, out); err != nil {
		return err
	}

	fmt.Fprintf(w, "Converted %s -> %s (%s, %d variables) in %s\n",
		in, out, writerConfig.Format, session.NumVariables(), formatDuration(time.Since(start)))
	return nil
}

// outputFormat picks the format to write path in: the flag when given,
// then a .nex or .nex5 extension, then fallback
func outputFormat(path, flag string, fallback nexfile.Format) (nexfile.Format, error) {
	if flag != "" {
		return nexfile.ParseFormat(flag)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nex", ".nex5":
		return nexfile.FormatForPath(path), nil
	}
	return fallback, nil
}
