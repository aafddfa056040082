package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/ssargent/nexkit/pkg/nexfile"
	"github.com/ssargent/nexkit/pkg/recording"
	"github.com/ssargent/nexkit/pkg/storage"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func validateOutput(output string) error {
	switch output {
	case outputTable, outputJSON:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table or json)", output)
	}
}

// fileInfo is the info command's view of a file
type fileInfo struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	recording.Summary
}

// outputFileInfo displays a file summary
func outputFileInfo(w io.Writer, info fileInfo, output string) error {
	if output == outputJSON {
		return outputJSONValue(w, info)
	}
	return outputFileInfoTable(w, info)
}

// outputFileInfoTable displays a file summary in table format
func outputFileInfoTable(out io.Writer, info fileInfo) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "File:\t%s\n", info.Path)
	fmt.Fprintf(w, "Format:\t%s\n", info.Format)
	if info.Comment != "" {
		fmt.Fprintf(w, "Comment:\t%s\n", info.Comment)
	}
	fmt.Fprintf(w, "Frequency:\t%s Hz\n", formatFloat(info.TimestampFrequency))
	fmt.Fprintf(w, "Start:\t%s s\n", formatFloat(info.StartTime))
	fmt.Fprintf(w, "End:\t%s s\n", formatFloat(info.EndTime))
	fmt.Fprintf(w, "Variables:\t%d\n", len(info.Variables))
	if err := w.Flush(); err != nil {
		return err
	}

	if len(info.Variables) == 0 {
		return nil
	}
	fmt.Fprintln(out)

	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tCOUNT\tRATE\tSAMPLES")
	for _, v := range info.Variables {
		rate, samples := "", ""
		if v.SamplingRate > 0 {
			rate = formatFloat(v.SamplingRate)
			samples = strconv.Itoa(v.Samples)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", v.Name, v.Kind, v.Count, rate, samples)
	}
	return w.Flush()
}

// outputEntries displays archive entries
func outputEntries(w io.Writer, entries []storage.Entry, output string) error {
	if output == outputJSON {
		return outputJSONValue(w, entries)
	}
	return outputEntriesTable(w, entries)
}

// outputEntriesTable displays archive entries in table format
func outputEntriesTable(out io.Writer, entries []storage.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No recordings found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFORMAT\tSIZE\tCREATED")
	for _, e := range entries {
		name := e.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.ID,
			name,
			e.Format,
			formatBytes(e.SizeBytes),
			e.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// outputJSONValue displays any value as indented JSON
func outputJSONValue(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatBytes renders a byte count with a binary unit
func formatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

// detectFileFormat reports the generation of a file image, or "unknown"
func detectFileFormat(data []byte) string {
	if f, err := nexfile.DetectFormat(data); err == nil {
		return f.String()
	}
	return "unknown"
}
