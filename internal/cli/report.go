package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tofscope/tofscope/internal/sink"
)

// LogReport summarises the values of a momentum log
type LogReport struct {
	Path  string  `json:"path"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	RMS   float64 `json:"rms"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// summarize computes the report of values; RMS is the spread around the mean
func summarize(path string, values []float64) LogReport {
	r := LogReport{Path: path, Count: len(values)}
	if len(values) == 0 {
		return r
	}

	r.Mean, r.RMS = stat.PopMeanStdDev(values, nil)
	r.Min = floats.Min(values)
	r.Max = floats.Max(values)
	return r
}

func writeReport(w io.Writer, r LogReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "text", "":
		fmt.Fprintf(w, "%s\n", r.Path)
		fmt.Fprintf(w, "  entries: %d\n", r.Count)
		if r.Count > 0 {
			fmt.Fprintf(w, "  mean:    %g MeV/c\n", r.Mean)
			fmt.Fprintf(w, "  rms:     %g MeV/c\n", r.RMS)
			fmt.Fprintf(w, "  range:   [%g, %g] MeV/c\n", r.Min, r.Max)
		}
		return nil
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

func newReportCommand(_ *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report LOGFILE",
		Short: "Summarise a momentum log",
		Long: `Read a momentum log, check that every line parses, and print the number of
entries with their mean, spread and range.

Examples:
  tofscope report momentum.txt
  tofscope report --format json momentum.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			values, err := sink.ReadAll(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return writeReport(cmd.OutOrStdout(), summarize(args[0], values), format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text or json)")
	return cmd
}
