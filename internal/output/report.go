package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/torosent/packetfire/internal/metrics"
	"github.com/torosent/packetfire/internal/threshold"
)

// RunInfo describes the configured run for the banner.
type RunInfo struct {
	Target      string
	Duration    time.Duration
	PayloadSize int
	Workers     int
}

// PrintBanner outputs the run parameters before the test starts.
func PrintBanner(w io.Writer, info RunInfo) {
	fmt.Fprintln(w, "====================================")
	fmt.Fprintln(w, "      Network Performance Test      ")
	fmt.Fprintln(w, "====================================")
	fmt.Fprintf(w, "Target:      %s\n", info.Target)
	fmt.Fprintf(w, "Duration:    %s\n", info.Duration)
	fmt.Fprintf(w, "Payload:     %d bytes\n", info.PayloadSize)
	fmt.Fprintf(w, "Workers:     %d\n", info.Workers)
	fmt.Fprintln(w, "====================================")
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, stats metrics.Stats) {
	fmt.Fprintln(w, "\n--- UDP Test Results ---")
	fmt.Fprintf(w, "Run ID:            %s\n", stats.RunID)
	fmt.Fprintf(w, "Packets Sent:      %d\n", stats.Successes)
	fmt.Fprintf(w, "Errors:            %d\n", stats.Failures)
	fmt.Fprintf(w, "Attempts:          %d\n", stats.Total)
	fmt.Fprintf(w, "Bytes Sent:        %d\n", stats.Bytes)
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration)
	fmt.Fprintf(w, "Packets/sec:       %.2f\n", stats.PacketsPerSec)
	fmt.Fprintf(w, "Throughput:        %.2f Mbit/s\n", stats.MbitsPerSec)
	fmt.Fprintln(w, "\nSend Latency:")
	fmt.Fprintf(w, "  Min:             %s\n", stats.MinLatency)
	fmt.Fprintf(w, "  Max:             %s\n", stats.MaxLatency)
	fmt.Fprintf(w, "  Mean:            %s\n", stats.MeanLatency)
	fmt.Fprintf(w, "  P50:             %s\n", stats.P50Latency)
	fmt.Fprintf(w, "  P90:             %s\n", stats.P90Latency)
	fmt.Fprintf(w, "  P99:             %s\n", stats.P99Latency)

	if len(stats.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, row := range sortedErrors(stats.Errors) {
			fmt.Fprintf(w, "  - %s: %d\n", row.kind, row.count)
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, stats metrics.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

// PrintThresholdResults renders threshold outcomes as a table and reports
// whether every threshold passed.
func PrintThresholdResults(w io.Writer, results []threshold.Result) bool {
	if len(results) == 0 {
		return true
	}
	fmt.Fprintln(w, "\nThresholds:")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Status", "Threshold", "Actual"})
	table.SetAutoWrapText(false)

	allPass := true
	for _, r := range results {
		status := "PASS"
		if !r.Pass {
			status = "FAIL"
			allPass = false
		}
		actual := fmt.Sprintf("%.2f", r.Actual)
		if r.Err != nil {
			actual = r.Err.Error()
		}
		table.Append([]string{status, r.Threshold.Raw, actual})
	}
	table.Render()
	return allPass
}

type errorRow struct {
	kind  string
	count int64
}

func sortedErrors(errs map[string]int64) []errorRow {
	rows := make([]errorRow, 0, len(errs))
	for kind, count := range errs {
		rows = append(rows, errorRow{kind: kind, count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count == rows[j].count {
			return rows[i].kind < rows[j].kind
		}
		return rows[i].count > rows[j].count
	})
	return rows
}
