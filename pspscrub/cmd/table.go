package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/sarchlab/psp/scrub"
)

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Options(
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
	)
	table.Header("FIELD", "VALUE")

	return table
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}

func dec(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func printConfig(w io.Writer, cfg scrub.Config) error {
	table := newTable(w)

	rows := [][]string{
		{"run mode", cfg.RunMode.String()},
		{"start address", hex(cfg.StartAddr)},
		{"end address", hex(cfg.EndAddr)},
		{"block size (pages)", dec(cfg.BlockSizePages)},
		{"task delay (ms)", dec(uint64(cfg.TaskDelayMs))},
		{"window start", hex(cfg.TimedStartAddr)},
		{"window end", hex(cfg.TimedEndAddr)},
		{"task priority", dec(uint64(cfg.TaskPriority))},
		{"priority range", fmt.Sprintf("[%d, %d]", cfg.MinPriority, cfg.MaxPriority)},
		{"current page", dec(cfg.CurrentPage)},
		{"total pages", dec(cfg.TotalPages)},
		{"task id", dec(uint64(cfg.TaskID))},
	}

	if err := table.Bulk(rows); err != nil {
		return err
	}

	return table.Render()
}

// runSummary is what the session measured besides the error counters.
type runSummary struct {
	passes    uint64
	avgPass   time.Duration
	injected  uint64
	saturated bool
}

func printStats(w io.Writer, stats scrub.ErrorStats, sum runSummary) error {
	table := newTable(w)

	rows := [][]string{
		{"total errors", dec(stats.TotalErrors)},
		{"corrected errors", dec(stats.CorrectedErrors)},
		{"multi-bit errors", dec(stats.MultiBitErrors)},
		{"tag parity errors", dec(stats.TagParityErrors)},
		{"last error address", hex(stats.LastErrorAddr)},
		{"scrub runs", dec(stats.ScrubRuns)},
		{"counters saturated", strconv.FormatBool(sum.saturated)},
		{"traced passes", dec(sum.passes)},
		{"average pass time", sum.avgPass.String()},
		{"injected upsets", dec(sum.injected)},
	}

	if err := table.Bulk(rows); err != nil {
		return err
	}

	return table.Render()
}
