package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/sarchlab/psp/tracing"
)

var passesCmd = &cobra.Command{
	Use:   "passes <trace-db>",
	Short: "List the scrub passes recorded in a trace database.",
	Long: "`passes` reads a database written with --trace-db and prints one " +
		"row per recorded scrub pass, oldest first.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(args[0]); err != nil {
			return err
		}

		mode, _ := cmd.Flags().GetString("mode")

		reader := tracing.NewSQLiteTraceReader(args[0])
		reader.Init()
		defer reader.Close()

		tasks := reader.ListTasks(tracing.TaskQuery{
			Kind: "scrub_pass",
			What: mode,
		})

		return printPasses(cmd.OutOrStdout(), tasks)
	},
}

func init() {
	rootCmd.AddCommand(passesCmd)
}

func printPasses(w io.Writer, tasks []tracing.Task) error {
	table := tablewriter.NewWriter(w)
	table.Options(
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
	)
	table.Header("ID", "SCRUBBER", "MODE", "START", "END", "PAGES", "DURATION")

	for _, t := range tasks {
		detail, _ := t.Detail.(map[string]interface{})

		row := []string{
			t.ID,
			t.Where,
			t.What,
			detailHex(detail, "start"),
			detailHex(detail, "end"),
			detailDec(detail, "pages"),
			t.Duration().String(),
		}

		if err := table.Append(row); err != nil {
			return err
		}
	}

	return table.Render()
}

func detailHex(detail map[string]interface{}, key string) string {
	v, ok := detail[key].(float64)
	if !ok {
		return "-"
	}

	return hex(uint64(v))
}

func detailDec(detail map[string]interface{}, key string) string {
	v, ok := detail[key].(float64)
	if !ok {
		return "-"
	}

	return fmt.Sprintf("%d", uint64(v))
}
