package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent anonymization runs from the audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runHistory(cmd)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "Maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command) error {
	if DB == nil {
		return fmt.Errorf("history requires the audit log: pass --db or set POSTGRES_HOST")
	}

	runs, err := DB.RecentRuns(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tINPUT\tSTATUS\tFRAMES\tFACES\tCOMPLETED")
	fmt.Fprintln(w, "--\t-----\t------\t------\t-----\t---------")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
			r.ID, r.Input, r.Status, r.Frames, r.Detections, r.CompletedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
