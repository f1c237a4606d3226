package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/chorus/internal/output"
	"github.com/joescharf/chorus/internal/report"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect past review runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		runs, err := s.ListRuns(cmd.Context(), runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			ui.Info("No runs recorded yet")
			return nil
		}

		table := ui.Table([]string{"ID", "When", "Recommendation", "Comments", "Critical", "Degraded"})
		for _, r := range runs {
			table.Append([]string{
				r.ID,
				r.CreatedAt.Local().Format(time.DateTime),
				output.RecommendationColor(r.Recommendation),
				strconv.Itoa(r.TotalComments),
				strconv.Itoa(r.CriticalCount),
				strings.Join(r.Degraded, ", "),
			})
		}
		return table.Render()
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run's full report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		run, err := s.GetRun(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if run.ReportJSON == "" {
			return fmt.Errorf("run %s has no stored report", run.ID)
		}

		rep, err := report.Unmarshal([]byte(run.ReportJSON))
		if err != nil {
			return err
		}
		return report.Render(ui, rep)
	},
}

func init() {
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "l", 20, "Maximum number of runs to list")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}
