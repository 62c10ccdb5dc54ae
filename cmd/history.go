package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signalnine/genbench/internal/report"
	"github.com/signalnine/genbench/internal/store"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit int
		model string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs from the history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			s, err := store.Open(ctx, cfg.DatabaseURL())
			if err != nil {
				return err
			}
			defer s.Close()

			runs, err := s.ListRuns(ctx, model, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.Heading(fmt.Sprintf("%d recorded runs", len(runs)), noColor))
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tMODEL\tSCORE\tFAILURES\tRUN")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%.4f\t%d\t%s\n", r.StartedAt.Format("2006-01-02 15:04"), r.Model, r.GenerationScore, r.Failures, r.RunID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	cmd.Flags().StringVar(&model, "model", "", "only list runs of this model")
	return cmd
}
