package cmd

import (
	"github.com/spf13/cobra"

	"github.com/signalnine/genbench/internal/dataset"
	"github.com/signalnine/genbench/internal/report"
	"github.com/signalnine/genbench/internal/understanding"
)

func newAccuracyCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "accuracy FILE",
		Short: "Multiple-choice accuracy of an understanding results file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			rep := understanding.Accuracy(records)
			return report.RenderAccuracy(rep, report.Options{Format: format, NoColor: noColor}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format (table, json)")
	return cmd
}
