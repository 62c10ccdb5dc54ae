package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signalnine/genbench/internal/dataset"
	"github.com/signalnine/genbench/internal/report"
)

type problem struct {
	id       string
	category dataset.Category
	reason   string
}

func newValidateCmd() *cobra.Command {
	var results, basePath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every record of a results file without computing metrics",
		Long:  "Classify each record for its category and check that its media files exist. Records of the reasoning categories are counted but not checked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("base-path") {
				cfg.Dataset.BasePath = basePath
			}
			records, err := dataset.Load(results)
			if err != nil {
				return err
			}

			problems, scored := validateRecords(records, cfg.Dataset.BasePath)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, report.Heading(fmt.Sprintf("%d records, %d scored, %d with problems", len(records), scored, len(problems)), noColor))
			if len(problems) == 0 {
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCATEGORY\tPROBLEM")
			for _, p := range problems {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.id, p.category, p.reason)
			}
			tw.Flush()
			return fmt.Errorf("%d records would be skipped", len(problems))
		},
	}
	cmd.Flags().StringVar(&results, "results", "", "model results JSON file")
	cmd.Flags().StringVar(&basePath, "base-path", "", "dataset root for reference media")
	cmd.MarkFlagRequired("results")
	return cmd
}

// validateRecords returns the problems of the image and video records and
// how many such records were checked.
func validateRecords(records []dataset.Record, basePath string) ([]problem, int) {
	var (
		problems []problem
		scored   int
	)
	for _, rec := range records {
		cat := rec.Category
		if !cat.Known() {
			problems = append(problems, problem{rec.Label(), cat, "unknown category"})
			continue
		}
		if !cat.IsImage() && !cat.IsVideo() {
			continue
		}
		scored++
		if rec.Error != 0 {
			problems = append(problems, problem{rec.Label(), cat, "upstream generation error"})
			continue
		}
		in, err := dataset.Classify(rec, cat, basePath)
		if err == nil {
			err = dataset.CheckMedia(rec, in)
		}
		if err != nil {
			reason := err.Error()
			var verr *dataset.ValidationError
			if errors.As(err, &verr) {
				reason = verr.Reason
			}
			problems = append(problems, problem{rec.Label(), cat, reason})
		}
	}
	return problems, scored
}
