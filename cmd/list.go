package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalnine/genbench/internal/dataset"
	"github.com/signalnine/genbench/internal/score"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the known categories and scored tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Categories:")
			for _, c := range dataset.AllCategories {
				kind := "reasoning"
				switch {
				case c.IsImage():
					kind = "image"
				case c.IsVideo():
					kind = "video"
				}
				fmt.Fprintf(out, "  - %s [%s]\n", c, kind)
			}
			fmt.Fprintln(out, "\nScored tasks:")
			for _, t := range score.ExpectedTasks {
				fmt.Fprintf(out, "  - %s\n", t)
			}
			return nil
		},
	}
}
