package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/signalnine/genbench/internal/report"
	"github.com/signalnine/genbench/internal/result"
)

func newReportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "report [result.json]",
		Short: "Render the summary of a stored result document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Results.Dir, "latest", result.DocumentName)
			if len(args) > 0 {
				path = args[0]
			}
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				return fmt.Errorf("resolving result document: %w", err)
			}
			return report.Generate(resolved, report.Options{Format: format, NoColor: noColor}, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "output format (table, markdown, json)")
	return cmd
}
