package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/signalnine/genbench/internal/dataset"
	"github.com/signalnine/genbench/internal/metric"
	"github.com/signalnine/genbench/internal/reasoning"
	"github.com/signalnine/genbench/internal/report"
)

type reasoningFlags struct {
	results  string
	basePath string
	format   string
}

func (f *reasoningFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.results, "results", "", "model results JSON file")
	cmd.Flags().StringVar(&f.basePath, "base-path", "", "dataset root for reference images")
	cmd.Flags().StringVar(&f.format, "format", "table", "output format (table, json)")
	cmd.MarkFlagRequired("results")
}

// withEmbedder loads the records and runs fn with the configured embedder.
func (f *reasoningFlags) withEmbedder(cmd *cobra.Command, fn func(ctx context.Context, emb metric.Embedder, records []dataset.Record, basePath string) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("base-path") {
		cfg.Dataset.BasePath = f.basePath
	}
	records, err := dataset.Load(f.results)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(ctx, b.Embedder, records, cfg.Dataset.BasePath)
}

func newExplainEditCmd() *cobra.Command {
	var f reasoningFlags
	cmd := &cobra.Command{
		Use:   "explain-edit",
		Short: "Score explanation choices and edited images",
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withEmbedder(cmd, func(ctx context.Context, emb metric.Embedder, records []dataset.Record, basePath string) error {
				rep := reasoning.NewExplainEdit(emb, basePath).Evaluate(ctx, records)
				return report.RenderExplainEdit(rep, report.Options{Format: f.format, NoColor: noColor}, cmd.OutOrStdout())
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newPlanCmd() *cobra.Command {
	var f reasoningFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Score multi-step visual planning outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return f.withEmbedder(cmd, func(ctx context.Context, emb metric.Embedder, records []dataset.Record, basePath string) error {
				rep := reasoning.NewPlanner(emb, basePath).Evaluate(ctx, records)
				return report.RenderPlan(rep, report.Options{Format: f.format, NoColor: noColor}, cmd.OutOrStdout())
			})
		},
	}
	f.register(cmd)
	return cmd
}

