package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/signalnine/genbench/internal/config"
	"github.com/signalnine/genbench/internal/dataset"
	"github.com/signalnine/genbench/internal/evaluator"
	"github.com/signalnine/genbench/internal/report"
	"github.com/signalnine/genbench/internal/result"
	"github.com/signalnine/genbench/internal/runner"
	"github.com/signalnine/genbench/internal/store"
)

type evaluateFlags struct {
	results   string
	basePath  string
	modelPath string
	output    string
	model     string
	parallel  int
	record    bool
	format    string
}

func newEvaluateCmd() *cobra.Command {
	var f evaluateFlags
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a model results file and write the result document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			return runEvaluate(cmd, cfg, f)
		},
	}
	cmd.Flags().StringVar(&f.results, "results", "", "model results JSON file")
	cmd.Flags().StringVar(&f.basePath, "base-path", "", "dataset root for reference media")
	cmd.Flags().StringVar(&f.modelPath, "model-path", "", "directory with metric model weights")
	cmd.Flags().StringVar(&f.output, "output", "", "result document path (default: new run dir)")
	cmd.Flags().StringVar(&f.model, "model", "", "model name recorded in the document")
	cmd.Flags().IntVar(&f.parallel, "parallel", 1, "max concurrent samples")
	cmd.Flags().BoolVar(&f.record, "record", false, "save the run summary to the history database")
	cmd.Flags().StringVar(&f.format, "format", "table", "summary format (table, markdown, json)")
	cmd.MarkFlagRequired("results")
	return cmd
}

// apply lets explicitly set flags override config values.
func (f *evaluateFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("base-path") {
		cfg.Dataset.BasePath = f.basePath
	}
	if cmd.Flags().Changed("model-path") {
		cfg.Metrics.ModelPath = f.modelPath
	}
	if cmd.Flags().Changed("parallel") && f.parallel > 0 {
		cfg.Run.Parallel = f.parallel
	}
}

func runEvaluate(cmd *cobra.Command, cfg *config.Config, f evaluateFlags) error {
	out := cmd.OutOrStdout()
	output := f.output
	if output == "" {
		runDir, err := result.CreateRunDir(cfg.Results.Dir)
		if err != nil {
			return &exitError{code: ExitNotSaved, err: err}
		}
		output = filepath.Join(runDir, result.DocumentName)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	records, err := dataset.Load(f.results)
	if err != nil {
		return fatal(output, f.model, err)
	}
	b, err := openBackends(ctx, cfg)
	if err != nil {
		return fatal(output, f.model, err)
	}
	defer b.Close()

	eval := evaluator.New(b.Providers, evaluator.Options{
		BasePath:    cfg.Dataset.BasePath,
		MaxDistance: cfg.Metrics.MaxDistance,
		FrameCount:  cfg.Dataset.Frames,
	})
	doc := runner.NewDriver(eval, runner.Options{
		Model:       f.model,
		Parallel:    cfg.Run.Parallel,
		MaxDistance: cfg.Metrics.MaxDistance,
		Progress:    out,
	}).Run(ctx, records)

	if err := result.Write(output, doc); err != nil {
		return &exitError{code: ExitNotSaved, err: fmt.Errorf("writing %s: %w", output, err)}
	}
	fmt.Fprintf(out, "Result document: %s\n\n", output)

	if f.record {
		recordRun(ctx, cfg, doc)
	}
	return report.Render(doc, report.Options{Format: f.format, NoColor: noColor}, out)
}

// fatal writes the all-zero fallback document for a run that could not
// start.
func fatal(output, model string, cause error) error {
	log.Printf("error: %v", cause)
	if err := result.Write(output, result.Fallback(model, cause)); err != nil {
		return &exitError{code: ExitNotSaved, err: fmt.Errorf("writing fallback %s: %w", output, err)}
	}
	return &exitError{code: ExitFatal, err: cause}
}

func recordRun(ctx context.Context, cfg *config.Config, doc *result.Document) {
	s, err := store.Open(ctx, cfg.DatabaseURL())
	if err != nil {
		log.Printf("warning: run not recorded: %v", err)
		return
	}
	defer s.Close()
	if err := s.SaveRun(ctx, doc); err != nil {
		log.Printf("warning: run not recorded: %v", err)
	}
}
