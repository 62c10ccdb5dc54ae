package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalnine/genbench/internal/config"
)

var (
	cfgFile string
	noColor bool
)

// Exit codes returned by the evaluate command.
const (
	ExitOK       = 0
	ExitUsage    = 1
	ExitFatal    = 2
	ExitNotSaved = 3
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitUsage
}

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "genbench",
		Short:        "Scoring harness for unified image and video generation benchmarks",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable styled output")
	root.AddCommand(newEvaluateCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newAccuracyCmd())
	root.AddCommand(newExplainEditCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newHistoryCmd())
	return root
}

// loadConfig reads the config file and exports the secrets env file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, &exitError{code: ExitUsage, err: err}
	}
	if err := cfg.LoadSecrets(); err != nil {
		return nil, &exitError{code: ExitUsage, err: fmt.Errorf("secrets: %w", err)}
	}
	return cfg, nil
}
