package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalnine/genbench/internal/config"
	"github.com/signalnine/genbench/internal/dataset"
	"github.com/signalnine/genbench/internal/result"
	"github.com/signalnine/genbench/internal/score"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, body string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("bad flag"), ExitUsage},
		{"fatal", &exitError{code: ExitFatal, err: errors.New("boom")}, ExitFatal},
		{"wrapped", fmt.Errorf("outer: %w", &exitError{code: ExitNotSaved, err: errors.New("disk")}), ExitNotSaved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestEvaluateMissingResultsWritesFallback(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out", "result.json")

	_, err := execute(t, "--config", config.DefaultPath, "evaluate",
		"--results", filepath.Join(dir, "missing.json"), "--output", output, "--model", "m1")
	if got := ExitCode(err); got != ExitFatal {
		t.Fatalf("exit code: got %d (%v), want %d", got, err, ExitFatal)
	}

	doc, err := result.Read(output)
	if err != nil {
		t.Fatalf("fallback document not readable: %v", err)
	}
	if doc.Model != "m1" || len(doc.Failures) != 1 {
		t.Errorf("fallback: model=%q failures=%v", doc.Model, doc.Failures)
	}
	if len(doc.TaskScores) != len(score.ExpectedTasks) || doc.GenerationScore != 0 {
		t.Errorf("fallback scores: %v %f", doc.TaskScores, doc.GenerationScore)
	}
	for task, v := range doc.TaskScores {
		if v != 0 {
			t.Errorf("task %s: got %f, want 0", task, v)
		}
	}
}

func TestEvaluateUnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	blocker := writeFile(t, filepath.Join(dir, "file"), "x")

	_, err := execute(t, "evaluate",
		"--results", filepath.Join(dir, "missing.json"),
		"--output", filepath.Join(blocker, "sub", "result.json"))
	if got := ExitCode(err); got != ExitNotSaved {
		t.Errorf("exit code: got %d (%v), want %d", got, err, ExitNotSaved)
	}
}

func TestEvaluateRequiresResults(t *testing.T) {
	_, err := execute(t, "evaluate")
	if got := ExitCode(err); got != ExitUsage {
		t.Errorf("exit code: got %d, want %d", got, ExitUsage)
	}
}

func TestExplicitMissingConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "evaluate", "--results", "x.json")
	if got := ExitCode(err); got != ExitUsage {
		t.Errorf("exit code: got %d, want %d", got, ExitUsage)
	}
}

func TestEvaluateFlagsOverrideConfig(t *testing.T) {
	cmd := newEvaluateCmd()
	if err := cmd.ParseFlags([]string{"--base-path", "/data/other", "--parallel", "8"}); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Dataset.BasePath = "/data/bench"
	cfg.Metrics.ModelPath = "/models"

	var f evaluateFlags
	f.basePath, _ = cmd.Flags().GetString("base-path")
	f.parallel, _ = cmd.Flags().GetInt("parallel")
	f.apply(cmd, cfg)

	if cfg.Dataset.BasePath != "/data/other" {
		t.Errorf("base path: got %q", cfg.Dataset.BasePath)
	}
	if cfg.Run.Parallel != 8 {
		t.Errorf("parallel: got %d", cfg.Run.Parallel)
	}
	if cfg.Metrics.ModelPath != "/models" {
		t.Errorf("unset flag must not override: got %q", cfg.Metrics.ModelPath)
	}
}

func TestValidateRecords(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ref.png"), "x")
	writeFile(t, filepath.Join(dir, "out.png"), "x")

	recs, err := dataset.Parse([]byte(`[
		{"id": 1, "category": "Fine-Grained_Image_Reconstruction", "data": {"image": "/ref.png"}, "output": "out.png"},
		{"id": 2, "category": "Fine-Grained_Image_Reconstruction", "data": {"image": "/gone.png"}, "output": "out.png"},
		{"id": 3, "category": "Text-Image_Editing", "data": {"edited_image": "ref.png"}, "output": "out.png"},
		{"id": 4, "category": "Text-to-Video_Generation", "output": "v.mp4", "Text_Prompt": "a dog", "error": 1},
		{"id": 5, "category": "Visual_Spatial_Planning", "data": {}},
		{"id": 6, "category": "Mystery", "output": "x"}
	]`))
	if err != nil {
		t.Fatal(err)
	}

	problems, scored := validateRecords(recs, dir)
	if scored != 4 {
		t.Errorf("scored: got %d, want 4", scored)
	}
	want := map[string]string{
		"2": "media not found",
		"3": "missing Text_Prompt",
		"4": "upstream generation error",
		"6": "unknown category",
	}
	if len(problems) != len(want) {
		t.Fatalf("problems: got %+v", problems)
	}
	for _, p := range problems {
		if !strings.Contains(p.reason, want[p.id]) {
			t.Errorf("record %s: got %q, want %q", p.id, p.reason, want[p.id])
		}
	}
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{string(dataset.Reconstruction) + " [image]", string(dataset.VideoPrediction) + " [video]", "video_prediction"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestAccuracyCommand(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "mc.json"), `[
		{"id": 1, "category": "Spatial", "output": "A", "answer": "A"},
		{"id": 2, "category": "Spatial", "output": "", "answer": "B"}
	]`)
	out, err := execute(t, "--no-color", "accuracy", path)
	if err != nil {
		t.Fatalf("accuracy: %v", err)
	}
	if !strings.Contains(out, "50.00%") {
		t.Errorf("expected 50%% accuracy:\n%s", out)
	}
}

func TestReportCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	if err := result.Write(path, result.Empty("run-xyz", "m1")); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "--no-color", "report", path, "--format", "markdown")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "run-xyz") {
		t.Errorf("report output missing run id:\n%s", out)
	}
}
