package container_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/signalnine/genbench/internal/docker"
	"github.com/signalnine/genbench/internal/metric"
	"github.com/signalnine/genbench/internal/metric/container"
)

type fakeRunner struct {
	result   string
	exitCode int
	timedOut bool
	got      *docker.RunOpts
}

func (f *fakeRunner) Run(ctx context.Context, opts *docker.RunOpts) (*docker.RunResult, error) {
	f.got = opts
	if f.result != "" {
		if err := os.WriteFile(filepath.Join(opts.OutDir, "result.json"), []byte(f.result), 0o644); err != nil {
			return nil, err
		}
	}
	return &docker.RunResult{ExitCode: f.exitCode, TimedOut: f.timedOut, Logs: "line one\nTraceback: boom"}, nil
}

func newScorer(t *testing.T, r *fakeRunner) *container.Scorer {
	return container.New(r, container.Options{
		Image:     "genbench/metrics:latest",
		ModelPath: "/weights",
		WorkDir:   t.TempDir(),
		Timeout:   time.Minute,
	})
}

func TestLPIPS(t *testing.T) {
	r := &fakeRunner{result: `{"value": 0.25}`}
	s := newScorer(t, r)
	got, err := s.LPIPS(context.Background(), "/data/a.png", "/data/b.jpg")
	if err != nil {
		t.Fatalf("LPIPS: %v", err)
	}
	if got != 0.25 {
		t.Errorf("got %f, want 0.25", got)
	}
	wantCmd := []string{"lpips", "/media/0", "/media/1"}
	if strings.Join(r.got.Command, " ") != strings.Join(wantCmd, " ") {
		t.Errorf("command: got %v, want %v", r.got.Command, wantCmd)
	}
	targets := map[string]bool{}
	for _, m := range r.got.Mounts {
		targets[m.Target] = m.ReadOnly
	}
	for _, want := range []string{"/media/0/0000.png", "/media/1/0000.jpg", "/models"} {
		if ro, ok := targets[want]; !ok || !ro {
			t.Errorf("expected read-only mount %s, got %v", want, r.got.Mounts)
		}
	}
}

func TestEmbedText(t *testing.T) {
	r := &fakeRunner{result: `{"vector": [0.5, 0.5]}`}
	s := newScorer(t, r)
	vec, err := s.EmbedText(context.Background(), "a red car")
	if err != nil {
		t.Fatalf("EmbedText: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("vector length: got %d, want 2", len(vec))
	}
	if r.got.Env["GENBENCH_TEXT"] != "a red car" {
		t.Errorf("text not passed via env: %v", r.got.Env)
	}
}

func TestFIDFrameGroups(t *testing.T) {
	r := &fakeRunner{result: `{"value": 120}`}
	s := newScorer(t, r)
	if _, err := s.FID(context.Background(), []string{"r0.png", "r1.png"}, []string{"g0.png", "g1.png"}); err != nil {
		t.Fatalf("FID: %v", err)
	}
	// two groups of two frames plus the weights mount
	if len(r.got.Mounts) != 5 {
		t.Errorf("mounts: got %d, want 5", len(r.got.Mounts))
	}
}

func TestDegenerate(t *testing.T) {
	s := newScorer(t, &fakeRunner{result: `{"error": "degenerate"}`})
	_, err := s.FVD(context.Background(), "ref.mp4", "gen.mp4")
	if !errors.Is(err, metric.ErrDegenerateFeatures) {
		t.Errorf("expected ErrDegenerateFeatures, got %v", err)
	}
}

func TestFailures(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
		want   string
	}{
		{"nonzero exit", &fakeRunner{exitCode: 1}, "Traceback: boom"},
		{"timeout", &fakeRunner{timedOut: true, exitCode: 124}, "timed out"},
		{"missing result", &fakeRunner{}, "reading result"},
		{"no value", &fakeRunner{result: `{}`}, "no value"},
		{"backend error", &fakeRunner{result: `{"error": "cuda oom"}`}, "cuda oom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScorer(t, tt.runner)
			_, err := s.LPIPS(context.Background(), "a.png", "b.png")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}
