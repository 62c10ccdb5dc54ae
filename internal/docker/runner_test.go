package docker_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/signalnine/genbench/internal/docker"
)

func newRunner(t *testing.T) *docker.Runner {
	t.Helper()
	if os.Getenv("GENBENCH_DOCKER_TESTS") == "" {
		t.Skip("set GENBENCH_DOCKER_TESTS=1 to run Docker tests")
	}
	r, err := docker.NewRunner()
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRunContainer(t *testing.T) {
	r := newRunner(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	outDir := t.TempDir()
	inDir := t.TempDir()
	os.WriteFile(filepath.Join(inDir, "a.txt"), []byte("ref"), 0o644)

	result, err := r.Run(ctx, &docker.RunOpts{
		Image:   "alpine:latest",
		Command: []string{"sh", "-c", "cat /media/a.txt > /out/result.txt"},
		OutDir:  outDir,
		Mounts:  []docker.Mount{{Source: filepath.Join(inDir, "a.txt"), Target: "/media/a.txt", ReadOnly: true}},
		Timeout: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != 0 {
		t.Errorf("exit code: got %d, want 0", result.ExitCode)
	}
	if result.TimedOut {
		t.Error("unexpected timeout")
	}
	content, err := os.ReadFile(filepath.Join(outDir, "result.txt"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(content) != "ref" {
		t.Errorf("output: got %q, want %q", content, "ref")
	}
}

func TestRunContainerTimeout(t *testing.T) {
	r := newRunner(t)
	result, err := r.Run(context.Background(), &docker.RunOpts{
		Image:   "alpine:latest",
		Command: []string{"sleep", "300"},
		OutDir:  t.TempDir(),
		Timeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.TimedOut {
		t.Error("expected timeout")
	}
	if result.ExitCode != 124 {
		t.Errorf("exit code: got %d, want 124", result.ExitCode)
	}
}

func TestRunContainerCrash(t *testing.T) {
	r := newRunner(t)
	result, err := r.Run(context.Background(), &docker.RunOpts{
		Image:   "alpine:latest",
		Command: []string{"sh", "-c", "echo boom >&2; exit 1"},
		OutDir:  t.TempDir(),
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != 1 {
		t.Errorf("exit code: got %d, want 1", result.ExitCode)
	}
}
