package frames_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/signalnine/genbench/internal/frames"
	"github.com/signalnine/genbench/internal/metric"
)

func TestSampleIndices(t *testing.T) {
	tests := []struct {
		total, n int
		want     []int
	}{
		{100, 4, []int{0, 33, 66, 99}},
		{16, 16, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
		{3, 5, []int{0, 0, 1, 1, 2}},
		{10, 1, []int{0}},
		{0, 16, nil},
	}
	for _, tt := range tests {
		got := frames.SampleIndices(tt.total, tt.n)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SampleIndices(%d, %d): got %v, want %v", tt.total, tt.n, got, tt.want)
		}
	}
}

func TestSampleIndicesMonotone(t *testing.T) {
	idx := frames.SampleIndices(481, frames.DefaultCount)
	if len(idx) != frames.DefaultCount {
		t.Fatalf("expected %d indices, got %d", frames.DefaultCount, len(idx))
	}
	if idx[0] != 0 || idx[len(idx)-1] != 480 {
		t.Errorf("indices should span the video: %v", idx)
	}
	for i := 1; i < len(idx); i++ {
		if idx[i] < idx[i-1] {
			t.Fatalf("indices not ordered: %v", idx)
		}
	}
}

func TestSelectFilter(t *testing.T) {
	got := frames.SelectFilter([]int{0, 0, 1, 4})
	want := `select='eq(n\,0)+eq(n\,1)+eq(n\,4)'`
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestSampleFrames(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}
	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	gen := exec.Command("ffmpeg", "-v", "error", "-f", "lavfi", "-i", "testsrc=size=64x64:rate=10:duration=3",
		"-pix_fmt", "yuv420p", video)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Fatalf("generating clip: %v: %s", err, out)
	}

	s, err := frames.NewSampler(dir)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	got, err := s.SampleFrames(context.Background(), video, frames.DefaultCount)
	if err != nil {
		t.Fatalf("SampleFrames: %v", err)
	}
	if len(got) != frames.DefaultCount {
		t.Errorf("frames: got %d, want %d", len(got), frames.DefaultCount)
	}
	for _, f := range got {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("frame missing: %s", f)
		}
	}
	if err := s.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(s.WorkDir()); !os.IsNotExist(err) {
		t.Error("work dir not removed")
	}
}

func TestSampleFramesNotAVideo(t *testing.T) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}
	dir := t.TempDir()
	bogus := filepath.Join(dir, "empty.mp4")
	os.WriteFile(bogus, nil, 0o644)
	s, err := frames.NewSampler(dir)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	defer s.Cleanup()
	// ffprobe either fails outright or reports no frames
	if _, err := s.SampleFrames(context.Background(), bogus, 4); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestSampleFramesZeroCount(t *testing.T) {
	dir := t.TempDir()
	fake := filepath.Join(dir, "ffprobe")
	os.WriteFile(fake, []byte("#!/bin/sh\necho N/A\n"), 0o755)
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	s, err := frames.NewSampler(dir)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	defer s.Cleanup()
	_, err = s.SampleFrames(context.Background(), filepath.Join(dir, "any.mp4"), 4)
	if !errors.Is(err, metric.ErrNoFrames) {
		t.Errorf("expected ErrNoFrames, got %v", err)
	}
}
