// Package frames samples still frames from videos with ffprobe and ffmpeg.
package frames

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/signalnine/genbench/internal/metric"
)

// DefaultCount is the number of frames sampled per video.
const DefaultCount = 16

// Sampler extracts frames into per-call directories under a run work dir.
// Remove the work dir with Cleanup when the run ends.
type Sampler struct {
	workDir string
	ffmpeg  string
	ffprobe string
	seq     atomic.Int64
}

// NewSampler creates a work dir under parent (os.TempDir when empty).
func NewSampler(parent string) (*Sampler, error) {
	dir, err := os.MkdirTemp(parent, "genbench-frames-")
	if err != nil {
		return nil, fmt.Errorf("creating frame work dir: %w", err)
	}
	return &Sampler{workDir: dir, ffmpeg: "ffmpeg", ffprobe: "ffprobe"}, nil
}

func (s *Sampler) WorkDir() string { return s.workDir }

func (s *Sampler) Cleanup() error {
	return os.RemoveAll(s.workDir)
}

var _ metric.FrameSampler = (*Sampler)(nil)

// SampleFrames implements metric.FrameSampler.
func (s *Sampler) SampleFrames(ctx context.Context, video string, n int) ([]string, error) {
	total, err := s.countFrames(ctx, video)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("%s: %w", video, metric.ErrNoFrames)
	}
	indices := SampleIndices(total, n)

	outDir := filepath.Join(s.workDir, fmt.Sprintf("%06d", s.seq.Add(1)))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating frame dir: %w", err)
	}
	cmd := exec.CommandContext(ctx, s.ffmpeg,
		"-v", "error", "-i", video,
		"-vf", SelectFilter(indices),
		"-vsync", "0",
		filepath.Join(outDir, "%04d.png"),
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg %s: %s: %w", video, strings.TrimSpace(string(out)), err)
	}

	frames, err := filepath.Glob(filepath.Join(outDir, "*.png"))
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%s: %w", video, metric.ErrNoFrames)
	}
	sort.Strings(frames)
	return expand(frames, indices), nil
}

func (s *Sampler) countFrames(ctx context.Context, video string) (int, error) {
	cmd := exec.CommandContext(ctx, s.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets",
		"-of", "csv=p=0",
		video,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", video, err)
	}
	field := strings.TrimSpace(strings.Split(strings.TrimSpace(string(out)), "\n")[0])
	field = strings.TrimSuffix(field, ",")
	if field == "" || field == "N/A" {
		return 0, nil
	}
	n, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: unexpected frame count %q", video, field)
	}
	return n, nil
}

// SampleIndices returns n frame indices spread uniformly over [0, total-1],
// truncated toward zero. Short videos repeat indices.
func SampleIndices(total, n int) []int {
	if total <= 0 || n <= 0 {
		return nil
	}
	idx := make([]int, n)
	if n == 1 {
		return idx
	}
	step := float64(total-1) / float64(n-1)
	for i := range idx {
		idx[i] = int(float64(i) * step)
	}
	return idx
}

// SelectFilter builds an ffmpeg select expression matching the distinct
// indices.
func SelectFilter(indices []int) string {
	var terms []string
	prev := -1
	for _, i := range indices {
		if i == prev {
			continue
		}
		terms = append(terms, fmt.Sprintf("eq(n\\,%d)", i))
		prev = i
	}
	return "select='" + strings.Join(terms, "+") + "'"
}

// expand maps the extracted distinct frames back onto the requested
// indices so repeated indices share a file.
func expand(frames []string, indices []int) []string {
	out := make([]string, 0, len(indices))
	k, prev := -1, -1
	for _, i := range indices {
		if i != prev {
			k++
			prev = i
		}
		if k >= len(frames) {
			k = len(frames) - 1
		}
		out = append(out, frames[k])
	}
	return out
}
