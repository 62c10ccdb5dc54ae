// Package container implements the metric contracts by running a metric
// image (LPIPS, CLIP, FID, FVD) in a one-shot Docker container per call.
//
// The image is invoked as `<op> <args...>` with inputs mounted read-only
// under /media, weights under /models and a writable /out. It must write
// /out/result.json containing one of:
//
//	{"value": 12.3}
//	{"vector": [0.1, 0.2]}
//	{"error": "degenerate"}
package container

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/signalnine/genbench/internal/docker"
	"github.com/signalnine/genbench/internal/metric"
)

// ContainerRunner is the subset of docker.Runner used here.
type ContainerRunner interface {
	Run(ctx context.Context, opts *docker.RunOpts) (*docker.RunResult, error)
}

type Options struct {
	Image       string
	ModelPath   string
	WorkDir     string
	Timeout     time.Duration
	CPULimit    float64
	MemoryLimit int64
	GPUs        bool
}

// Scorer runs metric operations in containers. It implements
// metric.PerceptualScorer, metric.Embedder and metric.DistributionScorer.
type Scorer struct {
	runner ContainerRunner
	opts   Options
}

func New(runner ContainerRunner, opts Options) *Scorer {
	return &Scorer{runner: runner, opts: opts}
}

var (
	_ metric.PerceptualScorer   = (*Scorer)(nil)
	_ metric.Embedder           = (*Scorer)(nil)
	_ metric.DistributionScorer = (*Scorer)(nil)
)

type response struct {
	Value  *float64  `json:"value"`
	Vector []float32 `json:"vector"`
	Error  string    `json:"error"`
}

func (s *Scorer) LPIPS(ctx context.Context, a, b string) (float64, error) {
	resp, err := s.call(ctx, "lpips", [][]string{{a}, {b}}, nil)
	if err != nil {
		return 0, err
	}
	return resp.value("lpips")
}

func (s *Scorer) EmbedImage(ctx context.Context, path string) ([]float32, error) {
	resp, err := s.call(ctx, "embed-image", [][]string{{path}}, nil)
	if err != nil {
		return nil, err
	}
	return resp.vector("embed-image")
}

func (s *Scorer) EmbedText(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.call(ctx, "embed-text", nil, map[string]string{"GENBENCH_TEXT": text})
	if err != nil {
		return nil, err
	}
	return resp.vector("embed-text")
}

func (s *Scorer) FID(ctx context.Context, refFrames, genFrames []string) (float64, error) {
	resp, err := s.call(ctx, "fid", [][]string{refFrames, genFrames}, nil)
	if err != nil {
		return 0, err
	}
	return resp.value("fid")
}

func (s *Scorer) FVD(ctx context.Context, refVideo, genVideo string) (float64, error) {
	resp, err := s.call(ctx, "fvd", [][]string{{refVideo}, {genVideo}}, nil)
	if err != nil {
		return 0, err
	}
	return resp.value("fvd")
}

// call mounts each group of input files under /media/<group>/ and passes
// the group directories as arguments.
func (s *Scorer) call(ctx context.Context, op string, groups [][]string, env map[string]string) (*response, error) {
	outDir, err := os.MkdirTemp(s.opts.WorkDir, "metric-"+op+"-")
	if err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	args, mounts, err := mediaMounts(groups)
	if err != nil {
		return nil, err
	}
	if s.opts.ModelPath != "" {
		mounts = append(mounts, docker.Mount{Source: s.opts.ModelPath, Target: "/models", ReadOnly: true})
	}

	res, err := s.runner.Run(ctx, &docker.RunOpts{
		Image:       s.opts.Image,
		Command:     append([]string{op}, args...),
		OutDir:      outDir,
		Env:         env,
		Timeout:     s.opts.Timeout,
		Mounts:      mounts,
		CPULimit:    s.opts.CPULimit,
		MemoryLimit: s.opts.MemoryLimit,
		UserID:      fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid()),
		GPUs:        s.opts.GPUs,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if res.TimedOut {
		return nil, fmt.Errorf("%s: timed out after %s", op, res.Duration.Round(time.Second))
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("%s: exit code %d: %s", op, res.ExitCode, lastLine(res.Logs))
	}

	data, err := os.ReadFile(filepath.Join(outDir, "result.json"))
	if err != nil {
		return nil, fmt.Errorf("%s: reading result: %w", op, err)
	}
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%s: parsing result: %w", op, err)
	}
	if resp.Error == "degenerate" {
		return nil, fmt.Errorf("%s: %w", op, metric.ErrDegenerateFeatures)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s: %s", op, resp.Error)
	}
	return &resp, nil
}

func mediaMounts(groups [][]string) ([]string, []docker.Mount, error) {
	var (
		args   []string
		mounts []docker.Mount
	)
	for g, files := range groups {
		dir := fmt.Sprintf("/media/%d", g)
		for i, f := range files {
			abs, err := filepath.Abs(f)
			if err != nil {
				return nil, nil, fmt.Errorf("resolving %s: %w", f, err)
			}
			mounts = append(mounts, docker.Mount{
				Source:   abs,
				Target:   fmt.Sprintf("%s/%04d%s", dir, i, filepath.Ext(f)),
				ReadOnly: true,
			})
		}
		args = append(args, dir)
	}
	return args, mounts, nil
}

func (r *response) value(op string) (float64, error) {
	if r.Value == nil {
		return 0, fmt.Errorf("%s: result has no value", op)
	}
	return *r.Value, nil
}

func (r *response) vector(op string) ([]float32, error) {
	if len(r.Vector) == 0 {
		return nil, fmt.Errorf("%s: result has no vector", op)
	}
	return r.Vector, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
