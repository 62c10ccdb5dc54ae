package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/signalnine/genbench/internal/config"
	"github.com/signalnine/genbench/internal/docker"
	"github.com/signalnine/genbench/internal/frames"
	"github.com/signalnine/genbench/internal/metric"
	"github.com/signalnine/genbench/internal/metric/container"
	"github.com/signalnine/genbench/internal/metric/gemini"
)

// backends owns the long-lived metric services of one command.
type backends struct {
	metric.Providers
	docker  *docker.Runner
	sampler *frames.Sampler
}

func openBackends(ctx context.Context, cfg *config.Config) (*backends, error) {
	parent := cfg.Run.WorkDir
	if parent != "" {
		abs, err := filepath.Abs(parent)
		if err != nil {
			return nil, fmt.Errorf("resolving work dir: %w", err)
		}
		parent = abs
	}
	sampler, err := frames.NewSampler(parent)
	if err != nil {
		return nil, err
	}
	b := &backends{sampler: sampler}

	r, err := docker.NewRunner()
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("connecting to docker: %w", err)
	}
	b.docker = r

	scorer := container.New(r, container.Options{
		Image:       cfg.Metrics.Image,
		ModelPath:   cfg.Metrics.ModelPath,
		WorkDir:     sampler.WorkDir(),
		Timeout:     cfg.Metrics.Timeout,
		CPULimit:    cfg.Metrics.CPULimit,
		MemoryLimit: cfg.Metrics.MemoryLimit,
		GPUs:        cfg.Metrics.GPUs,
	})
	b.Providers = metric.Providers{
		Perceptual:   scorer,
		Embedder:     scorer,
		Distribution: scorer,
		Frames:       sampler,
	}

	if cfg.Metrics.Embedder == "gemini" {
		emb, err := gemini.New(ctx, gemini.Config{
			Project:  cfg.Metrics.GeminiProject,
			Location: cfg.Metrics.GeminiLocation,
			Model:    cfg.Metrics.GeminiModel,
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Embedder = emb
	}
	return b, nil
}

// Close removes extracted frames and releases the docker client.
func (b *backends) Close() {
	if b.docker != nil {
		b.docker.Close()
	}
	if b.sampler != nil {
		b.sampler.Cleanup()
	}
}
