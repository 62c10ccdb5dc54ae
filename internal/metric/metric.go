// Package metric defines the contracts of the external metric backends and
// the pure helpers used to combine their outputs.
package metric

import (
	"context"
	"errors"
	"math"
)

var (
	// ErrDegenerateFeatures is returned by a DistributionScorer when the
	// feature statistics of an input cannot be computed (for example a
	// singular covariance from too few frames).
	ErrDegenerateFeatures = errors.New("degenerate features")

	// ErrNoFrames is returned by a FrameSampler for a video with no
	// decodable frames.
	ErrNoFrames = errors.New("video has no frames")
)

// DefaultMaxDistance is the FID/FVD value that normalizes to 0.
const DefaultMaxDistance = 1000.0

// PerceptualScorer returns the LPIPS distance between two images, in [0,1].
type PerceptualScorer interface {
	LPIPS(ctx context.Context, a, b string) (float64, error)
}

// Embedder maps images and text into a shared embedding space.
type Embedder interface {
	EmbedImage(ctx context.Context, path string) ([]float32, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// DistributionScorer computes distributional distances. Lower is better.
type DistributionScorer interface {
	FID(ctx context.Context, refFrames, genFrames []string) (float64, error)
	FVD(ctx context.Context, refVideo, genVideo string) (float64, error)
}

// FrameSampler extracts n uniformly spaced frames from a video and returns
// their paths in temporal order.
type FrameSampler interface {
	SampleFrames(ctx context.Context, video string, n int) ([]string, error)
}

// Providers bundles the long-lived metric services of a run.
type Providers struct {
	Perceptual   PerceptualScorer
	Embedder     Embedder
	Distribution DistributionScorer
	Frames       FrameSampler
}

// Cosine returns the cosine similarity of a and b. Mismatched lengths and
// zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Normalize maps a distance onto [0,1] as clamp(1 - d/max, 0, 1). Infinite
// or NaN distances map to 0.
func Normalize(d, max float64) float64 {
	if math.IsInf(d, 0) || math.IsNaN(d) || max <= 0 {
		return 0
	}
	v := 1 - d/max
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Argmax returns the index of the candidate most similar to target, or -1
// when there are no candidates.
func Argmax(target []float32, candidates [][]float32) int {
	best, bestSim := -1, math.Inf(-1)
	for i, c := range candidates {
		if sim := Cosine(target, c); sim > bestSim {
			best, bestSim = i, sim
		}
	}
	return best
}
