// Package evaluator scores a single dataset record against its reference
// data using the run's metric providers.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/signalnine/genbench/internal/dataset"
	"github.com/signalnine/genbench/internal/frames"
	"github.com/signalnine/genbench/internal/metric"
)

type Options struct {
	BasePath    string
	MaxDistance float64
	FrameCount  int
}

// Evaluator is safe for concurrent use when its providers are.
type Evaluator struct {
	p    metric.Providers
	opts Options
}

func New(p metric.Providers, opts Options) *Evaluator {
	if opts.MaxDistance <= 0 {
		opts.MaxDistance = metric.DefaultMaxDistance
	}
	if opts.FrameCount <= 0 {
		opts.FrameCount = frames.DefaultCount
	}
	return &Evaluator{p: p, opts: opts}
}

// Evaluate never returns an error: invalid records are skipped and
// backend failures are recorded as failed samples.
func (e *Evaluator) Evaluate(ctx context.Context, rec dataset.Record, cat dataset.Category) SampleResult {
	if rec.Error != 0 {
		return ZeroResult(rec, cat, StatusSkipped, "upstream generation error")
	}
	in, err := dataset.Classify(rec, cat, e.opts.BasePath)
	if err == nil {
		err = dataset.CheckMedia(rec, in)
	}
	if err != nil {
		var verr *dataset.ValidationError
		if errors.As(err, &verr) {
			return ZeroResult(rec, cat, StatusSkipped, verr.Reason)
		}
		return ZeroResult(rec, cat, StatusSkipped, err.Error())
	}

	res, err := e.compute(ctx, rec, in)
	if err != nil {
		log.Printf("warning: %v", err)
		return ZeroResult(rec, cat, StatusFailed, err.Error())
	}
	return res
}

func (e *Evaluator) compute(ctx context.Context, rec dataset.Record, in dataset.Input) (SampleResult, error) {
	fail := func(op, path string, err error) (SampleResult, error) {
		return SampleResult{}, &ComputationError{ID: rec.ID, Category: in.Category(), Path: path, Op: op, Err: err}
	}
	res := ZeroResult(rec, in.Category(), StatusProcessed, "")

	switch in := in.(type) {
	case dataset.ReconstructionInput:
		if e.p.Perceptual == nil {
			return fail("lpips", in.Output, errNoProvider)
		}
		d, err := e.p.Perceptual.LPIPS(ctx, in.Output, in.Reference)
		if err != nil {
			return fail("lpips", in.Output, err)
		}
		res.Metrics[KeyLPIPS] = 100 - 100*d
		res.Score = res.Metrics[KeyLPIPS]

	case dataset.EditingInput:
		clipI, clipT, err := e.imageSimilarity(ctx, in.Output, in.Reference, in.Prompt)
		if err != nil {
			return fail("clip", in.Output, err)
		}
		setCLIP(&res, clipI, clipT)

	case dataset.TextToImageInput:
		clipI, clipT, err := e.imageSimilarity(ctx, in.Output, in.Reference, in.Prompt)
		if err != nil {
			return fail("clip", in.Output, err)
		}
		setCLIP(&res, clipI, clipT)

	case dataset.ImageToVideoInput:
		clipT, err := e.videoTextSimilarity(ctx, rec, in.Output, in.Prompt)
		if err != nil {
			return fail("clip-t", in.Output, err)
		}
		fvd, err := e.fvd(ctx, in.ReferenceVideo, in.Output)
		if err != nil {
			return fail("fvd", in.Output, err)
		}
		normFVD := metric.Normalize(fvd, e.opts.MaxDistance)
		res.Metrics[KeyCLIPT] = clipT
		res.Metrics[KeyNormFVD] = normFVD
		res.Distances[KeyFVD] = Distance(fvd)
		res.Score = (normFVD + clipT) / 2

	case dataset.TextToVideoInput:
		clipT, err := e.videoTextSimilarity(ctx, rec, in.Output, in.Prompt)
		if err != nil {
			return fail("clip-t", in.Output, err)
		}
		res.Metrics[KeyCLIPT] = clipT
		res.Score = clipT

	case dataset.VideoPredictionInput:
		return e.videoPrediction(ctx, rec, in, res, fail)

	default:
		return fail("evaluate", "", fmt.Errorf("no scorer for %T", in))
	}
	return res, nil
}

var errNoProvider = errors.New("metric provider not configured")

func setCLIP(res *SampleResult, clipI, clipT float64) {
	res.Metrics[KeyCLIPI] = clipI
	res.Metrics[KeyCLIPT] = clipT
	res.Score = (clipI + clipT) / 2
}

// imageSimilarity returns CLIP-I and CLIP-T on a 0-100 scale.
func (e *Evaluator) imageSimilarity(ctx context.Context, output, reference, prompt string) (float64, float64, error) {
	if e.p.Embedder == nil {
		return 0, 0, errNoProvider
	}
	outVec, err := e.p.Embedder.EmbedImage(ctx, output)
	if err != nil {
		return 0, 0, err
	}
	refVec, err := e.p.Embedder.EmbedImage(ctx, reference)
	if err != nil {
		return 0, 0, fmt.Errorf("reference %s: %w", reference, err)
	}
	textVec, err := e.p.Embedder.EmbedText(ctx, prompt)
	if err != nil {
		return 0, 0, fmt.Errorf("prompt: %w", err)
	}
	return 100 * metric.Cosine(outVec, refVec), 100 * metric.Cosine(outVec, textVec), nil
}

// videoTextSimilarity is the mean frame/prompt cosine over sampled frames.
// Frames whose embedding fails are dropped.
func (e *Evaluator) videoTextSimilarity(ctx context.Context, rec dataset.Record, video, prompt string) (float64, error) {
	if e.p.Embedder == nil || e.p.Frames == nil {
		return 0, errNoProvider
	}
	paths, err := e.p.Frames.SampleFrames(ctx, video, e.opts.FrameCount)
	if err != nil {
		return 0, err
	}
	textVec, err := e.p.Embedder.EmbedText(ctx, prompt)
	if err != nil {
		return 0, fmt.Errorf("prompt: %w", err)
	}
	var sims []float64
	for _, p := range paths {
		vec, err := e.p.Embedder.EmbedImage(ctx, p)
		if err != nil {
			log.Printf("warning: record %s: dropping frame %s: %v", rec.Label(), p, err)
			continue
		}
		sims = append(sims, metric.Cosine(vec, textVec))
	}
	if len(sims) == 0 {
		return 0, fmt.Errorf("no usable frames: %w", metric.ErrNoFrames)
	}
	var sum float64
	for _, s := range sims {
		sum += s
	}
	return sum / float64(len(sims)), nil
}

// fvd returns +Inf for degenerate features.
func (e *Evaluator) fvd(ctx context.Context, ref, gen string) (float64, error) {
	if e.p.Distribution == nil {
		return 0, errNoProvider
	}
	d, err := e.p.Distribution.FVD(ctx, ref, gen)
	if errors.Is(err, metric.ErrDegenerateFeatures) {
		return math.Inf(1), nil
	}
	return d, err
}

func (e *Evaluator) videoPrediction(
	ctx context.Context,
	rec dataset.Record,
	in dataset.VideoPredictionInput,
	res SampleResult,
	fail func(op, path string, err error) (SampleResult, error),
) (SampleResult, error) {
	if e.p.Distribution == nil || e.p.Frames == nil {
		return fail("fid", in.Output, errNoProvider)
	}
	genFrames, err := e.p.Frames.SampleFrames(ctx, in.Output, e.opts.FrameCount)
	if err != nil {
		return fail("frames", in.Output, err)
	}
	refFrames, err := e.p.Frames.SampleFrames(ctx, in.ReferenceVideo, len(genFrames))
	if err != nil {
		return fail("frames", in.ReferenceVideo, err)
	}
	fid, err := e.p.Distribution.FID(ctx, refFrames, genFrames)
	if errors.Is(err, metric.ErrDegenerateFeatures) {
		fid, err = math.Inf(1), nil
	}
	if err != nil {
		return fail("fid", in.Output, err)
	}
	fvd, err := e.fvd(ctx, in.ReferenceVideo, in.Output)
	if err != nil {
		return fail("fvd", in.Output, err)
	}

	fidValid, fvdValid := Distance(fid).Valid(), Distance(fvd).Valid()
	if !fidValid && !fvdValid {
		return ZeroResult(rec, in.Category(), StatusSkipped, "degenerate features for both FID and FVD"), nil
	}
	normFID := metric.Normalize(fid, e.opts.MaxDistance)
	normFVD := metric.Normalize(fvd, e.opts.MaxDistance)
	res.Metrics[KeyNormFID] = normFID
	res.Metrics[KeyNormFVD] = normFVD
	res.Distances[KeyFID] = Distance(fid)
	res.Distances[KeyFVD] = Distance(fvd)
	if fvdValid {
		res.Score = (normFID + normFVD) / 2
	} else {
		res.Score = normFID
	}
	return res, nil
}
