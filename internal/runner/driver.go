package runner

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime/debug"
	"time"

	"github.com/signalnine/genbench/internal/aggregate"
	"github.com/signalnine/genbench/internal/dataset"
	"github.com/signalnine/genbench/internal/evaluator"
	"github.com/signalnine/genbench/internal/metric"
	"github.com/signalnine/genbench/internal/result"
	"github.com/signalnine/genbench/internal/score"
)

// SampleEvaluator scores one record for one category.
type SampleEvaluator interface {
	Evaluate(ctx context.Context, rec dataset.Record, cat dataset.Category) evaluator.SampleResult
}

type Options struct {
	Model       string
	Parallel    int
	MaxDistance float64
	// Progress receives one line per stage; nil disables it.
	Progress io.Writer
}

// StageError is a stage-level failure. The stage is replaced by an
// all-zero placeholder and the remaining stages still run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type Driver struct {
	eval SampleEvaluator
	opts Options
}

func NewDriver(eval SampleEvaluator, opts Options) *Driver {
	if opts.MaxDistance <= 0 {
		opts.MaxDistance = metric.DefaultMaxDistance
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	return &Driver{eval: eval, opts: opts}
}

// Run scores every stage and composes the overall scores. It always
// returns a complete document.
func (d *Driver) Run(ctx context.Context, records []dataset.Record) *result.Document {
	doc := result.Empty(result.NewRunID(), d.opts.Model)
	doc.StartedAt = time.Now().UTC()
	perTask := map[string]float64{}

	if err := guard("image_tasks", func() error {
		tasks, err := d.imageStage(ctx, records)
		if err != nil {
			return err
		}
		doc.ImageTasks = tasks
		for _, c := range dataset.ImageCategories {
			perTask[string(c)] = score.ImageTaskScore(tasks.Categories[string(c)].CategoryAggregate)
		}
		return nil
	}); err != nil {
		d.stageFailed(doc, err)
	}

	for _, cat := range dataset.VideoCategories {
		name := dataset.VideoTaskName(cat)
		if err := guard(name, func() error {
			task, err := d.videoStage(ctx, records, cat)
			if err != nil {
				return err
			}
			switch cat {
			case dataset.ImageToVideo:
				doc.ImageToVideo = task
			case dataset.TextToVideo:
				doc.TextToVideo = task
			case dataset.VideoPrediction:
				doc.VideoPrediction = predictionTask(task, d.opts.MaxDistance)
			}
			perTask[name] = score.VideoTaskScore(task.CategoryAggregate)
			return nil
		}); err != nil {
			d.stageFailed(doc, err)
		}
	}

	rep := score.Compose(perTask)
	doc.TaskScores = rep.TaskScores
	doc.GenerationScore = rep.GenerationScore
	doc.FinishedAt = time.Now().UTC()
	return doc
}

func (d *Driver) stageFailed(doc *result.Document, err error) {
	log.Printf("error: %v", err)
	doc.Failures = append(doc.Failures, err.Error())
}

// guard converts an error or panic from fn into a StageError.
func guard(stage string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("error: stage %s panicked: %v\n%s", stage, r, debug.Stack())
			err = &StageError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := fn(); err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	return nil
}

// imageStage walks the whole dataset. Its Total is the dataset length, so
// non-image records count as skipped at this level while the per-category
// aggregates only see their own records.
func (d *Driver) imageStage(ctx context.Context, records []dataset.Record) (result.ImageTasks, error) {
	var (
		picked []dataset.Record
		cats   []dataset.Category
	)
	for _, rec := range records {
		if rec.Category.IsImage() {
			picked = append(picked, rec)
			cats = append(cats, rec.Category)
		}
	}
	fmt.Fprintf(d.opts.Progress, "Evaluating image tasks (%d of %d records)...\n", len(picked), len(records))

	results, err := d.evaluateAll(ctx, picked, cats)
	if err != nil {
		return result.ImageTasks{}, err
	}

	byCat := map[dataset.Category][]evaluator.SampleResult{}
	for _, r := range results {
		byCat[r.Category] = append(byCat[r.Category], r)
	}
	tasks := result.ImageTasks{
		Total:      len(records),
		Categories: map[string]result.ImageCategory{},
	}
	for _, c := range dataset.ImageCategories {
		agg := aggregate.Aggregate(byCat[c])
		tasks.Processed += agg.Processed
		tasks.Failed += agg.Failed
		tasks.Categories[string(c)] = result.ImageCategory{CategoryAggregate: agg, Samples: byCat[c]}
	}
	tasks.Skipped = tasks.Total - tasks.Processed
	return tasks, nil
}

// videoStage counts only records whose category matches exactly.
func (d *Driver) videoStage(ctx context.Context, records []dataset.Record, cat dataset.Category) (result.VideoTask, error) {
	var (
		picked []dataset.Record
		cats   []dataset.Category
	)
	for _, rec := range records {
		if rec.Category == cat {
			picked = append(picked, rec)
			cats = append(cats, cat)
		}
	}
	fmt.Fprintf(d.opts.Progress, "Evaluating %s (%d records)...\n", dataset.VideoTaskName(cat), len(picked))

	results, err := d.evaluateAll(ctx, picked, cats)
	if err != nil {
		return result.VideoTask{}, err
	}
	agg := aggregate.Aggregate(results)
	return result.VideoTask{
		CategoryAggregate: agg,
		SampleScores:      results,
		AverageScore:      agg.Metrics[aggregate.ScoreKey],
	}, nil
}

// evaluateAll returns results in input order. Each job writes only its own
// slot.
func (d *Driver) evaluateAll(ctx context.Context, recs []dataset.Record, cats []dataset.Category) ([]evaluator.SampleResult, error) {
	results := make([]evaluator.SampleResult, len(recs))
	if d.opts.Parallel <= 1 {
		for i := range recs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = d.evaluateOne(ctx, recs[i], cats[i])
		}
		return results, nil
	}

	jobs := make([]Job, len(recs))
	for i := range recs {
		i := i
		jobs[i] = func(ctx context.Context) error {
			results[i] = d.evaluateOne(ctx, recs[i], cats[i])
			return nil
		}
	}
	if errs := RunPool(ctx, d.opts.Parallel, jobs); len(errs) > 0 {
		return nil, errs[0]
	}
	return results, nil
}

// evaluateOne turns a panic while scoring rec into a failed sample so the
// rest of the stage still runs.
func (d *Driver) evaluateOne(ctx context.Context, rec dataset.Record, cat dataset.Category) (res evaluator.SampleResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("warning: record %s: panic while scoring: %v\n%s", rec.Label(), r, debug.Stack())
			res = evaluator.ZeroResult(rec, cat, evaluator.StatusFailed, fmt.Sprintf("panic: %v", r))
		}
	}()
	return d.eval.Evaluate(ctx, rec, cat)
}

// predictionTask adds FID averages over samples with a finite FID.
func predictionTask(task result.VideoTask, maxDistance float64) result.VideoPredictionTask {
	out := result.VideoPredictionTask{VideoTask: task}
	var fids, norms []float64
	for _, s := range task.SampleScores {
		fid, ok := s.Distances[evaluator.KeyFID]
		if !ok || !fid.Valid() || s.Status != evaluator.StatusProcessed {
			continue
		}
		fids = append(fids, float64(fid))
		norms = append(norms, metric.Normalize(float64(fid), maxDistance))
	}
	if len(fids) > 0 {
		avg := aggregate.Mean(fids, len(fids))
		avgNorm := aggregate.Mean(norms, len(norms))
		out.AvgFID, out.AvgNormFID = &avg, &avgNorm
	}
	return out
}
