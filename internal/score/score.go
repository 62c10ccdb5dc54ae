// Package score composes per-task scores into the overall generation score.
package score

import (
	"github.com/signalnine/genbench/internal/aggregate"
	"github.com/signalnine/genbench/internal/dataset"
)

// ExpectedTasks is the fixed task list. The overall score always divides
// by its length.
var ExpectedTasks = []string{
	string(dataset.Reconstruction),
	string(dataset.Editing),
	string(dataset.TextToImage),
	"image_to_video",
	"text_to_video",
	"video_prediction",
}

type Report struct {
	TaskScores      map[string]float64 `json:"task_scores"`
	GenerationScore float64            `json:"generation_score"`
}

// Compose fills absent tasks with 0 and ignores names outside
// ExpectedTasks.
func Compose(perTask map[string]float64) Report {
	r := Report{TaskScores: make(map[string]float64, len(ExpectedTasks))}
	values := make([]float64, 0, len(ExpectedTasks))
	for _, task := range ExpectedTasks {
		v := perTask[task]
		r.TaskScores[task] = v
		values = append(values, v)
	}
	r.GenerationScore = aggregate.Mean(values, len(ExpectedTasks))
	return r
}

// ImageTaskScore is the mean of the category's metric means, excluding the
// per-sample score. Metrics are summed in name order so the result is
// stable across runs.
func ImageTaskScore(agg aggregate.CategoryAggregate) float64 {
	var values []float64
	for _, k := range agg.MetricNames() {
		if k == aggregate.ScoreKey {
			continue
		}
		values = append(values, agg.Metrics[k])
	}
	return aggregate.Mean(values, len(values))
}

// VideoTaskScore is the task's average sample score.
func VideoTaskScore(agg aggregate.CategoryAggregate) float64 {
	return agg.Metrics[aggregate.ScoreKey]
}
