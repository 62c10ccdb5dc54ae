// Package aggregate reduces per-sample results to per-category counts and
// metric means.
package aggregate

import (
	"sort"

	"github.com/signalnine/genbench/internal/evaluator"
)

// ScoreKey is the metric name under which sample scores are averaged.
const ScoreKey = "score"

type CategoryAggregate struct {
	Total     int                `json:"total_samples"`
	Processed int                `json:"processed_samples"`
	Skipped   int                `json:"skipped_samples"`
	Failed    int                `json:"failed_samples"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Mean is the single averaging primitive: sum(values)/denominator, 0 when
// the denominator is not positive.
func Mean(values []float64, denominator int) float64 {
	if denominator <= 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(denominator)
}

// Aggregate counts outcomes and averages every metric over all results
// carrying it, zero-filled skips and failures included. Skipped counts
// every non-processed result.
func Aggregate(results []evaluator.SampleResult) CategoryAggregate {
	agg := CategoryAggregate{
		Total:   len(results),
		Metrics: map[string]float64{},
	}
	values := map[string][]float64{}
	scores := make([]float64, 0, len(results))
	for _, r := range results {
		switch r.Status {
		case evaluator.StatusProcessed:
			agg.Processed++
		case evaluator.StatusFailed:
			agg.Failed++
		}
		for k, v := range r.Metrics {
			values[k] = append(values[k], v)
		}
		scores = append(scores, r.Score)
	}
	agg.Skipped = agg.Total - agg.Processed

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		agg.Metrics[k] = Mean(values[k], len(values[k]))
	}
	if len(results) > 0 {
		agg.Metrics[ScoreKey] = Mean(scores, len(scores))
	}
	return agg
}

// MetricNames returns the metric keys in sorted order, score last.
func (a CategoryAggregate) MetricNames() []string {
	names := make([]string, 0, len(a.Metrics))
	for k := range a.Metrics {
		if k != ScoreKey {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	if _, ok := a.Metrics[ScoreKey]; ok {
		names = append(names, ScoreKey)
	}
	return names
}
