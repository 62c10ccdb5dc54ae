package evaluator

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/signalnine/genbench/internal/dataset"
)

type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Metric keys.
const (
	KeyLPIPS   = "lpips"
	KeyCLIPI   = "clip_i"
	KeyCLIPT   = "clip_t"
	KeyNormFID = "norm_fid"
	KeyNormFVD = "norm_fvd"
	KeyFID     = "fid"
	KeyFVD     = "fvd"
)

// SampleResult is the outcome of evaluating one record. Metrics always
// carries the full key set of the category and Score is always defined.
type SampleResult struct {
	ID        dataset.ID          `json:"id"`
	Category  dataset.Category    `json:"category"`
	Metrics   map[string]float64  `json:"metrics"`
	Distances map[string]Distance `json:"distances,omitempty"`
	Score     float64             `json:"score"`
	Status    Status              `json:"status"`
	Reason    string              `json:"reason,omitempty"`
}

// Distance is a raw FID/FVD value. Infinite or NaN distances encode as null.
type Distance float64

func (d Distance) MarshalJSON() ([]byte, error) {
	f := float64(d)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (d *Distance) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Distance(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*d = Distance(f)
	return nil
}

func (d Distance) Valid() bool {
	f := float64(d)
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}

// MetricKeys returns the metric names reported for a category.
func MetricKeys(cat dataset.Category) []string {
	switch cat {
	case dataset.Reconstruction:
		return []string{KeyLPIPS}
	case dataset.Editing, dataset.TextToImage:
		return []string{KeyCLIPI, KeyCLIPT}
	case dataset.ImageToVideo:
		return []string{KeyCLIPT, KeyNormFVD}
	case dataset.TextToVideo:
		return []string{KeyCLIPT}
	case dataset.VideoPrediction:
		return []string{KeyNormFID, KeyNormFVD}
	}
	return nil
}

func distanceKeys(cat dataset.Category) []string {
	switch cat {
	case dataset.ImageToVideo:
		return []string{KeyFVD}
	case dataset.VideoPrediction:
		return []string{KeyFID, KeyFVD}
	}
	return nil
}

// ZeroResult is the worst-case result for a record: every metric 0, every
// raw distance infinite.
func ZeroResult(rec dataset.Record, cat dataset.Category, status Status, reason string) SampleResult {
	res := SampleResult{
		ID:       rec.ID,
		Category: cat,
		Metrics:  map[string]float64{},
		Status:   status,
		Reason:   reason,
	}
	for _, k := range MetricKeys(cat) {
		res.Metrics[k] = 0
	}
	if keys := distanceKeys(cat); len(keys) > 0 {
		res.Distances = map[string]Distance{}
		for _, k := range keys {
			res.Distances[k] = Distance(math.Inf(1))
		}
	}
	return res
}

// ComputationError wraps a metric backend or frame sampling failure.
type ComputationError struct {
	ID       dataset.ID
	Category dataset.Category
	Path     string
	Op       string
	Err      error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("record %s (%s) %s %s: %v", e.ID, e.Category, e.Op, e.Path, e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }
