package result

import (
	"time"

	"github.com/signalnine/genbench/internal/aggregate"
	"github.com/signalnine/genbench/internal/evaluator"
)

// Document is the persisted outcome of one evaluation run.
type Document struct {
	RunID           string              `json:"run_id"`
	Model           string              `json:"model,omitempty"`
	StartedAt       time.Time           `json:"started_at"`
	FinishedAt      time.Time           `json:"finished_at"`
	ImageTasks      ImageTasks          `json:"image_tasks"`
	ImageToVideo    VideoTask           `json:"image_to_video"`
	TextToVideo     VideoTask           `json:"text_to_video"`
	VideoPrediction VideoPredictionTask `json:"video_prediction"`
	TaskScores      map[string]float64  `json:"task_scores"`
	GenerationScore float64             `json:"generation_score"`
	Failures        []string            `json:"failures,omitempty"`
}

// ImageTasks counts are dataset-wide: Total is the length of the whole
// dataset, not just image records.
type ImageTasks struct {
	Total      int                      `json:"total_samples"`
	Processed  int                      `json:"processed_samples"`
	Skipped    int                      `json:"skipped_samples"`
	Failed     int                      `json:"failed_samples"`
	Categories map[string]ImageCategory `json:"categories"`
}

type ImageCategory struct {
	aggregate.CategoryAggregate
	Samples []evaluator.SampleResult `json:"samples"`
}

type VideoTask struct {
	aggregate.CategoryAggregate
	SampleScores []evaluator.SampleResult `json:"sample_scores"`
	AverageScore float64                  `json:"average_score"`
}

type VideoPredictionTask struct {
	VideoTask
	AvgFID     *float64 `json:"avg_fid,omitempty"`
	AvgNormFID *float64 `json:"avg_norm_fid,omitempty"`
}
