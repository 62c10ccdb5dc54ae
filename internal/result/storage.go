package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/signalnine/genbench/internal/aggregate"
	"github.com/signalnine/genbench/internal/dataset"
	"github.com/signalnine/genbench/internal/score"
)

// DocumentName is the file name of the document inside a run directory.
const DocumentName = "result.json"

func NewRunID() string {
	return uuid.NewString()
}

func CreateRunDir(baseDir string) (string, error) {
	runsDir := filepath.Join(baseDir, "runs")
	stamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	runDir := filepath.Join(runsDir, stamp)
	runDir, err := filepath.Abs(runDir)
	if err != nil {
		return "", fmt.Errorf("resolving run dir: %w", err)
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("creating run dir: %w", err)
	}
	latest := filepath.Join(baseDir, "latest")
	os.Remove(latest)
	if err := os.Symlink(runDir, latest); err != nil {
		return "", fmt.Errorf("creating latest symlink: %w", err)
	}
	return runDir, nil
}

// Write stores doc as indented JSON, creating parent directories.
func Write(path string, doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return &doc, nil
}

// Empty returns a document with every stage zeroed and every task scored 0.
func Empty(runID, model string) *Document {
	doc := &Document{
		RunID: runID,
		Model: model,
		ImageTasks: ImageTasks{
			Categories: map[string]ImageCategory{},
		},
		ImageToVideo:    EmptyVideoTask(),
		TextToVideo:     EmptyVideoTask(),
		VideoPrediction: VideoPredictionTask{VideoTask: EmptyVideoTask()},
	}
	for _, c := range dataset.ImageCategories {
		doc.ImageTasks.Categories[string(c)] = ImageCategory{CategoryAggregate: aggregate.Aggregate(nil)}
	}
	rep := score.Compose(nil)
	doc.TaskScores = rep.TaskScores
	doc.GenerationScore = rep.GenerationScore
	return doc
}

func EmptyVideoTask() VideoTask {
	return VideoTask{CategoryAggregate: aggregate.Aggregate(nil)}
}

// Fallback is the document written when a run cannot proceed at all.
func Fallback(model string, cause error) *Document {
	doc := Empty(NewRunID(), model)
	now := time.Now().UTC()
	doc.StartedAt, doc.FinishedAt = now, now
	if cause != nil {
		doc.Failures = append(doc.Failures, cause.Error())
	}
	return doc
}
