package report_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalnine/genbench/internal/aggregate"
	"github.com/signalnine/genbench/internal/dataset"
	"github.com/signalnine/genbench/internal/report"
	"github.com/signalnine/genbench/internal/result"
	"github.com/signalnine/genbench/internal/score"
)

func sampleDoc() *result.Document {
	doc := result.Empty("run-1", "model-a")
	doc.ImageTasks.Categories[string(dataset.Reconstruction)] = result.ImageCategory{
		CategoryAggregate: aggregate.CategoryAggregate{Total: 3, Processed: 2, Skipped: 1, Metrics: map[string]float64{"lpips": 56.6667, "score": 56.6667}},
	}
	doc.TextToVideo.CategoryAggregate = aggregate.CategoryAggregate{Total: 2, Processed: 2, Metrics: map[string]float64{"clip_t": 0.3, "score": 0.3}}
	rep := score.Compose(map[string]float64{string(dataset.Reconstruction): 56.6667, "text_to_video": 0.3})
	doc.TaskScores, doc.GenerationScore = rep.TaskScores, rep.GenerationScore
	doc.Failures = []string{"stage video_prediction: panic: boom"}
	return doc
}

func TestGenerateTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	if err := result.Write(path, sampleDoc()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var buf bytes.Buffer
	if err := report.Generate(path, report.Options{Format: "table", NoColor: true}, &buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"reconstruction", "text_to_video", "lpips=56.6667", "Generation score: 9.49", "stage failure"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := report.Render(sampleDoc(), report.Options{Format: "markdown"}, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), "| Fine-Grained_Image_Reconstruction | 3 | 2 | 1 | 0 |") {
		t.Errorf("unexpected markdown:\n%s", buf.String())
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := report.Render(sampleDoc(), report.Options{Format: "json"}, &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var s report.Summary
	if err := json.Unmarshal(buf.Bytes(), &s); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(s.Tasks) != len(score.ExpectedTasks) {
		t.Errorf("tasks: got %d, want %d", len(s.Tasks), len(score.ExpectedTasks))
	}
	if s.Tasks[0].Task != string(dataset.Reconstruction) || s.Tasks[0].Processed != 2 {
		t.Errorf("first task: got %+v", s.Tasks[0])
	}
}

func TestHeadingNoColor(t *testing.T) {
	if got := report.Heading("title", true); got != "title" {
		t.Errorf("got %q", got)
	}
}
