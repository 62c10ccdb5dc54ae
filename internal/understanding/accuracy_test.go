package understanding_test

import (
	"math"
	"testing"

	"github.com/signalnine/genbench/internal/dataset"
	"github.com/signalnine/genbench/internal/understanding"
)

func TestAccuracy(t *testing.T) {
	recs, err := dataset.Parse([]byte(`[
		{"id": 1, "category": "Spatial", "output": "A", "answer": "A"},
		{"id": 2, "category": "Spatial", "output": "B", "answer": "C"},
		{"id": 3, "category": "Counting", "output": "", "answer": ""},
		{"id": 4, "category": "Counting", "output": "D", "answer": "D"}
	]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rep := understanding.Accuracy(recs)
	if rep.Total != 4 || rep.Correct != 2 {
		t.Errorf("counts: got %d/%d", rep.Correct, rep.Total)
	}
	if math.Abs(rep.Accuracy-0.5) > 1e-9 {
		t.Errorf("accuracy: got %f", rep.Accuracy)
	}
	if len(rep.Categories) != 2 || rep.Categories[0].Category != "Counting" {
		t.Fatalf("categories: got %+v", rep.Categories)
	}
	// empty output is wrong even when the answer is empty too
	if rep.Categories[0].Correct != 1 {
		t.Errorf("Counting correct: got %d, want 1", rep.Categories[0].Correct)
	}
}

func TestAccuracyEmpty(t *testing.T) {
	rep := understanding.Accuracy(nil)
	if rep.Total != 0 || rep.Accuracy != 0 || len(rep.Categories) != 0 {
		t.Errorf("got %+v", rep)
	}
}
