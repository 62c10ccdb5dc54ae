package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/signalnine/genbench/internal/result"
	"github.com/signalnine/genbench/internal/store"
)

// Requires a disposable database in GENBENCH_DATABASE_URL.
func openStore(t *testing.T) *store.Store {
	t.Helper()
	if os.Getenv("GENBENCH_PG_TESTS") == "" {
		t.Skip("set GENBENCH_PG_TESTS=1 and GENBENCH_DATABASE_URL to run Postgres tests")
	}
	s, err := store.Open(context.Background(), os.Getenv("GENBENCH_DATABASE_URL"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndListRuns(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	model := "test-model-" + result.NewRunID()[:8]

	older := result.Empty(result.NewRunID(), model)
	older.StartedAt = time.Now().Add(-time.Hour).UTC()
	older.FinishedAt = older.StartedAt.Add(time.Minute)
	older.TaskScores["text_to_video"] = 0.6
	older.GenerationScore = 0.1

	newer := result.Empty(result.NewRunID(), model)
	newer.StartedAt = time.Now().UTC()
	newer.FinishedAt = newer.StartedAt.Add(time.Minute)
	newer.Failures = []string{"stage video_prediction: boom"}

	for _, doc := range []*result.Document{older, newer} {
		if err := s.SaveRun(ctx, doc); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}
	// saving twice replaces the row
	if err := s.SaveRun(ctx, older); err != nil {
		t.Fatalf("SaveRun again: %v", err)
	}

	runs, err := s.ListRuns(ctx, model, 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != newer.RunID {
		t.Errorf("expected newest first, got %s", runs[0].RunID)
	}
	if runs[0].Failures != 1 {
		t.Errorf("failures: got %d, want 1", runs[0].Failures)
	}
	if runs[1].TaskScores["text_to_video"] != 0.6 {
		t.Errorf("task scores: got %v", runs[1].TaskScores)
	}
}

func TestOpenWithoutURL(t *testing.T) {
	if _, err := store.Open(context.Background(), ""); err == nil {
		t.Error("expected error without database url")
	}
}
