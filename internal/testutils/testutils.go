// Package testutils provides recorded-HTTP clients for tests that reach
// hosted embedding APIs.
package testutils

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/areknoster/hypert"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/signalnine/genbench/internal/metric/gemini"
)

// ShouldUpdate returns true if tests should re-record cached HTTP responses.
// Set UPDATE_TESTS=true to update.
func ShouldUpdate() bool {
	return os.Getenv("UPDATE_TESTS") == "true"
}

// NewHypertClient returns an http.Client that replays requests stored
// under dir, recording them first when ShouldUpdate is set.
func NewHypertClient(t *testing.T, dir string) *http.Client {
	t.Helper()
	namingScheme, err := hypert.NewContentHashNamingScheme(dir)
	if err != nil {
		t.Fatalf("failed to create naming scheme: %v", err)
	}

	hypertClient := hypert.TestClient(t, ShouldUpdate(),
		hypert.WithNamingScheme(namingScheme),
		hypert.WithRequestValidator(hypert.ComposedRequestValidator(
			hypert.PathValidator(),
			hypert.QueryParamsValidator(),
			hypert.MethodValidator(),
		)),
	)

	if ShouldUpdate() {
		ctx := context.Background()
		creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			t.Fatalf("failed to get default credentials: %v", err)
		}
		return oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, hypertClient), creds.TokenSource)
	}
	return hypertClient
}

// NewGeminiEmbedder creates a Gemini embedder backed by recorded responses
// in testdata/<subDir>. Project and location come from GOOGLE_PROJECT_ID and
// GOOGLE_REGION.
func NewGeminiEmbedder(t *testing.T, subDir, model string) *gemini.Embedder {
	t.Helper()
	emb, err := gemini.New(context.Background(), gemini.Config{
		Project:    os.Getenv("GOOGLE_PROJECT_ID"),
		Location:   os.Getenv("GOOGLE_REGION"),
		Model:      model,
		HTTPClient: NewHypertClient(t, filepath.Join("testdata", subDir)),
	})
	if err != nil {
		t.Fatalf("failed to create gemini embedder: %v", err)
	}
	return emb
}
