package gemini

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"google.golang.org/genai"

	"github.com/signalnine/genbench/internal/metric"
)

// Embedder wraps a genai.Client to implement metric.Embedder with a
// multimodal embedding model.
type Embedder struct {
	client    *genai.Client
	modelName string
}

// NewEmbedder creates a new Gemini embedder.
// modelName is the multimodal embedding model (e.g., "multimodalembedding@001").
func NewEmbedder(client *genai.Client, modelName string) *Embedder {
	return &Embedder{
		client:    client,
		modelName: modelName,
	}
}

// Config selects the Vertex AI project serving the embedding model.
type Config struct {
	Project    string
	Location   string
	Model      string
	HTTPClient *http.Client
}

// New creates the genai client and wraps it.
func New(ctx context.Context, cfg Config) (*Embedder, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:    genai.BackendVertexAI,
		Project:    cfg.Project,
		Location:   cfg.Location,
		HTTPClient: cfg.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return NewEmbedder(client, cfg.Model), nil
}

// EmbedText implements metric.Embedder.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, &genai.Part{Text: text})
}

// EmbedImage implements metric.Embedder.
func (e *Embedder) EmbedImage(ctx context.Context, path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return e.embed(ctx, &genai.Part{
		InlineData: &genai.Blob{MIMEType: http.DetectContentType(data), Data: data},
	})
}

func (e *Embedder) embed(ctx context.Context, part *genai.Part) ([]float32, error) {
	contents := []*genai.Content{{Parts: []*genai.Part{part}}}

	result, err := e.client.Models.EmbedContent(ctx, e.modelName, contents, &genai.EmbedContentConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	if len(result.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding vector")
	}
	return result.Embeddings[0].Values, nil
}

var _ metric.Embedder = (*Embedder)(nil)
