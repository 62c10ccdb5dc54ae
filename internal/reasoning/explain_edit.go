package reasoning

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/signalnine/genbench/internal/dataset"
	"github.com/signalnine/genbench/internal/metric"
)

// ImageCandidates are the data keys compared against the edited output, in
// order. The first is the true edit.
var ImageCandidates = []string{"edited_image", "fake_image1", "fake_image2", "fake_image3"}

type ExplainEditReport struct {
	TotalSamples int   `json:"total_samples"`
	Text         Tally `json:"text_metrics"`
	Image        Tally `json:"image_metrics"`
	Combined     Tally `json:"combined_metrics"`
}

type ExplainEdit struct {
	emb      metric.Embedder
	basePath string
}

func NewExplainEdit(emb metric.Embedder, basePath string) *ExplainEdit {
	return &ExplainEdit{emb: emb, basePath: basePath}
}

// Evaluate scores every record. Records without an object output, a choice
// list or data are skipped in all three tallies.
func (x *ExplainEdit) Evaluate(ctx context.Context, records []dataset.Record) ExplainEditReport {
	rep := ExplainEditReport{TotalSamples: len(records)}
	for _, rec := range records {
		var text, image outcome
		if rec.Output.IsObject() && rec.Choice != nil && rec.Data != nil {
			text = x.text(ctx, rec)
			image = x.image(ctx, rec)
		}
		rep.Text.add(text)
		rep.Image.add(image)

		var both outcome
		switch {
		case text.attempted && image.attempted:
			both = outcome{attempted: true, correct: text.correct && image.correct}
		case text.failed || image.failed:
			both.failed = true
		}
		rep.Combined.add(both)
	}
	rep.Text.finish(rep.TotalSamples)
	rep.Image.finish(rep.TotalSamples)
	rep.Combined.finish(rep.TotalSamples)
	return rep
}

func (x *ExplainEdit) text(ctx context.Context, rec dataset.Record) outcome {
	explanation := rec.Output.Explanation
	if explanation == "" || len(rec.Choice) == 0 {
		return outcome{}
	}
	for _, c := range rec.Choice {
		if c == "" {
			log.Printf("warning: sample %s: empty choice text", rec.Label())
			return outcome{failed: true}
		}
	}
	target, err := x.emb.EmbedText(ctx, explanation)
	if err != nil {
		log.Printf("warning: sample %s: embedding explanation: %v", rec.Label(), err)
		return outcome{failed: true}
	}
	choices := make([][]float32, len(rec.Choice))
	for i, c := range rec.Choice {
		if choices[i], err = x.emb.EmbedText(ctx, c); err != nil {
			log.Printf("warning: sample %s: embedding choice %d: %v", rec.Label(), i, err)
			return outcome{failed: true}
		}
	}
	letter := string(rune('A' + metric.Argmax(target, choices)))
	return outcome{attempted: true, correct: letter == rec.Answer}
}

func (x *ExplainEdit) image(ctx context.Context, rec dataset.Record) outcome {
	output := rec.Output.Image
	if output == "" {
		return outcome{}
	}
	paths := make([]string, len(ImageCandidates))
	for i, key := range ImageCandidates {
		p, ok := rec.DataString(key)
		if !ok {
			return outcome{}
		}
		paths[i] = dataset.ResolveReference(x.basePath, p)
		if _, err := os.Stat(paths[i]); err != nil {
			return outcome{}
		}
	}

	idx, err := closestImage(ctx, x.emb, dataset.ResolveOutput(x.basePath, output), paths)
	if err != nil {
		log.Printf("warning: sample %s: %v", rec.Label(), err)
		return outcome{failed: true}
	}
	return outcome{attempted: true, correct: idx == 0}
}

// closestImage returns the index of the candidate image most similar to
// target.
func closestImage(ctx context.Context, emb metric.Embedder, target string, candidates []string) (int, error) {
	tv, err := emb.EmbedImage(ctx, target)
	if err != nil {
		return -1, fmt.Errorf("embedding %s: %w", target, err)
	}
	vecs, err := embedImages(ctx, emb, candidates)
	if err != nil {
		return -1, err
	}
	return metric.Argmax(tv, vecs), nil
}

func embedImages(ctx context.Context, emb metric.Embedder, paths []string) ([][]float32, error) {
	vecs := make([][]float32, len(paths))
	for i, p := range paths {
		v, err := emb.EmbedImage(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("embedding %s: %w", p, err)
		}
		vecs[i] = v
	}
	return vecs, nil
}
