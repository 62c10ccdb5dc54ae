package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationError means a record cannot be scored because required fields
// or media files are missing. It is a skip, not a failure.
type ValidationError struct {
	ID       ID
	Category Category
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %s (%s): %s", e.ID, e.Category, e.Reason)
}

// Input is the validated, category-specific view of a record. Exactly one
// concrete type exists per scored category.
type Input interface {
	Category() Category
	// MediaPaths lists every file the metrics will read.
	MediaPaths() []string
}

type ReconstructionInput struct {
	Reference string
	Output    string
}

type EditingInput struct {
	Reference string
	Output    string
	Prompt    string
}

type TextToImageInput struct {
	Reference string
	Output    string
	Prompt    string
}

type ImageToVideoInput struct {
	ReferenceVideo string
	Output         string
	Prompt         string
}

type TextToVideoInput struct {
	Output string
	Prompt string
}

type VideoPredictionInput struct {
	ReferenceVideo string
	Output         string
}

func (ReconstructionInput) Category() Category  { return Reconstruction }
func (EditingInput) Category() Category         { return Editing }
func (TextToImageInput) Category() Category     { return TextToImage }
func (ImageToVideoInput) Category() Category    { return ImageToVideo }
func (TextToVideoInput) Category() Category     { return TextToVideo }
func (VideoPredictionInput) Category() Category { return VideoPrediction }

func (in ReconstructionInput) MediaPaths() []string  { return []string{in.Reference, in.Output} }
func (in EditingInput) MediaPaths() []string         { return []string{in.Reference, in.Output} }
func (in TextToImageInput) MediaPaths() []string     { return []string{in.Reference, in.Output} }
func (in ImageToVideoInput) MediaPaths() []string    { return []string{in.ReferenceVideo, in.Output} }
func (in TextToVideoInput) MediaPaths() []string     { return []string{in.Output} }
func (in VideoPredictionInput) MediaPaths() []string { return []string{in.ReferenceVideo, in.Output} }

// Classify checks the required-field set of cat and resolves media paths
// against basePath. It does not touch the filesystem; see CheckMedia.
func Classify(rec Record, cat Category, basePath string) (Input, error) {
	invalid := func(format string, args ...any) error {
		return &ValidationError{ID: rec.ID, Category: cat, Reason: fmt.Sprintf(format, args...)}
	}
	if rec.Error != 0 {
		return nil, invalid("upstream generation error flag set")
	}
	out := rec.Output.MediaPath()
	if out == "" {
		return nil, invalid("missing output")
	}
	prompt := rec.Prompt()

	switch cat {
	case Reconstruction:
		ref, ok := rec.DataString("image")
		if !ok {
			return nil, invalid("missing data.image")
		}
		return ReconstructionInput{Reference: ResolveReference(basePath, ref), Output: ResolveOutput(basePath, out)}, nil

	case Editing:
		// the edited target, not the source image, is the reference
		ref, ok := rec.DataString("edited_image")
		if !ok {
			return nil, invalid("missing data.edited_image")
		}
		if prompt == "" {
			return nil, invalid("missing Text_Prompt")
		}
		return EditingInput{Reference: ResolveReference(basePath, ref), Output: ResolveOutput(basePath, out), Prompt: prompt}, nil

	case TextToImage:
		ref, ok := rec.DataString("image")
		if !ok {
			return nil, invalid("missing data.image")
		}
		if prompt == "" {
			return nil, invalid("missing Text_Prompt")
		}
		return TextToImageInput{Reference: ResolveReference(basePath, ref), Output: ResolveOutput(basePath, out), Prompt: prompt}, nil

	case ImageToVideo:
		if _, ok := rec.DataString("image"); !ok {
			return nil, invalid("missing data.image")
		}
		ref, ok := rec.DataString("video")
		if !ok {
			return nil, invalid("missing data.video")
		}
		if prompt == "" {
			return nil, invalid("missing Text_Prompt")
		}
		return ImageToVideoInput{ReferenceVideo: ResolveReference(basePath, ref), Output: ResolveOutput(basePath, out), Prompt: prompt}, nil

	case TextToVideo:
		if prompt == "" {
			return nil, invalid("missing Text_Prompt")
		}
		return TextToVideoInput{Output: ResolveOutput(basePath, out), Prompt: prompt}, nil

	case VideoPrediction:
		if _, ok := rec.DataString("image"); !ok {
			return nil, invalid("missing data.image")
		}
		ref, ok := rec.DataString("video")
		if !ok {
			return nil, invalid("missing data.video")
		}
		return VideoPredictionInput{ReferenceVideo: ResolveReference(basePath, ref), Output: ResolveOutput(basePath, out)}, nil
	}
	return nil, invalid("unsupported category %q", cat)
}

// CheckMedia returns a ValidationError naming the first media file of in
// that does not exist.
func CheckMedia(rec Record, in Input) error {
	for _, p := range in.MediaPaths() {
		if _, err := os.Stat(p); err != nil {
			return &ValidationError{ID: rec.ID, Category: in.Category(), Reason: fmt.Sprintf("media not found: %s", p)}
		}
	}
	return nil
}

// ResolveReference joins a dataset-relative reference path onto basePath.
// Leading slashes are treated as relative to the base.
func ResolveReference(basePath, p string) string {
	return filepath.Join(basePath, strings.TrimLeft(p, "/"))
}

// ResolveOutput keeps absolute output paths and joins relative ones onto
// basePath.
func ResolveOutput(basePath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}
