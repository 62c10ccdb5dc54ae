package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/signalnine/genbench/internal/aggregate"
	"github.com/signalnine/genbench/internal/dataset"
	"github.com/signalnine/genbench/internal/result"
	"github.com/signalnine/genbench/internal/score"
)

type Options struct {
	Format  string
	NoColor bool
}

// TaskSummary is one row of the summary.
type TaskSummary struct {
	Task      string             `json:"task"`
	Total     int                `json:"total_samples"`
	Processed int                `json:"processed_samples"`
	Skipped   int                `json:"skipped_samples"`
	Failed    int                `json:"failed_samples"`
	Metrics   map[string]float64 `json:"metrics"`
	Score     float64            `json:"score"`
}

type Summary struct {
	RunID           string        `json:"run_id"`
	Model           string        `json:"model,omitempty"`
	Tasks           []TaskSummary `json:"tasks"`
	GenerationScore float64       `json:"generation_score"`
	Failures        []string      `json:"failures,omitempty"`
}

// Generate reads a stored document and renders its summary.
func Generate(docPath string, opts Options, w io.Writer) error {
	doc, err := result.Read(docPath)
	if err != nil {
		return err
	}
	return Render(doc, opts, w)
}

func Render(doc *result.Document, opts Options, w io.Writer) error {
	s := Summarize(doc)
	switch opts.Format {
	case "markdown":
		return writeMarkdown(s, w)
	case "json":
		return writeJSON(s, w)
	default:
		return writeTable(s, opts.NoColor, w)
	}
}

// Summarize flattens a document into one row per task in ExpectedTasks
// order.
func Summarize(doc *result.Document) Summary {
	s := Summary{
		RunID:           doc.RunID,
		Model:           doc.Model,
		GenerationScore: doc.GenerationScore,
		Failures:        doc.Failures,
	}
	for _, task := range score.ExpectedTasks {
		var agg aggregate.CategoryAggregate
		switch task {
		case "image_to_video":
			agg = doc.ImageToVideo.CategoryAggregate
		case "text_to_video":
			agg = doc.TextToVideo.CategoryAggregate
		case "video_prediction":
			agg = doc.VideoPrediction.CategoryAggregate
		default:
			agg = doc.ImageTasks.Categories[task].CategoryAggregate
		}
		s.Tasks = append(s.Tasks, TaskSummary{
			Task:      task,
			Total:     agg.Total,
			Processed: agg.Processed,
			Skipped:   agg.Skipped,
			Failed:    agg.Failed,
			Metrics:   agg.Metrics,
			Score:     doc.TaskScores[task],
		})
	}
	return s
}

// Heading renders a section title, styled unless noColor is set.
func Heading(text string, noColor bool) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")).Render(text)
}

// Warn renders a failure line, styled unless noColor is set.
func Warn(text string, noColor bool) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(text)
}

func formatMetrics(m map[string]float64) string {
	agg := aggregate.CategoryAggregate{Metrics: m}
	var parts []string
	for _, k := range agg.MetricNames() {
		if k == aggregate.ScoreKey {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%.4f", k, m[k]))
	}
	return strings.Join(parts, " ")
}

func shortTask(task string) string {
	switch dataset.Category(task) {
	case dataset.Reconstruction:
		return "reconstruction"
	case dataset.Editing:
		return "editing"
	case dataset.TextToImage:
		return "text_to_image"
	}
	return task
}

func writeTable(s Summary, noColor bool, w io.Writer) error {
	title := "Run " + s.RunID
	if s.Model != "" {
		title += " (" + s.Model + ")"
	}
	fmt.Fprintln(w, Heading(title, noColor))
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tTOTAL\tPROCESSED\tSKIPPED\tFAILED\tSCORE\tMETRICS")
	fmt.Fprintln(tw, strings.Repeat("-", 90))
	for _, t := range s.Tasks {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.4f\t%s\n",
			shortTask(t.Task), t.Total, t.Processed, t.Skipped, t.Failed, t.Score, formatMetrics(t.Metrics))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, Heading(fmt.Sprintf("Generation score: %.4f", s.GenerationScore), noColor))
	for _, f := range s.Failures {
		fmt.Fprintln(w, Warn("stage failure: "+f, noColor))
	}
	return nil
}

func writeMarkdown(s Summary, w io.Writer) error {
	fmt.Fprintf(w, "### Run %s\n\n", s.RunID)
	fmt.Fprintln(w, "| Task | Total | Processed | Skipped | Failed | Score | Metrics |")
	fmt.Fprintln(w, "|---|---|---|---|---|---|---|")
	for _, t := range s.Tasks {
		fmt.Fprintf(w, "| %s | %d | %d | %d | %d | %.4f | %s |\n",
			t.Task, t.Total, t.Processed, t.Skipped, t.Failed, t.Score, formatMetrics(t.Metrics))
	}
	fmt.Fprintf(w, "\n**Generation score:** %.4f\n", s.GenerationScore)
	for _, f := range s.Failures {
		fmt.Fprintf(w, "\n> stage failure: %s\n", f)
	}
	return nil
}

func writeJSON(s Summary, w io.Writer) error {
	return encodeJSON(s, w)
}
