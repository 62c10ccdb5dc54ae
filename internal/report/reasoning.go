package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/signalnine/genbench/internal/reasoning"
	"github.com/signalnine/genbench/internal/understanding"
)

func encodeJSON(v any, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderAccuracy writes the multiple-choice accuracy report. Only the
// table and json formats are distinct; markdown falls back to the table.
func RenderAccuracy(rep understanding.Report, opts Options, w io.Writer) error {
	if opts.Format == "json" {
		return encodeJSON(rep, w)
	}
	fmt.Fprintln(w, Heading("Understanding accuracy", opts.NoColor))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCORRECT\tTOTAL\tACCURACY")
	for _, c := range rep.Categories {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\n", c.Category, c.Correct, c.Total, c.Accuracy*100)
	}
	fmt.Fprintf(tw, "overall\t%d\t%d\t%.2f%%\n", rep.Correct, rep.Total, rep.Accuracy*100)
	return tw.Flush()
}

func RenderExplainEdit(rep reasoning.ExplainEditReport, opts Options, w io.Writer) error {
	if opts.Format == "json" {
		return encodeJSON(rep, w)
	}
	fmt.Fprintln(w, Heading(fmt.Sprintf("Explanation and editing (%d samples)", rep.TotalSamples), opts.NoColor))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeTallyHeader(tw, "PART")
	writeTally(tw, "text", rep.Text)
	writeTally(tw, "image", rep.Image)
	writeTally(tw, "combined", rep.Combined)
	return tw.Flush()
}

func RenderPlan(rep reasoning.PlanReport, opts Options, w io.Writer) error {
	if opts.Format == "json" {
		return encodeJSON(rep, w)
	}
	fmt.Fprintln(w, Heading(fmt.Sprintf("Visual planning (%d samples)", rep.TotalSamples), opts.NoColor))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeTallyHeader(tw, "SUBCATEGORY")
	for _, name := range rep.SubcategoryNames() {
		writeTally(tw, name, rep.Subcategories[name])
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeTallyHeader(tw, "STEP")
	for _, s := range rep.Steps {
		writeTally(tw, s.Step+" action", s.Action)
		writeTally(tw, s.Step+" location", s.Location)
		writeTally(tw, s.Step+" image", s.Image)
	}
	return tw.Flush()
}

func writeTallyHeader(tw *tabwriter.Writer, first string) {
	fmt.Fprintf(tw, "%s\tATTEMPTED\tCORRECT\tSKIPPED\tFAILED\tACCURACY\n", first)
}

func writeTally(tw *tabwriter.Writer, name string, t reasoning.Tally) {
	fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.2f%%\n", name, t.Attempted, t.Correct, t.Skipped, t.Failed, t.Accuracy)
}
