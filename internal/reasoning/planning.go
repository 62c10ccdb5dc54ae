package reasoning

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"sort"

	"github.com/signalnine/genbench/internal/dataset"
	"github.com/signalnine/genbench/internal/metric"
)

type StepTally struct {
	Step     string `json:"step"`
	Action   Tally  `json:"action"`
	Location Tally  `json:"location"`
	Image    Tally  `json:"image"`
}

type PlanReport struct {
	TotalSamples  int              `json:"total_samples"`
	Steps         []StepTally      `json:"step_accuracies"`
	Subcategories map[string]Tally `json:"subcategory_accuracies"`
}

// SubcategoryNames returns the subcategories in sorted order.
func (r PlanReport) SubcategoryNames() []string {
	names := make([]string, 0, len(r.Subcategories))
	for n := range r.Subcategories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type Planner struct {
	emb      metric.Embedder
	basePath string
}

func NewPlanner(emb metric.Embedder, basePath string) *Planner {
	return &Planner{emb: emb, basePath: basePath}
}

type stepOutcome struct {
	action, location, image outcome
}

func (s stepOutcome) attempted() bool {
	return s.action.attempted && s.location.attempted && s.image.attempted
}

func (s stepOutcome) correct() bool {
	return s.action.correct && s.location.correct && s.image.correct
}

// Evaluate scores each record step by step. A sample counts as attempted
// for its subcategory only when every aspect of every step was attempted.
func (p *Planner) Evaluate(ctx context.Context, records []dataset.Record) PlanReport {
	rep := PlanReport{TotalSamples: len(records), Subcategories: map[string]Tally{}}
	for _, rec := range records {
		steps := p.sample(ctx, rec)

		all := outcome{attempted: true, correct: true}
		for i, s := range steps {
			if !s.attempted() {
				all.attempted = false
			}
			if !s.correct() {
				all.correct = false
			}
			for len(rep.Steps) <= i {
				rep.Steps = append(rep.Steps, StepTally{Step: fmt.Sprintf("step_%d", len(rep.Steps))})
			}
			rep.Steps[i].Action.add(s.action)
			rep.Steps[i].Location.add(s.location)
			rep.Steps[i].Image.add(s.image)
		}
		sub := rep.Subcategories[rec.Subcategory]
		sub.add(all)
		rep.Subcategories[rec.Subcategory] = sub
	}

	for i := range rep.Steps {
		st := &rep.Steps[i]
		for _, t := range []*Tally{&st.Action, &st.Location, &st.Image} {
			// every sample contributes to a step, even when it has fewer steps
			t.Skipped += rep.TotalSamples - t.Total
			t.Total = rep.TotalSamples
			t.finish(rep.TotalSamples)
		}
	}
	for name, t := range rep.Subcategories {
		t.finish(rep.TotalSamples)
		rep.Subcategories[name] = t
	}
	return rep
}

func (p *Planner) sample(ctx context.Context, rec dataset.Record) []stepOutcome {
	actions, _ := rec.Data["Action"].([]any)
	coords, _ := rec.Data["Coordinate"].([]any)

	var truth []string
	for i := 0; ; i++ {
		s, ok := rec.DataString(fmt.Sprintf("Step_%d", i))
		if !ok {
			break
		}
		truth = append(truth, dataset.ResolveReference(p.basePath, s))
	}

	var (
		truthVecs [][]float32
		truthErr  error
	)
	steps := make([]stepOutcome, len(actions))
	for i := range actions {
		out, ok := rec.Outputs[fmt.Sprintf("output_step_%d", i)]
		if !ok {
			continue
		}
		var s stepOutcome

		s.action = outcome{
			attempted: out.Action != nil,
			correct:   reflect.DeepEqual(out.Action, actions[i]),
		}
		if i < len(coords) {
			want, _ := coords[i].([]any)
			s.location = outcome{
				attempted: out.Location != nil,
				correct:   out.Location != nil && sameCoordinate(out.Location, want),
			}
		}

		if out.Image != "" && len(truth) > 0 {
			if truthVecs == nil && truthErr == nil {
				truthVecs, truthErr = embedImages(ctx, p.emb, truth)
			}
			s.image = p.image(ctx, rec, out.Image, truthVecs, truthErr, i)
		}
		steps[i] = s
	}
	return steps
}

func (p *Planner) image(ctx context.Context, rec dataset.Record, output string, truth [][]float32, truthErr error, step int) outcome {
	if truthErr != nil {
		log.Printf("warning: sample %s step %d: %v", rec.Label(), step, truthErr)
		return outcome{failed: true}
	}
	v, err := p.emb.EmbedImage(ctx, dataset.ResolveOutput(p.basePath, output))
	if err != nil {
		log.Printf("warning: sample %s step %d: embedding %s: %v", rec.Label(), step, output, err)
		return outcome{failed: true}
	}
	return outcome{attempted: true, correct: metric.Argmax(v, truth) == step}
}

func sameCoordinate(got, want []any) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if !reflect.DeepEqual(got[i], want[i]) {
			return false
		}
	}
	return true
}
