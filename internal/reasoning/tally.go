// Package reasoning scores the interleaved reasoning tasks: explanation
// with editing, and multi-step visual planning. Both pick the candidate
// whose embedding is closest to the model output.
package reasoning

// Tally counts outcomes of one scored aspect. Rates are percentages over
// the number of samples in the run, not over Total.
type Tally struct {
	Total         int     `json:"total"`
	Attempted     int     `json:"attempted"`
	AttemptedRate float64 `json:"attempted_rate"`
	Correct       int     `json:"correct"`
	Accuracy      float64 `json:"accuracy"`
	Skipped       int     `json:"skipped"`
	SkipRate      float64 `json:"skip_rate"`
	Failed        int     `json:"failed"`
	FailureRate   float64 `json:"failure_rate"`
}

type outcome struct {
	attempted bool
	correct   bool
	failed    bool
}

func (t *Tally) add(o outcome) {
	t.Total++
	switch {
	case o.attempted:
		t.Attempted++
		if o.correct {
			t.Correct++
		}
	case o.failed:
		t.Failed++
	default:
		t.Skipped++
	}
}

func (t *Tally) finish(samples int) {
	if samples == 0 {
		return
	}
	pct := func(n int) float64 { return float64(n) / float64(samples) * 100 }
	t.AttemptedRate = pct(t.Attempted)
	t.Accuracy = pct(t.Correct)
	t.SkipRate = pct(t.Skipped)
	t.FailureRate = pct(t.Failed)
}
