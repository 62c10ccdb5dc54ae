package metric_test

import (
	"math"
	"testing"

	"github.com/signalnine/genbench/internal/metric"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := metric.Cosine(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		d    float64
		want float64
	}{
		{0, 1},
		{250, 0.75},
		{1000, 0},
		{1500, 0},
		{-10, 1},
		{math.Inf(1), 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		got := metric.Normalize(tt.d, metric.DefaultMaxDistance)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Normalize(%v): got %f, want %f", tt.d, got, tt.want)
		}
	}
}

func TestNormalizeMonotone(t *testing.T) {
	prev := metric.Normalize(0, metric.DefaultMaxDistance)
	for d := 10.0; d <= 1200; d += 10 {
		got := metric.Normalize(d, metric.DefaultMaxDistance)
		if got > prev {
			t.Fatalf("Normalize not non-increasing at %v: %f > %f", d, got, prev)
		}
		if got < 0 || got > 1 {
			t.Fatalf("Normalize(%v) = %f out of range", d, got)
		}
		prev = got
	}
}

func TestArgmax(t *testing.T) {
	target := []float32{1, 0}
	cands := [][]float32{{0, 1}, {1, 0.1}, {-1, 0}}
	if got := metric.Argmax(target, cands); got != 1 {
		t.Errorf("got %d, want 1", got)
	}
	if got := metric.Argmax(target, nil); got != -1 {
		t.Errorf("empty: got %d, want -1", got)
	}
}
