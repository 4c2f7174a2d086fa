package audio

import (
	"errors"
	"math"
	"testing"
)

func TestPlanTenMinuteRecording(t *testing.T) {
	specs, err := Plan(650, 300, 30)
	if err != nil {
		t.Fatalf("Plan(650, 300, 30) returned error: %v", err)
	}

	wantStarts := []float64{0, 270, 540}
	wantDurations := []float64{300, 300, 110}

	if len(specs) != len(wantStarts) {
		t.Fatalf("got %d chunks, want %d", len(specs), len(wantStarts))
	}
	for i, spec := range specs {
		if spec.Index != i {
			t.Errorf("chunk %d has index %d", i, spec.Index)
		}
		if spec.Start != wantStarts[i] {
			t.Errorf("chunk %d start = %.1f, want %.1f", i, spec.Start, wantStarts[i])
		}
		if spec.Duration != wantDurations[i] {
			t.Errorf("chunk %d duration = %.1f, want %.1f", i, spec.Duration, wantDurations[i])
		}
	}
}

func TestPlanShortRecordingSingleChunk(t *testing.T) {
	for _, total := range []float64{0.5, 60, 290, 300} {
		specs, err := Plan(total, 300, 30)
		if err != nil {
			t.Fatalf("Plan(%.1f, 300, 30) returned error: %v", total, err)
		}
		if len(specs) != 1 {
			t.Fatalf("Plan(%.1f, 300, 30) produced %d chunks, want 1", total, len(specs))
		}
		if specs[0].Start != 0 || specs[0].Duration != total {
			t.Errorf("Plan(%.1f, 300, 30) = {start %.1f, dur %.1f}, want {0, %.1f}",
				total, specs[0].Start, specs[0].Duration, total)
		}
	}
}

func TestPlanInvalidInput(t *testing.T) {
	cases := []struct {
		name                    string
		total, window, overlap float64
	}{
		{"zero duration", 0, 300, 30},
		{"negative duration", -5, 300, 30},
		{"zero window", 100, 0, 0},
		{"overlap equals window", 100, 300, 300},
		{"overlap exceeds window", 100, 300, 400},
		{"negative overlap", 100, 300, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Plan(tc.total, tc.window, tc.overlap)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Plan(%v, %v, %v) error = %v, want ErrInvalidInput", tc.total, tc.window, tc.overlap, err)
			}
		})
	}
}

// The windows must cover [0, D) with no gaps: each chunk starts exactly
// one stride after the previous one, overlaps it by the overlap length,
// and the final chunk ends exactly at D.
func TestPlanCoverage(t *testing.T) {
	cases := []struct {
		total, window, overlap float64
	}{
		{650, 300, 30},
		{3600, 300, 30},
		{301, 300, 30},
		{1000, 120, 0},
		{47.5, 10, 2.5},
		{271, 300, 30},
	}
	const eps = 1e-9

	for _, tc := range cases {
		specs, err := Plan(tc.total, tc.window, tc.overlap)
		if err != nil {
			t.Fatalf("Plan(%v, %v, %v) returned error: %v", tc.total, tc.window, tc.overlap, err)
		}
		if len(specs) == 0 {
			t.Fatalf("Plan(%v, %v, %v) produced no chunks", tc.total, tc.window, tc.overlap)
		}

		stride := tc.window - tc.overlap
		for i, spec := range specs {
			if math.Abs(spec.Start-float64(i)*stride) > eps {
				t.Errorf("Plan(%v, %v, %v): chunk %d start = %v, want %v",
					tc.total, tc.window, tc.overlap, i, spec.Start, float64(i)*stride)
			}
			if i > 0 && specs[i-1].End()-spec.Start < -eps {
				t.Errorf("Plan(%v, %v, %v): gap between chunk %d and %d",
					tc.total, tc.window, tc.overlap, i-1, i)
			}
		}
		last := specs[len(specs)-1]
		if math.Abs(last.End()-tc.total) > eps {
			t.Errorf("Plan(%v, %v, %v): last chunk ends at %v, want %v",
				tc.total, tc.window, tc.overlap, last.End(), tc.total)
		}
	}
}
