package clinical_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Machai17/EG-AI/internal/clinical"
)

func TestDripRate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		volumeML   float64
		timeHours  float64
		dropFactor int
		expected   float64
		expectErr  bool
	}{
		{
			name:       "macro drip standard bag",
			volumeML:   500,
			timeHours:  8,
			dropFactor: clinical.MacroDropFactor,
			expected:   500 * 20 / (8 * 60.0),
		},
		{
			name:       "micro drip",
			volumeML:   100,
			timeHours:  1,
			dropFactor: clinical.MicroDropFactor,
			expected:   100,
		},
		{
			name:       "fractional hours",
			volumeML:   250,
			timeHours:  0.5,
			dropFactor: clinical.MacroDropFactor,
			expected:   250 * 20 / 30.0,
		},
		{
			name:       "zero volume",
			volumeML:   0,
			timeHours:  8,
			dropFactor: clinical.MacroDropFactor,
			expectErr:  true,
		},
		{
			name:       "negative time",
			volumeML:   500,
			timeHours:  -1,
			dropFactor: clinical.MacroDropFactor,
			expectErr:  true,
		},
		{
			name:       "unsupported drop factor",
			volumeML:   500,
			timeHours:  8,
			dropFactor: 15,
			expectErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := clinical.DripRate(tc.volumeML, tc.timeHours, tc.dropFactor)
			if tc.expectErr {
				if err == nil {
					t.Fatalf("expected error, got rate %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("expected %v drops/min, got %v", tc.expected, got)
			}
		})
	}
}

func TestDriftStaysInRange(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	v := clinical.DefaultVitals()

	for i := 0; i < 1000; i++ {
		v = clinical.Drift(v, rng)

		if v.BPSystolic < 100 || v.BPSystolic > 150 {
			t.Fatalf("systolic BP out of range at step %d: %d", i, v.BPSystolic)
		}
		if v.BPDiastolic < 60 || v.BPDiastolic > 95 {
			t.Fatalf("diastolic BP out of range at step %d: %d", i, v.BPDiastolic)
		}
		if v.HeartRate < 55 || v.HeartRate > 110 {
			t.Fatalf("heart rate out of range at step %d: %d", i, v.HeartRate)
		}
		if v.RespRate < 12 || v.RespRate > 22 {
			t.Fatalf("respiratory rate out of range at step %d: %d", i, v.RespRate)
		}
		if v.SpO2 < 92 || v.SpO2 > 100 {
			t.Fatalf("SpO2 out of range at step %d: %d", i, v.SpO2)
		}
		if v.Temperature < 35.8 || v.Temperature > 37.8 {
			t.Fatalf("temperature out of range at step %d: %v", i, v.Temperature)
		}
	}
}

func TestDriftUpdatesTimestamp(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(2))
	base := clinical.DefaultVitals()
	next := clinical.Drift(base, rng)

	if next.Timestamp.Before(base.Timestamp) {
		t.Errorf("timestamp went backwards: %v -> %v", base.Timestamp, next.Timestamp)
	}
}

func TestCPRReference(t *testing.T) {
	t.Parallel()

	ref := clinical.CPRReference()
	if ref.CompressionRateMin != 100 || ref.CompressionRateMax != 120 {
		t.Errorf("unexpected compression rate range: %d-%d", ref.CompressionRateMin, ref.CompressionRateMax)
	}
	if ref.CompressionRatio != "30:2" {
		t.Errorf("unexpected compression ratio: %q", ref.CompressionRatio)
	}
	if len(ref.Steps) == 0 {
		t.Error("expected protocol steps")
	}
}
