package wavetable

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"testing"

	"github.com/iggylabs/tablesynth/pkg/dsp/analysis"
)

// harmonicSpectrum returns the transform of sin(2*pi*k*t/n).
func harmonicSpectrum(n, k int) (re, im []float64) {
	re = make([]float64, n)
	im = make([]float64, n)
	im[k] = -float64(n) / 2
	im[n-k] = float64(n) / 2
	return re, im
}

func peakOf(samples []float32) float64 {
	peak := 0.0
	for _, s := range samples {
		peak = max(peak, math.Abs(float64(s)))
	}
	return peak
}

func TestBuildTablesSingleHarmonic(t *testing.T) {
	const n = 2048

	for _, k := range []int{1, 5, 64, 1023} {
		t.Run(fmt.Sprintf("k=%d", k), func(t *testing.T) {
			re, im := harmonicSpectrum(n, k)
			slots, err := BuildTables(re, im)
			if err != nil {
				t.Fatalf("BuildTables: %v", err)
			}

			if want := bits.Len(uint(k)); len(slots) != want {
				t.Fatalf("got %d slots, want %d", len(slots), want)
			}

			first := slots[0]
			if want := (2.0 / 3.0) / float64(k); math.Abs(first.TopFreq-want) > 1e-15 {
				t.Errorf("TopFreq = %g, want %g", first.TopFreq, want)
			}
			if math.Abs(peakOf(first.Samples)-0.999) > 1e-6 {
				t.Errorf("first table peak = %g, want 0.999", peakOf(first.Samples))
			}
			for i := 0; i < n; i++ {
				want := 0.999 * math.Sin(2*math.Pi*float64(k*i)/n)
				if math.Abs(float64(first.Samples[i])-want) > 1e-5 {
					t.Fatalf("sample %d = %g, want %g", i, first.Samples[i], want)
				}
			}

			// Bands below k carry nothing.
			for _, s := range slots[1:] {
				if peakOf(s.Samples) > 1e-6 {
					t.Errorf("slot with TopFreq %g should be silent, peak %g", s.TopFreq, peakOf(s.Samples))
				}
			}
		})
	}

	t.Run("Fundamental", func(t *testing.T) {
		re, im := harmonicSpectrum(n, 1)
		slots, err := BuildTables(re, im)
		if err != nil {
			t.Fatal(err)
		}
		if len(slots) != 1 || slots[0].TopFreq != 2.0/3.0 {
			t.Errorf("want one slot at 2/3, got %d slots", len(slots))
		}
	})
}

func TestBuildTablesSawtooth(t *testing.T) {
	osc := NewSawOscillator()

	if osc.NumSlots() != 10 {
		t.Fatalf("got %d slots, want 10", osc.NumSlots())
	}

	for i := 0; i < osc.NumSlots(); i++ {
		s := osc.Slot(i)
		want := (2.0 / 3.0) / 1023 * math.Pow(2, float64(i))
		if math.Abs(s.TopFreq-want) > 1e-12 {
			t.Errorf("slot %d TopFreq = %g, want %g", i, s.TopFreq, want)
		}
		if s.Len != sawLength || len(s.Samples) != sawLength+1 {
			t.Errorf("slot %d has Len %d and %d samples", i, s.Len, len(s.Samples))
		}
		if s.Samples[s.Len] != s.Samples[0] {
			t.Errorf("slot %d missing wraparound sample", i)
		}
		// Shared scale: no band louder than the full one.
		if peakOf(s.Samples) > 0.999+1e-6 {
			t.Errorf("slot %d peak %g exceeds 0.999", i, peakOf(s.Samples))
		}
	}

	if math.Abs(peakOf(osc.Slot(0).Samples)-0.999) > 1e-6 {
		t.Errorf("first table peak = %g, want 0.999", peakOf(osc.Slot(0).Samples))
	}

	// Rising ramp: quarter cycle below zero, three quarters above.
	s := osc.Slot(0).Samples
	if !(s[sawLength/4] < 0 && s[3*sawLength/4] > 0) {
		t.Errorf("expected rising ramp, got %g at 1/4 and %g at 3/4", s[sawLength/4], s[3*sawLength/4])
	}
}

func TestBuildTablesZeroesDCAndNyquist(t *testing.T) {
	const n = 64
	re, im := harmonicSpectrum(n, 3)
	re[0] = 100
	re[n/2] = 50

	slots, err := BuildTables(re, im)
	if err != nil {
		t.Fatal(err)
	}
	if re[0] != 0 || re[n/2] != 0 {
		t.Error("DC and Nyquist should be cleared in place")
	}

	sum := 0.0
	for _, v := range slots[0].Samples[:n] {
		sum += float64(v)
	}
	if math.Abs(sum) > 1e-4 {
		t.Errorf("table has DC offset %g", sum/n)
	}
}

func TestBuildTablesErrors(t *testing.T) {
	tests := []struct {
		name   string
		re, im []float64
		want   error
	}{
		{"NotPowerOfTwo", make([]float64, 100), make([]float64, 100), analysis.ErrInvalidLength},
		{"Mismatched", make([]float64, 64), make([]float64, 32), analysis.ErrInvalidLength},
		{"Empty", nil, nil, analysis.ErrInvalidLength},
		{"TooShort", make([]float64, 2), make([]float64, 2), ErrDegenerateCycle},
		{"Silent", make([]float64, 64), make([]float64, 64), ErrDegenerateCycle},
		{"DCOnly", append([]float64{64}, make([]float64, 63)...), make([]float64, 64), ErrDegenerateCycle},
		{"BelowNoiseFloor", func() []float64 {
			re := make([]float64, 64)
			re[3] = 1e-7
			return re
		}(), make([]float64, 64), ErrDegenerateCycle},
		{"NaNBin", func() []float64 {
			re := make([]float64, 64)
			re[3] = math.NaN()
			return re
		}(), make([]float64, 64), ErrDegenerateCycle},
		{"InfBin", func() []float64 {
			re := make([]float64, 64)
			re[5] = math.Inf(1)
			return re
		}(), make([]float64, 64), ErrDegenerateCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildTables(tt.re, tt.im)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func BenchmarkBuildTables2048(b *testing.B) {
	re := make([]float64, sawLength)
	im := make([]float64, sawLength)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for k := 1; k < sawLength/2; k++ {
			im[k] = 1 / float64(k)
			im[sawLength-k] = -1 / float64(k)
		}
		if _, err := BuildTables(re, im); err != nil {
			b.Fatal(err)
		}
	}
}
