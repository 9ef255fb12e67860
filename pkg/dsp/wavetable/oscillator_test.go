package wavetable

import (
	"errors"
	"math"
	"testing"

	"github.com/iggylabs/tablesynth/pkg/dsp/analysis"
)

func constantTable(n int, v float32) []float32 {
	table := make([]float32, n)
	for i := range table {
		table[i] = v
	}
	return table
}

func sineCycle(n int) []float32 {
	cycle := make([]float32, n)
	for i := range cycle {
		cycle[i] = float32(math.Sin(2 * math.Pi * float64(i) / float64(n)))
	}
	return cycle
}

func TestOscillatorBandSelection(t *testing.T) {
	var osc Oscillator
	if err := osc.AddSlot(constantTable(8, 0.25), 0.25); err != nil {
		t.Fatal(err)
	}
	if err := osc.AddSlot(constantTable(8, 0.75), 0.5); err != nil {
		t.Fatal(err)
	}

	const sr = 48000.0
	tests := []struct {
		name       string
		normalized float64
		expected   float32
	}{
		{"Low", 0.01, 0.25},
		{"JustBelowTop", 0.2499, 0.25},
		{"EqualToTopMovesUp", 0.25, 0.75},
		{"SecondBand", 0.4, 0.75},
		{"AboveAllFallsBackToLast", 0.9, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := osc.Sample(0.3, tt.normalized*sr, sr)
			if got != tt.expected {
				t.Errorf("Sample at %g = %g, want %g", tt.normalized, got, tt.expected)
			}
		})
	}
}

func TestOscillatorInterpolation(t *testing.T) {
	var osc Oscillator
	if err := osc.AddSlot([]float32{0, 1, 0, -1}, 1); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		phase    float64
		expected float32
	}{
		{0, 0},
		{0.125, 0.5},
		{0.25, 1},
		{0.875, -0.5},
		{-0.75, 1},
		{1.25, 1},
	}

	for _, tt := range tests {
		got := osc.Sample(tt.phase, 100, 48000)
		if math.Abs(float64(got-tt.expected)) > 1e-6 {
			t.Errorf("Sample(%g) = %g, want %g", tt.phase, got, tt.expected)
		}
	}
}

func TestOscillatorWraparoundContinuity(t *testing.T) {
	sine, err := NewOscillatorFromCycle(sineCycle(2048))
	if err != nil {
		t.Fatal(err)
	}

	for name, osc := range map[string]*Oscillator{"Sine": sine, "Saw": NewSawOscillator()} {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < osc.NumSlots(); i++ {
				s := osc.Slot(i)
				if s.Samples[s.Len] != s.Samples[0] {
					t.Errorf("slot %d: Samples[Len] = %g, Samples[0] = %g", i, s.Samples[s.Len], s.Samples[0])
				}
			}

			// Reads just below phase 1 approach the value at phase 0.
			for _, freq := range []float64{20, 261.6, 2000, 15000} {
				start := osc.Sample(0, freq, 48000)
				end := osc.Sample(1-1e-9, freq, 48000)
				if math.Abs(float64(end-start)) > 1e-4 {
					t.Errorf("freq %g: phase 1-ε gives %g, phase 0 gives %g", freq, end, start)
				}
			}
		})
	}
}

func TestOscillatorInvalidInput(t *testing.T) {
	var empty Oscillator
	if got := empty.Sample(0.5, 440, 48000); got != 0 {
		t.Errorf("empty oscillator returned %g", got)
	}

	osc := NewSawOscillator()
	tests := []struct {
		name                 string
		phase, freq, srHertz float64
	}{
		{"ZeroSampleRate", 0.3, 440, 0},
		{"NegativeSampleRate", 0.3, 440, -48000},
		{"NaNPhase", math.NaN(), 440, 48000},
		{"InfPhase", math.Inf(1), 440, 48000},
		{"NaNFrequency", 0.3, math.NaN(), 48000},
		{"InfFrequency", 0.3, math.Inf(-1), 48000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := osc.Sample(tt.phase, tt.freq, tt.srHertz); got != 0 {
				t.Errorf("got %g, want 0", got)
			}
		})
	}
}

func TestOscillatorSlotLimit(t *testing.T) {
	var osc Oscillator
	for i := 0; i < MaxSlots; i++ {
		if err := osc.AddSlot([]float32{1, -1}, float64(i+1)); err != nil {
			t.Fatalf("slot %d: %v", i, err)
		}
	}
	if err := osc.AddSlot([]float32{1, -1}, 100); !errors.Is(err, ErrTooManySlots) {
		t.Errorf("expected ErrTooManySlots, got %v", err)
	}

	slots := make([]Slot, MaxSlots+1)
	if _, err := NewOscillator(slots); !errors.Is(err, ErrTooManySlots) {
		t.Errorf("NewOscillator: expected ErrTooManySlots, got %v", err)
	}
}

func TestNewOscillatorValidation(t *testing.T) {
	good := Slot{TopFreq: 0.1, Len: 2, Samples: []float32{1, -1, 1}}

	if _, err := NewOscillator([]Slot{good, {TopFreq: 0.2, Len: 2, Samples: []float32{1, -1, 1}}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := NewOscillator([]Slot{{TopFreq: 0.1, Len: 2, Samples: []float32{1, -1}}}); err == nil {
		t.Error("expected error for missing wraparound sample")
	}
	if _, err := NewOscillator([]Slot{good, {TopFreq: 0.05, Len: 2, Samples: []float32{1, -1, 1}}}); err == nil {
		t.Error("expected error for descending TopFreq")
	}
	if _, err := NewOscillatorFromCycle(make([]float32, 100)); !errors.Is(err, analysis.ErrInvalidLength) {
		t.Errorf("expected ErrInvalidLength, got %v", err)
	}
	if _, err := NewOscillatorFromCycle(make([]float32, 64)); !errors.Is(err, ErrDegenerateCycle) {
		t.Errorf("expected ErrDegenerateCycle, got %v", err)
	}
}

func TestOscillatorSampleDoesNotAllocate(t *testing.T) {
	osc := NewSawOscillator()
	phase := 0.0

	allocs := testing.AllocsPerRun(100, func() {
		osc.Sample(phase, 440, 48000)
		phase += 0.01
	})
	if allocs != 0 {
		t.Errorf("Sample allocated %.0f times per run", allocs)
	}
}

func BenchmarkOscillatorSample(b *testing.B) {
	osc := NewSawOscillator()
	phase := 0.0
	inc := 440.0 / 48000

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		osc.Sample(phase, 440, 48000)
		phase += inc
		if phase >= 1 {
			phase--
		}
	}
}
