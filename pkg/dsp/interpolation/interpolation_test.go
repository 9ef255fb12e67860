package interpolation

import (
	"math"
	"testing"
)

func TestLinear(t *testing.T) {
	tests := []struct {
		name         string
		y0, y1, frac float32
		want         float32
	}{
		{"Start", -1, 1, 0, -1},
		{"End", -1, 1, 1, 1},
		{"Middle", -1, 1, 0.5, 0},
		{"Quarter", 0, 4, 0.25, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Linear(tt.y0, tt.y1, tt.frac); got != tt.want {
				t.Errorf("Linear(%v, %v, %v) = %v, want %v", tt.y0, tt.y1, tt.frac, got, tt.want)
			}
		})
	}
}

func TestResampleCycleIdentity(t *testing.T) {
	input := []float32{0, 1, 0, -1}
	output := make([]float32, 4)
	ResampleCycle(input, output)

	for i := range input {
		if output[i] != input[i] {
			t.Errorf("index %d: got %v, want %v", i, output[i], input[i])
		}
	}
}

func TestResampleCycleWraps(t *testing.T) {
	input := []float32{0, 1, 0, -1}
	output := make([]float32, 8)
	ResampleCycle(input, output)

	// The final output sample sits halfway between the last input sample and
	// the first one.
	if math.Abs(float64(output[7]-(-0.5))) > 1e-6 {
		t.Errorf("wraparound sample = %v, want -0.5", output[7])
	}
	if output[1] != 0.5 {
		t.Errorf("output[1] = %v, want 0.5", output[1])
	}
}

func TestResampleCycleEmptyInput(t *testing.T) {
	output := []float32{1, 2, 3}
	ResampleCycle(nil, output)
	for i, v := range output {
		if v != 0 {
			t.Errorf("index %d: got %v, want 0", i, v)
		}
	}
}
