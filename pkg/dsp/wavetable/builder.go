package wavetable

import (
	"fmt"
	"math"

	"github.com/iggylabs/tablesynth/pkg/dsp/analysis"
)

const (
	// MaxSlots is the maximum number of band tables per oscillator.
	MaxSlots = 40

	// noiseFloor is the absolute spectral magnitude (|re|+|im|) below which a
	// harmonic is treated as absent when searching for the highest one.
	noiseFloor = 1e-6

	// normalizedPeak is the peak amplitude of the fullest table.
	normalizedPeak = 0.999
)

// Slot is one band-limited table.
type Slot struct {
	// TopFreq is the highest normalized frequency (f / sampleRate) this
	// table serves without aliasing.
	TopFreq float64
	// Len is the table length. Samples has Len+1 entries; the last one
	// repeats Samples[0] so interpolation never wraps.
	Len     int
	Samples []float32
}

// BuildTables converts the spectrum of one cycle into octave-band tables,
// lowest band first.
//
// re and im hold the forward transform of the cycle and must have the same
// power-of-two length. DC and Nyquist are zeroed in place; the rest of the
// spectrum is left untouched.
//
// The first table keeps every harmonic up to the highest one above the
// noise floor and serves normalized frequencies below (2/3)/maxHarmonic.
// Each following table halves the harmonic count and doubles TopFreq. All
// tables share the scale that brings the first table's peak to 0.999, so
// band switches do not change loudness.
func BuildTables(re, im []float64) ([]Slot, error) {
	n := len(re)
	if len(im) != n || !analysis.IsPowerOfTwo(n) {
		return nil, fmt.Errorf("%w: real %d, imaginary %d", analysis.ErrInvalidLength, len(re), len(im))
	}
	if n < 4 {
		return nil, fmt.Errorf("%w: %d point spectrum", ErrDegenerateCycle, n)
	}

	half := n >> 1
	re[0], im[0] = 0, 0
	re[half], im[half] = 0, 0

	maxHarmonic := half
	for maxHarmonic > 0 && math.Abs(re[maxHarmonic])+math.Abs(im[maxHarmonic]) < noiseFloor {
		maxHarmonic--
	}
	if maxHarmonic == 0 {
		return nil, fmt.Errorf("%w: no harmonic above noise floor", ErrDegenerateCycle)
	}

	topFreq := 2.0 / 3.0 / float64(maxHarmonic)
	scale := 0.0

	ar := make([]float64, n)
	ai := make([]float64, n)
	var slots []Slot

	for maxHarmonic > 0 {
		if len(slots) == MaxSlots {
			return nil, ErrTooManySlots
		}

		clear(ar)
		clear(ai)
		for idx := 1; idx <= maxHarmonic; idx++ {
			ar[idx], ai[idx] = re[idx], im[idx]
			ar[n-idx], ai[n-idx] = re[n-idx], im[n-idx]
		}
		if err := analysis.InverseTransform(ar, ai); err != nil {
			return nil, err
		}

		if scale == 0 {
			peak := 0.0
			for _, v := range ar {
				peak = max(peak, math.Abs(v))
			}
			if !(peak > 0) || math.IsInf(peak, 0) {
				return nil, fmt.Errorf("%w: peak %g", ErrDegenerateCycle, peak)
			}
			scale = normalizedPeak / peak
		}

		samples := make([]float32, n+1)
		for i := 0; i < n; i++ {
			samples[i] = float32(ar[i] * scale)
		}
		samples[n] = samples[0]

		slots = append(slots, Slot{TopFreq: topFreq, Len: n, Samples: samples})

		topFreq *= 2
		maxHarmonic >>= 1
	}

	return slots, nil
}
