package analysis

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLength is returned when a transform is requested over a length
// that is not a power of two, or over real/imaginary slices of different length.
var ErrInvalidLength = errors.New("analysis: transform length must be a power of two")

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// Transform replaces re/im with their discrete Fourier transform in place.
//
// The length of both slices must be the same power of two. This is not
// checked; use TransformChecked when the length comes from untrusted input.
// Transform does not allocate.
func Transform(re, im []float64) {
	n := len(re)

	// Bit reversal
	j := 0
	for i := 0; i < n; i++ {
		if i < j {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
		m := n >> 1
		for m >= 1 && j >= m {
			j -= m
			m >>= 1
		}
		j += m
	}

	// Cooley-Tukey butterflies, twiddle exp(-2*pi*i*k/stage)
	for stage := 2; stage <= n; stage <<= 1 {
		half := stage >> 1
		theta := -2.0 * math.Pi / float64(stage)
		wReal := math.Cos(theta)
		wImag := math.Sin(theta)

		for k := 0; k < n; k += stage {
			uReal := 1.0
			uImag := 0.0

			for j := 0; j < half; j++ {
				i1 := k + j
				i2 := i1 + half

				tReal := uReal*re[i2] - uImag*im[i2]
				tImag := uReal*im[i2] + uImag*re[i2]

				re[i2] = re[i1] - tReal
				im[i2] = im[i1] - tImag
				re[i1] += tReal
				im[i1] += tImag

				old := uReal
				uReal = old*wReal - uImag*wImag
				uImag = old*wImag + uImag*wReal
			}
		}
	}
}

// TransformChecked validates the length before calling Transform.
func TransformChecked(re, im []float64) error {
	if len(re) != len(im) {
		return fmt.Errorf("%w: real %d, imaginary %d", ErrInvalidLength, len(re), len(im))
	}
	if !IsPowerOfTwo(len(re)) {
		return fmt.Errorf("%w: got %d", ErrInvalidLength, len(re))
	}
	Transform(re, im)
	return nil
}

// InverseTransform computes the inverse DFT in place by conjugating around
// the forward transform and rescaling by 1/N.
func InverseTransform(re, im []float64) error {
	if len(re) != len(im) || !IsPowerOfTwo(len(re)) {
		return fmt.Errorf("%w: got %d", ErrInvalidLength, len(re))
	}

	for i := range im {
		im[i] = -im[i]
	}
	Transform(re, im)

	scale := 1.0 / float64(len(re))
	for i := range re {
		re[i] *= scale
		im[i] = -im[i] * scale
	}
	return nil
}

// WindowFunc represents a window function type
type WindowFunc int

const (
	RectangularWindow WindowFunc = iota
	HannWindow
	HammingWindow
	BlackmanWindow
	BlackmanHarrisWindow
)

// FFT is a windowed magnitude/phase analyser built on Transform.
// It is used to inspect rendered output, not on the playback path.
type FFT struct {
	size       int
	window     WindowFunc
	windowData []float64
	real       []float64
	imag       []float64
	magnitude  []float64
	phase      []float64
}

// NewFFT creates a new analyser. size must be a power of two.
func NewFFT(size int, window WindowFunc) (*FFT, error) {
	if !IsPowerOfTwo(size) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLength, size)
	}

	f := &FFT{
		size:       size,
		window:     window,
		windowData: make([]float64, size),
		real:       make([]float64, size),
		imag:       make([]float64, size),
		magnitude:  make([]float64, size/2+1),
		phase:      make([]float64, size/2+1),
	}
	f.calculateWindow()
	return f, nil
}

// Size returns the transform length.
func (f *FFT) Size() int {
	return f.size
}

func (f *FFT) calculateWindow() {
	n := float64(f.size)
	if f.size == 1 {
		f.windowData[0] = 1
		return
	}

	for i := 0; i < f.size; i++ {
		x := 2.0 * math.Pi * float64(i) / (n - 1.0)
		switch f.window {
		case HannWindow:
			f.windowData[i] = 0.5 * (1.0 - math.Cos(x))
		case HammingWindow:
			f.windowData[i] = 0.54 - 0.46*math.Cos(x)
		case BlackmanWindow:
			f.windowData[i] = math.Max(0, 0.42-0.5*math.Cos(x)+0.08*math.Cos(2*x))
		case BlackmanHarrisWindow:
			f.windowData[i] = 0.35875 - 0.48829*math.Cos(x) + 0.14128*math.Cos(2*x) - 0.01168*math.Cos(3*x)
		default:
			f.windowData[i] = 1.0
		}
	}
}

// Forward windows input (zero padding when shorter than the analyser),
// transforms it, and returns the magnitude and phase of bins 0..N/2.
// The returned slices are owned by the analyser and overwritten by the next call.
func (f *FFT) Forward(input []float32) (magnitude, phase []float64) {
	for i := 0; i < f.size; i++ {
		if i < len(input) {
			f.real[i] = float64(input[i]) * f.windowData[i]
		} else {
			f.real[i] = 0
		}
		f.imag[i] = 0
	}

	Transform(f.real, f.imag)

	for i := 0; i <= f.size/2; i++ {
		f.magnitude[i] = math.Hypot(f.real[i], f.imag[i])
		f.phase[i] = math.Atan2(f.imag[i], f.real[i])
	}
	return f.magnitude, f.phase
}

// GetFrequencyBin returns the frequency corresponding to a given bin
func (f *FFT) GetFrequencyBin(bin int, sampleRate float64) float64 {
	return float64(bin) * sampleRate / float64(f.size)
}

// PeakBin returns the index of the largest magnitude, ignoring DC.
func PeakBin(magnitude []float64) int {
	peak := 0
	for i := 1; i < len(magnitude); i++ {
		if peak == 0 || magnitude[i] > magnitude[peak] {
			peak = i
		}
	}
	return peak
}
