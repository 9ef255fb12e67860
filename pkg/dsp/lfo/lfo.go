// Package lfo provides low-frequency modulation sources.
package lfo

import "math"

// Shape selects the LFO waveform.
type Shape int

const (
	Sine Shape = iota
	Triangle
	Saw
	Square
	NumShapes
)

var shapeNames = [NumShapes]string{"Sine", "Triangle", "Saw", "Square"}

func (s Shape) String() string {
	if s < 0 || s >= NumShapes {
		return "Unknown"
	}
	return shapeNames[s]
}

// ParseShape looks up a shape by name, case-sensitively.
func ParseShape(name string) (Shape, bool) {
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), true
		}
	}
	return Sine, false
}

// LFO is a naive (not band-limited) modulation oscillator.
type LFO struct {
	sampleRate float64
	rate       float64
	phase      float64
	phaseInc   float64
	shape      Shape
}

// New creates a 1 Hz sine LFO.
func New(sampleRate float64) *LFO {
	l := &LFO{sampleRate: sampleRate}
	l.SetRate(1)
	return l
}

// SetRate sets the frequency in Hz. Negative rates run the phase backwards.
func (l *LFO) SetRate(hz float64) {
	l.rate = hz
	if l.sampleRate > 0 && !math.IsNaN(hz) && !math.IsInf(hz, 0) {
		l.phaseInc = hz / l.sampleRate
	} else {
		l.phaseInc = 0
	}
}

// Rate returns the frequency in Hz.
func (l *LFO) Rate() float64 {
	return l.rate
}

// SetSampleRate keeps the rate and recomputes the increment.
func (l *LFO) SetSampleRate(sampleRate float64) {
	l.sampleRate = sampleRate
	l.SetRate(l.rate)
}

// SetShape selects the waveform; out-of-range shapes fall back to Sine.
func (l *LFO) SetShape(s Shape) {
	if s < 0 || s >= NumShapes {
		s = Sine
	}
	l.shape = s
}

// Shape returns the waveform.
func (l *LFO) Shape() Shape {
	return l.shape
}

// SetPhase sets the phase (wrapped to 0-1)
func (l *LFO) SetPhase(phase float64) {
	l.phase = phase - math.Floor(phase)
}

// Phase returns the current phase in 0-1.
func (l *LFO) Phase() float64 {
	return l.phase
}

// Reset returns the phase to 0.
func (l *LFO) Reset() {
	l.phase = 0
}

// Next returns the bipolar (-1..1) value at the current phase and advances.
func (l *LFO) Next() float32 {
	var v float64
	p := l.phase
	switch l.shape {
	case Triangle:
		if p < 0.5 {
			v = 4*p - 1
		} else {
			v = 3 - 4*p
		}
	case Saw:
		v = 2*p - 1
	case Square:
		if p < 0.5 {
			v = 1
		} else {
			v = -1
		}
	default:
		v = math.Sin(2 * math.Pi * p)
	}

	l.phase += l.phaseInc
	l.phase -= math.Floor(l.phase)
	return float32(v)
}

// NextUnipolar returns Next mapped to 0..1.
func (l *LFO) NextUnipolar() float32 {
	return 0.5 + 0.5*l.Next()
}

// Process fills buffer with bipolar values - no allocations
func (l *LFO) Process(buffer []float32) {
	for i := range buffer {
		buffer[i] = l.Next()
	}
}
