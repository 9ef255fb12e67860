// Package gain provides level conversion and the master output stage.
package gain

import "math"

// MinDB is the level treated as silence.
const MinDB = -200.0

// LinearToDb converts a linear amplitude to decibels.
// Returns MinDB for values <= 0.
func LinearToDb(linear float64) float64 {
	if !(linear > 0) {
		return MinDB
	}
	return 20.0 * math.Log10(linear)
}

// DbToLinear converts decibels to a linear amplitude.
// Values <= MinDB (and NaN) return 0.
func DbToLinear(db float64) float64 {
	if !(db > MinDB) {
		return 0
	}
	return math.Pow(10.0, db/20.0)
}

// SoftClip passes input unchanged up to threshold and bends larger
// magnitudes smoothly towards full scale (1). A threshold of 1 or more
// hard clips at threshold.
func SoftClip(input, threshold float32) float32 {
	if input <= threshold && input >= -threshold {
		return input
	}
	knee := 1 - threshold
	sign := float32(1)
	if input < 0 {
		sign, input = -1, -input
	}
	if knee <= 0 {
		return sign * threshold
	}
	return sign * (threshold + knee*fastTanh32((input-threshold)/knee))
}

// fastTanh32 is a rational tanh approximation, exact at ±3.
func fastTanh32(x float32) float32 {
	if x < -3 {
		return -1
	}
	if x > 3 {
		return 1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

const (
	// dcCutoff is the corner of the output DC blocker, in Hz.
	dcCutoff = 10.0
	// ClipThreshold is the level above which the output is soft clipped.
	// The clipped output never exceeds 1.
	ClipThreshold = 0.9
)

// Output is the master stage of a mono render: gain, DC removal and soft
// clipping, in that order. It belongs to the audio goroutine.
type Output struct {
	gain float32
	r    float32
	x1   float32
	y1   float32
}

// NewOutput creates a unity-gain output stage.
func NewOutput(sampleRate float64) *Output {
	o := &Output{gain: 1}
	o.SetSampleRate(sampleRate)
	return o
}

// SetSampleRate recomputes the DC blocker coefficient.
func (o *Output) SetSampleRate(sampleRate float64) {
	// y[n] = x[n] - x[n-1] + R*y[n-1], R = 1 - 2*pi*fc/fs
	r := 0.999
	if sampleRate > 0 {
		r = 1 - 2*math.Pi*dcCutoff/sampleRate
	}
	o.r = float32(min(max(r, 0.9), 0.9999))
}

// SetGainDb sets the output gain.
func (o *Output) SetGainDb(db float64) {
	o.gain = float32(DbToLinear(db))
}

// GainDb returns the output gain in dB.
func (o *Output) GainDb() float64 {
	return LinearToDb(float64(o.gain))
}

// Process applies the stage to buffer in place - no allocations
func (o *Output) Process(buffer []float32) {
	for i, x := range buffer {
		x *= o.gain
		y := x - o.x1 + o.r*o.y1
		o.x1, o.y1 = x, y
		buffer[i] = SoftClip(y, ClipThreshold)
	}
}

// Reset clears the filter state.
func (o *Output) Reset() {
	o.x1, o.y1 = 0, 0
}
