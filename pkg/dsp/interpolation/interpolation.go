// Package interpolation provides the sample interpolation used by the
// wavetable oscillators.
package interpolation

// Linear performs linear interpolation between two samples.
// frac is the fractional position between y0 and y1 (0.0 to 1.0).
func Linear(y0, y1, frac float32) float32 {
	return y0 + (y1-y0)*frac
}

// ResampleCycle stretches one periodic cycle onto len(output) samples using
// linear interpolation. The last input sample interpolates towards the first,
// so the result stays continuous across the cycle boundary.
func ResampleCycle(input []float32, output []float32) {
	n := len(input)
	if n == 0 {
		for i := range output {
			output[i] = 0
		}
		return
	}

	step := float64(n) / float64(len(output))
	for i := range output {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= n {
			idx = n - 1
		}
		next := idx + 1
		if next == n {
			next = 0
		}
		output[i] = Linear(input[idx], input[next], float32(pos-float64(idx)))
	}
}
