package analysis

import "math"

// HarmonicDistortion returns total harmonic distortion as a ratio: the RMS
// sum of the magnitudes at integer multiples of fundamentalBin divided by
// the fundamental's magnitude. Harmonics past the end of the spectrum are
// ignored. Returns +Inf when the fundamental is silent.
func HarmonicDistortion(magnitude []float64, fundamentalBin int) float64 {
	if fundamentalBin <= 0 || fundamentalBin >= len(magnitude) {
		return math.Inf(1)
	}
	fundamental := magnitude[fundamentalBin]
	if fundamental == 0 {
		return math.Inf(1)
	}

	power := 0.0
	for bin := 2 * fundamentalBin; bin < len(magnitude); bin += fundamentalBin {
		power += magnitude[bin] * magnitude[bin]
	}
	return math.Sqrt(power) / fundamental
}
