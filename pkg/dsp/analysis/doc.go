// Package analysis provides the spectral transform used to build wavetables
// and the measurement helpers used to verify their output.
//
// Transform is an in-place iterative radix-2 FFT over separate real and
// imaginary slices. It never allocates and expects a power-of-two length;
// TransformChecked and InverseTransform validate the length and return
// ErrInvalidLength otherwise.
//
// FFT wraps Transform with a window function and magnitude/phase output for
// inspecting rendered audio:
//
//	fft, err := analysis.NewFFT(4096, analysis.RectangularWindow)
//	if err != nil {
//	    return err
//	}
//	magnitude, _ := fft.Forward(samples)
//	bin := analysis.PeakBin(magnitude)
//	thd := analysis.HarmonicDistortion(magnitude, bin)
package analysis
