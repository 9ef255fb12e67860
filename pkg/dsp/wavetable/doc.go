// Package wavetable builds band-limited wavetables from single-cycle
// waveforms and plays them back polyphonically.
//
// A cycle is analysed once with a forward transform; BuildTables then
// produces one table per octave band, each keeping only the harmonics
// that stay below Nyquist for pitches in that band. At audio rate an
// Oscillator picks the table for the current pitch and interpolates
// within it, and a Voice morphs between the oscillators of neighbouring
// cycles.
//
// Basic usage:
//
//	v := wavetable.NewVoice()
//	res := v.Load(samples, 48000, 2048)
//	if !res.OK {
//	    return res.Err
//	}
//
//	// audio goroutine
//	out := v.Process(channel, position, pitch, sampleRate)
//
// Load may run concurrently with Process. The new bank is built off to the
// side and published atomically; Process returns silence while a load is
// in progress and never allocates.
package wavetable
