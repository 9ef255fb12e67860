package wavetable

import "errors"

var (
	// ErrTooManySlots is returned when a cycle would need more than MaxSlots tables.
	ErrTooManySlots = errors.New("wavetable: too many slots")

	// ErrDegenerateCycle is returned for a cycle with no usable content:
	// silent, pure DC, or no harmonic above the noise floor.
	ErrDegenerateCycle = errors.New("wavetable: degenerate cycle")

	// ErrNoUsableCycles is reported when every cycle of a load was dropped
	// and the sawtooth fallback was installed instead.
	ErrNoUsableCycles = errors.New("wavetable: no usable cycles")

	// ErrUnsupportedFrameLength is reported when a load requests a cycle
	// length outside SupportedCycleLengths.
	ErrUnsupportedFrameLength = errors.New("wavetable: unsupported cycle length")

	// ErrEmptyBuffer is returned when a load receives no samples.
	ErrEmptyBuffer = errors.New("wavetable: empty buffer")
)
