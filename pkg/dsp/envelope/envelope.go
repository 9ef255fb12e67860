// Package envelope provides the per-channel amplitude envelope of the patch.
package envelope

import "math"

// Stage represents the current envelope stage
type Stage int

const (
	StageIdle Stage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

const (
	// minTime is the shortest attack, decay or release, in seconds.
	minTime = 0.001
	// settle is the distance from a target at which a stage ends.
	settle = 0.001
)

// Settings holds envelope times in seconds and the sustain level (0-1).
type Settings struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// DefaultSettings is a short pluck suited to sequenced notes.
var DefaultSettings = Settings{
	Attack:  0.005,
	Decay:   0.15,
	Sustain: 0.6,
	Release: 0.2,
}

func clampTime(seconds float64) float64 {
	if !(seconds > minTime) {
		return minTime
	}
	return seconds
}

func (s Settings) clamped() Settings {
	sustain := s.Sustain
	if !(sustain > 0) {
		sustain = 0
	}
	return Settings{
		Attack:  clampTime(s.Attack),
		Decay:   clampTime(s.Decay),
		Sustain: math.Min(1, sustain),
		Release: clampTime(s.Release),
	}
}

// ADSR implements an Attack-Decay-Sustain-Release envelope generator with
// exponential segments. Retriggering starts the attack from the current
// level so a stolen channel does not click.
type ADSR struct {
	sampleRate float64
	settings   Settings

	attackCoef  float64
	decayCoef   float64
	releaseCoef float64

	stage Stage
	value float64
	peak  float64
}

// New creates an envelope with DefaultSettings.
func New(sampleRate float64) *ADSR {
	env := &ADSR{
		sampleRate: sampleRate,
		settings:   DefaultSettings,
		peak:       1,
	}
	env.updateCoefficients()
	return env
}

// SetSampleRate recalculates the coefficients for a new rate.
func (e *ADSR) SetSampleRate(sampleRate float64) {
	e.sampleRate = sampleRate
	e.updateCoefficients()
}

// SetAttack sets the attack time in seconds
func (e *ADSR) SetAttack(seconds float64) {
	e.settings.Attack = seconds
	e.updateCoefficients()
}

// SetDecay sets the decay time in seconds
func (e *ADSR) SetDecay(seconds float64) {
	e.settings.Decay = seconds
	e.updateCoefficients()
}

// SetSustain sets the sustain level (0-1)
func (e *ADSR) SetSustain(level float64) {
	e.settings.Sustain = level
	e.settings = e.settings.clamped()
}

// SetRelease sets the release time in seconds
func (e *ADSR) SetRelease(seconds float64) {
	e.settings.Release = seconds
	e.updateCoefficients()
}

// SetADSR sets all parameters at once
func (e *ADSR) SetADSR(s Settings) {
	e.settings = s
	e.updateCoefficients()
}

func (e *ADSR) Settings() Settings {
	return e.settings
}

func (e *ADSR) updateCoefficients() {
	e.settings = e.settings.clamped()
	e.attackCoef = calcCoef(e.settings.Attack, e.sampleRate)
	e.decayCoef = calcCoef(e.settings.Decay, e.sampleRate)
	e.releaseCoef = calcCoef(e.settings.Release, e.sampleRate)
}

// calcCoef returns exp(-1 / (time * sampleRate)), or 0 for an unusable
// time or rate, which makes every segment jump to its target.
func calcCoef(timeSeconds, sampleRate float64) float64 {
	if !(timeSeconds > 0) || !(sampleRate > 0) {
		return 0.0
	}
	return math.Exp(-1.0 / (timeSeconds * sampleRate))
}

// Trigger starts the attack towards full scale.
func (e *ADSR) Trigger() {
	e.TriggerLevel(1)
}

// TriggerLevel starts the attack towards peak (0-1), typically a note
// velocity.
func (e *ADSR) TriggerLevel(peak float64) {
	e.peak = math.Max(0, math.Min(1, peak))
	e.stage = StageAttack
}

// Release starts the release stage (note off)
func (e *ADSR) Release() {
	if e.stage != StageIdle {
		e.stage = StageRelease
	}
}

// Reset immediately returns the envelope to idle
func (e *ADSR) Reset() {
	e.stage = StageIdle
	e.value = 0.0
}

// IsActive returns true if the envelope is generating output
func (e *ADSR) IsActive() bool {
	return e.stage != StageIdle
}

// GetStage returns the current envelope stage
func (e *ADSR) GetStage() Stage {
	return e.stage
}

// Value returns the last generated level.
func (e *ADSR) Value() float64 {
	return e.value
}

// Next generates the next envelope value
func (e *ADSR) Next() float32 {
	sustain := e.settings.Sustain * e.peak

	switch e.stage {
	case StageAttack:
		// Overshoot the peak so the exponential reaches it in finite time.
		target := e.peak * (1 + 2*settle)
		e.value = target + (e.value-target)*e.attackCoef
		if e.value >= e.peak-settle {
			e.value = e.peak
			e.stage = StageDecay
		}

	case StageDecay:
		e.value = sustain + (e.value-sustain)*e.decayCoef
		if e.value <= sustain+settle {
			e.value = sustain
			e.stage = StageSustain
		}

	case StageSustain:
		e.value = sustain

	case StageRelease:
		e.value *= e.releaseCoef
		if e.value <= settle {
			e.value = 0.0
			e.stage = StageIdle
		}

	case StageIdle:
		e.value = 0.0
	}

	return float32(e.value)
}

// Process fills buffer with envelope values - no allocations
func (e *ADSR) Process(buffer []float32) {
	for i := range buffer {
		buffer[i] = e.Next()
	}
}

// ProcessMultiply multiplies buffer by envelope - no allocations
func (e *ADSR) ProcessMultiply(buffer []float32) {
	for i := range buffer {
		buffer[i] *= e.Next()
	}
}
