package param

import (
	"math"
)

// SmoothingType defines different parameter smoothing algorithms.
type SmoothingType int

const (
	// LinearSmoothing reaches the target in rate samples.
	LinearSmoothing SmoothingType = iota
	// ExponentialSmoothing is a one-pole filter with coefficient rate.
	ExponentialSmoothing
)

// Smoother glides a control value towards its target to avoid zipper
// noise. It belongs to the audio goroutine.
type Smoother struct {
	smoothingType SmoothingType
	current       float64
	target        float64
	rate          float64
	threshold     float64
	isSmoothing   bool

	// For linear smoothing
	step float64
}

// NewSmoother creates a new parameter smoother.
// rate: smoothing rate (0.9-0.999 for exponential, samples for linear)
func NewSmoother(smoothingType SmoothingType, rate float64) *Smoother {
	return &Smoother{
		smoothingType: smoothingType,
		rate:          rate,
		threshold:     0.0001,
	}
}

// SetTarget sets the target value for smoothing.
func (s *Smoother) SetTarget(target float64) {
	if math.Abs(target-s.target) < s.threshold {
		return
	}

	s.target = target
	s.isSmoothing = true

	if s.smoothingType == LinearSmoothing {
		if s.rate >= 1 {
			s.step = (target - s.current) / s.rate
		} else {
			s.step = target - s.current
		}
	}
}

// Next returns the next smoothed value.
func (s *Smoother) Next() float64 {
	if !s.isSmoothing {
		return s.current
	}

	switch s.smoothingType {
	case ExponentialSmoothing:
		// One-pole filter: y = y + a * (x - y)
		s.current += (s.target - s.current) * (1.0 - s.rate)
		if math.Abs(s.current-s.target) < s.threshold {
			s.current = s.target
			s.isSmoothing = false
		}

	case LinearSmoothing:
		s.current += s.step
		if s.step == 0 || (s.step > 0 && s.current >= s.target) || (s.step < 0 && s.current <= s.target) {
			s.current = s.target
			s.isSmoothing = false
		}
	}

	return s.current
}

// Process processes a buffer with the smoothed parameter.
// The callback receives the current smoothed value for each sample.
func (s *Smoother) Process(buffer []float32, callback func(value float64, sample float32) float32) {
	for i := range buffer {
		value := s.Next()
		buffer[i] = callback(value, buffer[i])
	}
}

// IsSmoothing returns true if the smoother is currently smoothing.
func (s *Smoother) IsSmoothing() bool {
	return s.isSmoothing
}

// Reset resets the smoother to a specific value.
func (s *Smoother) Reset(value float64) {
	s.current = value
	s.target = value
	s.isSmoothing = false
}

// SetRate updates the smoothing rate.
func (s *Smoother) SetRate(rate float64) {
	s.rate = rate
}

// SetThreshold sets the threshold for considering smoothing complete.
func (s *Smoother) SetThreshold(threshold float64) {
	s.threshold = threshold
}

// SmoothedParameter follows a Parameter's plain value through a Smoother.
// Call GetSmoothedValue once per sample on the audio goroutine; it picks
// up changes written to the Parameter from any goroutine.
type SmoothedParameter struct {
	*Parameter
	smoother *Smoother
	enabled  bool
}

// NewSmoothedParameter creates a parameter with built-in smoothing.
func NewSmoothedParameter(param *Parameter, smoothingType SmoothingType, rate float64) *SmoothedParameter {
	sp := &SmoothedParameter{
		Parameter: param,
		smoother:  NewSmoother(smoothingType, rate),
		enabled:   true,
	}
	sp.smoother.Reset(param.GetPlainValue())
	return sp
}

// GetSmoothedValue advances the smoother one sample and returns it.
func (sp *SmoothedParameter) GetSmoothedValue() float64 {
	plain := sp.GetPlainValue()
	if !sp.enabled {
		return plain
	}
	sp.smoother.SetTarget(plain)
	return sp.smoother.Next()
}

// SetSmoothing enables or disables smoothing.
func (sp *SmoothedParameter) SetSmoothing(enabled bool) {
	sp.enabled = enabled
	if !enabled {
		sp.smoother.Reset(sp.GetPlainValue())
	}
}

// Snap jumps the smoother to the current value.
func (sp *SmoothedParameter) Snap() {
	sp.smoother.Reset(sp.GetPlainValue())
}

// UpdateSampleRate sets the rate so a change settles in about
// targetTimeMs at sampleRate.
func (sp *SmoothedParameter) UpdateSampleRate(sampleRate float64, targetTimeMs float64) {
	switch sp.smoother.smoothingType {
	case LinearSmoothing:
		sp.smoother.SetRate(sampleRate * targetTimeMs / 1000.0)
	case ExponentialSmoothing:
		// -60dB in targetTimeMs
		sp.smoother.SetRate(math.Exp(-6.908 / (sampleRate * targetTimeMs / 1000.0)))
	}
}
