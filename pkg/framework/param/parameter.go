// Package param holds the control values of the instrument modules. Values
// are written from the control side and read lock-free on the audio
// goroutine.
package param

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"
)

// Parameter is one control. The value is stored normalized (0-1); plain
// values map linearly onto Min..Max.
type Parameter struct {
	ID           uint32
	Name         string
	ShortName    string
	Unit         string
	Min          float64
	Max          float64
	DefaultValue float64
	// StepCount is the number of intervals of a discrete control, so a
	// toggle has 1 and a 17-entry list has 16. Zero means continuous.
	StepCount int32
	Flags     uint32

	// Atomic value for lock-free access in audio thread
	value atomic.Uint64

	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// Flags for parameters
const (
	CanAutomate uint32 = 1 << 0
	IsReadOnly  uint32 = 1 << 1
	IsList      uint32 = 1 << 3
)

// GetValue returns the current normalized value (0-1)
func (p *Parameter) GetValue() float64 {
	return math.Float64frombits(p.value.Load())
}

// SetValue sets the normalized value, clamped to 0-1. NaN counts as 0.
func (p *Parameter) SetValue(value float64) {
	if !(value > 0) {
		value = 0
	} else if value > 1 {
		value = 1
	}
	p.value.Store(math.Float64bits(value))
}

// GetPlainValue converts normalized to plain value
func (p *Parameter) GetPlainValue() float64 {
	return p.Denormalize(p.GetValue())
}

// SetPlainValue converts plain to normalized value
func (p *Parameter) SetPlainValue(plain float64) {
	p.SetValue(p.Normalize(plain))
}

// Int returns the plain value rounded to the nearest integer.
func (p *Parameter) Int() int {
	return int(math.Round(p.GetPlainValue()))
}

// Bool reports whether the normalized value is at least one half.
func (p *Parameter) Bool() bool {
	return p.GetValue() >= 0.5
}

// Reset restores the default value.
func (p *Parameter) Reset() {
	p.SetValue(p.DefaultValue)
}

// SetFormatter sets custom value formatting
func (p *Parameter) SetFormatter(format func(float64) string, parse func(string) (float64, error)) {
	p.formatFunc = format
	p.parseFunc = parse
}

// FormatValue returns formatted parameter value
func (p *Parameter) FormatValue(normalized float64) string {
	plain := p.Denormalize(normalized)

	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}

	// Default formatting
	if p.StepCount > 0 {
		return fmt.Sprintf("%.0f", plain)
	}
	return fmt.Sprintf("%.2f", plain)
}

// String formats the current value with the unit, if any.
func (p *Parameter) String() string {
	s := p.FormatValue(p.GetValue())
	if p.formatFunc == nil && p.Unit != "" {
		s += " " + p.Unit
	}
	return s
}

// ParseValue parses string to normalized value
func (p *Parameter) ParseValue(str string) (float64, error) {
	parse := p.parseFunc
	if parse == nil {
		parse = parseFloat
	}
	plain, err := parse(str)
	if err != nil {
		return 0, fmt.Errorf("param %q: %w", p.Name, err)
	}
	return p.Normalize(plain), nil
}

// Normalize converts plain value to normalized (0-1)
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min || !(plain > p.Min) {
		return 0
	}
	normalized := (plain - p.Min) / (p.Max - p.Min)
	if normalized > 1 {
		return 1
	}
	return normalized
}

// Denormalize converts normalized (0-1) to plain value, snapped to the
// step grid of a discrete parameter.
func (p *Parameter) Denormalize(normalized float64) float64 {
	if p.StepCount > 0 {
		steps := float64(p.StepCount)
		return p.Min + math.Round(normalized*steps)*(p.Max-p.Min)/steps
	}
	return p.Min + normalized*(p.Max-p.Min)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
