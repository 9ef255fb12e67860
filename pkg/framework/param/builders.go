package param

import (
	"fmt"
	"strings"
)

// ChoiceOption represents a single choice in a list parameter
type ChoiceOption struct {
	Value   float64
	Name    string
	Aliases []string
}

// Choice creates a parameter builder for a multiple choice parameter.
// Option values must ascend; the first option is the default.
func Choice(id uint32, name string, options []ChoiceOption) *Builder {
	names := make([]string, len(options))
	for i, opt := range options {
		names[i] = opt.Name
	}

	formatter := func(value float64) string {
		for _, opt := range options {
			if opt.Value == value {
				return opt.Name
			}
		}
		// Fallback to index-based lookup for integer values
		index := int(value)
		if index >= 0 && index < len(names) {
			return names[index]
		}
		return "Unknown"
	}

	parser := func(str string) (float64, error) {
		str = strings.TrimSpace(str)
		for _, opt := range options {
			if strings.EqualFold(str, opt.Name) {
				return opt.Value, nil
			}
			for _, alias := range opt.Aliases {
				if strings.EqualFold(str, alias) {
					return opt.Value, nil
				}
			}
		}
		return 0, fmt.Errorf("unknown option: %s", str)
	}

	b := New(id, name).
		Steps(int32(max(len(options)-1, 1))).
		Formatter(formatter, parser)
	b.param.Flags |= IsList
	if len(options) > 0 {
		b.Range(options[0].Value, options[len(options)-1].Value).Default(options[0].Value)
	}
	return b
}

// ChoiceNames is Choice over names valued 0, 1, 2, ...
func ChoiceNames(id uint32, name string, names []string) *Builder {
	options := make([]ChoiceOption, len(names))
	for i, n := range names {
		options[i] = ChoiceOption{Value: float64(i), Name: n}
	}
	return Choice(id, name, options)
}

// PercentParameter creates a 0-100% control.
func PercentParameter(id uint32, name string, defaultPercent float64) *Builder {
	return New(id, name).
		Range(0, 100).
		Default(defaultPercent).
		Unit("%").
		Formatter(PercentFormatter, PercentParser)
}

// VoltageParameter creates a control in volts.
func VoltageParameter(id uint32, name string, minV, maxV, defaultV float64) *Builder {
	return New(id, name).
		Range(minV, maxV).
		Default(defaultV).
		Unit("V").
		Formatter(VoltageFormatter, VoltageParser)
}

// OctaveParameter creates a pitch offset in octaves (1 V/oct).
func OctaveParameter(id uint32, name string, minOct, maxOct, defaultOct float64) *Builder {
	return New(id, name).
		Range(minOct, maxOct).
		Default(defaultOct).
		Unit("oct").
		Formatter(OctaveFormatter, OctaveParser)
}

// IntegerParameter creates a whole-number control over min..max.
func IntegerParameter(id uint32, name string, min, max, defaultVal int) *Builder {
	return New(id, name).
		Range(float64(min), float64(max)).
		Default(float64(defaultVal)).
		Steps(int32(max - min))
}

// ToggleParameter creates an on/off control.
func ToggleParameter(id uint32, name string, on bool) *Builder {
	b := New(id, name).Toggle()
	if on {
		b.Default(1)
	}
	return b
}
