package param

import (
	"fmt"
	"strconv"
	"strings"
)

// PercentFormatter formats percentage values
func PercentFormatter(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}

// PercentParser parses percentage strings
func PercentParser(str string) (float64, error) {
	str = strings.TrimSuffix(strings.TrimSpace(str), "%")
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// VoltageFormatter formats volts with two decimals.
func VoltageFormatter(v float64) string {
	return fmt.Sprintf("%.2f V", v)
}

// VoltageParser parses "1.5 V", "1.5V" or "1.5".
func VoltageParser(str string) (float64, error) {
	str = strings.TrimSpace(str)
	str = strings.TrimSuffix(strings.TrimSuffix(str, "V"), "v")
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// OctaveFormatter formats a signed octave offset.
func OctaveFormatter(oct float64) string {
	return fmt.Sprintf("%+.2f oct", oct)
}

// OctaveParser parses "+1 oct", "-0.5" and "12 st" (semitones).
func OctaveParser(str string) (float64, error) {
	str = strings.TrimSpace(str)
	if s, ok := strings.CutSuffix(str, "st"); ok {
		semis, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, err
		}
		return semis / 12, nil
	}
	str = strings.TrimSuffix(str, "oct")
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// OnOffFormatter formats boolean as On/Off
func OnOffFormatter(value float64) string {
	if value > 0.5 {
		return "On"
	}
	return "Off"
}

// OnOffParser parses On/Off strings
func OnOffParser(str string) (float64, error) {
	str = strings.ToLower(strings.TrimSpace(str))
	switch str {
	case "on", "yes", "true", "1":
		return 1, nil
	case "off", "no", "false", "0":
		return 0, nil
	default:
		return 0, fmt.Errorf("expected 'on' or 'off', got: %s", str)
	}
}
