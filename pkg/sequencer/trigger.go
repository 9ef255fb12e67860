package sequencer

const (
	// TriggerHigh is the voltage at or above which a clock edge fires.
	TriggerHigh = 1.0
	// TriggerLow is the voltage at or below which the trigger re-arms.
	TriggerLow = 0.1
)

// SchmittTrigger detects rising edges of a voltage with hysteresis.
type SchmittTrigger struct {
	high bool
}

// Process feeds one sample and reports whether it produced a rising edge.
func (t *SchmittTrigger) Process(v float32) bool {
	if t.high {
		if v <= TriggerLow {
			t.high = false
		}
		return false
	}
	if v >= TriggerHigh {
		t.high = true
		return true
	}
	return false
}

// IsHigh reports whether the trigger is in its high state.
func (t *SchmittTrigger) IsHigh() bool {
	return t.high
}

// Reset returns the trigger to its low state.
func (t *SchmittTrigger) Reset() {
	t.high = false
}

// BooleanTrigger detects false-to-true transitions, e.g. of a button.
type BooleanTrigger struct {
	state bool
}

// Process reports whether b is true and the previous value was false.
func (t *BooleanTrigger) Process(b bool) bool {
	rising := b && !t.state
	t.state = b
	return rising
}
