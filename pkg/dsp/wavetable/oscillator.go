package wavetable

import (
	"fmt"
	"math"
	"sync"

	"github.com/iggylabs/tablesynth/pkg/dsp/analysis"
	"github.com/iggylabs/tablesynth/pkg/dsp/interpolation"
)

// Oscillator plays one cycle from a set of band-limited tables ordered by
// ascending TopFreq. It holds no phase; callers own their accumulators, so
// one Oscillator can serve any number of channels. It must not be modified
// after it has been published to the audio goroutine.
type Oscillator struct {
	slots []Slot
}

// NewOscillator creates an oscillator from slots produced by BuildTables.
// The slots are used as-is, not copied.
func NewOscillator(slots []Slot) (*Oscillator, error) {
	if len(slots) > MaxSlots {
		return nil, fmt.Errorf("%w: %d", ErrTooManySlots, len(slots))
	}
	for i, s := range slots {
		if len(s.Samples) != s.Len+1 || s.Len < 1 {
			return nil, fmt.Errorf("wavetable: slot %d has %d samples for length %d", i, len(s.Samples), s.Len)
		}
		if i > 0 && s.TopFreq < slots[i-1].TopFreq {
			return nil, fmt.Errorf("wavetable: slot %d TopFreq %g below previous %g", i, s.TopFreq, slots[i-1].TopFreq)
		}
	}
	return &Oscillator{slots: slots}, nil
}

// NewOscillatorFromCycle analyses one cycle and builds its band tables.
// The cycle length must be a power of two.
func NewOscillatorFromCycle(cycle []float32) (*Oscillator, error) {
	re := make([]float64, len(cycle))
	im := make([]float64, len(cycle))
	for i, s := range cycle {
		re[i] = float64(s)
	}
	if err := analysis.TransformChecked(re, im); err != nil {
		return nil, err
	}

	slots, err := BuildTables(re, im)
	if err != nil {
		return nil, err
	}
	return NewOscillator(slots)
}

// sawLength is the table length of the built-in sawtooth.
const sawLength = 2048

// NewSawOscillator builds a rising sawtooth from its analytic spectrum
// (harmonic k at amplitude 1/k), band limited like any loaded cycle.
func NewSawOscillator() *Oscillator {
	re := make([]float64, sawLength)
	im := make([]float64, sawLength)
	for k := 1; k < sawLength/2; k++ {
		im[k] = 1 / float64(k)
		im[sawLength-k] = -1 / float64(k)
	}

	slots, err := BuildTables(re, im)
	if err != nil {
		panic("wavetable: sawtooth spectrum rejected: " + err.Error())
	}
	return &Oscillator{slots: slots}
}

// defaultSaw is shared by every voice that needs the fallback bank.
var defaultSaw = sync.OnceValue(NewSawOscillator)

// AddSlot appends a copy of samples as a table serving normalized
// frequencies below topFreq, adding the wraparound sample.
func (o *Oscillator) AddSlot(samples []float32, topFreq float64) error {
	if len(o.slots) >= MaxSlots {
		return ErrTooManySlots
	}
	if len(samples) == 0 {
		return fmt.Errorf("%w: empty table", ErrDegenerateCycle)
	}

	n := len(samples)
	table := make([]float32, n+1)
	copy(table, samples)
	table[n] = table[0]

	o.slots = append(o.slots, Slot{TopFreq: topFreq, Len: n, Samples: table})
	return nil
}

// NumSlots returns the number of band tables.
func (o *Oscillator) NumSlots() int {
	return len(o.slots)
}

// Slot returns band table i.
func (o *Oscillator) Slot(i int) Slot {
	return o.slots[i]
}

// slotFor returns the first slot whose TopFreq is above normalized, or
// the last slot. A frequency exactly equal to TopFreq moves to the next
// band.
func (o *Oscillator) slotFor(normalized float64) *Slot {
	i := 0
	for i < len(o.slots)-1 && normalized >= o.slots[i].TopFreq {
		i++
	}
	return &o.slots[i]
}

// Sample returns the value at phase (cycles, wrapped into [0, 1)) from the
// table that serves frequencyHz at sampleRateHz. It returns 0 when the
// oscillator is empty or an argument is not usable.
func (o *Oscillator) Sample(phase, frequencyHz, sampleRateHz float64) float32 {
	if len(o.slots) == 0 || !(sampleRateHz > 0) {
		return 0
	}
	if math.IsNaN(phase) || math.IsInf(phase, 0) || math.IsNaN(frequencyHz) || math.IsInf(frequencyHz, 0) {
		return 0
	}

	slot := o.slotFor(math.Abs(frequencyHz) / sampleRateHz)

	phase -= math.Floor(phase)
	pos := phase * float64(slot.Len)
	idx := int(pos)
	if idx >= slot.Len {
		idx = slot.Len - 1
	}
	frac := float32(pos - float64(idx))

	return interpolation.Linear(slot.Samples[idx], slot.Samples[idx+1], frac)
}
