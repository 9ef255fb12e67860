package sequencer

import "math"

const (
	// BaseNote is the MIDI note at scale offset 0 without transposition.
	BaseNote = 60

	DefaultRule = 90
	DefaultSeed = 30
	DefaultLow  = 0
	DefaultHigh = 14
)

// Model is the sequencer state machine. It is owned by the goroutine that
// delivers clock edges and is not safe for concurrent use.
type Model struct {
	seed          uint8
	rule          uint8
	generation    uint8
	hasGeneration bool

	low, high int
	scale     Scale
	bit       int
	octave    int
	semitone  int

	note int
}

// NewModel returns a model with the default rule, seed and range.
func NewModel() *Model {
	m := &Model{
		seed: DefaultSeed,
		rule: DefaultRule,
		low:  DefaultLow,
		high: DefaultHigh,
	}
	m.note = m.noteFor(m.seed)
	return m
}

// OnTrigger advances the automaton by one generation and returns the note
// for the state it advanced from. The first trigger after a seed change
// evolves the seed itself.
func (m *Model) OnTrigger() int {
	prior := m.State()
	m.generation = Step(prior, m.rule)
	m.hasGeneration = true
	m.note = m.noteFor(prior)
	return m.note
}

// noteFor maps state 0..255 linearly onto note indices low..high of the
// current scale.
func (m *Model) noteFor(state uint8) int {
	v := float64(state) + 1
	index := m.low + int(math.Floor((v-1)/255*float64(m.high-m.low)))
	return BaseNote + 12*m.octave + m.semitone + m.scale.Offset(index)
}

// Note returns the note computed by the last trigger.
func (m *Model) Note() int {
	return m.note
}

// State returns the active state: the generation once one exists, the
// seed otherwise.
func (m *Model) State() uint8 {
	if m.hasGeneration {
		return m.generation
	}
	return m.seed
}

// Generation returns the current generation and whether one exists.
func (m *Model) Generation() (uint8, bool) {
	return m.generation, m.hasGeneration
}

// BitOn reports whether bit i (0..7) of the active state is set.
func (m *Model) BitOn(i int) bool {
	if i < 0 || i > 7 {
		return false
	}
	return m.State()>>i&1 == 1
}

// SelectedBitOn reports whether the selected bit of the active state is set.
func (m *Model) SelectedBitOn() bool {
	return m.BitOn(m.bit)
}

// Seed returns the seed.
func (m *Model) Seed() uint8 { return m.seed }

// SetSeed sets the seed and discards the current generation, so the next
// trigger evolves from the new seed.
func (m *Model) SetSeed(seed uint8) {
	m.seed = seed
	m.hasGeneration = false
	m.generation = 0
}

// Rule returns the rule.
func (m *Model) Rule() uint8 { return m.rule }

// SetRule sets the rule used by the next trigger. The current generation
// is kept.
func (m *Model) SetRule(rule uint8) {
	m.rule = rule
}

// Range returns the note index range.
func (m *Model) Range() (low, high int) { return m.low, m.high }

// SetRange sets the note index range; both ends are clamped to
// 0..ScaleLength-1. low may exceed high, which inverts the mapping.
func (m *Model) SetRange(low, high int) {
	m.low = min(max(low, 0), ScaleLength-1)
	m.high = min(max(high, 0), ScaleLength-1)
}

// Scale returns the selected scale.
func (m *Model) Scale() Scale { return m.scale }

// SetScale selects a scale, clamped to the valid range.
func (m *Model) SetScale(s Scale) {
	m.scale = min(max(s, 0), NumScales-1)
}

// Bit returns the selected output bit.
func (m *Model) Bit() int { return m.bit }

// SetBit selects the bit (clamped to 0..7) that drives the clock output.
func (m *Model) SetBit(bit int) {
	m.bit = min(max(bit, 0), 7)
}

// Transpose returns the octave and semitone transposition.
func (m *Model) Transpose() (octave, semitone int) { return m.octave, m.semitone }

// SetTranspose shifts every note by octave*12+semitone.
func (m *Model) SetTranspose(octave, semitone int) {
	m.octave = octave
	m.semitone = semitone
}

// Reset discards the generation so the next trigger starts from the seed.
func (m *Model) Reset() {
	m.hasGeneration = false
	m.generation = 0
}
