package instrument

import (
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/iggylabs/tablesynth/pkg/framework/debug"
	"github.com/iggylabs/tablesynth/pkg/framework/param"
	"github.com/iggylabs/tablesynth/pkg/framework/state"
	"github.com/iggylabs/tablesynth/pkg/sequencer"
)

// Sequencer module parameter IDs.
const (
	SeqRule uint32 = iota + 101
	SeqSeed
	SeqLow
	SeqHigh
	SeqScale
	SeqSelect
	SeqClockMode
	SeqQuantize
	SeqCVRange
)

// GateVoltage is the level of a gate output that is on.
const GateVoltage = 10

// cvInputSpan is the voltage span (either side of 0 V) of the range,
// scale and select inputs, mapped onto each control's full range.
const cvInputSpan = 10

// SequencerInputs are the sequencer's patch points.
type SequencerInputs struct {
	Clock  Port
	Reset  Port
	Rule   Port
	Seed   Port
	Low    Port
	High   Port
	Scale  Port
	Select Port
}

// Sequencer is the cellular-automaton sequencer module. Each clock edge
// advances the automaton one generation. Process and the ports belong to
// the audio goroutine; Grid may be read from any goroutine once GridDirty
// has reported a change.
type Sequencer struct {
	params    *param.Registry
	rule      *param.Parameter
	seed      *param.Parameter
	low       *param.Parameter
	high      *param.Parameter
	scale     *param.Parameter
	sel       *param.Parameter
	clockMode *param.Parameter
	quantize  *param.Parameter
	cvRange   *param.Parameter
	state     *state.Manager
	logger    *debug.Logger

	model       *sequencer.Model
	clock       sequencer.SchmittTrigger
	resetButton sequencer.BooleanTrigger
	resetInput  sequencer.SchmittTrigger
	resetPress  atomic.Bool
	loopCounter int
	updated     bool

	grid      atomic.Pointer[sequencer.Grid]
	gridDirty atomic.Bool

	Inputs SequencerInputs

	// Outputs, in volts.
	Gates    [8]float32
	ClockOut float32
	CV       float32
}

// NewSequencer creates a sequencer with rule 90, seed 30 and the
// chromatic scale.
func NewSequencer() *Sequencer {
	s := &Sequencer{
		params: param.NewRegistry(),
		model:  sequencer.NewModel(),
		logger: debug.Default().With("module", "sequencer"),
	}

	s.rule = param.IntegerParameter(SeqRule, "Rule", 0, 255, sequencer.DefaultRule).Build()
	s.seed = param.IntegerParameter(SeqSeed, "Seed", 0, 255, sequencer.DefaultSeed).Build()
	s.low = param.IntegerParameter(SeqLow, "Low", 0, sequencer.ScaleLength-1, sequencer.DefaultLow).Build()
	s.high = param.IntegerParameter(SeqHigh, "High", 0, sequencer.ScaleLength-1, sequencer.DefaultHigh).Build()
	s.scale = param.ChoiceNames(SeqScale, "Scale", sequencer.ScaleNames()).Build()
	s.sel = param.IntegerParameter(SeqSelect, "Select", 0, 7, 0).Build()
	s.clockMode = param.ToggleParameter(SeqClockMode, "Clock output mode", false).ShortName("Always").Build()
	s.quantize = param.ToggleParameter(SeqQuantize, "Quantize output", true).Build()

	ranges := make([]string, sequencer.NumCVRanges)
	for i := range ranges {
		ranges[i] = sequencer.CVRange(i).String()
	}
	s.cvRange = param.ChoiceNames(SeqCVRange, "Raw CV range", ranges).Build()

	if err := s.params.Add(s.rule, s.seed, s.low, s.high, s.scale, s.sel,
		s.clockMode, s.quantize, s.cvRange); err != nil {
		panic(err)
	}

	s.grid.Store(sequencer.NewGrid(s.model.Rule(), s.model.Seed()))
	s.gridDirty.Store(true)
	s.state = state.NewManager(s.params)
	return s
}

// Params returns the module's parameters.
func (s *Sequencer) Params() *param.Registry {
	return s.params
}

// SetLogger replaces the module's logger.
func (s *Sequencer) SetLogger(l *debug.Logger) {
	s.logger = l.With("module", "sequencer")
}

// Model returns the automaton state. Only touch it from the goroutine
// calling Process.
func (s *Sequencer) Model() *sequencer.Model {
	return s.model
}

// Grid returns the current space-time picture of the automaton.
func (s *Sequencer) Grid() *sequencer.Grid {
	return s.grid.Load()
}

// GridDirty reports whether the grid changed since the last call.
func (s *Sequencer) GridDirty() bool {
	return s.gridDirty.Swap(false)
}

// PressReset queues a press of the reset button for the next Process.
func (s *Sequencer) PressReset() {
	s.resetPress.Store(true)
}

// Reset returns the automaton to its seed and clears the triggers and
// outputs. Call from the goroutine calling Process.
func (s *Sequencer) Reset() {
	s.model.Reset()
	s.clock.Reset()
	s.resetInput.Reset()
	s.resetButton = sequencer.BooleanTrigger{}
	s.resetPress.Store(false)
	s.loopCounter = 0
	s.updated = false
	s.Gates = [8]float32{}
	s.ClockOut = 0
	s.CV = 0
}

// Process runs one sample and reports whether a clock edge fired.
func (s *Sequencer) Process() bool {
	if s.loopCounter == 0 {
		s.loopCounter = controlInterval
		s.updateControls()
	}
	s.loopCounter--
	s.updated = false

	triggered := s.clock.Process(s.Inputs.Clock.Voltage)
	if triggered {
		s.onTrigger()
	}

	pressed := s.resetPress.Swap(false)
	if s.resetButton.Process(pressed) || s.resetInput.Process(s.Inputs.Reset.Voltage) {
		s.model.Reset()
	}

	high := s.clock.IsHigh()
	for i := range s.Gates {
		s.Gates[i] = gate(high && s.model.BitOn(i))
	}
	s.ClockOut = gate(high && s.model.SelectedBitOn())
	return triggered
}

// Updated reports whether the last Process changed the CV output.
func (s *Sequencer) Updated() bool {
	return s.updated
}

func gate(on bool) float32 {
	if on {
		return GateVoltage
	}
	return 0
}

// onTrigger advances the automaton and updates the CV output when the
// clock mode is "always" or the selected bit of the new state is on.
func (s *Sequencer) onTrigger() {
	prior := s.model.State()
	note := s.model.OnTrigger()

	if !s.clockMode.Bool() && !s.model.SelectedBitOn() {
		return
	}
	s.updated = true
	if s.quantize.Bool() {
		s.CV = sequencer.NoteToCV(note)
	} else {
		s.CV = sequencer.CVRange(s.cvRange.Int()).StateToCV(prior)
	}
}

// control returns the parameter's plain value plus the input, mapped from
// ±cvInputSpan volts onto the parameter's range, floored and clamped.
func control(p *param.Parameter, in Port) int {
	v := p.GetPlainValue()
	if in.Connected {
		v += float64(sequencer.Rescale(in.Voltage, -cvInputSpan, cvInputSpan, float32(p.Min), float32(p.Max)))
	}
	return int(math.Floor(clampFloat(v, p.Min, p.Max)))
}

// rawControl returns the parameter's plain value plus the input volts,
// floored and clamped. Rule and seed inputs count one step per volt.
func rawControl(p *param.Parameter, in Port) int {
	v := p.GetPlainValue()
	if in.Connected {
		v += float64(in.Voltage)
	}
	return int(math.Floor(clampFloat(v, p.Min, p.Max)))
}

func (s *Sequencer) updateControls() {
	rule := uint8(rawControl(s.rule, s.Inputs.Rule))
	seed := uint8(rawControl(s.seed, s.Inputs.Seed))
	if rule != s.model.Rule() {
		s.model.SetRule(rule)
	}
	if seed != s.model.Seed() {
		s.model.SetSeed(seed)
	}
	if g := s.grid.Load(); g.Rule() != rule || g.Seed() != seed {
		s.grid.Store(sequencer.NewGrid(rule, seed))
		s.gridDirty.Store(true)
	}

	s.model.SetRange(control(s.low, s.Inputs.Low), control(s.high, s.Inputs.High))
	s.model.SetScale(sequencer.Scale(control(s.scale, s.Inputs.Scale)))
	s.model.SetBit(control(s.sel, s.Inputs.Select))
}

// SaveState writes the module's parameters.
func (s *Sequencer) SaveState(w io.Writer) error {
	if err := s.state.Save(w); err != nil {
		return fmt.Errorf("sequencer: saving state: %w", err)
	}
	s.logger.Info("state saved", "rule", s.rule.Int(), "seed", s.seed.Int())
	return nil
}

// LoadState restores the module's parameters. They take effect at the
// next control update.
func (s *Sequencer) LoadState(r io.Reader) error {
	if err := s.state.Load(r); err != nil {
		return fmt.Errorf("sequencer: loading state: %w", err)
	}
	s.logger.Info("state restored", "rule", s.rule.Int(), "seed", s.seed.Int())
	return nil
}
