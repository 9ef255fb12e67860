package instrument

import (
	"fmt"
	"io"
	"math"

	"github.com/iggylabs/tablesynth/pkg/dsp/envelope"
	"github.com/iggylabs/tablesynth/pkg/dsp/gain"
	"github.com/iggylabs/tablesynth/pkg/dsp/lfo"
	"github.com/iggylabs/tablesynth/pkg/dsp/wavetable"
	"github.com/iggylabs/tablesynth/pkg/framework/debug"
	"github.com/iggylabs/tablesynth/pkg/framework/param"
	"github.com/iggylabs/tablesynth/pkg/framework/state"
	"github.com/iggylabs/tablesynth/pkg/framework/voice"
	"github.com/iggylabs/tablesynth/pkg/midi"
)

// StepsPerBeat is the number of sequencer clock ticks per beat.
const StepsPerBeat = 4

// PatchConfig configures a Patch.
type PatchConfig struct {
	SampleRate float64
	// BPM is the clock tempo; each beat is StepsPerBeat clock ticks.
	BPM float64
	// Voices is the number of wavetable channels notes are spread over.
	Voices   int
	Mode     voice.AllocationMode
	Velocity uint8
	Envelope envelope.Settings
	// GainDb is the master gain applied before DC removal and soft
	// clipping.
	GainDb float64

	// LFORate and LFODepth modulate the table position. A depth of 1
	// sweeps the whole table.
	LFORate  float64
	LFODepth float64
	LFOShape lfo.Shape
}

// DefaultPatchConfig returns a config rendering 48 kHz at 120 BPM with
// four voices and no position modulation.
func DefaultPatchConfig() PatchConfig {
	return PatchConfig{
		SampleRate: 48000,
		BPM:        120,
		Voices:     4,
		Velocity:   100,
		Envelope:   envelope.DefaultSettings,
		GainDb:     -6,
		LFORate:    0.25,
	}
}

func (c PatchConfig) validated() PatchConfig {
	d := DefaultPatchConfig()
	if !(c.SampleRate > 0) {
		c.SampleRate = d.SampleRate
	}
	if !(c.BPM > 0) {
		c.BPM = d.BPM
	}
	c.BPM = min(c.BPM, 999)
	c.Voices = min(max(c.Voices, 1), wavetable.MaxChannels)
	if c.Mode < voice.ModePoly || c.Mode > voice.ModeLegato {
		c.Mode = voice.ModePoly
	}
	if c.Velocity == 0 {
		c.Velocity = d.Velocity
	}
	c.Velocity = min(c.Velocity, 127)
	if math.IsNaN(c.GainDb) {
		c.GainDb = d.GainDb
	}
	c.LFODepth = clampFloat(c.LFODepth, 0, 1)
	return c
}

// channel is one wavetable channel with its own envelope.
type channel struct {
	env  *envelope.ADSR
	note uint8
	age  int64
}

func (c *channel) IsActive() bool        { return c.env.IsActive() }
func (c *channel) GetNote() uint8        { return c.note }
func (c *channel) GetAmplitude() float64 { return c.env.Value() }
func (c *channel) GetAge() int64         { return c.age }

func (c *channel) TriggerNote(note uint8, velocity uint8) {
	c.note = note
	c.age = 0
	c.env.TriggerLevel(float64(velocity) / 127)
}

func (c *channel) GlideTo(note uint8) {
	c.note = note
}

func (c *channel) ReleaseNote() {
	c.env.Release()
}

func (c *channel) Stop() {
	c.env.Reset()
}

// Patch wires a Sequencer to a Table: clock ticks are scheduled as timed
// events, every CV update of the sequencer plays its note on a channel
// picked by a voice allocator, and each channel is shaped by an ADSR.
type Patch struct {
	Table     *Table
	Sequencer *Sequencer

	cfg       PatchConfig
	params    *param.Registry
	state     *state.Manager
	queue     *midi.EventQueue
	events    []midi.Event
	allocator *voice.Allocator
	channels  [wavetable.MaxChannels]channel
	lfo       *lfo.LFO
	output    *gain.Output
	profiler  *debug.RenderProfiler
	logger    *debug.Logger

	stepLength  float64
	pulseLength int
	nextClock   float64
	pulse       int
	held        bool
	heldNote    uint8
	frames      int64
}

// NewPatch creates a patch with a fresh table and sequencer.
func NewPatch(cfg PatchConfig) *Patch {
	cfg = cfg.validated()
	p := &Patch{
		Table:     NewTable(),
		Sequencer: NewSequencer(),
		cfg:       cfg,
		params:    param.NewRegistry(),
		queue:     midi.NewEventQueue(),
		events:    make([]midi.Event, 0, 64),
		lfo:       lfo.New(cfg.SampleRate),
		output:    gain.NewOutput(cfg.SampleRate),
		profiler:  debug.NewRenderProfiler(cfg.SampleRate),
		logger:    debug.Default().With("module", "patch"),
	}

	voices := make([]voice.Voice, len(p.channels))
	for i := range p.channels {
		ch := &p.channels[i]
		ch.env = envelope.New(cfg.SampleRate)
		ch.env.SetADSR(cfg.Envelope)
		voices[i] = ch
	}
	p.allocator = voice.NewAllocator(voices)
	p.allocator.SetMode(cfg.Mode)
	p.allocator.SetMaxVoices(cfg.Voices)
	p.Table.Pitch.SetChannels(cfg.Voices)

	p.output.SetGainDb(cfg.GainDb)
	p.lfo.SetRate(cfg.LFORate)
	p.lfo.SetShape(cfg.LFOShape)
	if cfg.LFODepth > 0 {
		p.Table.PositionIn.SetChannels(1)
	}

	p.stepLength = cfg.SampleRate * 60 / (cfg.BPM * StepsPerBeat)
	p.pulseLength = max(1, int(p.stepLength/2))

	if err := p.params.Add(p.Table.Params().All()...); err != nil {
		panic(err)
	}
	if err := p.params.Add(p.Sequencer.Params().All()...); err != nil {
		panic(err)
	}
	p.state = state.NewManager(p.params)
	p.state.SetCustomState(p.Table.saveSource, p.Table.loadSource)
	return p
}

// Config returns the validated configuration.
func (p *Patch) Config() PatchConfig {
	return p.cfg
}

// Params returns the parameters of both modules.
func (p *Patch) Params() *param.Registry {
	return p.params
}

// Profiler returns the render profiler.
func (p *Patch) Profiler() *debug.RenderProfiler {
	return p.profiler
}

// Allocator returns the note-to-channel allocator.
func (p *Patch) Allocator() *voice.Allocator {
	return p.allocator
}

// SetLogger replaces the logger of the patch and both modules.
func (p *Patch) SetLogger(l *debug.Logger) {
	p.logger = l.With("module", "patch")
	p.Table.SetLogger(l)
	p.Sequencer.SetLogger(l)
}

// Frames returns the number of frames rendered so far.
func (p *Patch) Frames() int64 {
	return p.frames
}

// Schedule queues an event for the next Render call. Its offset is
// relative to the start of that block; events outside the block are
// dropped.
func (p *Patch) Schedule(e midi.Event) {
	p.queue.Add(e)
}

// ProcessEvent applies one event immediately.
func (p *Patch) ProcessEvent(e midi.Event) {
	switch e := e.(type) {
	case midi.ClockEvent:
		p.Sequencer.Inputs.Clock.Set(GateVoltage)
		p.pulse = p.pulseLength
	case midi.ResetEvent:
		p.Sequencer.PressReset()
	case midi.ControlChangeEvent:
		if e.Controller == midi.CCModWheel {
			p.Table.position.SetValue(e.NormalizedValue())
			return
		}
		p.allocator.ProcessEvent(e)
	case midi.NoteOnEvent, midi.NoteOffEvent:
		p.allocator.ProcessEvent(e)
	}
}

// Render fills out with the next len(out) mono samples. Events are
// applied at their exact sample offset.
func (p *Patch) Render(out []float32) {
	done := p.profiler.Block(len(out))
	defer done()

	n := len(out)
	for p.nextClock < float64(n) {
		p.queue.Add(midi.ClockEvent{BaseEvent: midi.BaseEvent{Offset: int32(p.nextClock)}})
		p.nextClock += p.stepLength
	}
	p.nextClock -= float64(n)

	p.events = p.queue.AppendEventsInRange(p.events[:0], 0, int32(n))
	p.queue.Clear()

	voices := p.cfg.Voices
	depth := float32(p.cfg.LFODepth * 10)
	next := 0

	for i := range out {
		for next < len(p.events) && p.events[next].SampleOffset() <= int32(i) {
			p.ProcessEvent(p.events[next])
			next++
		}

		p.Sequencer.Process()
		if p.Sequencer.Updated() {
			p.playNote(midi.ClampNote(p.Sequencer.Model().Note()))
		}
		if p.pulse > 0 {
			p.pulse--
			if p.pulse == 0 {
				p.Sequencer.Inputs.Clock.Set(0)
			}
		}

		for c := 0; c < voices; c++ {
			p.Table.Pitch.Voltages[c] = float32(midi.NoteToPitch(p.channels[c].note))
		}
		if depth > 0 {
			p.Table.PositionIn.Voltages[0] = p.lfo.Next() * depth
		}
		p.Table.Process(p.cfg.SampleRate)

		var sum float32
		for c := 0; c < voices; c++ {
			ch := &p.channels[c]
			level := ch.env.Next()
			if level == 0 {
				continue
			}
			ch.age++
			sum += p.Table.Out[c] * level
		}
		out[i] = sum / OutputScale
	}
	p.output.Process(out)

	clear(p.events)
	p.frames += int64(n)
}

// playNote releases the previous sequencer note and starts note.
func (p *Patch) playNote(note uint8) {
	if p.held {
		p.allocator.NoteOff(p.heldNote)
	}
	if idx := p.allocator.NoteOn(note, p.cfg.Velocity); idx < 0 {
		p.logger.Debug("note dropped", "note", midi.NoteNumberToName(note))
		p.held = false
		return
	}
	p.held, p.heldNote = true, note
}

// Reset silences every channel and returns the sequencer and clock to
// their initial state. Parameters and the loaded table are kept.
func (p *Patch) Reset() {
	p.allocator.Reset()
	p.Sequencer.Reset()
	p.Sequencer.Inputs.Clock.Set(0)
	p.Table.Voice().Reset()
	p.lfo.Reset()
	p.output.Reset()
	p.queue.Clear()
	p.nextClock = 0
	p.pulse = 0
	p.held = false
	p.frames = 0
}

// SaveState writes the parameters of both modules and the table source.
func (p *Patch) SaveState(w io.Writer) error {
	if err := p.state.Save(w); err != nil {
		return fmt.Errorf("patch: saving state: %w", err)
	}
	return nil
}

// LoadState restores what SaveState wrote and starts reloading the saved
// table, if any.
func (p *Patch) LoadState(r io.Reader) error {
	if err := p.state.Load(r); err != nil {
		return fmt.Errorf("patch: loading state: %w", err)
	}
	return nil
}

// SaveFile writes the patch state to path atomically.
func (p *Patch) SaveFile(path string) error {
	if err := p.state.SaveFile(path); err != nil {
		return fmt.Errorf("patch: saving %s: %w", path, err)
	}
	p.logger.Info("state saved", "path", path)
	return nil
}

// LoadFile restores the patch state from path.
func (p *Patch) LoadFile(path string) error {
	if err := p.state.LoadFile(path); err != nil {
		return fmt.Errorf("patch: loading %s: %w", path, err)
	}
	p.logger.Info("state restored", "path", path)
	return nil
}
