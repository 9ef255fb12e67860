package instrument

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/iggylabs/tablesynth/pkg/dsp/wavetable"
	"github.com/iggylabs/tablesynth/pkg/framework/debug"
	"github.com/iggylabs/tablesynth/pkg/framework/param"
	"github.com/iggylabs/tablesynth/pkg/framework/state"
	"github.com/iggylabs/tablesynth/pkg/loader"
)

// Table module parameter IDs.
const (
	TablePosition uint32 = iota + 1
	TableCoarse
	TableFine
)

const (
	// MaxPitch bounds the summed pitch in octaves either side of C4.
	MaxPitch = 3.5
	// OutputScale converts the voice's -1..1 output to volts.
	OutputScale = 5
	// positionSmoothingMs is the glide time of position knob changes.
	positionSmoothingMs = 5
)

// Table is the wavetable oscillator module. Process and the ports belong
// to the audio goroutine; loads and state may be driven from any other.
type Table struct {
	voice    *wavetable.Voice
	params   *param.Registry
	position *param.SmoothedParameter
	coarse   *param.Parameter
	fine     *param.Parameter
	state    *state.Manager
	logger   *debug.Logger

	smoothingRate float64

	// Inputs
	Pitch      PolyPort
	FineIn     PolyPort
	PositionIn PolyPort

	// Out holds the last output of each channel, in volts.
	Out      [wavetable.MaxChannels]float32
	channels int

	mu      sync.Mutex
	cancel  context.CancelFunc
	pending sync.WaitGroup
	loads   int
	result  wavetable.LoadResult
	err     error
}

// NewTable creates a table module playing the built-in sawtooth.
func NewTable() *Table {
	t := &Table{
		voice:  wavetable.NewVoice(),
		params: param.NewRegistry(),
		logger: debug.Default().With("module", "table"),
	}

	pos := param.New(TablePosition, "Wavetable position").
		ShortName("Position").
		Range(0, 1).
		Default(0).
		Build()
	t.coarse = param.OctaveParameter(TableCoarse, "Coarse", -3, 3, 0).Build()
	t.fine = param.OctaveParameter(TableFine, "Fine", -0.5, 0.5, 0).Build()
	if err := t.params.Add(pos, t.coarse, t.fine); err != nil {
		panic(err)
	}
	t.position = param.NewSmoothedParameter(pos, param.LinearSmoothing, 1)

	t.state = state.NewManager(t.params)
	t.state.SetCustomState(t.saveSource, t.loadSource)
	return t
}

// Params returns the module's parameters.
func (t *Table) Params() *param.Registry {
	return t.params
}

// Voice returns the underlying wavetable voice.
func (t *Table) Voice() *wavetable.Voice {
	return t.voice
}

// SetLogger replaces the logger of the module and its voice. It may be
// called while a load runs; the voice takes it once the load finishes.
func (t *Table) SetLogger(l *debug.Logger) {
	t.mu.Lock()
	t.logger = l.With("module", "table")
	t.mu.Unlock()
	t.voice.SetLogger(l)
}

func (t *Table) getLogger() *debug.Logger {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.logger
}

// Channels returns the polyphony of the last Process call.
func (t *Table) Channels() int {
	return t.channels
}

// Process renders one sample on every channel into Out and returns the
// channel count, max(1, pitch input channels). While a load is running
// every channel outputs 0 V.
func (t *Table) Process(sampleRate float64) int {
	if t.smoothingRate != sampleRate {
		t.smoothingRate = sampleRate
		t.position.UpdateSampleRate(sampleRate, positionSmoothingMs)
	}
	pos := t.position.GetSmoothedValue()

	n := max(1, t.Pitch.Channels)
	if t.channels > n {
		clear(t.Out[n:t.channels])
	}
	t.channels = n

	if t.voice.Loading() {
		clear(t.Out[:n])
		return n
	}

	coarse := t.coarse.GetPlainValue() + t.fine.GetPlainValue()
	for c := 0; c < n; c++ {
		pitch := coarse
		if t.Pitch.Connected() {
			pitch += float64(t.Pitch.Voltage(c))
		}
		if t.FineIn.Connected() {
			pitch += float64(t.FineIn.Voltage(c)) / 5
		}
		pitch = clampFloat(pitch, -MaxPitch, MaxPitch)

		p := pos
		if t.PositionIn.Connected() {
			p = clampFloat(p+float64(t.PositionIn.Voltage(c))/10, 0, 1)
		}

		t.Out[c] = t.voice.Process(c, p, pitch, sampleRate) * OutputScale
	}
	return n
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return min(max(v, lo), hi)
}

// LoadFile starts loading path in the background, cancelling any load
// still in progress. Use Wait for the outcome.
func (t *Table) LoadFile(path string, cycleLength int) {
	ctx, cancel := context.WithCancel(context.Background())

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.cancel = cancel
	t.loads++
	id := t.loads
	t.pending.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.pending.Done()
		defer cancel()
		result, err := t.LoadFileContext(ctx, path, cycleLength)

		// A superseded load does not overwrite the newer outcome.
		t.mu.Lock()
		if id == t.loads {
			t.result, t.err = result, err
		}
		t.mu.Unlock()
	}()
}

// LoadFileContext decodes path and loads its first channel into the
// voice. A decode failure leaves the current table in place.
func (t *Table) LoadFileContext(ctx context.Context, path string, cycleLength int) (wavetable.LoadResult, error) {
	log := t.getLogger().With("path", path)

	buf, err := loader.DecodeFile(path)
	if err != nil {
		log.Error("decode failed", "err", err)
		return wavetable.LoadResult{Err: err}, err
	}
	if buf.Channels > 1 {
		log.Debug("using first channel", "channels", buf.Channels)
	}

	result := t.voice.LoadContext(ctx, path, buf.Samples, float64(buf.SampleRate), cycleLength)
	for _, w := range result.Warnings {
		log.Debug("load warning", "warning", w)
	}
	return result, result.Err
}

// Wait blocks until background loads have finished and returns the
// outcome of the most recent one.
func (t *Table) Wait() (wavetable.LoadResult, error) {
	t.pending.Wait()
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

// Loaded reports whether a table has been loaded, for the loaded light.
func (t *Table) Loaded() bool {
	return t.voice.Loaded() && !t.voice.Loading()
}

// SaveState writes the parameters and the source of the loaded table.
func (t *Table) SaveState(w io.Writer) error {
	if err := t.state.Save(w); err != nil {
		return fmt.Errorf("table: saving state: %w", err)
	}
	path, cycle := t.voice.Source()
	t.getLogger().Info("state saved", "source", path, "cycleLength", cycle)
	return nil
}

// LoadState restores parameters and starts reloading the saved table, if
// any.
func (t *Table) LoadState(r io.Reader) error {
	if err := t.state.Load(r); err != nil {
		return fmt.Errorf("table: loading state: %w", err)
	}
	return nil
}

func (t *Table) saveSource(w io.Writer) error {
	path, cycle := t.voice.Source()
	if err := state.WriteString(w, path); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, uint32(cycle))
}

func (t *Table) loadSource(r io.Reader) (func(), error) {
	path, err := state.ReadString(r)
	if err != nil {
		return nil, err
	}
	var cycle uint32
	if err := binary.Read(r, binary.LittleEndian, &cycle); err != nil {
		return nil, fmt.Errorf("%w: reading cycle length: %v", state.ErrInvalidFormat, err)
	}

	return func() {
		t.getLogger().Info("state restored", "source", path, "cycleLength", cycle)
		if path != "" {
			t.LoadFile(path, int(cycle))
		}
	}, nil
}
