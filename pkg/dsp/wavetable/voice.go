package wavetable

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/iggylabs/tablesynth/pkg/dsp/analysis"
	"github.com/iggylabs/tablesynth/pkg/dsp/interpolation"
	"github.com/iggylabs/tablesynth/pkg/framework/debug"
)

const (
	// MaxCycles is the maximum number of cycles kept from one load.
	MaxCycles = 256
	// MaxCycleLength is the longest supported cycle.
	MaxCycleLength = 2048
	// DefaultCycleLength is used until a load requests another length.
	DefaultCycleLength = 2048
	// MaxChannels is the number of independent phase accumulators.
	MaxChannels = 16

	// SilenceThreshold is the absolute sample sum at or below which a cycle
	// is dropped as silent. It is not scaled by cycle length.
	SilenceThreshold = 0.1

	// C4Frequency is the frequency at pitch 0, in Hz.
	C4Frequency = 261.6255653005986
)

// SupportedCycleLengths lists the cycle lengths Load accepts.
var SupportedCycleLengths = []int{256, 512, 1024, 2048}

// IsSupportedCycleLength reports whether n is one of SupportedCycleLengths.
func IsSupportedCycleLength(n int) bool {
	return slices.Contains(SupportedCycleLengths, n)
}

// LoadResult describes the outcome of a load.
type LoadResult struct {
	// OK is true when a new bank was published.
	OK bool
	// NumCycles is the number of oscillators in the published bank.
	NumCycles int
	// CycleLength is the effective cycle length, shorter than requested
	// when the buffer held less than one cycle.
	CycleLength int
	// Dropped counts silent or unbuildable cycles.
	Dropped int
	// Fallback is true when the sawtooth bank was installed because no
	// cycle survived.
	Fallback bool
	// Err is set when the load failed and the previous bank was kept.
	Err error
	// Warnings holds non-fatal problems, matched with errors.Is against
	// ErrUnsupportedFrameLength, ErrDegenerateCycle and ErrNoUsableCycles.
	Warnings []error
}

// bank is an immutable set of oscillators published as a unit.
type bank struct {
	oscillators []*Oscillator
	cycleLength int
	source      string
	sampleRate  float64
}

func defaultBank() *bank {
	return &bank{
		oscillators: []*Oscillator{defaultSaw()},
		cycleLength: sawLength,
	}
}

// Voice is a multi-cycle wavetable player with MaxChannels phase
// accumulators.
//
// Process, Reset and the phase state belong to the audio goroutine. Load,
// LoadFrom, LoadContext and Clear may be called from any other goroutine
// and are serialised among themselves.
type Voice struct {
	mu          sync.Mutex
	cycleLength int

	bank    atomic.Pointer[bank]
	loading atomic.Bool
	loaded  atomic.Bool

	phase     [MaxChannels]float64
	increment [MaxChannels]float64

	logger   *debug.Logger
	profiler *debug.Profiler
}

// NewVoice creates a voice playing the built-in sawtooth.
func NewVoice() *Voice {
	v := &Voice{
		cycleLength: DefaultCycleLength,
		logger:      debug.Default(),
		profiler:    debug.DefaultProfiler,
	}
	v.bank.Store(defaultBank())
	return v
}

// SetLogger replaces the logger used by loads. During a load it blocks
// until the load finishes.
func (v *Voice) SetLogger(l *debug.Logger) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.logger = l
}

// SetProfiler replaces the profiler used by loads. During a load it
// blocks until the load finishes.
func (v *Voice) SetProfiler(p *debug.Profiler) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.profiler = p
}

// Load replaces the cycle bank with tables built from samples.
func (v *Voice) Load(samples []float32, sampleRate float64, cycleLength int) LoadResult {
	return v.LoadContext(context.Background(), "", samples, sampleRate, cycleLength)
}

// LoadFrom is Load with the source path recorded for Source.
func (v *Voice) LoadFrom(source string, samples []float32, sampleRate float64, cycleLength int) LoadResult {
	return v.LoadContext(context.Background(), source, samples, sampleRate, cycleLength)
}

// LoadContext is LoadFrom with cancellation. A cancelled load keeps the
// previous bank and reports ctx.Err().
//
// samples is cut into cycles of cycleLength (at most MaxCycles of them);
// a buffer shorter than one cycle becomes a single shorter cycle. Cycles
// whose absolute sum is at or below SilenceThreshold, or that hold NaN or
// Inf samples, are dropped. When
// nothing survives the sawtooth bank is installed and the load still
// succeeds. An unsupported cycleLength is reported as a warning and the
// last accepted length is used.
func (v *Voice) LoadContext(ctx context.Context, source string, samples []float32, sampleRate float64, cycleLength int) LoadResult {
	v.mu.Lock()
	defer v.mu.Unlock()

	log := v.logger.With("source", source)
	var result LoadResult

	if len(samples) == 0 {
		log.Warn("load rejected", "err", ErrEmptyBuffer)
		result.Err = ErrEmptyBuffer
		return result
	}

	if IsSupportedCycleLength(cycleLength) {
		v.cycleLength = cycleLength
	} else {
		log.Warn("cycle length ignored", "requested", cycleLength, "using", v.cycleLength)
		result.Warnings = append(result.Warnings,
			fmt.Errorf("%w: %d, using %d", ErrUnsupportedFrameLength, cycleLength, v.cycleLength))
	}

	stop := v.profiler.Start("wavetable.load")
	defer stop()

	v.loading.Store(true)
	defer v.loading.Store(false)

	cycles, effective := splitCycles(samples, v.cycleLength)
	log.Debug("load started", "samples", len(samples), "cycles", len(cycles), "length", effective)

	oscillators := make([]*Oscillator, len(cycles))
	errs := make([]error, len(cycles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, cycle := range cycles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			stop := v.profiler.Start("wavetable.build")
			oscillators[i], errs[i] = buildCycle(cycle)
			stop()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("load cancelled", "err", err)
		result.Err = err
		return result
	}

	next := &bank{
		cycleLength: effective,
		source:      source,
		sampleRate:  sampleRate,
	}
	for i, osc := range oscillators {
		if errs[i] != nil {
			result.Dropped++
			result.Warnings = append(result.Warnings, fmt.Errorf("cycle %d: %w", i, errs[i]))
			log.Debug("cycle dropped", "index", i, "err", errs[i])
			continue
		}
		next.oscillators = append(next.oscillators, osc)
	}

	if len(next.oscillators) == 0 {
		next.oscillators = []*Oscillator{defaultSaw()}
		result.Fallback = true
		result.Warnings = append(result.Warnings, ErrNoUsableCycles)
		log.Warn("no usable cycles, using sawtooth", "dropped", result.Dropped)
	}

	v.bank.Store(next)
	v.loaded.Store(true)

	result.OK = true
	result.NumCycles = len(next.oscillators)
	result.CycleLength = effective
	log.Info("table loaded", "cycles", result.NumCycles, "length", effective, "dropped", result.Dropped)
	return result
}

// splitCycles cuts samples into whole cycles of length n, capped at
// MaxCycles. A buffer shorter than n is returned as one cycle of its own
// length. Trailing samples that do not fill a cycle are discarded.
func splitCycles(samples []float32, n int) (cycles [][]float32, length int) {
	count := min(len(samples), MaxCycles*n)
	if count < n {
		return [][]float32{samples[:count]}, count
	}

	num := count / n
	cycles = make([][]float32, num)
	for i := range cycles {
		cycles[i] = samples[i*n : (i+1)*n]
	}
	return cycles, n
}

// buildCycle applies the silence check and builds the tables of one cycle.
// Cycles whose length is not a power of two are stretched to the next one.
func buildCycle(cycle []float32) (*Oscillator, error) {
	sum := 0.0
	for _, s := range cycle {
		sum += math.Abs(float64(s))
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("%w: non-finite samples", ErrDegenerateCycle)
	}
	if sum <= SilenceThreshold {
		return nil, fmt.Errorf("%w: silent (sum %.3g)", ErrDegenerateCycle, sum)
	}

	if !analysis.IsPowerOfTwo(len(cycle)) {
		stretched := make([]float32, analysis.NextPowerOfTwo(len(cycle)))
		interpolation.ResampleCycle(cycle, stretched)
		cycle = stretched
	}
	return NewOscillatorFromCycle(cycle)
}

// Process advances channel's phase by the increment stored on the previous
// call and returns the morphed sample at position (0..1 across the loaded
// cycles) for pitch in octaves relative to C4.
//
// It returns 0 for an out-of-range channel, while a load is in progress,
// or for a sample rate that is not positive. It never blocks or allocates.
func (v *Voice) Process(channel int, position, pitch, sampleRate float64) float32 {
	if channel < 0 || channel >= MaxChannels {
		return 0
	}
	if v.loading.Load() || !(sampleRate > 0) {
		return 0
	}
	b := v.bank.Load()

	phase := v.phase[channel] + v.increment[channel]
	if phase >= 1 {
		phase -= 1
		if phase >= 1 {
			phase -= math.Floor(phase)
		}
	}
	v.phase[channel] = phase

	freq := C4Frequency * math.Exp2(pitch)
	if math.IsNaN(freq) || math.IsInf(freq, 0) {
		v.increment[channel] = 0
		return 0
	}
	v.increment[channel] = freq / sampleRate

	if !(position > 0) {
		position = 0
	} else if position > 1 {
		position = 1
	}

	pos := position * float64(len(b.oscillators)-1)
	bottom := int(pos)
	top := min(bottom+1, len(b.oscillators)-1)

	a := b.oscillators[bottom].Sample(phase, freq, sampleRate)
	if top == bottom {
		return a
	}
	c := b.oscillators[top].Sample(phase, freq, sampleRate)
	return interpolation.Linear(a, c, float32(pos-float64(bottom)))
}

// Reset zeroes every phase accumulator. Call from the audio goroutine.
func (v *Voice) Reset() {
	v.phase = [MaxChannels]float64{}
	v.increment = [MaxChannels]float64{}
}

// Clear reinstalls the sawtooth bank and forgets the loaded source.
func (v *Voice) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bank.Store(defaultBank())
	v.cycleLength = DefaultCycleLength
	v.loaded.Store(false)
}

// NumCycles returns the number of cycles in the current bank, at least 1.
func (v *Voice) NumCycles() int {
	return len(v.bank.Load().oscillators)
}

// CycleLength returns the effective cycle length of the current bank.
func (v *Voice) CycleLength() int {
	return v.bank.Load().cycleLength
}

// Source returns the path and requested cycle length of the last load,
// for persistence. path is empty when nothing was loaded from a file.
func (v *Voice) Source() (path string, cycleLength int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bank.Load().source, v.cycleLength
}

// Loading reports whether a load is in progress.
func (v *Voice) Loading() bool {
	return v.loading.Load()
}

// Loaded reports whether a load has completed since construction or the
// last Clear.
func (v *Voice) Loaded() bool {
	return v.loaded.Load()
}
