// Command tablesynth renders the automaton sequencer playing a wavetable
// to a WAV file, and optionally plays it.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/iggylabs/tablesynth/pkg/dsp/lfo"
	"github.com/iggylabs/tablesynth/pkg/framework/debug"
	"github.com/iggylabs/tablesynth/pkg/framework/voice"
	"github.com/iggylabs/tablesynth/pkg/instrument"
	"github.com/iggylabs/tablesynth/pkg/loader"
	"github.com/iggylabs/tablesynth/pkg/sequencer"
)

// blockSize is the number of frames rendered per Render call.
const blockSize = 512

type options struct {
	in         string
	cycle      int
	out        string
	seconds    float64
	sampleRate int
	bpm        float64
	voices     int
	mode       string
	gainDb     float64
	rule       int
	seed       int
	scale      string
	pos        float64
	lfoRate    float64
	lfoDepth   float64
	lfoShape   string
	play       bool
	state      string
	logLevel   string
	logFile    string
	profile    bool

	// set holds the names of flags given on the command line.
	set map[string]bool
}

func parseOptions(args []string, stderr io.Writer) (*options, error) {
	o := &options{set: make(map[string]bool)}

	flags := flag.NewFlagSet("tablesynth", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&o.in, "in", "", "Wavetable WAV file (default: built-in sawtooth)")
	flags.IntVar(&o.cycle, "cycle", 2048, "Cycle length in samples (256, 512, 1024 or 2048)")
	flags.StringVar(&o.out, "out", "out.wav", "Output WAV file")
	flags.Float64Var(&o.seconds, "seconds", 4, "Length to render in seconds")
	flags.IntVar(&o.sampleRate, "sr", 48000, "Sample rate in Hz")
	flags.Float64Var(&o.bpm, "bpm", 120, "Tempo; each beat is four sequencer steps")
	flags.IntVar(&o.voices, "voices", 4, "Wavetable channels notes are spread over (1-16)")
	flags.StringVar(&o.mode, "mode", "poly", "Channel allocation (poly, mono, legato)")
	flags.Float64Var(&o.gainDb, "gain", -6, "Output gain in dB")
	flags.IntVar(&o.rule, "rule", sequencer.DefaultRule, "Automaton rule (0-255)")
	flags.IntVar(&o.seed, "seed", sequencer.DefaultSeed, "Automaton seed (0-255)")
	flags.StringVar(&o.scale, "scale", "0", "Scale index (0-16) or name")
	flags.Float64Var(&o.pos, "pos", 0, "Wavetable position (0-1)")
	flags.Float64Var(&o.lfoRate, "lfo-rate", 0.25, "Position LFO rate in Hz")
	flags.Float64Var(&o.lfoDepth, "lfo-depth", 0, "Position LFO depth (0-1)")
	flags.StringVar(&o.lfoShape, "lfo-shape", "Sine", "Position LFO shape (Sine, Triangle, Saw, Square)")
	flags.BoolVar(&o.play, "play", false, "Play the rendered audio")
	flags.StringVar(&o.state, "state", "", "State file restored before and saved after rendering")
	flags.StringVar(&o.logLevel, "log", "info", "Log level (debug, info, warn, error, off)")
	flags.StringVar(&o.logFile, "log-file", "", "Append log output to this file instead of stderr")
	flags.BoolVar(&o.profile, "profile", false, "Print the render profile")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: tablesynth [options]\n\nRenders a cellular-automaton sequence played on a wavetable.\n\nOptions:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  tablesynth -out saw.wav\n")
		fmt.Fprintf(stderr, "  tablesynth -in waves.wav -cycle 2048 -rule 30 -scale Dorian -lfo-depth 1\n")
		fmt.Fprintf(stderr, "  tablesynth -state patch.state -play\n")
	}

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() != 0 {
		flags.Usage()
		return nil, fmt.Errorf("unexpected argument %q", flags.Arg(0))
	}
	flags.Visit(func(f *flag.Flag) { o.set[f.Name] = true })

	switch {
	case o.rule < 0 || o.rule > 255:
		return nil, fmt.Errorf("-rule must be 0-255, got %d", o.rule)
	case o.seed < 0 || o.seed > 255:
		return nil, fmt.Errorf("-seed must be 0-255, got %d", o.seed)
	case o.pos < 0 || o.pos > 1:
		return nil, fmt.Errorf("-pos must be 0-1, got %g", o.pos)
	case !(o.seconds > 0):
		return nil, fmt.Errorf("-seconds must be positive, got %g", o.seconds)
	case o.sampleRate <= 0:
		return nil, fmt.Errorf("-sr must be positive, got %d", o.sampleRate)
	}
	if _, err := o.parseScale(); err != nil {
		return nil, err
	}
	if _, ok := voice.ParseMode(o.mode); !ok {
		return nil, fmt.Errorf("unknown -mode %q", o.mode)
	}
	if _, ok := lfo.ParseShape(o.lfoShape); !ok {
		return nil, fmt.Errorf("unknown -lfo-shape %q", o.lfoShape)
	}
	return o, nil
}

func (o *options) parseScale() (sequencer.Scale, error) {
	if i, err := strconv.Atoi(o.scale); err == nil {
		if i < 0 || i >= int(sequencer.NumScales) {
			return 0, fmt.Errorf("-scale must be 0-%d, got %d", sequencer.NumScales-1, i)
		}
		return sequencer.Scale(i), nil
	}
	s, ok := sequencer.ParseScale(o.scale)
	if !ok {
		return 0, fmt.Errorf("unknown -scale %q", o.scale)
	}
	return s, nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseOptions(args, stderr)
	if err != nil {
		return err
	}

	level, err := debug.ParseLevel(o.logLevel)
	if err != nil {
		return err
	}
	logger := debug.New(stderr, "tablesynth", debug.DefaultFlags)
	debug.SetOutput(stderr)
	if o.logFile != "" {
		fileLogger, f, err := debug.NewFileLogger(o.logFile, "tablesynth", debug.DefaultFlags)
		if err != nil {
			return err
		}
		defer f.Close()
		logger = fileLogger
		debug.SetOutput(f)
	}
	debug.SetLevel(level)
	logger.SetLevel(level)

	shape, _ := lfo.ParseShape(o.lfoShape)
	mode, _ := voice.ParseMode(o.mode)
	cfg := instrument.DefaultPatchConfig()
	cfg.SampleRate = float64(o.sampleRate)
	cfg.BPM = o.bpm
	cfg.Voices = o.voices
	cfg.Mode = mode
	cfg.GainDb = o.gainDb
	cfg.LFORate = o.lfoRate
	cfg.LFODepth = o.lfoDepth
	cfg.LFOShape = shape

	patch := instrument.NewPatch(cfg)
	patch.SetLogger(logger)

	restored := false
	if o.state != "" {
		switch err := patch.LoadFile(o.state); {
		case err == nil:
			restored = true
		case errors.Is(err, fs.ErrNotExist):
			logger.Info("no saved state, using flags", "path", o.state)
		default:
			return err
		}
	}
	if err := applyFlags(patch, o, restored); err != nil {
		return err
	}

	if o.in != "" {
		patch.Table.LoadFile(o.in, o.cycle)
	}
	result, err := patch.Table.Wait()
	if err != nil {
		return fmt.Errorf("loading wavetable: %w", err)
	}
	if result.OK {
		logger.Info("wavetable ready", "cycles", result.NumCycles, "length", result.CycleLength,
			"dropped", result.Dropped, "fallback", result.Fallback)
	} else {
		logger.Info("using built-in sawtooth")
	}

	samples := render(patch, int(o.seconds*float64(o.sampleRate)))
	debug.LogBufferStats(logger, samples, o.out)

	if err := loader.EncodeFile(o.out, samples, o.sampleRate, 1); err != nil {
		return err
	}
	logger.Info("rendered", "path", o.out, "seconds", o.seconds, "frames", len(samples))

	if o.state != "" {
		if err := patch.SaveFile(o.state); err != nil {
			return err
		}
	}

	if o.profile {
		fmt.Fprint(stdout, patch.Profiler().RenderReport())
	}

	if o.play {
		p, err := newPlayer(o.sampleRate)
		if err != nil {
			return fmt.Errorf("opening audio output: %w", err)
		}
		defer p.Close()
		if err := p.Play(samples); err != nil {
			return fmt.Errorf("playback: %w", err)
		}
	}
	return nil
}

// applyFlags writes the sequencer and table flags to the patch parameters.
// After a restored state only flags given on the command line are applied.
func applyFlags(patch *instrument.Patch, o *options, restored bool) error {
	apply := func(name string) bool { return !restored || o.set[name] }
	params := patch.Params()

	if apply("rule") {
		params.Get(instrument.SeqRule).SetPlainValue(float64(o.rule))
	}
	if apply("seed") {
		params.Get(instrument.SeqSeed).SetPlainValue(float64(o.seed))
	}
	if apply("scale") {
		s, err := o.parseScale()
		if err != nil {
			return err
		}
		params.Get(instrument.SeqScale).SetPlainValue(float64(s))
	}
	if apply("pos") {
		params.Get(instrument.TablePosition).SetPlainValue(o.pos)
	}
	return nil
}

// render runs the patch for frames samples in blocks of blockSize.
func render(patch *instrument.Patch, frames int) []float32 {
	out := make([]float32, frames)
	for start := 0; start < frames; start += blockSize {
		patch.Render(out[start:min(start+blockSize, frames)])
	}
	return out
}

// player plays a rendered buffer to the default audio device.
type player interface {
	Play(samples []float32) error
	Close() error
}
