package debug

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler records wall-clock timings for named sections such as
// "wavetable.load" and "wavetable.build".
type Profiler struct {
	mu           sync.RWMutex
	measurements map[string]*Measurement
	enabled      atomic.Bool
	maxSamples   int
}

// Measurement holds timing statistics for a profiled section.
type Measurement struct {
	name        string
	count       uint64
	totalTime   time.Duration
	minTime     time.Duration
	maxTime     time.Duration
	lastTime    time.Duration
	samples     []time.Duration
	sampleIndex int
}

// DefaultProfiler is the global profiler instance.
var DefaultProfiler = NewProfiler(1000)

// NewProfiler creates a new profiler keeping the last maxSamples timings
// per section for percentile queries.
func NewProfiler(maxSamples int) *Profiler {
	if maxSamples < 1 {
		maxSamples = 1
	}
	p := &Profiler{
		measurements: make(map[string]*Measurement),
		maxSamples:   maxSamples,
	}
	p.enabled.Store(true)
	return p
}

// SetEnabled enables or disables profiling.
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// IsEnabled returns whether profiling is enabled.
func (p *Profiler) IsEnabled() bool {
	return p.enabled.Load()
}

// Start begins timing a named section. Call the returned func to stop.
func (p *Profiler) Start(name string) func() {
	if !p.enabled.Load() {
		return func() {}
	}

	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Time measures the execution time of fn.
func (p *Profiler) Time(name string, fn func()) {
	stop := p.Start(name)
	defer stop()
	fn()
}

// Record stores an externally measured duration.
func (p *Profiler) Record(name string, elapsed time.Duration) {
	if !p.enabled.Load() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	m, exists := p.measurements[name]
	if !exists {
		m = &Measurement{
			name:    name,
			minTime: elapsed,
			maxTime: elapsed,
			samples: make([]time.Duration, 0, p.maxSamples),
		}
		p.measurements[name] = m
	}

	m.count++
	m.totalTime += elapsed
	m.lastTime = elapsed
	if elapsed < m.minTime {
		m.minTime = elapsed
	}
	if elapsed > m.maxTime {
		m.maxTime = elapsed
	}

	if len(m.samples) < p.maxSamples {
		m.samples = append(m.samples, elapsed)
	} else {
		m.samples[m.sampleIndex] = elapsed
	}
	m.sampleIndex = (m.sampleIndex + 1) % p.maxSamples
}

// GetMeasurement returns a snapshot of the measurement for a named section.
func (p *Profiler) GetMeasurement(name string) (*Measurement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, exists := p.measurements[name]
	if !exists {
		return nil, false
	}
	return m.snapshot(), true
}

// GetAllMeasurements returns snapshots of all measurements.
func (p *Profiler) GetAllMeasurements() map[string]*Measurement {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(map[string]*Measurement, len(p.measurements))
	for k, v := range p.measurements {
		result[k] = v.snapshot()
	}
	return result
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measurements = make(map[string]*Measurement)
}

// Report generates a performance report, sections sorted by name.
func (p *Profiler) Report() string {
	measurements := p.GetAllMeasurements()
	if len(measurements) == 0 {
		return "No measurements recorded"
	}

	names := make([]string, 0, len(measurements))
	for name := range measurements {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Performance Report:\n")
	sb.WriteString("==================\n\n")
	for _, name := range names {
		m := measurements[name]
		fmt.Fprintf(&sb, "%s:\n", name)
		fmt.Fprintf(&sb, "  Count:   %d\n", m.count)
		fmt.Fprintf(&sb, "  Total:   %v\n", m.totalTime)
		fmt.Fprintf(&sb, "  Average: %v\n", m.Average())
		fmt.Fprintf(&sb, "  Min:     %v\n", m.minTime)
		fmt.Fprintf(&sb, "  Max:     %v\n", m.maxTime)
		fmt.Fprintf(&sb, "  p95:     %v\n", m.Percentile(95))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Measurement) snapshot() *Measurement {
	c := *m
	c.samples = slices.Clone(m.samples)
	return &c
}

// Name returns the section name.
func (m *Measurement) Name() string { return m.name }

// Count returns the number of recorded timings.
func (m *Measurement) Count() uint64 { return m.count }

// Total returns the summed duration.
func (m *Measurement) Total() time.Duration { return m.totalTime }

// Min returns the shortest recorded duration.
func (m *Measurement) Min() time.Duration { return m.minTime }

// Max returns the longest recorded duration.
func (m *Measurement) Max() time.Duration { return m.maxTime }

// Last returns the most recent duration.
func (m *Measurement) Last() time.Duration { return m.lastTime }

// Average returns the average time for this measurement.
func (m *Measurement) Average() time.Duration {
	if m.count == 0 {
		return 0
	}
	return m.totalTime / time.Duration(m.count)
}

// Percentile returns the p-th percentile (0..100) of the retained samples
// using the nearest-rank method.
func (m *Measurement) Percentile(p float64) time.Duration {
	if len(m.samples) == 0 {
		return 0
	}

	sorted := slices.Clone(m.samples)
	slices.Sort(sorted)

	p = min(max(p, 0), 100)
	index := int(float64(len(sorted)-1) * p / 100.0)
	return sorted[index]
}

// Global profiling functions

// Start begins timing a named section using the default profiler.
func Start(name string) func() {
	return DefaultProfiler.Start(name)
}

// Time measures the execution time of a function using the default profiler.
func Time(name string, fn func()) {
	DefaultProfiler.Time(name, fn)
}

// ProfilingReport returns a performance report from the default profiler.
func ProfilingReport() string {
	return DefaultProfiler.Report()
}

// RenderProfiler times block renders and relates them to the real-time
// budget of the rendered audio.
type RenderProfiler struct {
	*Profiler
	sampleRate float64
	frames     atomic.Uint64
}

// renderSection is the measurement name used by RenderProfiler.
const renderSection = "render.block"

// NewRenderProfiler creates a render profiler for the given sample rate.
func NewRenderProfiler(sampleRate float64) *RenderProfiler {
	return &RenderProfiler{
		Profiler:   NewProfiler(1000),
		sampleRate: sampleRate,
	}
}

// Block starts timing a render of n frames.
func (r *RenderProfiler) Block(n int) func() {
	stop := r.Start(renderSection)
	return func() {
		stop()
		r.frames.Add(uint64(n))
	}
}

// Load returns render time as a percentage of the audio duration rendered.
// 100 means rendering exactly as fast as playback.
func (r *RenderProfiler) Load() float64 {
	m, ok := r.GetMeasurement(renderSection)
	frames := r.frames.Load()
	if !ok || frames == 0 || r.sampleRate <= 0 {
		return 0
	}
	audio := float64(frames) / r.sampleRate * float64(time.Second)
	return float64(m.totalTime) / audio * 100
}

// RenderReport appends render statistics to Report.
func (r *RenderProfiler) RenderReport() string {
	var sb strings.Builder
	sb.WriteString(r.Report())
	sb.WriteString("\nRender Stats:\n")
	fmt.Fprintf(&sb, "  Sample Rate:  %.0f Hz\n", r.sampleRate)
	fmt.Fprintf(&sb, "  Frames:       %d\n", r.frames.Load())
	fmt.Fprintf(&sb, "  Load:         %.2f%%\n", r.Load())
	return sb.String()
}
