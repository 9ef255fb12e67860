package debug

import (
	"fmt"
	"math"
)

// AudioAnalyzer inspects rendered buffers for faults: NaN/Inf samples,
// clipping, DC offset and silence.
type AudioAnalyzer struct {
	clippingThreshold float32
	dcThreshold       float32
	silenceThreshold  float32
}

// NewAudioAnalyzer creates an analyzer for buffers in the [-1, 1] range.
func NewAudioAnalyzer() *AudioAnalyzer {
	return NewAudioAnalyzerWithRange(1)
}

// NewAudioAnalyzerWithRange creates an analyzer for buffers whose full
// scale is ±fullScale, e.g. 5 for ±5 V module outputs. Thresholds scale
// with it.
func NewAudioAnalyzerWithRange(fullScale float32) *AudioAnalyzer {
	if fullScale <= 0 {
		fullScale = 1
	}
	return &AudioAnalyzer{
		clippingThreshold: 0.99 * fullScale,
		dcThreshold:       0.01 * fullScale,
		silenceThreshold:  0.0001 * fullScale,
	}
}

// AnalysisResult contains the results of audio buffer analysis.
type AnalysisResult struct {
	Peak           float32
	RMS            float32
	DC             float32
	Clipping       bool
	ClippedSamples int
	Silent         bool
	HasNaN         bool
	NaNCount       int
	ZeroCrossings  int
}

// Analyze computes statistics over buffer. NaN and infinite samples are
// counted and excluded from the other figures.
func (a *AudioAnalyzer) Analyze(buffer []float32) AnalysisResult {
	result := AnalysisResult{}
	if len(buffer) == 0 {
		return result
	}

	var sum, sumSquares float64
	var lastSample float32
	valid := 0

	for _, sample := range buffer {
		s := float64(sample)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			result.HasNaN = true
			result.NaNCount++
			continue
		}

		abs := float32(math.Abs(s))
		result.Peak = max(result.Peak, abs)
		if abs >= a.clippingThreshold {
			result.Clipping = true
			result.ClippedSamples++
		}

		sum += s
		sumSquares += s * s

		if valid > 0 && (lastSample < 0) != (sample < 0) {
			result.ZeroCrossings++
		}
		lastSample = sample
		valid++
	}

	if valid > 0 {
		result.RMS = float32(math.Sqrt(sumSquares / float64(valid)))
		result.DC = float32(sum / float64(valid))
	}
	result.Silent = result.RMS < a.silenceThreshold

	return result
}

// Check returns a human-readable list of faults found in buffer.
func (a *AudioAnalyzer) Check(buffer []float32, name string) []string {
	var issues []string
	result := a.Analyze(buffer)

	if result.HasNaN {
		issues = append(issues, fmt.Sprintf("%s: contains %d non-finite values", name, result.NaNCount))
	}
	if result.Clipping {
		issues = append(issues, fmt.Sprintf("%s: clipping detected (%d samples)", name, result.ClippedSamples))
	}
	if float32(math.Abs(float64(result.DC))) > a.dcThreshold {
		issues = append(issues, fmt.Sprintf("%s: DC offset detected (%.3f)", name, result.DC))
	}
	return issues
}

var defaultAnalyzer = NewAudioAnalyzer()

// AnalyzeBuffer performs analysis on a [-1, 1] buffer.
func AnalyzeBuffer(buffer []float32) AnalysisResult {
	return defaultAnalyzer.Analyze(buffer)
}

// CheckBuffer performs sanity checks on a [-1, 1] buffer.
func CheckBuffer(buffer []float32, name string) []string {
	return defaultAnalyzer.Check(buffer, name)
}

// LogBufferStats logs statistics and faults of buffer to logger.
func LogBufferStats(logger *Logger, buffer []float32, name string) {
	result := defaultAnalyzer.Analyze(buffer)

	logger.Info("buffer stats",
		"name", name,
		"samples", len(buffer),
		"peak", result.Peak,
		"rms", result.RMS,
		"dc", result.DC,
		"silent", result.Silent)

	for _, issue := range defaultAnalyzer.Check(buffer, name) {
		logger.Warn(issue)
	}
}
