// Package loader reads wavetable source audio from WAV files and writes
// rendered output back to them.
package loader

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/iggylabs/tablesynth/pkg/framework/debug"
)

// ErrInvalidFile is returned for input that is not a decodable WAV file.
var ErrInvalidFile = errors.New("loader: invalid WAV file")

// formatFloat is the WAVE_FORMAT_IEEE_FLOAT tag.
const formatFloat = 3

// Buffer is decoded audio. Samples holds the first channel only,
// normalized to -1..1; Channels is the channel count of the source.
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Duration returns the length of the buffer in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Decode reads a PCM or float WAV stream and extracts its first channel.
func Decode(r io.ReadSeeker) (Buffer, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return Buffer{}, ErrInvalidFile
	}
	if err := decoder.FwdToPCM(); err != nil {
		return Buffer{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	format := decoder.Format()
	bitDepth := int(decoder.SampleBitDepth())
	if bitDepth == 0 || format == nil || format.NumChannels <= 0 {
		return Buffer{}, fmt.Errorf("%w: unknown bit depth or channel count", ErrInvalidFile)
	}

	bytesPerSample := (bitDepth-1)/8 + 1
	nsamples := int(decoder.PCMLen()) / bytesPerSample
	nchannels := format.NumChannels
	nframes := nsamples / nchannels

	buf := &audio.IntBuffer{
		Format:         format,
		Data:           make([]int, nframes*nchannels),
		SourceBitDepth: bitDepth,
	}
	n, err := decoder.PCMBuffer(buf)
	if err != nil {
		return Buffer{}, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	nframes = n / nchannels

	convert := sampleConverter(bitDepth, decoder.WavAudioFormat == formatFloat)
	samples := make([]float32, nframes)
	for i := range samples {
		samples[i] = convert(buf.Data[i*nchannels])
	}

	debug.Debug("decoded wav",
		"sampleRate", format.SampleRate,
		"channels", nchannels,
		"bitDepth", bitDepth,
		"frames", nframes,
	)

	return Buffer{
		Samples:    samples,
		SampleRate: format.SampleRate,
		Channels:   nchannels,
	}, nil
}

// sampleConverter maps a decoded integer sample to -1..1.
func sampleConverter(bitDepth int, float bool) func(int) float32 {
	switch {
	case float && bitDepth == 32:
		return func(v int) float32 {
			f := math.Float32frombits(uint32(v))
			if f != f || math.IsInf(float64(f), 0) {
				return 0
			}
			return f
		}
	case bitDepth == 8:
		// 8-bit WAV data is unsigned.
		return func(v int) float32 {
			return float32(v-128) / 128
		}
	default:
		factor := math.Pow(2, float64(bitDepth-1))
		return func(v int) float32 {
			return float32(float64(v) / factor)
		}
	}
}

// DecodeFile opens and decodes path.
func DecodeFile(path string) (Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return Buffer{}, err
	}
	defer f.Close()

	buf, err := Decode(f)
	if err != nil {
		return Buffer{}, fmt.Errorf("%s: %w", path, err)
	}
	return buf, nil
}

// Encode writes interleaved samples as a 16-bit PCM WAV stream. Samples
// outside -1..1 are clipped.
func Encode(w io.WriteSeeker, samples []float32, sampleRate, channels int) error {
	if channels <= 0 || sampleRate <= 0 {
		return fmt.Errorf("loader: cannot encode %d channels at %d Hz", channels, sampleRate)
	}

	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		intBuf.Data[i] = int(math.Round(float64(clip(s)) * 32767))
	}

	if err := enc.Write(intBuf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// EncodeFile creates path and encodes samples into it.
func EncodeFile(path string, samples []float32, sampleRate, channels int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, samples, sampleRate, channels); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func clip(s float32) float32 {
	switch {
	case s != s:
		return 0
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return s
}
