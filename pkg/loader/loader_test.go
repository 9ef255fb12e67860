package loader

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		channels int
	}{
		{"Mono", 1},
		{"Stereo", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const frames = 512
			samples := make([]float32, frames*tt.channels)
			for i := 0; i < frames; i++ {
				v := float32(math.Sin(2 * math.Pi * float64(i) / 64))
				samples[i*tt.channels] = v
				for c := 1; c < tt.channels; c++ {
					samples[i*tt.channels+c] = -1
				}
			}

			path := filepath.Join(t.TempDir(), "table.wav")
			if err := EncodeFile(path, samples, 44100, tt.channels); err != nil {
				t.Fatalf("EncodeFile: %v", err)
			}

			buf, err := DecodeFile(path)
			if err != nil {
				t.Fatalf("DecodeFile: %v", err)
			}
			if buf.SampleRate != 44100 || buf.Channels != tt.channels {
				t.Errorf("got %d Hz, %d channels", buf.SampleRate, buf.Channels)
			}
			if len(buf.Samples) != frames {
				t.Fatalf("got %d frames, want %d", len(buf.Samples), frames)
			}
			for i, s := range buf.Samples {
				want := samples[i*tt.channels]
				if math.Abs(float64(s-want)) > 1.0/16384 {
					t.Fatalf("frame %d: got %g, want %g", i, s, want)
				}
			}
			if d := buf.Duration(); math.Abs(d-frames/44100.0) > 1e-12 {
				t.Errorf("Duration() = %g", d)
			}
		})
	}
}

func TestEncodeClips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	in := []float32{2, -3, float32(math.NaN()), 0.5}
	if err := EncodeFile(path, in, 48000, 1); err != nil {
		t.Fatal(err)
	}

	buf, err := DecodeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{32767.0 / 32768, -32767.0 / 32768, 0, 0.5}
	for i, s := range buf.Samples {
		if math.Abs(float64(s-want[i])) > 1e-4 {
			t.Errorf("sample %d: got %g, want %g", i, s, want[i])
		}
	}
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"Text", []byte("this is not a wave file at all, just some text")},
		{"RIFFNotWave", append([]byte("RIFF\x24\x00\x00\x00AVI "), make([]byte, 32)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data))
			if !errors.Is(err, ErrInvalidFile) {
				t.Errorf("expected ErrInvalidFile, got %v", err)
			}
		})
	}
}

func TestDecodeFileMissing(t *testing.T) {
	_, err := DecodeFile(filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestEncodeRejectsBadFormat(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "bad.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := Encode(f, []float32{0}, 0, 1); err == nil {
		t.Error("expected an error for a zero sample rate")
	}
	if err := Encode(f, []float32{0}, 48000, 0); err == nil {
		t.Error("expected an error for zero channels")
	}
}

func TestSampleConverter(t *testing.T) {
	tests := []struct {
		name     string
		bitDepth int
		float    bool
		in       int
		want     float32
	}{
		{"Unsigned8Mid", 8, false, 128, 0},
		{"Unsigned8Low", 8, false, 0, -1},
		{"Signed16", 16, false, -16384, -0.5},
		{"Signed24", 24, false, 1 << 22, 0.5},
		{"Float32", 32, true, int(math.Float32bits(0.25)), 0.25},
		{"Float32NaN", 32, true, int(math.Float32bits(float32(math.NaN()))), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sampleConverter(tt.bitDepth, tt.float)(tt.in); got != tt.want {
				t.Errorf("got %g, want %g", got, tt.want)
			}
		})
	}
}
