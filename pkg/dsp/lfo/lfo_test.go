package lfo

import (
	"math"
	"testing"
)

func TestShapes(t *testing.T) {
	tests := []struct {
		shape    Shape
		expected []float32 // at phases 0, 0.25, 0.5, 0.75
	}{
		{Sine, []float32{0, 1, 0, -1}},
		{Triangle, []float32{-1, 0, 1, 0}},
		{Saw, []float32{-1, -0.5, 0, 0.5}},
		{Square, []float32{1, 1, -1, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.shape.String(), func(t *testing.T) {
			l := New(4)
			l.SetShape(tt.shape)
			for i, want := range tt.expected {
				got := l.Next()
				if math.Abs(float64(got-want)) > 1e-6 {
					t.Errorf("sample %d = %g, want %g", i, got, want)
				}
			}
			if math.Abs(l.Phase()) > 1e-12 {
				t.Errorf("phase after one cycle = %g, want 0", l.Phase())
			}
		})
	}
}

func TestUnipolar(t *testing.T) {
	l := New(4)
	l.SetShape(Saw)
	want := []float32{0, 0.25, 0.5, 0.75}
	for i, w := range want {
		if got := l.NextUnipolar(); math.Abs(float64(got-w)) > 1e-6 {
			t.Errorf("sample %d = %g, want %g", i, got, w)
		}
	}
}

func TestRateAndSampleRate(t *testing.T) {
	l := New(1000)
	l.SetRate(10)
	for range 50 {
		l.Next()
	}
	if math.Abs(l.Phase()-0.5) > 1e-9 {
		t.Errorf("phase = %g, want 0.5", l.Phase())
	}

	l.Reset()
	l.SetSampleRate(2000)
	if l.Rate() != 10 {
		t.Errorf("rate = %g after sample rate change", l.Rate())
	}
	for range 50 {
		l.Next()
	}
	if math.Abs(l.Phase()-0.25) > 1e-9 {
		t.Errorf("phase = %g, want 0.25", l.Phase())
	}

	l.SetRate(-10)
	l.Reset()
	l.Next()
	if p := l.Phase(); p < 0 || p >= 1 {
		t.Errorf("negative rate left phase %g outside [0, 1)", p)
	}
}

func TestInvalidRates(t *testing.T) {
	for _, rate := range []float64{math.NaN(), math.Inf(1)} {
		l := New(48000)
		l.SetRate(rate)
		for range 10 {
			if v := l.Next(); math.IsNaN(float64(v)) {
				t.Fatalf("rate %g produced NaN", rate)
			}
		}
	}

	zero := New(0)
	if v := zero.Next(); v != 0 {
		t.Errorf("zero sample rate produced %g", v)
	}
}

func TestShapeParsing(t *testing.T) {
	for s := Shape(0); s < NumShapes; s++ {
		got, ok := ParseShape(s.String())
		if !ok || got != s {
			t.Errorf("ParseShape(%q) = %v, %v", s.String(), got, ok)
		}
	}
	if _, ok := ParseShape("Wobble"); ok {
		t.Error("unknown shape parsed")
	}
	if Shape(42).String() != "Unknown" {
		t.Error("out-of-range shape should be Unknown")
	}

	l := New(48000)
	l.SetShape(Shape(42))
	if l.Shape() != Sine {
		t.Errorf("invalid shape kept as %v", l.Shape())
	}
}

func TestSetPhaseWraps(t *testing.T) {
	l := New(48000)
	l.SetPhase(2.25)
	if math.Abs(l.Phase()-0.25) > 1e-12 {
		t.Errorf("phase = %g, want 0.25", l.Phase())
	}
	l.SetPhase(-0.25)
	if math.Abs(l.Phase()-0.75) > 1e-12 {
		t.Errorf("phase = %g, want 0.75", l.Phase())
	}
}

func BenchmarkLFOProcess(b *testing.B) {
	l := New(48000)
	buf := make([]float32, 512)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		l.Process(buf)
	}
}
