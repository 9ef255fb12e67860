package param

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestParameterValue(t *testing.T) {
	p := New(1, "Position").Range(-1, 3).Default(1).Build()

	if p.GetValue() != 0.5 {
		t.Errorf("default normalized value = %f, want 0.5", p.GetValue())
	}
	if p.GetPlainValue() != 1 {
		t.Errorf("default plain value = %f, want 1", p.GetPlainValue())
	}

	tests := []struct {
		name       string
		normalized float64
		want       float64
	}{
		{"Zero", 0, 0},
		{"One", 1, 1},
		{"Mid", 0.25, 0.25},
		{"BelowRange", -0.5, 0},
		{"AboveRange", 7, 1},
		{"NaN", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.SetValue(tt.normalized)
			if p.GetValue() != tt.want {
				t.Errorf("GetValue() = %f, want %f", p.GetValue(), tt.want)
			}
		})
	}

	p.SetPlainValue(2)
	if math.Abs(p.GetValue()-0.75) > 1e-12 {
		t.Errorf("SetPlainValue(2) gives normalized %f, want 0.75", p.GetValue())
	}

	p.Reset()
	if p.GetPlainValue() != 1 {
		t.Errorf("Reset gives %f, want 1", p.GetPlainValue())
	}
}

func TestParameterSteps(t *testing.T) {
	p := IntegerParameter(2, "Rule", 0, 255, 90).Build()

	if p.Int() != 90 {
		t.Errorf("default rule = %d, want 90", p.Int())
	}

	// Values between steps snap to the grid.
	p.SetValue(30.4 / 255)
	if p.GetPlainValue() != 30 {
		t.Errorf("plain value = %f, want 30", p.GetPlainValue())
	}
	if p.FormatValue(p.GetValue()) != "30" {
		t.Errorf("FormatValue = %s, want 30", p.FormatValue(p.GetValue()))
	}

	n, err := p.ParseValue("200")
	if err != nil {
		t.Fatal(err)
	}
	p.SetValue(n)
	if p.Int() != 200 {
		t.Errorf("parsed rule = %d, want 200", p.Int())
	}

	if _, err := p.ParseValue("lots"); err == nil {
		t.Error("expected an error for a non-numeric value")
	}
}

func TestParameterDegenerateRange(t *testing.T) {
	p := New(3, "Fixed").Range(2, 2).Build()
	if p.Normalize(5) != 0 {
		t.Error("Normalize on an empty range should be 0")
	}
	p.SetPlainValue(5)
	if p.GetPlainValue() != 2 {
		t.Errorf("plain value = %f, want 2", p.GetPlainValue())
	}
}

func TestParameterString(t *testing.T) {
	tests := []struct {
		name  string
		param *Parameter
		want  string
	}{
		{"Default", New(1, "Gain").Range(0, 2).Default(1).Build(), "1.00"},
		{"WithUnit", New(2, "Time").Range(0, 10).Default(5).Unit("s").Build(), "5.00 s"},
		{"Formatter", VoltageParameter(3, "Offset", -5, 5, 0).Build(), "0.00 V"},
		{"Toggle", ToggleParameter(4, "Quantize", true).Build(), "On"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.param.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParameterConcurrentAccess(t *testing.T) {
	p := New(1, "Position").Build()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			p.SetValue(float64(i%100) / 100)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if v := p.GetValue(); v < 0 || v > 1 {
				t.Errorf("read out-of-range value %f", v)
				return
			}
		}
	}()
	wg.Wait()
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	rule := IntegerParameter(10, "Rule", 0, 255, 90).Build()
	seed := IntegerParameter(11, "Seed", 0, 255, 30).ShortName("sd").Build()
	if err := r.Add(rule, seed); err != nil {
		t.Fatal(err)
	}

	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
	if r.Get(10) != rule || r.Get(99) != nil {
		t.Error("Get returned the wrong parameter")
	}
	if r.GetByIndex(1) != seed || r.GetByIndex(2) != nil || r.GetByIndex(-1) != nil {
		t.Error("GetByIndex returned the wrong parameter")
	}
	if r.GetByName("RULE") != rule || r.GetByName("sd") != seed || r.GetByName("nope") != nil {
		t.Error("GetByName returned the wrong parameter")
	}

	all := r.All()
	if len(all) != 2 || all[0] != rule || all[1] != seed {
		t.Error("All should keep registration order")
	}

	err := r.Add(IntegerParameter(10, "Other", 0, 1, 0).Build())
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if r.Count() != 2 {
		t.Error("duplicate should not be registered")
	}

	rule.SetPlainValue(150)
	seed.SetPlainValue(1)
	r.ResetAll()
	if rule.Int() != 90 || seed.Int() != 30 {
		t.Errorf("ResetAll gives rule %d seed %d", rule.Int(), seed.Int())
	}
}

func BenchmarkParameterGetPlainValue(b *testing.B) {
	p := IntegerParameter(1, "Rule", 0, 255, 90).Build()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = p.GetPlainValue()
	}
}
