package midi

import (
	"math"
	"testing"
)

func TestNoteOnEvent(t *testing.T) {
	event := NoteOnEvent{
		BaseEvent: BaseEvent{
			EventChannel: 0,
			Offset:       100,
		},
		NoteNumber: 60,
		Velocity:   64,
	}

	if event.Type() != EventTypeNoteOn {
		t.Errorf("Expected type %v, got %v", EventTypeNoteOn, event.Type())
	}
	if event.Channel() != 0 {
		t.Errorf("Expected channel 0, got %d", event.Channel())
	}
	if event.SampleOffset() != 100 {
		t.Errorf("Expected offset 100, got %d", event.SampleOffset())
	}

	expected := "NoteOn{ch:0, note:60, vel:64, offset:100}"
	if event.String() != expected {
		t.Errorf("Expected string %s, got %s", expected, event.String())
	}
}

func TestControlChangeEvent(t *testing.T) {
	event := ControlChangeEvent{
		BaseEvent:  BaseEvent{Offset: 50},
		Controller: CCModWheel,
		Value:      127,
	}

	if event.Type() != EventTypeControlChange {
		t.Errorf("Expected type %v, got %v", EventTypeControlChange, event.Type())
	}
	if event.NormalizedValue() != 1 {
		t.Errorf("Expected normalized 1, got %f", event.NormalizedValue())
	}

	expected := "CC{ch:0, ctrl:1, val:127, offset:50}"
	if event.String() != expected {
		t.Errorf("Expected string %s, got %s", expected, event.String())
	}
}

func TestEventTypes(t *testing.T) {
	tests := []struct {
		event Event
		typ   EventType
		name  string
		str   string
	}{
		{NoteOnEvent{BaseEvent: BaseEvent{Offset: 1}}, EventTypeNoteOn, "NoteOn", "NoteOn{ch:0, note:0, vel:0, offset:1}"},
		{NoteOffEvent{BaseEvent: BaseEvent{EventChannel: 3, Offset: 2}, NoteNumber: 72}, EventTypeNoteOff, "NoteOff", "NoteOff{ch:3, note:72, vel:0, offset:2}"},
		{ControlChangeEvent{BaseEvent: BaseEvent{Offset: 3}}, EventTypeControlChange, "ControlChange", "CC{ch:0, ctrl:0, val:0, offset:3}"},
		{ClockEvent{BaseEvent{Offset: 4}}, EventTypeClock, "Clock", "Clock{offset:4}"},
		{ResetEvent{BaseEvent{Offset: 5}}, EventTypeReset, "Reset", "Reset{offset:5}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.event.Type() != tt.typ {
				t.Errorf("Expected type %v, got %v", tt.typ, tt.event.Type())
			}
			if tt.typ.String() != tt.name {
				t.Errorf("Expected type name %s, got %s", tt.name, tt.typ.String())
			}
			if tt.event.String() != tt.str {
				t.Errorf("Expected string %s, got %s", tt.str, tt.event.String())
			}
		})
	}

	if EventType(99).String() != "Unknown" {
		t.Error("Expected Unknown for invalid type")
	}
}

func TestNoteToFrequency(t *testing.T) {
	tests := []struct {
		note uint8
		freq float64
	}{
		{69, 440.0},
		{60, 261.6255653},
		{57, 220.0},
		{81, 880.0},
	}

	for _, tt := range tests {
		freq := NoteToFrequency(tt.note, 0)
		if math.Abs(freq-tt.freq) > 1e-6 {
			t.Errorf("For note %d, expected frequency %f, got %f", tt.note, tt.freq, freq)
		}
	}
}

func TestNoteToPitch(t *testing.T) {
	tests := []struct {
		note  uint8
		pitch float64
	}{
		{60, 0},
		{72, 1},
		{48, -1},
		{66, 0.5},
	}

	for _, tt := range tests {
		if got := NoteToPitch(tt.note); math.Abs(got-tt.pitch) > 1e-12 {
			t.Errorf("NoteToPitch(%d) = %f, want %f", tt.note, got, tt.pitch)
		}
	}
}

func TestClampNote(t *testing.T) {
	if ClampNote(-4) != 0 || ClampNote(60) != 60 || ClampNote(200) != 127 {
		t.Error("ClampNote should clamp to 0..127")
	}
}

func TestNoteNumberToName(t *testing.T) {
	tests := []struct {
		note uint8
		name string
	}{
		{60, "C4"},
		{69, "A4"},
		{0, "C-1"},
		{127, "G9"},
		{61, "C#4"},
		{70, "A#4"},
	}

	for _, tt := range tests {
		name := NoteNumberToName(tt.note)
		if name != tt.name {
			t.Errorf("For note %d, expected name %s, got %s", tt.note, tt.name, name)
		}
	}
}
