// Package midi defines the timed events that drive the patch renderer:
// clock ticks from the sequencer clock, note on/off for the voice
// allocator and controller changes for the morph position.
package midi

import (
	"fmt"
	"math"
)

type EventType uint8

const (
	EventTypeNoteOff EventType = iota
	EventTypeNoteOn
	EventTypeControlChange
	EventTypeClock
	EventTypeReset
)

func (t EventType) String() string {
	switch t {
	case EventTypeNoteOff:
		return "NoteOff"
	case EventTypeNoteOn:
		return "NoteOn"
	case EventTypeControlChange:
		return "ControlChange"
	case EventTypeClock:
		return "Clock"
	case EventTypeReset:
		return "Reset"
	default:
		return "Unknown"
	}
}

// Event is anything scheduled at a sample position.
type Event interface {
	Type() EventType
	Channel() uint8
	SampleOffset() int32
	String() string
}

type BaseEvent struct {
	EventChannel uint8
	Offset       int32
}

func (e BaseEvent) Channel() uint8 {
	return e.EventChannel
}

func (e BaseEvent) SampleOffset() int32 {
	return e.Offset
}

type NoteOnEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOnEvent) Type() EventType {
	return EventTypeNoteOn
}

func (e NoteOnEvent) String() string {
	return fmt.Sprintf("NoteOn{ch:%d, note:%d, vel:%d, offset:%d}",
		e.EventChannel, e.NoteNumber, e.Velocity, e.Offset)
}

type NoteOffEvent struct {
	BaseEvent
	NoteNumber uint8
	Velocity   uint8
}

func (e NoteOffEvent) Type() EventType {
	return EventTypeNoteOff
}

func (e NoteOffEvent) String() string {
	return fmt.Sprintf("NoteOff{ch:%d, note:%d, vel:%d, offset:%d}",
		e.EventChannel, e.NoteNumber, e.Velocity, e.Offset)
}

type ControlChangeEvent struct {
	BaseEvent
	Controller uint8
	Value      uint8
}

func (e ControlChangeEvent) Type() EventType {
	return EventTypeControlChange
}

func (e ControlChangeEvent) String() string {
	return fmt.Sprintf("CC{ch:%d, ctrl:%d, val:%d, offset:%d}",
		e.EventChannel, e.Controller, e.Value, e.Offset)
}

// NormalizedValue returns Value scaled to 0..1.
func (e ControlChangeEvent) NormalizedValue() float64 {
	return float64(e.Value) / 127
}

const (
	CCModWheel    uint8 = 1
	CCAllNotesOff uint8 = 123
)

// ClockEvent is one sequencer clock tick.
type ClockEvent struct {
	BaseEvent
}

func (e ClockEvent) Type() EventType {
	return EventTypeClock
}

func (e ClockEvent) String() string {
	return fmt.Sprintf("Clock{offset:%d}", e.Offset)
}

// ResetEvent returns the sequencer to its seed.
type ResetEvent struct {
	BaseEvent
}

func (e ResetEvent) Type() EventType {
	return EventTypeReset
}

func (e ResetEvent) String() string {
	return fmt.Sprintf("Reset{offset:%d}", e.Offset)
}

// NoteToFrequency converts a MIDI note to Hz; tuningA4 of 0 means 440.
func NoteToFrequency(note uint8, tuningA4 float64) float64 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	return tuningA4 * math.Exp2((float64(note)-69.0)/12.0)
}

// NoteToPitch converts a MIDI note to octaves relative to middle C (60),
// the pitch unit of the wavetable voice.
func NoteToPitch(note uint8) float64 {
	return (float64(note) - 60) / 12
}

// ClampNote converts an int note to the MIDI range 0..127.
func ClampNote(note int) uint8 {
	return uint8(min(max(note, 0), 127))
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteNumberToName returns names such as "C4" for note 60.
func NoteNumberToName(note uint8) string {
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}
