// Package voice assigns notes to the wavetable channels of a patch.
package voice

import (
	"github.com/iggylabs/tablesynth/pkg/midi"
)

// AllocationMode defines how voices are allocated
type AllocationMode int

const (
	// Poly mode - each note gets its own voice
	ModePoly AllocationMode = iota
	// Mono mode - only one voice active at a time
	ModeMono
	// Legato mode - mono with no retriggering on overlapping notes
	ModeLegato
)

func (m AllocationMode) String() string {
	switch m {
	case ModePoly:
		return "poly"
	case ModeMono:
		return "mono"
	case ModeLegato:
		return "legato"
	default:
		return "unknown"
	}
}

// ParseMode returns the mode named name.
func ParseMode(name string) (AllocationMode, bool) {
	for m := ModePoly; m <= ModeLegato; m++ {
		if m.String() == name {
			return m, true
		}
	}
	return ModePoly, false
}

// StealingMode defines how voices are stolen when all are in use
type StealingMode int

const (
	// StealOldest steals the oldest playing voice
	StealOldest StealingMode = iota
	// StealQuietest steals the voice with lowest amplitude
	StealQuietest
	// StealNone doesn't steal - new notes are ignored when full
	StealNone
)

// Voice is one channel of the patch.
type Voice interface {
	IsActive() bool
	GetNote() uint8
	// GetAmplitude returns the current envelope level (for steal quietest)
	GetAmplitude() float64
	// GetAge returns how long this voice has been playing (in samples)
	GetAge() int64
	TriggerNote(note uint8, velocity uint8)
	// GlideTo changes the note without retriggering the envelope
	GlideTo(note uint8)
	ReleaseNote()
	Stop()
}

const noVoice = -1

// Allocator maps notes to voices. It never allocates after construction
// and belongs to the audio goroutine.
type Allocator struct {
	voices        []Voice
	mode          AllocationMode
	stealingMode  StealingMode
	maxVoices     int
	noteToVoice   [128]int
	lastTriggered int

	// Mono/Legato mode state
	currentNote uint8
	noteHeld    bool
}

// NewAllocator creates a new voice allocator
func NewAllocator(voices []Voice) *Allocator {
	a := &Allocator{
		voices:        voices,
		mode:          ModePoly,
		stealingMode:  StealOldest,
		maxVoices:     len(voices),
		lastTriggered: -1,
	}
	a.clearMap()
	return a
}

func (a *Allocator) clearMap() {
	for i := range a.noteToVoice {
		a.noteToVoice[i] = noVoice
	}
}

// SetMode sets the allocation mode
func (a *Allocator) SetMode(mode AllocationMode) {
	a.mode = mode
	// Reset all voices when changing mode
	a.Reset()
}

func (a *Allocator) Mode() AllocationMode {
	return a.mode
}

// SetStealingMode sets the voice stealing mode
func (a *Allocator) SetStealingMode(mode StealingMode) {
	a.stealingMode = mode
}

// SetMaxVoices limits allocation to the first n voices, at least one.
// Voices beyond the new limit are stopped.
func (a *Allocator) SetMaxVoices(n int) {
	n = min(max(n, 1), len(a.voices))
	for i := n; i < a.maxVoices; i++ {
		a.release(i, true)
	}
	a.maxVoices = n
	if a.lastTriggered >= n {
		a.lastTriggered = -1
	}
}

func (a *Allocator) MaxVoices() int {
	return a.maxVoices
}

// ProcessEvent handles a MIDI event
func (a *Allocator) ProcessEvent(event midi.Event) {
	switch e := event.(type) {
	case midi.NoteOnEvent:
		if e.Velocity > 0 {
			a.NoteOn(e.NoteNumber, e.Velocity)
		} else {
			// Note on with velocity 0 is treated as note off
			a.NoteOff(e.NoteNumber)
		}
	case midi.NoteOffEvent:
		a.NoteOff(e.NoteNumber)
	case midi.ControlChangeEvent:
		if e.Controller == midi.CCAllNotesOff {
			a.ReleaseAll()
		}
	}
}

// NoteOn starts note and returns the index of the voice playing it, or -1
// when no voice could be found.
func (a *Allocator) NoteOn(note uint8, velocity uint8) int {
	if note > 127 {
		return noVoice
	}
	switch a.mode {
	case ModeMono:
		return a.noteOnMono(note, velocity)
	case ModeLegato:
		return a.noteOnLegato(note, velocity)
	default:
		return a.noteOnPoly(note, velocity)
	}
}

// NoteOff releases note if it is playing.
func (a *Allocator) NoteOff(note uint8) {
	if note > 127 {
		return
	}
	switch a.mode {
	case ModeMono, ModeLegato:
		a.noteOffMono(note)
	default:
		if idx := a.noteToVoice[note]; idx != noVoice {
			a.voices[idx].ReleaseNote()
			a.noteToVoice[note] = noVoice
		}
	}
}

// VoiceFor returns the voice index playing note, or -1.
func (a *Allocator) VoiceFor(note uint8) int {
	if note > 127 {
		return noVoice
	}
	return a.noteToVoice[note]
}

// ReleaseAll releases every held note, letting envelopes finish.
func (a *Allocator) ReleaseAll() {
	for note, idx := range a.noteToVoice {
		if idx != noVoice {
			a.voices[idx].ReleaseNote()
			a.noteToVoice[note] = noVoice
		}
	}
	a.noteHeld = false
}

// Reset stops all voices and clears allocations
func (a *Allocator) Reset() {
	for _, voice := range a.voices {
		voice.Stop()
	}
	a.clearMap()
	a.lastTriggered = -1
	a.currentNote = 0
	a.noteHeld = false
}

// GetActiveVoiceCount returns the number of active voices
func (a *Allocator) GetActiveVoiceCount() int {
	count := 0
	for _, voice := range a.voices[:a.maxVoices] {
		if voice.IsActive() {
			count++
		}
	}
	return count
}

// noteOnPoly handles poly mode note on
func (a *Allocator) noteOnPoly(note uint8, velocity uint8) int {
	// Retrigger the note on its existing voice
	if idx := a.noteToVoice[note]; idx != noVoice {
		a.voices[idx].TriggerNote(note, velocity)
		return idx
	}

	voiceIdx := a.findFreeVoice()
	if voiceIdx == noVoice {
		voiceIdx = a.stealVoice()
		if voiceIdx == noVoice {
			return noVoice
		}
	}

	// A released voice may still be mapped from its previous note.
	a.unmap(voiceIdx)
	a.voices[voiceIdx].TriggerNote(note, velocity)
	a.noteToVoice[note] = voiceIdx
	return voiceIdx
}

// noteOnMono handles mono mode note on
func (a *Allocator) noteOnMono(note uint8, velocity uint8) int {
	a.unmap(0)
	a.currentNote = note
	a.noteHeld = true
	a.voices[0].TriggerNote(note, velocity)
	a.noteToVoice[note] = 0
	return 0
}

// noteOnLegato handles legato mode note on
func (a *Allocator) noteOnLegato(note uint8, velocity uint8) int {
	if !a.noteHeld || !a.voices[0].IsActive() {
		return a.noteOnMono(note, velocity)
	}

	// Legato transition - change pitch without retriggering
	a.unmap(0)
	a.currentNote = note
	a.voices[0].GlideTo(note)
	a.noteToVoice[note] = 0
	return 0
}

// noteOffMono handles mono/legato mode note off
func (a *Allocator) noteOffMono(note uint8) {
	if a.noteHeld && note == a.currentNote {
		a.voices[0].ReleaseNote()
		a.noteToVoice[note] = noVoice
		a.noteHeld = false
	}
}

// unmap forgets whichever note points at voice idx.
func (a *Allocator) unmap(idx int) {
	note := a.voices[idx].GetNote()
	if a.noteToVoice[note] == idx {
		a.noteToVoice[note] = noVoice
	}
}

func (a *Allocator) release(idx int, stop bool) {
	a.unmap(idx)
	if stop {
		a.voices[idx].Stop()
	} else {
		a.voices[idx].ReleaseNote()
	}
}

// findFreeVoice finds an inactive voice
func (a *Allocator) findFreeVoice() int {
	// Use round-robin to distribute voices evenly
	start := a.lastTriggered
	for i := 0; i < a.maxVoices; i++ {
		idx := (start + i + 1) % a.maxVoices
		if !a.voices[idx].IsActive() {
			a.lastTriggered = idx
			return idx
		}
	}
	return noVoice
}

// stealVoice steals a voice based on the stealing mode
func (a *Allocator) stealVoice() int {
	if a.stealingMode == StealNone {
		return noVoice
	}

	bestIdx := noVoice
	var bestValue float64

	for i := 0; i < a.maxVoices; i++ {
		if !a.voices[i].IsActive() {
			continue
		}

		switch a.stealingMode {
		case StealOldest:
			age := float64(a.voices[i].GetAge())
			if bestIdx == noVoice || age > bestValue {
				bestIdx = i
				bestValue = age
			}
		case StealQuietest:
			amp := a.voices[i].GetAmplitude()
			if bestIdx == noVoice || amp < bestValue {
				bestIdx = i
				bestValue = amp
			}
		}
	}

	if bestIdx != noVoice {
		a.release(bestIdx, true)
	}
	return bestIdx
}
