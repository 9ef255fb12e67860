// Package instrument assembles the wavetable voice and the automaton
// sequencer into playable modules with parameters, patch points and
// persisted state, and patches them together for offline rendering.
package instrument

import "github.com/iggylabs/tablesynth/pkg/dsp/wavetable"

// controlInterval is the number of samples between control-rate updates.
const controlInterval = 8

// Port is a monophonic patch point in volts.
type Port struct {
	Voltage   float32
	Connected bool
}

// Set connects the port and sets its voltage.
func (p *Port) Set(v float32) {
	p.Voltage = v
	p.Connected = true
}

// Disconnect unplugs the port.
func (p *Port) Disconnect() {
	*p = Port{}
}

// PolyPort is a polyphonic patch point carrying up to
// wavetable.MaxChannels voltages. Zero channels means unplugged.
type PolyPort struct {
	Voltages [wavetable.MaxChannels]float32
	Channels int
}

// SetChannels connects the port with n channels, clamped to
// 0..wavetable.MaxChannels.
func (p *PolyPort) SetChannels(n int) {
	p.Channels = min(max(n, 0), wavetable.MaxChannels)
}

// Set connects a single-channel port at v.
func (p *PolyPort) Set(v float32) {
	p.Voltages[0] = v
	if p.Channels == 0 {
		p.Channels = 1
	}
}

// Connected reports whether any channel is present.
func (p *PolyPort) Connected() bool {
	return p.Channels > 0
}

// Voltage returns channel c. A single-channel signal feeds every channel.
func (p *PolyPort) Voltage(c int) float32 {
	switch {
	case p.Channels == 1:
		return p.Voltages[0]
	case c < 0 || c >= p.Channels:
		return 0
	}
	return p.Voltages[c]
}
