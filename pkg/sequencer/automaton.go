// Package sequencer implements an 8-bit elementary cellular automaton that
// is stepped by a clock and quantized to musical notes.
//
// Bit i of the state is a cell whose neighbourhood is (bit i+1, bit i,
// bit i-1), wrapping at the ends. Rules use Wolfram numbering: the output
// for neighbourhood n is bit n of the rule, so the rule's MSB answers
// neighbourhood 111.
package sequencer

import "math/bits"

// Step evolves state by one generation under rule.
func Step(state, rule uint8) uint8 {
	left := bits.RotateLeft8(state, -1)
	right := bits.RotateLeft8(state, 1)

	var next uint8
	for i := 0; i < 8; i++ {
		n := (left>>i&1)<<2 | (state>>i&1)<<1 | right>>i&1
		next |= (rule >> n & 1) << i
	}
	return next
}
