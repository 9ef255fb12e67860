package sequencer

import "strings"

const (
	GridWidth = 64
	GridRows  = 64
)

// Grid is a space-time picture of the automaton: row 0 is the seed byte
// tiled across GridWidth cells (MSB leftmost), and each following row is
// the rule applied to the row above with wraparound. Because the width is
// a multiple of 8, every row is the tiled state of successive Step calls.
type Grid struct {
	rule  uint8
	seed  uint8
	cells [GridRows][GridWidth]bool
}

// NewGrid builds the grid for rule and seed.
func NewGrid(rule, seed uint8) *Grid {
	g := &Grid{}
	g.build(rule, seed)
	return g
}

// Update rebuilds the grid if rule or seed changed and reports whether it did.
func (g *Grid) Update(rule, seed uint8) bool {
	if rule == g.rule && seed == g.seed {
		return false
	}
	g.build(rule, seed)
	return true
}

func (g *Grid) build(rule, seed uint8) {
	g.rule, g.seed = rule, seed

	for j := 0; j < GridWidth; j++ {
		g.cells[0][j] = seed>>(7-j%8)&1 == 1
	}

	for i := 1; i < GridRows; i++ {
		prev := &g.cells[i-1]
		for j := 0; j < GridWidth; j++ {
			var n uint8
			if prev[(j+GridWidth-1)%GridWidth] {
				n |= 4
			}
			if prev[j] {
				n |= 2
			}
			if prev[(j+1)%GridWidth] {
				n |= 1
			}
			g.cells[i][j] = rule>>n&1 == 1
		}
	}
}

// Cell reports whether the cell at row, col is alive. Out-of-range
// coordinates are dead.
func (g *Grid) Cell(row, col int) bool {
	if row < 0 || row >= GridRows || col < 0 || col >= GridWidth {
		return false
	}
	return g.cells[row][col]
}

// Rule returns the rule the grid was built with.
func (g *Grid) Rule() uint8 { return g.rule }

// Seed returns the seed the grid was built with.
func (g *Grid) Seed() uint8 { return g.seed }

// String renders the grid with '#' for live cells and '.' for dead ones.
func (g *Grid) String() string {
	var sb strings.Builder
	sb.Grow(GridRows * (GridWidth + 1))
	for i := range g.cells {
		for _, alive := range g.cells[i] {
			if alive {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
