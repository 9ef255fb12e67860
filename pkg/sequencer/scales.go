package sequencer

import "strings"

// Scale selects one of the fixed note tables.
type Scale int

const (
	Ionian Scale = iota
	Aeolian
	Dorian
	Phrygian
	Lydian
	Mixolydian
	MajorPentatonic
	MinorPentatonic
	Shang
	Jiao
	Zhi
	Todi
	Purvi
	Marva
	Bhairav
	AhirBhairav
	Chromatic
	NumScales
)

// ScaleLength is the number of notes in every scale table; note indices
// run 0..ScaleLength-1.
const ScaleLength = 29

var scaleNames = [NumScales]string{
	"Ionian",
	"Aeolian",
	"Dorian",
	"Phrygian",
	"Lydian",
	"Mixolydian",
	"Major pentatonic",
	"Minor pentatonic",
	"Shang",
	"Jiao",
	"Zhi",
	"Todi",
	"Purvi",
	"Marva",
	"Bhairav",
	"Ahir bhairav",
	"Chromatic",
}

// Semitone offsets from the base note, ascending.
var scaleTable = [NumScales][ScaleLength]int{
	{0, 2, 4, 5, 7, 9, 11, 12, 14, 16, 17, 19, 21, 23, 24, 26, 28, 29, 31, 33, 35, 36, 38, 40, 41, 43, 45, 47, 48},
	{0, 2, 3, 5, 7, 8, 10, 12, 14, 15, 17, 19, 20, 22, 24, 26, 27, 29, 31, 32, 34, 36, 38, 39, 41, 43, 44, 46, 48},
	{0, 2, 3, 5, 7, 9, 10, 12, 14, 15, 17, 19, 21, 22, 24, 26, 27, 29, 31, 33, 34, 36, 38, 39, 41, 43, 45, 46, 48},
	{0, 1, 3, 5, 7, 8, 10, 12, 13, 15, 17, 19, 20, 22, 24, 25, 27, 29, 31, 32, 34, 36, 37, 39, 41, 43, 44, 46, 48},
	{0, 2, 4, 6, 7, 9, 11, 12, 14, 16, 18, 19, 21, 23, 24, 26, 28, 30, 31, 33, 35, 36, 38, 40, 42, 43, 45, 47, 48},
	{0, 2, 4, 5, 7, 9, 10, 12, 14, 16, 17, 19, 21, 22, 24, 26, 28, 29, 31, 33, 34, 36, 38, 40, 41, 43, 45, 46, 48},
	{0, 3, 5, 7, 10, 12, 15, 17, 19, 22, 24, 27, 29, 31, 34, 36, 39, 41, 43, 46, 48, 51, 53, 55, 58, 60, 63, 65, 67},
	{0, 2, 4, 7, 9, 12, 14, 16, 19, 21, 24, 26, 28, 31, 33, 36, 38, 40, 43, 45, 48, 50, 52, 55, 57, 60, 62, 64, 67},
	{0, 2, 5, 7, 10, 12, 14, 17, 19, 22, 24, 26, 29, 31, 34, 36, 38, 41, 43, 46, 48, 50, 53, 55, 58, 60, 62, 65, 67},
	{0, 3, 5, 8, 10, 12, 15, 17, 20, 22, 24, 27, 29, 32, 34, 36, 39, 41, 44, 46, 48, 51, 53, 56, 58, 60, 63, 65, 68},
	{0, 2, 5, 7, 9, 12, 14, 17, 19, 21, 24, 26, 29, 31, 33, 36, 38, 41, 43, 45, 48, 50, 53, 55, 57, 60, 62, 65, 67},
	{0, 1, 3, 6, 7, 8, 11, 12, 13, 15, 18, 19, 20, 23, 24, 25, 27, 30, 31, 32, 35, 36, 37, 39, 42, 43, 44, 47, 48},
	{0, 1, 4, 6, 7, 8, 11, 12, 13, 16, 18, 19, 20, 23, 24, 25, 28, 30, 31, 32, 35, 36, 37, 40, 42, 43, 44, 47, 48},
	{0, 1, 4, 6, 7, 9, 11, 12, 13, 16, 18, 19, 21, 23, 24, 25, 28, 30, 31, 33, 35, 36, 37, 40, 42, 43, 45, 47, 48},
	{0, 1, 4, 5, 7, 8, 11, 12, 13, 16, 17, 19, 20, 23, 24, 25, 28, 29, 31, 32, 35, 36, 37, 40, 41, 43, 44, 47, 48},
	{0, 1, 4, 5, 7, 9, 10, 12, 13, 16, 17, 19, 21, 22, 24, 25, 28, 29, 31, 33, 35, 36, 37, 40, 41, 43, 45, 47, 48},
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28},
}

// String returns the display name of the scale.
func (s Scale) String() string {
	if s < 0 || s >= NumScales {
		return "Unknown"
	}
	return scaleNames[s]
}

// ScaleNames returns the display names of all scales in index order.
func ScaleNames() []string {
	return append([]string(nil), scaleNames[:]...)
}

// ParseScale finds a scale by display name, ignoring case.
func ParseScale(name string) (Scale, bool) {
	for i, n := range scaleNames {
		if strings.EqualFold(n, name) {
			return Scale(i), true
		}
	}
	return Ionian, false
}

// Offset returns the semitone offset of note index in the scale. Both are
// clamped into range.
func (s Scale) Offset(index int) int {
	s = min(max(s, 0), NumScales-1)
	index = min(max(index, 0), ScaleLength-1)
	return scaleTable[s][index]
}
