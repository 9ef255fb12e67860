package sequencer

// NoteToCV converts a MIDI note to a 1 V/octave control voltage, 0 V at
// BaseNote.
func NoteToCV(note int) float32 {
	return float32(note-BaseNote) / 12
}

// CVRange is the output span for raw (unquantized) state CV.
type CVRange int

const (
	Range0To10V CVRange = iota
	RangeBipolar5V
	Range0To5V
	Range0To1V
	NumCVRanges
)

var cvRanges = [NumCVRanges]struct {
	name     string
	min, max float32
}{
	{"0V to 10V", 0, 10},
	{"-5V to 5V", -5, 5},
	{"0V to 5V", 0, 5},
	{"0V to 1V", 0, 1},
}

// String returns the display name of the range.
func (r CVRange) String() string {
	if r < 0 || r >= NumCVRanges {
		return "Unknown"
	}
	return cvRanges[r].name
}

// Bounds returns the voltage span of the range.
func (r CVRange) Bounds() (lo, hi float32) {
	r = min(max(r, 0), NumCVRanges-1)
	return cvRanges[r].min, cvRanges[r].max
}

// StateToCV maps state 0..255 linearly onto the range.
func (r CVRange) StateToCV(state uint8) float32 {
	lo, hi := r.Bounds()
	return Rescale(float32(state), 0, 255, lo, hi)
}

// Rescale maps x linearly from [inLo, inHi] to [outLo, outHi] without
// clamping.
func Rescale(x, inLo, inHi, outLo, outHi float32) float32 {
	return outLo + (x-inLo)/(inHi-inLo)*(outHi-outLo)
}
