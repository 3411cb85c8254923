package audio

// Resample converts input from fromRate to toRate using linear
// interpolation. The output length is floor(len(input) * toRate / fromRate).
// When the rates are equal it returns a copy of the input.
//
// Linear interpolation is not band-limited and will alias on wideband
// material; for speech-bandwidth content headed into a 16 kHz recognizer it
// is sufficient. Each output sample is the two-point blend of the straddling
// input samples.
func Resample(input []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate {
		out := make([]float32, len(input))
		copy(out, input)
		return out
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(input)) / ratio)
	out := make([]float32, outLen)

	for i := range outLen {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := float32(srcPos - float64(idx))

		switch {
		case idx+1 < len(input):
			out[i] = input[idx]*(1-frac) + input[idx+1]*frac
		case idx < len(input):
			out[i] = input[idx]
		default:
			out[i] = 0
		}
	}
	return out
}
