package audio

import "math"

// RMS returns the root-mean-square amplitude of the samples, 0 for an
// empty slice.
func RMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}

// Level maps the RMS amplitude of the samples to a display level in
// [0.0, 1.0]. Speech at a comfortable distance rarely exceeds an RMS of
// about 0.17, so the gain of 6 puts normal speech near full scale.
func Level(samples []float32) float32 {
	l := RMS(samples) * 6.0
	if l > 1.0 {
		return 1.0
	}
	return l
}
