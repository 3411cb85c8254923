// Package audio provides the sample-domain primitives shared by the live
// capture path and the file decode path: PCM conversion, mono downmix,
// rate conversion, and level metering. All functions are pure and safe for
// concurrent use.
package audio

import "encoding/binary"

// ConvertS16 converts signed 16-bit PCM samples to float32 normalized to
// the range [-1.0, 1.0]. A full-scale negative sample (-32768) maps to
// exactly -1.0; a full-scale positive sample (32767) maps to just under 1.0.
func ConvertS16(raw []int16) []float32 {
	out := make([]float32, len(raw))
	for i, s := range raw {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// ConvertS16LE converts little-endian 16-bit PCM bytes to normalized
// float32 samples. Any trailing odd byte is ignored.
func ConvertS16LE(pcm []byte) []float32 {
	n := len(pcm) / 2
	out := make([]float32, n)
	for i := range n {
		s := int16(binary.LittleEndian.Uint16(pcm[i*2 : i*2+2]))
		out[i] = float32(s) / 32768.0
	}
	return out
}

// DownmixMono collapses interleaved multi-channel samples to mono by
// averaging the channels of each frame. For channels <= 1 the input is
// returned unchanged. Trailing samples that do not fill a whole frame are
// dropped.
func DownmixMono(input []float32, channels int) []float32 {
	if channels <= 1 {
		return input
	}
	frames := len(input) / channels
	mono := make([]float32, frames)
	for i := range frames {
		var sum float32
		for ch := range channels {
			sum += input[i*channels+ch]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}
