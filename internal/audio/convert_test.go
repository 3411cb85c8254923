package audio

import (
	"math"
	"testing"
)

func TestConvertS16FullScale(t *testing.T) {
	out := ConvertS16([]int16{32767, -32768, 0})

	if len(out) != 3 {
		t.Fatalf("ConvertS16() returned %d samples, want 3", len(out))
	}
	if math.Abs(float64(out[0])-0.99997) > 1e-4 {
		t.Errorf("ConvertS16(32767) = %f, want ~0.99997", out[0])
	}
	if out[1] != -1.0 {
		t.Errorf("ConvertS16(-32768) = %f, want exactly -1.0", out[1])
	}
	if out[2] != 0.0 {
		t.Errorf("ConvertS16(0) = %f, want 0.0", out[2])
	}
}

func TestConvertS16LE(t *testing.T) {
	// 0x4000 = 16384 -> 0.5, 0xC000 = -16384 -> -0.5
	pcm := []byte{0x00, 0x40, 0x00, 0xC0}
	out := ConvertS16LE(pcm)

	if len(out) != 2 {
		t.Fatalf("ConvertS16LE() returned %d samples, want 2", len(out))
	}
	if out[0] != 0.5 {
		t.Errorf("out[0] = %f, want 0.5", out[0])
	}
	if out[1] != -0.5 {
		t.Errorf("out[1] = %f, want -0.5", out[1])
	}
}

func TestConvertS16LEOddTrailingByte(t *testing.T) {
	pcm := []byte{0x00, 0x40, 0x7F}
	out := ConvertS16LE(pcm)

	if len(out) != 1 {
		t.Errorf("ConvertS16LE() with odd input returned %d samples, want 1", len(out))
	}
}

func TestDownmixMonoStereo(t *testing.T) {
	input := []float32{1.0, -1.0, 0.5, 0.5}
	out := DownmixMono(input, 2)

	want := []float32{0.0, 0.5}
	if len(out) != len(want) {
		t.Fatalf("DownmixMono() returned %d samples, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %f, want %f", i, out[i], want[i])
		}
	}
}

func TestDownmixMonoPassthrough(t *testing.T) {
	input := []float32{0.1, 0.2, 0.3}
	out := DownmixMono(input, 1)

	if len(out) != 3 {
		t.Fatalf("DownmixMono() mono returned %d samples, want 3", len(out))
	}
	for i := range input {
		if out[i] != input[i] {
			t.Errorf("out[%d] = %f, want %f", i, out[i], input[i])
		}
	}
}

func TestDownmixMonoDropsPartialFrame(t *testing.T) {
	// Five samples at two channels: the trailing half frame is dropped.
	input := []float32{1.0, 0.0, 0.0, 1.0, 0.7}
	out := DownmixMono(input, 2)

	if len(out) != 2 {
		t.Errorf("DownmixMono() returned %d samples, want 2", len(out))
	}
}
