package media

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV writes a 16-bit PCM test fixture.
func writeWAV(t *testing.T, path string, rate, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("writing wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("closing wav: %v", err)
	}
}

func TestDecodeWAVStereoResampled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	data := make([]int, 44100*2)
	for i := range data {
		data[i] = 8192
	}
	writeWAV(t, path, 44100, 2, data)

	track, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(track.Samples) != 16000 {
		t.Fatalf("decoded %d samples, want 16000", len(track.Samples))
	}
	if track.Duration() != time.Second {
		t.Errorf("Duration() = %v, want 1s", track.Duration())
	}
	for i, s := range track.Samples {
		if math.Abs(float64(s)-0.25) > 1e-3 {
			t.Fatalf("sample %d = %v, want 0.25", i, s)
		}
	}
}

func TestDecodeWAVMonoPassthrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	writeWAV(t, path, 16000, 1, []int{0, 16384, -16384, 32767})

	track, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0}
	if len(track.Samples) != len(want) {
		t.Fatalf("decoded %d samples, want %d", len(track.Samples), len(want))
	}
	for i, w := range want {
		if track.Samples[i] != w {
			t.Errorf("sample %d = %v, want %v", i, track.Samples[i], w)
		}
	}
}

func TestDecodeRejectsNonAudio(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("this is not audio at all"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	_, err := Decode(path)
	if !errors.Is(err, ErrNoAudioTrack) {
		t.Errorf("Decode() error = %v, want ErrNoAudioTrack", err)
	}
}

func TestDecodeEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	_, err := Decode(path)
	if !errors.Is(err, ErrNoAudioTrack) {
		t.Errorf("Decode() error = %v, want ErrNoAudioTrack", err)
	}
}

func TestDecodeMissingFile(t *testing.T) {
	_, err := Decode(filepath.Join(t.TempDir(), "absent.wav"))
	if err == nil {
		t.Fatal("Decode() should fail for a missing file")
	}
	if errors.Is(err, ErrNoAudioTrack) {
		t.Errorf("missing file should not map to ErrNoAudioTrack, got %v", err)
	}
}

func TestSniffContainer(t *testing.T) {
	tests := []struct {
		name    string
		header  []byte
		want    container
		wantErr bool
	}{
		{"wav", []byte("RIFF\x00\x00\x00\x00WAVE"), containerWAV, false},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), containerFLAC, false},
		{"mp3 id3 tag", []byte("ID3\x04\x00\x00\x00\x00\x00\x00"), containerMP3, false},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, containerMP3, false},
		{"bad frame sync", []byte{0xFF, 0x15, 0x00, 0x00}, 0, true},
		{"garbage", []byte("hello world, not audio"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sniffContainer(bytes.NewReader(tt.header))
			if (err != nil) != tt.wantErr {
				t.Fatalf("sniffContainer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("sniffContainer() = %v, want %v", got, tt.want)
			}
		})
	}
}
