// Package media decodes audio files into the 16 kHz mono float32 form the
// inference sinks consume. WAV, FLAC and MP3 containers are supported; the
// container is sniffed from the file header, not the extension.
package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/tphakala/flac"

	"github.com/notune/speechcap/internal/audio"
)

// targetSampleRate matches what the transcription engine expects.
const targetSampleRate = 16000

// ErrNoAudioTrack reports a file whose contents hold no decodable audio.
var ErrNoAudioTrack = errors.New("no audio track")

// DecodedTrack is a fully decoded file: 16 kHz mono samples ready for a sink.
type DecodedTrack struct {
	Samples []float32
}

// Duration reports the track length.
func (t *DecodedTrack) Duration() time.Duration {
	return time.Duration(len(t.Samples)) * time.Second / targetSampleRate
}

// Decode reads the file at path, decodes it and converts the audio to
// 16 kHz mono. Files that are not a recognized audio container yield
// ErrNoAudioTrack.
func Decode(path string) (*DecodedTrack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	kind, err := sniffContainer(f)
	if err != nil {
		return nil, err
	}

	var (
		samples  []float32
		rate     int
		channels int
	)
	switch kind {
	case containerWAV:
		samples, rate, channels, err = decodeWAV(f)
	case containerFLAC:
		samples, rate, channels, err = decodeFLAC(f)
	case containerMP3:
		samples, rate, channels, err = decodeMP3(f)
	}
	if err != nil {
		return nil, err
	}

	mono := audio.DownmixMono(samples, channels)
	return &DecodedTrack{Samples: audio.Resample(mono, rate, targetSampleRate)}, nil
}

type container int

const (
	containerWAV container = iota
	containerFLAC
	containerMP3
)

// sniffContainer identifies the audio container from the file magic and
// rewinds the reader.
func sniffContainer(r io.ReadSeeker) (container, error) {
	var magic [12]byte
	n, err := io.ReadFull(r, magic[:])
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("%w: %v", ErrNoAudioTrack, err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding input: %w", err)
	}
	header := magic[:n]

	switch {
	case len(header) >= 12 && string(header[0:4]) == "RIFF" && string(header[8:12]) == "WAVE":
		return containerWAV, nil
	case len(header) >= 4 && string(header[0:4]) == "fLaC":
		return containerFLAC, nil
	case len(header) >= 3 && string(header[0:3]) == "ID3":
		return containerMP3, nil
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		return containerMP3, nil
	default:
		return 0, ErrNoAudioTrack
	}
}

func decodeWAV(f *os.File) ([]float32, int, int, error) {
	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, 0, 0, fmt.Errorf("%w: invalid wav", ErrNoAudioTrack)
	}

	divisor, err := bitDepthDivisor(int(dec.BitDepth))
	if err != nil {
		return nil, 0, 0, err
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding wav: %w", err)
	}

	samples := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		samples[i] = float32(s) / divisor
	}
	return samples, buf.Format.SampleRate, buf.Format.NumChannels, nil
}

func decodeFLAC(f *os.File) ([]float32, int, int, error) {
	dec, err := flac.NewDecoder(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("opening flac: %w", err)
	}

	divisor, err := bitDepthDivisor(dec.BitsPerSample)
	if err != nil {
		return nil, 0, 0, err
	}
	stride := dec.BitsPerSample / 8

	var samples []float32
	for {
		frame, err := dec.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, 0, 0, fmt.Errorf("decoding flac: %w", err)
		}

		for i := 0; i+stride <= len(frame); i += stride {
			var sample int32
			switch dec.BitsPerSample {
			case 16:
				sample = int32(int16(binary.LittleEndian.Uint16(frame[i:])))
			case 24:
				sample = int32(frame[i]) | int32(frame[i+1])<<8 | int32(int8(frame[i+2]))<<16
			case 32:
				sample = int32(binary.LittleEndian.Uint32(frame[i:]))
			}
			samples = append(samples, float32(sample)/divisor)
		}
	}
	return samples, dec.SampleRate, dec.NChannels, nil
}

func decodeMP3(f *os.File) ([]float32, int, int, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding mp3: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding mp3: %w", err)
	}
	// go-mp3 always emits 16-bit stereo at the stream rate.
	return audio.ConvertS16LE(pcm), dec.SampleRate(), 2, nil
}

func bitDepthDivisor(bits int) (float32, error) {
	switch bits {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth %d", bits)
	}
}
