package engine

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	serverSampleRate = 16000
	serverTimeout    = 60 * time.Second
)

// Compile-time assertion that ServerTranscriber implements Transcriber.
var _ Transcriber = (*ServerTranscriber)(nil)

// ServerTranscriber talks to a running whisper-server binary (the HTTP
// frontend shipped with whisper.cpp, POST /inference). It lets the binary
// run without CGO at the cost of an HTTP round trip per utterance.
//
// The server reports plain text without per-segment timing, so Transcribe
// returns a single segment spanning the whole input.
type ServerTranscriber struct {
	url      string
	language string
	client   *http.Client
}

// NewServerTranscriber creates a transcriber against the given base URL,
// e.g. "http://localhost:8080".
func NewServerTranscriber(serverURL, language string) (*ServerTranscriber, error) {
	if serverURL == "" {
		return nil, errors.New("engine: server URL must not be empty")
	}
	return &ServerTranscriber{
		url:      strings.TrimRight(serverURL, "/"),
		language: language,
		client:   &http.Client{Timeout: serverTimeout},
	}, nil
}

// Transcribe encodes the samples as a 16-bit WAV file and POSTs it to the
// server's /inference endpoint as multipart/form-data.
func (t *ServerTranscriber) Transcribe(samples []float32) ([]Segment, error) {
	wav := encodeWAV(pcmFromFloat32(samples), serverSampleRate, 1)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("engine: create form file: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return nil, fmt.Errorf("engine: write wav data: %w", err)
	}
	if t.language != "" {
		if err := mw.WriteField("language", t.language); err != nil {
			return nil, fmt.Errorf("engine: write language field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("engine: close multipart writer: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, t.url+"/inference", &body)
	if err != nil {
		return nil, fmt.Errorf("engine: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("engine: read response body: %w", err)
	}
	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("engine: parse JSON response: %w", err)
	}

	text := strings.TrimSpace(result.Text)
	if text == "" {
		return nil, nil
	}
	end := time.Duration(len(samples)) * time.Second / serverSampleRate
	return []Segment{{Start: 0, End: end, Text: text}}, nil
}

// Close is a no-op; the HTTP client holds no resources worth releasing.
func (t *ServerTranscriber) Close() error { return nil }

// pcmFromFloat32 converts normalized float32 samples to 16-bit signed
// little-endian PCM, clamping anything outside [-1.0, 1.0].
func pcmFromFloat32(samples []float32) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, f := range samples {
		v := f * 32768.0
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v)))
	}
	return pcm
}

// encodeWAV wraps raw 16-bit signed little-endian PCM in a RIFF/WAV
// container suitable for upload.
func encodeWAV(pcm []byte, sampleRate, channels int) []byte {
	const bps = 16
	byteRate := sampleRate * channels * bps / 8
	blockAlign := channels * bps / 8
	dataSize := len(pcm)

	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bps)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)

	return buf
}
