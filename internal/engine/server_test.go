package engine

import (
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestServerTranscriberPostsWAV(t *testing.T) {
	var (
		gotPath     string
		gotLanguage string
		gotFilename string
		gotWAV      []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotLanguage = r.FormValue("language")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotFilename = hdr.Filename
		gotWAV, _ = io.ReadAll(f)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"text": " hello world \n"}`)
	}))
	defer srv.Close()

	tr, err := NewServerTranscriber(srv.URL, "en")
	if err != nil {
		t.Fatalf("NewServerTranscriber: %v", err)
	}
	samples := make([]float32, serverSampleRate)
	segs, err := tr.Transcribe(samples)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if gotPath != "/inference" {
		t.Errorf("request path = %q, want %q", gotPath, "/inference")
	}
	if gotLanguage != "en" {
		t.Errorf("language field = %q, want %q", gotLanguage, "en")
	}
	if gotFilename != "audio.wav" {
		t.Errorf("upload filename = %q, want %q", gotFilename, "audio.wav")
	}
	if want := 44 + len(samples)*2; len(gotWAV) != want {
		t.Fatalf("wav size = %d, want %d", len(gotWAV), want)
	}
	if string(gotWAV[0:4]) != "RIFF" || string(gotWAV[8:12]) != "WAVE" {
		t.Errorf("wav magic = %q %q, want RIFF WAVE", gotWAV[0:4], gotWAV[8:12])
	}
	if rate := binary.LittleEndian.Uint32(gotWAV[24:28]); rate != serverSampleRate {
		t.Errorf("wav sample rate = %d, want %d", rate, serverSampleRate)
	}
	if ch := binary.LittleEndian.Uint16(gotWAV[22:24]); ch != 1 {
		t.Errorf("wav channels = %d, want 1", ch)
	}
	if bits := binary.LittleEndian.Uint16(gotWAV[34:36]); bits != 16 {
		t.Errorf("wav bit depth = %d, want 16", bits)
	}

	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	if segs[0].Text != "hello world" {
		t.Errorf("text = %q, want %q", segs[0].Text, "hello world")
	}
	if segs[0].Start != 0 || segs[0].End != time.Second {
		t.Errorf("segment span [%v, %v], want [0s, 1s]", segs[0].Start, segs[0].End)
	}
}

func TestServerTranscriberEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"text": "  \n"}`)
	}))
	defer srv.Close()

	tr, err := NewServerTranscriber(srv.URL, "")
	if err != nil {
		t.Fatalf("NewServerTranscriber: %v", err)
	}
	segs, err := tr.Transcribe(make([]float32, 800))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("got %d segments for blank text, want 0", len(segs))
	}
}

func TestServerTranscriberServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "inference failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr, err := NewServerTranscriber(srv.URL, "")
	if err != nil {
		t.Fatalf("NewServerTranscriber: %v", err)
	}
	if _, err := tr.Transcribe(make([]float32, 16)); err == nil {
		t.Error("Transcribe should fail on HTTP 500")
	}
}

func TestServerTranscriberTrimsTrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"text": "ok"}`)
	}))
	defer srv.Close()

	tr, err := NewServerTranscriber(srv.URL+"/", "")
	if err != nil {
		t.Fatalf("NewServerTranscriber: %v", err)
	}
	if _, err := tr.Transcribe([]float32{0}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotPath != "/inference" {
		t.Errorf("request path = %q, want %q", gotPath, "/inference")
	}
}

func TestPCMFromFloat32Clamps(t *testing.T) {
	pcm := pcmFromFloat32([]float32{0, 0.5, 1.5, -1.5})
	want := []int16{0, 16384, 32767, -32768}
	if len(pcm) != len(want)*2 {
		t.Fatalf("pcm length = %d, want %d", len(pcm), len(want)*2)
	}
	for i, w := range want {
		if got := int16(binary.LittleEndian.Uint16(pcm[i*2:])); got != w {
			t.Errorf("sample %d = %d, want %d", i, got, w)
		}
	}
}
