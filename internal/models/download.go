// Package models downloads whisper ggml model files from the whisper.cpp
// repository on HuggingFace.
package models

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/notune/speechcap/internal/config"
)

// modelBaseURL is swapped out by tests.
var modelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// catalog maps downloadable model names to their approximate sizes.
var catalog = map[string]string{
	"tiny.en":   "75 MB",
	"tiny":      "75 MB",
	"base.en":   "142 MB",
	"base":      "142 MB",
	"small.en":  "466 MB",
	"small":     "466 MB",
	"medium.en": "1.5 GB",
	"medium":    "1.5 GB",
	"large-v3":  "2.9 GB",
}

// Names returns the downloadable model names, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Path returns where Download places the given model.
func Path(name string) string {
	return filepath.Join(config.DefaultModelsDir(), "ggml-"+name+".bin")
}

// Download fetches a whisper ggml model into the models directory and
// returns its path. It shows download progress on stdout. A model that is
// already present is not downloaded again.
func Download(name string) (string, error) {
	size, ok := catalog[name]
	if !ok {
		return "", fmt.Errorf("unknown model %q (available: %v)", name, Names())
	}

	destPath := Path(name)
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		fmt.Printf("Model already exists: %s (%.0f MB)\n", destPath, float64(info.Size())/(1024*1024))
		return destPath, nil
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return "", fmt.Errorf("creating models dir: %w", err)
	}

	url := fmt.Sprintf("%s/ggml-%s.bin", modelBaseURL, name)
	fmt.Printf("Downloading %s (%s)\n", name, size)
	fmt.Printf("  URL: %s\n", url)
	fmt.Printf("  Destination: %s\n", destPath)

	resp, err := http.Get(url) //nolint:gosec // base URL is fixed, name is catalog-validated
	if err != nil {
		return "", fmt.Errorf("downloading model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}

	// Write to temp file first, then rename (atomic), so an interrupted
	// download never leaves a truncated model behind.
	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}

	pr := &progressWriter{
		writer: f,
		total:  resp.ContentLength,
		label:  "ggml-" + name + ".bin",
	}

	written, err := io.Copy(pr, resp.Body)
	f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing model file: %w", err)
	}

	fmt.Printf("\nDownloaded %.1f MB\n", float64(written)/(1024*1024))

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("moving model file: %w", err)
	}

	return destPath, nil
}

// progressWriter wraps an io.Writer and prints download progress.
type progressWriter struct {
	writer  io.Writer
	total   int64
	written int64
	label   string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.written += int64(n)
	if pw.total > 0 {
		pct := float64(pw.written) / float64(pw.total) * 100
		fmt.Printf("\r  %s: %.1f MB / %.1f MB (%.0f%%)",
			pw.label,
			float64(pw.written)/(1024*1024),
			float64(pw.total)/(1024*1024),
			pct)
	} else {
		fmt.Printf("\r  %s: %.1f MB downloaded",
			pw.label,
			float64(pw.written)/(1024*1024))
	}
	return n, err
}
