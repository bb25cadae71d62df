// Package audio reads and writes mono PCM signals for analysis.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/embedtrack/internal/fsutil"
)

// ErrUnsupportedFormat is returned for files that are not PCM WAV.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

// pcmFormat is the WAVE_FORMAT_PCM tag.
const pcmFormat = 1

// Signal is a mono signal in [-1, 1] at a fixed sample rate.
type Signal struct {
	SampleRate int
	Samples    []float64
}

// Duration returns the signal length in seconds.
func (s *Signal) Duration() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// Normalize scales the signal so its peak magnitude is 1. Silence is left
// untouched.
func (s *Signal) Normalize() {
	if len(s.Samples) == 0 {
		return
	}
	peak := math.Max(floats.Max(s.Samples), -floats.Min(s.Samples))
	if peak == 0 {
		return
	}
	floats.Scale(1/peak, s.Samples)
}

// Slice returns the samples between start and end seconds, clamped to the
// signal. A non-positive end means the end of the signal.
func (s *Signal) Slice(start, end float64) *Signal {
	n := len(s.Samples)
	i := clamp(int(math.Round(start*float64(s.SampleRate))), 0, n)
	j := n
	if end > 0 {
		j = clamp(int(math.Round(end*float64(s.SampleRate))), i, n)
	}
	return &Signal{SampleRate: s.SampleRate, Samples: s.Samples[i:j]}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Decode reads a PCM WAV stream and mixes all channels down to mono.
func Decode(r io.ReadSeeker) (*Signal, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, ErrUnsupportedFormat
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode PCM data: %w", err)
	}

	channels := int(d.NumChans)
	depth := int(d.BitDepth)
	if channels < 1 || depth < 8 || depth > 32 {
		return nil, fmt.Errorf("%w: %d channels at %d bits", ErrUnsupportedFormat, channels, depth)
	}

	full := float64(int64(1) << (depth - 1))
	offset := 0
	if depth == 8 {
		// 8-bit WAV samples are unsigned.
		offset = 128
	}

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := range out {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c] - offset)
		}
		out[i] = sum / float64(channels) / full
	}
	return &Signal{SampleRate: int(d.SampleRate), Samples: out}, nil
}

// Encode writes s as a mono PCM WAV at the given bit depth (16, 24 or 32).
// Samples outside [-1, 1] are clipped.
func Encode(w io.WriteSeeker, s *Signal, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, bitDepth)
	}
	peak := float64(int64(1)<<(bitDepth-1) - 1)
	data := make([]int, len(s.Samples))
	for i, v := range s.Samples {
		data[i] = int(math.Round(math.Max(-1, math.Min(1, v)) * peak))
	}

	enc := wav.NewEncoder(w, s.SampleRate, bitDepth, 1, pcmFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: s.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write PCM data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV: %w", err)
	}
	return nil
}

// ReadFile decodes the WAV file at path.
func ReadFile(fsys fsutil.FileSystem, path string) (*Signal, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".wav" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	s, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// WriteFile encodes s to path, creating parent directories as needed.
func WriteFile(fsys fsutil.FileSystem, path string, s *Signal, bitDepth int) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, s, bitDepth); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
