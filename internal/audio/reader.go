// Package audio loads decoded waveforms into analysis signals.
package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"

	"github.com/keagan/beatgrid/internal/analysis"
)

// LoadWAV decodes a PCM WAV file into a mono signal normalized to
// [-1,1]. Stereo input is downmixed by averaging channels.
func LoadWAV(path string) (analysis.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return analysis.Signal{}, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return analysis.Signal{}, fmt.Errorf("%s: not a valid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return analysis.Signal{}, fmt.Errorf("decode PCM: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return analysis.Signal{}, fmt.Errorf("%s: no audio data", path)
	}

	channels := buf.Format.NumChannels
	if channels < 1 || channels > 2 {
		return analysis.Signal{}, fmt.Errorf("unsupported channel count %d: only mono/stereo supported", channels)
	}

	bitDepth := dec.BitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int(1)<<(bitDepth-1))

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]) * scale
		}
		samples[i] = sum / float64(channels)
	}

	return analysis.NewSignal(buf.Format.SampleRate, samples), nil
}
