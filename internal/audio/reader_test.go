package audio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV encodes 16-bit PCM frames to a temp file and returns its path.
func writeWAV(t *testing.T, sampleRate, channels int, frames [][]int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create temp wav: %v", err)
	}
	defer f.Close()

	data := make([]int, 0, len(frames)*channels)
	for _, frame := range frames {
		data = append(data, frame...)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return path
}

func TestLoadWAVMono(t *testing.T) {
	const sr = 8000
	frames := make([][]int, sr) // one second of a 440Hz tone
	for i := range frames {
		v := 0.5 * math.Sin(2*math.Pi*440*float64(i)/sr)
		frames[i] = []int{int(v * 32767)}
	}

	sig, err := LoadWAV(writeWAV(t, sr, 1, frames))
	if err != nil {
		t.Fatalf("LoadWAV failed: %v", err)
	}

	if sig.SampleRate != sr {
		t.Errorf("sample rate %d, want %d", sig.SampleRate, sr)
	}
	if len(sig.Samples) != sr {
		t.Errorf("got %d samples, want %d", len(sig.Samples), sr)
	}
	if math.Abs(sig.Duration-1.0) > 1e-9 {
		t.Errorf("duration %f, want 1.0", sig.Duration)
	}

	var peak float64
	for _, s := range sig.Samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
		if s < -1 || s > 1 {
			t.Fatalf("sample %f outside [-1,1]", s)
		}
	}
	if math.Abs(peak-0.5) > 0.01 {
		t.Errorf("peak amplitude %f, want ~0.5", peak)
	}
}

func TestLoadWAVStereoDownmix(t *testing.T) {
	// Left carries a constant level, right is silent: the downmix halves it.
	frames := make([][]int, 4000)
	for i := range frames {
		frames[i] = []int{16384, 0}
	}

	sig, err := LoadWAV(writeWAV(t, 8000, 2, frames))
	if err != nil {
		t.Fatalf("LoadWAV failed: %v", err)
	}

	if len(sig.Samples) != 4000 {
		t.Fatalf("got %d samples, want 4000 frames after downmix", len(sig.Samples))
	}
	want := (16384.0 / 32768.0) / 2
	for i, s := range sig.Samples {
		if math.Abs(s-want) > 1e-3 {
			t.Fatalf("sample %d = %f, want %f", i, s, want)
		}
	}
}

func TestLoadWAVInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-audio.wav")
	if err := os.WriteFile(path, []byte("definitely not RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWAV(path); err == nil {
		t.Error("expected error for a non-WAV file")
	}
}

func TestLoadWAVMissingFile(t *testing.T) {
	if _, err := LoadWAV(filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Error("expected error for a missing file")
	}
}
