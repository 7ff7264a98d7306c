package sample

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/saarni/grainpad"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	const frames = 4410
	src := &grainpad.SampleBuffer{SampleRate: 44100}
	left := make([]float32, frames)
	right := make([]float32, frames)
	for i := 0; i < frames; i++ {
		left[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/44100))
		right[i] = float32(0.25 * math.Sin(2*math.Pi*220*float64(i)/44100))
	}
	src.Channels = [][]float32{left, right}

	path := filepath.Join(t.TempDir(), "test.wav")
	if err := Save(path, src); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.SampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", loaded.SampleRate)
	}
	if len(loaded.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(loaded.Channels))
	}
	if loaded.NumFrames() != frames {
		t.Fatalf("expected %d frames, got %d", frames, loaded.NumFrames())
	}
	// 16-bit quantization allows for some error
	for i := 0; i < frames; i += 100 {
		if diff := math.Abs(float64(loaded.Channels[0][i] - left[i])); diff > 0.001 {
			t.Fatalf("left channel diverged at frame %d: %v vs %v", i, loaded.Channels[0][i], left[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "no-such.wav")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestSaveNilBuffer(t *testing.T) {
	if err := Save(filepath.Join(t.TempDir(), "out.wav"), nil); err == nil {
		t.Error("expected an error for a nil buffer")
	}
}
