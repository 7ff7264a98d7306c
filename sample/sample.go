// Package sample loads and saves the audio files grain playback feeds
// on.
package sample

import (
	"fmt"
	"os"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
	"github.com/saarni/grainpad"
)

// Load reads a WAV file into a sample buffer, de-interleaving its
// channels. The buffer keeps the file's native sample rate; playback
// rate conversion is the grain scheduler's job.
func Load(path string) (*grainpad.SampleBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open sample: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not decode wav file %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("invalid wav buffer: %s", path)
	}
	numCh := buf.Format.NumChannels
	rate := buf.Format.SampleRate
	if rate <= 0 {
		return nil, fmt.Errorf("invalid wav sample rate: %d", rate)
	}
	frames := len(buf.Data) / numCh
	if frames == 0 {
		return nil, fmt.Errorf("empty wav data: %s", path)
	}

	channels := make([][]float32, numCh)
	for c := range channels {
		channels[c] = make([]float32, frames)
		for i := 0; i < frames; i++ {
			channels[c][i] = buf.Data[i*numCh+c]
		}
	}
	return &grainpad.SampleBuffer{Channels: channels, SampleRate: rate}, nil
}

// Save writes a sample buffer as a 16-bit PCM WAV file.
func Save(path string, buf *grainpad.SampleBuffer) error {
	if buf == nil || len(buf.Channels) == 0 {
		return fmt.Errorf("nothing to save")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	defer f.Close()

	numCh := len(buf.Channels)
	frames := buf.NumFrames()
	data := make([]float32, frames*numCh)
	for c, channel := range buf.Channels {
		for i := 0; i < frames; i++ {
			data[i*numCh+c] = channel[i]
		}
	}

	encoder := wav.NewEncoder(f, buf.SampleRate, 16, numCh, 1)
	defer encoder.Close()
	if err := encoder.Write(&audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  buf.SampleRate,
			NumChannels: numCh,
		},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}
	return nil
}
