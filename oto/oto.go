// Package oto adapts the ebitengine/oto playback backend to the
// grainpad audio interfaces.
package oto

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ebitengine/oto/v3"
	"github.com/saarni/grainpad"
)

type (
	// Context wraps an oto context as a grainpad.AudioContext.
	Context struct {
		context    *oto.Context
		sampleRate int
	}

	playback struct {
		player *oto.Player
	}
)

// NewContext opens the system audio device for stereo float output at
// the given sample rate, blocking until the device is ready.
func NewContext(sampleRate int) (*Context, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	context, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &Context{context: context, sampleRate: sampleRate}, nil
}

// Play starts pulling frames from the source until the returned player
// is closed.
func (c *Context) Play(source grainpad.AudioSource) grainpad.AudioPlayer {
	player := c.context.NewPlayer(&sourceReader{source: source})
	player.Play()
	return &playback{player: player}
}

// Close suspends the audio device. An oto context cannot be destroyed,
// so suspension is the closest available semantic.
func (c *Context) Close() error {
	if err := c.context.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

func (p *playback) Close() error {
	if err := p.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

// sourceReader adapts an AudioSource to the io.Reader oto pulls from,
// rendering stereo frames and serializing them as little-endian
// float32s. The frame buffer is reused between calls.
type sourceReader struct {
	source grainpad.AudioSource
	frames grainpad.AudioBuffer
}

const bytesPerFrame = 8 // 2 channels x 4 bytes

func (r *sourceReader) Read(buf []byte) (int, error) {
	numFrames := len(buf) / bytesPerFrame
	if numFrames == 0 {
		return 0, nil
	}
	if cap(r.frames) < numFrames {
		r.frames = make(grainpad.AudioBuffer, numFrames)
	}
	r.frames = r.frames[:numFrames]
	n, err := r.source.ReadAudio(r.frames)
	if err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(buf[i*bytesPerFrame:], math.Float32bits(r.frames[i][0]))
		binary.LittleEndian.PutUint32(buf[i*bytesPerFrame+4:], math.Float32bits(r.frames[i][1]))
	}
	return n * bytesPerFrame, nil
}
