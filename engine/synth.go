package engine

import (
	"fmt"

	"github.com/saarni/grainpad"
)

// MaxVoices is the hard cap on the synthesis voice pool.
const MaxVoices = 8

// Synth is the audio-thread side of the core: a fixed bank of granular
// voices, each with its own post chain, mixed to one stereo output. The
// Synth is owned by a single goroutine (the player); the control loop
// reaches it only through the broker's message channel, so none of these
// methods lock. Every mutation is idempotent and last-write-wins, and
// out-of-range voice indices degrade to a no-op rather than an error.
type Synth struct {
	sampleRate int
	voices     []*Voice
	chains     []*FxChain
	peaks      [MaxVoices]float32
}

// NewSynth creates a synth with the given number of voices, capped to
// MaxVoices.
func NewSynth(sampleRate, numVoices int) (*Synth, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("synth sample rate must be > 0: %d", sampleRate)
	}
	if numVoices < 1 {
		numVoices = 1
	}
	if numVoices > MaxVoices {
		numVoices = MaxVoices
	}
	s := &Synth{sampleRate: sampleRate}
	for i := 0; i < numVoices; i++ {
		chain, err := NewFxChain(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("could not create voice %d: %w", i, err)
		}
		s.voices = append(s.voices, NewVoice(sampleRate))
		s.chains = append(s.chains, chain)
	}
	return s, nil
}

// NumVoices returns the voice pool size.
func (s *Synth) NumVoices() int { return len(s.voices) }

// SampleRate returns the output sample rate in Hz.
func (s *Synth) SampleRate() int { return s.sampleRate }

// SetBuffer broadcasts a replacement sample source to every voice.
func (s *Synth) SetBuffer(buf *grainpad.SampleBuffer) {
	for _, v := range s.voices {
		v.SetBuffer(buf)
	}
}

// SetRegion updates one voice's grain source span, in buffer frames.
func (s *Synth) SetRegion(voice, startFrame, endFrame int) {
	if voice < 0 || voice >= len(s.voices) {
		return
	}
	s.voices[voice].SetRegion(startFrame, endFrame)
}

// SetParam routes one parameter update to the voice's granular engine or
// its effect chain.
func (s *Synth) SetParam(voice int, id grainpad.ParamID, value float64) {
	if voice < 0 || voice >= len(s.voices) {
		return
	}
	if id.IsGranular() {
		s.voices[voice].SetParam(id, value)
	} else {
		s.chains[voice].SetParam(id, value)
	}
}

// Trigger starts or restarts one voice's grain scheduling.
func (s *Synth) Trigger(voice int) {
	if voice < 0 || voice >= len(s.voices) {
		return
	}
	s.voices[voice].Trigger()
}

// Stop halts new grain scheduling on one voice; in-flight grains and
// effect tails ring out.
func (s *Synth) Stop(voice int) {
	if voice < 0 || voice >= len(s.voices) {
		return
	}
	s.voices[voice].Stop()
}

// VoiceActive reports whether a voice is playing or still ringing out
// grains.
func (s *Synth) VoiceActive(voice int) bool {
	if voice < 0 || voice >= len(s.voices) {
		return false
	}
	return s.voices[voice].Active()
}

// Render fills the buffer with the mix of all voices and tracks the
// per-voice peak of the block for level telemetry.
func (s *Synth) Render(buffer grainpad.AudioBuffer) {
	for i := range s.peaks {
		s.peaks[i] = 0
	}
	for n := range buffer {
		var mixL, mixR float32
		for i, v := range s.voices {
			dryL, dryR := v.RenderSample()
			l, r := s.chains[i].ProcessSample(dryL, dryR)
			mixL += l
			mixR += r
			if a := abs32(l); a > s.peaks[i] {
				s.peaks[i] = a
			}
			if a := abs32(r); a > s.peaks[i] {
				s.peaks[i] = a
			}
		}
		buffer[n][0] = clip(mixL)
		buffer[n][1] = clip(mixR)
	}
}

func clip(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// LastPeaks returns the per-voice peak amplitudes of the most recent
// Render block.
func (s *Synth) LastPeaks() [MaxVoices]float32 { return s.peaks }

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
