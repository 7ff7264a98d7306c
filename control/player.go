package control

import (
	"math"

	"github.com/saarni/grainpad"
	"github.com/saarni/grainpad/engine"
)

type (
	// Player is the audio-thread actor. It owns the engine.Synth
	// exclusively; all mutations arrive as one-way messages through the
	// broker's ToPlayer channel and are drained non-blockingly at the top
	// of every ReadAudio call, so the audio callback never waits on the
	// control loop.
	Player struct {
		synth  *engine.Synth
		broker *Broker

		voiceLevels [engine.MaxVoices]float32
	}
)

// NewPlayer creates a player around a freshly constructed synth.
func NewPlayer(broker *Broker, sampleRate, numVoices int) (*Player, error) {
	synth, err := engine.NewSynth(sampleRate, numVoices)
	if err != nil {
		return nil, err
	}
	return &Player{synth: synth, broker: broker}, nil
}

// SampleRate returns the output sample rate in Hz.
func (p *Player) SampleRate() int { return p.synth.SampleRate() }

// ReadAudio renders the next block into buf. It implements
// grainpad.AudioSource and is called by the audio backend.
func (p *Player) ReadAudio(buf grainpad.AudioBuffer) (int, error) {
	p.processMessages()
	p.synth.Render(buf)
	p.updateVoiceLevels(len(buf))
	p.sendTelemetry(buf)
	return len(buf), nil
}

// processMessages drains all pending messages, never blocking.
func (p *Player) processMessages() {
loop:
	for {
		select {
		case msg := <-p.broker.ToPlayer:
			switch m := msg.(type) {
			case SetBufferMsg:
				p.synth.SetBuffer(m.Buffer)
			case SetRegionMsg:
				p.synth.SetRegion(m.Voice, m.StartSample, m.EndSample)
			case SetParamMsg:
				p.synth.SetParam(m.Voice, m.Param, m.Value)
			case TriggerMsg:
				if m.On {
					p.synth.Trigger(m.Voice)
				} else {
					p.synth.Stop(m.Voice)
				}
			}
		default:
			break loop
		}
	}
}

// updateVoiceLevels follows the per-voice block peaks with an
// exponential release so meters fall smoothly instead of flickering.
func (p *Player) updateVoiceLevels(frames int) {
	peaks := p.synth.LastPeaks()
	alpha := float32(math.Exp(-float64(frames) / (0.15 * float64(p.synth.SampleRate()))))
	for i := range p.voiceLevels {
		if peaks[i] >= p.voiceLevels[i] {
			p.voiceLevels[i] = peaks[i]
		} else {
			p.voiceLevels[i] *= alpha
		}
	}
}

func (p *Player) sendTelemetry(buf grainpad.AudioBuffer) {
	TrySend(p.broker.ToModel, MsgToModel{VoiceLevels: p.voiceLevels})

	det := p.broker.GetAudioBuffer()
	*det = append(*det, buf...)
	if !TrySend(p.broker.ToDetector, MsgToDetector{Data: det}) {
		p.broker.PutAudioBuffer(det)
	}
}
