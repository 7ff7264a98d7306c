package control

import (
	"testing"

	"github.com/saarni/grainpad"
)

func TestPlayerAppliesMessagesAndRenders(t *testing.T) {
	broker := NewBroker()
	player, err := NewPlayer(broker, 44100, 2)
	if err != nil {
		t.Fatal(err)
	}
	ch := make([]float32, 44100)
	for i := range ch {
		ch[i] = 0.5
	}
	buf := &grainpad.SampleBuffer{Channels: [][]float32{ch}, SampleRate: 44100}

	broker.ToPlayer <- SetBufferMsg{Buffer: buf}
	broker.ToPlayer <- SetRegionMsg{Voice: 0, StartSample: 0, EndSample: 44100}
	broker.ToPlayer <- SetParamMsg{Voice: 0, Param: grainpad.ParamDensity, Value: 50}
	broker.ToPlayer <- TriggerMsg{Voice: 0, On: true}

	out := make(grainpad.AudioBuffer, 2048)
	n, err := player.ReadAudio(out)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(out) {
		t.Fatalf("expected %d frames, got %d", len(out), n)
	}
	silent := true
	for _, frame := range out {
		if frame[0] != 0 || frame[1] != 0 {
			silent = false
			break
		}
	}
	if silent {
		t.Error("expected audible output after trigger message")
	}

	// the block's telemetry must be queued for the model and the detector
	select {
	case msg := <-broker.ToModel:
		if msg.VoiceLevels[0] == 0 {
			t.Error("expected nonzero level for the triggered voice")
		}
		if msg.VoiceLevels[1] != 0 {
			t.Error("expected zero level for the silent voice")
		}
	default:
		t.Fatal("expected a model message")
	}
	select {
	case det := <-broker.ToDetector:
		audio, ok := det.Data.(*grainpad.AudioBuffer)
		if !ok || len(*audio) != len(out) {
			t.Errorf("unexpected detector payload: %+v", det)
		}
	default:
		t.Error("expected a detector message")
	}
}

func TestPlayerStopMessageSilencesEventually(t *testing.T) {
	broker := NewBroker()
	player, err := NewPlayer(broker, 44100, 1)
	if err != nil {
		t.Fatal(err)
	}
	ch := make([]float32, 44100)
	for i := range ch {
		ch[i] = 0.5
	}
	broker.ToPlayer <- SetBufferMsg{Buffer: &grainpad.SampleBuffer{Channels: [][]float32{ch}, SampleRate: 44100}}
	broker.ToPlayer <- SetRegionMsg{Voice: 0, StartSample: 0, EndSample: 44100}
	broker.ToPlayer <- TriggerMsg{Voice: 0, On: true}

	out := make(grainpad.AudioBuffer, 1024)
	player.ReadAudio(out)

	broker.ToPlayer <- TriggerMsg{Voice: 0, On: false}
	// default grain length is 80ms; render well past the ring-out
	for i := 0; i < 10; i++ {
		drainModel(broker)
		drainDetector(broker)
		player.ReadAudio(out)
	}
	// the filter state decays asymptotically, so allow residual noise
	for _, frame := range out {
		if frame[0] > 1e-4 || frame[0] < -1e-4 || frame[1] > 1e-4 || frame[1] < -1e-4 {
			t.Fatalf("expected near-silence after the grains rang out, got %v", frame)
		}
	}
}

func drainModel(broker *Broker) {
	for {
		select {
		case <-broker.ToModel:
		default:
			return
		}
	}
}

func drainDetector(broker *Broker) {
	for {
		select {
		case msg := <-broker.ToDetector:
			if buf, ok := msg.Data.(*grainpad.AudioBuffer); ok {
				broker.PutAudioBuffer(buf)
			}
		default:
			return
		}
	}
}
