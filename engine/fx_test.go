package engine

import (
	"math"
	"testing"

	"github.com/saarni/grainpad"
)

func TestFxChainClampsParams(t *testing.T) {
	f, err := NewFxChain(44100)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		id       grainpad.ParamID
		value    float64
		expected float64
	}{
		{grainpad.ParamFilterCutoff, 5, 20},
		{grainpad.ParamFilterCutoff, 100000, 44100 * 0.49},
		{grainpad.ParamFilterQ, 0, 0.1},
		{grainpad.ParamFilterQ, 50, 10},
		{grainpad.ParamDelayTime, 10, maxDelaySeconds},
		{grainpad.ParamDelayTime, -1, 0},
		{grainpad.ParamDelayFeedback, 2, 0.95},
		{grainpad.ParamDelayMix, 1.5, 1},
		{grainpad.ParamReverbMix, -0.5, 0},
		{grainpad.ParamMasterGain, -1, 0},
	}
	for _, test := range tests {
		if !f.SetParam(test.id, test.value) {
			t.Errorf("SetParam(%v, %v) rejected", test.id, test.value)
			continue
		}
		params := f.Params()
		if got, _ := params.Value(test.id); math.Abs(got-test.expected) > 1e-6 {
			t.Errorf("SetParam(%v, %v): expected clamp to %v, got %v", test.id, test.value, test.expected, got)
		}
	}
}

func TestFxChainRejectsGranularParams(t *testing.T) {
	f, err := NewFxChain(44100)
	if err != nil {
		t.Fatal(err)
	}
	if f.SetParam(grainpad.ParamGrainSize, 100) {
		t.Error("effect chain should reject granular parameters")
	}
}

func TestFxChainMasterGainZeroSilences(t *testing.T) {
	f, err := NewFxChain(44100)
	if err != nil {
		t.Fatal(err)
	}
	f.SetParam(grainpad.ParamMasterGain, 0)
	for i := 0; i < 512; i++ {
		l, r := f.ProcessSample(0.7, -0.3)
		if l != 0 || r != 0 {
			t.Fatalf("expected silence at zero gain, got (%v, %v)", l, r)
		}
	}
}

func TestFxChainPassesSignalAtDefaults(t *testing.T) {
	f, err := NewFxChain(44100)
	if err != nil {
		t.Fatal(err)
	}
	// default delay and reverb mixes are zero, so a sustained input must
	// come through at some level once the lowpass settles
	var sum float64
	for i := 0; i < 4096; i++ {
		l, _ := f.ProcessSample(0.5, 0.5)
		sum += float64(l)
	}
	if sum < 0.1 {
		t.Errorf("expected signal to pass through the default chain, got energy %v", sum)
	}
}
