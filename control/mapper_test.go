package control

import (
	"math"
	"testing"

	"github.com/saarni/grainpad"
)

func TestCalculateWeightsSumToOne(t *testing.T) {
	positions := [][2]float64{
		{0, 0}, {1, 0}, {0, 1}, {1, 1},
		{0.5, 0.5}, {0.25, 0.75}, {0.99, 0.01},
		{-0.5, 0.5}, {1.5, 2}, // out of range, should clamp not explode
	}
	for _, pos := range positions {
		w := CalculateWeights(pos[0], pos[1])
		sum := 0.0
		for _, v := range w {
			if v < 0 || v > 1 {
				t.Errorf("weight out of [0,1] at (%v, %v): %v", pos[0], pos[1], w)
			}
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("weights at (%v, %v) sum to %v, expected 1", pos[0], pos[1], sum)
		}
	}
}

func TestCalculateWeightsCorners(t *testing.T) {
	tests := []struct {
		x, y     float64
		expected Weights
	}{
		{0, 0, Weights{1, 0, 0, 0}},
		{1, 0, Weights{0, 1, 0, 0}},
		{0, 1, Weights{0, 0, 1, 0}},
		{1, 1, Weights{0, 0, 0, 1}},
		{0.5, 0.5, Weights{0.25, 0.25, 0.25, 0.25}},
	}
	for _, test := range tests {
		if got := CalculateWeights(test.x, test.y); got != test.expected {
			t.Errorf("CalculateWeights(%v, %v): expected %v, got %v", test.x, test.y, test.expected, got)
		}
	}
}

func TestMapParamsFullAndZeroInfluence(t *testing.T) {
	granular := grainpad.DefaultGranularParams()
	effects := grainpad.DefaultEffectsParams()
	mapping := grainpad.CornerMapping{TL: grainpad.ParamCorner(grainpad.ParamDensity)}

	// position on TL corner: full influence pulls to the max
	targets := MapParams(CalculateWeights(0, 0), granular, effects, mapping)
	if got := targets[grainpad.ParamDensity]; got != grainpad.ParamRanges[grainpad.ParamDensity].Max {
		t.Errorf("full influence: expected max %v, got %v", grainpad.ParamRanges[grainpad.ParamDensity].Max, got)
	}

	// opposite corner: zero influence, the parameter is omitted entirely
	targets = MapParams(CalculateWeights(1, 1), granular, effects, mapping)
	if _, ok := targets[grainpad.ParamDensity]; ok {
		t.Errorf("zero influence should omit the parameter, got %v", targets)
	}
}

func TestMapParamsInterpolatesFromBase(t *testing.T) {
	granular := grainpad.DefaultGranularParams()
	effects := grainpad.DefaultEffectsParams()
	mapping := grainpad.CornerMapping{TL: grainpad.ParamCorner(grainpad.ParamFilterCutoff)}

	targets := MapParams(CalculateWeights(0.5, 0), granular, effects, mapping)
	base := effects.FilterCutoffHz
	max := grainpad.ParamRanges[grainpad.ParamFilterCutoff].Max
	expected := base + (max-base)*0.5
	if got := targets[grainpad.ParamFilterCutoff]; math.Abs(got-expected) > 1e-9 {
		t.Errorf("half influence: expected %v, got %v", expected, got)
	}
	if got := targets[grainpad.ParamFilterCutoff]; got < base || got > max {
		t.Errorf("target %v outside [base %v, max %v]", got, base, max)
	}
}

func TestMapParamsSumsSharedCorners(t *testing.T) {
	granular := grainpad.DefaultGranularParams()
	effects := grainpad.DefaultEffectsParams()
	mapping := grainpad.CornerMapping{
		TL: grainpad.ParamCorner(grainpad.ParamReverbMix),
		TR: grainpad.ParamCorner(grainpad.ParamReverbMix),
	}
	// anywhere on the top edge the two corners' weights sum to 1
	targets := MapParams(CalculateWeights(0.3, 0), granular, effects, mapping)
	if got := targets[grainpad.ParamReverbMix]; math.Abs(got-1) > 1e-9 {
		t.Errorf("shared corners on top edge: expected 1, got %v", got)
	}
}

func TestMapParamsIgnoresPadAndEmptyCorners(t *testing.T) {
	granular := grainpad.DefaultGranularParams()
	effects := grainpad.DefaultEffectsParams()
	mapping := grainpad.CornerMapping{
		TL: grainpad.PadCorner(3),
		BR: grainpad.ParamCorner(grainpad.ParamPitch),
	}
	targets := MapParams(CalculateWeights(0, 0), granular, effects, mapping)
	if len(targets) != 0 {
		t.Errorf("pad corner at full weight should contribute nothing, got %v", targets)
	}
}
