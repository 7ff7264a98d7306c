package engine

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/delay"
	"github.com/cwbudde/algo-dsp/dsp/effects/reverb"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
	"github.com/saarni/grainpad"
)

const maxDelaySeconds = 2.0

// FxChain is the per-voice post chain: lowpass filter, feedback delay,
// reverb and master gain, in that order. All stages are stereo pairs of
// mono processors. The chain keeps ringing after the voice stops so
// delay and reverb tails decay naturally.
type FxChain struct {
	sampleRate int

	filterL, filterR *biquad.Section
	delayL, delayR   *delay.Line
	reverbL, reverbR *reverb.FDNReverb

	params grainpad.EffectsParams
	// last values the filter coefficients were computed for
	coeffCutoff, coeffQ float64
}

// NewFxChain returns a chain with default parameters.
func NewFxChain(sampleRate int) (*FxChain, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("fx chain sample rate must be > 0: %d", sampleRate)
	}
	delaySize := int(float64(sampleRate)*maxDelaySeconds*1.5) + 100
	delayL, err := delay.New(delaySize)
	if err != nil {
		return nil, fmt.Errorf("could not create delay line: %w", err)
	}
	delayR, err := delay.New(delaySize)
	if err != nil {
		return nil, fmt.Errorf("could not create delay line: %w", err)
	}
	reverbL, err := reverb.NewFDNReverb(float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("could not create reverb: %w", err)
	}
	reverbR, err := reverb.NewFDNReverb(float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("could not create reverb: %w", err)
	}
	f := &FxChain{
		sampleRate: sampleRate,
		delayL:     delayL,
		delayR:     delayR,
		reverbL:    reverbL,
		reverbR:    reverbR,
		params:     grainpad.DefaultEffectsParams(),
	}
	coeffs := design.Lowpass(f.params.FilterCutoffHz, f.params.FilterQ, float64(sampleRate))
	f.filterL = biquad.NewSection(coeffs)
	f.filterR = biquad.NewSection(coeffs)
	f.coeffCutoff = f.params.FilterCutoffHz
	f.coeffQ = f.params.FilterQ
	f.applyReverbMix()
	return f, nil
}

// Params returns the current effect parameters.
func (f *FxChain) Params() grainpad.EffectsParams { return f.params }

// SetParam merges one effects parameter, clamping it into a safe range.
// Filter coefficients are only recomputed when cutoff or Q moved
// meaningfully.
func (f *FxChain) SetParam(id grainpad.ParamID, value float64) bool {
	switch id {
	case grainpad.ParamFilterCutoff:
		value = math.Min(math.Max(value, 20), float64(f.sampleRate)*0.49)
	case grainpad.ParamFilterQ:
		value = math.Min(math.Max(value, 0.1), 10)
	case grainpad.ParamDelayTime:
		value = math.Min(math.Max(value, 0), maxDelaySeconds)
	case grainpad.ParamDelayMix, grainpad.ParamReverbMix:
		value = math.Min(math.Max(value, 0), 1)
	case grainpad.ParamDelayFeedback:
		value = math.Min(math.Max(value, 0), 0.95)
	case grainpad.ParamMasterGain:
		value = math.Max(value, 0)
	default:
		return false
	}
	if !f.params.SetValue(id, value) {
		return false
	}
	switch id {
	case grainpad.ParamFilterCutoff, grainpad.ParamFilterQ:
		f.refreshFilter()
	case grainpad.ParamReverbMix:
		f.applyReverbMix()
	}
	return true
}

func (f *FxChain) refreshFilter() {
	if math.Abs(f.params.FilterCutoffHz-f.coeffCutoff) <= 0.1 &&
		math.Abs(f.params.FilterQ-f.coeffQ) <= 0.01 {
		return
	}
	f.coeffCutoff = f.params.FilterCutoffHz
	f.coeffQ = f.params.FilterQ
	coeffs := design.Lowpass(f.coeffCutoff, f.coeffQ, float64(f.sampleRate))
	f.filterL.Coefficients = coeffs
	f.filterR.Coefficients = coeffs
}

func (f *FxChain) applyReverbMix() {
	mix := f.params.ReverbMix
	f.reverbL.SetWet(mix)
	f.reverbL.SetDry(1 - mix)
	f.reverbR.SetWet(mix)
	f.reverbR.SetDry(1 - mix)
}

// ProcessSample runs one stereo sample through the chain.
func (f *FxChain) ProcessSample(left, right float32) (outL, outR float32) {
	l := f.processChannel(float64(left), f.filterL, f.delayL, f.reverbL)
	r := f.processChannel(float64(right), f.filterR, f.delayR, f.reverbR)
	return float32(l), float32(r)
}

func (f *FxChain) processChannel(in float64, filter *biquad.Section, dl *delay.Line, rv *reverb.FDNReverb) float64 {
	filtered := filter.ProcessSample(in)

	delaySamples := f.params.DelayTimeSec * float64(f.sampleRate)
	delayed := dl.ReadFractional(delaySamples)
	dl.Write(filtered + delayed*f.params.DelayFeedback)
	mixed := filtered*(1-f.params.DelayMix) + delayed*f.params.DelayMix

	return rv.ProcessSample(mixed) * f.params.MasterGain
}

// Reset clears all filter, delay and reverb state.
func (f *FxChain) Reset() {
	f.filterL.Reset()
	f.filterR.Reset()
	f.delayL.Reset()
	f.delayR.Reset()
	f.reverbL.Reset()
	f.reverbR.Reset()
}
