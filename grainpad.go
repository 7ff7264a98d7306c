package grainpad

import "math"

type (
	// SampleBuffer is the shared sample source for all voices. It is
	// created once per loaded audio file and never mutated afterwards;
	// replacing the loaded file means broadcasting a new SampleBuffer to
	// every voice. Channels are non-interleaved, all the same length.
	SampleBuffer struct {
		Channels   [][]float32
		SampleRate int
	}

	// Region bounds the span of the sample buffer from which grains may
	// be drawn, in seconds. Start and End are clamped to the buffer
	// duration and ordered before use; a zero-length region silences the
	// voice rather than erroring.
	Region struct {
		Start float64 `yaml:"start"`
		End   float64 `yaml:"end"`
	}

	// GranularParams are the per-voice grain scheduling parameters. They
	// are cloned at trigger time from the caller's pad state so that
	// concurrent edits to the pad cannot race with a running voice.
	GranularParams struct {
		GrainSizeMs    float64 `yaml:"grainsize"`
		Density        float64 `yaml:"density"`
		RandomStartMs  float64 `yaml:"randomstart"`
		PitchSemitones float64 `yaml:"pitch"`
	}

	// EffectsParams control the per-voice post-processing chain. Same
	// ownership rule as GranularParams.
	EffectsParams struct {
		FilterCutoffHz float64 `yaml:"cutoff"`
		FilterQ        float64 `yaml:"q"`
		DelayTimeSec   float64 `yaml:"delaytime"`
		DelayMix       float64 `yaml:"delaymix"`
		DelayFeedback  float64 `yaml:"delayfeedback"`
		ReverbMix      float64 `yaml:"reverbmix"`
		MasterGain     float64 `yaml:"gain"`
	}

	// ParamID identifies one automatable parameter. The automation layer
	// addresses parameters by ID so that updates can be forwarded to the
	// audio thread one parameter at a time, last write wins.
	ParamID int

	// Range is the natural range of a parameter. The dirty-check epsilon
	// and the corner mapper both derive from it.
	Range struct {
		Min, Max float64
	}
)

const (
	ParamGrainSize ParamID = iota
	ParamDensity
	ParamRandomStart
	ParamPitch
	ParamFilterCutoff
	ParamFilterQ
	ParamDelayTime
	ParamDelayMix
	ParamDelayFeedback
	ParamReverbMix
	ParamMasterGain
	NumParams
)

var paramNames = [NumParams]string{
	"grainsize", "density", "randomstart", "pitch",
	"cutoff", "q", "delaytime", "delaymix", "delayfeedback",
	"reverbmix", "gain",
}

func (id ParamID) String() string {
	if id < 0 || id >= NumParams {
		return "unknown"
	}
	return paramNames[id]
}

// ParseParamID returns the ParamID with the given name, or NumParams and
// false if no parameter has that name.
func ParseParamID(name string) (ParamID, bool) {
	for i, n := range paramNames {
		if n == name {
			return ParamID(i), true
		}
	}
	return NumParams, false
}

// ParamRanges documents the natural range of every automatable parameter.
var ParamRanges = [NumParams]Range{
	ParamGrainSize:     {5, 500},
	ParamDensity:       {1, 100},
	ParamRandomStart:   {0, 500},
	ParamPitch:         {-24, 24},
	ParamFilterCutoff:  {20, 20000},
	ParamFilterQ:       {0.1, 10},
	ParamDelayTime:     {0, 2},
	ParamDelayMix:      {0, 1},
	ParamDelayFeedback: {0, 0.95},
	ParamReverbMix:     {0, 1},
	ParamMasterGain:    {0, 2},
}

// Epsilon is the dirty-check threshold for a parameter: updates smaller
// than 1% of the natural range are not worth a message to the audio
// thread.
func (id ParamID) Epsilon() float64 {
	if id < 0 || id >= NumParams {
		return 0
	}
	r := ParamRanges[id]
	return (r.Max - r.Min) / 100
}

// IsGranular reports whether the parameter belongs to GranularParams, as
// opposed to EffectsParams.
func (id ParamID) IsGranular() bool {
	return id >= ParamGrainSize && id <= ParamPitch
}

// DefaultGranularParams returns the grain parameters used when a pad does
// not specify its own.
func DefaultGranularParams() GranularParams {
	return GranularParams{GrainSizeMs: 80, Density: 15, RandomStartMs: 40, PitchSemitones: 0}
}

// DefaultEffectsParams returns the effect parameters used when a pad does
// not specify its own.
func DefaultEffectsParams() EffectsParams {
	return EffectsParams{
		FilterCutoffHz: 2000,
		FilterQ:        0.707,
		DelayTimeSec:   0.25,
		DelayMix:       0,
		DelayFeedback:  0.3,
		ReverbMix:      0,
		MasterGain:     1,
	}
}

func (p *GranularParams) Copy() GranularParams { return *p }

func (p *EffectsParams) Copy() EffectsParams { return *p }

// Value returns the value of the given parameter, or false if the
// parameter is not a granular parameter.
func (p *GranularParams) Value(id ParamID) (float64, bool) {
	switch id {
	case ParamGrainSize:
		return p.GrainSizeMs, true
	case ParamDensity:
		return p.Density, true
	case ParamRandomStart:
		return p.RandomStartMs, true
	case ParamPitch:
		return p.PitchSemitones, true
	}
	return 0, false
}

// SetValue sets the given parameter, returning false if the parameter is
// not a granular parameter.
func (p *GranularParams) SetValue(id ParamID, v float64) bool {
	switch id {
	case ParamGrainSize:
		p.GrainSizeMs = v
	case ParamDensity:
		p.Density = v
	case ParamRandomStart:
		p.RandomStartMs = v
	case ParamPitch:
		p.PitchSemitones = v
	default:
		return false
	}
	return true
}

// Value returns the value of the given parameter, or false if the
// parameter is not an effects parameter.
func (p *EffectsParams) Value(id ParamID) (float64, bool) {
	switch id {
	case ParamFilterCutoff:
		return p.FilterCutoffHz, true
	case ParamFilterQ:
		return p.FilterQ, true
	case ParamDelayTime:
		return p.DelayTimeSec, true
	case ParamDelayMix:
		return p.DelayMix, true
	case ParamDelayFeedback:
		return p.DelayFeedback, true
	case ParamReverbMix:
		return p.ReverbMix, true
	case ParamMasterGain:
		return p.MasterGain, true
	}
	return 0, false
}

// SetValue sets the given parameter, returning false if the parameter is
// not an effects parameter.
func (p *EffectsParams) SetValue(id ParamID, v float64) bool {
	switch id {
	case ParamFilterCutoff:
		p.FilterCutoffHz = v
	case ParamFilterQ:
		p.FilterQ = v
	case ParamDelayTime:
		p.DelayTimeSec = v
	case ParamDelayMix:
		p.DelayMix = v
	case ParamDelayFeedback:
		p.DelayFeedback = v
	case ParamReverbMix:
		p.ReverbMix = v
	case ParamMasterGain:
		p.MasterGain = v
	default:
		return false
	}
	return true
}

// NumFrames returns the per-channel length of the buffer, 0 for a nil or
// empty buffer.
func (b *SampleBuffer) NumFrames() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds.
func (b *SampleBuffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.NumFrames()) / float64(b.SampleRate)
}

// Clamped returns the region with its bounds ordered and clamped to
// [0, duration]. Out-of-range bounds are never an error.
func (r Region) Clamped(duration float64) Region {
	start := math.Min(math.Max(r.Start, 0), duration)
	end := math.Min(math.Max(r.End, 0), duration)
	if end < start {
		start, end = end, start
	}
	return Region{Start: start, End: end}
}

// Len returns the region length in seconds.
func (r Region) Len() float64 { return r.End - r.Start }
