package engine

import (
	"math"

	"github.com/saarni/grainpad"
)

const maxGrains = 256

type (
	// grain is one enveloped excerpt in flight. It keeps its own buffer
	// reference so that replacing the voice's sample source never
	// affects grains already playing.
	grain struct {
		buf    *grainpad.SampleBuffer
		pos    float64 // read position in buffer frames
		step   float64 // frames advanced per output sample
		length float64 // grain length in output samples
		age    float64 // output samples rendered so far
	}

	// Voice generates the dry granular signal for one pad: it schedules
	// grains from the current region at the configured density and sums
	// the grains currently in flight. A Voice is owned by the audio
	// goroutine; the control loop talks to it only through Synth's
	// message application.
	Voice struct {
		sampleRate int
		buf        *grainpad.SampleBuffer
		startFrame int // region bounds in buffer frames
		endFrame   int
		params     grainpad.GranularParams
		grains     []grain
		sinceLast  float64 // output samples since the last spawn
		playing    bool
		randSeed   uint32
	}
)

// NewVoice returns a silent voice rendering at the given output rate.
func NewVoice(sampleRate int) *Voice {
	return &Voice{
		sampleRate: sampleRate,
		params:     grainpad.DefaultGranularParams(),
		grains:     make([]grain, 0, maxGrains),
		randSeed:   1,
	}
}

// SetBuffer replaces the sample source. Grains in flight keep reading
// from the buffer they started with; nothing else is reset.
func (v *Voice) SetBuffer(buf *grainpad.SampleBuffer) {
	v.buf = buf
}

// SetRegion sets the grain source span in buffer frames, ordering and
// clamping the bounds.
func (v *Voice) SetRegion(startFrame, endFrame int) {
	if endFrame < startFrame {
		startFrame, endFrame = endFrame, startFrame
	}
	if startFrame < 0 {
		startFrame = 0
	}
	if endFrame < 0 {
		endFrame = 0
	}
	v.startFrame = startFrame
	v.endFrame = endFrame
}

// SetParam merges one granular parameter; the next scheduled grain uses
// the updated value, grains already in flight are unaffected.
func (v *Voice) SetParam(id grainpad.ParamID, value float64) bool {
	return v.params.SetValue(id, value)
}

// Params returns the current grain parameters.
func (v *Voice) Params() grainpad.GranularParams { return v.params }

// Trigger starts (or restarts) the grain scheduling cadence. One grain is
// spawned immediately to minimize perceived attack latency.
func (v *Voice) Trigger() {
	v.playing = true
	v.sinceLast = 0
	v.spawnGrain()
}

// Stop halts scheduling of new grains. Grains already in flight finish
// their envelope naturally to avoid clicks.
func (v *Voice) Stop() {
	v.playing = false
}

// Playing reports whether the voice is scheduling new grains.
func (v *Voice) Playing() bool { return v.playing }

// Active reports whether the voice still produces sound: either playing
// or ringing out grains.
func (v *Voice) Active() bool { return v.playing || len(v.grains) > 0 }

// spawnInterval returns the scheduling cadence in output samples.
func (v *Voice) spawnInterval() float64 {
	return float64(v.sampleRate) / math.Max(1, v.params.Density)
}

// RenderSample produces the next dry stereo sample.
func (v *Voice) RenderSample() (left, right float32) {
	if v.playing && v.buf.NumFrames() > 0 {
		v.sinceLast++
		if interval := v.spawnInterval(); v.sinceLast >= interval {
			v.spawnGrain()
			v.sinceLast -= interval
		}
	}
	for i := 0; i < len(v.grains); {
		g := &v.grains[i]
		amp := grainEnvelope(g.age, g.length)
		l, r := readStereo(g.buf, g.pos)
		left += l * amp
		right += r * amp
		g.pos += g.step
		g.age++
		if g.age >= g.length {
			last := len(v.grains) - 1
			v.grains[i] = v.grains[last]
			v.grains = v.grains[:last]
		} else {
			i++
		}
	}
	return left, right
}

func (v *Voice) spawnGrain() {
	frames := v.buf.NumFrames()
	if frames == 0 || len(v.grains) >= maxGrains {
		return
	}
	bufRate := float64(v.buf.SampleRate)
	start := float64(v.startFrame)
	end := math.Min(float64(v.endFrame), float64(frames))
	if start >= end {
		return
	}
	grainFrames := math.Max(1, v.params.GrainSizeMs/1000*bufRate)
	offset := v.rand() * v.params.RandomStartMs / 1000 * bufRate
	pos := start + offset
	if maxStart := end - grainFrames; maxStart >= start {
		pos = math.Min(math.Max(pos, start), maxStart)
	} else {
		// region narrower than one grain; pin to the region start and
		// accept that the grain runs slightly past the end
		pos = start
	}
	rate := math.Exp2(v.params.PitchSemitones / 12)
	v.grains = append(v.grains, grain{
		buf:    v.buf,
		pos:    pos,
		step:   rate * bufRate / float64(v.sampleRate),
		length: math.Max(1, v.params.GrainSizeMs/1000*float64(v.sampleRate)),
	})
}

// rand returns a pseudorandom value in [-1, 1).
func (v *Voice) rand() float64 {
	v.randSeed *= 16007
	return float64(int32(v.randSeed)) / -2147483648.0
}

// grainEnvelope is a linear trapezoid: attack over at most 20% of the
// grain, release over at most 25%, capped so very short grains are not
// swallowed by their own fades.
func grainEnvelope(age, length float64) float32 {
	pos := age / length
	attack := math.Min(0.2, 10/length)
	release := math.Min(0.25, 12/length)
	switch {
	case pos < attack:
		return float32(pos / math.Max(attack, 1e-6))
	case pos > 1-release:
		return float32((1 - pos) / math.Max(release, 1e-6))
	default:
		return 1
	}
}

// readStereo reads the buffer at a fractional frame position with linear
// interpolation. The first channel feeds the left output and the last
// channel the right, so mono buffers play centered.
func readStereo(buf *grainpad.SampleBuffer, pos float64) (left, right float32) {
	frames := buf.NumFrames()
	i := int(pos)
	if i < 0 || i >= frames-1 {
		return 0, 0
	}
	frac := float32(pos - float64(i))
	chL := buf.Channels[0]
	chR := buf.Channels[len(buf.Channels)-1]
	left = chL[i] + (chL[i+1]-chL[i])*frac
	right = chR[i] + (chR[i+1]-chR[i])*frac
	return left, right
}
