package control

import (
	"math"
	"time"

	"github.com/saarni/grainpad"
	"github.com/saarni/grainpad/engine"
)

const (
	// DefaultNumVoices is the size of the voice pool. It exceeds the
	// expected pad count so stealing is a rare fallback, not the common
	// path.
	DefaultNumVoices = 4

	// defaultThrottle is the minimum interval between automation update
	// batches per voice. Together with the epsilon dirty-check it is the
	// sole congestion control protecting the message channel.
	defaultThrottle = 33 * time.Millisecond
)

type (
	// Voice is the control-side record of one synthesis instance: pad
	// binding, automation state and the dirty-check caches. Voices are
	// constructed once at pool initialization and reused for the process
	// lifetime; a trigger only resets their logical binding.
	Voice struct {
		id       int
		active   bool
		padIndex int

		startTime time.Time

		currentX, currentY float64
		manualOverride     bool

		region       grainpad.Region
		baseGranular grainpad.GranularParams
		baseEffects  grainpad.EffectsParams
		corners      grainpad.CornerMapping

		motionPath  grainpad.MotionPath
		motionMode  grainpad.MotionMode
		motionStart time.Time
		motionSpeed float64

		lastSent     [grainpad.NumParams]float64
		hasSent      [grainpad.NumParams]bool
		lastSendTime time.Time
	}

	// Manager owns the voice pool. It resolves trigger requests to a
	// voice, advances motion-path playback on every tick, runs the
	// parameter mapper and forwards throttled, dirty-checked updates
	// through the broker into the synth. The Manager is the only writer
	// of voice state and must be driven from a single goroutine (the
	// host's frame loop).
	Manager struct {
		broker   *Broker
		voices   []*Voice
		buf      *grainpad.SampleBuffer
		throttle time.Duration
		now      func() time.Time
	}

	// TriggerOpts is everything a pad trigger carries. Granular, Effects
	// and Motion are deep-copied into the voice, so the caller may keep
	// mutating its own pad state while the voice plays.
	TriggerOpts struct {
		Pad         int
		Region      grainpad.Region
		Granular    grainpad.GranularParams
		Effects     grainpad.EffectsParams
		X, Y        float64
		Motion      grainpad.MotionPath
		MotionMode  grainpad.MotionMode
		MotionSpeed float64
		Corners     grainpad.CornerMapping
	}

	// VoicePosition is one voice's XY position for host visualization.
	VoicePosition struct {
		X, Y       float64
		ColorIndex int
	}
)

// NewManager creates a manager with the given pool size (clamped to
// [1, engine.MaxVoices]).
func NewManager(broker *Broker, numVoices int) *Manager {
	if numVoices < 1 {
		numVoices = 1
	}
	if numVoices > engine.MaxVoices {
		numVoices = engine.MaxVoices
	}
	m := &Manager{
		broker:   broker,
		throttle: defaultThrottle,
		now:      time.Now,
	}
	for i := 0; i < numVoices; i++ {
		m.voices = append(m.voices, &Voice{id: i, padIndex: -1, motionSpeed: 1})
	}
	return m
}

// SetClock replaces the time source, for tests and offline rendering.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// NumVoices returns the pool size.
func (m *Manager) NumVoices() int { return len(m.voices) }

// SetBuffer stores the shared sample source and broadcasts it to all
// voice engines. Active regions are re-sent because the seconds-to-
// samples conversion depends on the buffer's rate.
func (m *Manager) SetBuffer(buf *grainpad.SampleBuffer) {
	m.buf = buf
	TrySend(m.broker.ToPlayer, any(SetBufferMsg{Buffer: buf}))
	for _, v := range m.voices {
		if v.active {
			m.sendRegion(v)
		}
	}
}

// Trigger resolves the request to a voice and (re)starts it. Resolution
// order: the voice already bound to the pad, then an unbound inactive
// voice, then any inactive voice, then the voice with the oldest start
// time (hard steal).
func (m *Manager) Trigger(opts TriggerOpts) {
	v := m.resolveVoice(opts.Pad)
	if v.active {
		// monophonic per pad: stop the previous instance before restart
		TrySend(m.broker.ToPlayer, any(TriggerMsg{Voice: v.id, On: false}))
	}
	now := m.now()
	v.active = true
	v.padIndex = opts.Pad
	v.startTime = now
	v.currentX = clamp01(opts.X)
	v.currentY = clamp01(opts.Y)
	v.manualOverride = false
	v.baseGranular = opts.Granular.Copy()
	v.baseEffects = opts.Effects.Copy()
	v.corners = opts.Corners
	v.region = opts.Region.Clamped(m.buf.Duration())
	if opts.Motion.Valid() {
		v.motionPath = opts.Motion.Copy()
	} else {
		v.motionPath = nil
	}
	v.motionMode = opts.MotionMode
	v.motionStart = now
	v.motionSpeed = opts.MotionSpeed
	if v.motionSpeed <= 0 {
		v.motionSpeed = 1
	}
	for i := range v.hasSent {
		v.hasSent[i] = false
	}
	v.lastSendTime = time.Time{}

	m.sendRegion(v)
	m.sendBaseParams(v)
	TrySend(m.broker.ToPlayer, any(TriggerMsg{Voice: v.id, On: true}))
}

func (m *Manager) resolveVoice(pad int) *Voice {
	for _, v := range m.voices {
		if v.padIndex == pad {
			return v
		}
	}
	for _, v := range m.voices {
		if !v.active && v.padIndex < 0 {
			return v
		}
	}
	for _, v := range m.voices {
		if !v.active {
			return v
		}
	}
	oldest := m.voices[0]
	for _, v := range m.voices[1:] {
		if v.startTime.Before(oldest.startTime) {
			oldest = v
		}
	}
	return oldest
}

// StopPad deactivates the voice bound to the pad and gracefully stops its
// engine.
func (m *Manager) StopPad(pad int) {
	for _, v := range m.voices {
		if v.padIndex == pad && v.active {
			v.active = false
			TrySend(m.broker.ToPlayer, any(TriggerMsg{Voice: v.id, On: false}))
		}
	}
}

// StopAll deactivates every voice.
func (m *Manager) StopAll() {
	for _, v := range m.voices {
		if v.active {
			v.active = false
			TrySend(m.broker.ToPlayer, any(TriggerMsg{Voice: v.id, On: false}))
		}
	}
}

// SetManualOverride switches a voice between motion-path and direct
// position control. Entering the override applies the position and runs
// one mapper pass immediately, bypassing the throttle, so audio reacts
// without perceptible delay. Leaving it does nothing further: path time
// kept advancing during the override, so playback resumes at the path's
// natural phase instead of rewinding.
func (m *Manager) SetManualOverride(pad int, active bool, x, y float64) {
	v := m.activeVoiceForPad(pad)
	if v == nil {
		return
	}
	if active {
		v.manualOverride = true
		v.currentX = clamp01(x)
		v.currentY = clamp01(y)
		m.sendUpdates(v, m.now(), true)
	} else {
		v.manualOverride = false
	}
}

// SetMotionMode changes a voice's motion playback mode without
// retriggering.
func (m *Manager) SetMotionMode(pad int, mode grainpad.MotionMode) {
	if v := m.activeVoiceForPad(pad); v != nil {
		v.motionMode = mode
	}
}

// SetMotionSpeed changes a voice's motion playback speed without
// retriggering. The start time is rebased so the playhead does not jump.
func (m *Manager) SetMotionSpeed(pad int, speed float64) {
	v := m.activeVoiceForPad(pad)
	if v == nil || speed <= 0 {
		return
	}
	now := m.now()
	elapsed := now.Sub(v.motionStart).Seconds() * v.motionSpeed
	v.motionStart = now.Add(-time.Duration(elapsed / speed * float64(time.Second)))
	v.motionSpeed = speed
}

// SetRegion updates a voice's region live, e.g. during a waveform drag.
func (m *Manager) SetRegion(pad int, region grainpad.Region) {
	v := m.activeVoiceForPad(pad)
	if v == nil {
		return
	}
	v.region = region.Clamped(m.buf.Duration())
	m.sendRegion(v)
}

// SetCornerMapping updates a voice's corner assignments live.
func (m *Manager) SetCornerMapping(pad int, mapping grainpad.CornerMapping) {
	if v := m.activeVoiceForPad(pad); v != nil {
		v.corners = mapping
	}
}

// Tick advances motion playback and runs the parameter mapper for every
// active voice. It is invoked once per host frame and never blocks.
func (m *Manager) Tick() {
	now := m.now()
	for _, v := range m.voices {
		if !v.active {
			continue
		}
		if !v.manualOverride && v.motionPath.Valid() {
			t := v.motionMode.Phase(m.elapsedMs(v, now), v.motionPath.Duration())
			x, y := v.motionPath.At(t)
			v.currentX = clamp01(x)
			v.currentY = clamp01(y)
		}
		m.sendUpdates(v, now, false)
	}
}

func (m *Manager) elapsedMs(v *Voice, now time.Time) float64 {
	return now.Sub(v.motionStart).Seconds() * 1000 * v.motionSpeed
}

// sendUpdates runs the mapper and forwards parameters that moved more
// than their epsilon since last sent. Unless force is set, a voice emits
// at most one update batch per throttle interval.
func (m *Manager) sendUpdates(v *Voice, now time.Time, force bool) {
	if !force && !v.lastSendTime.IsZero() && now.Sub(v.lastSendTime) < m.throttle {
		return
	}
	weights := CalculateWeights(v.currentX, v.currentY)
	targets := MapParams(weights, v.baseGranular, v.baseEffects, v.corners)
	changed := false
	for id := grainpad.ParamID(0); id < grainpad.NumParams; id++ {
		value, ok := targets[id]
		if !ok {
			continue
		}
		if v.hasSent[id] && math.Abs(value-v.lastSent[id]) <= id.Epsilon() {
			continue
		}
		TrySend(m.broker.ToPlayer, any(SetParamMsg{Voice: v.id, Param: id, Value: value}))
		v.lastSent[id] = value
		v.hasSent[id] = true
		changed = true
	}
	if changed || force {
		v.lastSendTime = now
	}
}

func (m *Manager) sendRegion(v *Voice) {
	rate := 0
	if m.buf != nil {
		rate = m.buf.SampleRate
	}
	TrySend(m.broker.ToPlayer, any(SetRegionMsg{
		Voice:       v.id,
		StartSample: int(v.region.Start * float64(rate)),
		EndSample:   int(v.region.End * float64(rate)),
	}))
}

func (m *Manager) sendBaseParams(v *Voice) {
	for id := grainpad.ParamID(0); id < grainpad.NumParams; id++ {
		value, ok := v.baseGranular.Value(id)
		if !ok {
			value, ok = v.baseEffects.Value(id)
		}
		if !ok {
			continue
		}
		TrySend(m.broker.ToPlayer, any(SetParamMsg{Voice: v.id, Param: id, Value: value}))
	}
}

func (m *Manager) activeVoiceForPad(pad int) *Voice {
	for _, v := range m.voices {
		if v.padIndex == pad && v.active {
			return v
		}
	}
	return nil
}

// IsPadPlaying reports whether the pad has an active voice.
func (m *Manager) IsPadPlaying(pad int) bool {
	return m.activeVoiceForPad(pad) != nil
}

// VoicePositionFor returns the current XY position of the pad's active
// voice, for cursor rendering.
func (m *Manager) VoicePositionFor(pad int) (x, y float64, ok bool) {
	v := m.activeVoiceForPad(pad)
	if v == nil {
		return 0, 0, false
	}
	return v.currentX, v.currentY, true
}

// AllVoicePositions returns the positions of all active voices, for the
// multi-voice ghost visualization.
func (m *Manager) AllVoicePositions() []VoicePosition {
	var ret []VoicePosition
	for _, v := range m.voices {
		if v.active {
			ret = append(ret, VoicePosition{X: v.currentX, Y: v.currentY, ColorIndex: v.id})
		}
	}
	return ret
}

// MotionProgress returns the pad's motion playhead in milliseconds, or
// false when the pad is not playing or has no valid motion path.
func (m *Manager) MotionProgress(pad int) (float64, bool) {
	v := m.activeVoiceForPad(pad)
	if v == nil || !v.motionPath.Valid() {
		return 0, false
	}
	return v.motionMode.Phase(m.elapsedMs(v, m.now()), v.motionPath.Duration()), true
}
