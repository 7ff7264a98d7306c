package grainpad

import (
	"fmt"
	"math"
	"sort"
)

type (
	// MotionPoint is one sample of a recorded 2D trajectory. Time is in
	// milliseconds relative to the start of the path and must be
	// non-decreasing within a path.
	MotionPoint struct {
		X    float64 `yaml:"x"`
		Y    float64 `yaml:"y"`
		Time float64 `yaml:"t"`
	}

	// MotionPath is a recorded trajectory used to automate a voice's 2D
	// position. A path with fewer than two points or zero total duration
	// disables automation for the voice.
	MotionPath []MotionPoint

	// MotionMode selects how elapsed playback time maps onto the path
	// timeline.
	MotionMode int
)

const (
	MotionLoop MotionMode = iota
	MotionPingPong
	MotionOneShot
	MotionReverse
)

var motionModeNames = map[MotionMode]string{
	MotionLoop:     "loop",
	MotionPingPong: "pingpong",
	MotionOneShot:  "oneshot",
	MotionReverse:  "reverse",
}

func (m MotionMode) String() string {
	if n, ok := motionModeNames[m]; ok {
		return n
	}
	return "loop"
}

func (m MotionMode) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

func (m *MotionMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	for mode, n := range motionModeNames {
		if n == name {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown motion mode %q", name)
}

// Copy returns a deep copy of the path, breaking aliasing with the
// caller's slice.
func (p MotionPath) Copy() MotionPath {
	if p == nil {
		return nil
	}
	ret := make(MotionPath, len(p))
	copy(ret, p)
	return ret
}

// Duration returns the total path duration in milliseconds.
func (p MotionPath) Duration() float64 {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1].Time - p[0].Time
}

// Valid reports whether the path can drive automation: at least two
// points and a non-zero total duration.
func (p MotionPath) Valid() bool {
	return len(p) >= 2 && p.Duration() > 0
}

// At returns the interpolated position at playhead t (milliseconds from
// path start). Outside [0, Duration] the position clamps to the path
// extremes.
func (p MotionPath) At(t float64) (x, y float64) {
	if len(p) == 0 {
		return 0, 0
	}
	t += p[0].Time
	if t <= p[0].Time {
		return p[0].X, p[0].Y
	}
	if last := p[len(p)-1]; t >= last.Time {
		return last.X, last.Y
	}
	// index of the first point strictly after t; the bracketing pair is
	// then (i-1, i)
	i := sort.Search(len(p), func(i int) bool { return p[i].Time > t })
	a, b := p[i-1], p[i]
	if b.Time <= a.Time {
		return b.X, b.Y
	}
	frac := (t - a.Time) / (b.Time - a.Time)
	return a.X + (b.X-a.X)*frac, a.Y + (b.Y-a.Y)*frac
}

// Phase maps elapsed playback time onto a playhead within [0, total]
// according to the mode. OneShot holds at the end rather than stopping
// the voice.
func (m MotionMode) Phase(elapsed, total float64) float64 {
	if total <= 0 {
		return 0
	}
	switch m {
	case MotionOneShot:
		return math.Min(elapsed, total)
	case MotionReverse:
		return total - math.Mod(elapsed, total)
	case MotionPingPong:
		t := math.Mod(elapsed, 2*total)
		if t > total {
			t = 2*total - t
		}
		return t
	default: // MotionLoop
		return math.Mod(elapsed, total)
	}
}
