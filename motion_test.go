package grainpad

import (
	"math"
	"testing"
)

func TestMotionModePhase(t *testing.T) {
	const total = 1000.0
	tests := []struct {
		mode     MotionMode
		elapsed  float64
		expected float64
	}{
		{MotionLoop, 0, 0},
		{MotionLoop, 500, 500},
		{MotionLoop, 1500, 500},
		{MotionLoop, 3250, 250},
		{MotionPingPong, 500, 500},
		{MotionPingPong, 1500, 500},
		{MotionPingPong, 1900, 100},
		{MotionPingPong, 2100, 100},
		{MotionOneShot, 500, 500},
		{MotionOneShot, 1500, 1000},
		{MotionOneShot, 99999, 1000},
		{MotionReverse, 300, 700},
		{MotionReverse, 1300, 700},
	}
	for _, test := range tests {
		got := test.mode.Phase(test.elapsed, total)
		if math.Abs(got-test.expected) > 1e-9 {
			t.Errorf("%v.Phase(%v, %v): expected %v, got %v", test.mode, test.elapsed, total, test.expected, got)
		}
	}
}

func TestMotionModePhaseZeroDuration(t *testing.T) {
	for _, mode := range []MotionMode{MotionLoop, MotionPingPong, MotionOneShot, MotionReverse} {
		if got := mode.Phase(123, 0); got != 0 {
			t.Errorf("%v.Phase(123, 0): expected 0, got %v", mode, got)
		}
	}
}

func TestMotionPathAt(t *testing.T) {
	path := MotionPath{
		{X: 0, Y: 0, Time: 0},
		{X: 1, Y: 0.5, Time: 1000},
		{X: 0, Y: 1, Time: 2000},
	}
	tests := []struct {
		t    float64
		x, y float64
	}{
		{-100, 0, 0}, // clamps to first point
		{0, 0, 0},
		{500, 0.5, 0.25},
		{1000, 1, 0.5},
		{1500, 0.5, 0.75},
		{2000, 0, 1},
		{5000, 0, 1}, // clamps to last point
	}
	for _, test := range tests {
		x, y := path.At(test.t)
		if math.Abs(x-test.x) > 1e-9 || math.Abs(y-test.y) > 1e-9 {
			t.Errorf("At(%v): expected (%v, %v), got (%v, %v)", test.t, test.x, test.y, x, y)
		}
	}
}

func TestMotionPathAtNonZeroStart(t *testing.T) {
	// recorded paths do not necessarily start at time zero; At is relative
	// to the first point
	path := MotionPath{
		{X: 0.2, Y: 0.2, Time: 5000},
		{X: 0.8, Y: 0.8, Time: 6000},
	}
	if d := path.Duration(); d != 1000 {
		t.Fatalf("Duration: expected 1000, got %v", d)
	}
	x, y := path.At(500)
	if math.Abs(x-0.5) > 1e-9 || math.Abs(y-0.5) > 1e-9 {
		t.Errorf("At(500): expected (0.5, 0.5), got (%v, %v)", x, y)
	}
}

func TestMotionPathValid(t *testing.T) {
	tests := []struct {
		path     MotionPath
		expected bool
	}{
		{nil, false},
		{MotionPath{{X: 0.5, Y: 0.5, Time: 0}}, false},
		{MotionPath{{Time: 0}, {Time: 0}}, false}, // zero duration
		{MotionPath{{Time: 0}, {Time: 100}}, true},
	}
	for i, test := range tests {
		if got := test.path.Valid(); got != test.expected {
			t.Errorf("case %d: expected Valid() == %v, got %v", i, test.expected, got)
		}
	}
}

func TestMotionPathCopyBreaksAliasing(t *testing.T) {
	path := MotionPath{{X: 0.1}, {X: 0.9, Time: 100}}
	clone := path.Copy()
	path[0].X = 0.7
	if clone[0].X != 0.1 {
		t.Errorf("Copy should not alias the original, got %v", clone[0].X)
	}
}
