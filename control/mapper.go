package control

import (
	"math"

	"github.com/saarni/grainpad"
)

// Weights are the bilinear corner weights of an XY position, in the same
// tl, tr, bl, br order as CornerMapping.Corners. They always sum to 1 and
// each lies in [0, 1].
type Weights [4]float64

// CalculateWeights returns the bilinear weights of position (x, y).
// Positions outside [0, 1] are clamped, never rejected.
func CalculateWeights(x, y float64) Weights {
	x = clamp01(x)
	y = clamp01(y)
	return Weights{
		(1 - x) * (1 - y), // tl
		x * (1 - y),       // tr
		(1 - x) * y,       // bl
		x * y,             // br
	}
}

// MapParams derives target parameter values for the corners' assigned
// parameters. Each corner contributes its weight as influence on its
// parameter (a parameter assigned to several corners sums their weights);
// the target is then pulled from the frozen base snapshot toward the
// parameter's maximum by the clamped influence. Parameters with zero
// influence are omitted, which keeps them untouched on the engine side.
// Pad corners belong to the pad-morph layer and carry no parameter
// influence here.
func MapParams(w Weights, granular grainpad.GranularParams, effects grainpad.EffectsParams, mapping grainpad.CornerMapping) map[grainpad.ParamID]float64 {
	var influence [grainpad.NumParams]float64
	var touched [grainpad.NumParams]bool
	for i, corner := range mapping.Corners() {
		switch corner.Kind {
		case grainpad.CornerParam:
			if corner.Param >= 0 && corner.Param < grainpad.NumParams {
				influence[corner.Param] += w[i]
				touched[corner.Param] = true
			}
		case grainpad.CornerPad, grainpad.CornerNone:
			// no parameter influence
		}
	}
	result := make(map[grainpad.ParamID]float64)
	for id := grainpad.ParamID(0); id < grainpad.NumParams; id++ {
		if !touched[id] || influence[id] <= 0 {
			continue
		}
		base, ok := granular.Value(id)
		if !ok {
			base, _ = effects.Value(id)
		}
		max := grainpad.ParamRanges[id].Max
		result[id] = base + (max-base)*clamp01(influence[id])
	}
	return result
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
