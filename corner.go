package grainpad

import (
	"fmt"
	"strconv"
	"strings"
)

type (
	// CornerKind tags what a control-surface corner is assigned to.
	CornerKind int

	// CornerTarget is the assignment of one corner of the XY surface:
	// nothing, an automatable parameter, or another pad (the pad-morph
	// variant; the parameter mapper skips pad corners).
	CornerTarget struct {
		Kind  CornerKind
		Param ParamID
		Pad   int
	}

	// CornerMapping assigns all four corners. The zero value maps nothing
	// and makes automation a no-op.
	CornerMapping struct {
		TL CornerTarget `yaml:"tl,omitempty"`
		TR CornerTarget `yaml:"tr,omitempty"`
		BL CornerTarget `yaml:"bl,omitempty"`
		BR CornerTarget `yaml:"br,omitempty"`
	}
)

const (
	CornerNone CornerKind = iota
	CornerParam
	CornerPad
)

// ParamCorner returns a corner target assigned to a parameter.
func ParamCorner(id ParamID) CornerTarget {
	return CornerTarget{Kind: CornerParam, Param: id}
}

// PadCorner returns a corner target assigned to a pad.
func PadCorner(pad int) CornerTarget {
	return CornerTarget{Kind: CornerPad, Pad: pad}
}

func (c CornerTarget) String() string {
	switch c.Kind {
	case CornerParam:
		return c.Param.String()
	case CornerPad:
		return fmt.Sprintf("pad:%d", c.Pad)
	}
	return ""
}

// Corners returns the four targets in tl, tr, bl, br order, matching the
// weight order of the parameter mapper.
func (m CornerMapping) Corners() [4]CornerTarget {
	return [4]CornerTarget{m.TL, m.TR, m.BL, m.BR}
}

// The on-disk form is a plain string: a parameter name, "pad:N", or empty
// for an unassigned corner. In memory the target stays a tagged variant.

func (c CornerTarget) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

func (c *CornerTarget) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*c = CornerTarget{}
		return nil
	}
	if rest, ok := strings.CutPrefix(s, "pad:"); ok {
		pad, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("invalid pad corner %q: %v", s, err)
		}
		*c = PadCorner(pad)
		return nil
	}
	id, ok := ParseParamID(s)
	if !ok {
		return fmt.Errorf("unknown corner parameter %q", s)
	}
	*c = ParamCorner(id)
	return nil
}
