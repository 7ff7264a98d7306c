package grainpad

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type (
	// Pad is the host-side definition of one trigger pad: the region it
	// plays, its parameter snapshot sources, its corner mapping and an
	// optional recorded motion path. The voice manager deep-copies
	// everything it needs at trigger time, so a bank can be edited while
	// voices play.
	Pad struct {
		Name        string         `yaml:"name,omitempty"`
		Region      Region         `yaml:"region"`
		Granular    GranularParams `yaml:"granular"`
		Effects     EffectsParams  `yaml:"effects"`
		Corners     CornerMapping  `yaml:"corners,omitempty"`
		X           float64        `yaml:"x"`
		Y           float64        `yaml:"y"`
		Motion      MotionPath     `yaml:"motion,omitempty"`
		MotionMode  MotionMode     `yaml:"motionmode,omitempty"`
		MotionSpeed float64        `yaml:"motionspeed,omitempty"`
	}

	// PadBank is a loadable set of pads, the preset format of the demo
	// host.
	PadBank struct {
		Pads []Pad `yaml:"pads"`
	}
)

// Copy returns a deep copy of the pad.
func (p *Pad) Copy() Pad {
	ret := *p
	ret.Motion = p.Motion.Copy()
	return ret
}

// ReadBank parses a pad bank from r, accepting either json or yaml.
func ReadBank(r io.Reader) (*PadBank, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read pad bank: %v", err)
	}
	var bank PadBank
	if errJSON := json.Unmarshal(b, &bank); errJSON != nil {
		if errYaml := yaml.Unmarshal(b, &bank); errYaml != nil {
			return nil, fmt.Errorf("the pad bank could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	for i := range bank.Pads {
		if bank.Pads[i].MotionSpeed == 0 {
			bank.Pads[i].MotionSpeed = 1
		}
	}
	return &bank, nil
}

// Write serializes the bank as yaml.
func (b *PadBank) Write(w io.Writer) error {
	contents, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("could not marshal pad bank: %v", err)
	}
	if _, err := w.Write(contents); err != nil {
		return fmt.Errorf("could not write pad bank: %v", err)
	}
	return nil
}
