// edge-detector - extract structural edges from camera frames
//  Copyright (C) 2026, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package preprocess

import (
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultKernelSize    = 5
	DefaultSigma         = 1.0
	DefaultLowThreshold  = 40
	DefaultHighThreshold = 120
)

// Border selects how pixels outside the image are sampled while smoothing.
type Border int

const (
	// BorderReflect101 mirrors about the edge pixel without repeating it
	// (dcb|abcd|cba).
	BorderReflect101 Border = iota
	// BorderReplicate repeats the edge pixel (aaa|abcd|ddd).
	BorderReplicate
)

var borderNames = map[Border]string{
	BorderReflect101: "reflect101",
	BorderReplicate:  "replicate",
}

func (b Border) String() string {
	if name, ok := borderNames[b]; ok {
		return name
	}
	return fmt.Sprintf("Border(%d)", int(b))
}

func ParseBorder(s string) (Border, error) {
	for b, name := range borderNames {
		if strings.EqualFold(s, name) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown border %q", s)
}

func (b Border) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

func (b *Border) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseBorder(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Layout identifies the chroma ordering of a semi-planar frame. Only the
// luma plane is consumed so both layouts decode identically; the layout is
// carried through to headers and recordings.
type Layout int

const (
	LayoutNV21 Layout = iota
	LayoutNV12
)

var layoutNames = map[Layout]string{
	LayoutNV21: "nv21",
	LayoutNV12: "nv12",
}

func (l Layout) String() string {
	if name, ok := layoutNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Layout(%d)", int(l))
}

func ParseLayout(s string) (Layout, error) {
	for l, name := range layoutNames {
		if strings.EqualFold(s, name) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown layout %q", s)
}

func (l Layout) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

func (l *Layout) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseLayout(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Config holds the tunable constants of the pipeline. DefaultConfig gives
// the reference behaviour.
type Config struct {
	KernelSize    int     `yaml:"kernel-size"`
	Sigma         float64 `yaml:"sigma"`
	LowThreshold  int     `yaml:"low-thresh"`
	HighThreshold int     `yaml:"high-thresh"`
	L2Gradient    bool    `yaml:"l2-gradient"`
	Border        Border  `yaml:"border"`
	Layout        Layout  `yaml:"layout"`
}

func DefaultConfig() Config {
	return Config{
		KernelSize:    DefaultKernelSize,
		Sigma:         DefaultSigma,
		LowThreshold:  DefaultLowThreshold,
		HighThreshold: DefaultHighThreshold,
		L2Gradient:    false,
		Border:        BorderReflect101,
		Layout:        LayoutNV21,
	}
}

func (conf *Config) Validate() error {
	if conf.KernelSize < 1 || conf.KernelSize%2 == 0 {
		return errors.New("kernel-size must be a positive odd number")
	}
	if conf.Sigma <= 0 {
		return errors.New("sigma must be greater than zero")
	}
	if conf.LowThreshold < 0 {
		return errors.New("low-thresh can not be negative")
	}
	if conf.LowThreshold >= conf.HighThreshold {
		return errors.New("low-thresh must be less than high-thresh")
	}
	if _, ok := borderNames[conf.Border]; !ok {
		return fmt.Errorf("unsupported border %v", conf.Border)
	}
	if _, ok := layoutNames[conf.Layout]; !ok {
		return fmt.Errorf("unsupported layout %v", conf.Layout)
	}
	return nil
}
