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

// Package preprocess converts raw semi-planar camera frames into binary
// edge maps: the luma plane is extracted, smoothed with a Gaussian and run
// through Canny edge detection.
//
// Frames passed in are borrowed for the duration of the call only and are
// never written to. The returned edge map is newly allocated and belongs to
// the caller.
package preprocess

import (
	"image"
)

// Pipeline runs frames through decoding, smoothing and edge extraction
// with a fixed configuration. It holds no per-frame state so a single
// Pipeline can be shared between goroutines.
type Pipeline struct {
	conf   Config
	kernel []float64
}

func New(conf Config) (*Pipeline, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		conf:   conf,
		kernel: GaussianKernel(conf.KernelSize, conf.Sigma),
	}, nil
}

var defaultPipeline = mustNew(DefaultConfig())

func mustNew(conf Config) *Pipeline {
	p, err := New(conf)
	if err != nil {
		panic(err)
	}
	return p
}

// Preprocess runs frame through a pipeline using the default configuration.
func Preprocess(frame []byte, width, height int) ([]byte, error) {
	return defaultPipeline.Process(frame, width, height)
}

func (p *Pipeline) Config() Config {
	return p.conf
}

// Process returns the width*height edge map of a semi-planar frame. An
// error wrapping ErrInvalidDimensions is returned if frame is not exactly
// FrameSize(width, height) bytes long.
func (p *Pipeline) Process(frame []byte, width, height int) ([]byte, error) {
	gray, err := DecodeLuma(frame, width, height)
	if err != nil {
		return nil, err
	}
	return p.ProcessGray(gray), nil
}

// ProcessGray runs the smoothing and edge stages on an already decoded
// intensity image.
func (p *Pipeline) ProcessGray(gray *image.Gray) []byte {
	smoothed := blur(gray, p.kernel, p.conf.Border)
	return Canny(smoothed, p.conf.LowThreshold, p.conf.HighThreshold, p.conf.L2Gradient)
}

// EdgeCount returns the number of edge pixels in an edge map.
func EdgeCount(edges []byte) int {
	count := 0
	for _, v := range edges {
		if v != 0 {
			count++
		}
	}
	return count
}

// EdgeImage wraps an edge map as a grayscale image without copying it.
func EdgeImage(edges []byte, width, height int) *image.Gray {
	return &image.Gray{
		Pix:    edges,
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}
}
