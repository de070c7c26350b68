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

package headers

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v1"

	"github.com/TheCacophonyProject/edge-detector/preprocess"
)

// Header keys sent by a frame source at the start of a connection.
const (
	XResolution = "ResX"
	YResolution = "ResY"
	FPS         = "FPS"
	FrameSize   = "FrameSize"
	Brand       = "Brand"
	Model       = "Model"
	Layout      = "Layout"
)

type HeaderInfo struct {
	resX      int
	resY      int
	fps       int
	framesize int
	brand     string
	model     string
	layout    preprocess.Layout
}

// New describes a camera sending semi-planar frames of the given size.
func New(resX, resY, fps int, brand, model string, layout preprocess.Layout) *HeaderInfo {
	return &HeaderInfo{
		resX:      resX,
		resY:      resY,
		fps:       fps,
		framesize: preprocess.FrameSize(resX, resY),
		brand:     brand,
		model:     model,
		layout:    layout,
	}
}

func (h *HeaderInfo) ResX() int {
	return h.resX
}

func (h *HeaderInfo) ResY() int {
	return h.resY
}

func (h *HeaderInfo) FPS() int {
	return h.fps
}

func (h *HeaderInfo) FrameSize() int {
	return h.framesize
}

func (h *HeaderInfo) Model() string {
	return h.model
}

func (h *HeaderInfo) Brand() string {
	return h.brand
}

func (h *HeaderInfo) Layout() preprocess.Layout {
	return h.layout
}

// Validate checks the header describes frames the pipeline can accept.
func (h *HeaderInfo) Validate() error {
	if !preprocess.ValidDimensions(h.resX, h.resY) {
		return fmt.Errorf("invalid resolution %dx%d", h.resX, h.resY)
	}
	if h.fps <= 0 {
		return errors.New("fps must be greater than zero")
	}
	if expected := preprocess.FrameSize(h.resX, h.resY); h.framesize != expected {
		return fmt.Errorf("frame size %d doesn't match %dx%d resolution, expected %d",
			h.framesize, h.resX, h.resY, expected)
	}
	return nil
}

// ReadHeaderInfo reads the YAML header block which is terminated by an
// empty line. A missing Layout defaults to NV21.
func ReadHeaderInfo(reader *bufio.Reader) (*HeaderInfo, error) {
	var buf bytes.Buffer
	for {
		line, err := reader.ReadString(byte('\n'))
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		buf.WriteString(line)
	}
	h := make(map[string]interface{})
	err := yaml.Unmarshal(buf.Bytes(), &h)
	if err != nil {
		return nil, err
	}

	layout := preprocess.LayoutNV21
	if s := toStr(h[Layout]); s != "" {
		layout, err = preprocess.ParseLayout(s)
		if err != nil {
			return nil, err
		}
	}

	return &HeaderInfo{
		resX:      toInt(h[XResolution]),
		resY:      toInt(h[YResolution]),
		fps:       toInt(h[FPS]),
		framesize: toInt(h[FrameSize]),
		brand:     toStr(h[Brand]),
		model:     toStr(h[Model]),
		layout:    layout,
	}, nil
}

// WriteHeaderInfo writes h in the format read by ReadHeaderInfo.
func WriteHeaderInfo(w io.Writer, h *HeaderInfo) error {
	out, err := yaml.Marshal(map[string]interface{}{
		XResolution: h.resX,
		YResolution: h.resY,
		FPS:         h.fps,
		FrameSize:   h.framesize,
		Brand:       h.brand,
		Model:       h.model,
		Layout:      h.layout.String(),
	})
	if err != nil {
		return err
	}
	_, err = w.Write(append(out, '\n'))
	return err
}

func toInt(v interface{}) int {
	out, ok := v.(int)
	if !ok {
		return 0
	}
	return out
}

func toStr(v interface{}) string {
	out, ok := v.(string)
	if !ok {
		return ""
	}
	return out
}
