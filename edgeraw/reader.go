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

package edgeraw

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/TheCacophonyProject/go-cptv"
	"github.com/klauspost/compress/zstd"
)

// NewReader returns a Reader for the edgeraw recording in r.
func NewReader(r io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &Reader{
		dec: dec,
		r:   bufio.NewReader(dec),
	}, nil
}

// Reader pulls apart the sections of an edgeraw recording. Header must be
// called before Frame.
type Reader struct {
	dec       *zstd.Decoder
	r         *bufio.Reader
	frameSize int
}

func (r *Reader) Header() (*Header, error) {
	magicRead := make([]byte, len(magic))
	if _, err := io.ReadFull(r.r, magicRead); err != nil {
		return nil, err
	}
	if string(magicRead) != magic {
		return nil, errors.New("magic not found")
	}
	if err := r.checkByte("version", version); err != nil {
		return nil, err
	}
	if err := r.checkByte("section", headerSection); err != nil {
		return nil, err
	}
	fields, err := cptv.ReadFields(r.r)
	if err != nil {
		return nil, err
	}
	h, err := parseHeader(fields)
	if err != nil {
		return nil, err
	}
	r.frameSize = h.ResX * h.ResY
	return h, nil
}

// Frame returns the next frame in the recording or io.EOF when there are
// no more frames.
func (r *Reader) Frame() (*Frame, error) {
	if r.frameSize == 0 {
		return nil, errors.New("header not read")
	}
	section, err := r.r.ReadByte()
	if err != nil {
		return nil, err
	}
	if section != frameSection {
		return nil, fmt.Errorf("unexpected section: %d", section)
	}
	fields, err := cptv.ReadFields(r.r)
	if err != nil {
		return nil, unexpectedEOF(err)
	}
	offset, err := fields.Uint32(cptv.TimeOn)
	if err != nil {
		return nil, fmt.Errorf("frame offset: %v", err)
	}
	size, err := fields.Uint32(cptv.FrameSize)
	if err != nil {
		return nil, fmt.Errorf("frame size: %v", err)
	}
	edgeCount, err := fields.Uint32(EdgeCount)
	if err != nil {
		return nil, fmt.Errorf("edge count: %v", err)
	}
	if int(size) != r.frameSize {
		return nil, fmt.Errorf("frame is %d bytes, expected %d", size, r.frameSize)
	}
	edges := make([]byte, size)
	if _, err := io.ReadFull(r.r, edges); err != nil {
		return nil, unexpectedEOF(err)
	}
	return &Frame{
		Offset:    time.Duration(offset) * time.Microsecond,
		EdgeCount: int(edgeCount),
		Edges:     edges,
	}, nil
}

func (r *Reader) Close() {
	r.dec.Close()
}

func (r *Reader) checkByte(label string, expected byte) error {
	actual, err := r.r.ReadByte()
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("unexpected %s: %d", label, actual)
	}
	return nil
}

func parseHeader(fields cptv.Fields) (*Header, error) {
	var (
		h   Header
		err error
	)
	if h.Timestamp, err = fields.Timestamp(cptv.Timestamp); err != nil {
		return nil, fmt.Errorf("timestamp: %v", err)
	}
	// Identity fields may legitimately be empty.
	h.Model, _ = fields.String(cptv.Model)
	h.Brand, _ = fields.String(cptv.Brand)
	h.DeviceName, _ = fields.String(cptv.DeviceName)
	h.Layout, _ = fields.String(Layout)

	fps, err := fields.Uint8(cptv.FPS)
	if err != nil {
		return nil, fmt.Errorf("fps: %v", err)
	}
	h.FPS = int(fps)
	resX, err := fields.Uint32(cptv.XResolution)
	if err != nil {
		return nil, fmt.Errorf("x resolution: %v", err)
	}
	h.ResX = int(resX)
	resY, err := fields.Uint32(cptv.YResolution)
	if err != nil {
		return nil, fmt.Errorf("y resolution: %v", err)
	}
	h.ResY = int(resY)
	if h.ResX == 0 || h.ResY == 0 {
		return nil, fmt.Errorf("invalid resolution %dx%d", h.ResX, h.ResY)
	}
	deviceID, err := fields.Uint32(cptv.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("device id: %v", err)
	}
	h.DeviceID = int(deviceID)
	kernelSize, err := fields.Uint8(KernelSize)
	if err != nil {
		return nil, fmt.Errorf("kernel size: %v", err)
	}
	h.KernelSize = int(kernelSize)
	sigma, err := fields.Uint32(Sigma)
	if err != nil {
		return nil, fmt.Errorf("sigma: %v", err)
	}
	h.Sigma = fromMilli(sigma)
	low, err := fields.Uint32(LowThreshold)
	if err != nil {
		return nil, fmt.Errorf("low threshold: %v", err)
	}
	h.LowThreshold = fromMilli(low)
	high, err := fields.Uint32(HighThreshold)
	if err != nil {
		return nil, fmt.Errorf("high threshold: %v", err)
	}
	h.HighThreshold = fromMilli(high)
	return &h, nil
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
