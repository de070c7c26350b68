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

// Package edgeraw reads and writes recordings of edge maps.
//
// A recording is a zstd compressed stream. It starts with the magic
// "EDGR", a version byte and a header section. Each frame section holds a
// few fields followed by one byte per pixel. Fields use the CPTV field
// encoding.
package edgeraw

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/TheCacophonyProject/go-cptv"
	"github.com/klauspost/compress/zstd"
)

const (
	magic        = "EDGR"
	version byte = 0x01

	headerSection = 'H'
	frameSection  = 'F'

	// Field keys not defined by CPTV.
	Layout        byte = 'y'
	KernelSize    byte = 'Q'
	Sigma         byte = 'q'
	LowThreshold  byte = 'j'
	HighThreshold byte = 'J'
	EdgeCount     byte = 'e'
)

// Header describes the source and pipeline settings of a recording.
type Header struct {
	Timestamp     time.Time
	DeviceName    string
	DeviceID      int
	Brand         string
	Model         string
	FPS           int
	ResX          int
	ResY          int
	Layout        string
	KernelSize    int
	Sigma         float64
	LowThreshold  float64
	HighThreshold float64
}

// Frame is a single recorded edge map.
type Frame struct {
	// Offset is the time since the start of the recording.
	Offset    time.Duration
	EdgeCount int
	Edges     []byte
}

// NewBuilder returns a Builder which compresses everything written to w.
func NewBuilder(w io.WriteCloser) (*Builder, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	return &Builder{
		w:   w,
		enc: enc,
	}, nil
}

// Builder handles the low-level construction of edgeraw sections and
// fields.
type Builder struct {
	w   io.WriteCloser
	enc *zstd.Encoder
}

func (b *Builder) WriteHeader(f *cptv.FieldWriter) error {
	fieldData, numFields := f.Bytes()
	_, err := b.enc.Write(append(
		[]byte(magic),
		version,
		headerSection,
		byte(numFields),
	))
	if err != nil {
		return err
	}

	_, err = b.enc.Write(fieldData)
	return err
}

func (b *Builder) WriteFrame(f *cptv.FieldWriter, edges []byte) error {
	fieldData, numFields := f.Bytes()
	_, err := b.enc.Write([]byte{frameSection, byte(numFields)})
	if err != nil {
		return err
	}

	_, err = b.enc.Write(fieldData)
	if err != nil {
		return err
	}

	_, err = b.enc.Write(edges)
	return err
}

func (b *Builder) Close() error {
	if err := b.enc.Close(); err != nil {
		b.w.Close()
		return err
	}
	return b.w.Close()
}

func headerFields(h *Header) (*cptv.FieldWriter, error) {
	if h.FPS < 0 || h.FPS > math.MaxUint8 {
		return nil, fmt.Errorf("fps %d doesn't fit in a recording header", h.FPS)
	}
	if h.KernelSize < 0 || h.KernelSize > math.MaxUint8 {
		return nil, fmt.Errorf("kernel size %d doesn't fit in a recording header", h.KernelSize)
	}
	fields := cptv.NewFieldWriter()
	fields.Timestamp(cptv.Timestamp, h.Timestamp)
	if err := fields.String(cptv.Model, h.Model); err != nil {
		return nil, err
	}
	if err := fields.String(cptv.Brand, h.Brand); err != nil {
		return nil, err
	}
	fields.Uint8(cptv.FPS, uint8(h.FPS))
	fields.Uint32(cptv.XResolution, uint32(h.ResX))
	fields.Uint32(cptv.YResolution, uint32(h.ResY))
	fields.Uint8(cptv.Compression, 1)
	if err := fields.String(cptv.DeviceName, h.DeviceName); err != nil {
		return nil, err
	}
	fields.Uint32(cptv.DeviceID, uint32(h.DeviceID))
	if err := fields.String(Layout, h.Layout); err != nil {
		return nil, err
	}
	fields.Uint8(KernelSize, uint8(h.KernelSize))
	fields.Uint32(Sigma, toMilli(h.Sigma))
	fields.Uint32(LowThreshold, toMilli(h.LowThreshold))
	fields.Uint32(HighThreshold, toMilli(h.HighThreshold))
	return fields, nil
}

func frameFields(offset time.Duration, edgeCount, size int) *cptv.FieldWriter {
	fields := cptv.NewFieldWriter()
	fields.Uint32(cptv.TimeOn, uint32(offset/time.Microsecond))
	fields.Uint32(cptv.FrameSize, uint32(size))
	fields.Uint32(EdgeCount, uint32(edgeCount))
	return fields
}

// Fractional settings are stored as thousandths.
func toMilli(v float64) uint32 {
	return uint32(v*1000 + 0.5)
}

func fromMilli(v uint32) float64 {
	return float64(v) / 1000
}
