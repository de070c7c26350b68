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
	"fmt"
	"os"
	"time"
)

func newBufferedFile(filename string) (*bufferedFile, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &bufferedFile{
		f: f,
		w: bufio.NewWriterSize(f, 1024*1024),
	}, nil
}

type bufferedFile struct {
	f *os.File
	w *bufio.Writer
}

func (bf *bufferedFile) Write(p []byte) (int, error) {
	return bf.w.Write(p)
}

func (bf *bufferedFile) Close() error {
	if err := bf.w.Flush(); err != nil {
		bf.f.Close()
		return err
	}
	return bf.f.Close()
}

// NewFileWriter creates a new edgeraw recording at filename.
func NewFileWriter(filename string) (*FileWriter, error) {
	bf, err := newBufferedFile(filename)
	if err != nil {
		return nil, err
	}
	b, err := NewBuilder(bf)
	if err != nil {
		bf.Close()
		os.Remove(filename)
		return nil, err
	}
	return &FileWriter{
		name: filename,
		b:    b,
		now:  time.Now,
	}, nil
}

// FileWriter writes a single edgeraw recording to disk.
type FileWriter struct {
	name       string
	b          *Builder
	now        func() time.Time
	start      time.Time
	frameSize  int
	headerDone bool
}

func (fw *FileWriter) Name() string {
	return fw.name
}

// WriteHeader must be called once before any frames are written. A zero
// header timestamp is replaced with the current time.
func (fw *FileWriter) WriteHeader(h Header) error {
	if fw.headerDone {
		return fmt.Errorf("header already written to %s", fw.name)
	}
	if h.Timestamp.IsZero() {
		h.Timestamp = fw.now()
	}
	fields, err := headerFields(&h)
	if err != nil {
		return err
	}
	if err := fw.b.WriteHeader(fields); err != nil {
		return err
	}
	fw.start = h.Timestamp
	fw.frameSize = h.ResX * h.ResY
	fw.headerDone = true
	return nil
}

func (fw *FileWriter) WriteFrame(edges []byte, edgeCount int) error {
	if !fw.headerDone {
		return fmt.Errorf("header not written to %s", fw.name)
	}
	if len(edges) != fw.frameSize {
		return fmt.Errorf("edge map is %d bytes, expected %d", len(edges), fw.frameSize)
	}
	offset := fw.now().Sub(fw.start)
	if offset < 0 {
		offset = 0
	}
	return fw.b.WriteFrame(frameFields(offset, edgeCount, len(edges)), edges)
}

func (fw *FileWriter) Close() error {
	return fw.b.Close()
}
