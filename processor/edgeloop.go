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

package processor

import (
	"sync"

	"github.com/TheCacophonyProject/edge-detector/preprocess"
)

// EdgeFrame is an edge map along with the number of edge pixels in it.
type EdgeFrame struct {
	Edges     []byte
	EdgeCount int
}

func newEdgeFrame(size int) *EdgeFrame {
	return &EdgeFrame{Edges: make([]byte, size)}
}

// Set copies edges into the frame and counts them.
func (f *EdgeFrame) Set(edges []byte) {
	copy(f.Edges, edges)
	f.EdgeCount = preprocess.EdgeCount(f.Edges)
}

// Percent returns the share of edge pixels in the frame, 0-100.
func (f *EdgeFrame) Percent() float64 {
	if len(f.Edges) == 0 {
		return 0
	}
	return 100 * float64(f.EdgeCount) / float64(len(f.Edges))
}

func (f *EdgeFrame) Copy() *EdgeFrame {
	edges := make([]byte, len(f.Edges))
	copy(edges, f.Edges)
	return &EdgeFrame{Edges: edges, EdgeCount: f.EdgeCount}
}

func NewEdgeLoop(size, frameSize int) *EdgeLoop {
	if size < 1 {
		size = 1
	}
	frames := make([]*EdgeFrame, size)
	for i := range frames {
		frames[i] = newEdgeFrame(frameSize)
	}

	return &EdgeLoop{
		size:          size,
		frames:        frames,
		orderedFrames: make([]*EdgeFrame, size),
		oldest:        noOldestSet,
	}
}

const noOldestSet = -1

// EdgeLoop stores the last n edge frames in a loop that is overwritten when
// full. Frames returned by EdgeLoop will at some point be overwritten.
type EdgeLoop struct {
	size          int
	currentIndex  int
	frames        []*EdgeFrame
	orderedFrames []*EdgeFrame
	bufferFull    bool
	moved         bool
	oldest        int
	mu            sync.Mutex
}

func (fl *EdgeLoop) nextIndexAfter(index int) int {
	return (index + 1) % fl.size
}

// Move moves the current frame one forwards and returns the new frame.
func (fl *EdgeLoop) Move() *EdgeFrame {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	fl.currentIndex = fl.nextIndexAfter(fl.currentIndex)
	fl.moved = true

	if fl.currentIndex == 0 {
		fl.bufferFull = true
	}

	if fl.currentIndex == fl.oldest {
		fl.oldest = noOldestSet
	}

	return fl.Current()
}

func (fl *EdgeLoop) Current() *EdgeFrame {
	return fl.frames[fl.currentIndex]
}

// SetCurrent copies edges into the current frame. With a loop of one frame
// the current frame is also the one CopyRecent reads, so the copy is made
// under the lock.
func (fl *EdgeLoop) SetCurrent(edges []byte) *EdgeFrame {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	frame := fl.Current()
	frame.Set(edges)
	return frame
}

// CopyRecent returns a copy of the previous frame, or nil if no frame has
// been completed yet.
func (fl *EdgeLoop) CopyRecent() *EdgeFrame {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if !fl.moved {
		return nil
	}
	previousIndex := (fl.currentIndex - 1 + fl.size) % fl.size
	return fl.frames[previousIndex].Copy()
}

// GetHistory returns the stored frames from oldest to newest, ending with
// the current frame. The returned slice is reused by the next call.
func (fl *EdgeLoop) GetHistory() []*EdgeFrame {
	fullHistory := fl.getFullHistory()

	if fl.oldest == noOldestSet {
		return fullHistory
	}

	historyLength := (fl.currentIndex-fl.oldest+fl.size)%fl.size + 1
	if historyLength > len(fullHistory) {
		return fullHistory
	}
	return fullHistory[len(fullHistory)-historyLength:]
}

func (fl *EdgeLoop) getFullHistory() []*EdgeFrame {
	if fl.currentIndex == fl.size-1 {
		copy(fl.orderedFrames, fl.frames)
		return fl.orderedFrames
	}

	nextIndex := fl.nextIndexAfter(fl.currentIndex)

	if !fl.bufferFull {
		copy(fl.orderedFrames, fl.frames[:nextIndex])
		return fl.orderedFrames[:nextIndex]
	}

	copy(fl.orderedFrames, fl.frames[nextIndex:])
	copy(fl.orderedFrames[fl.size-nextIndex:], fl.frames[:nextIndex])
	return fl.orderedFrames
}

// SetAsOldest marks the current frame as the oldest, so history never
// includes frames stored before it.
func (fl *EdgeLoop) SetAsOldest() *EdgeFrame {
	fl.oldest = fl.currentIndex
	return fl.Current()
}
