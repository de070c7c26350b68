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
	"github.com/TheCacophonyProject/edge-detector/preprocess"
)

const (
	testWidth  = 32
	testHeight = 32
)

// testFrameMaker feeds NV21 frames with or without a bright square to an
// EdgeProcessor.
type testFrameMaker struct {
	processor     *EdgeProcessor
	BackgroundVal byte
	SquareVal     byte
}

func makeTestFrameMaker(p *EdgeProcessor) *testFrameMaker {
	return &testFrameMaker{
		processor:     p,
		BackgroundVal: 50,
		SquareVal:     200,
	}
}

func (tfm *testFrameMaker) AddBackgroundFrames(frames int) *testFrameMaker {
	for i := 0; i < frames; i++ {
		tfm.playFrame(tfm.makeFrame(false))
	}
	return tfm
}

func (tfm *testFrameMaker) AddSquareFrames(frames int) *testFrameMaker {
	for i := 0; i < frames; i++ {
		tfm.playFrame(tfm.makeFrame(true))
	}
	return tfm
}

func (tfm *testFrameMaker) playFrame(frame []byte) {
	if err := tfm.processor.Process(frame); err != nil {
		panic(err)
	}
}

func (tfm *testFrameMaker) makeFrame(square bool) []byte {
	frame := make([]byte, preprocess.FrameSize(testWidth, testHeight))
	for i := range frame[:testWidth*testHeight] {
		frame[i] = tfm.BackgroundVal
	}
	for i := testWidth * testHeight; i < len(frame); i++ {
		frame[i] = 128
	}
	if square {
		for y := 12; y < 20; y++ {
			for x := 12; x < 20; x++ {
				frame[y*testWidth+x] = tfm.SquareVal
			}
		}
	}
	return frame
}
