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

// Package processor turns raw camera frames into edge maps and decides
// which of them are recorded.
package processor

import (
	"errors"
	"time"

	"github.com/TheCacophonyProject/window"

	"github.com/TheCacophonyProject/edge-detector/loglimiter"
	"github.com/TheCacophonyProject/edge-detector/preprocess"
	"github.com/TheCacophonyProject/edge-detector/recorder"
)

const minLogInterval = time.Minute

// RecordingListener is told about edge activity and recordings. All
// callbacks run on the goroutine calling Process.
type RecordingListener interface {
	EdgesDetected(percent float64)
	RecordingStarted()
	RecordingEnded()
}

// NewEdgeProcessor returns an EdgeProcessor for frames of the given size.
// A nil window allows recording at any time.
func NewEdgeProcessor(
	pipeline *preprocess.Pipeline,
	recorderConf *recorder.RecorderConfig,
	recWindow *window.Window,
	width, height, fps int,
	listener RecordingListener,
	rec recorder.Recorder,
) *EdgeProcessor {
	return &EdgeProcessor{
		pipeline:  pipeline,
		width:     width,
		height:    height,
		minFrames: recorderConf.MinSecs * fps,
		maxFrames: recorderConf.MaxSecs * fps,
		edgeLoop:  NewEdgeLoop(recorderConf.PreviewSecs*fps+1, width*height),
		window:    recWindow,
		listener:  listener,
		conf:      recorderConf,
		recorder:  rec,
		log:       loglimiter.New(minLogInterval),
	}
}

// EdgeProcessor runs each frame of a connection through the edge pipeline.
// Frames with enough edge pixels start a recording, or extend one that is
// already running.
type EdgeProcessor struct {
	pipeline      *preprocess.Pipeline
	width         int
	height        int
	minFrames     int
	maxFrames     int
	framesWritten int
	edgeLoop      *EdgeLoop
	isRecording   bool
	writeUntil    int
	window        *window.Window
	conf          *recorder.RecorderConfig
	listener      RecordingListener
	recorder      recorder.Recorder
	log           *loglimiter.LogLimiter
}

// Process extracts the edges of a raw semi-planar frame. Errors leave the
// processor's state unchanged.
func (mp *EdgeProcessor) Process(rawFrame []byte) error {
	edges, err := mp.pipeline.Process(rawFrame, mp.width, mp.height)
	if err != nil {
		return err
	}
	mp.ProcessEdges(edges)
	return nil
}

// ProcessEdges handles an edge map produced elsewhere, such as by playback.
func (mp *EdgeProcessor) ProcessEdges(edges []byte) {
	mp.process(mp.edgeLoop.SetCurrent(edges))
}

func (mp *EdgeProcessor) process(frame *EdgeFrame) {
	if mp.conf.Active && frame.Percent() >= mp.conf.TriggerPercent {
		if mp.listener != nil {
			mp.listener.EdgesDetected(frame.Percent())
		}

		if mp.isRecording {
			// increase the length of recording
			mp.writeUntil = min(mp.framesWritten+mp.minFrames, mp.maxFrames)
		} else if err := mp.canStartWriting(); err != nil {
			mp.log.Printf("Recording not started: %v", err)
		} else if err := mp.startRecording(); err != nil {
			mp.log.Printf("Can't start recording file: %v", err)
		} else {
			mp.writeUntil = mp.minFrames
		}
	}

	if mp.isRecording {
		if err := mp.recorder.WriteFrame(frame.Edges, frame.EdgeCount); err != nil {
			mp.log.Printf("Failed to write edge frame: %v", err)
		}
		mp.framesWritten++
	}

	mp.edgeLoop.Move()

	if mp.isRecording && mp.framesWritten >= mp.writeUntil {
		if err := mp.stopRecording(); err != nil {
			mp.log.Printf("Failed to stop recording: %v", err)
		}
	}
}

// GetRecentEdges returns a copy of the most recently processed edge map,
// or nil if there hasn't been one yet. It is safe to call while frames are
// being processed.
func (mp *EdgeProcessor) GetRecentEdges() *EdgeFrame {
	return mp.edgeLoop.CopyRecent()
}

// Width and Height return the size of the edge maps.
func (mp *EdgeProcessor) Width() int  { return mp.width }
func (mp *EdgeProcessor) Height() int { return mp.height }

func (mp *EdgeProcessor) IsRecording() bool {
	return mp.isRecording
}

// Stop ends any recording in progress.
func (mp *EdgeProcessor) Stop() error {
	if !mp.isRecording {
		return nil
	}
	return mp.stopRecording()
}

func (mp *EdgeProcessor) canStartWriting() error {
	if mp.window != nil && !mp.window.Active() {
		return errors.New("edges detected but outside of recording window")
	}
	return mp.recorder.CheckCanRecord()
}

func (mp *EdgeProcessor) startRecording() error {
	if err := mp.recorder.StartRecording(); err != nil {
		return err
	}

	mp.isRecording = true
	if mp.listener != nil {
		mp.listener.RecordingStarted()
	}

	return mp.recordPreTriggerFrames()
}

func (mp *EdgeProcessor) stopRecording() error {
	if mp.listener != nil {
		mp.listener.RecordingEnded()
	}

	err := mp.recorder.StopRecording()

	mp.framesWritten = 0
	mp.writeUntil = 0
	mp.isRecording = false
	// a recording starting soon after won't write the same frames again
	mp.edgeLoop.SetAsOldest()

	return err
}

func (mp *EdgeProcessor) recordPreTriggerFrames() error {
	frames := mp.edgeLoop.GetHistory()

	// the current frame is written by the caller
	for _, frame := range frames[:len(frames)-1] {
		if err := mp.recorder.WriteFrame(frame.Edges, frame.EdgeCount); err != nil {
			return err
		}
	}
	return nil
}
