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

package main

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/TheCacophonyProject/edge-detector/edgeraw"
	"github.com/TheCacophonyProject/edge-detector/preprocess"
	"github.com/TheCacophonyProject/edge-detector/processor"
	"github.com/TheCacophonyProject/edge-detector/recorder"
)

// playbackListener tracks edge detections and would-be recordings while a
// test file is played through the processor.
type playbackListener struct {
	verbose        bool
	frameCount     int
	detectedCount  int
	recordedFrames string
}

func (p *playbackListener) EdgesDetected(percent float64) {
	if p.verbose {
		log.Printf("%d: edges detected %.2f%%", p.frameCount, percent)
	}
	p.detectedCount++
}

func (p *playbackListener) RecordingStarted() {
	if p.verbose {
		log.Printf("%d: recording started", p.frameCount)
	}
	p.recordedFrames += fmt.Sprintf("(%d:", p.frameCount)
}

func (p *playbackListener) RecordingEnded() {
	if p.verbose {
		log.Printf("%d: recording ended", p.frameCount)
	}
	p.recordedFrames += fmt.Sprintf("%d)", p.frameCount)
}

func (p *playbackListener) completed() {
	if strings.HasSuffix(p.recordedFrames, ":") {
		p.recordedFrames += "end)"
	}
	if p.recordedFrames == "" {
		p.recordedFrames = "None"
	}
}

type playbackResult struct {
	*playbackListener
	width  int
	height int
	last   *processor.EdgeFrame
}

func runPlayback(conf *Config, args *Args) error {
	pipeline, err := preprocess.New(conf.Pipeline)
	if err != nil {
		return err
	}

	// Recording decisions are always reported for test files.
	recorderConf := conf.Recorder
	recorderConf.Active = true

	var result *playbackResult
	switch strings.ToLower(filepath.Ext(args.TestFile)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff":
		result, err = playbackImage(pipeline, args.TestFile)
	case ".edgeraw":
		result, err = playbackRecording(&recorderConf, args.TestFile, args.Verbose)
	default:
		result, err = playbackRaw(pipeline, &recorderConf, args, args.Verbose)
	}
	if err != nil {
		return err
	}

	log.Printf("Recorded: %-16s Edge frames: %d/%d", result.recordedFrames, result.detectedCount, result.frameCount)
	if result.last == nil {
		return errors.New("no frames in test file")
	}
	log.Printf("last frame: %d edge pixels (%.2f%%)", result.last.EdgeCount, result.last.Percent())
	if args.Out == "" {
		return nil
	}
	log.Printf("writing edges to %s", args.Out)
	return saveEdgeImage(args.Out, result.last, result.width, result.height, false)
}

func playbackImage(pipeline *preprocess.Pipeline, filename string) (*playbackResult, error) {
	img, err := imaging.Open(filename)
	if err != nil {
		return nil, err
	}
	gray := toGray(img)
	edges := pipeline.ProcessGray(gray)

	frame := &processor.EdgeFrame{Edges: edges, EdgeCount: preprocess.EdgeCount(edges)}
	listener := &playbackListener{frameCount: 1, recordedFrames: "None"}
	return &playbackResult{
		playbackListener: listener,
		width:            gray.Rect.Dx(),
		height:           gray.Rect.Dy(),
		last:             frame,
	}, nil
}

// playbackRaw plays a file of back to back semi-planar frames.
func playbackRaw(pipeline *preprocess.Pipeline, recorderConf *recorder.RecorderConfig, args *Args, verbose bool) (*playbackResult, error) {
	if args.Width <= 0 || args.Height <= 0 {
		return nil, errors.New("--width and --height are required for raw test files")
	}
	if args.FPS <= 0 {
		return nil, errors.New("--fps must be greater than zero")
	}
	f, err := os.Open(args.TestFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	listener := &playbackListener{verbose: verbose}
	p := processor.NewEdgeProcessor(pipeline, recorderConf, nil, args.Width, args.Height, args.FPS, listener, new(recorder.NoWriteRecorder))

	reader := bufio.NewReader(f)
	rawFrame := make([]byte, preprocess.FrameSize(args.Width, args.Height))
	for {
		_, err := io.ReadFull(reader, rawFrame)
		if err == io.EOF {
			break
		} else if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("truncated frame after %d frames", listener.frameCount)
		} else if err != nil {
			return nil, err
		}
		if err := p.Process(rawFrame); err != nil {
			return nil, err
		}
		listener.frameCount++
	}
	listener.completed()

	return &playbackResult{
		playbackListener: listener,
		width:            args.Width,
		height:           args.Height,
		last:             p.GetRecentEdges(),
	}, nil
}

// playbackRecording replays the edge maps of an edgeraw recording to see
// which parts would be recorded with the current settings.
func playbackRecording(recorderConf *recorder.RecorderConfig, filename string, verbose bool) (*playbackResult, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader, err := edgeraw.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	header, err := reader.Header()
	if err != nil {
		return nil, err
	}
	if verbose {
		log.Printf("recording from %s %s %dx%d@%dfps at %s",
			header.Brand, header.Model, header.ResX, header.ResY, header.FPS, header.Timestamp)
	}
	if header.FPS <= 0 {
		return nil, errors.New("recording has no frame rate")
	}

	listener := &playbackListener{verbose: verbose}
	p := processor.NewEdgeProcessor(nil, recorderConf, nil, header.ResX, header.ResY, header.FPS, listener, new(recorder.NoWriteRecorder))
	for {
		frame, err := reader.Frame()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		if len(frame.Edges) != header.ResX*header.ResY {
			return nil, fmt.Errorf("frame %d is %d bytes, expected %d", listener.frameCount, len(frame.Edges), header.ResX*header.ResY)
		}
		p.ProcessEdges(frame.Edges)
		listener.frameCount++
	}
	listener.completed()

	return &playbackResult{
		playbackListener: listener,
		width:            header.ResX,
		height:           header.ResY,
		last:             p.GetRecentEdges(),
	}, nil
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}
