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
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/coreos/go-systemd/daemon"
	goconfig "github.com/TheCacophonyProject/go-config"
	arg "github.com/alexflint/go-arg"

	"github.com/TheCacophonyProject/edge-detector/headers"
	"github.com/TheCacophonyProject/edge-detector/loglimiter"
	"github.com/TheCacophonyProject/edge-detector/preprocess"
	"github.com/TheCacophonyProject/edge-detector/processor"
	"github.com/TheCacophonyProject/edge-detector/recorder"
	"github.com/TheCacophonyProject/edge-detector/throttle"
)

const (
	frameLogIntervalFirstMinSecs = 15
	frameLogIntervalSecs         = 60 * 5
	sdNotifyIntervalSecs         = 5
)

var (
	version = "<not set>"

	processorMu     sync.Mutex
	activeProcessor *processor.EdgeProcessor
)

type Args struct {
	ConfigFile string `arg:"-c,--config" help:"path to configuration file"`
	ConfigDir  string `arg:"--config-dir" help:"path to device configuration directory"`
	Timestamps bool   `arg:"-t,--timestamps" help:"include timestamps in log output"`
	Verbose    bool   `arg:"-v,--verbose" help:"make logging more verbose"`
	TestFile   string `arg:"-f,--testfile" help:"run an image, raw frame file or edge recording through the detector"`
	Width      int    `arg:"--width" help:"frame width for raw test files"`
	Height     int    `arg:"--height" help:"frame height for raw test files"`
	FPS        int    `arg:"--fps" help:"frame rate for raw test files"`
	Out        string `arg:"-o,--out" help:"where to write the edge image for test files"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	var args Args
	args.ConfigFile = "/etc/edge-detector.yaml"
	args.ConfigDir = goconfig.DefaultConfigDir
	args.FPS = 10
	args.Out = "edges.png"
	arg.MustParse(&args)
	return args
}

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	args := procArgs()

	if !args.Timestamps {
		log.SetFlags(0) // Removes default timestamp flag
	}

	log.Printf("running version: %s", version)

	if args.TestFile != "" {
		conf, err := ParseConfigFiles(args.ConfigFile, "")
		if err != nil {
			return err
		}
		return runPlayback(conf, &args)
	}

	conf, err := ParseConfigFiles(args.ConfigFile, args.ConfigDir)
	if err != nil {
		return err
	}
	logConfig(conf)

	pipeline, err := preprocess.New(conf.Pipeline)
	if err != nil {
		return err
	}

	log.Println("starting d-bus service")
	if err := startService(conf.OutputDir); err != nil {
		return err
	}

	log.Println("deleting temp files")
	if err := deleteTempFiles(conf.OutputDir); err != nil {
		return err
	}

	for {
		// Set up listener for frames sent by the camera.
		os.Remove(conf.FrameInput)
		listener, err := net.Listen("unix", conf.FrameInput)
		if err != nil {
			return err
		}
		log.Print("waiting for camera connection")

		conn, err := listener.Accept()
		if err != nil {
			log.Printf("socket accept failed: %v", err)
			continue
		}

		// Prevent concurrent connections.
		listener.Close()

		err = handleConn(conn, conf, pipeline, args.Verbose)
		conn.Close()
		log.Printf("camera connection ended with: %v", err)
	}
}

func handleConn(conn net.Conn, conf *Config, pipeline *preprocess.Pipeline, verbose bool) error {
	reader := bufio.NewReader(conn)
	header, err := headers.ReadHeaderInfo(reader)
	if err != nil {
		return err
	}
	if err := header.Validate(); err != nil {
		return err
	}
	if header.Layout() != conf.Pipeline.Layout {
		log.Printf("camera sends %s frames, configured for %s", header.Layout(), conf.Pipeline.Layout)
	}

	log.Printf("connection from %s %s (%dx%d@%dfps)",
		header.Brand(), header.Model(), header.ResX(), header.ResY(), header.FPS())

	fileRecorder := NewEdgeFileRecorder(conf, header, pipeline.Config())
	defer fileRecorder.Stop()
	var rec recorder.Recorder = fileRecorder

	if conf.Throttler.ApplyThrottling {
		minRecordingLength := conf.Recorder.MinSecs + conf.Recorder.PreviewSecs
		rec = throttle.NewThrottledRecorder(
			fileRecorder,
			&conf.Throttler,
			minRecordingLength,
			header.FPS(),
			&throttle.ThrottledEventRecorder{Source: header.Model()},
		)
	}

	recWindow, err := conf.Recorder.Window(conf.Latitude, conf.Longitude)
	if err != nil {
		return err
	}

	var listener processor.RecordingListener
	if verbose {
		listener = &loggingListener{}
	}
	edgeProcessor := processor.NewEdgeProcessor(
		pipeline,
		&conf.Recorder,
		recWindow,
		header.ResX(),
		header.ResY(),
		header.FPS(),
		listener,
		rec,
	)
	setProcessor(edgeProcessor)
	defer func() {
		setProcessor(nil)
		deleteSnapshot(conf.OutputDir)
		if err := edgeProcessor.Stop(); err != nil {
			log.Printf("failed to stop recording: %v", err)
		}
	}()

	frameLogIntervalFirstMin := frameLogIntervalFirstMinSecs * header.FPS()
	frameLogInterval := frameLogIntervalSecs * header.FPS()
	framesPerSdNotify := sdNotifyIntervalSecs * header.FPS()

	logLimiter := loglimiter.New(time.Minute)

	log.Print("reading frames")
	rawFrame := make([]byte, header.FrameSize())
	totalFrames := 0
	notifyCount := 0
	for {
		if _, err := io.ReadFull(reader, rawFrame); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("camera closed connection after %d frames", totalFrames)
			}
			return err
		}
		totalFrames++

		if totalFrames%frameLogIntervalFirstMin == 0 &&
			totalFrames <= 60*header.FPS() || totalFrames%frameLogInterval == 0 {
			log.Printf("%d frames for this connection", totalFrames)
		}

		if notifyCount++; notifyCount >= framesPerSdNotify {
			daemon.SdNotify(false, "WATCHDOG=1")
			notifyCount = 0
		}

		if err := edgeProcessor.Process(rawFrame); err != nil {
			logLimiter.Printf("dropped frame: %v", err)
		}
	}
}

func setProcessor(p *processor.EdgeProcessor) {
	processorMu.Lock()
	defer processorMu.Unlock()
	activeProcessor = p
}

func getProcessor() *processor.EdgeProcessor {
	processorMu.Lock()
	defer processorMu.Unlock()
	return activeProcessor
}

type loggingListener struct{}

func (l *loggingListener) EdgesDetected(percent float64) {
	log.Printf("edges detected: %.2f%%", percent)
}

func (l *loggingListener) RecordingStarted() { log.Print("recording started") }
func (l *loggingListener) RecordingEnded()   { log.Print("recording ended") }

func logConfig(conf *Config) {
	log.Printf("device name: %s", conf.DeviceName)
	log.Printf("frame input: %s", conf.FrameInput)
	log.Printf("output dir: %s", conf.OutputDir)
	log.Printf("minimum disk space: %d", conf.MinDiskSpace)
	log.Printf("pipeline: %+v", conf.Pipeline)
	log.Printf("recording: active=%t trigger=%.1f%%", conf.Recorder.Active, conf.Recorder.TriggerPercent)
	log.Printf("recording limits: %ds to %ds", conf.Recorder.MinSecs, conf.Recorder.MaxSecs)
	log.Printf("preview seconds: %d", conf.Recorder.PreviewSecs)
	log.Printf("throttler: %+v", conf.Throttler)
	if conf.Recorder.HasWindow() {
		log.Printf("recording window: %s to %s", conf.Recorder.WindowStart, conf.Recorder.WindowEnd)
	}
}
