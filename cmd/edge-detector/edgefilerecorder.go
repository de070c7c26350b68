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
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/TheCacophonyProject/edge-detector/edgeraw"
	"github.com/TheCacophonyProject/edge-detector/headers"
	"github.com/TheCacophonyProject/edge-detector/preprocess"
)

const edgeRawTempExt = "edgeraw.temp"

func NewEdgeFileRecorder(conf *Config, h *headers.HeaderInfo, pipelineConf preprocess.Config) *EdgeFileRecorder {
	return &EdgeFileRecorder{
		outputDir:    conf.OutputDir,
		minDiskSpace: conf.MinDiskSpace,
		header: edgeraw.Header{
			DeviceName:    conf.DeviceName,
			DeviceID:      conf.DeviceID,
			Brand:         h.Brand(),
			Model:         h.Model(),
			FPS:           h.FPS(),
			ResX:          h.ResX(),
			ResY:          h.ResY(),
			Layout:        h.Layout().String(),
			KernelSize:    pipelineConf.KernelSize,
			Sigma:         pipelineConf.Sigma,
			LowThreshold:  float64(pipelineConf.LowThreshold),
			HighThreshold: float64(pipelineConf.HighThreshold),
		},
	}
}

// EdgeFileRecorder writes recordings as edgeraw files. Files are written
// with a temporary extension and renamed once complete.
type EdgeFileRecorder struct {
	outputDir    string
	minDiskSpace uint64
	header       edgeraw.Header
	writer       *edgeraw.FileWriter
}

func (fr *EdgeFileRecorder) CheckCanRecord() error {
	enoughSpace, err := checkDiskSpace(fr.minDiskSpace, fr.outputDir)
	if err != nil {
		return fmt.Errorf("problem with checking disk space: %v", err)
	} else if !enoughSpace {
		return errors.New("edges detected but not enough free disk space to start recording")
	}
	return nil
}

func (fr *EdgeFileRecorder) StartRecording() error {
	if fr.writer != nil {
		return fmt.Errorf("already recording to %s", fr.writer.Name())
	}
	filename := filepath.Join(fr.outputDir, newRecordingTempName(time.Now()))
	log.Printf("recording started: %s", filename)

	writer, err := edgeraw.NewFileWriter(filename)
	if err != nil {
		return err
	}

	header := fr.header
	header.Timestamp = time.Now()
	if err = writer.WriteHeader(header); err != nil {
		writer.Close()
		os.Remove(filename)
		return err
	}

	fr.writer = writer
	return nil
}

func (fr *EdgeFileRecorder) StopRecording() error {
	if fr.writer == nil {
		return nil
	}
	writer := fr.writer
	fr.writer = nil
	if err := writer.Close(); err != nil {
		os.Remove(writer.Name())
		return err
	}

	finalName, err := renameTempRecording(writer.Name())
	if err != nil {
		return err
	}
	log.Printf("recording stopped: %s", finalName)
	return nil
}

// Stop abandons any recording in progress.
func (fr *EdgeFileRecorder) Stop() {
	if fr.writer != nil {
		fr.writer.Close()
		os.Remove(fr.writer.Name())
		fr.writer = nil
	}
}

func (fr *EdgeFileRecorder) WriteFrame(edges []byte, edgeCount int) error {
	if fr.writer == nil {
		return errors.New("not recording")
	}
	return fr.writer.WriteFrame(edges, edgeCount)
}

func newRecordingTempName(t time.Time) string {
	return t.Format("20060102.150405.000." + edgeRawTempExt)
}

func renameTempRecording(tempName string) (string, error) {
	finalName := recordingFinalName(tempName)
	err := os.Rename(tempName, finalName)
	if err != nil {
		return "", err
	}
	return finalName, nil
}

var reTempName = regexp.MustCompile(`(.+)\.temp$`)

func recordingFinalName(filename string) string {
	return reTempName.ReplaceAllString(filename, `$1`)
}

func deleteTempFiles(directory string) error {
	matches, _ := filepath.Glob(filepath.Join(directory, "*."+edgeRawTempExt))
	for _, filename := range matches {
		if err := os.Remove(filename); err != nil {
			return err
		}
	}
	return nil
}

func checkDiskSpace(mb uint64, dir string) (bool, error) {
	var fs syscall.Statfs_t
	if err := syscall.Statfs(dir, &fs); err != nil {
		return false, err
	}
	return fs.Bavail*uint64(fs.Bsize)/1024/1024 >= mb, nil
}
