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
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/edge-detector/preprocess"
)

func writeRawFile(t *testing.T, frames ...[]byte) string {
	name := filepath.Join(t.TempDir(), "frames.nv21")
	require.NoError(t, os.WriteFile(name, bytes.Join(frames, nil), 0644))
	return name
}

func repeat(frame []byte, n int) [][]byte {
	frames := make([][]byte, n)
	for i := range frames {
		frames[i] = frame
	}
	return frames
}

func TestPlaybackRaw(t *testing.T) {
	conf := testConfig(t)
	var frames [][]byte
	frames = append(frames, repeat(makeFrame(false), 5)...)
	frames = append(frames, makeFrame(true))
	frames = append(frames, repeat(makeFrame(false), 5)...)
	filename := writeRawFile(t, frames...)

	pipeline, err := preprocess.New(conf.Pipeline)
	require.NoError(t, err)
	args := &Args{TestFile: filename, Width: testWidth, Height: testHeight, FPS: testFPS}
	result, err := playbackRaw(pipeline, &conf.Recorder, args, false)
	require.NoError(t, err)

	assert.Equal(t, 11, result.frameCount)
	// Active is off in the default config.
	assert.Equal(t, 0, result.detectedCount)
	assert.Equal(t, "None", result.recordedFrames)

	conf.Recorder.Active = true
	result, err = playbackRaw(pipeline, &conf.Recorder, args, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.detectedCount)
	assert.Equal(t, "(5:end)", result.recordedFrames)
	assert.Equal(t, 0, result.last.EdgeCount)
}

func TestRunPlaybackWritesEdgeImage(t *testing.T) {
	conf := testConfig(t)
	filename := writeRawFile(t, makeFrame(false), makeFrame(true))
	out := filepath.Join(t.TempDir(), "out.png")
	args := &Args{TestFile: filename, Width: testWidth, Height: testHeight, FPS: testFPS, Out: out}

	require.NoError(t, runPlayback(conf, args))
	assert.Equal(t, squareEdges(t), loadGray(t, out).Pix)
}

func TestPlaybackRawNeedsDimensions(t *testing.T) {
	conf := testConfig(t)
	args := &Args{TestFile: writeRawFile(t, makeFrame(false)), FPS: testFPS}
	assert.EqualError(t, runPlayback(conf, args), "--width and --height are required for raw test files")
}

func TestPlaybackRawTruncated(t *testing.T) {
	conf := testConfig(t)
	frame := makeFrame(false)
	filename := writeRawFile(t, frame, frame[:100])
	args := &Args{TestFile: filename, Width: testWidth, Height: testHeight, FPS: testFPS}
	assert.EqualError(t, runPlayback(conf, args), "truncated frame after 1 frames")
}

func TestPlaybackEmptyRaw(t *testing.T) {
	conf := testConfig(t)
	args := &Args{TestFile: writeRawFile(t), Width: testWidth, Height: testHeight, FPS: testFPS}
	assert.EqualError(t, runPlayback(conf, args), "no frames in test file")
}

func TestPlaybackImage(t *testing.T) {
	conf := testConfig(t)
	img := image.NewGray(image.Rect(0, 0, testWidth, testHeight))
	copy(img.Pix, makeFrame(true)[:testWidth*testHeight])
	filename := filepath.Join(t.TempDir(), "square.png")
	require.NoError(t, imaging.Save(img, filename))

	out := filepath.Join(t.TempDir(), "edges.png")
	require.NoError(t, runPlayback(conf, &Args{TestFile: filename, Out: out}))
	assert.Equal(t, squareEdges(t), loadGray(t, out).Pix)
}

func TestPlaybackRecording(t *testing.T) {
	conf := testConfig(t)
	fr := NewEdgeFileRecorder(conf, testHeader(), conf.Pipeline)
	require.NoError(t, fr.StartRecording())
	edges := squareEdges(t)
	empty := make([]byte, testWidth*testHeight)
	for i := 0; i < 3; i++ {
		require.NoError(t, fr.WriteFrame(empty, 0))
	}
	require.NoError(t, fr.WriteFrame(edges, preprocess.EdgeCount(edges)))
	require.NoError(t, fr.StopRecording())

	files, err := filepath.Glob(filepath.Join(conf.OutputDir, "*.edgeraw"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	recorderConf := conf.Recorder
	recorderConf.Active = true
	result, err := playbackRecording(&recorderConf, files[0], false)
	require.NoError(t, err)
	assert.Equal(t, 4, result.frameCount)
	assert.Equal(t, 1, result.detectedCount)
	assert.Equal(t, "(3:end)", result.recordedFrames)
	assert.Equal(t, edges, result.last.Edges)
}
