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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/edge-detector/preprocess"
	"github.com/TheCacophonyProject/edge-detector/recorder"
	"github.com/TheCacophonyProject/edge-detector/throttle"
)

func TestAllDefaults(t *testing.T) {
	conf, err := ParseConfig([]byte(""))
	require.NoError(t, err)
	require.NoError(t, conf.Validate())

	assert.Equal(t, Config{
		FrameInput:   "/var/run/camera-frames",
		OutputDir:    "/var/spool/edges",
		MinDiskSpace: 200,
		Pipeline: preprocess.Config{
			KernelSize:    5,
			Sigma:         1.0,
			LowThreshold:  40,
			HighThreshold: 120,
			Border:        preprocess.BorderReflect101,
			Layout:        preprocess.LayoutNV21,
		},
		Recorder: recorder.RecorderConfig{
			Active:         false,
			TriggerPercent: 2,
			MinSecs:        5,
			MaxSecs:        60,
			PreviewSecs:    1,
		},
		Throttler: throttle.ThrottlerConfig{
			ApplyThrottling: true,
			BucketSize:      10 * time.Minute,
			MinRefill:       10 * time.Minute,
		},
	}, *conf)
}

func TestAllSet(t *testing.T) {
	// All config set at non-default values.
	config := []byte(`
frame-input: "/some/sock"
output-dir: "/some/where"
min-disk-space: 321
pipeline:
    kernel-size: 7
    sigma: 1.5
    low-thresh: 20
    high-thresh: 90
    l2-gradient: true
    border: replicate
    layout: nv12
recorder:
    active: true
    trigger-percent: 4.5
    min-secs: 2
    max-secs: 10
    preview-secs: 3
    window-start: "17:10"
    window-end: "07:20"
throttler:
    apply-throttling: false
    bucket-size: 5m
    min-refill: 30s
`)

	conf, err := ParseConfig(config)
	require.NoError(t, err)

	assert.Equal(t, Config{
		FrameInput:   "/some/sock",
		OutputDir:    "/some/where",
		MinDiskSpace: 321,
		Pipeline: preprocess.Config{
			KernelSize:    7,
			Sigma:         1.5,
			LowThreshold:  20,
			HighThreshold: 90,
			L2Gradient:    true,
			Border:        preprocess.BorderReplicate,
			Layout:        preprocess.LayoutNV12,
		},
		Recorder: recorder.RecorderConfig{
			Active:         true,
			TriggerPercent: 4.5,
			MinSecs:        2,
			MaxSecs:        10,
			PreviewSecs:    3,
			WindowStart:    "17:10",
			WindowEnd:      "07:20",
		},
		Throttler: throttle.ThrottlerConfig{
			ApplyThrottling: false,
			BucketSize:      5 * time.Minute,
			MinRefill:       30 * time.Second,
		},
	}, *conf)
}

func TestRecorderErrorsStopConfigParsing(t *testing.T) {
	configStr := []byte(`
recorder:
  min-secs: 10
  max-secs: 4
`)
	conf, err := ParseConfig(configStr)
	assert.Nil(t, conf)
	assert.EqualError(t, err, "max-secs should be larger than min-secs")
}

func TestPipelineErrorsStopConfigParsing(t *testing.T) {
	configStr := []byte(`
pipeline:
  low-thresh: 130
`)
	conf, err := ParseConfig(configStr)
	assert.Nil(t, conf)
	assert.EqualError(t, err, "low-thresh must be less than high-thresh")
}

func TestThrottlerErrorsStopConfigParsing(t *testing.T) {
	configStr := []byte(`
throttler:
  bucket-size: 0s
`)
	conf, err := ParseConfig(configStr)
	assert.Nil(t, conf)
	assert.EqualError(t, err, "bucket-size should be at least 1s")
}

func TestUnknownBorderStopsConfigParsing(t *testing.T) {
	conf, err := ParseConfig([]byte("pipeline:\n  border: wrap\n"))
	assert.Nil(t, conf)
	assert.Error(t, err)
}
