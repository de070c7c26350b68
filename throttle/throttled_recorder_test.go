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

package throttle

import (
	"errors"
	"testing"
	"time"

	"github.com/juju/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheCacophonyProject/edge-detector/recorder"
)

const (
	fps           = 9
	throttleAfter = 30 * time.Second

	minRecordingSecs   = 10
	minRecordingFrames = minRecordingSecs * fps

	minRefill = 20 * time.Second
)

var throttleFrames = int(throttleAfter.Seconds() * fps)

func newTestConfig() *ThrottlerConfig {
	return &ThrottlerConfig{
		ApplyThrottling: true,
		BucketSize:      throttleAfter,
		MinRefill:       minRefill,
	}
}

func newTestThrottledRecorder() (*writeRecorder, *throttleListener, *ThrottledRecorder, *testClock) {
	clock := new(testClock)
	rec := new(writeRecorder)
	listener := new(throttleListener)
	return rec, listener, NewThrottledRecorderWithClock(rec, newTestConfig(), minRecordingSecs, fps, listener, clock), clock
}

type writeRecorder struct {
	recorder.NoWriteRecorder
	writes   int
	startErr error
}

func (rec *writeRecorder) StartRecording() error {
	return rec.startErr
}

func (rec *writeRecorder) WriteFrame(edges []byte, edgeCount int) error {
	rec.writes++
	return nil
}

func (rec *writeRecorder) Reset() {
	rec.writes = 0
}

type throttleListener struct {
	events int
}

func (tc *throttleListener) WhenThrottled() {
	tc.events++
}

func recordFrames(rec *ThrottledRecorder, frames int) {
	rec.StartRecording()
	writeFrames(rec, frames)
	rec.StopRecording()
}

func writeFrames(rec *ThrottledRecorder, frames int) {
	edges := make([]byte, 16)
	for i := 0; i < frames; i++ {
		rec.WriteFrame(edges, 0)
	}
}

func TestOnlyWritesUntilBucketIsFull(t *testing.T) {
	rec, listener, throtRecorder, _ := newTestThrottledRecorder()

	recordFrames(throtRecorder, throttleFrames+2)
	assert.Equal(t, throttleFrames, rec.writes)
	assert.Equal(t, 1, listener.events)
}

func TestCanRecordTwiceWithoutThrottling(t *testing.T) {
	rec, _, throtRecorder, _ := newTestThrottledRecorder()

	recordFrames(throtRecorder, 10)
	assert.Equal(t, 10, rec.writes)

	recordFrames(throtRecorder, 10)
	assert.Equal(t, 20, rec.writes)
}

func TestWillNotStartRecordingIfLessThanMinFramesToFillBucket(t *testing.T) {
	rec, _, throtRecorder, _ := newTestThrottledRecorder()

	recordFrames(throtRecorder, throttleFrames-5)

	// only a few frames in the bucket - not enough to start another recording
	rec.Reset()
	recordFrames(throtRecorder, 10)
	assert.Equal(t, 0, rec.writes)
}

func TestNotRecordingFillsBucket(t *testing.T) {
	rec, _, throtRecorder, clock := newTestThrottledRecorder()

	recordFrames(throtRecorder, throttleFrames) // empty bucket
	clock.Sleep(minRefill)                      // allow bucket to fill

	// Observe that it only filled up to the minimum size
	rec.Reset()
	recordFrames(throtRecorder, throttleFrames)
	assert.Equal(t, minRecordingFrames, rec.writes)
}

func TestNotifiesWhenThrottling(t *testing.T) {
	_, listener, throtRecorder, _ := newTestThrottledRecorder()

	recordFrames(throtRecorder, throttleFrames-2)
	assert.Equal(t, 0, listener.events)

	recordFrames(throtRecorder, 3)
	assert.Equal(t, 1, listener.events)
}

func TestNotifiesEvenWhenRecordingDoesntStart(t *testing.T) {
	_, listener, throtRecorder, clock := newTestThrottledRecorder()

	recordFrames(throtRecorder, throttleFrames+1)
	assert.Equal(t, 1, listener.events)

	clock.Sleep(minRefill / time.Duration(2))

	recordFrames(throtRecorder, throttleFrames)
	assert.Equal(t, 2, listener.events)
}

func TestIntraRecordingRestart(t *testing.T) {
	rec, listener, throtRecorder, clock := newTestThrottledRecorder()

	require.NoError(t, throtRecorder.StartRecording())
	writeFrames(throtRecorder, throttleFrames+1) // Trigger throttling.
	assert.Equal(t, 1, listener.events)
	assert.False(t, throtRecorder.IsRecording())

	// Wait a while (recording still active) - not long enough for minimum refill.
	rec.Reset()
	clock.Sleep(minRefill / 2)
	writeFrames(throtRecorder, 10)
	assert.Equal(t, 0, rec.writes)

	// Wait a while longer - should refill bucket enough.
	rec.Reset()
	clock.Sleep(minRefill / 2)
	writeFrames(throtRecorder, 10)
	assert.Equal(t, 10, rec.writes)
	assert.True(t, throtRecorder.IsRecording())

	// Throttling has only happened once (at the top).
	assert.Equal(t, 1, listener.events)
}

func TestUsingDifferentRefillRate(t *testing.T) {
	clock := new(testClock)

	conf := newTestConfig()
	conf.MinRefill = 60 * time.Second
	rec := new(writeRecorder)
	throtRecorder := NewThrottledRecorderWithClock(rec, conf, minRecordingSecs, fps, nil, clock)

	recordFrames(throtRecorder, throttleFrames) //empty bucket
	clock.Sleep(conf.MinRefill)                 // allow to fill

	// Observe that it only filled up to the minimum size
	rec.Reset()
	recordFrames(throtRecorder, throttleFrames)
	assert.Equal(t, minRecordingFrames, rec.writes)
}

func TestStartErrorIsReturned(t *testing.T) {
	rec, listener, throtRecorder, _ := newTestThrottledRecorder()
	rec.startErr = errors.New("disk full")

	assert.EqualError(t, throtRecorder.StartRecording(), "disk full")
	assert.False(t, throtRecorder.IsRecording())
	assert.EqualError(t, throtRecorder.WriteFrame(make([]byte, 4), 0), "disk full")
	assert.Equal(t, 0, rec.writes)
	assert.Equal(t, 0, listener.events)
}

func TestThrottleEventDetails(t *testing.T) {
	details, err := throttleEventDetails("test-cam")
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"description":{"type":"throttle","details":{"recorder":"edge-detector","source":"test-cam"}}}`,
		string(details))
}

var _ ratelimit.Clock = new(realClock)
var _ ratelimit.Clock = new(testClock)

// testClock implements a fake ratelimit.Clock for testing.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}
