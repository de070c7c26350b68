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

// Package loglimiter stops repeated log messages from flooding the log
// when the same problem occurs on every frame.
package loglimiter

import (
	"fmt"
	"log"
	"time"
)

// maxTracked bounds how many distinct recent messages are remembered.
const maxTracked = 16

func New(interval time.Duration) *LogLimiter {
	return &LogLimiter{
		interval: interval,
		nowFunc:  time.Now,
		logFunc:  log.Print,
		seen:     make(map[string]time.Time),
	}
}

// LogLimiter drops a message if the identical message was logged less than
// interval ago. Several messages are tracked at once so alternating
// messages are limited too.
type LogLimiter struct {
	interval   time.Duration
	nowFunc    func() time.Time
	logFunc    func(v ...interface{})
	seen       map[string]time.Time
	suppressed int
}

func (limiter *LogLimiter) Printf(format string, v ...interface{}) {
	limiter.Print(fmt.Sprintf(format, v...))
}

func (limiter *LogLimiter) Print(s string) {
	now := limiter.nowFunc()
	if last, ok := limiter.seen[s]; ok && now.Sub(last) < limiter.interval {
		limiter.suppressed++
		return
	}

	limiter.logFunc(s)
	limiter.forgetOld(now)
	limiter.seen[s] = now
}

// Suppressed returns how many messages have been dropped.
func (limiter *LogLimiter) Suppressed() int {
	return limiter.suppressed
}

func (limiter *LogLimiter) forgetOld(now time.Time) {
	var oldest string
	var oldestTime time.Time
	found := false
	for s, t := range limiter.seen {
		if now.Sub(t) >= limiter.interval {
			delete(limiter.seen, s)
			continue
		}
		if !found || t.Before(oldestTime) {
			oldest, oldestTime, found = s, t, true
		}
	}
	if len(limiter.seen) >= maxTracked {
		delete(limiter.seen, oldest)
	}
}
