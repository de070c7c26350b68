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

package recorder

import (
	"errors"

	"github.com/TheCacophonyProject/window"
)

type RecorderConfig struct {
	Active bool `yaml:"active"`
	// TriggerPercent is the share of edge pixels in a frame, 0-100, that
	// starts or extends a recording.
	TriggerPercent float64 `yaml:"trigger-percent"`
	MinSecs        int     `yaml:"min-secs"`
	MaxSecs        int     `yaml:"max-secs"`
	PreviewSecs    int     `yaml:"preview-secs"`
	// Window times are "15:04" clock times or offsets from sunrise and
	// sunset such as "-30m" and "+1h".
	WindowStart string `yaml:"window-start"`
	WindowEnd   string `yaml:"window-end"`
}

func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		Active:         false,
		TriggerPercent: 2,
		MinSecs:        5,
		MaxSecs:        60,
		PreviewSecs:    1,
	}
}

func (conf *RecorderConfig) Validate() error {
	if conf.MaxSecs < conf.MinSecs {
		return errors.New("max-secs should be larger than min-secs")
	}
	if conf.MinSecs < 1 {
		return errors.New("min-secs should be at least 1")
	}
	if conf.PreviewSecs < 0 {
		return errors.New("preview-secs can not be negative")
	}
	if conf.TriggerPercent <= 0 || conf.TriggerPercent > 100 {
		return errors.New("trigger-percent should be in range 0 - 100")
	}
	if conf.WindowStart == "" && conf.WindowEnd != "" {
		return errors.New("window-end is set but window-start isn't")
	}
	if conf.WindowStart != "" && conf.WindowEnd == "" {
		return errors.New("window-start is set but window-end isn't")
	}
	return nil
}

// HasWindow reports whether recordings are limited to a daily window.
func (conf *RecorderConfig) HasWindow() bool {
	return conf.WindowStart != ""
}

// Window returns the daily window recordings may be made in, or nil when
// recording is always allowed. The location is only used for window times
// relative to sunrise or sunset.
func (conf *RecorderConfig) Window(latitude, longitude float64) (*window.Window, error) {
	if !conf.HasWindow() {
		return nil, nil
	}
	return window.New(conf.WindowStart, conf.WindowEnd, latitude, longitude)
}
