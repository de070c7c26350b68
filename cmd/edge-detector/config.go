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
	"io/ioutil"
	"os"

	goconfig "github.com/TheCacophonyProject/go-config"
	yaml "gopkg.in/yaml.v2"

	"github.com/TheCacophonyProject/edge-detector/preprocess"
	"github.com/TheCacophonyProject/edge-detector/recorder"
	"github.com/TheCacophonyProject/edge-detector/throttle"
)

type Config struct {
	DeviceID     int     `yaml:"-"`
	DeviceName   string  `yaml:"-"`
	Latitude     float64 `yaml:"-"`
	Longitude    float64 `yaml:"-"`
	FrameInput   string  `yaml:"frame-input"`
	OutputDir    string  `yaml:"output-dir"`
	MinDiskSpace uint64  `yaml:"min-disk-space"`
	Pipeline     preprocess.Config
	Recorder     recorder.RecorderConfig
	Throttler    throttle.ThrottlerConfig
}

func (conf *Config) Validate() error {
	if err := conf.Pipeline.Validate(); err != nil {
		return err
	}
	if err := conf.Recorder.Validate(); err != nil {
		return err
	}
	if err := conf.Throttler.Validate(); err != nil {
		return err
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		FrameInput:   "/var/run/camera-frames",
		OutputDir:    "/var/spool/edges",
		MinDiskSpace: 200,
		Pipeline:     preprocess.DefaultConfig(),
		Recorder:     recorder.DefaultRecorderConfig(),
		Throttler:    throttle.DefaultThrottlerConfig(),
	}
}

// ParseConfigFiles reads the daemon config file, falling back to defaults
// if it doesn't exist, and the device identity from configDir. An empty
// configDir skips the device identity.
func ParseConfigFiles(configFilename, configDir string) (*Config, error) {
	buf, err := ioutil.ReadFile(configFilename)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	conf, err := ParseConfig(buf)
	if err != nil {
		return nil, err
	}

	if configDir == "" {
		return conf, nil
	}
	if err := loadDeviceConfig(conf, configDir); err != nil {
		return nil, err
	}
	return conf, nil
}

func ParseConfig(buf []byte) (*Config, error) {
	conf := defaultConfig()
	if err := yaml.Unmarshal(buf, &conf); err != nil {
		return nil, err
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

func loadDeviceConfig(conf *Config, configDir string) error {
	configRW, err := goconfig.New(configDir)
	if err != nil {
		return err
	}

	var deviceConfig goconfig.Device
	if err := configRW.Unmarshal(goconfig.DeviceKey, &deviceConfig); err != nil {
		return err
	}
	conf.DeviceID = deviceConfig.ID
	conf.DeviceName = deviceConfig.Name

	var location goconfig.Location
	if err := configRW.Unmarshal(goconfig.LocationKey, &location); err != nil {
		return err
	}
	conf.Latitude = float64(location.Latitude)
	conf.Longitude = float64(location.Longitude)
	return nil
}
