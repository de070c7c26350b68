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
	"encoding/json"
	"log"
	"time"

	"github.com/godbus/dbus"
)

const (
	eventsName   = "org.cacophony.Events"
	eventsPath   = "/org/cacophony/Events"
	eventsMethod = eventsName + ".Queue"
)

// ThrottledEventRecorder queues a "throttle" event with the device's event
// reporter over the system bus.
type ThrottledEventRecorder struct {
	// Source is reported in the event details, e.g. the camera model.
	Source string
}

func (er ThrottledEventRecorder) WhenThrottled() {
	detailsJSON, err := throttleEventDetails(er.Source)
	if err != nil {
		log.Printf("Could not record throttle event: %s", err)
		return
	}

	conn, err := dbus.SystemBus()
	if err != nil {
		log.Printf("Could not record throttle event: %s", err)
		return
	}

	obj := conn.Object(eventsName, dbus.ObjectPath(eventsPath))
	call := obj.Call(eventsMethod, 0, detailsJSON, time.Now().UnixNano())
	if call.Err != nil {
		log.Printf("Could not record throttle event: %s", call.Err)
		return
	}
}

func throttleEventDetails(source string) ([]byte, error) {
	eventDetails := map[string]interface{}{
		"description": map[string]interface{}{
			"type":    "throttle",
			"details": map[string]interface{}{"recorder": "edge-detector", "source": source},
		},
	}
	return json.Marshal(&eventDetails)
}
