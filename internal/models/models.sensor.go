// FilePath: internal/models/models.sensor.go
package models

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"
)

// SensorPosition is the map-local placement of a sensor, written by the
// map layout refresh.
type SensorPosition struct {
	HardwareID int `json:"hardware_id"`
	X          int `json:"x_pos"`
	Y          int `json:"y_pos"`
}

// SensorState is the volatile part of a sensor, cached per survey.
type SensorState struct {
	HardwareID           int    `json:"hardware_id"`
	SensorID             int    `json:"sensor_id"`
	LastTriggerType      string `json:"last_trigger_type"`
	LastTriggerTimestamp string `json:"last_trigger_timestamp"`
}

// Sensor is the merged read-side view: position from the map cache plus,
// when requested and available, state from the survey cache.
type Sensor struct {
	HardwareID           int    `json:"hardware_id"`
	SensorID             int    `json:"sensor_id,omitempty"`
	XPos                 int    `json:"x_pos"`
	YPos                 int    `json:"y_pos"`
	LastTriggerType      string `json:"last_trigger_type,omitempty"`
	LastTriggerTimestamp string `json:"last_trigger_timestamp,omitempty"`
}

// SensorSet is an insertion-ordered collection of sensors keyed by
// hardware id. It encodes to a JSON object whose keys keep first-seen order.
type SensorSet struct {
	order []int
	byID  map[int]*Sensor
}

// NewSensorSet returns an empty set.
func NewSensorSet() *SensorSet {
	return &SensorSet{byID: make(map[int]*Sensor)}
}

// Add inserts s unless a sensor with the same hardware id is already
// present. It reports whether s was inserted.
func (s *SensorSet) Add(sensor *Sensor) bool {
	if _, ok := s.byID[sensor.HardwareID]; ok {
		return false
	}
	s.order = append(s.order, sensor.HardwareID)
	s.byID[sensor.HardwareID] = sensor
	return true
}

// Get returns the sensor with the given hardware id.
func (s *SensorSet) Get(hardwareID int) (*Sensor, bool) {
	sensor, ok := s.byID[hardwareID]
	return sensor, ok
}

// Len returns the number of sensors in the set.
func (s *SensorSet) Len() int {
	return len(s.order)
}

// List returns the sensors in first-seen order.
func (s *SensorSet) List() []*Sensor {
	out := make([]*Sensor, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// MarshalJSON implements json.Marshaler
func (s *SensorSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(id)))
		buf.WriteByte(':')
		b, err := json.Marshal(s.byID[id])
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
