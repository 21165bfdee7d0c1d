package ingest

import "time"

// Class identifies which inbound topic a message arrived on. Each class has
// its own reading type carrying only the fields that class legitimately
// provides.
type Class int

const (
	ClassFullUpdate Class = iota
	ClassPositionOnly
	ClassDoorCount
)

// String returns the class name used in logs and metric labels.
func (c Class) String() string {
	switch c {
	case ClassFullUpdate:
		return "full_update"
	case ClassPositionOnly:
		return "position_only"
	case ClassDoorCount:
		return "door_count"
	default:
		return "unknown"
	}
}

// Reading is a validated inbound message.
type Reading interface {
	Class() Class
}

// FullReading is a complete telemetry snapshot from a shuttle device.
// Name is nil when the payload carried no display name; position pointers are
// nil when the device had no GPS fix. Sensor values are already clamped.
type FullReading struct {
	MAC        string
	Name       *string
	Lat        *float64
	Lon        *float64
	PM25       float64
	PM10       float64
	Temp       float64
	Hum        float64
	Seats      int
	ReceivedAt time.Time
}

// Class implements Reading.
func (r *FullReading) Class() Class { return ClassFullUpdate }

// PositionReading is a fast position-only fix. Sensor fields on this topic are
// stale or zeroed by the firmware and are deliberately not represented.
type PositionReading struct {
	MAC        string
	Lat        float64
	Lon        float64
	ReceivedAt time.Time
}

// Class implements Reading.
func (r *PositionReading) Class() Class { return ClassPositionOnly }

// OccupancyReading is a door-counter event: a direction token and the running
// passenger count.
type OccupancyReading struct {
	Direction  string
	Count      int
	ReceivedAt time.Time
}

// Class implements Reading.
func (r *OccupancyReading) Class() Class { return ClassDoorCount }
