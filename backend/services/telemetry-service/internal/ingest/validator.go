package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Rejection reasons. Every rejected message is dropped with a log entry and is
// never retried.
var (
	ErrMalformedPayload   = errors.New("ingest: malformed payload")
	ErrMissingIdentity    = errors.New("ingest: missing or invalid device identity")
	ErrInvalidNumeric     = errors.New("ingest: invalid numeric field")
	ErrOutOfRangePosition = errors.New("ingest: position out of range")
)

const (
	maxMACLength  = 20
	maxNameLength = 30

	minPM, maxPM       = 0.0, 1000.0
	minSeats, maxSeats = 0, 100
)

// Parse decodes and sanitizes a raw payload for the given topic class.
func Parse(class Class, payload []byte) (Reading, error) {
	switch class {
	case ClassFullUpdate:
		return parseFull(payload)
	case ClassPositionOnly:
		return parsePosition(payload)
	case ClassDoorCount:
		return parseDoorCount(payload)
	default:
		return nil, fmt.Errorf("%w: unknown class %d", ErrMalformedPayload, class)
	}
}

func parseFull(payload []byte) (*FullReading, error) {
	fields, err := decodeObject(payload)
	if err != nil {
		return nil, err
	}

	mac, err := identity(fields)
	if err != nil {
		return nil, err
	}

	lat, lon, err := position(fields)
	if err != nil {
		return nil, err
	}

	pm25, err := optionalFloat(fields, "pm2_5")
	if err != nil {
		return nil, err
	}
	pm10, err := optionalFloat(fields, "pm10")
	if err != nil {
		return nil, err
	}
	temp, err := optionalFloat(fields, "temp")
	if err != nil {
		return nil, err
	}
	hum, err := optionalFloat(fields, "hum")
	if err != nil {
		return nil, err
	}
	seats, err := optionalInt(fields, "seats_available")
	if err != nil {
		return nil, err
	}

	reading := &FullReading{
		MAC:        mac,
		Lat:        lat,
		Lon:        lon,
		PM25:       clampFloat(pm25, minPM, maxPM),
		PM10:       clampFloat(pm10, minPM, maxPM),
		Temp:       temp,
		Hum:        hum,
		Seats:      clampInt(seats, minSeats, maxSeats),
		ReceivedAt: time.Now().UTC(),
	}

	// An absent name stays nil so the persistence layer never overwrites a
	// stored name with a placeholder.
	if raw, ok := fields["bus_name"]; ok {
		if name, ok := raw.(string); ok && name != "" {
			// Truncate on rune boundaries so a multi-byte name is never cut
			// into invalid UTF-8.
			if runes := []rune(name); len(runes) > maxNameLength {
				name = string(runes[:maxNameLength])
			}
			reading.Name = &name
		}
	}

	return reading, nil
}

func parsePosition(payload []byte) (*PositionReading, error) {
	fields, err := decodeObject(payload)
	if err != nil {
		return nil, err
	}

	mac, err := identity(fields)
	if err != nil {
		return nil, err
	}

	lat, lon, err := position(fields)
	if err != nil {
		return nil, err
	}
	// A fast fix without both coordinates carries nothing usable.
	if lat == nil || lon == nil {
		return nil, fmt.Errorf("%w: position-only message without coordinates", ErrMalformedPayload)
	}

	return &PositionReading{
		MAC:        mac,
		Lat:        *lat,
		Lon:        *lon,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

func parseDoorCount(payload []byte) (*OccupancyReading, error) {
	fields, err := decodeObject(payload)
	if err != nil {
		return nil, err
	}

	direction, _ := fields["dir"].(string)
	count, err := optionalInt(fields, "count")
	if err != nil {
		return nil, err
	}

	return &OccupancyReading{
		Direction:  direction,
		Count:      clampInt(count, minSeats, maxSeats),
		ReceivedAt: time.Now().UTC(),
	}, nil
}

func decodeObject(payload []byte) (map[string]interface{}, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return fields, nil
}

// identity extracts and bounds-checks the device MAC. The MAC doubles as the
// storage key, so anything that is not a short string is rejected outright.
func identity(fields map[string]interface{}) (string, error) {
	raw, ok := fields["bus_mac"]
	if !ok || raw == nil {
		return "", ErrMissingIdentity
	}
	mac, ok := raw.(string)
	if !ok || mac == "" || len(mac) > maxMACLength {
		return "", ErrMissingIdentity
	}
	return mac, nil
}

// position extracts optional lat/lon. Out-of-range coordinates reject the
// whole message: a garbage fix makes the rest of the payload untrustworthy.
func position(fields map[string]interface{}) (*float64, *float64, error) {
	lat, err := optionalFloatPtr(fields, "lat")
	if err != nil {
		return nil, nil, err
	}
	lon, err := optionalFloatPtr(fields, "lon")
	if err != nil {
		return nil, nil, err
	}

	if lat != nil && (*lat < -90 || *lat > 90) {
		return nil, nil, fmt.Errorf("%w: lat=%v", ErrOutOfRangePosition, *lat)
	}
	if lon != nil && (*lon < -180 || *lon > 180) {
		return nil, nil, fmt.Errorf("%w: lon=%v", ErrOutOfRangePosition, *lon)
	}
	return lat, lon, nil
}

func optionalFloatPtr(fields map[string]interface{}, key string) (*float64, error) {
	raw, ok := fields[key]
	if !ok || raw == nil {
		return nil, nil
	}
	v, err := coerceFloat(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidNumeric, key)
	}
	return &v, nil
}

// optionalFloat returns 0 when the field is absent; present-but-unparseable is
// a hard rejection, never a silent default.
func optionalFloat(fields map[string]interface{}, key string) (float64, error) {
	v, err := optionalFloatPtr(fields, key)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	return *v, nil
}

func optionalInt(fields map[string]interface{}, key string) (int, error) {
	v, err := optionalFloat(fields, key)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// coerceFloat accepts JSON numbers and numeric strings, matching what the
// device firmware is known to emit. ParseFloat happily yields NaN and ±Inf
// for strings like "nan"; those would slip through every range check
// downstream, so non-finite values are rejected here.
func coerceFloat(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return finite(v)
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, err
		}
		return finite(parsed)
	default:
		return 0, fmt.Errorf("unsupported type %T", raw)
	}
}

func finite(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("non-finite value")
	}
	return v, nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
