package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFullComplete(t *testing.T) {
	payload := []byte(`{"bus_mac":"28:56:2F:49:F7:00","bus_name":"SUT-BUS-01","lat":14.88,"lon":102.02,"pm2_5":35.5,"pm10":60.1,"temp":31.2,"hum":65,"seats_available":12}`)

	r, err := Parse(ClassFullUpdate, payload)
	require.NoError(t, err)

	full, ok := r.(*FullReading)
	require.True(t, ok)
	assert.Equal(t, "28:56:2F:49:F7:00", full.MAC)
	require.NotNil(t, full.Name)
	assert.Equal(t, "SUT-BUS-01", *full.Name)
	require.NotNil(t, full.Lat)
	assert.Equal(t, 14.88, *full.Lat)
	assert.Equal(t, 35.5, full.PM25)
	assert.Equal(t, 12, full.Seats)
}

func TestParseFullMalformedJSON(t *testing.T) {
	_, err := Parse(ClassFullUpdate, []byte(`{not json`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestParseFullMissingIdentity(t *testing.T) {
	cases := map[string][]byte{
		"absent":       []byte(`{"lat":14.88,"lon":102.02}`),
		"empty":        []byte(`{"bus_mac":""}`),
		"not a string": []byte(`{"bus_mac":12345}`),
		"overlong":     []byte(`{"bus_mac":"AA:BB:CC:DD:EE:FF:00:11:22"}`),
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(ClassFullUpdate, payload)
			assert.ErrorIs(t, err, ErrMissingIdentity)
		})
	}
}

func TestParseFullInvalidNumeric(t *testing.T) {
	_, err := Parse(ClassFullUpdate, []byte(`{"bus_mac":"AA:BB","pm2_5":"not-a-number"}`))
	assert.ErrorIs(t, err, ErrInvalidNumeric)
}

func TestParseFullNumericStringCoerced(t *testing.T) {
	r, err := Parse(ClassFullUpdate, []byte(`{"bus_mac":"AA:BB","pm2_5":"42.5"}`))
	require.NoError(t, err)
	assert.Equal(t, 42.5, r.(*FullReading).PM25)
}

func TestParseFullOutOfRangePosition(t *testing.T) {
	_, err := Parse(ClassFullUpdate, []byte(`{"bus_mac":"AA:BB","lat":95.0,"lon":102.0}`))
	assert.ErrorIs(t, err, ErrOutOfRangePosition)

	_, err = Parse(ClassFullUpdate, []byte(`{"bus_mac":"AA:BB","lat":14.0,"lon":-200.0}`))
	assert.ErrorIs(t, err, ErrOutOfRangePosition)
}

func TestParseFullNonFiniteValuesRejected(t *testing.T) {
	_, err := Parse(ClassFullUpdate, []byte(`{"bus_mac":"AA:BB","lat":"nan","lon":"nan","pm2_5":10}`))
	assert.ErrorIs(t, err, ErrInvalidNumeric)

	_, err = Parse(ClassFullUpdate, []byte(`{"bus_mac":"AA:BB","lat":14.0,"lon":"+inf"}`))
	assert.ErrorIs(t, err, ErrInvalidNumeric)

	_, err = Parse(ClassFullUpdate, []byte(`{"bus_mac":"AA:BB","pm2_5":"NaN"}`))
	assert.ErrorIs(t, err, ErrInvalidNumeric)
}

func TestParseFullClampsSensorValues(t *testing.T) {
	r, err := Parse(ClassFullUpdate, []byte(`{"bus_mac":"AA:BB","pm2_5":5000,"pm10":-3,"seats_available":-5}`))
	require.NoError(t, err)

	full := r.(*FullReading)
	assert.Equal(t, 1000.0, full.PM25)
	assert.Equal(t, 0.0, full.PM10)
	assert.Equal(t, 0, full.Seats)
}

func TestParseFullMissingPositionIsAllowed(t *testing.T) {
	r, err := Parse(ClassFullUpdate, []byte(`{"bus_mac":"AA:BB","pm2_5":10}`))
	require.NoError(t, err)

	full := r.(*FullReading)
	assert.Nil(t, full.Lat)
	assert.Nil(t, full.Lon)
}

func TestParseFullAbsentNameStaysNil(t *testing.T) {
	r, err := Parse(ClassFullUpdate, []byte(`{"bus_mac":"AA:BB","lat":14.88,"lon":102.02}`))
	require.NoError(t, err)
	assert.Nil(t, r.(*FullReading).Name)
}

func TestParseFullNameTruncated(t *testing.T) {
	r, err := Parse(ClassFullUpdate, []byte(`{"bus_mac":"AA:BB","bus_name":"an extremely long shuttle display name"}`))
	require.NoError(t, err)

	full := r.(*FullReading)
	require.NotNil(t, full.Name)
	assert.Len(t, *full.Name, 30)
}

func TestParseFullNameTruncatedOnRuneBoundary(t *testing.T) {
	name := strings.Repeat("รถ", 40)
	r, err := Parse(ClassFullUpdate, []byte(`{"bus_mac":"AA:BB","bus_name":"`+name+`"}`))
	require.NoError(t, err)

	full := r.(*FullReading)
	require.NotNil(t, full.Name)
	assert.True(t, utf8.ValidString(*full.Name))
	assert.Equal(t, 30, utf8.RuneCountInString(*full.Name))
}

func TestParsePosition(t *testing.T) {
	r, err := Parse(ClassPositionOnly, []byte(`{"bus_mac":"AA:BB","lat":14.88,"lon":102.02}`))
	require.NoError(t, err)

	pos, ok := r.(*PositionReading)
	require.True(t, ok)
	assert.Equal(t, 14.88, pos.Lat)
	assert.Equal(t, 102.02, pos.Lon)
}

func TestParsePositionWithoutCoordinatesRejected(t *testing.T) {
	_, err := Parse(ClassPositionOnly, []byte(`{"bus_mac":"AA:BB","lat":14.88}`))
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestParseDoorCount(t *testing.T) {
	r, err := Parse(ClassDoorCount, []byte(`{"dir":"enter","count":7}`))
	require.NoError(t, err)

	occ, ok := r.(*OccupancyReading)
	require.True(t, ok)
	assert.Equal(t, "enter", occ.Direction)
	assert.Equal(t, 7, occ.Count)
}

func TestParseDoorCountClamped(t *testing.T) {
	r, err := Parse(ClassDoorCount, []byte(`{"dir":"exit","count":-4}`))
	require.NoError(t, err)
	assert.Equal(t, 0, r.(*OccupancyReading).Count)
}
