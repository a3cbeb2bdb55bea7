package geospatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	nairobi = Point(36.8172, -1.2864)
	thika   = Point(37.0693, -1.0333)
	mombasa = Point(39.6682, -4.0435)
)

func TestParsePoint(t *testing.T) {
	point, err := ParsePoint(`{"type":"Feature","geometry":{"type":"Point","coordinates":[36.8172,-1.2864]},"properties":{}}`)
	assert.NoError(t, err)
	assert.Equal(t, 36.8172, point.Lon())
	assert.Equal(t, -1.2864, point.Lat())
}

func TestParsePoint_RejectsNonPointGeometry(t *testing.T) {
	_, err := ParsePoint(`{"type":"Feature","geometry":{"type":"LineString","coordinates":[[36.8,-1.3],[37.0,-1.0]]},"properties":{}}`)
	assert.Error(t, err)
}

func TestParsePoint_RejectsInvalidJSON(t *testing.T) {
	_, err := ParsePoint(`not geojson`)
	assert.Error(t, err)
}

func TestDistanceMeters(t *testing.T) {
	distance := DistanceMeters(nairobi, mombasa)
	// Nairobi to Mombasa is roughly 440 km by air
	assert.InDelta(t, 440000, distance, 15000)
}

func TestIsConsistent(t *testing.T) {
	assert.True(t, IsConsistent(nairobi, nairobi))
	assert.True(t, IsConsistent(nairobi, thika))
	assert.False(t, IsConsistent(nairobi, mombasa))
}
