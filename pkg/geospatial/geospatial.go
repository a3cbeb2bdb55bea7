package geospatial

import (
	"encoding/json"
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ConsistencyRadiusMeters is how far an evidence photo may be taken
// from the registered business location before it is flagged.
const ConsistencyRadiusMeters = 50000

// ParsePoint validates a GeoJSON string and returns its point geometry.
func ParsePoint(geojsonStr string) (orb.Point, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(geojsonStr), &raw); err != nil {
		return orb.Point{}, err
	}

	feature, err := geojson.UnmarshalFeature([]byte(geojsonStr))
	if err != nil {
		return orb.Point{}, err
	}

	point, ok := feature.Geometry.(orb.Point)
	if !ok {
		return orb.Point{}, errors.New("invalid GeoJSON: geometry is not a point")
	}

	return point, nil
}

// Point builds an orb point from longitude and latitude.
func Point(lon, lat float64) orb.Point {
	return orb.Point{lon, lat}
}

// DistanceMeters returns the haversine distance between two points.
func DistanceMeters(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b)
}

// IsConsistent reports whether an evidence location is within the
// consistency radius of the registered business location.
func IsConsistent(business, evidence orb.Point) bool {
	return geo.DistanceHaversine(business, evidence) <= ConsistencyRadiusMeters
}

// CalculateAreaHectares returns the geodesic area of a geometry in
// hectares, for farm plot sizing from boundary polygons.
func CalculateAreaHectares(geometry orb.Geometry) float64 {
	return geo.Area(geometry) / 10000
}

// Centroid returns the centroid of a geometry.
func Centroid(geometry orb.Geometry) orb.Point {
	centroid, _ := planar.CentroidArea(geometry)
	return centroid
}
