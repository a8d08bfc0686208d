// Package geo converts simulator world coordinates into real map
// geometries. Recordings position everything in feet from the theater's
// southwest corner; viewers and storage want WGS84 or web-mercator.
package geo

import (
	"errors"
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/fltvhs/recorder/internal/flight"
)

// Feet in one degree of latitude on the simulator's spherical earth.
const feetPerDegree = 365221.8846

// ErrShortPath is returned when a flight path has fewer than two samples.
var ErrShortPath = errors.New("flight path needs at least two positions")

// Theater anchors simulator coordinates to the real world. X runs north
// and Y east from the origin, both in feet. Altitude is -Z feet.
type Theater struct {
	OriginLat float64
	OriginLon float64
}

// LatLon converts a simulator position to WGS84 degrees.
func (t Theater) LatLon(x, y float32) (lat, lon float64) {
	lat = t.OriginLat + float64(x)/feetPerDegree
	scale := feetPerDegree * math.Cos(lat*math.Pi/180)
	lon = t.OriginLon + float64(y)/scale
	return lat, lon
}

// Point3857 converts a simulator position to a web-mercator point.
// Stored geometry is always 3857 so SQLite, which has no spatial
// awareness, can round-trip it as plain WKB.
func (t Theater) Point3857(x, y, z float32) (geom.Point, error) {
	lat, lon := t.LatLon(x, y)
	f := wgs84.EPSG().Transform(4326, 3857)
	px, py, _ := f(lon, lat, 0)
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: px, Y: py},
		Z:    float64(-z) * 0.3048,
		Type: geom.DimXYZ,
	})
}

// FlightPath builds a web-mercator LineString from an entity's position
// history, for storage and map display.
func (t Theater) FlightPath(updates []flight.PositionUpdate) (geom.LineString, error) {
	if len(updates) < 2 {
		return geom.LineString{}, ErrShortPath
	}
	f := wgs84.EPSG().Transform(4326, 3857)
	flat := make([]float64, 0, len(updates)*2)
	for _, u := range updates {
		lat, lon := t.LatLon(u.X, u.Y)
		px, py, _ := f(lon, lat, 0)
		flat = append(flat, px, py)
	}
	seq := geom.NewSequence(flat, geom.DimXY)
	ls, err := geom.NewLineString(seq)
	if err != nil {
		return geom.LineString{}, fmt.Errorf("building flight path: %w", err)
	}
	return ls, nil
}

// PathWKB returns the flight path in WKB for storage backends.
func (t Theater) PathWKB(updates []flight.PositionUpdate) ([]byte, error) {
	ls, err := t.FlightPath(updates)
	if err != nil {
		return nil, err
	}
	return ls.AsBinary(), nil
}
