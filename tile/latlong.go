package tile

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

const (
	// LatitudeMax the maximum latitude value.
	LatitudeMax = 90.0
	// LatitudeMin the minimum latitude value.
	LatitudeMin = -LatitudeMax
	// LongitudeMax the maximum longitude value.
	LongitudeMax = 180.0
	// LongitudeMin the minimum longitude value.
	LongitudeMin = -LongitudeMax

	microdegrees = 1000000
)

// LatLong a geographic coordinate in degrees.
type LatLong struct {
	Latitude  float64
	Longitude float64
}

// FromMicrodegrees creates a LatLong from coordinates stored in microdegrees.
func FromMicrodegrees(lat, lon int32) LatLong {
	return LatLong{Latitude: MicrodegreesToDegrees(lat), Longitude: MicrodegreesToDegrees(lon)}
}

// MicrodegreesToDegrees converts microdegrees to degrees.
func MicrodegreesToDegrees(v int32) float64 { return float64(v) / microdegrees }

// DegreesToMicrodegrees converts degrees to microdegrees, rounding to the nearest value.
func DegreesToMicrodegrees(v float64) int32 { return int32(math.Round(v * microdegrees)) }

// Point converts the coordinate to an orb.Point (lon, lat).
func (l LatLong) Point() orb.Point { return orb.Point{l.Longitude, l.Latitude} }

// Valid returns if the coordinate is within the latitude and longitude limits.
func (l LatLong) Valid() bool {
	return l.Latitude >= LatitudeMin && l.Latitude <= LatitudeMax &&
		l.Longitude >= LongitudeMin && l.Longitude <= LongitudeMax
}

func (l LatLong) String() string { return fmt.Sprintf("%.6f,%.6f", l.Latitude, l.Longitude) }

// BoundingBox an area bounded by two latitudes and two longitudes.
type BoundingBox struct {
	MinLatitude  float64
	MinLongitude float64
	MaxLatitude  float64
	MaxLongitude float64
}

// NewBoundingBox creates a bounding box.
// It returns false if the values are out of range or min is greater than max.
func NewBoundingBox(minLat, minLon, maxLat, maxLon float64) (b BoundingBox, ok bool) {
	b = BoundingBox{MinLatitude: minLat, MinLongitude: minLon, MaxLatitude: maxLat, MaxLongitude: maxLon}
	ok = LatLong{minLat, minLon}.Valid() && LatLong{maxLat, maxLon}.Valid() &&
		minLat <= maxLat && minLon <= maxLon
	return
}

// FromBound converts an orb.Bound to a bounding box.
func FromBound(b orb.Bound) BoundingBox {
	return BoundingBox{
		MinLatitude:  b.Min.Lat(),
		MinLongitude: b.Min.Lon(),
		MaxLatitude:  b.Max.Lat(),
		MaxLongitude: b.Max.Lon(),
	}
}

// Bound converts the bounding box to an orb.Bound.
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLongitude, b.MinLatitude},
		Max: orb.Point{b.MaxLongitude, b.MaxLatitude},
	}
}

// Contains returns if the given point lies inside this bounding box (edges included).
func (b BoundingBox) Contains(l LatLong) bool { return b.Bound().Contains(l.Point()) }

// Intersects returns if the two bounding boxes overlap.
func (b BoundingBox) Intersects(o BoundingBox) bool { return b.Bound().Intersects(o.Bound()) }

// Center returns the center of the bounding box.
func (b BoundingBox) Center() LatLong {
	return LatLong{
		Latitude:  b.MinLatitude + (b.MaxLatitude-b.MinLatitude)/2,
		Longitude: b.MinLongitude + (b.MaxLongitude-b.MinLongitude)/2,
	}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.MinLatitude, b.MinLongitude, b.MaxLatitude, b.MaxLongitude)
}

// MapPosition the center and zoom level of the current viewport.
type MapPosition struct {
	Center    LatLong
	ZoomLevel uint8
}
