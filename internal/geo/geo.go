package geo

import (
	"context"
	"errors"
)

// ErrLookupFailed is returned when reverse geocoding produced no usable result.
// Callers treat it as non-fatal: the place name degrades to an empty string.
var ErrLookupFailed = errors.New("geo lookup failed")

// Coordinate is a WGS84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BoundingBox is a user-drawn rectangle on the map.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLon float64 `json:"minLon"`
	MaxLon float64 `json:"maxLon"`
}

// Centroid returns the arithmetic mean of the box corners.
func (b BoundingBox) Centroid() Coordinate {
	return Coordinate{
		Lat: (b.MinLat + b.MaxLat) / 2,
		Lon: (b.MinLon + b.MaxLon) / 2,
	}
}

// Resolver turns a coordinate into a human-readable place name.
type Resolver interface {
	ReverseLookup(ctx context.Context, c Coordinate) (string, error)
}
