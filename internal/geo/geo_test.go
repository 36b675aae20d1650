package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCentroid(t *testing.T) {
	b := BoundingBox{MinLat: 10, MaxLat: 20, MinLon: 30, MaxLon: 40}

	c := b.Centroid()

	assert.InDelta(t, 15.0, c.Lat, 1e-9)
	assert.InDelta(t, 35.0, c.Lon, 1e-9)
}

func TestCentroidCrossingEquator(t *testing.T) {
	b := BoundingBox{MinLat: -10, MaxLat: 10, MinLon: -20, MaxLon: 10}

	c := b.Centroid()

	assert.InDelta(t, 0.0, c.Lat, 1e-9)
	assert.InDelta(t, -5.0, c.Lon, 1e-9)
}
