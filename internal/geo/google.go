package geo

import (
	"context"
	"fmt"

	"github.com/kelvins/geocoder"
)

// GoogleResolver implements Resolver using the Google Geocoding API.
type GoogleResolver struct{}

// NewGoogleResolver configures the geocoder package with the given API key.
func NewGoogleResolver(apiKey string) *GoogleResolver {
	geocoder.ApiKey = apiKey
	return &GoogleResolver{}
}

// ReverseLookup resolves a coordinate to a place label. The underlying
// library does not take a context, so the call runs in a goroutine and the
// caller's deadline is honoured by abandoning the result.
func (r *GoogleResolver) ReverseLookup(ctx context.Context, c Coordinate) (string, error) {
	type result struct {
		name string
		err  error
	}

	ch := make(chan result, 1)
	go func() {
		addresses, err := geocoder.GeocodingReverse(geocoder.Location{
			Latitude:  c.Lat,
			Longitude: c.Lon,
		})
		if err != nil {
			ch <- result{err: fmt.Errorf("%w: %v", ErrLookupFailed, err)}
			return
		}
		if len(addresses) == 0 {
			ch <- result{err: fmt.Errorf("%w: no address for %.4f,%.4f", ErrLookupFailed, c.Lat, c.Lon)}
			return
		}
		ch <- result{name: placeLabel(addresses[0])}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %v", ErrLookupFailed, ctx.Err())
	case res := <-ch:
		return res.name, res.err
	}
}

// placeLabel prefers a short "City, Country" label over the full formatted address.
func placeLabel(a geocoder.Address) string {
	if a.City != "" && a.Country != "" {
		return a.City + ", " + a.Country
	}
	if a.FormattedAddress != "" {
		return a.FormattedAddress
	}
	return a.FormatAddress()
}
