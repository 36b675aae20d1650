package weather

import (
	"context"
	"errors"

	"github.com/weathersight/weathersight/internal/geo"
)

// ErrDataUnavailable is returned when the historical provider cannot supply
// any observations for a request. The caller surfaces it to the user; it is
// never papered over with fabricated data.
var ErrDataUnavailable = errors.New("historical weather data unavailable")

// HistoricalProvider abstracts a daily-observation data source
// (e.g. the Open-Meteo archive API).
type HistoricalProvider interface {
	Name() string
	FetchDaily(ctx context.Context, coord geo.Coordinate, r DateRange) (ObservationSeries, error)
}
