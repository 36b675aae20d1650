package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/weathersight/weathersight/internal/geo"
	"github.com/weathersight/weathersight/internal/weather"
)

// historyFloor is the earliest date served by the Open-Meteo archive.
var historyFloor = weather.NewDay(time.Date(1940, time.January, 1, 0, 0, 0, 0, time.UTC))

// OpenMeteoArchive implements weather.HistoricalProvider against the
// Open-Meteo historical archive API.
type OpenMeteoArchive struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker

	// now is swappable for range-validation tests.
	now func() time.Time
}

func NewOpenMeteoArchive(client *http.Client) *OpenMeteoArchive {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo-archive",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenMeteoArchive{
		name:    "openmeteo-archive",
		baseURL: "https://archive-api.open-meteo.com/v1/archive",
		httpCfg: HTTPClientConfig{Client: client},
		circuit: cb,
		now:     time.Now,
	}
}

func (p *OpenMeteoArchive) Name() string {
	return p.name
}

// validateRange checks the requested range against what the archive can
// serve: nothing before the history floor, nothing past yesterday.
func (p *OpenMeteoArchive) validateRange(r weather.DateRange) error {
	if r.End.Before(r.Start.Time) {
		return fmt.Errorf("%w: start %s is after end %s", weather.ErrDataUnavailable, r.Start, r.End)
	}
	if r.Start.Before(historyFloor.Time) {
		return fmt.Errorf("%w: start %s predates provider history (%s)", weather.ErrDataUnavailable, r.Start, historyFloor)
	}
	yesterday := weather.NewDay(p.now()).AddDays(-1)
	if r.End.After(yesterday.Time) {
		return fmt.Errorf("%w: end %s is beyond yesterday (%s)", weather.ErrDataUnavailable, r.End, yesterday)
	}
	return nil
}

// FetchDaily retrieves daily observations for the coordinate and range.
// The returned series has exactly one entry per day of the range; days the
// provider reported no value for stay missing rather than zero-filled.
func (p *OpenMeteoArchive) FetchDaily(ctx context.Context, coord geo.Coordinate, r weather.DateRange) (weather.ObservationSeries, error) {
	if err := p.validateRange(r); err != nil {
		return weather.ObservationSeries{}, err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", coord.Lat))
		values.Set("longitude", fmt.Sprintf("%f", coord.Lon))
		values.Set("start_date", r.Start.String())
		values.Set("end_date", r.End.String())
		values.Set("daily", "temperature_2m_max,precipitation_sum,windspeed_10m_max")
		values.Set("timezone", "UTC")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithBreaker(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.ObservationSeries{}, fmt.Errorf("%w: openmeteo archive: %v", weather.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Daily struct {
			Time             []string   `json:"time"`
			TemperatureMax   []*float64 `json:"temperature_2m_max"`
			PrecipitationSum []*float64 `json:"precipitation_sum"`
			WindSpeedMax     []*float64 `json:"windspeed_10m_max"`
		} `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.ObservationSeries{}, fmt.Errorf("%w: decode openmeteo response: %v", weather.ErrDataUnavailable, err)
	}
	if len(payload.Daily.Time) == 0 {
		return weather.ObservationSeries{}, fmt.Errorf("%w: empty response for %s..%s", weather.ErrDataUnavailable, r.Start, r.End)
	}

	// Index returned rows by date so gaps in the response become missing
	// days instead of silently shrinking the series.
	byDate := make(map[string]int, len(payload.Daily.Time))
	for i, ts := range payload.Daily.Time {
		byDate[ts] = i
	}

	at := func(vals []*float64, i int) *float64 {
		if i < 0 || i >= len(vals) {
			return nil
		}
		return vals[i]
	}

	series := weather.ObservationSeries{
		Coordinate:   coord,
		Observations: make([]weather.DailyObservation, 0, r.Days()),
	}
	for d := r.Start; !d.After(r.End.Time); d = d.AddDays(1) {
		obs := weather.DailyObservation{Date: d}
		if i, ok := byDate[d.String()]; ok {
			obs.Temperature = at(payload.Daily.TemperatureMax, i)
			obs.Precipitation = at(payload.Daily.PrecipitationSum, i)
			obs.WindSpeed = at(payload.Daily.WindSpeedMax, i)
		}
		series.Observations = append(series.Observations, obs)
	}

	return series, nil
}
