package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weathersight/weathersight/internal/geo"
	"github.com/weathersight/weathersight/internal/weather"
)

func testProvider(t *testing.T, handler http.HandlerFunc) *OpenMeteoArchive {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewOpenMeteoArchive(srv.Client())
	p.baseURL = srv.URL
	p.now = func() time.Time {
		return time.Date(2023, 2, 1, 12, 0, 0, 0, time.UTC)
	}
	return p
}

func testRange(t *testing.T, start, end string) weather.DateRange {
	t.Helper()

	s, err := weather.ParseDay(start)
	require.NoError(t, err)
	e, err := weather.ParseDay(end)
	require.NoError(t, err)
	return weather.DateRange{Start: s, End: e}
}

func TestFetchDailyFullRange(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2023-01-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2023-01-03", r.URL.Query().Get("end_date"))
		assert.Equal(t, "UTC", r.URL.Query().Get("timezone"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"daily":{
			"time":["2023-01-01","2023-01-02","2023-01-03"],
			"temperature_2m_max":[5.1,null,7.3],
			"precipitation_sum":[0.0,1.2,null],
			"windspeed_10m_max":[12.0,15.5,9.9]
		}}`))
	})

	series, err := p.FetchDaily(context.Background(), geo.Coordinate{Lat: 48.85, Lon: 2.35}, testRange(t, "2023-01-01", "2023-01-03"))
	require.NoError(t, err)

	require.Len(t, series.Observations, 3)
	assert.Equal(t, 48.85, series.Coordinate.Lat)

	first := series.Observations[0]
	require.NotNil(t, first.Temperature)
	assert.InDelta(t, 5.1, *first.Temperature, 1e-9)

	// Nulls stay missing, not zero.
	assert.Nil(t, series.Observations[1].Temperature)
	assert.Nil(t, series.Observations[2].Precipitation)
}

func TestFetchDailyGapsBecomeMissingDays(t *testing.T) {
	// Provider skips 2023-01-02 entirely; the series must still have one
	// entry per requested day, with the gap marked missing.
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily":{
			"time":["2023-01-01","2023-01-03"],
			"temperature_2m_max":[5.1,7.3],
			"precipitation_sum":[0.0,0.4],
			"windspeed_10m_max":[12.0,9.9]
		}}`))
	})

	series, err := p.FetchDaily(context.Background(), geo.Coordinate{}, testRange(t, "2023-01-01", "2023-01-03"))
	require.NoError(t, err)

	require.Len(t, series.Observations, 3)
	gap := series.Observations[1]
	assert.Equal(t, "2023-01-02", gap.Date.String())
	assert.Nil(t, gap.Temperature)
	assert.Nil(t, gap.Precipitation)
	assert.Nil(t, gap.WindSpeed)
}

func TestFetchDailyEmptyResponse(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily":{"time":[]}}`))
	})

	_, err := p.FetchDaily(context.Background(), geo.Coordinate{}, testRange(t, "2023-01-01", "2023-01-03"))
	assert.ErrorIs(t, err, weather.ErrDataUnavailable)
}

func TestFetchDailyServerError(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := p.FetchDaily(context.Background(), geo.Coordinate{}, testRange(t, "2023-01-01", "2023-01-03"))
	assert.ErrorIs(t, err, weather.ErrDataUnavailable)
}

func TestFetchDailyRejectsFutureEnd(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an invalid range")
	})

	// "Now" is pinned to 2023-02-01; anything past 2023-01-31 is invalid.
	_, err := p.FetchDaily(context.Background(), geo.Coordinate{}, testRange(t, "2023-01-01", "2023-02-01"))
	assert.ErrorIs(t, err, weather.ErrDataUnavailable)
}

func TestFetchDailyRejectsPreHistoryStart(t *testing.T) {
	p := testProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an invalid range")
	})

	_, err := p.FetchDaily(context.Background(), geo.Coordinate{}, testRange(t, "1939-12-31", "2023-01-03"))
	assert.ErrorIs(t, err, weather.ErrDataUnavailable)
}
