package weather

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr(v float64) *float64 { return &v }

func TestDayJSONRoundTrip(t *testing.T) {
	d := day("2023-06-15")

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2023-06-15"`, string(b))

	var back Day
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(d.Time))
}

func TestNewDayTruncatesToMidnightUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	d := NewDay(time.Date(2023, 6, 15, 1, 30, 0, 0, loc))

	// 01:30 UTC+3 is the previous day 22:30 UTC.
	assert.Equal(t, "2023-06-14", d.String())
}

func TestDateRangeDays(t *testing.T) {
	r := DateRange{Start: day("2023-01-01"), End: day("2023-01-10")}
	assert.Equal(t, 10, r.Days())

	single := DateRange{Start: day("2023-01-01"), End: day("2023-01-01")}
	assert.Equal(t, 1, single.Days())
}

func TestMetricPointsDropsMissing(t *testing.T) {
	s := ObservationSeries{
		Observations: []DailyObservation{
			{Date: day("2023-01-01"), Temperature: ptr(10)},
			{Date: day("2023-01-02")},
			{Date: day("2023-01-03"), Temperature: ptr(12)},
		},
	}

	dates, values := s.MetricPoints(MetricTemperature)

	require.Len(t, values, 2)
	assert.Equal(t, []float64{10, 12}, values)
	assert.Equal(t, "2023-01-01", dates[0].String())
	assert.Equal(t, "2023-01-03", dates[1].String())
}

func TestStats(t *testing.T) {
	s := ObservationSeries{
		Observations: []DailyObservation{
			{Date: day("2023-01-01"), Temperature: ptr(10)},
			{Date: day("2023-01-02"), Temperature: ptr(20)},
			{Date: day("2023-01-03"), Temperature: ptr(6)},
		},
	}

	st, ok := s.Stats(MetricTemperature)
	require.True(t, ok)

	assert.Equal(t, 3, st.Count)
	assert.InDelta(t, 12.0, st.Mean, 1e-9)
	assert.InDelta(t, 6.0, st.Min, 1e-9)
	assert.InDelta(t, 20.0, st.Max, 1e-9)
	assert.Equal(t, "2023-01-03", st.MinDate.String())
	assert.Equal(t, "2023-01-02", st.MaxDate.String())
}

func TestStatsAllMissing(t *testing.T) {
	s := ObservationSeries{
		Observations: []DailyObservation{
			{Date: day("2023-01-01")},
			{Date: day("2023-01-02")},
		},
	}

	_, ok := s.Stats(MetricPrecipitation)
	assert.False(t, ok)
}
