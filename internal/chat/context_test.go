package chat

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weathersight/weathersight/internal/forecast"
	"github.com/weathersight/weathersight/internal/weather"
)

func ptr(v float64) *float64 { return &v }

func observationDays(n int) weather.ObservationSeries {
	first := weather.NewDay(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	s := weather.ObservationSeries{}
	for i := 0; i < n; i++ {
		s.Observations = append(s.Observations, weather.DailyObservation{
			Date:          first.AddDays(i),
			Temperature:   ptr(10 + float64(i%10)),
			Precipitation: ptr(float64(i % 5)),
			WindSpeed:     ptr(20 + float64(i%7)),
		})
	}
	return s
}

func forecastSeries(metric weather.Metric, n int, start, step float64) forecast.Series {
	first := weather.NewDay(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	fc := forecast.Series{Metric: metric}
	for i := 0; i < n; i++ {
		v := start + step*float64(i)
		fc.Points = append(fc.Points, forecast.Point{
			Date:  first.AddDays(i),
			Value: v,
			Lower: v - 1,
			Upper: v + 1,
		})
	}
	return fc
}

func TestBuildContextStaysWithinBudget(t *testing.T) {
	forecasts := []forecast.Series{
		forecastSeries(weather.MetricTemperature, 30, 12, 0.1),
		forecastSeries(weather.MetricPrecipitation, 30, 2, -0.05),
	}

	for _, days := range []int{7, 365} {
		t.Run(fmt.Sprintf("%d_days", days), func(t *testing.T) {
			out := BuildContext("Paris, France", observationDays(days), forecasts)
			assert.LessOrEqual(t, len(out), ContextBudget)
			assert.NotEmpty(t, out)
		})
	}
}

func TestBuildContextContainsMeanTemperature(t *testing.T) {
	first := weather.NewDay(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	s := weather.ObservationSeries{}
	for i := 0; i < 10; i++ {
		s.Observations = append(s.Observations, weather.DailyObservation{
			Date:        first.AddDays(i),
			Temperature: ptr(10 + float64(i)), // mean 14.5
		})
	}

	out := BuildContext("", s, nil)

	assert.Contains(t, out, "mean 14.50")
}

func TestBuildContextReportsTrendDirection(t *testing.T) {
	rising := []forecast.Series{forecastSeries(weather.MetricTemperature, 30, 10, 0.2)}
	out := BuildContext("", observationDays(7), rising)
	assert.Contains(t, out, "rising trend")

	falling := []forecast.Series{forecastSeries(weather.MetricTemperature, 30, 10, -0.2)}
	out = BuildContext("", observationDays(7), falling)
	assert.Contains(t, out, "falling trend")
}

func TestBuildContextSummarizesInsteadOfDumpingRows(t *testing.T) {
	out := BuildContext("", observationDays(365), nil)

	// At most the representative sample rows appear, never all 365.
	require.LessOrEqual(t, strings.Count(out, "  20"), representativeDays)
}

func TestBuildContextMissingMetricOmitted(t *testing.T) {
	first := weather.NewDay(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	s := weather.ObservationSeries{
		Observations: []weather.DailyObservation{
			{Date: first, Temperature: ptr(10)},
			{Date: first.AddDays(1), Temperature: ptr(11)},
		},
	}

	out := BuildContext("", s, nil)

	assert.Contains(t, out, "Daily max temperature")
	assert.NotContains(t, out, "precipitation sum (mm): mean")
}
