package chat

import (
	"fmt"
	"strings"

	"github.com/weathersight/weathersight/internal/forecast"
	"github.com/weathersight/weathersight/internal/weather"
)

// ContextBudget caps the prompt context length in characters. Long histories
// are summarized, never dumped row by row.
const ContextBudget = 2000

// representativeDays is how many sample rows the summary includes.
const representativeDays = 3

var metricLabels = map[weather.Metric]string{
	weather.MetricTemperature:   "Daily max temperature (C)",
	weather.MetricPrecipitation: "Daily precipitation sum (mm)",
	weather.MetricWindSpeed:     "Daily max wind speed (km/h)",
}

// BuildContext serializes the current observations and forecasts into a
// compact summary for the language-model prompt. It is rebuilt from scratch
// before every chat call and never persisted.
func BuildContext(place string, obs weather.ObservationSeries, forecasts []forecast.Series) string {
	var b strings.Builder

	if place != "" {
		fmt.Fprintf(&b, "Area: %s (%.4f, %.4f)\n", place, obs.Coordinate.Lat, obs.Coordinate.Lon)
	} else {
		fmt.Fprintf(&b, "Area: %.4f, %.4f\n", obs.Coordinate.Lat, obs.Coordinate.Lon)
	}

	if n := len(obs.Observations); n > 0 {
		fmt.Fprintf(&b, "Historical window: %s to %s (%d days)\n",
			obs.Observations[0].Date, obs.LastDate(), n)
	}

	for _, m := range []weather.Metric{weather.MetricTemperature, weather.MetricPrecipitation, weather.MetricWindSpeed} {
		st, ok := obs.Stats(m)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: mean %.2f, min %.2f on %s, max %.2f on %s (%d observed days)\n",
			metricLabels[m], st.Mean, st.Min, st.MinDate, st.Max, st.MaxDate, st.Count)
	}

	writeSampleDays(&b, obs)

	for _, fc := range forecasts {
		if len(fc.Points) == 0 {
			continue
		}
		first := fc.Points[0]
		last := fc.Points[len(fc.Points)-1]
		fmt.Fprintf(&b, "%s forecast, next %d days: %s trend, %.2f on %s to %.2f on %s (range %.2f..%.2f)\n",
			metricLabels[fc.Metric], len(fc.Points), trendDirection(first.Value, last.Value),
			first.Value, first.Date, last.Value, last.Date,
			pointsMin(fc.Points), pointsMax(fc.Points))
	}

	return truncate(b.String(), ContextBudget)
}

// writeSampleDays adds a handful of representative rows: first, middle, last.
func writeSampleDays(b *strings.Builder, obs weather.ObservationSeries) {
	n := len(obs.Observations)
	if n == 0 {
		return
	}

	idx := []int{0}
	if n > 2 {
		idx = append(idx, n/2)
	}
	if n > 1 {
		idx = append(idx, n-1)
	}
	if len(idx) > representativeDays {
		idx = idx[:representativeDays]
	}

	b.WriteString("Sample days:\n")
	for _, i := range idx {
		o := obs.Observations[i]
		fmt.Fprintf(b, "  %s: temp %s C, precip %s mm, wind %s km/h\n",
			o.Date, fmtValue(o.Temperature), fmtValue(o.Precipitation), fmtValue(o.WindSpeed))
	}
}

func fmtValue(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func trendDirection(first, last float64) string {
	const eps = 0.1
	switch {
	case last-first > eps:
		return "rising"
	case first-last > eps:
		return "falling"
	default:
		return "flat"
	}
}

func pointsMin(ps []forecast.Point) float64 {
	m := ps[0].Value
	for _, p := range ps[1:] {
		if p.Value < m {
			m = p.Value
		}
	}
	return m
}

func pointsMax(ps []forecast.Point) float64 {
	m := ps[0].Value
	for _, p := range ps[1:] {
		if p.Value > m {
			m = p.Value
		}
	}
	return m
}

func truncate(s string, budget int) string {
	if len(s) <= budget {
		return s
	}
	return s[:budget]
}
