package weather

import (
	"gonum.org/v1/gonum/stat"
)

// MetricStats summarizes the non-missing values of one metric over a series.
type MetricStats struct {
	Metric  Metric  `json:"metric"`
	Count   int     `json:"count"`
	Mean    float64 `json:"mean"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	MinDate Day     `json:"minDate"`
	MaxDate Day     `json:"maxDate"`
}

// Stats computes summary statistics for a metric. The second return value is
// false when the series holds no non-missing values for the metric.
func (s ObservationSeries) Stats(m Metric) (MetricStats, bool) {
	dates, values := s.MetricPoints(m)
	if len(values) == 0 {
		return MetricStats{}, false
	}

	st := MetricStats{
		Metric: m,
		Count:  len(values),
		Mean:   stat.Mean(values, nil),
		Min:    values[0],
		Max:    values[0],
	}
	st.MinDate = dates[0]
	st.MaxDate = dates[0]
	for i, v := range values {
		if v < st.Min {
			st.Min = v
			st.MinDate = dates[i]
		}
		if v > st.Max {
			st.Max = v
			st.MaxDate = dates[i]
		}
	}
	return st, true
}
