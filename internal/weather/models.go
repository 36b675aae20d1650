package weather

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/weathersight/weathersight/internal/geo"
)

// DayFormat is the wire format for calendar dates.
const DayFormat = "2006-01-02"

// Day is a calendar date (midnight UTC) that marshals as "YYYY-MM-DD".
type Day struct {
	time.Time
}

// NewDay truncates t to midnight UTC.
func NewDay(t time.Time) Day {
	t = t.UTC()
	return Day{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses a "YYYY-MM-DD" string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return Day{t.UTC()}, nil
}

// AddDays returns the day n calendar days later.
func (d Day) AddDays(n int) Day {
	return Day{d.AddDate(0, 0, n)}
}

func (d Day) String() string {
	return d.Format(DayFormat)
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	day, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = day
	return nil
}

// DateRange is an inclusive range of calendar days, Start <= End.
type DateRange struct {
	Start Day `json:"start"`
	End   Day `json:"end"`
}

// Days returns the number of calendar days in the range, inclusive.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start.Time).Hours()/24) + 1
}

// Metric identifies a daily weather variable.
type Metric string

const (
	MetricTemperature   Metric = "temperature"   // daily maximum, degrees C
	MetricPrecipitation Metric = "precipitation" // daily sum, mm
	MetricWindSpeed     Metric = "wind_speed"    // daily maximum, km/h
)

// ForecastMetrics are the metrics forecast for every selection.
var ForecastMetrics = []Metric{MetricTemperature, MetricPrecipitation}

// DailyObservation holds one day's values. A nil field means the provider
// reported no value for that day; missing is never substituted with zero.
type DailyObservation struct {
	Date          Day      `json:"date"`
	Temperature   *float64 `json:"temperature,omitempty"`
	Precipitation *float64 `json:"precipitation,omitempty"`
	WindSpeed     *float64 `json:"windSpeed,omitempty"`
}

// Value returns the observation's value for a metric, or nil when missing.
func (o DailyObservation) Value(m Metric) *float64 {
	switch m {
	case MetricTemperature:
		return o.Temperature
	case MetricPrecipitation:
		return o.Precipitation
	case MetricWindSpeed:
		return o.WindSpeed
	default:
		return nil
	}
}

// ObservationSeries is the daily history for one coordinate: one entry per
// day of the requested range, ascending by date, no duplicates.
type ObservationSeries struct {
	Coordinate   geo.Coordinate     `json:"coordinate"`
	Observations []DailyObservation `json:"observations"`
}

// LastDate returns the date of the final entry, observed or not.
func (s ObservationSeries) LastDate() Day {
	if len(s.Observations) == 0 {
		return Day{}
	}
	return s.Observations[len(s.Observations)-1].Date
}

// MetricPoints extracts the (date, value) pairs for a metric, dropping days
// with missing values.
func (s ObservationSeries) MetricPoints(m Metric) ([]Day, []float64) {
	var (
		dates  []Day
		values []float64
	)
	for _, o := range s.Observations {
		if v := o.Value(m); v != nil {
			dates = append(dates, o.Date)
			values = append(values, *v)
		}
	}
	return dates, values
}
