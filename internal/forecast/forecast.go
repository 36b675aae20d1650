package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/weathersight/weathersight/internal/weather"
)

// DefaultHorizon is the number of future days forecast per metric.
const DefaultHorizon = 30

// ErrInsufficientData is returned when a metric has too few non-missing
// points to fit a model. One metric failing never affects the others.
var ErrInsufficientData = errors.New("insufficient data to fit forecast")

// minPoints is the floor on non-missing observations per metric.
const minPoints = 2

// Seasonality activation thresholds, in days of observed span. Mirrors the
// usual practice of disabling a seasonal component when the history does not
// cover enough of its period.
const (
	weeklySpanMin = 14
	yearlySpanMin = 730
)

// Point is one forecast day: a point prediction with uncertainty bounds.
type Point struct {
	Date  weather.Day `json:"date"`
	Value float64     `json:"value"`
	Lower float64     `json:"lower"`
	Upper float64     `json:"upper"`
}

// Series is the fixed-horizon forecast for one metric. Dates are strictly
// after the last date of the source observation series.
type Series struct {
	Metric weather.Metric `json:"metric"`
	Points []Point        `json:"points"`
}

// Engine fits an additive trend+seasonality model per metric by ordinary
// least squares. Fitting is fully deterministic: the same series and metric
// always reproduce the same forecast.
type Engine struct {
	horizon int
}

func NewEngine(horizon int) *Engine {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return &Engine{horizon: horizon}
}

func (e *Engine) Horizon() int {
	return e.horizon
}

// feature is one column of the design matrix as a function of time in days
// since the first observed point.
type feature func(t float64) float64

func trendFeatures() []feature {
	return []feature{
		func(float64) float64 { return 1 },
		func(t float64) float64 { return t },
	}
}

// fourierFeatures returns sin/cos pairs up to the given order for a period.
func fourierFeatures(period float64, order int) []feature {
	var fs []feature
	for k := 1; k <= order; k++ {
		freq := 2 * math.Pi * float64(k) / period
		fs = append(fs,
			func(t float64) float64 { return math.Sin(freq * t) },
			func(t float64) float64 { return math.Cos(freq * t) },
		)
	}
	return fs
}

// Forecast produces the engine's fixed-horizon forecast for one metric of
// the series. Missing values are dropped before fitting; fewer than two
// remaining points fail with ErrInsufficientData.
func (e *Engine) Forecast(series weather.ObservationSeries, metric weather.Metric) (Series, error) {
	dates, values := series.MetricPoints(metric)
	if len(values) < minPoints {
		return Series{}, fmt.Errorf("%w: metric %s has %d non-missing points, need %d",
			ErrInsufficientData, metric, len(values), minPoints)
	}

	n := len(values)
	origin := dates[0]
	ts := make([]float64, n)
	for i, d := range dates {
		ts[i] = d.Sub(origin.Time).Hours() / 24
	}
	span := ts[n-1]

	features := trendFeatures()
	if span >= weeklySpanMin {
		features = append(features, fourierFeatures(7, 2)...)
	}
	if span >= yearlySpanMin {
		features = append(features, fourierFeatures(365.25, 3)...)
	}
	// Keep the system comfortably overdetermined; drop seasonal blocks from
	// the end (yearly first) until it is.
	for len(features) > 2 && n < len(features)+2 {
		features = features[:len(features)-2]
	}

	k := len(features)
	x := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		for j, f := range features {
			x.Set(i, j, f(ts[i]))
		}
	}
	y := mat.NewDense(n, 1, values)

	var beta mat.Dense
	if err := beta.Solve(x, y); err != nil {
		return Series{}, fmt.Errorf("%w: singular design for metric %s: %v", ErrInsufficientData, metric, err)
	}

	predict := func(t float64) float64 {
		var v float64
		for j, f := range features {
			v += beta.At(j, 0) * f(t)
		}
		return v
	}

	// Residual standard error drives the uncertainty bounds.
	var ssr float64
	for i := 0; i < n; i++ {
		r := values[i] - predict(ts[i])
		ssr += r * r
	}
	var sigma float64
	if dof := n - k; dof > 0 {
		sigma = math.Sqrt(ssr / float64(dof))
	}

	// Forecast days start strictly after the last date of the full series,
	// even when that day's value was missing.
	anchor := series.LastDate()
	anchorT := anchor.Sub(origin.Time).Hours() / 24

	const z = 1.96
	out := Series{
		Metric: metric,
		Points: make([]Point, 0, e.horizon),
	}
	for h := 1; h <= e.horizon; h++ {
		t := anchorT + float64(h)
		v := predict(t)
		width := z * sigma * math.Sqrt(1+float64(h)/float64(n))
		p := Point{
			Date:  anchor.AddDays(h),
			Value: v,
			Lower: v - width,
			Upper: v + width,
		}
		if metric == weather.MetricPrecipitation {
			// Daily precipitation cannot be negative.
			p.Value = math.Max(p.Value, 0)
			p.Lower = math.Max(p.Lower, 0)
			p.Upper = math.Max(p.Upper, 0)
		}
		out.Points = append(out.Points, p)
	}

	return out, nil
}
