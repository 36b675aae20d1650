package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/weathersight/weathersight/internal/chat"
	"github.com/weathersight/weathersight/internal/forecast"
	"github.com/weathersight/weathersight/internal/geo"
	"github.com/weathersight/weathersight/internal/observability"
	"github.com/weathersight/weathersight/internal/session"
	"github.com/weathersight/weathersight/internal/weather"
)

// gridSize is the per-axis sampling density for area averages (3x3 grid).
const gridSize = 3

// Pipeline wires the selection-to-chat flow: resolve the drawn box, fetch
// history, fit forecasts, and answer questions against the built context.
type Pipeline struct {
	resolver   geo.Resolver // nil disables place-name resolution
	provider   weather.HistoricalProvider
	engine     *forecast.Engine
	responder  *chat.Responder
	sessions   *session.Store
	metrics    *observability.Metrics
	geoTimeout time.Duration
}

func New(
	resolver geo.Resolver,
	provider weather.HistoricalProvider,
	engine *forecast.Engine,
	responder *chat.Responder,
	sessions *session.Store,
	metrics *observability.Metrics,
	geoTimeout time.Duration,
) *Pipeline {
	if geoTimeout <= 0 {
		geoTimeout = 5 * time.Second
	}
	return &Pipeline{
		resolver:   resolver,
		provider:   provider,
		engine:     engine,
		responder:  responder,
		sessions:   sessions,
		metrics:    metrics,
		geoTimeout: geoTimeout,
	}
}

// Sessions exposes the backing store for the expiry sweeper.
func (p *Pipeline) Sessions() *session.Store {
	return p.sessions
}

// CreateSession registers a new empty session.
func (p *Pipeline) CreateSession() string {
	id := p.sessions.Create()
	p.metrics.ActiveSessions.Set(float64(p.sessions.Count()))
	return id
}

// SelectionResult is everything one selection run produced. A metric whose
// forecast failed appears in ForecastErrors instead of Forecasts; the other
// metric's result is unaffected.
type SelectionResult struct {
	Selection      session.Selection                  `json:"selection"`
	Observations   weather.ObservationSeries          `json:"observations"`
	Forecasts      map[weather.Metric]forecast.Series `json:"forecasts"`
	ForecastErrors map[weather.Metric]string          `json:"forecastErrors,omitempty"`
}

// ApplySelection resolves the bounding box, fetches the historical series,
// forecasts each metric, and stores the result on the session. The chat
// transcript is untouched.
func (p *Pipeline) ApplySelection(ctx context.Context, id string, bounds geo.BoundingBox, r weather.DateRange) (SelectionResult, error) {
	if _, err := p.sessions.Snapshot(id); err != nil {
		return SelectionResult{}, err
	}

	centroid := bounds.Centroid()
	place := p.resolvePlace(ctx, centroid)

	obs, err := p.provider.FetchDaily(ctx, centroid, r)
	if err != nil {
		p.metrics.FetchRequests.WithLabelValues("error").Inc()
		return SelectionResult{}, err
	}
	p.metrics.FetchRequests.WithLabelValues("success").Inc()

	forecasts, forecastErrs := p.forecastAll(obs)

	sel := session.Selection{
		Bounds:   bounds,
		Centroid: centroid,
		Place:    place,
		Range:    r,
	}
	if err := p.sessions.ApplySelection(id, sel, obs, forecasts); err != nil {
		return SelectionResult{}, err
	}

	return SelectionResult{
		Selection:      sel,
		Observations:   obs,
		Forecasts:      forecasts,
		ForecastErrors: forecastErrs,
	}, nil
}

// resolvePlace attempts a single best-effort reverse lookup with a bounded
// timeout. Failure degrades to an empty place name and never blocks the run.
func (p *Pipeline) resolvePlace(ctx context.Context, c geo.Coordinate) string {
	if p.resolver == nil {
		p.metrics.GeocodeLookups.WithLabelValues("disabled").Inc()
		return ""
	}

	lookupCtx, cancel := context.WithTimeout(ctx, p.geoTimeout)
	defer cancel()

	place, err := p.resolver.ReverseLookup(lookupCtx, c)
	if err != nil {
		log.Printf("reverse geocoding failed for %.4f,%.4f: %v", c.Lat, c.Lon, err)
		p.metrics.GeocodeLookups.WithLabelValues("error").Inc()
		return ""
	}
	p.metrics.GeocodeLookups.WithLabelValues("success").Inc()
	return place
}

// forecastAll fits each metric concurrently. Metrics fail independently;
// both complete before the result is assembled.
func (p *Pipeline) forecastAll(obs weather.ObservationSeries) (map[weather.Metric]forecast.Series, map[weather.Metric]string) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		forecasts = make(map[weather.Metric]forecast.Series)
		failures  = make(map[weather.Metric]string)
	)

	for _, m := range weather.ForecastMetrics {
		m := m
		wg.Add(1)
		go func() {
			defer wg.Done()

			fc, err := p.engine.Forecast(obs, m)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("forecast failed for metric %s: %v", m, err)
				failures[m] = err.Error()
				if errors.Is(err, forecast.ErrInsufficientData) {
					p.metrics.ForecastRuns.WithLabelValues(string(m), "insufficient_data").Inc()
				} else {
					p.metrics.ForecastRuns.WithLabelValues(string(m), "error").Inc()
				}
				return
			}
			forecasts[m] = fc
			p.metrics.ForecastRuns.WithLabelValues(string(m), "success").Inc()
		}()
	}
	wg.Wait()

	if len(failures) == 0 {
		failures = nil
	}
	return forecasts, failures
}

// ChatResult is one answered turn plus the updated transcript.
type ChatResult struct {
	Answer     chat.Turn   `json:"answer"`
	Transcript []chat.Turn `json:"transcript"`
}

// Chat builds a fresh prompt context from the session's current state, asks
// the completion endpoint, and appends both turns. On upstream failure the
// transcript keeps its prior turns in content and order.
func (p *Pipeline) Chat(ctx context.Context, id, question string) (ChatResult, error) {
	sess, err := p.sessions.Snapshot(id)
	if err != nil {
		return ChatResult{}, err
	}
	if sess.Observations == nil || sess.Selection == nil {
		return ChatResult{}, session.ErrNoSelection
	}

	promptCtx := p.buildContext(sess)

	answer, err := p.responder.Respond(ctx, promptCtx, sess.Transcript, question)
	if err != nil {
		p.metrics.ChatTurns.WithLabelValues("error").Inc()
		return ChatResult{}, err
	}
	p.metrics.ChatTurns.WithLabelValues("success").Inc()

	userTurn := chat.Turn{Role: chat.RoleUser, Text: question}
	if err := p.sessions.AppendTurns(id, userTurn, answer); err != nil {
		return ChatResult{}, err
	}

	return ChatResult{
		Answer:     answer,
		Transcript: append(sess.Transcript, userTurn, answer),
	}, nil
}

// BuildPromptContext exposes the per-turn context for a session, as sent to
// the model. Useful for the front-end's "what does the bot see" view.
func (p *Pipeline) BuildPromptContext(id string) (string, error) {
	sess, err := p.sessions.Snapshot(id)
	if err != nil {
		return "", err
	}
	if sess.Observations == nil || sess.Selection == nil {
		return "", session.ErrNoSelection
	}
	return p.buildContext(sess), nil
}

func (p *Pipeline) buildContext(sess session.Session) string {
	fcs := make([]forecast.Series, 0, len(sess.Forecasts))
	for _, m := range weather.ForecastMetrics {
		if fc, ok := sess.Forecasts[m]; ok {
			fcs = append(fcs, fc)
		}
	}
	promptCtx := chat.BuildContext(sess.Selection.Place, *sess.Observations, fcs)
	p.metrics.ContextBytes.Observe(float64(len(promptCtx)))
	return promptCtx
}

// Transcript returns the session's chat history.
func (p *Pipeline) Transcript(id string) ([]chat.Turn, error) {
	sess, err := p.sessions.Snapshot(id)
	if err != nil {
		return nil, err
	}
	return sess.Transcript, nil
}

// Snapshot returns the session's current state for rendering.
func (p *Pipeline) Snapshot(id string) (session.Session, error) {
	return p.sessions.Snapshot(id)
}

// AreaAverage samples a 3x3 grid of coordinates across the bounding box,
// fetches each point's history, and averages the per-point mean temperature.
type AreaAverage struct {
	Bounds          geo.BoundingBox   `json:"bounds"`
	Range           weather.DateRange `json:"range"`
	GridPoints      int               `json:"gridPoints"`
	PointsWithData  int               `json:"pointsWithData"`
	MeanTemperature float64           `json:"meanTemperature"`
}

// ComputeAreaAverage runs the grid fetch. Points fail independently; the
// whole request fails with DataUnavailable only when no point yields data.
func (p *Pipeline) ComputeAreaAverage(ctx context.Context, bounds geo.BoundingBox, r weather.DateRange) (AreaAverage, error) {
	lats := make([]float64, gridSize)
	lons := make([]float64, gridSize)
	floats.Span(lats, bounds.MinLat, bounds.MaxLat)
	floats.Span(lons, bounds.MinLon, bounds.MaxLon)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		means []float64
	)

	for _, lat := range lats {
		for _, lon := range lons {
			coord := geo.Coordinate{Lat: lat, Lon: lon}
			wg.Add(1)
			go func() {
				defer wg.Done()

				obs, err := p.provider.FetchDaily(ctx, coord, r)
				if err != nil {
					log.Printf("area grid fetch failed for %.4f,%.4f: %v", coord.Lat, coord.Lon, err)
					p.metrics.FetchRequests.WithLabelValues("error").Inc()
					return
				}
				p.metrics.FetchRequests.WithLabelValues("success").Inc()

				st, ok := obs.Stats(weather.MetricTemperature)
				if !ok {
					return
				}

				mu.Lock()
				means = append(means, st.Mean)
				mu.Unlock()
			}()
		}
	}
	wg.Wait()

	if len(means) == 0 {
		return AreaAverage{}, fmt.Errorf("%w: no grid point returned temperature data", weather.ErrDataUnavailable)
	}

	return AreaAverage{
		Bounds:          bounds,
		Range:           r,
		GridPoints:      gridSize * gridSize,
		PointsWithData:  len(means),
		MeanTemperature: stat.Mean(means, nil),
	}, nil
}
