package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/weathersight/weathersight/internal/chat"
	"github.com/weathersight/weathersight/internal/geo"
	"github.com/weathersight/weathersight/internal/pipeline"
	"github.com/weathersight/weathersight/internal/session"
	"github.com/weathersight/weathersight/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, p *pipeline.Pipeline) {
	v1 := app.Group("/api/v1")

	v1.Post("/sessions", func(c *fiber.Ctx) error {
		id := p.CreateSession()
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"sessionId": id})
	})

	v1.Put("/sessions/:id/selection", func(c *fiber.Ctx) error {
		var req selectionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		r, err := req.dateRange()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := p.ApplySelection(c.Context(), c.Params("id"), req.Bounds.toBoundingBox(), r)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(result)
	})

	v1.Get("/sessions/:id/observations", func(c *fiber.Ctx) error {
		sess, err := p.Snapshot(c.Params("id"))
		if err != nil {
			return mapError(err)
		}
		if sess.Observations == nil {
			return mapError(session.ErrNoSelection)
		}
		return c.JSON(fiber.Map{
			"selection":    sess.Selection,
			"observations": sess.Observations,
		})
	})

	v1.Get("/sessions/:id/forecasts", func(c *fiber.Ctx) error {
		sess, err := p.Snapshot(c.Params("id"))
		if err != nil {
			return mapError(err)
		}
		if sess.Observations == nil {
			return mapError(session.ErrNoSelection)
		}
		return c.JSON(fiber.Map{"forecasts": sess.Forecasts})
	})

	v1.Get("/sessions/:id/transcript", func(c *fiber.Ctx) error {
		transcript, err := p.Transcript(c.Params("id"))
		if err != nil {
			return mapError(err)
		}
		if transcript == nil {
			transcript = []chat.Turn{}
		}
		return c.JSON(fiber.Map{"transcript": transcript})
	})

	v1.Get("/sessions/:id/context", func(c *fiber.Ctx) error {
		promptCtx, err := p.BuildPromptContext(c.Params("id"))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(fiber.Map{"context": promptCtx})
	})

	v1.Post("/sessions/:id/chat", func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := p.Chat(c.Context(), c.Params("id"), req.Question)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(result)
	})

	v1.Get("/area/average", func(c *fiber.Ctx) error {
		req, err := parseAreaQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		r, err := req.dateRange()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		avg, err := p.ComputeAreaAverage(c.Context(), req.Bounds.toBoundingBox(), r)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(avg)
	})
}

// mapError translates pipeline failure kinds to HTTP responses. Every kind
// becomes a user-visible message; nothing is silently substituted.
func mapError(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "unknown or expired session")
	case errors.Is(err, session.ErrNoSelection):
		return fiber.NewError(fiber.StatusConflict, "select an area and date range first")
	case errors.Is(err, weather.ErrDataUnavailable):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, chat.ErrUpstream):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}

// boundsBody carries the user-drawn rectangle.
type boundsBody struct {
	MinLat float64 `json:"minLat" validate:"gte=-90,lte=90"`
	MaxLat float64 `json:"maxLat" validate:"gte=-90,lte=90,gtefield=MinLat"`
	MinLon float64 `json:"minLon" validate:"gte=-180,lte=180"`
	MaxLon float64 `json:"maxLon" validate:"gte=-180,lte=180,gtefield=MinLon"`
}

func (b boundsBody) toBoundingBox() geo.BoundingBox {
	return geo.BoundingBox{
		MinLat: b.MinLat,
		MaxLat: b.MaxLat,
		MinLon: b.MinLon,
		MaxLon: b.MaxLon,
	}
}

// selectionRequest is the body of PUT /sessions/:id/selection.
type selectionRequest struct {
	Bounds boundsBody `json:"bounds" validate:"required"`
	Start  string     `json:"start" validate:"required,datetime=2006-01-02"`
	End    string     `json:"end" validate:"required,datetime=2006-01-02"`
}

func (s selectionRequest) dateRange() (weather.DateRange, error) {
	return parseDateRange(s.Start, s.End)
}

// chatRequest is the body of POST /sessions/:id/chat.
type chatRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

// areaQuery holds the query parameters of GET /area/average.
type areaQuery struct {
	Bounds boundsBody
	Start  string `validate:"required,datetime=2006-01-02"`
	End    string `validate:"required,datetime=2006-01-02"`
}

func (a areaQuery) dateRange() (weather.DateRange, error) {
	return parseDateRange(a.Start, a.End)
}

func parseAreaQuery(c *fiber.Ctx) (areaQuery, error) {
	var q areaQuery

	var err error
	if q.Bounds.MinLat, err = queryFloat(c, "minLat"); err != nil {
		return q, err
	}
	if q.Bounds.MaxLat, err = queryFloat(c, "maxLat"); err != nil {
		return q, err
	}
	if q.Bounds.MinLon, err = queryFloat(c, "minLon"); err != nil {
		return q, err
	}
	if q.Bounds.MaxLon, err = queryFloat(c, "maxLon"); err != nil {
		return q, err
	}
	q.Start = c.Query("start")
	q.End = c.Query("end")

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	if err := validate.Struct(q.Bounds); err != nil {
		return q, err
	}
	return q, nil
}

func queryFloat(c *fiber.Ctx, key string) (float64, error) {
	s := c.Query(key)
	if s == "" {
		return 0, errors.New(key + " query parameter is required")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.New("invalid " + key + ": must be a number")
	}
	return v, nil
}

func parseDateRange(start, end string) (weather.DateRange, error) {
	s, err := weather.ParseDay(start)
	if err != nil {
		return weather.DateRange{}, err
	}
	e, err := weather.ParseDay(end)
	if err != nil {
		return weather.DateRange{}, err
	}
	if e.Before(s.Time) {
		return weather.DateRange{}, errors.New("start date must not be after end date")
	}
	return weather.DateRange{Start: s, End: e}, nil
}
