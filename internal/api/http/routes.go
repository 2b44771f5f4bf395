package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/weather-forecast-aggregation/internal/store"
	"github.com/i474232898/weather-forecast-aggregation/internal/weather"
)

var validate = validator.New()

// ForecastService is what the routes need from the weather service.
type ForecastService interface {
	Forecast(ctx context.Context, loc weather.Location) (weather.Snapshot, error)
	SearchCities(ctx context.Context, query string) ([]weather.City, error)
	GetLatest(loc weather.Location) (weather.Snapshot, error)
	GetRange(loc weather.Location, from, to time.Time) ([]weather.Snapshot, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service ForecastService, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "http-api"))

	v1 := app.Group("/api/v1")

	v1.Get("/weather/forecast", func(c *fiber.Ctx) error {
		loc, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := service.Forecast(c.UserContext(), loc)
		if err != nil {
			return upstreamError(logger, err)
		}
		return c.JSON(snapshot.Forecast)
	})

	v1.Get("/weather/latest", func(c *fiber.Ctx) error {
		loc, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := service.GetLatest(loc)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast")
		}
		return c.JSON(snapshot)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshots, err := service.GetRange(req.Location, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast history")
		}

		return c.JSON(fiber.Map{
			"location":  req.Location,
			"from":      req.From,
			"to":        req.To,
			"snapshots": snapshots,
		})
	})

	v1.Get("/cities", func(c *fiber.Ctx) error {
		q := cityQuery{Query: c.Query("q")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		cities, err := service.SearchCities(c.UserContext(), q.Query)
		if err != nil {
			return upstreamError(logger, err)
		}
		return c.JSON(fiber.Map{"cities": cities})
	})
}

// upstreamError maps the weather error taxonomy onto HTTP statuses.
func upstreamError(logger *zap.Logger, err error) error {
	var apiErr *weather.APIError
	switch {
	case errors.Is(err, weather.ErrInvalidRequest):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case weather.Retryable(err):
		return fiber.NewError(fiber.StatusServiceUnavailable, "weather provider unavailable")
	case errors.As(err, &apiErr):
		return fiber.NewError(fiber.StatusBadGateway, apiErr.Message)
	case errors.Is(err, weather.ErrInvalidCredentials):
		logger.Error("weather provider rejected credentials", zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, "weather provider rejected credentials")
	case errors.Is(err, weather.ErrDecoding):
		logger.Error("weather provider response did not match schema", zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, "unexpected weather provider response")
	default:
		return fiber.NewError(http.StatusInternalServerError, "failed to fetch forecast")
	}
}

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`
}

func parseLocationQuery(c *fiber.Ctx) (weather.Location, error) {
	q := locationQuery{
		Lat: c.Query("lat"),
		Lon: c.Query("lon"),
	}
	if err := validate.Struct(q); err != nil {
		return weather.Location{}, err
	}

	lat, err := strconv.ParseFloat(q.Lat, 64)
	if err != nil {
		return weather.Location{}, err
	}
	lon, err := strconv.ParseFloat(q.Lon, 64)
	if err != nil {
		return weather.Location{}, err
	}
	return weather.Location{Latitude: lat, Longitude: lon, Label: c.Query("label")}, nil
}

type cityQuery struct {
	Query string `validate:"required,max=200"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location weather.Location `validate:"-"`
	From     time.Time        `validate:"required"`
	To       time.Time        `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
