package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-forecast-aggregation/internal/weather"
)

const (
	defaultBaseURL  = "https://api.openweathermap.org"
	currentPath     = "/data/2.5/weather"
	forecastPath    = "/data/2.5/forecast"
	geocodePath     = "/geo/1.0/direct"
	cityResultLimit = 5
)

var errEmptyResponse = errors.New("transport returned no response")

// ZoneResolver maps coordinates to the location's own time zone.
type ZoneResolver interface {
	Zone(latitude, longitude float64) (*time.Location, error)
}

// OpenWeatherClient aggregates OpenWeatherMap current conditions and the
// 3-hour forecast list into a weather.UnifiedForecast, and resolves city names
// through the geocoding endpoint.
type OpenWeatherClient struct {
	apiKey    string
	baseURL   string
	transport Transport
	calendar  *time.Location
	zones     ZoneResolver
	logger    *zap.Logger
}

// Option configures an OpenWeatherClient.
type Option func(*OpenWeatherClient)

// WithBaseURL points the client at another host (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(c *OpenWeatherClient) { c.baseURL = baseURL }
}

// WithCalendar sets the reference calendar used for daily bucketing. Default UTC.
func WithCalendar(loc *time.Location) Option {
	return func(c *OpenWeatherClient) {
		if loc != nil {
			c.calendar = loc
		}
	}
}

// WithZoneResolver buckets days in the forecast location's own zone instead of
// the reference calendar.
func WithZoneResolver(r ZoneResolver) Option {
	return func(c *OpenWeatherClient) { c.zones = r }
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *OpenWeatherClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewOpenWeatherClient(transport Transport, apiKey string, opts ...Option) *OpenWeatherClient {
	c := &OpenWeatherClient{
		apiKey:    apiKey,
		baseURL:   defaultBaseURL,
		transport: transport,
		calendar:  time.UTC,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "openweather-client"))
	return c
}

// Forecast fetches current conditions and the forecast list concurrently and
// normalizes both into one UnifiedForecast. Any failure on either request
// fails the whole call; there is no partial result.
func (c *OpenWeatherClient) Forecast(ctx context.Context, latitude, longitude float64) (weather.UnifiedForecast, error) {
	if err := validateCoordinates(latitude, longitude); err != nil {
		return weather.UnifiedForecast{}, err
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(longitude, 'f', -1, 64))
	params.Set("units", "metric")

	currentURL, err := c.endpointURL(currentPath, params)
	if err != nil {
		return weather.UnifiedForecast{}, err
	}
	forecastURL, err := c.endpointURL(forecastPath, params)
	if err != nil {
		return weather.UnifiedForecast{}, err
	}

	log := c.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.Float64("lat", latitude),
		zap.Float64("lon", longitude),
	)
	started := time.Now()

	// Fan out; the first failure cancels the sibling request.
	var currentResp, forecastResp *Response
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := c.get(gctx, "current conditions", currentURL)
		currentResp = resp
		return err
	})
	g.Go(func() error {
		resp, err := c.get(gctx, "forecast list", forecastURL)
		forecastResp = resp
		return err
	})
	if err := g.Wait(); err != nil {
		return weather.UnifiedForecast{}, err
	}

	log.Debug("upstream responses received",
		zap.Int("current_status", currentResp.StatusCode),
		zap.Int("forecast_status", forecastResp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	if err := classifyResponse(currentResp.StatusCode, currentResp.Body); err != nil {
		return weather.UnifiedForecast{}, fmt.Errorf("current conditions: %w", err)
	}
	if err := classifyResponse(forecastResp.StatusCode, forecastResp.Body); err != nil {
		return weather.UnifiedForecast{}, fmt.Errorf("forecast list: %w", err)
	}

	current, err := decodeCurrent(currentResp.Body)
	if err != nil {
		return weather.UnifiedForecast{}, err
	}
	forecast, err := decodeForecast(forecastResp.Body)
	if err != nil {
		return weather.UnifiedForecast{}, err
	}

	samples := toSamples(forecast)
	calendar := c.calendarFor(latitude, longitude, log)

	result := weather.UnifiedForecast{
		Current:          toCurrent(current),
		Hourly:           weather.ProjectHourly(samples, weather.MaxHourlyPoints),
		Daily:            weather.BucketDaily(samples, calendar, weather.MaxDailySummaries),
		Latitude:         latitude,
		Longitude:        longitude,
		LocationLabel:    *current.Name,
		UTCOffsetSeconds: 0,
	}

	log.Debug("forecast aggregated",
		zap.Int("samples", len(samples)),
		zap.Int("hourly", len(result.Hourly)),
		zap.Int("daily", len(result.Daily)),
		zap.String("calendar", calendar.String()),
	)
	return result, nil
}

// SearchCities returns at most five places matching query, ordered by upstream
// relevance. No match yields an empty, non-nil slice.
func (c *OpenWeatherClient) SearchCities(ctx context.Context, query string) ([]weather.City, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("%w: empty city query", weather.ErrInvalidRequest)
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("limit", strconv.Itoa(cityResultLimit))

	u, err := c.endpointURL(geocodePath, params)
	if err != nil {
		return nil, err
	}

	resp, err := c.get(ctx, "geocoding", u)
	if err != nil {
		return nil, err
	}
	if err := classifyResponse(resp.StatusCode, resp.Body); err != nil {
		return nil, fmt.Errorf("geocoding: %w", err)
	}

	decoded, err := decodeCities(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(decoded) > cityResultLimit {
		decoded = decoded[:cityResultLimit]
	}

	cities := make([]weather.City, 0, len(decoded))
	for _, city := range decoded {
		cities = append(cities, toCity(city))
	}

	c.logger.Debug("city search completed", zap.String("query", q), zap.Int("results", len(cities)))
	return cities, nil
}

func (c *OpenWeatherClient) get(ctx context.Context, op, rawURL string) (*Response, error) {
	resp, err := c.transport.Get(ctx, rawURL)
	if err != nil {
		return nil, &weather.TransportError{Op: op, Err: err}
	}
	if resp == nil {
		return nil, &weather.TransportError{Op: op, Err: errEmptyResponse}
	}
	return resp, nil
}

func (c *OpenWeatherClient) endpointURL(path string, params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse base URL: %v", weather.ErrInvalidRequest, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: base URL %q is not absolute", weather.ErrInvalidRequest, c.baseURL)
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("appid", c.apiKey)

	u = u.JoinPath(path)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *OpenWeatherClient) calendarFor(latitude, longitude float64, log *zap.Logger) *time.Location {
	if c.zones == nil {
		return c.calendar
	}
	loc, err := c.zones.Zone(latitude, longitude)
	if err != nil {
		log.Warn("zone lookup failed, bucketing days in reference calendar",
			zap.String("calendar", c.calendar.String()),
			zap.Error(err),
		)
		return c.calendar
	}
	return loc
}

func validateCoordinates(latitude, longitude float64) error {
	if math.IsNaN(latitude) || math.IsInf(latitude, 0) || latitude < -90 || latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", weather.ErrInvalidRequest, latitude)
	}
	if math.IsNaN(longitude) || math.IsInf(longitude, 0) || longitude < -180 || longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", weather.ErrInvalidRequest, longitude)
	}
	return nil
}

var (
	_ weather.Forecaster   = (*OpenWeatherClient)(nil)
	_ weather.CitySearcher = (*OpenWeatherClient)(nil)
)
