package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var errNoForecaster = errors.New("no forecaster configured")

// Service fronts the upstream client and keeps the latest forecast per location.
type Service struct {
	store      Store
	forecaster Forecaster
	cities     CitySearcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a new Service.
func NewService(store Store, forecaster Forecaster, cities CitySearcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		forecaster: forecaster,
		cities:     cities,
		logger:     logger.With(zap.String("component", "weather-service")),
		now:        time.Now,
	}
}

// Forecast runs a live aggregation for loc. On success the result replaces the
// location's latest snapshot; on failure the previous snapshot is kept.
func (s *Service) Forecast(ctx context.Context, loc Location) (Snapshot, error) {
	if s.forecaster == nil {
		return Snapshot{}, errNoForecaster
	}

	forecast, err := s.forecaster.Forecast(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		s.logger.Warn("forecast failed",
			zap.String("location", loc.Key()),
			zap.Bool("retryable", Retryable(err)),
			zap.Error(err),
		)
		return Snapshot{}, fmt.Errorf("forecast for %s: %w", loc.Key(), err)
	}

	snapshot := Snapshot{
		Location:  loc,
		FetchedAt: s.now().UTC(),
		Forecast:  forecast,
	}
	if s.store != nil {
		s.store.SaveSnapshot(loc, snapshot)
	}

	s.logger.Debug("forecast stored",
		zap.String("location", loc.Key()),
		zap.Int("hourly", len(forecast.Hourly)),
		zap.Int("daily", len(forecast.Daily)),
	)
	return snapshot, nil
}

// FetchAndStore refreshes loc, discarding the snapshot.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) error {
	_, err := s.Forecast(ctx, loc)
	return err
}

// SearchCities delegates to the configured CitySearcher.
func (s *Service) SearchCities(ctx context.Context, query string) ([]City, error) {
	if s.cities == nil {
		return nil, fmt.Errorf("no city searcher configured")
	}
	cities, err := s.cities.SearchCities(ctx, query)
	if err != nil {
		s.logger.Warn("city search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	return cities, nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (Snapshot, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]Snapshot, error) {
	return s.store.GetRange(loc, from, to)
}
