package weather

import (
	"context"
	"time"
)

// Sample is one decoded forecast-list entry, independent of the upstream wire shape.
type Sample struct {
	Timestamp   int64
	Temperature float64
	FeelsLike   float64
	Pressure    int
	Humidity    int
	Clouds      int
	Visibility  *int
	WindSpeed   float64
	WindDeg     int
	WindGust    *float64
	Conditions  Conditions
	Pop         *float64
}

// Forecaster produces a unified forecast for a coordinate pair.
type Forecaster interface {
	Forecast(ctx context.Context, latitude, longitude float64) (UnifiedForecast, error)
}

// CitySearcher resolves free text into place candidates.
type CitySearcher interface {
	SearchCities(ctx context.Context, query string) ([]City, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveSnapshot(loc Location, snapshot Snapshot)
	GetLatest(loc Location) (Snapshot, error)
	GetRange(loc Location, from, to time.Time) ([]Snapshot, error)
}
