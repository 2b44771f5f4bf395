package timezone

import (
	"fmt"
	"sync"
	"time"

	"github.com/ringsaturn/tzf"
)

// Service resolves coordinates to IANA time zones using the embedded tzf
// polygon data (loaded once per Service, roughly 50MB).
type Service struct {
	finder tzf.F

	mu    sync.RWMutex
	cache map[string]*time.Location
}

// NewService loads the default tzf finder.
func NewService() (*Service, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize timezone finder: %w", err)
	}
	return &Service{
		finder: finder,
		cache:  make(map[string]*time.Location),
	}, nil
}

// GetTimezone returns the IANA timezone name for the given coordinates,
// e.g. "America/Denver" or "Europe/London".
func (s *Service) GetTimezone(latitude, longitude float64) (string, error) {
	name := s.finder.GetTimezoneName(longitude, latitude)
	if name == "" {
		return "", fmt.Errorf("could not determine timezone for coordinates lat=%f, lon=%f", latitude, longitude)
	}
	return name, nil
}

// Zone returns the loaded *time.Location for the given coordinates.
func (s *Service) Zone(latitude, longitude float64) (*time.Location, error) {
	name, err := s.GetTimezone(latitude, longitude)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	loc, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err = time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone location %s: %w", name, err)
	}

	s.mu.Lock()
	s.cache[name] = loc
	s.mu.Unlock()
	return loc, nil
}
