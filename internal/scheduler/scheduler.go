package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-forecast-aggregation/internal/weather"
)

// Refresher refreshes the stored forecast for one location.
type Refresher interface {
	FetchAndStore(ctx context.Context, loc weather.Location) error
}

// Scheduler periodically refreshes forecasts for configured locations.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	locations []weather.Location
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler.
func New(locations []weather.Location, interval time.Duration, service Refresher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		locations: locations,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    logger.With(zap.String("component", "scheduler")),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		s.logger.Info("no locations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval < time.Minute {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce refreshes every location concurrently and returns the number of failures.
func (s *Scheduler) RunOnce() int {
	s.logger.Debug("running forecast refresh job", zap.Int("locations", len(s.locations)))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
	)
	for _, loc := range s.locations {
		wg.Add(1)
		go func(loc weather.Location) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			if err := s.service.FetchAndStore(ctx, loc); err != nil {
				s.logger.Warn("refresh failed", zap.String("location", loc.Key()), zap.Error(err))
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}(loc)
	}
	wg.Wait()

	s.logger.Debug("completed forecast refresh job", zap.Int("failures", failures))
	return failures
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
