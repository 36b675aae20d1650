package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/weathersight/weathersight/internal/observability"
	"github.com/weathersight/weathersight/internal/session"
)

// Sweeper periodically drops sessions that have been idle past their TTL.
type Sweeper struct {
	scheduler *gocron.Scheduler
	store     *session.Store
	metrics   *observability.Metrics
	interval  time.Duration
}

// New creates a Sweeper running at the given interval.
func New(store *session.Store, interval time.Duration, metrics *observability.Metrics) *Sweeper {
	s := gocron.NewScheduler(time.UTC)
	return &Sweeper{
		scheduler: s,
		store:     store,
		metrics:   metrics,
		interval:  interval,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Sweeper) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		dropped := s.store.SweepExpired()
		if dropped > 0 {
			log.Printf("scheduler: swept %d expired sessions", dropped)
		}
		s.metrics.ActiveSessions.Set(float64(s.store.Count()))
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Sweeper) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
