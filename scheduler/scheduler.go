// Package scheduler runs the periodic maintenance of the catalog server:
// idle session sweeps, session gauges and upstream fetch monitoring.
package scheduler

import (
	"fmt"
	"time"

	"github.com/giygas/medications-catalog/interfaces"
	"github.com/giygas/medications-catalog/logging"
	"github.com/giygas/medications-catalog/metrics"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const (
	gaugeInterval   = 15 * time.Second
	monitorInterval = time.Hour
	staleFetchAfter = time.Hour
)

// Scheduler runs maintenance jobs against the session registry
type Scheduler struct {
	registry      interfaces.SessionRegistry
	ttl           time.Duration
	sweepInterval time.Duration
	scheduler     *gocron.Scheduler
	now           func() time.Time
}

// NewScheduler creates a scheduler that removes sessions idle for longer
// than ttl every sweepInterval.
func NewScheduler(registry interfaces.SessionRegistry, ttl, sweepInterval time.Duration) *Scheduler {
	return &Scheduler{
		registry:      registry,
		ttl:           ttl,
		sweepInterval: sweepInterval,
		scheduler:     gocron.NewScheduler(time.Local),
		now:           time.Now,
	}
}

// Start registers the jobs and runs them in the background
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.sweepInterval).Do(s.sweep); err != nil {
		logging.Error("Failed to schedule session sweep", "error", err)
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	if _, err := s.scheduler.Every(gaugeInterval).Do(s.refreshGauges); err != nil {
		return fmt.Errorf("failed to schedule gauge refresh: %w", err)
	}

	if _, err := s.scheduler.Every(monitorInterval).WaitForSchedule().Do(func() {
		s.checkFetchHealth()
	}); err != nil {
		return fmt.Errorf("failed to schedule fetch monitoring: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Scheduler started", "session_ttl", s.ttl.String(), "sweep_interval", s.sweepInterval.String())

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) sweep() {
	removed := s.registry.Sweep(s.ttl)
	if removed > 0 {
		s.refreshGauges()
	}
}

func (s *Scheduler) refreshGauges() {
	metrics.SetSessionCounts(s.registry.CountByStatus())
}

// checkFetchHealth warns when sessions exist but no fetch succeeded in the
// last hour. It reports whether the warning was logged.
func (s *Scheduler) checkFetchHealth() bool {
	if s.registry.Len() == 0 {
		return false
	}

	stats := s.registry.FetchStats()
	if stats.Successes == 0 && stats.Failures == 0 {
		return false
	}
	if s.now().Sub(stats.LastSuccess) <= staleFetchAfter {
		return false
	}

	if stats.LastSuccess.IsZero() {
		logging.Warn("No catalog fetch has succeeded yet",
			"failures", stats.Failures,
			"last_error", stats.LastError,
		)
	} else {
		logging.Warn("No catalog fetch succeeded in over an hour",
			"last_success", stats.LastSuccess.Format(time.RFC3339),
			"failures", stats.Failures,
			"last_error", stats.LastError,
		)
	}
	return true
}
