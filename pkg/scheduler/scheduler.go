// Package scheduler fires the pipeline once per logical day. It is a
// thin stand-in for whatever external scheduler drives the task graph:
// all it knows is "invoke the run entry point at the configured time".
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skyops/apodsync/pkg/config"
	"github.com/skyops/apodsync/pkg/pipeline"
)

// Runner is the pipeline entry point the scheduler drives.
type Runner interface {
	Run(ctx context.Context, logicalDate string) *pipeline.RunResult
}

// Scheduler triggers at most one run per logical date on the daily
// cadence.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// Compile-time interface check.
var _ Scheduler = (*scheduler)(nil)

type scheduler struct {
	log     logrus.FieldLogger
	cfg     *config.ScheduleConfig
	runner  Runner
	history *pipeline.History
	fireAt  time.Duration
	now     func() time.Time

	mu       sync.Mutex
	lastDate string

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a daily scheduler. The config must already be validated.
func New(
	log logrus.FieldLogger,
	cfg *config.ScheduleConfig,
	runner Runner,
	history *pipeline.History,
) Scheduler {
	fireAt, _ := config.ParseFireAt(cfg.FireAt)

	return &scheduler{
		log:     log.WithField("component", "scheduler"),
		cfg:     cfg,
		runner:  runner,
		history: history,
		fireAt:  fireAt,
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

// Start launches the trigger goroutine. With catchup enabled, one run
// for the current UTC date fires immediately.
func (s *scheduler) Start(ctx context.Context) error {
	s.log.WithFields(logrus.Fields{
		"fire_at": s.cfg.FireAt,
		"catchup": s.cfg.CatchupOnStart,
	}).Info("Starting scheduler")

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		if s.cfg.CatchupOnStart {
			s.fire(ctx)
		}

		for {
			next := NextFire(s.now().UTC(), s.fireAt)
			timer := time.NewTimer(time.Until(next))

			s.log.WithField("next_fire", next.Format(time.RFC3339)).
				Debug("Waiting for next trigger")

			select {
			case <-timer.C:
				s.fire(ctx)
			case <-s.done:
				timer.Stop()

				return
			case <-ctx.Done():
				timer.Stop()

				return
			}
		}
	}()

	return nil
}

// Stop signals the trigger goroutine to stop and waits for it. An
// in-flight run finishes its current node boundary via context
// cancellation handled by the caller's context, not by Stop.
func (s *scheduler) Stop() error {
	close(s.done)
	s.wg.Wait()

	s.log.Info("Scheduler stopped")

	return nil
}

// fire runs the pipeline for the current UTC date unless a run for
// that date was already triggered by this scheduler.
func (s *scheduler) fire(ctx context.Context) {
	logicalDate := s.now().UTC().Format(pipeline.DateLayout)

	s.mu.Lock()
	if s.lastDate == logicalDate {
		s.mu.Unlock()
		s.log.WithField("logical_date", logicalDate).
			Debug("Run for date already triggered, skipping")

		return
	}

	s.lastDate = logicalDate
	s.mu.Unlock()

	result := s.runner.Run(ctx, logicalDate)
	if s.history != nil {
		s.history.Add(result)
	}

	if !result.Succeeded() {
		s.log.WithFields(logrus.Fields{
			"logical_date": logicalDate,
			"run_id":       result.RunID,
			"status":       result.Status,
		}).Error("Scheduled run failed")
	}
}

// NextFire returns the next daily trigger instant strictly after now.
func NextFire(now time.Time, fireAt time.Duration) time.Time {
	midnight := time.Date(
		now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC,
	)

	next := midnight.Add(fireAt)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}

	return next
}
