// Package scheduler enqueues recurring tasks on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Enqueuer schedules background tasks.
type Enqueuer interface {
	Enqueue(ctx context.Context, path string, params url.Values) error
}

// Scheduler enqueues one task path on every tick.
type Scheduler struct {
	cron   *cron.Cron
	queue  Enqueuer
	path   string
	loc    *time.Location
	logger *zap.Logger
}

// New parses a standard five-field cron expression evaluated in loc.
func New(expr string, loc *time.Location, path string, q Enqueuer, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		queue:  q,
		path:   path,
		loc:    loc,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(expr, s.tick); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", expr, err)
	}
	return s, nil
}

// Start runs the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", zap.String("path", s.path), zap.Time("next", s.Next()))
}

// Stop halts the schedule and waits for a running tick to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Next returns the next activation time.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now().In(s.loc))
}

func (s *Scheduler) tick() {
	if err := s.queue.Enqueue(context.Background(), s.path, nil); err != nil {
		s.logger.Error("Scheduled enqueue failed", zap.String("path", s.path), zap.Error(err))
		return
	}
	s.logger.Info("Scheduled task enqueued", zap.String("path", s.path))
}
