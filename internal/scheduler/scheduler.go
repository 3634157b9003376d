package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "voicecal/internal/log"
)

// TaskFunc is the periodic job, e.g. an ICS refresh.
type TaskFunc func(ctx context.Context) error

// Scheduler runs a task on a cron schedule. Runs never overlap: a tick that
// fires while the previous run is still going is skipped.
type Scheduler struct {
	name     string
	schedule cron.Schedule
	task     TaskFunc

	cron *cron.Cron

	mu      sync.Mutex
	running bool
}

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New parses a cron expression ("*/15 * * * *", "@hourly", "@every 5m", ...).
func New(name, expr string, task TaskFunc) (*Scheduler, error) {
	if task == nil {
		return nil, fmt.Errorf("scheduler %s: task is nil", name)
	}
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("scheduler %s: invalid schedule %q: %w", name, expr, err)
	}
	return &Scheduler{name: name, schedule: schedule, task: task}, nil
}

// Next returns the next activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// RunOnce runs the task now unless a run is already in progress, in which
// case it returns false without running.
func (s *Scheduler) RunOnce(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		appLog.Warn("scheduled task still running; skipping", "task", s.name)
		return false, nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	err := s.task(ctx)
	if err != nil {
		appLog.Error("scheduled task failed", err, "task", s.name, "elapsed", time.Since(start).Round(time.Millisecond))
	} else {
		appLog.Debug("scheduled task done", "task", s.name, "elapsed", time.Since(start).Round(time.Millisecond))
	}
	return true, err
}

// Start runs the task on schedule until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron = cron.New(cron.WithParser(parser))
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		_, _ = s.RunOnce(ctx)
	}))
	s.cron.Start()
	appLog.Info("scheduler started", "task", s.name, "next", s.Next(time.Now()).Format(time.RFC3339))

	go func() {
		<-ctx.Done()
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		appLog.Info("scheduler stopped", "task", s.name)
	}()
}
