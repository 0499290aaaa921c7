// Package scheduler runs the transfer engine's background sweeps: resuming
// pending exports and reaping expired tasks.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shandysiswandi/filebridge/internal/transfer/entity"
)

// Tasks is the slice of the task engine the sweeps need.
type Tasks interface {
	PendingTasks(ctx context.Context) ([]entity.Task, error)
	ProcessExport(ctx context.Context, taskID string) error
	CleanupExpired(ctx context.Context, retention time.Duration) (int, error)
}

// Config carries the cron expressions and the retention window.
type Config struct {
	PendingSpec string
	ExpirySpec  string
	Retention   time.Duration
}

func (c Config) withDefaults() Config {
	if c.PendingSpec == "" {
		c.PendingSpec = "@every 1m"
	}
	if c.ExpirySpec == "" {
		c.ExpirySpec = "0 2 * * *"
	}
	if c.Retention <= 0 {
		c.Retention = 7 * 24 * time.Hour
	}
	return c
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron    *cron.Cron
	tasks   Tasks
	cfg     Config
	rootCtx context.Context
}

func New(rootCtx context.Context, tasks Tasks, cfg Config) (*Scheduler, error) {
	if rootCtx == nil {
		rootCtx = context.Background()
	}

	s := &Scheduler{
		cron:    cron.New(),
		tasks:   tasks,
		cfg:     cfg.withDefaults(),
		rootCtx: rootCtx,
	}

	if _, err := s.cron.AddFunc(s.cfg.PendingSpec, s.sweepPending); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(s.cfg.ExpirySpec, s.sweepExpired); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for in-flight sweeps, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sweepPending resumes exports that were created but never picked up, for
// example after a restart. A pending import cannot be resumed because its
// scheduling was lost with the process, so it is only reported.
func (s *Scheduler) sweepPending() {
	ctx := s.rootCtx

	tasks, err := s.tasks.PendingTasks(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "pending sweep failed", "error", err)
		return
	}

	for _, task := range tasks {
		switch task.Kind {
		case entity.KindExport:
			if err := s.tasks.ProcessExport(ctx, task.ID); err != nil {
				slog.ErrorContext(ctx, "failed to resume export", "task_id", task.ID, "error", err)
			}
		case entity.KindImport:
			slog.WarnContext(ctx, "import stuck in pending", "task_id", task.ID, "created_at", task.CreatedAt)
		}
	}
}

func (s *Scheduler) sweepExpired() {
	ctx := s.rootCtx

	removed, err := s.tasks.CleanupExpired(ctx, s.cfg.Retention)
	if err != nil {
		slog.ErrorContext(ctx, "expiry sweep failed", "error", err)
		return
	}
	if removed > 0 {
		slog.InfoContext(ctx, "removed expired tasks", "count", removed)
	}
}
