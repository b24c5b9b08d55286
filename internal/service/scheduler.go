package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const schedulerRunTimeout = 5 * time.Minute

// Scheduler drives the reconciler on an in-process cron cadence. It is an
// alternative to (and safe alongside) the externally-invoked /cron endpoints:
// all reconciliation actions are idempotent per order.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewScheduler(schedule string, reconciler *Reconciler, logger *slog.Logger) (*Scheduler, error) {
	if schedule == "" {
		return nil, nil
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), schedulerRunTimeout)
		defer cancel()
		report, err := reconciler.Run(ctx)
		if err != nil {
			logger.Error("scheduled reconciliation failed", "error", err, "partial_report", report)
			return
		}
		logger.Info("scheduled reconciliation complete",
			"reminders_sent", report.RemindersSent,
			"orders_cancelled", report.OrdersCancelled,
			"orders_synced", report.OrdersSynced,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("parse reconcile schedule %q: %w", schedule, err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

func (s *Scheduler) Start() {
	if s == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("reconciliation scheduler started")
}

func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	<-s.cron.Stop().Done()
}
