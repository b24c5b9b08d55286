package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FrogonXO/shopify-student-verify/internal/domain"
	"github.com/FrogonXO/shopify-student-verify/internal/repository"
)

const (
	firstReminderAge  = 24 * time.Hour
	secondReminderAge = 48 * time.Hour
	cancellationAge   = 72 * time.Hour
)

// Report aggregates what one reconciliation pass did.
type Report struct {
	RemindersSent   int `json:"remindersSent"`
	OrdersCancelled int `json:"ordersCancelled"`
	OrdersSynced    int `json:"ordersSynced"`
}

func (r *Report) add(other Report) {
	r.RemindersSent += other.RemindersSent
	r.OrdersCancelled += other.OrdersCancelled
	r.OrdersSynced += other.OrdersSynced
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeReminded
	outcomeCancelled
	outcomeSynced
)

// Reconciler is the time-driven half of the workflow: it walks order age
// buckets, consults the order system for ground truth, and reminds, cancels
// or syncs. Safe to invoke concurrently and redundantly — every action is
// gated on current status and counters, and each order is handled
// independently so one failure never aborts the run.
type Reconciler struct {
	repo   repository.VerificationRepository
	orders OrderSystem
	mailer Mailer
	logger *slog.Logger
	now    func() time.Time
}

func NewReconciler(repo repository.VerificationRepository, orders OrderSystem, mailer Mailer, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		repo:   repo,
		orders: orders,
		mailer: mailer,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes the full pass: both reminder buckets, then cancellation.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	logger := r.logger.With("run_id", uuid.NewString())

	report, err := r.sendReminders(ctx, logger)
	if err != nil {
		return report, err
	}
	cancelReport, err := r.cancelStale(ctx, logger)
	report.add(cancelReport)
	return report, err
}

// SendReminders runs only the two reminder buckets.
func (r *Reconciler) SendReminders(ctx context.Context) (Report, error) {
	return r.sendReminders(ctx, r.logger.With("run_id", uuid.NewString()))
}

// CancelStale runs only the cancellation bucket.
func (r *Reconciler) CancelStale(ctx context.Context) (Report, error) {
	return r.cancelStale(ctx, r.logger.With("run_id", uuid.NewString()))
}

func (r *Reconciler) sendReminders(ctx context.Context, logger *slog.Logger) (Report, error) {
	var report Report
	now := r.now()

	buckets := []struct {
		nth int
		age time.Duration
	}{
		{nth: 1, age: firstReminderAge},
		{nth: 2, age: secondReminderAge},
	}
	for _, bucket := range buckets {
		orders, err := r.repo.OrdersNeedingReminder(ctx, bucket.nth, now.Add(-bucket.age))
		if err != nil {
			return report, fmt.Errorf("query reminder bucket %d: %w", bucket.nth, err)
		}
		for _, order := range orders {
			switch r.applyReminder(ctx, logger, order) {
			case outcomeReminded:
				report.RemindersSent++
			case outcomeSynced:
				report.OrdersSynced++
			}
		}
	}
	return report, nil
}

func (r *Reconciler) cancelStale(ctx context.Context, logger *slog.Logger) (Report, error) {
	var report Report
	now := r.now()

	orders, err := r.repo.StaleOrders(ctx, now.Add(-cancellationAge))
	if err != nil {
		return report, fmt.Errorf("query stale orders: %w", err)
	}
	for _, order := range orders {
		switch r.applyCancellation(ctx, logger, order) {
		case outcomeCancelled:
			report.OrdersCancelled++
		case outcomeSynced:
			report.OrdersSynced++
		}
	}
	return report, nil
}

// applyReminder handles one order from a reminder bucket. The external check
// comes first: an order released or cancelled out-of-band is synced locally
// and gets no reminder.
func (r *Reconciler) applyReminder(ctx context.Context, logger *slog.Logger, order domain.Order) outcome {
	onHold, err := r.orders.IsOrderOnHold(ctx, order.ShopifyOrderID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to check order hold state",
			"order_id", order.ShopifyOrderID, "error", err)
		return outcomeSkipped
	}
	if !onHold {
		return r.syncReleased(ctx, logger, order)
	}

	if err := r.mailer.SendReminderMail(ctx, order.Email); err != nil {
		logger.ErrorContext(ctx, "failed to send reminder",
			"order_id", order.ShopifyOrderID, "email", order.Email, "error", err)
		return outcomeSkipped
	}
	if err := r.repo.IncrementReminderCount(ctx, order.ID); err != nil {
		logger.ErrorContext(ctx, "failed to increment reminder count",
			"order_id", order.ShopifyOrderID, "error", err)
		return outcomeSkipped
	}
	logger.InfoContext(ctx, "reminder sent",
		"order_id", order.ShopifyOrderID, "reminder_count", order.ReminderCount+1)
	return outcomeReminded
}

func (r *Reconciler) applyCancellation(ctx context.Context, logger *slog.Logger, order domain.Order) outcome {
	onHold, err := r.orders.IsOrderOnHold(ctx, order.ShopifyOrderID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to check order hold state",
			"order_id", order.ShopifyOrderID, "error", err)
		return outcomeSkipped
	}
	if !onHold {
		return r.syncReleased(ctx, logger, order)
	}

	if err := r.orders.CancelOrder(ctx, order.ShopifyOrderID); err != nil {
		logger.ErrorContext(ctx, "failed to cancel order",
			"order_id", order.ShopifyOrderID, "error", err)
		return outcomeSkipped
	}
	if err := r.repo.MarkCancelled(ctx, order.ID); err != nil {
		logger.ErrorContext(ctx, "failed to mark order cancelled",
			"order_id", order.ShopifyOrderID, "error", err)
		return outcomeSkipped
	}
	logger.InfoContext(ctx, "stale order cancelled", "order_id", order.ShopifyOrderID)
	return outcomeCancelled
}

// syncReleased records that the platform already released or cancelled the
// order: local state follows ground truth and moves to activated.
func (r *Reconciler) syncReleased(ctx context.Context, logger *slog.Logger, order domain.Order) outcome {
	if err := r.repo.MarkActivated(ctx, order.ID); err != nil {
		logger.ErrorContext(ctx, "failed to sync externally released order",
			"order_id", order.ShopifyOrderID, "error", err)
		return outcomeSkipped
	}
	logger.InfoContext(ctx, "order released externally, synced local state",
		"order_id", order.ShopifyOrderID)
	return outcomeSynced
}
