package service

import (
	"context"
	"log/slog"
)

const (
	// Tag the store's staff and automation see on cleared purchasers.
	verifiedCustomerTag = "student-verified"
	// Metafield the store's hold automation reads to skip future holds.
	metafieldNamespace = "edu"
	metafieldKey       = "verified"
)

// OrderSystem is the slice of the upstream commerce platform the workflow
// needs. The platform's state can diverge from ours at any time; callers
// treat it as ground truth.
type OrderSystem interface {
	IsOrderOnHold(ctx context.Context, orderID string) (bool, error)
	ReleaseOrderHold(ctx context.Context, orderID string) error
	CancelOrder(ctx context.Context, orderID string) error
	TagCustomer(ctx context.Context, email, tag string) error
	SetCustomerMetafield(ctx context.Context, email, namespace, key, value string) error
}

// ActivationService reconciles a verified purchaser with the order system:
// tag the customer, set the suppression metafield, release each hold. Every
// sub-step is best-effort and isolated — the verification is already durable
// locally, and later reconciliation passes retry the external effects.
type ActivationService struct {
	orders OrderSystem
	logger *slog.Logger
}

func NewActivationService(orders OrderSystem, logger *slog.Logger) *ActivationService {
	return &ActivationService{orders: orders, logger: logger}
}

func (s *ActivationService) Activate(ctx context.Context, purchaseEmail string, orderIDs []string) {
	if err := s.orders.TagCustomer(ctx, purchaseEmail, verifiedCustomerTag); err != nil {
		s.logger.ErrorContext(ctx, "failed to tag customer",
			"email", purchaseEmail, "error", err)
	}
	if err := s.orders.SetCustomerMetafield(ctx, purchaseEmail, metafieldNamespace, metafieldKey, "true"); err != nil {
		s.logger.ErrorContext(ctx, "failed to set customer metafield",
			"email", purchaseEmail, "error", err)
	}
	for _, orderID := range orderIDs {
		if err := s.orders.ReleaseOrderHold(ctx, orderID); err != nil {
			s.logger.ErrorContext(ctx, "failed to release order hold",
				"email", purchaseEmail, "order_id", orderID, "error", err)
		}
	}
}
