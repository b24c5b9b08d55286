package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FrogonXO/shopify-student-verify/internal/repository"
	"github.com/FrogonXO/shopify-student-verify/internal/security"
)

var (
	ErrInvalidStudentEmail = errors.New("student email is not an eligible institutional address")
	ErrNoPendingOrder      = errors.New("no pending order for purchase email")
)

// RequestResult distinguishes the normal flow (mail sent) from the
// short-circuit where the purchaser was already verified.
type RequestResult struct {
	AlreadyVerified bool
}

type VerificationService struct {
	repo       repository.VerificationRepository
	classifier *Classifier
	mailer     Mailer
	activation *ActivationService
	logger     *slog.Logger
	now        func() time.Time
}

func NewVerificationService(
	repo repository.VerificationRepository,
	classifier *Classifier,
	mailer Mailer,
	activation *ActivationService,
	logger *slog.Logger,
) *VerificationService {
	return &VerificationService{
		repo:       repo,
		classifier: classifier,
		mailer:     mailer,
		activation: activation,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *VerificationService) Status(ctx context.Context, email string) (bool, error) {
	return s.repo.IsVerified(ctx, email)
}

// Request starts the verification challenge for a purchase email. An already
// verified purchaser gets their newest held order re-activated instead of a
// new challenge; otherwise the student email is classified, a token is issued
// and mailed to the student address.
func (s *VerificationService) Request(ctx context.Context, purchaseEmail, studentEmail string) (*RequestResult, error) {
	purchaseEmail = normalize(purchaseEmail)
	studentEmail = normalize(studentEmail)

	verified, err := s.repo.IsVerified(ctx, purchaseEmail)
	if err != nil {
		return nil, fmt.Errorf("check verified: %w", err)
	}
	if verified {
		if orderID, err := s.repo.FindLatestPendingOrderID(ctx, purchaseEmail); err == nil {
			s.activation.Activate(ctx, purchaseEmail, []string{orderID})
		} else if !errors.Is(err, repository.ErrOrderNotFound) {
			s.logger.ErrorContext(ctx, "failed to look up pending order for verified purchaser",
				"email", purchaseEmail, "error", err)
		}
		return &RequestResult{AlreadyVerified: true}, nil
	}

	if !s.classifier.IsStudentEmail(studentEmail) {
		return nil, ErrInvalidStudentEmail
	}

	orderID, err := s.repo.FindLatestPendingOrderID(ctx, purchaseEmail)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrNoPendingOrder
		}
		return nil, fmt.Errorf("find pending order: %w", err)
	}

	token, err := security.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	if err := s.repo.CreatePendingVerification(ctx, purchaseEmail, studentEmail, token, orderID); err != nil {
		return nil, fmt.Errorf("store pending verification: %w", err)
	}
	if err := s.mailer.SendVerificationMail(ctx, studentEmail, token); err != nil {
		return nil, fmt.Errorf("send verification mail: %w", err)
	}
	return &RequestResult{}, nil
}

// Confirm redeems a token. The activation push to the order system is
// best-effort: the purchaser is durably verified once the store transaction
// commits, whatever the platform says.
func (s *VerificationService) Confirm(ctx context.Context, token string) (*repository.ConfirmResult, error) {
	result, err := s.repo.Confirm(ctx, token, s.now())
	if err != nil {
		return nil, err
	}
	s.activation.Activate(ctx, result.PurchaseEmail, result.ActivatedOrderIDs)
	return result, nil
}

// IngestOrder seeds the store from an order-created webhook and
// opportunistically auto-verifies purchasers whose purchase email already
// qualifies as a student address. Returns whether the purchaser is verified.
func (s *VerificationService) IngestOrder(ctx context.Context, shopifyOrderID, email string) (bool, error) {
	email = normalize(email)

	if err := s.repo.StoreOrder(ctx, shopifyOrderID, email); err != nil {
		return false, fmt.Errorf("store order: %w", err)
	}

	verified, err := s.repo.IsVerified(ctx, email)
	if err != nil {
		return false, fmt.Errorf("check verified: %w", err)
	}
	if !verified && s.classifier.IsStudentEmail(email) {
		if err := s.repo.AutoVerify(ctx, email); err != nil {
			return false, fmt.Errorf("auto verify: %w", err)
		}
		verified = true
	}

	if verified {
		s.activation.Activate(ctx, email, []string{shopifyOrderID})
	}
	return verified, nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
