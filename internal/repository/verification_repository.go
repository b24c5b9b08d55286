package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/FrogonXO/shopify-student-verify/internal/domain"
)

// TokenTTL is how long a pending verification stays redeemable. Rows past the
// TTL are rejected and deleted on the next redemption attempt.
const TokenTTL = 48 * time.Hour

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrTokenNotFound = errors.New("verification token not found")
	ErrTokenExpired  = errors.New("verification token expired")
)

// ConfirmResult is what a successful token redemption yields: the identities
// involved plus every order that is now activated for the purchase email, so
// the caller can push the activation out to the order system.
type ConfirmResult struct {
	PurchaseEmail     string
	StudentEmail      string
	ShopifyOrderID    string
	ActivatedOrderIDs []string
}

// VerificationRepository is the single source of truth for orders, pending
// verifications and verified students. Every method is safe to call
// concurrently and redundantly; inserts are idempotent by unique key.
type VerificationRepository interface {
	IsVerified(ctx context.Context, purchaseEmail string) (bool, error)
	AutoVerify(ctx context.Context, purchaseEmail string) error
	StoreOrder(ctx context.Context, shopifyOrderID, email string) error
	CreatePendingVerification(ctx context.Context, purchaseEmail, studentEmail, token, shopifyOrderID string) error
	Confirm(ctx context.Context, token string, now time.Time) (*ConfirmResult, error)
	FindLatestPendingOrderID(ctx context.Context, purchaseEmail string) (string, error)
	OrdersNeedingReminder(ctx context.Context, nth int, olderThan time.Time) ([]domain.Order, error)
	StaleOrders(ctx context.Context, olderThan time.Time) ([]domain.Order, error)
	MarkActivated(ctx context.Context, orderID uint) error
	MarkCancelled(ctx context.Context, orderID uint) error
	IncrementReminderCount(ctx context.Context, orderID uint) error
}

type GormVerificationRepository struct{ db *gorm.DB }

func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &GormVerificationRepository{db: db}
}

func (r *GormVerificationRepository) IsVerified(ctx context.Context, purchaseEmail string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.VerifiedStudent{}).
		Where("purchase_email = ?", normalizeEmail(purchaseEmail)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormVerificationRepository) AutoVerify(ctx context.Context, purchaseEmail string) error {
	email := normalizeEmail(purchaseEmail)
	verified := domain.VerifiedStudent{PurchaseEmail: email, StudentEmail: email}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&verified).Error
}

func (r *GormVerificationRepository) StoreOrder(ctx context.Context, shopifyOrderID, email string) error {
	order := domain.Order{
		ShopifyOrderID: shopifyOrderID,
		Email:          normalizeEmail(email),
		Status:         domain.OrderStatusOnHold,
	}
	// Webhook redelivery safety: duplicate shopify_order_id is a no-op.
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&order).Error
}

func (r *GormVerificationRepository) CreatePendingVerification(ctx context.Context, purchaseEmail, studentEmail, token, shopifyOrderID string) error {
	pending := domain.PendingVerification{
		PurchaseEmail:  normalizeEmail(purchaseEmail),
		StudentEmail:   normalizeEmail(studentEmail),
		Token:          token,
		ShopifyOrderID: shopifyOrderID,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&pending).Error
}

// Confirm redeems a token. Expired rows are deleted on sight, so a retry with
// the same token reports not-found rather than expired again. The happy path
// runs in one transaction; deleting the token row first and checking
// RowsAffected makes concurrent redemptions of the same token race safely —
// exactly one wins, the rest see not-found.
func (r *GormVerificationRepository) Confirm(ctx context.Context, token string, now time.Time) (*ConfirmResult, error) {
	var pending domain.PendingVerification
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&pending).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	if now.Sub(pending.CreatedAt) > TokenTTL {
		if err := r.db.WithContext(ctx).Delete(&domain.PendingVerification{}, pending.ID).Error; err != nil {
			return nil, err
		}
		return nil, ErrTokenExpired
	}

	result := &ConfirmResult{
		PurchaseEmail:  pending.PurchaseEmail,
		StudentEmail:   pending.StudentEmail,
		ShopifyOrderID: pending.ShopifyOrderID,
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("token = ?", token).Delete(&domain.PendingVerification{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenNotFound
		}

		if err := tx.Where("purchase_email = ?", pending.PurchaseEmail).
			Delete(&domain.PendingVerification{}).Error; err != nil {
			return err
		}

		verified := domain.VerifiedStudent{
			PurchaseEmail: pending.PurchaseEmail,
			StudentEmail:  pending.StudentEmail,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&verified).Error; err != nil {
			return err
		}

		if err := tx.Model(&domain.Order{}).
			Where("email = ? AND status = ?", pending.PurchaseEmail, domain.OrderStatusOnHold).
			Update("status", domain.OrderStatusActivated).Error; err != nil {
			return err
		}

		return tx.Model(&domain.Order{}).
			Where("email = ? AND status = ?", pending.PurchaseEmail, domain.OrderStatusActivated).
			Order("created_at asc").
			Pluck("shopify_order_id", &result.ActivatedOrderIDs).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *GormVerificationRepository) FindLatestPendingOrderID(ctx context.Context, purchaseEmail string) (string, error) {
	var order domain.Order
	err := r.db.WithContext(ctx).
		Where("email = ? AND status = ?", normalizeEmail(purchaseEmail), domain.OrderStatusOnHold).
		Order("created_at desc").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrOrderNotFound
		}
		return "", err
	}
	return order.ShopifyOrderID, nil
}

// OrdersNeedingReminder selects on-hold orders older than the cutoff that have
// received fewer than nth reminders and whose purchaser is not verified. The
// verified exclusion is a set difference in SQL, not an in-memory filter.
func (r *GormVerificationRepository) OrdersNeedingReminder(ctx context.Context, nth int, olderThan time.Time) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Joins("LEFT JOIN verified_students ON verified_students.purchase_email = orders.email").
		Where("orders.status = ? AND orders.reminder_count < ? AND orders.created_at < ? AND verified_students.id IS NULL",
			domain.OrderStatusOnHold, nth, olderThan).
		Order("orders.created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormVerificationRepository) StaleOrders(ctx context.Context, olderThan time.Time) ([]domain.Order, error) {
	var orders []domain.Order
	err := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Joins("LEFT JOIN verified_students ON verified_students.purchase_email = orders.email").
		Where("orders.status = ? AND orders.created_at < ? AND verified_students.id IS NULL",
			domain.OrderStatusOnHold, olderThan).
		Order("orders.created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormVerificationRepository) MarkActivated(ctx context.Context, orderID uint) error {
	return r.transitionFromHold(ctx, orderID, domain.OrderStatusActivated)
}

func (r *GormVerificationRepository) MarkCancelled(ctx context.Context, orderID uint) error {
	return r.transitionFromHold(ctx, orderID, domain.OrderStatusCancelled)
}

// transitionFromHold guards the one-way state machine: activated and cancelled
// are terminal, so only rows still on hold may move.
func (r *GormVerificationRepository) transitionFromHold(ctx context.Context, orderID uint, status string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status = ?", orderID, domain.OrderStatusOnHold).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *GormVerificationRepository) IncrementReminderCount(ctx context.Context, orderID uint) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", orderID).
		UpdateColumn("reminder_count", gorm.Expr("reminder_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
