package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/FrogonXO/shopify-student-verify/internal/domain"
	"github.com/FrogonXO/shopify-student-verify/internal/repository"
)

func newServiceDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.Order{},
		&domain.PendingVerification{},
		&domain.VerifiedStudent{},
	); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedOrder(t *testing.T, db *gorm.DB, shopifyOrderID, email string, age time.Duration, reminderCount int) domain.Order {
	t.Helper()
	order := domain.Order{
		ShopifyOrderID: shopifyOrderID,
		Email:          email,
		Status:         domain.OrderStatusOnHold,
		ReminderCount:  reminderCount,
		CreatedAt:      time.Now().UTC().Add(-age),
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order %s: %v", shopifyOrderID, err)
	}
	return order
}

// fakeOrderSystem stands in for the commerce platform. Orders listed in
// released are reported as no longer on hold.
type fakeOrderSystem struct {
	mu         sync.Mutex
	released   map[string]bool
	holdErrs   map[string]error
	cancelErrs map[string]error

	cancelled  []string
	releases   []string
	tags       []string
	metafields []string
}

func newFakeOrderSystem() *fakeOrderSystem {
	return &fakeOrderSystem{
		released:   make(map[string]bool),
		holdErrs:   make(map[string]error),
		cancelErrs: make(map[string]error),
	}
}

func (f *fakeOrderSystem) IsOrderOnHold(_ context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.holdErrs[orderID]; err != nil {
		return false, err
	}
	return !f.released[orderID], nil
}

func (f *fakeOrderSystem) ReleaseOrderHold(_ context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases = append(f.releases, orderID)
	f.released[orderID] = true
	return nil
}

func (f *fakeOrderSystem) CancelOrder(_ context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.cancelErrs[orderID]; err != nil {
		return err
	}
	f.cancelled = append(f.cancelled, orderID)
	return nil
}

func (f *fakeOrderSystem) TagCustomer(_ context.Context, email, tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags = append(f.tags, email+":"+tag)
	return nil
}

func (f *fakeOrderSystem) SetCustomerMetafield(_ context.Context, email, namespace, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metafields = append(f.metafields, fmt.Sprintf("%s:%s.%s=%s", email, namespace, key, value))
	return nil
}

type sentMail struct {
	kind  string
	to    string
	token string
}

type fakeMailer struct {
	mu      sync.Mutex
	sent    []sentMail
	failFor map[string]error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failFor: make(map[string]error)}
}

func (m *fakeMailer) SendVerificationMail(_ context.Context, studentEmail, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[studentEmail]; err != nil {
		return err
	}
	m.sent = append(m.sent, sentMail{kind: "verification", to: studentEmail, token: token})
	return nil
}

func (m *fakeMailer) SendReminderMail(_ context.Context, purchaseEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[purchaseEmail]; err != nil {
		return err
	}
	m.sent = append(m.sent, sentMail{kind: "reminder", to: purchaseEmail})
	return nil
}

func newTestVerificationService(t *testing.T, db *gorm.DB, orders *fakeOrderSystem, mailer *fakeMailer) (*VerificationService, repository.VerificationRepository) {
	t.Helper()
	repo := repository.NewVerificationRepository(db)
	logger := discardLogger()
	classifier := NewClassifier([]string{".edu", ".ac.at", ".at"}, []string{"gmx.at"})
	activation := NewActivationService(orders, logger)
	return NewVerificationService(repo, classifier, mailer, activation, logger), repo
}
