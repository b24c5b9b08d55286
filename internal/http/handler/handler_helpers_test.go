package handler

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
	"github.com/FrogonXO/shopify-student-verify/internal/service"
)

type handlerTestEnv struct {
	db     *gorm.DB
	repo   repository.VerificationRepository
	svc    *service.VerificationService
	orders *stubOrderSystem
	mailer *stubMailer
}

func newHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Order{}, &domain.PendingVerification{}, &domain.VerifiedStudent{}); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewVerificationRepository(db)
	orders := newStubOrderSystem()
	mailer := &stubMailer{}
	classifier := service.NewClassifier([]string{".edu", ".ac.at", ".at"}, []string{"gmx.at"})
	activation := service.NewActivationService(orders, log)
	svc := service.NewVerificationService(repo, classifier, mailer, activation, log)

	return &handlerTestEnv{db: db, repo: repo, svc: svc, orders: orders, mailer: mailer}
}

func (e *handlerTestEnv) seedOrder(t *testing.T, shopifyOrderID, email string, age time.Duration) {
	t.Helper()
	order := domain.Order{
		ShopifyOrderID: shopifyOrderID,
		Email:          email,
		Status:         domain.OrderStatusOnHold,
		CreatedAt:      time.Now().UTC().Add(-age),
	}
	if err := e.db.Create(&order).Error; err != nil {
		t.Fatalf("seed order %s: %v", shopifyOrderID, err)
	}
}

type stubOrderSystem struct {
	mu       sync.Mutex
	released map[string]bool
	releases []string
	tags     []string
}

func newStubOrderSystem() *stubOrderSystem {
	return &stubOrderSystem{released: make(map[string]bool)}
}

func (f *stubOrderSystem) IsOrderOnHold(_ context.Context, orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.released[orderID], nil
}

func (f *stubOrderSystem) ReleaseOrderHold(_ context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases = append(f.releases, orderID)
	f.released[orderID] = true
	return nil
}

func (f *stubOrderSystem) CancelOrder(context.Context, string) error { return nil }

func (f *stubOrderSystem) TagCustomer(_ context.Context, email, tag string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tags = append(f.tags, email+":"+tag)
	return nil
}

func (f *stubOrderSystem) SetCustomerMetafield(context.Context, string, string, string, string) error {
	return nil
}

type stubMailer struct {
	mu     sync.Mutex
	tokens []string
	to     []string
}

func (m *stubMailer) SendVerificationMail(_ context.Context, studentEmail, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, studentEmail)
	m.tokens = append(m.tokens, token)
	return nil
}

func (m *stubMailer) SendReminderMail(_ context.Context, purchaseEmail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, purchaseEmail)
	return nil
}
