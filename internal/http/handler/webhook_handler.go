package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FrogonXO/shopify-student-verify/internal/http/response"
	"github.com/FrogonXO/shopify-student-verify/internal/security"
	"github.com/FrogonXO/shopify-student-verify/internal/service"
)

const shopifyHmacHeader = "X-Shopify-Hmac-Sha256"

// webhook bodies are small; the cap guards against a misbehaving sender.
const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	svc    *service.VerificationService
	secret string
	logger *slog.Logger
}

func NewWebhookHandler(svc *service.VerificationService, webhookSecret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{svc: svc, secret: webhookSecret, logger: logger}
}

// OrderCreated ingests Shopify orders/create deliveries. The HMAC signature
// is verified against the raw body before anything is parsed; redeliveries
// are harmless because the store insert is idempotent.
func (h *WebhookHandler) OrderCreated(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "failed to read request body")
		return
	}

	if !security.VerifyWebhookSignature(body, r.Header.Get(shopifyHmacHeader), h.secret) {
		h.logger.WarnContext(r.Context(), "rejected webhook with invalid hmac signature")
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid webhook signature")
		return
	}

	var payload struct {
		ID    json.Number `json:"id"`
		Email string      `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid webhook payload")
		return
	}
	if strings.TrimSpace(payload.Email) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "order has no email")
		return
	}

	verified, err := h.svc.IngestOrder(r.Context(), payload.ID.String(), payload.Email)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to ingest order")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true, "verified": verified})
}
