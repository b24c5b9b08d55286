package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/FrogonXO/shopify-student-verify/internal/http/response"
	"github.com/FrogonXO/shopify-student-verify/internal/repository"
	"github.com/FrogonXO/shopify-student-verify/internal/service"
)

type VerificationHandler struct {
	svc *service.VerificationService
}

func NewVerificationHandler(svc *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) Status(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "email query parameter is required")
		return
	}
	verified, err := h.svc.Status(r.Context(), email)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to check verification status")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"verified": verified})
}

func (h *VerificationHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PurchaseEmail string `json:"purchaseEmail"`
		StudentEmail  string `json:"studentEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if strings.TrimSpace(req.PurchaseEmail) == "" || strings.TrimSpace(req.StudentEmail) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "purchaseEmail and studentEmail are required")
		return
	}

	result, err := h.svc.Request(r.Context(), req.PurchaseEmail, req.StudentEmail)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStudentEmail):
			response.Error(w, r, http.StatusBadRequest, "INVALID_STUDENT_EMAIL", "student email is not an eligible institutional address")
		case errors.Is(err, service.ErrNoPendingOrder):
			response.Error(w, r, http.StatusNotFound, "NO_PENDING_ORDER", "no pending order found for this purchase email")
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to start verification")
		}
		return
	}
	if result.AlreadyVerified {
		response.JSON(w, r, http.StatusOK, map[string]any{"ok": true, "alreadyVerified": true})
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

func (h *VerificationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		var req struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			token = strings.TrimSpace(req.Token)
		}
	}
	if token == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "token is required")
		return
	}

	result, err := h.svc.Confirm(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTokenExpired):
			response.Error(w, r, http.StatusGone, "expired", "verification link has expired, please request a new one")
		case errors.Is(err, repository.ErrTokenNotFound):
			response.Error(w, r, http.StatusNotFound, "used", "verification link is invalid or was already used")
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to confirm verification")
		}
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true, "email": result.PurchaseEmail})
}
