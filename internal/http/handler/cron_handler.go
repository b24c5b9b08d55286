package handler

import (
	"net/http"

	"github.com/FrogonXO/shopify-student-verify/internal/http/response"
	"github.com/FrogonXO/shopify-student-verify/internal/service"
)

type CronHandler struct {
	reconciler *service.Reconciler
}

func NewCronHandler(reconciler *service.Reconciler) *CronHandler {
	return &CronHandler{reconciler: reconciler}
}

func (h *CronHandler) SendReminders(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.SendReminders(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "reminder pass failed")
		return
	}
	writeReport(w, r, report)
}

func (h *CronHandler) CancelStale(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.CancelStale(r.Context())
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "cancellation pass failed")
		return
	}
	writeReport(w, r, report)
}

func writeReport(w http.ResponseWriter, r *http.Request, report service.Report) {
	response.JSON(w, r, http.StatusOK, map[string]any{
		"ok":              true,
		"remindersSent":   report.RemindersSent,
		"ordersCancelled": report.OrdersCancelled,
		"ordersSynced":    report.OrdersSynced,
	})
}
