package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/FrogonXO/shopify-student-verify/internal/http/handler"
	"github.com/FrogonXO/shopify-student-verify/internal/http/middleware"
	"github.com/FrogonXO/shopify-student-verify/internal/http/response"
)

type Dependencies struct {
	Verification *handler.VerificationHandler
	Webhook      *handler.WebhookHandler
	Cron         *handler.CronHandler

	Limiter           middleware.Limiter
	VerifyRateLimit   int
	RateLimitFailMode middleware.FailureMode
	CronSecret        string
	Logger            *slog.Logger
}

func New(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		response.JSON(w, req, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", dep.Verification.Status)

		r.Route("/verify", func(r chi.Router) {
			limiter := middleware.NewRateLimiter(dep.Limiter, dep.VerifyRateLimit, time.Minute, dep.RateLimitFailMode, dep.Logger)
			r.Use(limiter.Middleware())
			r.Post("/request", dep.Verification.Request)
			r.Post("/confirm", dep.Verification.Confirm)
		})
	})

	r.Post("/webhook/order-created", dep.Webhook.OrderCreated)

	r.Route("/cron", func(r chi.Router) {
		r.Use(middleware.RequireCronSecret(dep.CronSecret))
		r.Get("/send-reminders", dep.Cron.SendReminders)
		r.Get("/cancel-stale", dep.Cron.CancelStale)
	})

	return r
}
