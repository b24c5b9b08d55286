package app

import (
	"log/slog"
	"net/http"

	"github.com/FrogonXO/shopify-student-verify/internal/config"
	"github.com/FrogonXO/shopify-student-verify/internal/service"
)

type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Server    *http.Server
	Scheduler *service.Scheduler
}

func New(cfg *config.Config, logger *slog.Logger, server *http.Server, scheduler *service.Scheduler) *App {
	return &App{Config: cfg, Logger: logger, Server: server, Scheduler: scheduler}
}
