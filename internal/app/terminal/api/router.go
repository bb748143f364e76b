package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	healthAPI "accessterm/internal/app/terminal/api/http/health"
	"accessterm/internal/app/terminal/api/http/middleware"
	"accessterm/internal/app/terminal/api/http/middleware/auth"
	"accessterm/internal/app/terminal/api/http/middleware/logger"
	provisioningAPI "accessterm/internal/app/terminal/api/http/provisioning"
	"accessterm/internal/app/terminal/config"
)

type Handlers struct {
	Health       *healthAPI.Handler
	Provisioning *provisioningAPI.Handler
}

// Source is what the routes read from and submit to while the access point is up.
type Source interface {
	provisioningAPI.Queue
	healthAPI.Window
}

// NewRouter builds the portal routes: the huma JSON API plus the plain form endpoint at /save.
func NewRouter(src Source, cfg config.Portal, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	hcfg := huma.DefaultConfig("Terminal Configuration Portal", "1.0.0")
	hcfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basic": {Type: "http", Scheme: "basic"},
	}

	API := humachi.New(mux, hcfg)

	authMW := auth.New(cfg.PasswordHash, log)
	h := handlers(src, authMW, log)
	h.Health.SetupRoutes(API)
	h.Provisioning.SetupRoutes(API)

	mux.With(authMW.Handler).Post("/save", h.Provisioning.SaveForm)

	return mux
}

func handlers(src Source, authMW *auth.Basic, log *slog.Logger) *Handlers {
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(src, log, middlewares.GetAllAndClear())

	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	provisioningHandler := provisioningAPI.NewHandler(src, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health:       healthHandler,
		Provisioning: provisioningHandler,
	}
}
