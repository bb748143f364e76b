package health

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"accessterm/internal/domain/settings"
)

// Window is the access-point session the portal is serving.
type Window interface {
	Snapshot() settings.Record
	ClosesAt() time.Time
	Pending() int
}

type Handler struct {
	window     Window
	log        *slog.Logger
	middleware huma.Middlewares
	now        func() time.Time
}

func NewHandler(window Window, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		window:     window,
		log:        log,
		middleware: middleware,
		now:        time.Now,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
}

func (h *Handler) healthCheck(_ context.Context, _ *Input) (*Output, error) {
	resp := toResponse(h.window, h.now())
	h.log.Debug("portal status requested",
		slog.String("status", resp.Status),
		slog.Int("remaining_seconds", resp.RemainingSeconds),
	)
	return &Output{Body: resp}, nil
}
