package provisioning

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"accessterm/internal/domain/link"
	"accessterm/internal/domain/settings"
)

// SavedMessage is the plain-text answer to a form save.
const SavedMessage = "Configuration saved, restarting"

// Queue hands submissions to the control loop.
type Queue interface {
	Snapshot() settings.Record
	Submit(sub link.Submission) error
}

type Handler struct {
	queue      Queue
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(queue Queue, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		queue:      queue,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.getConfigOp(), h.getConfig)
	huma.Register(api, h.saveConfigOp(), h.saveConfig)
	huma.Register(api, h.retryOp(), h.retry)
}

func (h *Handler) getConfig(_ context.Context, _ *struct{}) (*configOutput, error) {
	return &configOutput{Body: toResponse(h.queue.Snapshot())}, nil
}

func (h *Handler) saveConfig(_ context.Context, input *saveInput) (*acceptedOutput, error) {
	if err := h.submit(link.Submission{Kind: link.SubmitSave, Record: input.Body.record()}); err != nil {
		return nil, huma.Error503ServiceUnavailable("terminal is busy, try again", err)
	}

	return &acceptedOutput{
		Body: acceptedResponse{Status: "Accepted", Message: SavedMessage},
	}, nil
}

func (h *Handler) retry(_ context.Context, _ *retryInput) (*acceptedOutput, error) {
	if err := h.submit(link.Submission{Kind: link.SubmitRetry}); err != nil {
		return nil, huma.Error503ServiceUnavailable("terminal is busy, try again", err)
	}

	return &acceptedOutput{
		Body: acceptedResponse{Status: "Accepted", Message: "Reconnecting"},
	}, nil
}

// SaveForm accepts the classic form post with ssid, password, endpoint, terminalId and authKey.
func (h *Handler) SaveForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	var rec settings.Record
	for _, f := range settings.Fields() {
		rec = rec.With(f, r.PostForm.Get(f.String()))
	}

	if err := h.submit(link.Submission{Kind: link.SubmitSave, Record: rec}); err != nil {
		http.Error(w, "terminal is busy, try again", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(SavedMessage))
}

func (h *Handler) submit(sub link.Submission) error {
	if err := h.queue.Submit(sub); err != nil {
		h.log.Warn("submission rejected", slog.Any("error", err))
		return err
	}
	return nil
}
