package provisioning

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) getConfigOp() huma.Operation {
	return huma.Operation{
		OperationID: "config-get",
		Method:      http.MethodGet,
		Path:        "/api/v1/config",
		Summary:     "Current terminal configuration",
		Description: "Configuration captured when the access point came up. Secrets are masked.",
		Tags:        []string{"config"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) saveConfigOp() huma.Operation {
	return huma.Operation{
		OperationID:   "config-save",
		Method:        http.MethodPut,
		Path:          "/api/v1/config",
		Summary:       "Replace terminal configuration",
		Description:   "Queues all five fields for storage. The terminal restarts once they are saved.",
		Tags:          []string{"config"},
		DefaultStatus: http.StatusAccepted,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) retryOp() huma.Operation {
	return huma.Operation{
		OperationID:   "config-retry",
		Method:        http.MethodPost,
		Path:          "/api/v1/retry",
		Summary:       "Leave access point mode",
		Description:   "Asks the terminal to stop the access point and reconnect with the stored credentials now.",
		Tags:          []string{"config"},
		DefaultStatus: http.StatusAccepted,
		Middlewares:   h.middleware,
	}
}
