package health

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) healthCheckOp() huma.Operation {
	return huma.Operation{
		OperationID: "portal-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/health",
		Summary:     "Access point status",
		Description: "Reports how long the access point stays up and whether submissions are waiting",
		Tags:        []string{"health"},
		Middlewares: h.middleware,
	}
}
