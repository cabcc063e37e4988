package webhook

import (
	"net/http"

	"canna_portal_backend/platform/httpkit"
	"canna_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidRequest = "invalid request body"
	errValidation     = "validation error"
)

// Handler handles webhook HTTP requests.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates a new webhook handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// HandlePartnerEvent applies a partner clinic or commerce event.
// POST /api/v1/webhook/partners/events
// Authenticated via X-Webhook-API-Key header (set by middleware).
func (h *Handler) HandlePartnerEvent(c *gin.Context) {
	var event PartnerEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(event); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return
	}

	resp, err := h.service.ProcessEvent(c.Request.Context(), c.GetString(ctxPartnerKeyRef), event)
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusAccepted
	if resp.Status == statusDuplicate {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}
