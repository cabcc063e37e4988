package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"canna_portal_backend/internal/kanban/service"
	"canna_portal_backend/internal/kanban/transport"
	"canna_portal_backend/platform/httpkit"
	"canna_portal_backend/platform/validator"
)

// Handler handles HTTP requests for the kanban board.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// New creates a new kanban handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Drop resolves a released card to a stage and moves the lead there.
// POST /api/v1/kanban/drop
func (h *Handler) Drop(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.DropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Drop(c.Request.Context(), identity.UserID(), identity.IsAdmin(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
