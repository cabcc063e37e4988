package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"canna_portal_backend/internal/commissions/service"
	"canna_portal_backend/internal/commissions/transport"
	"canna_portal_backend/platform/httpkit"
	"canna_portal_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for commission reports.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new commissions handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Report returns the commission report. Admins may filter by consultant;
// everyone else only sees their own line.
// GET /api/v1/commissions
func (h *Handler) Report(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	var filter *uuid.UUID
	if req.ConsultantID != "" {
		id := uuid.MustParse(req.ConsultantID)
		filter = &id
	}
	if !identity.IsAdmin() {
		self := identity.UserID()
		if filter != nil && *filter != self {
			httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
			return
		}
		filter = &self
	}

	result, err := h.svc.Report(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
