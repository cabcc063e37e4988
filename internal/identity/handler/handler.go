package handler

import (
	"context"
	"net/http"

	"canna_portal_backend/internal/identity/service"
	"canna_portal_backend/internal/identity/transport"
	"canna_portal_backend/platform/httpkit"
	"canna_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AffiliateSessions resolves the affiliate code carried by a visitor session.
type AffiliateSessions interface {
	SessionCode(ctx context.Context, sid string) string
}

type Handler struct {
	svc        *service.Service
	val        *validator.Validator
	sessions   AffiliateSessions
	cookieName string
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid user ID"
)

func New(svc *service.Service, val *validator.Validator, sessions AffiliateSessions, cookieName string) *Handler {
	return &Handler{svc: svc, val: val, sessions: sessions, cookieName: cookieName}
}

func (h *Handler) ListConsultants(c *gin.Context) {
	result, err := h.svc.ListConsultants(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) UpdateCommissionRate(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.UpdateCommissionRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SetCommissionRate(c.Request.Context(), userID, req.CommissionRate)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// RegisterClient creates a patient account, attributing it to the affiliate
// code stored in the visitor's session when there is one.
func (h *Handler) RegisterClient(c *gin.Context) {
	var req transport.RegisterClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	sessionCode := ""
	if h.sessions != nil {
		if sid, err := c.Cookie(h.cookieName); err == nil {
			sessionCode = h.sessions.SessionCode(c.Request.Context(), sid)
		}
	}

	result, err := h.svc.RegisterClient(c.Request.Context(), req, sessionCode)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}
