package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"canna_portal_backend/internal/affiliates/domain"
	"canna_portal_backend/internal/affiliates/service"
	"canna_portal_backend/internal/affiliates/transport"
	"canna_portal_backend/platform/httpkit"
	"canna_portal_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid user ID"
	msgNotFound         = "not found"
)

// reservedSegments are first path segments owned by the application and
// never treated as affiliate codes.
var reservedSegments = map[string]struct{}{
	"api":         {},
	"metrics":     {},
	"admin":       {},
	"login":       {},
	"logout":      {},
	"register":    {},
	"assets":      {},
	"static":      {},
	"health":      {},
	"favicon.ico": {},
	"robots.txt":  {},
	"sitemap.xml": {},
}

// CookieSettings configures the visitor session cookie.
type CookieSettings struct {
	Name         string
	Secure       bool
	SameSite     http.SameSite
	TTL          time.Duration
	RedirectPath string
}

// Handler handles HTTP requests for the affiliate program.
type Handler struct {
	svc    *service.Service
	val    *validator.Validator
	cookie CookieSettings
}

// New creates a new affiliates handler.
func New(svc *service.Service, val *validator.Validator, cookie CookieSettings) *Handler {
	return &Handler{svc: svc, val: val, cookie: cookie}
}

// Redirect resolves /:code links for unmatched routes. Valid codes are
// tracked and redirected; anything else is a plain 404.
func (h *Handler) Redirect(c *gin.Context) {
	code, ok := candidateCode(c.Request)
	if !ok {
		httpkit.Error(c, http.StatusNotFound, msgNotFound, nil)
		return
	}

	sid := h.sessionID(c)
	h.svc.TrackClick(c.Request.Context(), code, service.ClickMeta{
		SessionID: sid,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Referrer:  c.Request.Referer(),
	})

	c.Redirect(http.StatusFound, h.cookie.RedirectPath)
}

// candidateCode extracts a single-segment code from GET and HEAD requests.
func candidateCode(r *http.Request) (string, bool) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return "", false
	}
	segment := strings.Trim(r.URL.Path, "/")
	if segment == "" || strings.Contains(segment, "/") {
		return "", false
	}
	if _, reserved := reservedSegments[strings.ToLower(segment)]; reserved {
		return "", false
	}
	if !domain.LooksLikeCode(segment) {
		return "", false
	}
	return segment, true
}

// sessionID returns the visitor's session id, issuing a cookie when the
// request carries none.
func (h *Handler) sessionID(c *gin.Context) string {
	if sid, err := c.Cookie(h.cookie.Name); err == nil && sid != "" {
		return sid
	}
	sid := uuid.NewString()
	c.SetSameSite(h.cookie.SameSite)
	c.SetCookie(h.cookie.Name, sid, int(h.cookie.TTL.Seconds()), "/", "", h.cookie.Secure, true)
	return sid
}

// EnableVendor turns a user into an external vendor.
// POST /api/v1/affiliates/vendors/:id/enable
func (h *Handler) EnableVendor(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.EnableVendorRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.EnableVendor(c.Request.Context(), userID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// VendorMetrics returns a vendor's metrics to admins and to the vendor.
// GET /api/v1/affiliates/vendors/:id/metrics
func (h *Handler) VendorMetrics(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	vendorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	if !identity.IsAdmin() && identity.UserID() != vendorID {
		httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
		return
	}

	result, err := h.svc.VendorMetrics(c.Request.Context(), vendorID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// MyMetrics returns the caller's own vendor metrics.
// GET /api/v1/affiliates/me/metrics
func (h *Handler) MyMetrics(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.VendorMetrics(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}
