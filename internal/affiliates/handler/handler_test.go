package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"canna_portal_backend/internal/affiliates/repository"
	"canna_portal_backend/internal/affiliates/service"
	"canna_portal_backend/internal/events"
	"canna_portal_backend/platform/httpkit"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/validator"
)

// stubRepo knows one vendor. Methods the tests do not reach are left to
// the embedded nil interface.
type stubRepo struct {
	repository.Repository
	vendor repository.Vendor
	clicks int
}

func (s *stubRepo) GetActiveVendorByCode(_ context.Context, code string) (repository.Vendor, error) {
	if s.vendor.AffiliateCode == nil || *s.vendor.AffiliateCode != code {
		return repository.Vendor{}, repository.ErrNotFound
	}
	return s.vendor, nil
}

func (s *stubRepo) InsertClick(context.Context, repository.ClickParams) error {
	s.clicks++
	return nil
}

func newRouter(repo *stubRepo, userID uuid.UUID, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New("test")
	svc := service.New(repo, nil, events.NewInMemoryBus(log), service.Settings{DefaultRate: "0.10"}, log)
	h := New(svc, validator.New(), CookieSettings{
		Name:         "canna_aff_sid",
		SameSite:     http.SameSiteLaxMode,
		TTL:          time.Hour,
		RedirectPath: "/",
	})

	r := gin.New()
	r.NoRoute(h.Redirect)
	group := r.Group("/affiliates")
	group.Use(func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, userID)
		c.Set(httpkit.ContextRolesKey, roles)
		c.Next()
	})
	group.GET("/vendors/:id/metrics", h.VendorMetrics)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRedirectTracksKnownCode(t *testing.T) {
	code := "MARIAB7K2"
	repo := &stubRepo{vendor: repository.Vendor{ID: uuid.New(), AffiliateCode: &code, IsActive: true, IsExternalVendor: true}}
	r := newRouter(repo, uuid.New())

	rec := get(r, "/MARIAB7K2")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
	if repo.clicks != 1 {
		t.Fatalf("expected one click, got %d", repo.clicks)
	}

	var found bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "canna_aff_sid" && cookie.Value != "" && cookie.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected session cookie to be issued")
	}
}

func TestRedirectUnknownCodeStillRedirects(t *testing.T) {
	repo := &stubRepo{}
	r := newRouter(repo, uuid.New())

	rec := get(r, "/JOAOXX11")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if repo.clicks != 0 {
		t.Fatalf("unknown code must not record a click")
	}
}

func TestRedirectIgnoresNonCodes(t *testing.T) {
	r := newRouter(&stubRepo{}, uuid.New())

	for _, path := range []string{"/api", "/login", "/mariab7k2", "/MARIA/B7K2", "/AB"} {
		if rec := get(r, path); rec.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestVendorMetricsForbiddenForOtherUsers(t *testing.T) {
	r := newRouter(&stubRepo{}, uuid.New(), httpkit.RoleExternalVendor)

	rec := get(r, "/affiliates/vendors/"+uuid.NewString()+"/metrics")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
