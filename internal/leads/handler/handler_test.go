package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"canna_portal_backend/internal/events"
	"canna_portal_backend/internal/leads/domain"
	"canna_portal_backend/internal/leads/management"
	"canna_portal_backend/internal/leads/ports"
	"canna_portal_backend/internal/leads/repository"
	"canna_portal_backend/internal/leads/transport"
	"canna_portal_backend/platform/httpkit"
	"canna_portal_backend/platform/logger"
	"canna_portal_backend/platform/validator"
)

// stubRepo serves a single lead. Methods the tests do not reach are left
// to the embedded nil interface.
type stubRepo struct {
	repository.Repository
	lead    repository.Lead
	changed int
}

func (s *stubRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	if id != s.lead.ID {
		return repository.Lead{}, repository.ErrNotFound
	}
	return s.lead, nil
}

func (s *stubRepo) ChangeStatus(_ context.Context, params repository.StatusChangeParams) (repository.Lead, repository.HistoryEntry, error) {
	s.changed++
	s.lead.Status = params.NewStatus
	s.lead.Version++
	return s.lead, repository.HistoryEntry{LeadID: s.lead.ID, NewStatus: params.NewStatus}, nil
}

type stubStages struct{}

func (stubStages) Stages(context.Context) ([]ports.StageView, error) {
	return []ports.StageView{
		{StageRef: domain.StageRef{Slug: "novo", Name: "Novo", Position: 0, IsActive: true}},
		{StageRef: domain.StageRef{Slug: "receita_validada", Name: "Receita Validada", Position: 1, IsActive: true}},
		{StageRef: domain.StageRef{Slug: "finalizado", Name: "Finalizado", Position: 2, IsActive: true}},
	}, nil
}

type noDirectory struct{}

func (noDirectory) IsAssignable(context.Context, uuid.UUID) (bool, error) { return false, nil }

func newRouter(repo *stubRepo, roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New("test")
	svc := management.New(repo, stubStages{}, noDirectory{}, events.NewInMemoryBus(log), log)
	h := New(svc, validator.New())

	r := gin.New()
	group := r.Group("/leads")
	if roles != nil {
		group.Use(func(c *gin.Context) {
			c.Set(httpkit.ContextUserIDKey, uuid.New())
			c.Set(httpkit.ContextRolesKey, roles)
			c.Next()
		})
	}
	h.RegisterRoutes(group)
	return r
}

func patchStatus(r *gin.Engine, id, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/leads/"+id+"/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUpdateStatusRejectsInvalidID(t *testing.T) {
	r := newRouter(&stubRepo{}, httpkit.RoleConsultant)

	rec := patchStatus(r, "not-a-uuid", `{"status":"finalizado"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateStatusRequiresIdentity(t *testing.T) {
	r := newRouter(&stubRepo{})

	rec := patchStatus(r, uuid.NewString(), `{"status":"finalizado"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUpdateStatusRequiresStatus(t *testing.T) {
	repo := &stubRepo{lead: repository.Lead{ID: uuid.New(), Status: "novo", Version: 1}}
	r := newRouter(repo, httpkit.RoleConsultant)

	rec := patchStatus(r, repo.lead.ID.String(), `{"notes":"sem status"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateStatusBackwardMoveIsForbidden(t *testing.T) {
	repo := &stubRepo{lead: repository.Lead{ID: uuid.New(), Status: "finalizado", Version: 3}}
	r := newRouter(repo, httpkit.RoleConsultant)

	rec := patchStatus(r, repo.lead.ID.String(), `{"status":"novo"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Details struct {
			Code string `json:"code"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Details.Code != domain.CodeBackwardTransitionBlocked {
		t.Fatalf("expected code %s, got %q", domain.CodeBackwardTransitionBlocked, body.Details.Code)
	}
	if repo.changed != 0 {
		t.Fatalf("blocked move must not write")
	}
}

func TestUpdateStatusAdminMovesBackward(t *testing.T) {
	repo := &stubRepo{lead: repository.Lead{ID: uuid.New(), Status: "finalizado", Version: 3}}
	r := newRouter(repo, httpkit.RoleAdmin)

	rec := patchStatus(r, repo.lead.ID.String(), `{"status":"novo","notes":"reaberto"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.changed != 1 {
		t.Fatalf("expected one status write, got %d", repo.changed)
	}
}

func TestDeleteRequiresAdmin(t *testing.T) {
	r := newRouter(&stubRepo{}, httpkit.RoleConsultant)

	req := httptest.NewRequest(http.MethodDelete, "/leads/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestUpdateRejectsMalformedEmail(t *testing.T) {
	repo := &stubRepo{lead: repository.Lead{ID: uuid.New(), Status: "novo", Version: 1}}
	r := newRouter(repo, httpkit.RoleConsultant)

	req := httptest.NewRequest(http.MethodPatch, "/leads/"+repo.lead.ID.String(), strings.NewReader(`{"patientEmail":"maria.example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateEmailValidation(t *testing.T) {
	val := validator.New()
	blank, valid, bad := "", "maria@example.com", "maria@"

	if err := val.Struct(transport.UpdateLeadRequest{PatientEmail: &blank}); err != nil {
		t.Fatalf("blank email is dropped later and must pass: %v", err)
	}
	if err := val.Struct(transport.UpdateLeadRequest{PatientEmail: &valid}); err != nil {
		t.Fatalf("valid email rejected: %v", err)
	}
	if err := val.Struct(transport.UpdateLeadRequest{PatientEmail: &bad}); err == nil {
		t.Fatal("expected malformed email to fail")
	}
}
