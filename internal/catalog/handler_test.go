package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/reviewcrew/backend/internal/models"
)

type stubService struct {
	Service
	categories map[uuid.UUID]*models.TaskCategory
	updated    map[uuid.UUID]string
}

func newStubService() *stubService {
	return &stubService{
		categories: make(map[uuid.UUID]*models.TaskCategory),
		updated:    make(map[uuid.UUID]string),
	}
}

func (s *stubService) GetCategory(_ context.Context, id uuid.UUID) (*models.TaskCategory, error) {
	c, ok := s.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (s *stubService) UpdateCategory(_ context.Context, id uuid.UUID, name, _ string) error {
	s.updated[id] = name
	return nil
}

func categoryRequest(method, id, body string) *http.Request {
	req := httptest.NewRequest(method, "/api/v1/categories/"+id, strings.NewReader(body))
	req.SetPathValue("id", id)
	return req
}

func TestGetCategory(t *testing.T) {
	svc := newStubService()
	id := uuid.New()
	svc.categories[id] = &models.TaskCategory{ID: id, Name: "cafes"}
	h := NewHandler(svc, slog.Default())

	rec := httptest.NewRecorder()
	h.GetCategory(rec, categoryRequest(http.MethodGet, id.String(), ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "cafes") {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestGetCategory_NotFound(t *testing.T) {
	h := NewHandler(newStubService(), slog.Default())

	rec := httptest.NewRecorder()
	h.GetCategory(rec, categoryRequest(http.MethodGet, uuid.New().String(), ""))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateCategory(t *testing.T) {
	svc := newStubService()
	id := uuid.New()
	h := NewHandler(svc, slog.Default())

	rec := httptest.NewRecorder()
	h.UpdateCategory(rec, categoryRequest(http.MethodPut, id.String(), `{"name":"bars","description":"d"}`))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.updated[id] != "bars" {
		t.Errorf("updated: %v", svc.updated)
	}
}

func TestUpdateCategory_BadInput(t *testing.T) {
	svc := newStubService()
	h := NewHandler(svc, slog.Default())

	rec := httptest.NewRecorder()
	h.UpdateCategory(rec, categoryRequest(http.MethodPut, "not-a-uuid", `{"name":"x"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.UpdateCategory(rec, categoryRequest(http.MethodPut, uuid.New().String(), `{`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json: expected 400, got %d", rec.Code)
	}
	if len(svc.updated) != 0 {
		t.Error("service should not be called on bad input")
	}
}
