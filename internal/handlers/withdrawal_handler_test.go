package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/reviewcrew/backend/internal/models"
	"github.com/reviewcrew/backend/internal/services"
)

type mockLister struct {
	byStatus map[string][]*models.WithdrawalRequest
	asked    string
}

func (m *mockLister) ListByStatus(_ context.Context, status string) ([]*models.WithdrawalRequest, error) {
	m.asked = status
	return m.byStatus[status], nil
}

type mockResolver struct {
	err      error
	id       uuid.UUID
	decision string
	comment  string
	called   bool
}

func (m *mockResolver) ResolveWithdrawal(_ context.Context, id uuid.UUID, decision, comment string) error {
	if m.err != nil {
		return m.err
	}
	m.called = true
	m.id = id
	m.decision = decision
	m.comment = comment
	return nil
}

func newWithdrawalHandler(l *mockLister, r *mockResolver) *WithdrawalHandler {
	if l.byStatus == nil {
		l.byStatus = make(map[string][]*models.WithdrawalRequest)
	}
	return &WithdrawalHandler{Lister: l, Resolver: r, Logger: slog.Default()}
}

func resolveRequestFor(id, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals/"+id, strings.NewReader(body))
	req.SetPathValue("id", id)
	return req
}

// =====================================================================
// GET /api/v1/withdrawals
// =====================================================================

func TestListWithdrawals_DefaultsToPending(t *testing.T) {
	l := &mockLister{byStatus: map[string][]*models.WithdrawalRequest{
		models.WithdrawalPending: {{ID: uuid.New(), Amount: 100}},
	}}
	h := newWithdrawalHandler(l, &mockResolver{})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/withdrawals", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if l.asked != models.WithdrawalPending {
		t.Errorf("asked status %q", l.asked)
	}
	var got []*models.WithdrawalRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 request, got %d", len(got))
	}
}

func TestListWithdrawals_StatusFilter(t *testing.T) {
	l := &mockLister{}
	h := newWithdrawalHandler(l, &mockResolver{})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/withdrawals?status=rejected", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if l.asked != models.WithdrawalRejected {
		t.Errorf("asked status %q", l.asked)
	}
}

func TestListWithdrawals_UnknownStatus(t *testing.T) {
	h := newWithdrawalHandler(&mockLister{}, &mockResolver{})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/withdrawals?status=bogus", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

// =====================================================================
// POST /api/v1/withdrawals/{id}
// =====================================================================

func TestResolve(t *testing.T) {
	res := &mockResolver{}
	h := newWithdrawalHandler(&mockLister{}, res)
	id := uuid.New()

	rec := httptest.NewRecorder()
	h.Resolve(rec, resolveRequestFor(id.String(), `{"decision":"rejected","comment":"bad details"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !res.called || res.id != id || res.decision != models.WithdrawalRejected || res.comment != "bad details" {
		t.Errorf("resolver call: %+v", res)
	}
}

func TestResolve_BadInput(t *testing.T) {
	id := uuid.New().String()
	cases := []struct {
		name string
		id   string
		body string
	}{
		{"bad id", "not-a-uuid", `{"decision":"approved"}`},
		{"bad json", id, `{`},
		{"unknown decision", id, `{"decision":"pending"}`},
	}
	for _, tc := range cases {
		res := &mockResolver{}
		h := newWithdrawalHandler(&mockLister{}, res)
		rec := httptest.NewRecorder()
		h.Resolve(rec, resolveRequestFor(tc.id, tc.body))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, rec.Code)
		}
		if res.called {
			t.Errorf("%s: resolver should not be called", tc.name)
		}
	}
}

func TestResolve_ServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrAlreadyProcessed, http.StatusConflict},
	}
	for _, tc := range cases {
		h := newWithdrawalHandler(&mockLister{}, &mockResolver{err: tc.err})
		rec := httptest.NewRecorder()
		h.Resolve(rec, resolveRequestFor(uuid.New().String(), `{"decision":"approved"}`))
		if rec.Code != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}
