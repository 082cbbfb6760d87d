package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/reviewcrew/backend/internal/models"
	"github.com/reviewcrew/backend/internal/services"
)

// WithdrawalLister reads withdrawal requests for the admin queue.
type WithdrawalLister interface {
	ListByStatus(ctx context.Context, status string) ([]*models.WithdrawalRequest, error)
}

// WithdrawalResolver settles pending withdrawal requests.
type WithdrawalResolver interface {
	ResolveWithdrawal(ctx context.Context, requestID uuid.UUID, decision, comment string) error
}

// WithdrawalHandler serves the admin withdrawal endpoints.
type WithdrawalHandler struct {
	Lister   WithdrawalLister
	Resolver WithdrawalResolver
	Logger   *slog.Logger
}

// List handles GET /api/v1/withdrawals?status=pending.
func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.WithdrawalPending
	}
	switch status {
	case models.WithdrawalPending, models.WithdrawalApproved, models.WithdrawalRejected, models.WithdrawalCompleted:
	default:
		http.Error(w, `{"error":"unknown status"}`, http.StatusBadRequest)
		return
	}

	list, err := h.Lister.ListByStatus(r.Context(), status)
	if err != nil {
		h.Logger.Error("list withdrawals", "status", status, "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type resolveRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

// Resolve handles POST /api/v1/withdrawals/{id}.
func (h *WithdrawalHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid withdrawal id"}`, http.StatusBadRequest)
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	switch req.Decision {
	case models.WithdrawalApproved, models.WithdrawalRejected, models.WithdrawalCompleted:
	default:
		http.Error(w, `{"error":"decision must be approved, rejected or completed"}`, http.StatusBadRequest)
		return
	}

	if err := h.Resolver.ResolveWithdrawal(r.Context(), id, req.Decision, req.Comment); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			http.Error(w, `{"error":"withdrawal not found"}`, http.StatusNotFound)
		case errors.Is(err, services.ErrAlreadyProcessed):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "withdrawal already resolved"})
		default:
			h.Logger.Error("resolve withdrawal", "withdrawal_id", id, "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"withdrawal_id": id.String(), "decision": req.Decision})
}
