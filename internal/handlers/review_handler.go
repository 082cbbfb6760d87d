package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/reviewcrew/backend/internal/models"
	"github.com/reviewcrew/backend/internal/services"
)

// ReviewQueue is the subset of the assignment repository the review
// endpoints read from.
type ReviewQueue interface {
	ListByState(ctx context.Context, state string) ([]*models.TaskAssignment, error)
}

// Reviewer decides submitted screenshots.
type Reviewer interface {
	ReviewScreenshot(ctx context.Context, workerID int64, approve bool, comment string) error
}

// ReviewHandler serves the admin review endpoints.
type ReviewHandler struct {
	Queue    ReviewQueue
	Reviewer Reviewer
	Logger   *slog.Logger
}

// ListPending handles GET /api/v1/reviews.
func (h *ReviewHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	list, err := h.Queue.ListByState(r.Context(), models.AssignmentUnderReview)
	if err != nil {
		h.Logger.Error("list review queue", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type reviewRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

// Decide handles POST /api/v1/reviews/{workerID}.
func (h *ReviewHandler) Decide(w http.ResponseWriter, r *http.Request) {
	workerID, err := strconv.ParseInt(r.PathValue("workerID"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid worker id"}`, http.StatusBadRequest)
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	var approve bool
	switch req.Decision {
	case "approve":
		approve = true
	case "reject":
		if req.Comment == "" {
			http.Error(w, `{"error":"comment is required for rejection"}`, http.StatusBadRequest)
			return
		}
	default:
		http.Error(w, `{"error":"decision must be approve or reject"}`, http.StatusBadRequest)
		return
	}

	if err := h.Reviewer.ReviewScreenshot(r.Context(), workerID, approve, req.Comment); err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			http.Error(w, `{"error":"assignment not found"}`, http.StatusNotFound)
		case errors.Is(err, services.ErrInvalidState):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "assignment is not under review"})
		default:
			h.Logger.Error("review screenshot", "worker_id", workerID, "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"worker_id": strconv.FormatInt(workerID, 10), "decision": req.Decision})
}
