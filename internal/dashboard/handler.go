package dashboard

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/reviewcrew/backend/internal/models"
	"github.com/reviewcrew/backend/internal/repository"
	"github.com/reviewcrew/backend/internal/services"
)

// Handler serves the admin dashboard reads: workers, wallet history, queue
// sizes and the editable content texts.
type Handler struct {
	workerR     *repository.WorkerRepo
	entryR      *repository.EntryRepo
	assignmentR *repository.AssignmentRepo
	withdrawalR *repository.WithdrawalRepo
	contents    *services.Contents
	log         *slog.Logger
}

func NewHandler(
	workerR *repository.WorkerRepo,
	entryR *repository.EntryRepo,
	assignmentR *repository.AssignmentRepo,
	withdrawalR *repository.WithdrawalRepo,
	contents *services.Contents,
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		workerR:     workerR,
		entryR:      entryR,
		assignmentR: assignmentR,
		withdrawalR: withdrawalR,
		contents:    contents,
		log:         log,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statsResponse struct {
	UnderReview        int `json:"under_review"`
	PendingWithdrawals int `json:"pending_withdrawals"`
}

// GET /api/v1/stats
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	underReview, err := h.assignmentR.CountByState(r.Context(), models.AssignmentUnderReview)
	if err != nil {
		h.log.Error("count under review", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	pending, err := h.withdrawalR.ListByStatus(r.Context(), models.WithdrawalPending)
	if err != nil {
		h.log.Error("list pending withdrawals", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{UnderReview: underReview, PendingWithdrawals: len(pending)})
}

// GET /api/v1/workers
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	list, err := h.workerR.List(r.Context())
	if err != nil {
		h.log.Error("list workers", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type workerResponse struct {
	*models.Worker
	PendingReservations int64 `json:"pending_reservations"`
}

// GET /api/v1/workers/{id}
func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid worker id"}`, http.StatusBadRequest)
		return
	}
	worker, err := h.workerR.GetByID(r.Context(), id)
	if err != nil {
		if repository.IsNoRows(err) {
			http.Error(w, `{"error":"worker not found"}`, http.StatusNotFound)
			return
		}
		h.log.Error("get worker", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	pending, err := h.withdrawalR.PendingSumRead(r.Context(), id)
	if err != nil {
		h.log.Error("pending sum", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, workerResponse{Worker: worker, PendingReservations: pending})
}

// GET /api/v1/workers/{id}/entries
func (h *Handler) ListWorkerEntries(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid worker id"}`, http.StatusBadRequest)
		return
	}
	entries, err := h.entryR.ListByWorker(r.Context(), id)
	if err != nil {
		h.log.Error("list wallet entries", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GET /api/v1/contents
func (h *Handler) ListContents(w http.ResponseWriter, r *http.Request) {
	list, err := h.contents.List(r.Context())
	if err != nil {
		h.log.Error("list contents", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type updateContentRequest struct {
	Body string `json:"body"`
}

// PUT /api/v1/contents/{key}
func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		http.Error(w, `{"error":"missing content key"}`, http.StatusBadRequest)
		return
	}
	var req updateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if err := h.contents.Upsert(r.Context(), key, req.Body); err != nil {
		h.log.Error("update content", "error", err)
		http.Error(w, `{"error":"update content failed"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
