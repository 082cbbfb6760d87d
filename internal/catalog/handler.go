package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/reviewcrew/backend/internal/repository"
)

type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		h.log.Error("create category", "error", err)
		http.Error(w, `{"error":"create category failed"}`, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListCategories(r.Context())
	if err != nil {
		h.log.Error("list categories", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid category id"}`, http.StatusBadRequest)
		return
	}
	c, err := h.svc.GetCategory(r.Context(), id)
	if err != nil {
		if repository.IsNoRows(err) {
			http.Error(w, `{"error":"category not found"}`, http.StatusNotFound)
			return
		}
		h.log.Error("get category", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid category id"}`, http.StatusBadRequest)
		return
	}
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if err := h.svc.UpdateCategory(r.Context(), id, req.Name, req.Description); err != nil {
		h.log.Error("update category", "error", err)
		http.Error(w, `{"error":"update category failed"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid category id"}`, http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteCategory(r.Context(), id); err != nil {
		if errors.Is(err, ErrCategoryNotEmpty) {
			http.Error(w, `{"error":"category still owns task items"}`, http.StatusConflict)
			return
		}
		h.log.Error("delete category", "error", err)
		http.Error(w, `{"error":"delete category failed"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createItemRequest struct {
	CategoryID string `json:"category_id"`
	PhotoRef   string `json:"photo_ref"`
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	catID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		http.Error(w, `{"error":"invalid category_id"}`, http.StatusBadRequest)
		return
	}
	it, err := h.svc.CreateItem(r.Context(), catID, req.PhotoRef)
	if err != nil {
		h.log.Error("create item", "error", err)
		http.Error(w, `{"error":"create item failed"}`, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	catID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid category id"}`, http.StatusBadRequest)
		return
	}
	list, err := h.svc.ListItems(r.Context(), catID)
	if err != nil {
		h.log.Error("list items", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid item id"}`, http.StatusBadRequest)
		return
	}
	if err := h.svc.DeleteItem(r.Context(), id); err != nil {
		h.log.Error("delete item", "error", err)
		http.Error(w, `{"error":"delete item failed"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
