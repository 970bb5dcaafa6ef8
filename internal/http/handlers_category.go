package http

import (
	"net/http"

	"expenseit/internal/core"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type categoryResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	DisplayOrder int    `json:"display_order"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:           c.ID,
		Name:         c.Name,
		Color:        c.Color,
		DisplayOrder: c.DisplayOrder,
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.repo.ListCategories(r.Context())
	if err != nil {
		writeStorageError(w, err)
		return
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cat, err := s.repo.CreateCategory(r.Context(), req.Name, req.Color)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(*cat))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	var req categoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.repo.UpdateCategory(r.Context(), id, req.Name, req.Color); err != nil {
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReorderCategories applies a full new ordering in one batch.
func (s *Server) handleReorderCategories(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "empty category order")
		return
	}
	if err := s.repo.ReorderCategories(r.Context(), req.IDs); err != nil {
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	if err := s.repo.DeleteCategory(r.Context(), id); err != nil {
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
