package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"newsdesk/internal/model"
	"newsdesk/internal/store"
)

type categoryRequest struct {
	Name string `json:"categoryName"`
}

func (s *Server) mountCategories(r *mux.Router) {
	r.HandleFunc("", s.handleCreateCategory).Methods(http.MethodPost)
	r.HandleFunc("/", s.handleCreateCategory).Methods(http.MethodPost)
	r.HandleFunc("", s.handleListCategories).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleListCategories).Methods(http.MethodGet)
	r.HandleFunc("/{id}", s.handleGetCategory).Methods(http.MethodGet)
	r.HandleFunc("/{id}", s.handleUpdateCategory).Methods(http.MethodPut)
	r.HandleFunc("/{id}", s.handleDeleteCategory).Methods(http.MethodDelete)
}

// readCategoryName decodes the body and returns the trimmed category name,
// answering 400 itself when it is missing.
func readCategoryName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req categoryRequest
	if err := decode(w, r, &req, false); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeMessage(w, http.StatusBadRequest, "Category name is required")
		return "", false
	}
	return name, true
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	name, ok := readCategoryName(w, r)
	if !ok {
		return
	}

	c := model.NewCategory(name, s.now())
	if err := s.repos.Categories.Create(r.Context(), &c); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeMessage(w, http.StatusBadRequest, "Category already exists")
			return
		}
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Category created successfully",
		"category": c,
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repos.Categories.List(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, "Category not found")
		return
	}
	c, err := s.repos.Categories.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Category not found")
		return
	} else if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, "Category not found")
		return
	}
	name, ok := readCategoryName(w, r)
	if !ok {
		return
	}

	c, err := s.repos.Categories.Rename(r.Context(), id, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Category not found")
		return
	case errors.Is(err, store.ErrConflict):
		writeMessage(w, http.StatusBadRequest, "Category already exists")
		return
	case err != nil:
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Category updated successfully",
		"category": c,
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, "Category not found")
		return
	}
	err := s.repos.Categories.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Category not found")
		return
	} else if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Category deleted successfully")
}
