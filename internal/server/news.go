package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"newsdesk/internal/auth"
	"newsdesk/internal/model"
	"newsdesk/internal/store"
)

type publishRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	PictureURL    string `json:"pictureUrl"`
	Category      string `json:"category"`
	ReporterEmail string `json:"reporterEmail"`
}

type updateNewsRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	PictureURL    *string `json:"pictureUrl"`
	Category      *string `json:"category"`
	ReporterEmail string  `json:"reporterEmail"`
}

type commentRequest struct {
	Name    string `json:"commenterName"`
	Email   string `json:"commenterEmail"`
	Content string `json:"content"`
}

type replyRequest struct {
	Name    string `json:"replierName"`
	Email   string `json:"replierEmail"`
	Content string `json:"content"`
}

func (s *Server) mountNews(r *mux.Router) {
	r.HandleFunc("/publish", s.handlePublish).Methods(http.MethodPost)
	r.HandleFunc("", s.handleListNews).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleListNews).Methods(http.MethodGet)
	r.HandleFunc("/by-reporter/{email}", s.handleNewsByReporter).Methods(http.MethodGet)
	r.HandleFunc("/by-category/{category}", s.handleNewsByCategory).Methods(http.MethodGet)
	r.HandleFunc("/{id}", s.handleGetNews).Methods(http.MethodGet)
	r.HandleFunc("/{id}", s.handleUpdateNews).Methods(http.MethodPut)
	r.HandleFunc("/{id}", s.handleDeleteNews).Methods(http.MethodDelete)
	r.HandleFunc("/{id}/comments", s.handleListComments).Methods(http.MethodGet)
	r.HandleFunc("/{id}/comments", s.handleAddComment).Methods(http.MethodPost)
	r.HandleFunc("/{id}/comments/{commentId}/replies", s.handleAddReply).Methods(http.MethodPost)
}

// actingEmail picks the author identity for a news mutation: the email of a
// verified reporter token, else the one supplied in the body.
func actingEmail(r *http.Request, bodyEmail string) string {
	if id := auth.FromContext(r.Context()); id.Is(model.RoleReporter) {
		return id.Email
	}
	return strings.TrimSpace(bodyEmail)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := decode(w, r, &req, false); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	author := actingEmail(r, req.ReporterEmail)
	if author == "" {
		writeMessage(w, http.StatusBadRequest, "Reporter email required")
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		writeMessage(w, http.StatusBadRequest, "Title and description are required")
		return
	}

	a := model.NewArticle(req.Title, req.Description, req.PictureURL, strings.TrimSpace(req.Category), author, s.now())
	if err := s.repos.News.Create(r.Context(), &a); err != nil {
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "News published successfully",
		"news":    a,
	})
}

func (s *Server) handleUpdateNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, "News not found or unauthorized")
		return
	}
	var req updateNewsRequest
	if err := decode(w, r, &req, false); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	patch := model.ArticlePatch{
		Title:       req.Title,
		Description: req.Description,
		PictureURL:  req.PictureURL,
		Category:    req.Category,
	}
	author := actingEmail(r, req.ReporterEmail)
	if author == "" {
		writeMessage(w, http.StatusBadRequest, "Reporter email required")
		return
	}
	a, err := s.repos.News.UpdateOwned(r.Context(), id, author, patch)
	if errors.Is(err, store.ErrNotFoundOrUnauthorized) {
		writeMessage(w, http.StatusNotFound, "News not found or unauthorized")
		return
	} else if err != nil {
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "News updated successfully",
		"news":    a,
	})
}

func (s *Server) handleDeleteNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, "News not found or unauthorized")
		return
	}
	var req struct {
		ReporterEmail string `json:"reporterEmail"`
	}
	if err := decode(w, r, &req, true); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ReporterEmail == "" {
		req.ReporterEmail = r.URL.Query().Get("reporterEmail")
	}

	author := actingEmail(r, req.ReporterEmail)
	if author == "" {
		writeMessage(w, http.StatusBadRequest, "Reporter email required")
		return
	}
	err := s.repos.News.DeleteOwned(r.Context(), id, author)
	if errors.Is(err, store.ErrNotFoundOrUnauthorized) {
		writeMessage(w, http.StatusNotFound, "News not found or unauthorized")
		return
	} else if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "News deleted successfully")
}

func (s *Server) handleListNews(w http.ResponseWriter, r *http.Request) {
	news, err := s.repos.News.List(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": len(news),
		"news":  news,
	})
}

func (s *Server) handleNewsByReporter(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	news, err := s.repos.News.ListByReporter(r.Context(), email)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reporterEmail": email,
		"total":         len(news),
		"news":          news,
	})
}

func (s *Server) handleNewsByCategory(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	news, err := s.repos.News.ListByCategory(r.Context(), category)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"category": category,
		"total":    len(news),
		"news":     news,
	})
}

func (s *Server) handleGetNews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, "News not found")
		return
	}
	a, err := s.repos.News.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "News not found")
		return
	} else if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, "News not found")
		return
	}
	a, err := s.repos.News.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "News not found")
		return
	} else if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalComments": len(a.Comments),
		"comments":      a.Comments,
	})
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, "News not found")
		return
	}
	var req commentRequest
	if err := decode(w, r, &req, false); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeMessage(w, http.StatusBadRequest, "Comment content is required")
		return
	}

	c := model.NewComment(req.Name, req.Email, req.Content, s.now())
	comments, err := s.repos.News.AddComment(r.Context(), id, c)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "News not found")
		return
	} else if err != nil {
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":  "Comment added",
		"comments": comments,
	})
}

func (s *Server) handleAddReply(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeMessage(w, http.StatusNotFound, "News not found")
		return
	}
	commentID, ok := pathID(r, "commentId")
	if !ok {
		writeMessage(w, http.StatusNotFound, "Comment not found")
		return
	}
	var req replyRequest
	if err := decode(w, r, &req, false); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeMessage(w, http.StatusBadRequest, "Reply content is required")
		return
	}

	reply := model.Reply{
		ReplierName:  req.Name,
		ReplierEmail: req.Email,
		Content:      req.Content,
		CreatedAt:    s.now(),
	}
	c, err := s.repos.News.AddReply(r.Context(), id, commentID, reply)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "News not found")
		return
	case errors.Is(err, store.ErrCommentNotFound):
		writeMessage(w, http.StatusNotFound, "Comment not found")
		return
	case err != nil:
		s.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Reply added",
		"replies": c.Replies,
	})
}
