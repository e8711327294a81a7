package server

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"newsdesk/internal/auth"
	"newsdesk/internal/model"
	"newsdesk/internal/store"
)

// accountRoutes are the CRUD handlers of one account role. noun and key
// shape the response envelopes ("User created successfully", {"user": ...}).
type accountRoutes struct {
	store store.AccountStore
	role  model.Role
	noun  string
	key   string
}

func newAccountRoutes(st store.AccountStore, role model.Role, noun, key string) accountRoutes {
	return accountRoutes{store: st, role: role, noun: noun, key: key}
}

type registerRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	ProfilePic string `json:"profilePic"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateAccountRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Password   *string `json:"password"`
	ProfilePic *string `json:"profilePic"`
}

func (s *Server) mountAccounts(r *mux.Router, h accountRoutes) {
	r.HandleFunc("/register", s.handleRegister(h)).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLogin(h)).Methods(http.MethodPost)
	r.HandleFunc("", s.handleListAccounts(h)).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleListAccounts(h)).Methods(http.MethodGet)
	r.HandleFunc("/{id}", s.handleGetAccount(h)).Methods(http.MethodGet)
	r.HandleFunc("/{id}", s.handleUpdateAccount(h)).Methods(http.MethodPut)
	r.HandleFunc("/{id}", s.handleDeleteAccount(h)).Methods(http.MethodDelete)
}

func (s *Server) handleRegister(h accountRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decode(w, r, &req, false); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" || req.Password == "" {
			writeMessage(w, http.StatusBadRequest, "Email and password are required")
			return
		}

		hash, err := s.hasher.Hash(req.Password)
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		acct := model.NewAccount(h.role, req.Name, req.Email, hash, req.ProfilePic, s.now())
		if err := h.store.Create(r.Context(), &acct); err != nil {
			if errors.Is(err, store.ErrConflict) {
				writeMessage(w, http.StatusBadRequest, h.noun+" already exists")
				return
			}
			s.serverError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"message": h.noun + " created successfully",
			h.key:     acct,
		})
	}
}

func (s *Server) handleLogin(h accountRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decode(w, r, &req, false); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if h.role == model.RoleAdmin && s.isBootstrapAdmin(req) {
			token, err := s.tokens.IssueBootstrapAdmin(s.cfg.Auth.AdminEmail)
			if err != nil {
				s.serverError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"message": "Login successful",
				"token":   token,
				h.key: map[string]interface{}{
					"id":    auth.BootstrapAdminID,
					"email": s.cfg.Auth.AdminEmail,
					"role":  model.RoleAdmin,
				},
			})
			return
		}

		acct, err := h.store.GetByEmail(r.Context(), req.Email)
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.hasher.VerifyMissing(req.Password)
			writeMessage(w, http.StatusBadRequest, "Invalid email or password")
			return
		case err != nil:
			s.serverError(w, r, err)
			return
		}

		if !s.hasher.Verify(req.Password, acct.PasswordHash) || acct.Role != h.role {
			writeMessage(w, http.StatusBadRequest, "Invalid email or password")
			return
		}

		token, err := s.tokens.Issue(*acct)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Login successful",
			"token":   token,
			h.key:     acct,
		})
	}
}

// isBootstrapAdmin reports whether req matches the configured admin
// credentials.
func (s *Server) isBootstrapAdmin(req loginRequest) bool {
	cfg := s.cfg.Auth
	if !cfg.BootstrapAdminEnabled() {
		return false
	}
	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(cfg.AdminEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(cfg.AdminPassword)) == 1
	return emailOK && passOK
}

func (s *Server) handleListAccounts(h accountRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := h.store.List(r.Context())
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, accounts)
	}
}

func (s *Server) handleGetAccount(h accountRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeMessage(w, http.StatusNotFound, h.noun+" not found")
			return
		}
		acct, err := h.store.GetByID(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, h.noun+" not found")
			return
		} else if err != nil {
			s.serverError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, acct)
	}
}

func (s *Server) handleUpdateAccount(h accountRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeMessage(w, http.StatusNotFound, h.noun+" not found")
			return
		}
		var req updateAccountRequest
		if err := decode(w, r, &req, false); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		patch := model.AccountPatch{
			Name:       req.Name,
			ProfilePic: req.ProfilePic,
		}
		if req.Email != nil {
			email := strings.TrimSpace(*req.Email)
			if email == "" {
				writeMessage(w, http.StatusBadRequest, "Email cannot be empty")
				return
			}
			patch.Email = &email
		}
		if req.Password != nil && *req.Password != "" {
			hash, err := s.hasher.Hash(*req.Password)
			if err != nil {
				s.serverError(w, r, err)
				return
			}
			patch.PasswordHash = &hash
		}

		acct, err := h.store.Update(r.Context(), id, patch)
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeMessage(w, http.StatusNotFound, h.noun+" not found")
			return
		case errors.Is(err, store.ErrConflict):
			writeMessage(w, http.StatusBadRequest, "Email already in use")
			return
		case err != nil:
			s.serverError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": h.noun + " updated successfully",
			h.key:     acct,
		})
	}
}

func (s *Server) handleDeleteAccount(h accountRoutes) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeMessage(w, http.StatusNotFound, h.noun+" not found")
			return
		}
		err := h.store.Delete(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, h.noun+" not found")
			return
		} else if err != nil {
			s.serverError(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, h.noun+" deleted successfully")
	}
}
