package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"newsdesk/internal/auth"
	"newsdesk/internal/config"
	"newsdesk/internal/model"
	"newsdesk/internal/store"
)

// Repositories are the resource stores the routers operate on.
type Repositories struct {
	Users      store.AccountStore
	Reporters  store.AccountStore
	Admins     store.AccountStore
	Categories store.CategoryStore
	News       store.NewsStore
}

// NewRepositories binds every repository to its store in the registry.
func NewRepositories(reg *store.Registry) (Repositories, error) {
	var repos Repositories
	var err error

	if repos.Users, err = store.NewAccountRepo(reg, model.RoleUser); err != nil {
		return repos, err
	}
	if repos.Reporters, err = store.NewAccountRepo(reg, model.RoleReporter); err != nil {
		return repos, err
	}
	if repos.Admins, err = store.NewAccountRepo(reg, model.RoleAdmin); err != nil {
		return repos, err
	}
	if repos.Categories, err = store.NewCategoryRepo(reg); err != nil {
		return repos, err
	}
	if repos.News, err = store.NewNewsRepo(reg); err != nil {
		return repos, err
	}
	return repos, nil
}

type Server struct {
	repos   Repositories
	hasher  *auth.Hasher
	tokens  *auth.Tokens
	cfg     *config.Config
	logger  *zap.Logger
	router  *mux.Router
	handler http.Handler
	server  *http.Server
	now     func() time.Time
}

func NewServer(cfg *config.Config, repos Repositories, logger *zap.Logger) *Server {
	s := &Server{
		repos:  repos,
		hasher: auth.NewHasher(cfg.Auth.BcryptCost),
		tokens: auth.NewTokens([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL),
		cfg:    cfg,
		logger: logger,
		router: mux.NewRouter(),
		now:    time.Now,
	}
	s.routes()
	s.handler = s.wrap(s.router)
	return s
}

func (s *Server) routes() {
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.handleNotFound)
	s.router.Use(s.identify)

	// Uploaded media
	s.router.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.cfg.Server.UploadsDir))))

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	s.mountAccounts(api.PathPrefix("/users").Subrouter(), newAccountRoutes(s.repos.Users, model.RoleUser, "User", "user"))
	s.mountAccounts(api.PathPrefix("/reporters").Subrouter(), newAccountRoutes(s.repos.Reporters, model.RoleReporter, "Reporter", "reporter"))
	s.mountAccounts(api.PathPrefix("/admins").Subrouter(), newAccountRoutes(s.repos.Admins, model.RoleAdmin, "Admin", "admin"))
	s.mountCategories(api.PathPrefix("/categories").Subrouter())
	s.mountNews(api.PathPrefix("/news").Subrouter())
}

// wrap applies the global middleware: panic recovery, CORS and one log line
// per request.
func (s *Server) wrap(h http.Handler) http.Handler {
	h = s.recoverer(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(h)
	return handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start launches the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr,
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	s.logger.Info("Web server listening", zap.String("addr", s.cfg.Server.Addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "Multi-store news API is running")
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "Route not found")
}
