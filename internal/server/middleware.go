package server

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"

	"newsdesk/internal/auth"
)

// identify attaches the acting identity resolved from the Authorization
// header. Requests without a valid token carry auth.Anonymous.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := s.tokens.ResolveActingIdentity(r.Header.Get("Authorization"))
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

// recoverer turns a panic into a 500 response instead of dropping the
// connection.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := debug.Stack()
				s.logger.Error("Panic while serving request",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", stack))

				body := messageBody{Message: fmt.Sprint(rec)}
				if s.cfg.Production() {
					body.Message = "Internal Server Error"
				} else {
					body.Stack = string(stack)
				}
				writeJSON(w, http.StatusInternalServerError, body)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.logger.Info("Request",
		zap.String("method", p.Request.Method),
		zap.String("path", p.URL.Path),
		zap.Int("status", p.StatusCode),
		zap.Int("bytes", p.Size),
		zap.Duration("duration", time.Since(p.TimeStamp)))
}
