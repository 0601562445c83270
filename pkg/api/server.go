// Package api exposes the library over HTTP for remote readers.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kerbaras/mangaread/pkg/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

const defaultRequestTimeout = 30 * time.Second

type Server struct {
	logger  zerolog.Logger
	library *services.Library
	// tokens maps bearer tokens to user ids. When empty every request is
	// made as the library's own user.
	tokens map[string]string
}

func NewServer(logger zerolog.Logger, library *services.Library, tokens map[string]string) *Server {
	return &Server{logger: logger, library: library, tokens: tokens}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			NewLibraryHandler(s.library).Routes(r)
			NewProgressHandler(s.library).Routes(r)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userKey struct{}

// authenticate resolves the bearer token to a user.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := s.library.UserID()
		if len(s.tokens) > 0 {
			token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			known, ok := s.tokens[strings.TrimSpace(token)]
			if !found || !ok {
				writeError(w, http.StatusUnauthorized, "missing or invalid token")
				return
			}
			user = known
		}
		hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("user", user)
		})
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

func userFrom(ctx context.Context) string {
	user, _ := ctx.Value(userKey{}).(string)
	return user
}

func accessLogFn(r *http.Request, status, size int, duration time.Duration) {
	logger := hlog.FromRequest(r)
	logger.Info().
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("http")
}
