// Package api serves the brewerp JSON API under /api/v1
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/vsinha/brewerp/pkg/application/services"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
)

// Server routes HTTP requests to the application services
type Server struct {
	app    *services.App
	logger *zap.Logger
}

// NewServer creates a new API server
func NewServer(app *services.App, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{app: app, logger: logger.Named("http")}
}

// Handler returns the routed API
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.NotFound(notFoundRoute)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/healthz", s.healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.register)
		r.Post("/auth/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/auth/logout", s.logout)
			r.Get("/auth/me", s.me)
			r.Post("/auth/password", s.changePassword)

			s.mountTenancy(r)
			s.mountMaster(r)
			s.mountPurchasing(r)
			s.mountStock(r)
			s.mountReports(r)
		})
	})
	return r
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.app.Store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// accessLog logs one line per request
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		holder := &principalHolder{}
		r = r.WithContext(context.WithValue(r.Context(), principalKey{}, holder))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		fields := []zap.Field{
			zap.String("request_id", requestID(r)),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		}
		if holder.ok {
			fields = append(fields, zap.String("company_id", holder.p.CompanyID), zap.String("user_id", holder.p.UserID))
		}
		if ww.Status() >= http.StatusInternalServerError {
			s.logger.Warn("request", fields...)
			return
		}
		s.logger.Info("request", fields...)
	})
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}

type principalKey struct{}

// principalHolder is installed by accessLog and filled in by authenticate
type principalHolder struct {
	p  services.Principal
	ok bool
}

func principalFrom(ctx context.Context) (services.Principal, bool) {
	h, _ := ctx.Value(principalKey{}).(*principalHolder)
	if h == nil || !h.ok {
		return services.Principal{}, false
	}
	return h.p, true
}

// principal returns the authenticated caller; routes behind authenticate always have one
func principal(r *http.Request) services.Principal {
	p, _ := principalFrom(r.Context())
	return p
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// authenticate resolves the bearer token and stores the principal on the request
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="brewerp"`)
			s.writeError(w, r, apperror.ErrUnauthorized)
			return
		}
		p, err := s.app.Auth.Authenticate(r.Context(), token)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		holder, _ := r.Context().Value(principalKey{}).(*principalHolder)
		if holder == nil {
			holder = &principalHolder{}
			r = r.WithContext(context.WithValue(r.Context(), principalKey{}, holder))
		}
		holder.p, holder.ok = p, true
		next.ServeHTTP(w, r)
	})
}
