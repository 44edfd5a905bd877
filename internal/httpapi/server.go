// Package httpapi exposes the chat service over HTTP: the JSON API, the
// server-sent event stream, the login pages and the operational endpoints.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"expertchat/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Models() types.ModelsResponse
	Select(ctx context.Context, id string) (types.Expert, error)
	Chat(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error)
	Stream(ctx context.Context, req types.ChatRequest, emit func(types.StreamEvent) error) error
	Health() types.HealthResponse
	Ready() bool
}

type handlers struct {
	svc  Service
	opts Options
}

// NewMux builds the router. With a path prefix every route lives under it
// and the bare root answers 404.
func NewMux(svc Service, opts Options) http.Handler {
	if opts.BaseContext == nil {
		opts.BaseContext = context.Background()
	}
	h := &handlers{svc: svc, opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(accessLog(opts.Logger))
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if opts.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORS.Origins,
			AllowedMethods:   opts.CORS.Methods,
			AllowedHeaders:   opts.CORS.Headers,
			AllowCredentials: true,
		}))
	}

	routes := func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.Gate != nil {
				r.Use(opts.Gate.Require)
			}
			r.Get("/", h.index)
			r.Get("/api/models", h.models)
			r.Post("/api/model/select", h.selectModel)
			r.Post("/api/chat", h.chat)
			r.Post("/api/chat/stream", h.chatStream)
		})

		r.Get("/api/health", h.health)
		r.Get("/login", h.loginForm)
		r.Post("/login", h.login)
		r.Get("/logout", h.logout)

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})
		r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
			if svc.Ready() {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ready"))
				return
			}
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("loading"))
		})
		r.Get("/metrics", promhttp.Handler().ServeHTTP)
		MountSwagger(r)
	}

	if opts.PathPrefix == "" {
		routes(r)
	} else {
		r.Route(opts.PathPrefix, routes)
	}
	return r
}
