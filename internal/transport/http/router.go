package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"marketing-quiz-service/internal/app"
	"marketing-quiz-service/internal/metrics"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Service        *app.QuizService
	Metrics        *metrics.Metrics
	Log            *zap.Logger
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter mounts health, metrics, REST and websocket routes.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	origins := newOriginPolicy(cfg.AllowedOrigins)
	ws := NewWSHandler(cfg.Service, cfg.Metrics, origins, cfg.Log)
	api := NewAPIHandler(cfg.Service, cfg.Log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/healthz", api.Health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimitRPS > 0 {
			r.Use(NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).Middleware)
		}
		r.Use(middleware.Timeout(15 * time.Second))
		r.Get("/api/quiz", api.Quiz)
		r.Get("/api/leaderboard", api.Leaderboard)
		r.Get("/api/sessions/{id}/certificate.png", api.SessionCertificate)
		r.Get("/api/results/{roll}/certificate.png", api.StoredCertificate)
	})

	r.Get("/ws/session", ws.ServeSession)
	r.Get("/ws/leaderboard", ws.ServeLeaderboard)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
	})
	return c.Handler(r)
}

type originPolicy struct {
	any     bool
	allowed map[string]struct{}
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		if o == "*" {
			p.any = true
		}
		p.allowed[o] = struct{}{}
	}
	return p
}

// check is the websocket upgrader's origin test. Requests without an Origin
// header (non-browser clients) are accepted.
func (p originPolicy) check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || p.any {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}
