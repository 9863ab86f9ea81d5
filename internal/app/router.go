package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/clubhouse/clubhouse/internal/auth"
	"github.com/clubhouse/clubhouse/internal/messages"
	"github.com/clubhouse/clubhouse/internal/observability"
	"github.com/clubhouse/clubhouse/internal/platform/httpx"
	"github.com/clubhouse/clubhouse/internal/shared"
	"github.com/clubhouse/clubhouse/internal/users"
	"github.com/clubhouse/clubhouse/jobs"
	"github.com/clubhouse/clubhouse/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	CSRFManager     *shared.CSRFManager
	UserFinder      users.Finder
	AuthHandler     *auth.Handler
	MessagesHandler *messages.Handler
	UsersHandler    *users.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
	RateLimit       int
}

// NewRouter constructs the chi.Router with the board's defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	// Pages get sessions, CSRF checks and the identity lookup; the routes
	// above stay cheap for probes and scrapers.
	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			Users:          params.UserFinder,
			Metrics:        params.Metrics,
			RateLimit:      params.RateLimit,
		}) {
			r.Use(mw)
		}
		r.Use(chimw.Logger)

		r.Get("/", params.MessagesHandler.ShowIndex)
		params.AuthHandler.MountRoutes(r)
		r.Route("/message", params.MessagesHandler.MountRoutes)
		r.Route("/membership", params.UsersHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
