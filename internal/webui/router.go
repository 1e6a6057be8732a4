package webui

import (
	"io/fs"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dstark/my/internal/metrics"
	"github.com/dstark/my/web"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	SessionManager *scs.SessionManager
	Handlers       *Handlers
	Middleware     *Middleware
	API            http.Handler
}

// NewRouter assembles the full chi router with all middleware and
// routes: the web UI data endpoints, the REST API, metrics, and the
// embedded static assets.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(deps.SessionManager.LoadAndSave)

	// Static assets (embedded). Use fs.Sub so the file server sees asset
	// paths directly, not static/... paths.
	staticSub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("failed to sub static FS: " + err.Error())
	}
	r.Handle("/static/*", http.StripPrefix("/static", http.FileServerFS(staticSub)))
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/static/index.html", http.StatusFound)
	})

	// Session endpoints (no session required).
	r.Post("/data/aaa/login", deps.Handlers.Login)
	r.Post("/data/aaa/logout", deps.Handlers.Logout)

	// Data endpoints behind a session.
	r.Group(func(r chi.Router) {
		r.Use(deps.Middleware.RequireSession)

		r.Get("/data/user_account", deps.Handlers.Account)
		r.Get("/data/web_ui_settings", deps.Handlers.Settings)
		r.Post("/data/web_ui_settings", deps.Handlers.SetSetting)

		r.Get("/data/api_clients", deps.Handlers.APIClients)
		r.Post("/data/api_clients", deps.Handlers.CreateAPIClient)
		r.Post("/data/api_clients/enabled", deps.Handlers.SetAPIClientEnabled)
		r.Get("/data/api_tokens", deps.Handlers.APITokens)
		r.Post("/data/api_tokens/enabled", deps.Handlers.SetAPITokenEnabled)
	})

	// API sub-router. Token authorized, no session involved.
	r.Mount("/api/v1", metrics.APIMiddleware(deps.API))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
