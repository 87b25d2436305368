package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joestump/joe-market/internal/api"
	"github.com/joestump/joe-market/internal/auth"
	"github.com/joestump/joe-market/internal/build"
	"github.com/joestump/joe-market/internal/chain"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	Chain      *chain.Chain
	TokenStore auth.TokenStore
	Log        chain.Logger
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", Health)
	r.Handle("/metrics", promhttp.Handler())

	apiRouter := api.NewAPIRouter(api.Deps{
		Chain:      deps.Chain,
		BearerAuth: auth.NewBearerTokenMiddleware(deps.TokenStore),
		TokenStore: deps.TokenStore,
		Log:        deps.Log,
	})
	r.Mount("/api/v1", apiRouter)

	return r
}

// Health reports that the process is up and which build it runs.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(build.String() + "\n"))
}
