package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joestump/joe-market/internal/auth"
	"github.com/joestump/joe-market/internal/chain"
)

// Deps holds all dependencies required to build the API router.
type Deps struct {
	Chain      *chain.Chain
	BearerAuth *auth.BearerTokenMiddleware
	TokenStore auth.TokenStore
	Log        chain.Logger
}

// NewAPIRouter creates a chi sub-router for /api/v1.
// All routes require Bearer token authentication and return application/json.
// The authenticated address is the sender of every transaction.
func NewAPIRouter(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(jsonContentType)
	r.Use(deps.BearerAuth.Authenticate)

	log := deps.Log
	if log == nil {
		log = nopLogger{}
	}
	h := &chainHandler{chain: deps.Chain, log: log}

	registerAccountRoutes(r, h)
	registerTransactionRoutes(r, h)
	registerMarketplaceRoutes(r, h)
	registerProxyRoutes(r, h)
	registerStoreRoutes(r, h)
	registerTokenRoutes(r, deps.TokenStore)

	return r
}

// jsonContentType is a middleware that sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}
