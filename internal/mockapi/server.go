// Package mockapi is a self-contained storefront backend used for local
// development and integration testing of the client. It speaks the same REST
// surface as the production backend, including its quirks: French order
// routes and the misspelled payment confirmation segment.
package mockapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	pkgerrors "github.com/avelinelabs/boutiq/pkg/errors"
	"github.com/avelinelabs/boutiq/pkg/logger"
)

type ctxClientKey struct{}

// Server is the mock storefront backend.
type Server struct {
	logg   *logger.Logger
	data   *dataStore
	router chi.Router
}

// NewServer builds the mock backend with seeded fixtures. The registry is
// optional; when present the /metrics endpoint exposes it.
func NewServer(logg *logger.Logger, registry *prometheus.Registry) (*Server, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &Server{
		logg: logg,
		data: newDataStore(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/clients/create", s.handleCreateClient)
		r.Get("/products/all", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Get("/code-promo/all", s.handleListPromos)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/auth/logout", s.handleLogout)
			r.Get("/clients/me", s.handleMe)
			r.Post("/commandes/create", s.handleCreateOrder)
			r.Post("/commandes/{id}/cancel", s.handleCancelOrder)
			r.Post("/payments/process", s.handleProcessPayment)
			// The deployed backend misspells this segment; serve both so a
			// corrected client keeps working.
			r.Post("/payments/{id}/comfirm", s.handleConfirmPayment)
			r.Post("/payments/{id}/confirm", s.handleConfirmPayment)
		})
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	s.router = r
	return s, nil
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requireAuth resolves the bearer token to a client record, rejecting the
// request with 401 when the token is missing or unknown.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(r.Context(), s.logg, w, pkgerrors.New(pkgerrors.CodeAuthExpired, "missing bearer token"))
			return
		}
		client, ok := s.data.clientForToken(token)
		if !ok {
			writeError(r.Context(), s.logg, w, pkgerrors.New(pkgerrors.CodeAuthExpired, "token is not valid"))
			return
		}
		ctx := context.WithValue(r.Context(), ctxClientKey{}, client)
		ctx = s.logg.WithUserID(ctx, client.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientFromContext(ctx context.Context) *clientRecord {
	client, _ := ctx.Value(ctxClientKey{}).(*clientRecord)
	return client
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
