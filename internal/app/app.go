package app

import (
	"context"

	"github.com/avelinelabs/boutiq/internal/cart"
	"github.com/avelinelabs/boutiq/internal/catalog"
	"github.com/avelinelabs/boutiq/internal/checkout"
	"github.com/avelinelabs/boutiq/internal/gateway"
	"github.com/avelinelabs/boutiq/internal/promo"
	"github.com/avelinelabs/boutiq/internal/session"
	"github.com/avelinelabs/boutiq/internal/statestore"
	"github.com/avelinelabs/boutiq/pkg/config"
	"github.com/avelinelabs/boutiq/pkg/logger"
	"github.com/avelinelabs/boutiq/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// App is the explicit application context: it owns construction and teardown
// of the state containers and their collaborators, replacing the ambient
// globals a UI framework would otherwise provide.
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *prometheus.Registry

	Store    statestore.Store
	Gateway  *gateway.Client
	Session  *session.Manager
	Cart     *cart.Manager
	Catalog  *catalog.Service
	Promo    *promo.Service
	Checkout *checkout.Coordinator
}

// New wires the full dependency graph. The session manager is built before
// the gateway because the gateway reads its bearer token from the session,
// and the gateway's auth-expired hook points back at the session's clear.
func New(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*App, error) {
	store, err := statestore.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	sess, err := session.NewManager(store, logg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	gw, err := gateway.NewClient(gateway.Params{
		Config:  cfg.API,
		Tokens:  sess,
		Logger:  logg,
		Metrics: metrics.NewGatewayMetrics(registry),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	sess.AttachBackend(gw)
	gw.SetAuthExpiredHook(sess.HandleAuthExpired)

	cartMgr, err := cart.NewManager(store, logg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	catalogSvc, err := catalog.NewService(gw, logg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	promoSvc, err := promo.NewService(gw, logg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	coordinator, err := checkout.NewCoordinator(cartMgr, gw, logg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &App{
		Config:   cfg,
		Logger:   logg,
		Registry: registry,
		Store:    store,
		Gateway:  gw,
		Session:  sess,
		Cart:     cartMgr,
		Catalog:  catalogSvc,
		Promo:    promoSvc,
		Checkout: coordinator,
	}, nil
}

// Start restores persisted state: the cart snapshot, then the session in its
// two phases. A reconciliation failure that is not an authorization error
// keeps the optimistic session and is only logged.
func (a *App) Start(ctx context.Context) {
	a.Cart.Restore(ctx)

	if a.Session.RestoreOptimistic(ctx) == session.PhaseAnonymous {
		return
	}
	if err := a.Session.Reconcile(ctx); err != nil {
		a.Logger.Warn(a.Logger.WithField(ctx, "error", err.Error()), "session reconciliation deferred")
	}
}

// Close tears down the container, combining teardown failures.
func (a *App) Close() error {
	var errs error
	if a.Store != nil {
		errs = multierr.Append(errs, a.Store.Close())
	}
	return errs
}
