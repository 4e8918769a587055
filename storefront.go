// storefront.go
//
// Package storefront is the client-side core of the storefront application:
// the shopping-cart aggregate, the product synchronization coordinator, and
// the session state, wired to the remote REST service and to durable
// snapshots. Views, routing, and rendering live in the embedding application;
// this package owns the state they read.
package storefront

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/gateway"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/snapshot"
	"github.com/javajoker/storefront/internal/store"
)

// Snapshot keys. The product collection is deliberately not persisted; it is
// session-local and refetched from the service.
const (
	snapshotKeyCart    = "cart"
	snapshotKeySession = "session"
)

// App is the explicitly constructed dependency container: one instance owns
// the stores, the gateway, and the snapshot pipeline. Tests build isolated
// instances; nothing here is ambient or global.
type App struct {
	Cart     *store.CartStore
	Products *store.ProductStore
	Session  *store.SessionStore

	cfg       *config.Config
	log       *logrus.Logger
	gateway   *gateway.Client
	snapshots snapshot.Store
	writer    *snapshotWriter
}

// New wires an App from configuration. Call Restore before first use to seed
// persisted state.
func New(cfg *config.Config) (*App, error) {
	log := newLogger(cfg)

	snapshots, err := newSnapshotStore(cfg.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot store: %w", err)
	}

	app := &App{
		cfg:       cfg,
		log:       log,
		snapshots: snapshots,
		writer:    newSnapshotWriter(snapshots, log),
	}

	// The gateway reads the token and reports 401s through closures so the
	// session store can be constructed after it.
	app.gateway = gateway.New(
		cfg.API,
		func() string { return app.Session.Token() },
		func() { app.Session.Invalidate() },
		log,
	)

	app.Session = store.NewSessionStore(app.gateway, log)
	app.Cart = store.NewCartStore(log)
	app.Products = store.NewProductStore(app.gateway, log)

	// Persistence pipeline: state change -> projection -> durable write.
	// Writes are fire-and-forget and never fail the originating mutation;
	// the writer serializes them per key so an older projection can never
	// land after a newer one.
	app.Cart.OnChange(func(cart models.Cart) {
		app.writer.Enqueue(snapshotKeyCart, cart)
	})
	app.Session.OnChange(func(session store.Session) {
		app.writer.Enqueue(snapshotKeySession, session)
	})

	return app, nil
}

// Restore seeds the stores from durable snapshots. Absent or unreadable
// snapshots leave the defaults in place; a corrupt snapshot is not fatal.
func (a *App) Restore() {
	var cart models.Cart
	ok, err := a.snapshots.Load(snapshotKeyCart, &cart)
	if err != nil {
		a.log.WithError(err).Warn("failed to restore cart snapshot")
	} else if ok && cart.ID != "" {
		a.Cart.Seed(cart)
	}

	var session store.Session
	ok, err = a.snapshots.Load(snapshotKeySession, &session)
	if err != nil {
		a.log.WithError(err).Warn("failed to restore session snapshot")
	} else if ok {
		a.Session.Seed(session)
	}
}

// Logout ends the session and drops the seller-scoped catalog state.
func (a *App) Logout() {
	a.Session.Logout()
	a.Products.ClearAll()
}

// snapshotWriter serializes durable writes per key. Rapid mutations against
// the same key coalesce: only the newest pending projection is guaranteed to
// reach the store, and a stale projection can never overwrite a fresher one.
// Enqueue never blocks the caller.
type snapshotWriter struct {
	store snapshot.Store
	log   *logrus.Logger

	mu      sync.Mutex
	pending map[string]interface{}
	writing map[string]bool
}

func newSnapshotWriter(store snapshot.Store, log *logrus.Logger) *snapshotWriter {
	return &snapshotWriter{
		store:   store,
		log:     log,
		pending: make(map[string]interface{}),
		writing: make(map[string]bool),
	}
}

func (w *snapshotWriter) Enqueue(key string, v interface{}) {
	w.mu.Lock()
	w.pending[key] = v
	if w.writing[key] {
		w.mu.Unlock()
		return
	}
	w.writing[key] = true
	w.mu.Unlock()

	go w.drain(key)
}

func (w *snapshotWriter) drain(key string) {
	for {
		w.mu.Lock()
		v, ok := w.pending[key]
		if !ok {
			w.writing[key] = false
			w.mu.Unlock()
			return
		}
		delete(w.pending, key)
		w.mu.Unlock()

		if err := w.store.Save(key, v); err != nil {
			w.log.WithError(err).WithField("key", key).Warn("snapshot write failed")
		}
	}
}

func newSnapshotStore(cfg config.SnapshotConfig) (snapshot.Store, error) {
	if cfg.Backend == "s3" {
		return snapshot.NewS3Store(cfg)
	}
	return snapshot.NewFileStore(cfg.Dir)
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}
	if cfg.Environment == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
