// Package bootstrap builds the process-wide collaborators (logger, store,
// event publisher, and handlers) once per process from a config.Config.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/alfredjeanlab/tablefn/internal/config"
	"github.com/alfredjeanlab/tablefn/internal/credential"
	"github.com/alfredjeanlab/tablefn/internal/crud"
	"github.com/alfredjeanlab/tablefn/internal/events"
	"github.com/alfredjeanlab/tablefn/internal/export"
	"github.com/alfredjeanlab/tablefn/internal/handlers"
	"github.com/alfredjeanlab/tablefn/internal/model"
	"github.com/alfredjeanlab/tablefn/internal/store"
	"github.com/alfredjeanlab/tablefn/internal/store/dynamo"
	"github.com/alfredjeanlab/tablefn/internal/store/memory"
	"github.com/alfredjeanlab/tablefn/internal/store/postgres"
)

// NewLogger returns a slog logger writing to w. format is "json" or "text";
// when empty, fallback is used.
func NewLogger(w io.Writer, level, format, fallback string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	if format == "" {
		format = fallback
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// KeyAttrs maps each configured table to its primary key attribute.
func KeyAttrs(t config.Tables) map[string]string {
	return map[string]string{
		t.Accounts:      model.AccountID,
		t.Notifications: model.NotificationID,
		t.Orders:        model.OrderID,
	}
}

// HandlerTables converts the configured names for the handlers package.
func HandlerTables(t config.Tables) handlers.Tables {
	return handlers.Tables{
		Accounts:        t.Accounts,
		Notifications:   t.Notifications,
		Orders:          t.Orders,
		LoginIndex:      t.LoginIndex,
		OrdersUserIndex: t.UserIndex,
	}
}

// OpenStore connects the configured backend.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	keys := KeyAttrs(cfg.Tables)
	switch cfg.Backend {
	case config.BackendDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg.Region, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		return dynamo.New(client, keys), nil
	case config.BackendPostgres:
		return postgres.New(cfg.DatabaseURL, keys)
	case config.BackendMemory:
		return memory.New(keys), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// OpenPublisher connects to NATS when configured and otherwise returns a
// no-op publisher. name identifies the connection on the server.
func OpenPublisher(cfg *config.Config, name string, logger *slog.Logger) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		logger.Debug("events disabled (TABLEFN_NATS_URL not set)")
		return &events.NoopPublisher{}, nil
	}
	pub, err := events.NewNATSPublisher(cfg.NATSURL, name)
	if err != nil {
		return nil, err
	}
	logger.Info("events enabled", "nats_url", cfg.NATSURL)
	return pub, nil
}

// App holds everything a process needs to serve requests.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     store.Store
	Publisher events.Publisher

	handlers map[string]*crud.Handler
}

// New opens the store and publisher and builds every domain handler.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, name string) (*App, error) {
	hasher, err := credential.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	st, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	pub, err := OpenPublisher(cfg, name, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	return NewWith(cfg, logger, st, pub, hasher), nil
}

// NewWith builds an App over already-open collaborators.
func NewWith(cfg *config.Config, logger *slog.Logger, st store.Store, pub events.Publisher, hasher *credential.Hasher) *App {
	deps := handlers.Deps{
		Store:     st,
		Tables:    HandlerTables(cfg.Tables),
		Publisher: pub,
		Hasher:    hasher,
		Logger:    logger,
	}
	a := &App{
		Config:    cfg,
		Logger:    logger,
		Store:     st,
		Publisher: pub,
		handlers:  make(map[string]*crud.Handler, len(handlers.Domains)),
	}
	for _, h := range handlers.All(deps) {
		a.handlers[h.Domain()] = h
	}
	return a
}

// Handler returns the handler for domain, or nil.
func (a *App) Handler(domain string) *crud.Handler {
	return a.handlers[domain]
}

// Handlers returns every handler in handlers.Domains order.
func (a *App) Handlers() []*crud.Handler {
	out := make([]*crud.Handler, 0, len(handlers.Domains))
	for _, d := range handlers.Domains {
		out = append(out, a.handlers[d])
	}
	return out
}

// Targets lists the configured tables for export.
func (a *App) Targets() []export.Target {
	t := a.Config.Tables
	keys := KeyAttrs(t)
	return []export.Target{
		{Table: t.Accounts, Key: keys[t.Accounts]},
		{Table: t.Notifications, Key: keys[t.Notifications]},
		{Table: t.Orders, Key: keys[t.Orders]},
	}
}

// Target returns the export target backing domain.
func (a *App) Target(domain string) (export.Target, bool) {
	i := slices.Index(handlers.Domains, domain)
	if i < 0 {
		return export.Target{}, false
	}
	return a.Targets()[i], true
}

// Close releases the publisher and the store.
func (a *App) Close() error {
	return errors.Join(a.Publisher.Close(), a.Store.Close())
}
