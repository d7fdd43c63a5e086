// Package postgres implements store.Store on a single PostgreSQL JSONB table.
// Every logical table is a partition of the items table keyed by (tbl, pk).
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/tablefn/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db   *sql.DB
	keys map[string]string
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string, keys map[string]string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewWithDB(db, keys), nil
}

// NewWithDB wraps an already-migrated database handle.
func NewWithDB(db *sql.DB, keys map[string]string) *PostgresStore {
	if keys == nil {
		keys = map[string]string{}
	}
	return &PostgresStore{db: db, keys: keys}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Table returns a handle on the named logical table.
func (s *PostgresStore) Table(name string) store.Table {
	key := s.keys[name]
	if key == "" {
		key = "id"
	}
	return &table{db: s.db, name: name, key: key}
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

type table struct {
	db   executor
	name string
	key  string
}

var _ store.Table = (*table)(nil)

func (t *table) Name() string { return t.name }

func (t *table) Put(ctx context.Context, item store.Item) error {
	pk, ok := item[t.key].(string)
	if !ok || pk == "" {
		return fmt.Errorf("put %s: missing key attribute %q", t.name, t.key)
	}
	return queryPut(ctx, t.db, t.name, pk, item)
}

func (t *table) Get(ctx context.Context, key store.Key) (store.Item, error) {
	return queryGet(ctx, t.db, t.name, key.Value)
}

func (t *table) Update(ctx context.Context, key store.Key, path string, value any) (store.Item, error) {
	parts := store.SplitPath(path)
	if parts[0] == t.key {
		return nil, fmt.Errorf("update %s: cannot update key attribute %q", t.name, t.key)
	}
	return queryUpdate(ctx, t.db, t.name, key.Value, path, value)
}

func (t *table) Delete(ctx context.Context, key store.Key) (store.Item, error) {
	return queryDelete(ctx, t.db, t.name, key.Value)
}

func (t *table) Scan(ctx context.Context) ([]store.Item, error) {
	return queryScan(ctx, t.db, t.name)
}

func (t *table) Query(ctx context.Context, index store.Index, value string) ([]store.Item, error) {
	return queryByAttr(ctx, t.db, t.name, index.Attr, value)
}
