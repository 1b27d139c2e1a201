// Package litedb is an embedded transactional document store with a
// fluent, index-driven, lazily-executed query surface.
//
// Documents are schemaless maps keyed by an _id primary key. Queries
// are composed with a fluent builder and run only when a terminal
// operation pulls the first result:
//
//	db, _ := litedb.Open()
//	users := db.Collection("users")
//	users.Insert(litedb.Document{"_id": 1, "name": "ada", "age": 36})
//	adults, _ := users.Query().WhereText("age >= 18").OrderBy("age", litedb.Ascending).All(ctx)
package litedb

import (
	"os"

	"github.com/kaan-kaya/litedb/internal/config"
	"github.com/kaan-kaya/litedb/internal/engine"
	"github.com/kaan-kaya/litedb/internal/logger"
	"github.com/kaan-kaya/litedb/internal/transaction"
)

// Document is a schemaless document. The primary key lives under "_id".
type Document = map[string]any

// Sort directions for OrderBy.
const (
	Ascending  = 1
	Descending = -1
)

// FieldID is the primary key field present on every stored document.
const FieldID = "_id"

// Option adjusts database configuration at Open.
type Option func(*openOptions)

type openOptions struct {
	cfg        *config.Config
	configPath string
}

// WithConfigFile layers a configuration file (and LITEDB_ environment
// variables) over the defaults.
func WithConfigFile(path string) Option {
	return func(o *openOptions) { o.configPath = path }
}

// WithCacheSize sets the decoded-document cache capacity.
func WithCacheSize(n int) Option {
	return func(o *openOptions) { o.cfg.Storage.CacheSize = n }
}

// WithPageSize sets the data page capacity in bytes.
func WithPageSize(n int) Option {
	return func(o *openOptions) { o.cfg.Storage.PageSize = n }
}

// WithSafepointInterval sets how many produced documents pass between
// cooperative yields during long scans.
func WithSafepointInterval(n int) Option {
	return func(o *openOptions) { o.cfg.Query.SafepointInterval = n }
}

// WithMaintenanceWorkers sets the background maintenance pool size.
func WithMaintenanceWorkers(n int) Option {
	return func(o *openOptions) { o.cfg.Maintenance.Workers = n }
}

// WithCompactionThreshold sets the per-index tombstone count that
// triggers background compaction.
func WithCompactionThreshold(n int) Option {
	return func(o *openOptions) { o.cfg.Maintenance.CompactionThreshold = n }
}

// WithLogLevel sets the log level (debug, info, warn, error).
func WithLogLevel(level string) Option {
	return func(o *openOptions) { o.cfg.Logging.Level = level }
}

// Database is one open database instance.
type Database struct {
	engine *engine.Engine
	log    *logger.Logger
}

// Open creates a database with the given options.
func Open(opts ...Option) (*Database, error) {
	o := &openOptions{cfg: config.Default()}
	for _, opt := range opts {
		opt(o)
	}
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		o.cfg = cfg
		// Explicit options override file values.
		for _, opt := range opts {
			opt(o)
		}
	}

	log := logger.New(os.Stderr, logger.ParseLevel(o.cfg.Logging.Level), "[litedb]")
	eng, err := engine.Open(o.cfg, log)
	if err != nil {
		return nil, err
	}
	return &Database{engine: eng, log: log}, nil
}

// Close shuts the database down.
func (db *Database) Close() error {
	return db.engine.Close()
}

// Collection returns a handle over the named collection. Collections
// come into existence on first write.
func (db *Database) Collection(name string) *Collection {
	return &Collection{db: db, name: name}
}

// CollectionNames lists the collections, sorted by name.
func (db *Database) CollectionNames() []string {
	return db.engine.CollectionNames()
}

// DropCollection removes a collection and its indexes.
func (db *Database) DropCollection(name string) error {
	return db.engine.DropCollection(name)
}

// Begin opens an explicit transaction. Queries and writes attached to
// it share its lifetime; Commit or Rollback releases whatever the
// transaction still holds.
func (db *Database) Begin() *Tx {
	return &Tx{tx: db.engine.Begin()}
}

// Tx is an explicit transaction.
type Tx struct {
	tx *transaction.Transaction
}

// Commit ends the transaction, releasing any snapshots it still holds.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction. Lazy sequences still attached to it
// stop at their next safepoint.
func (t *Tx) Rollback() error { return t.tx.Rollback() }
