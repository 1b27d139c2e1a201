// Package engine wires storage, indexes, transactions, and the query
// pipeline into one embedded database instance.
package engine

import (
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kaan-kaya/litedb/internal/analyzer"
	"github.com/kaan-kaya/litedb/internal/bson"
	"github.com/kaan-kaya/litedb/internal/config"
	"github.com/kaan-kaya/litedb/internal/errors"
	"github.com/kaan-kaya/litedb/internal/expr"
	"github.com/kaan-kaya/litedb/internal/index"
	"github.com/kaan-kaya/litedb/internal/logger"
	"github.com/kaan-kaya/litedb/internal/maintenance"
	"github.com/kaan-kaya/litedb/internal/pipe"
	"github.com/kaan-kaya/litedb/internal/query"
	"github.com/kaan-kaya/litedb/internal/storage"
	"github.com/kaan-kaya/litedb/internal/transaction"
)

// Engine is one database instance. It owns the document store, the
// per-collection index sets, the transaction monitor, and the query
// collaborators shared by every builder.
//
// Thread safety: all public methods are safe for concurrent use.
// Collection-level locking is handled by snapshots; the engine mutex
// only guards the collection registry and the closed flag.
type Engine struct {
	mu          sync.RWMutex
	cfg         *config.Config
	log         *logger.Logger
	store       *storage.Store
	loader      *storage.Loader
	monitor     *transaction.Monitor
	analyzer    *analyzer.Analyzer
	pipe        *pipe.Pipe
	maint       *maintenance.Pool
	tracker     *errors.Tracker
	collections map[string]*index.Collection
	closed      bool
}

// Open creates an engine from the configuration. A nil config uses the
// defaults.
func Open(cfg *config.Config, log *logger.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.Default()
	}

	store := storage.NewStore(cfg.Storage.PageSize)
	loader, err := storage.NewLoader(store, cfg.Storage.CacheSize)
	if err != nil {
		return nil, err
	}
	maint, err := maintenance.NewPool(cfg.Maintenance.Workers, cfg.Maintenance.CompactionThreshold, log)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:         cfg,
		log:         log,
		store:       store,
		loader:      loader,
		analyzer:    analyzer.New(log),
		maint:       maint,
		tracker:     errors.NewTracker(),
		collections: make(map[string]*index.Collection),
	}
	e.monitor = transaction.NewMonitor(e, cfg.Query.SafepointInterval, log)
	e.pipe = pipe.New(e, cfg.Query.MaxIncludeDepth, log)

	log.Info("engine opened (page size %d, cache %d, %d maintenance workers)",
		cfg.Storage.PageSize, cfg.Storage.CacheSize, cfg.Maintenance.Workers)
	return e, nil
}

// Close shuts the engine down. Running maintenance jobs finish; every
// call after the first is a no-op.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.maint.Stop()
	e.log.Info("engine closed")
	return nil
}

func (e *Engine) checkOpen() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return errors.ErrEngineClosed
	}
	return nil
}

// Tracker returns the engine's error tracker.
func (e *Engine) Tracker() *errors.Tracker { return e.tracker }

// Monitor returns the transaction monitor.
func (e *Engine) Monitor() *transaction.Monitor { return e.monitor }

// Begin opens an explicit transaction.
func (e *Engine) Begin() *transaction.Transaction {
	return e.monitor.Begin()
}

/***** collection registry *****/

// Lookup resolves a collection name to its index view. It satisfies
// the transaction monitor's collection source.
func (e *Engine) Lookup(name string) (*index.Collection, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.collections[name]
	return c, ok
}

// ensureCollection registers the collection on first write.
func (e *Engine) ensureCollection(name string) *index.Collection {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.collections[name]
	if !ok {
		c = index.NewCollection(name)
		e.collections[name] = c
		e.log.Debug("collection %q created", name)
	}
	return c
}

// CollectionNames lists the registered collections, sorted.
func (e *Engine) CollectionNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.collections))
	for name := range e.collections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DropCollection removes the collection and its indexes. Stored records
// become unreachable and are reclaimed by compaction of the data file,
// outside the query core's scope.
func (e *Engine) DropCollection(name string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	tx := e.monitor.Begin()
	snap := e.monitor.CreateSnapshot(tx, transaction.LockWrite, name)
	defer tx.Commit()
	defer snap.Release()

	e.mu.Lock()
	delete(e.collections, name)
	e.mu.Unlock()
	return nil
}

/***** queries *****/

// Query starts a fluent query over the collection.
func (e *Engine) Query(collection string) *query.Builder {
	return query.NewBuilder(collection, query.Env{
		Monitor:  e.monitor,
		Analyzer: e.analyzer,
		Loader:   e.loader,
		Pipe:     e.pipe,
		Log:      e.log,
	})
}

// ResolveRef loads one document by primary key during include
// expansion, inside the running query's transaction. A missing
// collection or id resolves to nil without error.
func (e *Engine) ResolveRef(collection string, id any, tx *transaction.Transaction) (bson.Document, error) {
	snap := e.monitor.CreateSnapshot(tx, transaction.LockRead, collection)
	defer snap.Release()

	if !snap.CollectionExists() {
		return nil, nil
	}
	node, ok, err := findByID(snap.Collection(), id)
	if err != nil || !ok {
		return nil, err
	}
	return e.loader.Load(node.Location)
}

/***** writes *****/

// Insert stores a document in the collection and returns its id. A
// missing _id is assigned. Runs in an auto transaction.
func (e *Engine) Insert(collection string, doc bson.Document) (any, error) {
	return e.insert(nil, collection, doc)
}

// InsertWith is Insert inside an existing transaction.
func (e *Engine) InsertWith(tx *transaction.Transaction, collection string, doc bson.Document) (any, error) {
	return e.insert(tx, collection, doc)
}

func (e *Engine) insert(tx *transaction.Transaction, collection string, doc bson.Document) (any, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	doc = doc.Copy()
	id := doc.ID()
	if id == nil {
		id = uuid.NewString()
		doc[bson.FieldID] = id
	}

	e.ensureCollection(collection)
	tx, done := e.writeTx(tx)
	snap := e.monitor.CreateSnapshot(tx, transaction.LockWrite, collection)
	defer snap.Release()

	coll := snap.Collection()
	if _, ok, err := findByID(coll, id); err != nil {
		return nil, done(e.fail(err))
	} else if ok {
		return nil, done(e.fail(fmt.Errorf("insert %v into %q: %w", id, collection, errors.ErrDocExists)))
	}

	loc, err := e.appendDoc(doc)
	if err != nil {
		return nil, done(e.fail(err))
	}
	for _, ix := range coll.All() {
		ix.Insert(extractKey(doc, ix.Fields()), loc)
	}
	return id, done(nil)
}

// Update replaces the document with the same _id. The document must
// carry an _id and it must exist.
func (e *Engine) Update(collection string, doc bson.Document) error {
	return e.update(nil, collection, doc)
}

// UpdateWith is Update inside an existing transaction.
func (e *Engine) UpdateWith(tx *transaction.Transaction, collection string, doc bson.Document) error {
	return e.update(tx, collection, doc)
}

func (e *Engine) update(tx *transaction.Transaction, collection string, doc bson.Document) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	id := doc.ID()
	if id == nil {
		return e.fail(fmt.Errorf("update in %q: %w", collection, errors.ErrMissingID))
	}

	doc = doc.Copy()
	tx, done := e.writeTx(tx)
	snap := e.monitor.CreateSnapshot(tx, transaction.LockWrite, collection)
	defer snap.Release()

	if !snap.CollectionExists() {
		return done(e.fail(fmt.Errorf("update %v in %q: %w", id, collection, errors.ErrDocNotFound)))
	}
	coll := snap.Collection()
	node, ok, err := findByID(coll, id)
	if err != nil {
		return done(e.fail(err))
	}
	if !ok {
		return done(e.fail(fmt.Errorf("update %v in %q: %w", id, collection, errors.ErrDocNotFound)))
	}

	old, err := e.loader.Load(node.Location)
	if err != nil {
		return done(e.fail(err))
	}
	loc, err := e.appendDoc(doc)
	if err != nil {
		return done(e.fail(err))
	}
	for _, ix := range coll.All() {
		ix.Delete(extractKey(old, ix.Fields()), node.Location)
		ix.Insert(extractKey(doc, ix.Fields()), loc)
		e.maint.MaybeCompact(collection, ix)
	}
	return done(nil)
}

// Upsert updates the document when its _id exists, inserting otherwise.
// Returns the document id.
func (e *Engine) Upsert(collection string, doc bson.Document) (any, error) {
	if doc.ID() == nil {
		return e.Insert(collection, doc)
	}
	err := e.Update(collection, doc)
	if stderrors.Is(err, errors.ErrDocNotFound) {
		return e.Insert(collection, doc)
	}
	if err != nil {
		return nil, err
	}
	return doc.ID(), nil
}

// Delete removes the document with the given id. Reports whether a
// document was removed.
func (e *Engine) Delete(collection string, id any) (bool, error) {
	return e.delete(nil, collection, id)
}

// DeleteWith is Delete inside an existing transaction.
func (e *Engine) DeleteWith(tx *transaction.Transaction, collection string, id any) (bool, error) {
	return e.delete(tx, collection, id)
}

func (e *Engine) delete(tx *transaction.Transaction, collection string, id any) (bool, error) {
	if err := e.checkOpen(); err != nil {
		return false, err
	}

	tx, done := e.writeTx(tx)
	snap := e.monitor.CreateSnapshot(tx, transaction.LockWrite, collection)
	defer snap.Release()

	if !snap.CollectionExists() {
		return false, done(nil)
	}
	coll := snap.Collection()
	node, ok, err := findByID(coll, id)
	if err != nil {
		return false, done(e.fail(err))
	}
	if !ok {
		return false, done(nil)
	}

	old, err := e.loader.Load(node.Location)
	if err != nil {
		return false, done(e.fail(err))
	}
	for _, ix := range coll.All() {
		ix.Delete(extractKey(old, ix.Fields()), node.Location)
		e.maint.MaybeCompact(collection, ix)
	}
	return true, done(nil)
}

/***** indexes *****/

// EnsureIndex creates a secondary index over the path expression and
// backfills it from the collection's documents. The index is named by
// its dotted path. Creating an index that already exists is a no-op.
func (e *Engine) EnsureIndex(collection, pathText string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	p, err := expr.ParsePath(pathText)
	if err != nil {
		return e.fail(fmt.Errorf("ensure index %q on %q: %w", pathText, collection, err))
	}
	fields := p.Fields()
	name := strings.Join(fields, ".")

	e.ensureCollection(collection)
	tx, done := e.writeTx(nil)
	snap := e.monitor.CreateSnapshot(tx, transaction.LockWrite, collection)
	defer snap.Release()

	coll := snap.Collection()
	if _, ok := coll.Index(name); ok {
		return done(nil)
	}
	ix, err := coll.Ensure(name, fields)
	if err != nil {
		return done(e.fail(err))
	}

	// Backfill from the primary index so every stored document is keyed.
	it, err := index.All(index.PrimaryIndex, index.OrderAscending).Run(coll)
	if err != nil {
		return done(e.fail(err))
	}
	defer it.Close()
	for {
		node, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return done(e.fail(err))
		}
		doc, err := e.loader.Load(node.Location)
		if err != nil {
			return done(e.fail(err))
		}
		ix.Insert(extractKey(doc, fields), node.Location)
	}
	e.log.Info("index %q on %q built (%d entries)", name, collection, ix.Len())
	return done(nil)
}

/***** helpers *****/

// writeTx returns the transaction to run a write under and a completion
// function. An auto transaction commits on success and rolls back on
// error; an explicit one is left to its owner.
func (e *Engine) writeTx(tx *transaction.Transaction) (*transaction.Transaction, func(error) error) {
	if tx != nil {
		return tx, func(err error) error { return err }
	}
	auto := e.monitor.Begin()
	return auto, func(err error) error {
		if err != nil {
			auto.Rollback()
			return err
		}
		return auto.Commit()
	}
}

func (e *Engine) appendDoc(doc bson.Document) (storage.Location, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return storage.Location{}, err
	}
	return e.store.Append(raw)
}

func (e *Engine) fail(err error) error {
	if err != nil {
		e.tracker.Record(err)
	}
	return err
}

// findByID locates a document through the primary index.
func findByID(coll *index.Collection, id any) (index.Node, bool, error) {
	it, err := index.Equals(index.PrimaryIndex, id).Run(coll)
	if err != nil {
		return index.Node{}, false, err
	}
	defer it.Close()

	node, err := it.Next()
	if err == io.EOF {
		return index.Node{}, false, nil
	}
	if err != nil {
		return index.Node{}, false, err
	}
	return node, true, nil
}

// extractKey navigates the field path into the document. Documents that
// do not carry the field are indexed under a nil key so index scans
// still cover them.
func extractKey(doc bson.Document, fields []string) any {
	var cur any = doc
	for _, f := range fields {
		d, ok := bson.AsDocument(cur)
		if !ok {
			return nil
		}
		cur = d.Get(f)
	}
	return cur
}
