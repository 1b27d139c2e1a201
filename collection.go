package litedb

import (
	"context"

	"github.com/kaan-kaya/litedb/internal/bson"
	"github.com/kaan-kaya/litedb/internal/expr"
	"github.com/kaan-kaya/litedb/internal/query"
)

// Collection is a handle over one named collection.
type Collection struct {
	db   *Database
	name string
}

func (c *Collection) Name() string { return c.name }

// Insert stores a document and returns its id, assigning one when the
// document has no _id.
func (c *Collection) Insert(doc Document) (any, error) {
	return c.db.engine.Insert(c.name, bson.Document(doc))
}

// InsertTx is Insert inside an explicit transaction.
func (c *Collection) InsertTx(tx *Tx, doc Document) (any, error) {
	return c.db.engine.InsertWith(tx.tx, c.name, bson.Document(doc))
}

// Update replaces the document with the same _id.
func (c *Collection) Update(doc Document) error {
	return c.db.engine.Update(c.name, bson.Document(doc))
}

// UpdateTx is Update inside an explicit transaction.
func (c *Collection) UpdateTx(tx *Tx, doc Document) error {
	return c.db.engine.UpdateWith(tx.tx, c.name, bson.Document(doc))
}

// Upsert updates the document when its _id exists, inserting otherwise.
func (c *Collection) Upsert(doc Document) (any, error) {
	return c.db.engine.Upsert(c.name, bson.Document(doc))
}

// Delete removes the document with the given id. Reports whether a
// document was removed.
func (c *Collection) Delete(id any) (bool, error) {
	return c.db.engine.Delete(c.name, id)
}

// DeleteTx is Delete inside an explicit transaction.
func (c *Collection) DeleteTx(tx *Tx, id any) (bool, error) {
	return c.db.engine.DeleteWith(tx.tx, c.name, id)
}

// EnsureIndex creates a secondary index over a path expression such as
// "age" or "$.address.city" and backfills it. Creating an existing
// index is a no-op.
func (c *Collection) EnsureIndex(path string) error {
	return c.db.engine.EnsureIndex(c.name, path)
}

// Query starts a fluent query over the collection. Nothing executes
// until a terminal operation pulls the first result.
func (c *Collection) Query() *Query {
	return &Query{b: c.db.engine.Query(c.name)}
}

// Query is the fluent query surface. Fluent calls only record state;
// validation failures stick and surface at the terminal operation.
type Query struct {
	b *query.Builder
}

// Tx attaches the query to an explicit transaction instead of an auto
// transaction per terminal operation.
func (q *Query) Tx(tx *Tx) *Query {
	q.b.WithTransaction(tx.tx)
	return q
}

// WhereText adds a filter parsed from text, for example
// "age >= 18 AND name = 'ada'". Extra arguments bind positionally to
// @0..@n; a single map argument binds by name. Conjunctions are split
// so each side filters independently.
func (q *Query) WhereText(text string, args ...any) *Query {
	q.b.WhereText(text, args...)
	return q
}

// WhereEq adds an equality filter on a dotted field path.
func (q *Query) WhereEq(path string, value any) *Query {
	p, err := expr.ParsePath(path)
	if err != nil {
		q.b.WhereText(path)
		return q
	}
	q.b.Where(expr.Eq(p, value))
	return q
}

// Include requests expansion of a cross-reference path. Includes added
// before any filter run before filtering; later ones run on the
// filtered documents only.
func (q *Query) Include(path string) *Query {
	q.b.Include(path)
	return q
}

// OrderBy sorts by a path expression in the given direction. When an
// index over the same path drives the scan, results come out ordered
// and no in-memory sort happens.
func (q *Query) OrderBy(path string, order int) *Query {
	q.b.OrderBy(path, order)
	return q
}

// Limit caps the number of results. Must be positive.
func (q *Query) Limit(n int) *Query {
	q.b.Limit(n)
	return q
}

// Offset skips the first n results. Must not be negative.
func (q *Query) Offset(n int) *Query {
	q.b.Offset(n)
	return q
}

// Select projects each result through an expression.
func (q *Query) Select(text string) *Query {
	q.b.Select(text)
	return q
}

// GroupBy records a grouping expression. Grouping is accepted but not
// applied yet.
func (q *Query) GroupBy(text string) *Query {
	q.b.GroupBy(text)
	return q
}

// ForUpdate runs the query under a write lock on the collection.
func (q *Query) ForUpdate() *Query {
	q.b.ForUpdate()
	return q
}

/***** terminal operations *****/

// Iterator returns the lazy result sequence. The caller must Close it
// unless it is drained to the end.
func (q *Query) Iterator(ctx context.Context) *Iterator {
	return &Iterator{it: q.b.Iterator(ctx)}
}

// All drains the sequence into a slice.
func (q *Query) All(ctx context.Context) ([]Document, error) {
	docs, err := q.b.All(ctx)
	return toPublic(docs), err
}

// First returns the first result; it fails when the sequence is empty.
// Execution stops after one element.
func (q *Query) First(ctx context.Context) (Document, error) {
	d, err := q.b.First(ctx)
	return Document(d), err
}

// FirstOrDefault returns the first result, or nil on an empty sequence.
func (q *Query) FirstOrDefault(ctx context.Context) (Document, error) {
	d, err := q.b.FirstOrDefault(ctx)
	return Document(d), err
}

// Single returns the only result; it fails on an empty sequence and on
// more than one element.
func (q *Query) Single(ctx context.Context) (Document, error) {
	d, err := q.b.Single(ctx)
	return Document(d), err
}

// SingleOrDefault is Single, returning nil instead of failing on empty.
func (q *Query) SingleOrDefault(ctx context.Context) (Document, error) {
	d, err := q.b.SingleOrDefault(ctx)
	return Document(d), err
}

// SingleByID fetches one document by primary key.
func (q *Query) SingleByID(ctx context.Context, id any) (Document, error) {
	d, err := q.b.SingleByID(ctx, id)
	return Document(d), err
}

// Count counts matching documents. When only index keys are needed the
// documents are never loaded.
func (q *Query) Count(ctx context.Context) (int, error) {
	return q.b.Count(ctx)
}

// Exists reports whether any document matches, stopping at the first.
func (q *Query) Exists(ctx context.Context) (bool, error) {
	return q.b.Exists(ctx)
}

// Iterator is a lazy pull-based result sequence.
type Iterator struct {
	it query.Iterator
}

// Next returns the next document, or io.EOF at the end of the sequence.
func (it *Iterator) Next() (Document, error) {
	d, err := it.it.Next()
	return Document(d), err
}

// Close abandons the sequence early. Idempotent.
func (it *Iterator) Close() error { return it.it.Close() }

func toPublic(docs []bson.Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Document(d)
	}
	return out
}
