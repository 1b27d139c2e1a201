package query

import (
	"context"
	"io"

	"github.com/kaan-kaya/litedb/internal/bson"
	"github.com/kaan-kaya/litedb/internal/errors"
	"github.com/kaan-kaya/litedb/internal/expr"
	"github.com/kaan-kaya/litedb/internal/index"
	"github.com/kaan-kaya/litedb/internal/metrics"
	"github.com/kaan-kaya/litedb/internal/transaction"
)

// Run builds the lazy result sequence. Nothing happens until the first
// pull: snapshot acquisition, analysis and index iteration are all
// deferred, so First/Exists can stop after one element and a sequence
// that is never pulled never takes a lock.
func (b *Builder) Run(ctx context.Context, countOnly bool) Iterator {
	return &lazyIterator{open: func() Iterator { return b.execute(ctx, countOnly) }}
}

// execute is the orchestrator: lock mode, snapshot, analyzer, index
// iteration, document resolution, pipe. Every early exit releases the
// snapshot through the run iterator's finish path or directly here.
func (b *Builder) execute(ctx context.Context, countOnly bool) Iterator {
	if b.err != nil {
		return Failed(b.err)
	}

	mode := transaction.LockRead
	if b.plan.ForUpdate {
		mode = transaction.LockWrite
	}

	tx := b.tx
	ownsTx := false
	if tx == nil {
		tx = b.env.Monitor.Begin()
		ownsTx = true
	}

	snap := b.env.Monitor.CreateSnapshot(tx, mode, b.plan.Collection)

	finishEarly := func(status string) {
		snap.Release()
		if ownsTx {
			_ = tx.Commit()
		}
		metrics.QueriesTotal.WithLabelValues(mode.String(), status).Inc()
	}

	// The analyzer mutates a clone so the builder can run again.
	plan := b.plan.Clone()
	predicates := append([]*expr.Expression(nil), b.predicates...)

	if err := b.env.Analyzer.Analyze(predicates, plan, snap, countOnly, true); err != nil {
		finishEarly("error")
		return Failed(err)
	}

	// A missing collection yields an empty result, never an error.
	if !snap.CollectionExists() {
		finishEarly("ok")
		return Empty()
	}

	nodes, err := plan.Strategy.Run(snap.Collection())
	if err != nil {
		finishEarly("error")
		return Failed(err)
	}

	if plan.KeyOnly {
		metrics.KeyOnlyQueries.Inc()
	}
	b.env.Log.Debug("query on %q: strategy=%s keyonly=%v filters=%d",
		plan.Collection, plan.Strategy, plan.KeyOnly, len(plan.Filters))

	docs := &nodeDocIterator{
		nodes:    nodes,
		loader:   b.env.Loader,
		keyOnly:  plan.KeyOnly,
		keyField: plan.Strategy.IndexName(),
	}

	return &runIterator{
		ctx:   ctx,
		inner: b.env.Pipe.Apply(docs, plan, tx),
		snap:  snap,
		tx:    tx,
		owns:  ownsTx,
		mode:  mode.String(),
	}
}

/***** lazy opening *****/

type lazyIterator struct {
	open   func() Iterator
	inner  Iterator
	closed bool
}

func (it *lazyIterator) Next() (bson.Document, error) {
	if it.closed {
		return nil, io.EOF
	}
	if it.inner == nil {
		it.inner = it.open()
	}
	return it.inner.Next()
}

func (it *lazyIterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	if it.inner != nil {
		return it.inner.Close()
	}
	return nil
}

/***** index node -> document *****/

// nodeDocIterator resolves index nodes to documents. On the key-only
// fast path it synthesizes a single-field stand-in document from the
// index key and never touches the loader.
type nodeDocIterator struct {
	nodes    *index.NodeIterator
	loader   Loader
	keyOnly  bool
	keyField string
}

func (it *nodeDocIterator) Next() (bson.Document, error) {
	node, err := it.nodes.Next()
	if err != nil {
		return nil, err
	}
	if it.keyOnly {
		return bson.Document{it.keyField: node.Key}, nil
	}
	return it.loader.Load(node.Location)
}

func (it *nodeDocIterator) Close() error {
	return it.nodes.Close()
}

/***** enumeration scope guard *****/

// runIterator owns the snapshot (and the auto transaction, if any) for
// one enumeration. finish runs exactly once on every exit path: normal
// completion, early Close, safepoint abort or downstream error.
type runIterator struct {
	ctx   context.Context
	inner Iterator
	snap  *transaction.Snapshot
	tx    *transaction.Transaction
	owns  bool
	mode  string
	done  bool
}

func (it *runIterator) Next() (bson.Document, error) {
	if it.done {
		return nil, io.EOF
	}

	// The owning transaction may have ended between pulls; its lock is
	// gone, so the collection view must not be read any further. An
	// abort outranks the release it caused.
	if it.snap.Released() {
		it.finish("aborted")
		if err := it.tx.Safepoint(it.ctx); err != nil {
			return nil, err
		}
		return nil, errors.ErrSnapshotReleased
	}

	doc, err := it.inner.Next()
	if err == io.EOF {
		it.finish("ok")
		return nil, io.EOF
	}
	if err != nil {
		it.finish("error")
		return nil, err
	}

	// Cooperative checkpoint before every yielded document.
	if err := it.tx.Safepoint(it.ctx); err != nil {
		it.finish("aborted")
		return nil, err
	}
	return doc, nil
}

func (it *runIterator) Close() error {
	if !it.done {
		it.finish("ok")
	}
	return nil
}

func (it *runIterator) finish(status string) {
	it.done = true
	_ = it.inner.Close()
	it.snap.Release()
	if it.owns {
		_ = it.tx.Commit()
	}
	metrics.QueriesTotal.WithLabelValues(it.mode, status).Inc()
}
