package query

import (
	"fmt"

	"github.com/kaan-kaya/litedb/internal/errors"
	"github.com/kaan-kaya/litedb/internal/expr"
	"github.com/kaan-kaya/litedb/internal/index"
	"github.com/kaan-kaya/litedb/internal/logger"
	"github.com/kaan-kaya/litedb/internal/transaction"
)

// Env carries the collaborators a builder needs to execute. The engine
// wires one Env per database and shares it across builders.
type Env struct {
	Monitor  *transaction.Monitor
	Analyzer Analyzer
	Loader   Loader
	Pipe     Pipe
	Log      *logger.Logger
}

// Builder is the fluent query surface over one collection. All fluent
// calls mutate state only and return the builder; validation failures
// are sticky and surface at the terminal operation, before any snapshot
// is opened.
type Builder struct {
	env        Env
	plan       *Plan
	predicates []*expr.Expression

	// tx is the explicit transaction the query runs in, or nil for an
	// auto transaction per terminal operation.
	tx *transaction.Transaction

	err error
}

// NewBuilder creates a builder for the named collection.
func NewBuilder(collection string, env Env) *Builder {
	return &Builder{
		env:  env,
		plan: NewPlan(collection),
	}
}

// WithTransaction runs the query inside an existing transaction instead
// of an auto transaction per terminal operation.
func (b *Builder) WithTransaction(tx *transaction.Transaction) *Builder {
	b.tx = tx
	return b
}

// Predicates returns the normalized predicate set built so far.
func (b *Builder) Predicates() []*expr.Expression { return b.predicates }

// Plan returns the builder's logical plan (not yet analyzed).
func (b *Builder) Plan() *Plan { return b.plan }

// Err returns the first build-time validation failure, if any.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

/***** filtering *****/

// Where appends a predicate to the filter. Conjunctions are flattened
// recursively into separate predicate-set elements (AND is associative,
// so this is behavior-preserving); disjunctions and comparisons land as
// one element. Anything else is not usable as a filter.
func (b *Builder) Where(e *expr.Expression) *Builder {
	if b.err != nil || e == nil {
		return b
	}
	return b.addPredicate(e)
}

func (b *Builder) addPredicate(e *expr.Expression) *Builder {
	switch {
	case e.IsAnd():
		b.addPredicate(e.Left())
		return b.addPredicate(e.Right())
	case e.IsPredicate():
		b.predicates = append(b.predicates, e)
		return b
	default:
		return b.fail(fmt.Errorf("where %q: %w", e, errors.ErrUnsupportedFilter))
	}
}

// WhereText parses a text predicate. Arguments bind positionally to
// @0..@n, except a single map argument which binds by name. Positional
// placeholders are scoped to the call: each WhereText's @0 is its own
// first argument, regardless of earlier calls.
func (b *Builder) WhereText(text string, args ...any) *Builder {
	if b.err != nil {
		return b
	}
	e, err := expr.Parse(text)
	if err != nil {
		return b.fail(fmt.Errorf("where %q: %w", text, err))
	}
	base := len(b.plan.Params.Positional)
	b.bindArgs(args)
	if len(b.plan.Params.Positional) > base {
		e = expr.RebaseParams(e, base)
	}
	return b.addPredicate(e)
}

func (b *Builder) bindArgs(args []any) {
	if len(args) == 0 {
		return
	}
	if len(args) == 1 {
		if named, ok := args[0].(map[string]any); ok {
			if b.plan.Params.Named == nil {
				b.plan.Params.Named = make(map[string]any, len(named))
			}
			for k, v := range named {
				b.plan.Params.Named[k] = v
			}
			return
		}
	}
	b.plan.Params.Positional = append(b.plan.Params.Positional, args...)
}

/***** includes *****/

// Include registers a cross-reference path for expansion. Includes
// requested while the filter is still empty run before filtering (the
// filter may reference the expanded document); later includes run after
// filtering, over the already-reduced result set.
func (b *Builder) Include(pathText string) *Builder {
	if b.err != nil {
		return b
	}
	e, err := expr.Parse(pathText)
	if err != nil {
		return b.fail(fmt.Errorf("include %q: %w", pathText, err))
	}
	if !e.IsPath() || len(e.Fields()) == 0 {
		return b.fail(fmt.Errorf("include %q: %w", pathText, errors.ErrInvalidIncludeKind))
	}

	if len(b.predicates) == 0 {
		b.plan.IncludeBefore = append(b.plan.IncludeBefore, e)
	} else {
		b.plan.IncludeAfter = append(b.plan.IncludeAfter, e)
	}
	return b
}

/***** plan setters *****/

// OrderBy sets the ordering expression and direction.
func (b *Builder) OrderBy(text string, order int) *Builder {
	if b.err != nil {
		return b
	}
	e, err := expr.Parse(text)
	if err != nil {
		return b.fail(fmt.Errorf("orderby %q: %w", text, err))
	}
	b.plan.OrderExpr = e
	if order == index.OrderDescending {
		b.plan.Order = index.OrderDescending
	} else {
		b.plan.Order = index.OrderAscending
	}
	return b
}

// Limit caps the number of returned documents.
func (b *Builder) Limit(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n <= 0 {
		return b.fail(fmt.Errorf("limit %d: %w", n, errors.ErrInvalidLimit))
	}
	b.plan.Limit = n
	return b
}

// Offset skips the first n documents of the result.
func (b *Builder) Offset(n int) *Builder {
	if b.err != nil {
		return b
	}
	if n < 0 {
		return b.fail(fmt.Errorf("offset %d: %w", n, errors.ErrInvalidOffset))
	}
	b.plan.Offset = n
	return b
}

// Select sets the projection expression.
func (b *Builder) Select(text string) *Builder {
	if b.err != nil {
		return b
	}
	e, err := expr.Parse(text)
	if err != nil {
		return b.fail(fmt.Errorf("select %q: %w", text, err))
	}
	b.plan.SelectExpr = e
	return b
}

// GroupBy records a grouping expression. Grouping is accepted but has
// no effect on execution yet.
func (b *Builder) GroupBy(text string) *Builder {
	if b.err != nil {
		return b
	}
	e, err := expr.Parse(text)
	if err != nil {
		return b.fail(fmt.Errorf("groupby %q: %w", text, err))
	}
	b.plan.GroupByExpr = e
	return b
}

// ForUpdate acquires the snapshot in write lock mode at execution.
func (b *Builder) ForUpdate() *Builder {
	if b.err != nil {
		return b
	}
	b.plan.ForUpdate = true
	return b
}

// Index forces an explicit index strategy instead of analyzer selection.
func (b *Builder) Index(strategy index.Strategy) *Builder {
	if b.err != nil {
		return b
	}
	b.plan.Strategy = strategy
	return b
}
