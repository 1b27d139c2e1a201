package query

import (
	"github.com/kaan-kaya/litedb/internal/bson"
	"github.com/kaan-kaya/litedb/internal/expr"
	"github.com/kaan-kaya/litedb/internal/index"
	"github.com/kaan-kaya/litedb/internal/storage"
	"github.com/kaan-kaya/litedb/internal/transaction"
)

// Plan is the logical query descriptor. Fluent calls fill it in; the
// analyzer finalizes Strategy, Filters, KeyOnly and OrderSatisfied
// before execution.
type Plan struct {
	Collection string

	OrderExpr *expr.Expression
	Order     int // index.OrderAscending (default) or index.OrderDescending

	Limit  int // 0 = unbounded
	Offset int

	SelectExpr  *expr.Expression
	GroupByExpr *expr.Expression // recorded only; grouping is not executed yet

	ForUpdate bool

	// Strategy is the explicit index directive when set by the caller;
	// otherwise the analyzer chooses or synthesizes one.
	Strategy index.Strategy

	// Includes are cross-reference path expansions, split by their
	// position relative to filtering.
	IncludeBefore []*expr.Expression
	IncludeAfter  []*expr.Expression

	// Filters are the residual predicates not consumed by the index
	// strategy. Set by the analyzer.
	Filters []*expr.Expression

	// KeyOnly is set by the analyzer when the index key alone can answer
	// the query (count/exists fast path). Never set by the caller.
	KeyOnly bool

	// OrderSatisfied is set by the analyzer when the index traversal
	// already yields the requested order.
	OrderSatisfied bool

	// Params are the values bound to @-placeholders of text predicates.
	Params expr.Parameters
}

// NewPlan creates a plan with the defaults of the fluent surface.
func NewPlan(collection string) *Plan {
	return &Plan{
		Collection: collection,
		Order:      index.OrderAscending,
	}
}

// Clone returns a copy the analyzer may mutate without affecting the
// builder, so one builder can execute terminal operations repeatedly.
func (p *Plan) Clone() *Plan {
	cp := *p
	cp.IncludeBefore = append([]*expr.Expression(nil), p.IncludeBefore...)
	cp.IncludeAfter = append([]*expr.Expression(nil), p.IncludeAfter...)
	cp.Filters = append([]*expr.Expression(nil), p.Filters...)
	return &cp
}

/***** collaborator contracts *****/

// Analyzer rewrites the plan in place: it selects or synthesizes the
// index strategy, moves residual predicates into plan.Filters and
// decides key-only eligibility.
type Analyzer interface {
	Analyze(predicates []*expr.Expression, plan *Plan, snap *transaction.Snapshot, countOnly, isTopLevel bool) error
}

// Loader resolves a data location to a full document. Bypassed entirely
// on the key-only fast path.
type Loader interface {
	Load(loc storage.Location) (bson.Document, error)
}

// Pipe applies the remaining logical-plan steps (includes, residual
// filters, ordering not satisfied by the index, projection, skip/limit)
// to the loaded-document sequence.
type Pipe interface {
	Apply(it Iterator, plan *Plan, tx *transaction.Transaction) Iterator
}
