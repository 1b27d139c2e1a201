// Package pipe implements the post-processing pipe: the logical-plan
// steps not already satisfied by the index strategy, composed as lazy
// iterator stages in a fixed order - include-before, residual filter,
// include-after, order-by, offset, limit, projection.
package pipe

import (
	"github.com/kaan-kaya/litedb/internal/bson"
	"github.com/kaan-kaya/litedb/internal/logger"
	"github.com/kaan-kaya/litedb/internal/query"
	"github.com/kaan-kaya/litedb/internal/transaction"
)

// RefResolver loads a cross-referenced document during include
// expansion, inside the running query's transaction.
type RefResolver interface {
	ResolveRef(collection string, id any, tx *transaction.Transaction) (bson.Document, error)
}

type Pipe struct {
	resolver        RefResolver
	maxIncludeDepth int
	log             *logger.Logger
}

// New creates a pipe. maxIncludeDepth bounds how many path segments an
// include expression may descend through.
func New(resolver RefResolver, maxIncludeDepth int, log *logger.Logger) *Pipe {
	return &Pipe{resolver: resolver, maxIncludeDepth: maxIncludeDepth, log: log}
}

// Apply composes the plan's remaining steps over the document sequence.
// Only the order-by stage buffers; every other stage is one-in-one-out.
func (p *Pipe) Apply(it query.Iterator, plan *query.Plan, tx *transaction.Transaction) query.Iterator {
	out := it

	for _, inc := range plan.IncludeBefore {
		out = p.newIncludeStage(out, inc.Fields(), tx)
	}
	if len(plan.Filters) > 0 {
		out = &filterStage{inner: out, plan: plan}
	}
	for _, inc := range plan.IncludeAfter {
		out = p.newIncludeStage(out, inc.Fields(), tx)
	}
	if plan.OrderExpr != nil && !plan.OrderSatisfied {
		out = &sortStage{inner: out, plan: plan}
	}
	if plan.Offset > 0 {
		out = &offsetStage{inner: out, skip: plan.Offset}
	}
	if plan.Limit > 0 {
		out = &limitStage{inner: out, remaining: plan.Limit}
	}
	if plan.SelectExpr != nil {
		out = &selectStage{inner: out, plan: plan}
	}
	return out
}
