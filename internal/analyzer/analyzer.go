// Package analyzer implements the default query analyzer: it rewrites a
// logical plan against the snapshot's collection, selecting an index
// strategy, splitting off residual filter predicates and deciding
// whether the key-only fast path applies.
package analyzer

import (
	"github.com/kaan-kaya/litedb/internal/expr"
	"github.com/kaan-kaya/litedb/internal/index"
	"github.com/kaan-kaya/litedb/internal/logger"
	"github.com/kaan-kaya/litedb/internal/query"
	"github.com/kaan-kaya/litedb/internal/transaction"
)

type Analyzer struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Analyzer {
	return &Analyzer{log: log}
}

// Analyze finalizes the plan in place. Called exactly once per
// execution, before the first index node is pulled.
func (a *Analyzer) Analyze(predicates []*expr.Expression, plan *query.Plan, snap *transaction.Snapshot, countOnly, isTopLevel bool) error {
	coll := snap.Collection()

	residual := predicates
	if plan.Strategy == nil {
		plan.Strategy, residual = a.choose(predicates, plan, coll)
	}
	plan.Filters = residual

	plan.OrderSatisfied = a.orderSatisfied(plan)

	// Key-only: the index key alone answers the query. Residual filters,
	// includes and projections all need the full document.
	plan.KeyOnly = countOnly &&
		len(plan.Filters) == 0 &&
		len(plan.IncludeBefore) == 0 &&
		len(plan.IncludeAfter) == 0 &&
		plan.SelectExpr == nil &&
		(plan.OrderExpr == nil || plan.OrderSatisfied)

	if a.log != nil {
		a.log.Debug("analyze %q: strategy=%s residual=%d keyonly=%v",
			plan.Collection, plan.Strategy, len(plan.Filters), plan.KeyOnly)
	}
	return nil
}

// choose picks the first index-eligible predicate and turns it into a
// seek or range strategy; everything else stays as a residual filter.
// With no eligible predicate the collection is scanned through the
// order-by index when one matches, else through the primary key.
func (a *Analyzer) choose(predicates []*expr.Expression, plan *query.Plan, coll *index.Collection) (index.Strategy, []*expr.Expression) {
	if coll == nil {
		return index.All(index.PrimaryIndex, plan.Order), predicates
	}

	for i, p := range predicates {
		if !p.IsConditional() {
			continue
		}
		path := p.Left()
		if path == nil || !path.IsPath() {
			continue
		}
		ix, ok := coll.ByField(path.Fields())
		if !ok {
			continue
		}
		right := p.Right()
		if right == nil || (right.Kind() != expr.KindConstant && right.Kind() != expr.KindParameter) {
			continue
		}
		value, err := expr.Evaluate(right, nil, plan.Params)
		if err != nil {
			continue
		}

		strategy := a.strategyFor(p.Kind(), ix.Name(), value, a.scanOrder(plan, ix))
		if strategy == nil {
			continue
		}

		residual := make([]*expr.Expression, 0, len(predicates)-1)
		residual = append(residual, predicates[:i]...)
		residual = append(residual, predicates[i+1:]...)
		return strategy, residual
	}

	// No consumable predicate: prefer scanning the index that yields the
	// requested order so the pipe does not have to buffer and sort.
	if plan.OrderExpr != nil && plan.OrderExpr.IsPath() {
		if ix, ok := coll.ByField(plan.OrderExpr.Fields()); ok {
			return index.All(ix.Name(), plan.Order), predicates
		}
	}
	return index.All(index.PrimaryIndex, plan.Order), predicates
}

func (a *Analyzer) strategyFor(kind expr.Kind, indexName string, value any, order int) index.Strategy {
	switch kind {
	case expr.KindEqual:
		return index.Equals(indexName, value)
	case expr.KindGreater:
		return index.Range(indexName, value, nil, false, false, order)
	case expr.KindGreaterOrEqual:
		return index.Range(indexName, value, nil, true, false, order)
	case expr.KindLess:
		return index.Range(indexName, nil, value, false, false, order)
	case expr.KindLessOrEqual:
		return index.Range(indexName, nil, value, false, true, order)
	default:
		// !=, OR subtrees: no contiguous index range.
		return nil
	}
}

// scanOrder returns the traversal direction for a strategy over ix:
// the plan's direction when the order expression is the index path,
// ascending otherwise.
func (a *Analyzer) scanOrder(plan *query.Plan, ix *index.Index) int {
	if plan.OrderExpr != nil && plan.OrderExpr.IsPath() && pathEqual(plan.OrderExpr.Fields(), ix.Fields()) {
		return plan.Order
	}
	return index.OrderAscending
}

func (a *Analyzer) orderSatisfied(plan *query.Plan) bool {
	if plan.OrderExpr == nil {
		return true
	}
	if plan.Strategy == nil || !plan.OrderExpr.IsPath() {
		return false
	}
	if plan.Strategy.IndexName() != fieldName(plan.OrderExpr.Fields()) {
		return false
	}
	return plan.Strategy.Order() == plan.Order
}

// fieldName maps a single-component path to the index naming convention
// (indexes are named after the path they cover).
func fieldName(fields []string) string {
	if len(fields) == 1 {
		return fields[0]
	}
	name := ""
	for i, f := range fields {
		if i > 0 {
			name += "."
		}
		name += f
	}
	return name
}

func pathEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
