package analyzer

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaan-kaya/litedb/internal/expr"
	"github.com/kaan-kaya/litedb/internal/index"
	"github.com/kaan-kaya/litedb/internal/logger"
	"github.com/kaan-kaya/litedb/internal/query"
	"github.com/kaan-kaya/litedb/internal/transaction"
)

type mapSource map[string]*index.Collection

func (m mapSource) Lookup(name string) (*index.Collection, bool) {
	c, ok := m[name]
	return c, ok
}

// snapFor opens a read snapshot over a users collection indexed on age.
func snapFor(t *testing.T) (*transaction.Snapshot, func()) {
	t.Helper()
	users := index.NewCollection("users")
	_, err := users.Ensure("age", []string{"age"})
	require.NoError(t, err)

	log := logger.New(io.Discard, logger.LevelError, "")
	m := transaction.NewMonitor(mapSource{"users": users}, 10, log)
	tx := m.Begin()
	snap := m.CreateSnapshot(tx, transaction.LockRead, "users")
	return snap, func() {
		snap.Release()
		tx.Commit()
	}
}

func parse(t *testing.T, text string) *expr.Expression {
	t.Helper()
	e, err := expr.Parse(text)
	require.NoError(t, err)
	return e
}

func analyze(t *testing.T, predicates []*expr.Expression, plan *query.Plan, countOnly bool) {
	t.Helper()
	snap, release := snapFor(t)
	defer release()
	a := New(logger.New(io.Discard, logger.LevelError, ""))
	require.NoError(t, a.Analyze(predicates, plan, snap, countOnly, true))
}

func TestEqualityPicksSeek(t *testing.T) {
	plan := query.NewPlan("users")
	analyze(t, []*expr.Expression{parse(t, "age = 30")}, plan, false)

	require.Equal(t, "age", plan.Strategy.IndexName())
	require.Contains(t, plan.Strategy.String(), "seek")
	require.Empty(t, plan.Filters)
}

func TestComparisonPicksRange(t *testing.T) {
	for _, text := range []string{"age > 18", "age >= 18", "age < 18", "age <= 18"} {
		plan := query.NewPlan("users")
		analyze(t, []*expr.Expression{parse(t, text)}, plan, false)
		require.Equal(t, "age", plan.Strategy.IndexName(), text)
		require.True(t, strings.HasPrefix(plan.Strategy.String(), "range"), text)
		require.Empty(t, plan.Filters, text)
	}
}

func TestUnindexedPredicateStaysResidual(t *testing.T) {
	plan := query.NewPlan("users")
	analyze(t, []*expr.Expression{parse(t, "name = 'ada'")}, plan, false)

	require.Equal(t, index.PrimaryIndex, plan.Strategy.IndexName())
	require.Len(t, plan.Filters, 1)
}

func TestNotEqualAndOrStayResidual(t *testing.T) {
	for _, text := range []string{"age != 30", "age = 1 OR age = 2"} {
		plan := query.NewPlan("users")
		analyze(t, []*expr.Expression{parse(t, text)}, plan, false)
		require.Equal(t, index.PrimaryIndex, plan.Strategy.IndexName(), text)
		require.Len(t, plan.Filters, 1, text)
	}
}

func TestOneIndexPredicateRestResidual(t *testing.T) {
	plan := query.NewPlan("users")
	analyze(t, []*expr.Expression{parse(t, "name = 'ada'"), parse(t, "age = 30")}, plan, false)

	require.Equal(t, "age", plan.Strategy.IndexName())
	require.Len(t, plan.Filters, 1)
	require.Equal(t, []string{"name"}, plan.Filters[0].Left().Fields())
}

func TestParameterValueDrivesStrategy(t *testing.T) {
	plan := query.NewPlan("users")
	plan.Params = expr.Parameters{Positional: []any{float64(21)}}
	analyze(t, []*expr.Expression{parse(t, "age >= @0")}, plan, false)

	require.Equal(t, "age", plan.Strategy.IndexName())
	require.Empty(t, plan.Filters)
}

func TestExplicitStrategyIsKept(t *testing.T) {
	forced := index.Equals(index.PrimaryIndex, float64(1))
	plan := query.NewPlan("users")
	plan.Strategy = forced
	analyze(t, []*expr.Expression{parse(t, "age = 30")}, plan, false)

	require.Equal(t, forced, plan.Strategy)
	// The predicate still filters, it just does not drive the scan.
	require.Len(t, plan.Filters, 1)
}

func TestOrderSatisfiedByMatchingIndexScan(t *testing.T) {
	plan := query.NewPlan("users")
	plan.OrderExpr = parse(t, "age")
	plan.Order = index.OrderDescending
	analyze(t, nil, plan, false)

	require.Equal(t, "age", plan.Strategy.IndexName())
	require.Equal(t, index.OrderDescending, plan.Strategy.Order())
	require.True(t, plan.OrderSatisfied)
}

func TestOrderNotSatisfiedByOtherIndex(t *testing.T) {
	plan := query.NewPlan("users")
	plan.OrderExpr = parse(t, "name")
	analyze(t, nil, plan, false)

	require.Equal(t, index.PrimaryIndex, plan.Strategy.IndexName())
	require.False(t, plan.OrderSatisfied)
}

func TestRangeKeepsOrderDirection(t *testing.T) {
	plan := query.NewPlan("users")
	plan.OrderExpr = parse(t, "age")
	plan.Order = index.OrderDescending
	analyze(t, []*expr.Expression{parse(t, "age >= 18")}, plan, false)

	require.Equal(t, index.OrderDescending, plan.Strategy.Order())
	require.True(t, plan.OrderSatisfied)
}

func TestKeyOnlyEligibility(t *testing.T) {
	// Plain count: eligible.
	plan := query.NewPlan("users")
	analyze(t, nil, plan, true)
	require.True(t, plan.KeyOnly)

	// Not a count: never eligible.
	plan = query.NewPlan("users")
	analyze(t, nil, plan, false)
	require.False(t, plan.KeyOnly)

	// Residual filter needs documents.
	plan = query.NewPlan("users")
	analyze(t, []*expr.Expression{parse(t, "name = 'x'")}, plan, true)
	require.False(t, plan.KeyOnly)

	// Consumed index predicate leaves no residual: still eligible.
	plan = query.NewPlan("users")
	analyze(t, []*expr.Expression{parse(t, "age = 30")}, plan, true)
	require.True(t, plan.KeyOnly)

	// Includes need documents.
	plan = query.NewPlan("users")
	plan.IncludeAfter = []*expr.Expression{parse(t, "ref")}
	analyze(t, nil, plan, true)
	require.False(t, plan.KeyOnly)

	// Projection needs documents.
	plan = query.NewPlan("users")
	plan.SelectExpr = parse(t, "name")
	analyze(t, nil, plan, true)
	require.False(t, plan.KeyOnly)
}

func TestMissingCollectionFallsBackToPrimaryScan(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelError, "")
	m := transaction.NewMonitor(mapSource{}, 10, log)
	tx := m.Begin()
	defer tx.Commit()
	snap := m.CreateSnapshot(tx, transaction.LockRead, "ghosts")
	defer snap.Release()

	plan := query.NewPlan("ghosts")
	a := New(log)
	require.NoError(t, a.Analyze([]*expr.Expression{parse(t, "age = 1")}, plan, snap, false, true))
	require.Equal(t, index.PrimaryIndex, plan.Strategy.IndexName())
}
