package expr

import (
	"fmt"

	"github.com/kaan-kaya/litedb/internal/bson"
)

// Parameters carries the argument values bound to @0.. and @name
// placeholders at execution time.
type Parameters struct {
	Positional []any
	Named      map[string]any
}

// NoParameters is the empty binding used by parameterless expressions.
var NoParameters = Parameters{}

// Evaluate resolves the expression against a document. Comparisons yield
// bool, paths yield the field value (nil when absent).
func Evaluate(e *Expression, doc bson.Document, params Parameters) (any, error) {
	switch e.kind {
	case KindConstant:
		return e.value, nil
	case KindParameter:
		return params.resolve(e.param)
	case KindPath:
		return resolvePath(doc, e.fields), nil
	case KindAnd:
		return evalLogical(e, doc, params, true)
	case KindOr:
		return evalLogical(e, doc, params, false)
	default:
		return evalComparison(e, doc, params)
	}
}

// Matches evaluates a predicate expression to its boolean result.
// Non-boolean results count as no match.
func Matches(e *Expression, doc bson.Document, params Parameters) (bool, error) {
	v, err := Evaluate(e, doc, params)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	return ok && b, nil
}

func (p Parameters) resolve(name string) (any, error) {
	if p.Named != nil {
		if v, ok := p.Named[name]; ok {
			return v, nil
		}
	}
	var idx int
	if _, err := fmt.Sscanf(name, "%d", &idx); err == nil {
		if idx >= 0 && idx < len(p.Positional) {
			return p.Positional[idx], nil
		}
	}
	return nil, fmt.Errorf("unbound parameter @%s", name)
}

func resolvePath(doc bson.Document, fields []string) any {
	var current any = doc
	for _, f := range fields {
		d, ok := bson.AsDocument(current)
		if !ok {
			return nil
		}
		current = d.Get(f)
	}
	return current
}

func evalLogical(e *Expression, doc bson.Document, params Parameters, isAnd bool) (any, error) {
	lv, err := Matches(e.left, doc, params)
	if err != nil {
		return nil, err
	}
	// Short circuit mirrors the binary operator semantics.
	if isAnd && !lv {
		return false, nil
	}
	if !isAnd && lv {
		return true, nil
	}
	rv, err := Matches(e.right, doc, params)
	if err != nil {
		return nil, err
	}
	return rv, nil
}

func evalComparison(e *Expression, doc bson.Document, params Parameters) (any, error) {
	lv, err := Evaluate(e.left, doc, params)
	if err != nil {
		return nil, err
	}
	rv, err := Evaluate(e.right, doc, params)
	if err != nil {
		return nil, err
	}

	cmp := bson.Compare(lv, rv)
	switch e.kind {
	case KindEqual:
		return cmp == 0, nil
	case KindNotEqual:
		return cmp != 0, nil
	case KindGreater:
		return cmp > 0, nil
	case KindGreaterOrEqual:
		return cmp >= 0, nil
	case KindLess:
		return cmp < 0, nil
	case KindLessOrEqual:
		return cmp <= 0, nil
	}
	return nil, fmt.Errorf("expression kind %d is not comparable", e.kind)
}
