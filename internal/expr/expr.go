// Package expr implements the small expression language used by query
// filters, ordering, projection and include paths.
//
// An expression is a tree of paths, constants, parameters and binary
// operators. The query core only depends on the classification helpers
// (predicate / conjunction / disjunction / path); evaluation is used by
// the pipe's residual filter and sort stages.
package expr

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	KindConstant Kind = iota
	KindParameter
	KindPath
	KindEqual
	KindNotEqual
	KindGreater
	KindGreaterOrEqual
	KindLess
	KindLessOrEqual
	KindAnd
	KindOr
)

type Expression struct {
	kind   Kind
	fields []string // KindPath: successive field names
	value  any      // KindConstant
	param  string   // KindParameter: name or positional digits
	left   *Expression
	right  *Expression
}

func (e *Expression) Kind() Kind { return e.kind }

// Fields returns the path components of a KindPath expression.
func (e *Expression) Fields() []string { return e.fields }

// Value returns the literal of a KindConstant expression.
func (e *Expression) Value() any { return e.value }

func (e *Expression) Left() *Expression  { return e.left }
func (e *Expression) Right() *Expression { return e.right }

// IsConditional reports whether the node is a comparison producing a boolean.
func (e *Expression) IsConditional() bool {
	switch e.kind {
	case KindEqual, KindNotEqual, KindGreater, KindGreaterOrEqual, KindLess, KindLessOrEqual:
		return true
	}
	return false
}

func (e *Expression) IsAnd() bool  { return e.kind == KindAnd }
func (e *Expression) IsOr() bool   { return e.kind == KindOr }
func (e *Expression) IsPath() bool { return e.kind == KindPath }

// IsPredicate reports whether the node may stand alone as one element of
// a predicate set: a comparison or a disjunction subtree. Conjunctions
// are not predicates themselves, they are flattened by the builder.
func (e *Expression) IsPredicate() bool {
	return e.IsConditional() || e.IsOr()
}

// Head returns the first path component ("" for non-path expressions).
func (e *Expression) Head() string {
	if e.kind != KindPath || len(e.fields) == 0 {
		return ""
	}
	return e.fields[0]
}

/***** constructors *****/

func Path(fields ...string) *Expression {
	return &Expression{kind: KindPath, fields: fields}
}

func Constant(v any) *Expression {
	return &Expression{kind: KindConstant, value: v}
}

func Param(name string) *Expression {
	return &Expression{kind: KindParameter, param: name}
}

func Binary(kind Kind, left, right *Expression) *Expression {
	return &Expression{kind: kind, left: left, right: right}
}

func And(left, right *Expression) *Expression {
	return Binary(KindAnd, left, right)
}

func Or(left, right *Expression) *Expression {
	return Binary(KindOr, left, right)
}

func Eq(path *Expression, v any) *Expression {
	return Binary(KindEqual, path, Constant(v))
}

// RebaseParams shifts every positional parameter in the expression by
// offset, so predicates parsed separately can share one positional
// argument list. Named parameters and offset 0 leave the tree as is.
func RebaseParams(e *Expression, offset int) *Expression {
	if e == nil || offset == 0 {
		return e
	}
	switch e.kind {
	case KindParameter:
		n, err := strconv.Atoi(e.param)
		if err != nil {
			return e
		}
		return Param(strconv.Itoa(n + offset))
	case KindConstant, KindPath:
		return e
	default:
		left := RebaseParams(e.left, offset)
		right := RebaseParams(e.right, offset)
		if left == e.left && right == e.right {
			return e
		}
		return &Expression{kind: e.kind, left: left, right: right}
	}
}

/***** formatting *****/

func (e *Expression) String() string {
	switch e.kind {
	case KindConstant:
		if s, ok := e.value.(string); ok {
			return fmt.Sprintf("%q", s)
		}
		return fmt.Sprintf("%v", e.value)
	case KindParameter:
		return "@" + e.param
	case KindPath:
		return strings.Join(e.fields, ".")
	case KindAnd:
		return fmt.Sprintf("(%s AND %s)", e.left, e.right)
	case KindOr:
		return fmt.Sprintf("(%s OR %s)", e.left, e.right)
	default:
		return fmt.Sprintf("%s %s %s", e.left, operatorText(e.kind), e.right)
	}
}

func operatorText(kind Kind) string {
	switch kind {
	case KindEqual:
		return "="
	case KindNotEqual:
		return "!="
	case KindGreater:
		return ">"
	case KindGreaterOrEqual:
		return ">="
	case KindLess:
		return "<"
	case KindLessOrEqual:
		return "<="
	}
	return "?"
}
