package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Parse compiles an expression text into its tree form.
//
// Supported syntax:
//
//	age >= 18
//	name = 'alice' AND active = true
//	city = @0 OR city = @town
//	customer.address.city
//
// Paths may start with the optional root marker "$.".
func Parse(text string) (*Expression, error) {
	p := &parser{input: text}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return nil, fmt.Errorf("unexpected input at position %d: %q", p.pos, p.input[p.pos:])
	}
	return e, nil
}

// ParsePath compiles a text that must be a pure path expression.
func ParsePath(text string) (*Expression, error) {
	e, err := Parse(text)
	if err != nil {
		return nil, err
	}
	if !e.IsPath() || len(e.Fields()) == 0 {
		return nil, fmt.Errorf("expression %q is not a path", text)
	}
	return e, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) parseOr() (*Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("OR") || p.acceptSymbol("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or(left, right)
	}
	return left, nil
}

func (p *parser) parseAnd() (*Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("AND") || p.acceptSymbol("&&") {
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = And(left, right)
	}
	return left, nil
}

func (p *parser) parseComparison() (*Expression, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	kind, ok := p.acceptOperator()
	if !ok {
		return left, nil
	}

	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return Binary(kind, left, right), nil
}

func (p *parser) parseOperand() (*Expression, error) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unexpected end of expression")
	}

	c := p.input[p.pos]
	switch {
	case c == '(':
		p.pos++
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		p.skipSpaces()
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return e, nil
	case c == '@':
		return p.parseParameter()
	case c == '\'' || c == '"':
		return p.parseString(c)
	case c == '-' || unicode.IsDigit(rune(c)):
		return p.parseNumber()
	default:
		return p.parseIdentifier()
	}
}

func (p *parser) parseParameter() (*Expression, error) {
	p.pos++ // skip '@'
	start := p.pos
	for p.pos < len(p.input) && isIdentChar(p.input[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, fmt.Errorf("empty parameter name at position %d", start)
	}
	return Param(p.input[start:p.pos]), nil
}

func (p *parser) parseString(quote byte) (*Expression, error) {
	p.pos++ // skip opening quote
	start := p.pos
	for p.pos < len(p.input) && p.input[p.pos] != quote {
		p.pos++
	}
	if p.pos >= len(p.input) {
		return nil, fmt.Errorf("unterminated string literal")
	}
	s := p.input[start:p.pos]
	p.pos++ // skip closing quote
	return Constant(s), nil
}

func (p *parser) parseNumber() (*Expression, error) {
	start := p.pos
	if p.input[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.input) && (unicode.IsDigit(rune(p.input[p.pos])) || p.input[p.pos] == '.') {
		p.pos++
	}
	text := p.input[start:p.pos]
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q: %w", text, err)
	}
	return Constant(f), nil
}

func (p *parser) parseIdentifier() (*Expression, error) {
	start := p.pos
	for p.pos < len(p.input) && (isIdentChar(p.input[p.pos]) || p.input[p.pos] == '.' || p.input[p.pos] == '$') {
		p.pos++
	}
	if p.pos == start {
		return nil, fmt.Errorf("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	word := p.input[start:p.pos]

	switch strings.ToLower(word) {
	case "true":
		return Constant(true), nil
	case "false":
		return Constant(false), nil
	case "null":
		return Constant(nil), nil
	}

	// Path: strip optional "$." root marker, split on dots.
	trimmed := strings.TrimPrefix(word, "$.")
	if trimmed == "" || trimmed == "$" {
		return nil, fmt.Errorf("empty path expression %q", word)
	}
	fields := strings.Split(trimmed, ".")
	for _, f := range fields {
		if f == "" {
			return nil, fmt.Errorf("malformed path %q", word)
		}
	}
	return Path(fields...), nil
}

func (p *parser) acceptOperator() (Kind, bool) {
	p.skipSpaces()
	rest := p.input[p.pos:]
	ops := []struct {
		text string
		kind Kind
	}{
		{">=", KindGreaterOrEqual},
		{"<=", KindLessOrEqual},
		{"!=", KindNotEqual},
		{"<>", KindNotEqual},
		{"==", KindEqual},
		{"=", KindEqual},
		{">", KindGreater},
		{"<", KindLess},
	}
	for _, op := range ops {
		if strings.HasPrefix(rest, op.text) {
			p.pos += len(op.text)
			return op.kind, true
		}
	}
	return 0, false
}

// acceptKeyword consumes a case-insensitive word with a boundary after it.
func (p *parser) acceptKeyword(word string) bool {
	p.skipSpaces()
	end := p.pos + len(word)
	if end > len(p.input) {
		return false
	}
	if !strings.EqualFold(p.input[p.pos:end], word) {
		return false
	}
	if end < len(p.input) && isIdentChar(p.input[end]) {
		return false
	}
	p.pos = end
	return true
}

func (p *parser) acceptSymbol(sym string) bool {
	p.skipSpaces()
	if strings.HasPrefix(p.input[p.pos:], sym) {
		p.pos += len(sym)
		return true
	}
	return false
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func isIdentChar(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}
