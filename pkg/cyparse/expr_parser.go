package cyparse

import (
	"fmt"

	"github.com/orneryd/lynxcore/pkg/expr"
)

// parser walks a token slice with a single lookahead cursor, in the
// same style as the straga-Mimir_lite skeleton's pos-based scanning
// but over real tokens instead of raw query substrings.
type parser struct {
	tokens []Token
	pos    int
}

func newParser(tokens []Token) *parser {
	return &parser{tokens: tokens}
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) peekAt(offset int) Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *parser) next() Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) atEOF() bool {
	return p.peek().Kind == TokEOF
}

func (p *parser) isPunct(text string) bool {
	t := p.peek()
	return t.Kind == TokPunct && t.Text == text
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.Kind == TokKeyword && t.Text == kw
}

func (p *parser) expectPunct(text string) error {
	if !p.isPunct(text) {
		return p.errorf("expected %q", text)
	}
	p.next()
	return nil
}

func (p *parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return p.errorf("expected keyword %q", kw)
	}
	p.next()
	return nil
}

func (p *parser) errorf(format string, args ...interface{}) error {
	t := p.peek()
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s at position %d (got %q)", msg, t.Pos, t.Text)
}

// ParseExpression parses a single standalone expression, useful for
// tests and for embedding Cypher expressions in other contexts.
func ParseExpression(src string) (expr.Expr, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := newParser(tokens)
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, p.errorf("unexpected trailing input")
	}
	return e, nil
}

// parseExpr is the entry point for the full operator-precedence chain,
// lowest precedence (OR) first.
func (p *parser) parseExpr() (expr.Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (expr.Expr, error) {
	left, err := p.parseXor()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		p.next()
		right, err := p.parseXor()
		if err != nil {
			return nil, err
		}
		left = expr.Or{Left: left, Right: right}
	}
	return left, nil
}

// XOR has no direct Expr node; a XOR b is lowered to (a OR b) AND NOT
// (a AND b).
func (p *parser) parseXor() (expr.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("XOR") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		both := expr.And{Left: left, Right: right}
		either := expr.Or{Left: left, Right: right}
		left = expr.And{Left: either, Right: expr.Not{Operand: both}}
	}
	return left, nil
}

func (p *parser) parseAnd() (expr.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = expr.And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (expr.Expr, error) {
	if p.isKeyword("NOT") {
		p.next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return expr.Not{Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (expr.Expr, error) {
	left, err := p.parseStringPredicate()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.comparisonOp()
		if !ok {
			break
		}
		p.next()
		right, err := p.parseStringPredicate()
		if err != nil {
			return nil, err
		}
		left = expr.Comparison{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) comparisonOp() (expr.CompareOp, bool) {
	t := p.peek()
	if t.Kind != TokPunct {
		return 0, false
	}
	switch t.Text {
	case "=":
		return expr.OpEquals, true
	case "<>":
		return expr.OpNotEquals, true
	case "<":
		return expr.OpLessThan, true
	case "<=":
		return expr.OpLessThanOrEqual, true
	case ">":
		return expr.OpGreaterThan, true
	case ">=":
		return expr.OpGreaterThanOrEqual, true
	default:
		return 0, false
	}
}

// parseStringPredicate handles STARTS WITH / ENDS WITH / CONTAINS /
// IN / IS NULL / IS NOT NULL, all at the same precedence tier as
// Cypher's grammar places them, between comparison and additive.
func (p *parser) parseStringPredicate() (expr.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isKeyword("STARTS"):
			p.next()
			if err := p.expectKeyword("WITH"); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = expr.StringPredicate{Op: expr.OpStartsWith, Left: left, Right: right}
		case p.isKeyword("ENDS"):
			p.next()
			if err := p.expectKeyword("WITH"); err != nil {
				return nil, err
			}
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = expr.StringPredicate{Op: expr.OpEndsWith, Left: left, Right: right}
		case p.isKeyword("CONTAINS"):
			p.next()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = expr.StringPredicate{Op: expr.OpContains, Left: left, Right: right}
		case p.isKeyword("IN"):
			p.next()
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = expr.In{Left: left, Right: right}
		case p.isKeyword("IS"):
			p.next()
			negate := false
			if p.isKeyword("NOT") {
				negate = true
				p.next()
			}
			if err := p.expectKeyword("NULL"); err != nil {
				return nil, err
			}
			if negate {
				left = expr.IsNotNull{Operand: left}
			} else {
				left = expr.IsNull{Operand: left}
			}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseAdditive() (expr.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		op := expr.OpAdd
		if p.peek().Text == "-" {
			op = expr.OpSubtract
		}
		p.next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = expr.Arithmetic{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (expr.Expr, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("/") || p.isPunct("%") {
		var op expr.ArithOp
		switch p.peek().Text {
		case "*":
			op = expr.OpMultiply
		case "/":
			op = expr.OpDivide
		case "%":
			op = expr.OpModulo
		}
		p.next()
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		left = expr.Arithmetic{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parsePower() (expr.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.isPunct("^") {
		p.next()
		right, err := p.parsePower() // right-associative
		if err != nil {
			return nil, err
		}
		return expr.Arithmetic{Op: expr.OpPower, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *parser) parseUnary() (expr.Expr, error) {
	if p.isPunct("-") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.Arithmetic{Op: expr.OpSubtract, Left: expr.IntegerLiteral{Value: 0}, Right: operand}, nil
	}
	if p.isPunct("+") {
		p.next()
		return p.parseUnary()
	}
	return p.parsePostfix()
}

// parsePostfix handles property access (.key) and map/list indexing
// ([expr]) chained onto an atom; list slicing ([start..end]) is not
// parsed.
func (p *parser) parsePostfix() (expr.Expr, error) {
	operand, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct("."):
			p.next()
			key := p.next()
			if key.Kind != TokIdent && key.Kind != TokKeyword {
				return nil, p.errorf("expected property name")
			}
			operand = expr.Property{Src: operand, Key: key.Text}
		case p.isPunct("["):
			p.next()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			operand = expr.ContainerIndex{Container: operand, Index: idx}
		default:
			return operand, nil
		}
	}
}

func (p *parser) parseAtom() (expr.Expr, error) {
	t := p.peek()
	switch t.Kind {
	case TokInteger:
		p.next()
		return expr.IntegerLiteral{Value: t.IntVal}, nil
	case TokFloat:
		p.next()
		return expr.DoubleLiteral{Value: t.FloatVal}, nil
	case TokString:
		p.next()
		return expr.StringLiteral{Value: t.Text}, nil
	case TokParameter:
		p.next()
		return expr.Parameter{Name: t.Text}, nil
	case TokPunct:
		switch t.Text {
		case "(":
			p.next()
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return e, nil
		case "[":
			return p.parseListLiteral()
		case "{":
			return p.parseMapLiteral()
		}
	case TokKeyword:
		switch t.Text {
		case "TRUE":
			p.next()
			return expr.BooleanLiteral{Value: true}, nil
		case "FALSE":
			p.next()
			return expr.BooleanLiteral{Value: false}, nil
		case "NULL":
			p.next()
			return expr.NullLiteral{}, nil
		case "CASE":
			return p.parseCase()
		case "NOT":
			return p.parseNot()
		}
	case TokIdent:
		return p.parseIdentOrInvocation()
	}
	return nil, p.errorf("unexpected token %q", t.Text)
}

func (p *parser) parseListLiteral() (expr.Expr, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var items []expr.Expr
	for !p.isPunct("]") {
		item, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.isPunct(",") {
			p.next()
			continue
		}
		break
	}
	if err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return expr.ListLiteral{Items: items}, nil
}

func (p *parser) parseMapLiteral() (*expr.MapExpression, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var entries []expr.MapEntry
	for !p.isPunct("}") {
		keyTok := p.next()
		if keyTok.Kind != TokIdent && keyTok.Kind != TokKeyword {
			return nil, p.errorf("expected map key")
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		entries = append(entries, expr.MapEntry{Key: keyTok.Text, Value: val})
		if p.isPunct(",") {
			p.next()
			continue
		}
		break
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return &expr.MapExpression{Entries: entries}, nil
}

func (p *parser) parseCase() (expr.Expr, error) {
	if err := p.expectKeyword("CASE"); err != nil {
		return nil, err
	}
	var subject expr.Expr
	if !p.isKeyword("WHEN") {
		s, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		subject = s
	}
	var alternatives []expr.CaseAlternative
	for p.isKeyword("WHEN") {
		p.next()
		pred, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("THEN"); err != nil {
			return nil, err
		}
		result, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		alternatives = append(alternatives, expr.CaseAlternative{Predicate: pred, Result: result})
	}
	var def expr.Expr
	if p.isKeyword("ELSE") {
		p.next()
		d, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		def = d
	}
	if err := p.expectKeyword("END"); err != nil {
		return nil, err
	}
	return expr.CaseExpression{Subject: subject, Alternatives: alternatives, Default: def}, nil
}

// lookaheadDottedCall reports whether the tokens starting at the
// current position form ident(.ident)* immediately followed by "(",
// without consuming anything. On success it returns the identifier
// segments.
func (p *parser) lookaheadDottedCall() ([]string, bool) {
	offset := 0
	var segments []string
	for {
		tok := p.peekAt(offset)
		if tok.Kind != TokIdent {
			return nil, false
		}
		segments = append(segments, tok.Text)
		offset++
		next := p.peekAt(offset)
		if next.Kind == TokPunct && next.Text == "." && p.peekAt(offset+1).Kind == TokIdent {
			offset++
			continue
		}
		break
	}
	last := p.peekAt(offset)
	if last.Kind == TokPunct && last.Text == "(" {
		return segments, true
	}
	return nil, false
}

// parseIdentOrInvocation disambiguates a bare variable reference (or
// the start of a property-access chain left for parsePostfix to
// handle) from a dotted function/procedure call such as
// apoc.label.list(...), by scanning ahead for a run of
// ident(.ident)* immediately followed by "(" before consuming
// anything. Without that lookahead, a plain property chain like
// n.name would be swallowed here instead of by parsePostfix.
func (p *parser) parseIdentOrInvocation() (expr.Expr, error) {
	segments, ok := p.lookaheadDottedCall()
	if !ok {
		return expr.Variable{Name: p.next().Text}, nil
	}
	for range segments {
		p.next() // ident
		if p.isPunct(".") {
			p.next()
		}
	}
	name := segments[len(segments)-1]
	namespace := ""
	if len(segments) > 1 {
		namespace = segments[0]
		for _, s := range segments[1 : len(segments)-1] {
			namespace += "." + s
		}
	}
	p.next() // consume "("
	if name == "count" && p.isPunct("*") {
		p.next()
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return expr.CountStar{}, nil
	}
	distinct := false
	if p.isKeyword("DISTINCT") {
		distinct = true
		p.next()
	}
	var args []expr.Expr
	for !p.isPunct(")") {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.isPunct(",") {
			p.next()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return expr.ProcedureExpression{Invocation: expr.Invocation{
		Namespace: namespace,
		Name:      name,
		Args:      args,
		Distinct:  distinct,
	}}, nil
}
