package cyparse

import (
	"github.com/orneryd/lynxcore/pkg/expr"
)

var clauseKeywords = map[string]bool{
	"MATCH": true, "OPTIONAL": true, "CREATE": true, "MERGE": true,
	"SET": true, "DELETE": true, "DETACH": true, "RETURN": true,
	"WITH": true, "UNWIND": true, "CALL": true,
}

// Parse tokenizes and parses a full Cypher statement into a Query,
// the entry point pkg/runner calls before compiling each SingleQuery
// into a pkg/plan.Operator tree.
func Parse(src string) (*Query, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := newParser(tokens)
	q, err := p.parseQuery()
	if err != nil {
		return nil, err
	}
	if !p.atEOF() {
		return nil, p.errorf("unexpected trailing input")
	}
	return q, nil
}

func (p *parser) parseQuery() (*Query, error) {
	var q Query
	for {
		part, err := p.parseSingleQuery()
		if err != nil {
			return nil, err
		}
		q.Parts = append(q.Parts, part)
		if !p.isKeyword("UNION") {
			break
		}
		p.next()
		all := false
		if p.isKeyword("ALL") {
			all = true
			p.next()
		}
		q.UnionAll = append(q.UnionAll, all)
	}
	return &q, nil
}

func (p *parser) parseSingleQuery() (SingleQuery, error) {
	var sq SingleQuery
	for {
		if p.atEOF() || p.isKeyword("UNION") {
			break
		}
		t := p.peek()
		if t.Kind != TokKeyword || !clauseKeywords[t.Text] {
			break
		}
		clause, err := p.parseClause()
		if err != nil {
			return sq, err
		}
		sq.Clauses = append(sq.Clauses, clause)
	}
	return sq, nil
}

func (p *parser) parseClause() (Clause, error) {
	t := p.peek()
	if t.Kind != TokKeyword {
		return nil, p.errorf("expected clause keyword")
	}
	switch t.Text {
	case "MATCH", "OPTIONAL":
		return p.parseMatch()
	case "CREATE":
		return p.parseCreate()
	case "MERGE":
		return p.parseMerge()
	case "SET":
		return p.parseSet()
	case "DELETE", "DETACH":
		return p.parseDelete()
	case "RETURN":
		return p.parseReturn()
	case "WITH":
		return p.parseWith()
	case "UNWIND":
		return p.parseUnwind()
	case "CALL":
		return p.parseCall()
	default:
		return nil, p.errorf("unsupported clause keyword %q", t.Text)
	}
}

func (p *parser) parseMatch() (Clause, error) {
	optional := false
	if p.isKeyword("OPTIONAL") {
		optional = true
		p.next()
	}
	if err := p.expectKeyword("MATCH"); err != nil {
		return nil, err
	}
	patterns, err := p.parsePatternList()
	if err != nil {
		return nil, err
	}
	var where expr.Expr
	if p.isKeyword("WHERE") {
		p.next()
		where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return MatchClause{Optional: optional, Patterns: patterns, Where: where}, nil
}

func (p *parser) parseCreate() (Clause, error) {
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	patterns, err := p.parsePatternList()
	if err != nil {
		return nil, err
	}
	return CreateClause{Patterns: patterns}, nil
}

func (p *parser) parseMerge() (Clause, error) {
	if err := p.expectKeyword("MERGE"); err != nil {
		return nil, err
	}
	pattern, err := p.parsePattern()
	if err != nil {
		return nil, err
	}
	var actions []MergeAction
	for p.isKeyword("ON") {
		p.next()
		onCreate := false
		switch {
		case p.isKeyword("CREATE"):
			onCreate = true
			p.next()
		case p.isKeyword("MATCH"):
			p.next()
		default:
			return nil, p.errorf("expected CREATE or MATCH after ON")
		}
		if err := p.expectKeyword("SET"); err != nil {
			return nil, err
		}
		items, err := p.parseSetItems()
		if err != nil {
			return nil, err
		}
		actions = append(actions, MergeAction{OnCreate: onCreate, Items: items})
	}
	return MergeClause{Pattern: pattern, Actions: actions}, nil
}

func (p *parser) parseSet() (Clause, error) {
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	items, err := p.parseSetItems()
	if err != nil {
		return nil, err
	}
	return SetClause{Items: items}, nil
}

func (p *parser) parseSetItems() ([]SetItem, error) {
	var items []SetItem
	for {
		item, err := p.parseSetItem()
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
	return items, nil
}

// parseSetItem parses either `n.prop = expr` or the label shorthand
// `n:Label:Other`; the `n += {map}` form is not accepted.
func (p *parser) parseSetItem() (SetItem, error) {
	target, err := p.parsePostfix()
	if err != nil {
		return SetItem{}, err
	}
	if p.isPunct(":") {
		variable, ok := target.(expr.Variable)
		if !ok {
			return SetItem{}, p.errorf("label shorthand requires a variable target")
		}
		var labels []string
		for p.isPunct(":") {
			p.next()
			lbl := p.next()
			labels = append(labels, lbl.Text)
		}
		return SetItem{Target: variable, Labels: labels}, nil
	}
	if err := p.expectPunct("="); err != nil {
		return SetItem{}, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return SetItem{}, err
	}
	return SetItem{Target: target, Value: val}, nil
}

func (p *parser) parseDelete() (Clause, error) {
	detach := false
	if p.isKeyword("DETACH") {
		detach = true
		p.next()
	}
	if err := p.expectKeyword("DELETE"); err != nil {
		return nil, err
	}
	var exprs []expr.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if p.isPunct(",") {
			p.next()
			continue
		}
		break
	}
	return DeleteClause{Detach: detach, Expressions: exprs}, nil
}

func (p *parser) parseReturn() (Clause, error) {
	if err := p.expectKeyword("RETURN"); err != nil {
		return nil, err
	}
	rc := ReturnClause{}
	distinct, star, items, err := p.parseProjection()
	if err != nil {
		return nil, err
	}
	rc.Distinct = distinct
	rc.Star = star
	rc.Items = items

	if p.isKeyword("ORDER") {
		rc.OrderBy, err = p.parseOrderBy()
		if err != nil {
			return nil, err
		}
	}
	if p.isKeyword("SKIP") {
		p.next()
		rc.Skip, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if p.isKeyword("LIMIT") {
		p.next()
		rc.Limit, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return rc, nil
}

func (p *parser) parseWith() (Clause, error) {
	if err := p.expectKeyword("WITH"); err != nil {
		return nil, err
	}
	wc := WithClause{}
	distinct, star, items, err := p.parseProjection()
	if err != nil {
		return nil, err
	}
	wc.Distinct = distinct
	wc.Star = star
	wc.Items = items

	if p.isKeyword("WHERE") {
		p.next()
		wc.Where, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if p.isKeyword("ORDER") {
		wc.OrderBy, err = p.parseOrderBy()
		if err != nil {
			return nil, err
		}
	}
	if p.isKeyword("SKIP") {
		p.next()
		wc.Skip, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if p.isKeyword("LIMIT") {
		p.next()
		wc.Limit, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return wc, nil
}

// parseProjection parses the shared RETURN/WITH body: optional
// DISTINCT, then either "*" or a comma-separated list of `expr [AS
// alias]` items.
func (p *parser) parseProjection() (distinct bool, star bool, items []ReturnItem, err error) {
	if p.isKeyword("DISTINCT") {
		distinct = true
		p.next()
	}
	if p.isPunct("*") {
		p.next()
		star = true
		return
	}
	for {
		e, perr := p.parseExpr()
		if perr != nil {
			err = perr
			return
		}
		alias := ""
		if p.isKeyword("AS") {
			p.next()
			tok := p.next()
			alias = tok.Text
		}
		items = append(items, ReturnItem{Expr: e, Alias: alias})
		if p.isPunct(",") {
			p.next()
			continue
		}
		break
	}
	return
}

func (p *parser) parseOrderBy() ([]SortItem, error) {
	if err := p.expectKeyword("ORDER"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("BY"); err != nil {
		return nil, err
	}
	var items []SortItem
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		desc := false
		switch {
		case p.isKeyword("DESC") || p.isKeyword("DESCENDING"):
			desc = true
			p.next()
		case p.isKeyword("ASC") || p.isKeyword("ASCENDING"):
			p.next()
		}
		items = append(items, SortItem{Expr: e, Descending: desc})
		if p.isPunct(",") {
			p.next()
			continue
		}
		break
	}
	return items, nil
}

func (p *parser) parseUnwind() (Clause, error) {
	if err := p.expectKeyword("UNWIND"); err != nil {
		return nil, err
	}
	source, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	alias := p.next().Text
	return UnwindClause{Source: source, Alias: alias}, nil
}

// parseCall parses a standalone procedure call, e.g.
// `CALL apoc.label.list() YIELD label`. The invocation always needs a
// parenthesized argument list, even when empty, matching Cypher's CALL
// grammar rather than the plain-function-call expression grammar.
func (p *parser) parseCall() (Clause, error) {
	if err := p.expectKeyword("CALL"); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	inv, ok := e.(expr.ProcedureExpression)
	if !ok {
		return nil, p.errorf("expected a procedure invocation after CALL")
	}
	cc := CallClause{Invocation: inv.Invocation}
	if p.isKeyword("YIELD") {
		p.next()
		for {
			tok := p.next()
			cc.Yield = append(cc.Yield, tok.Text)
			if p.isPunct(",") {
				p.next()
				continue
			}
			break
		}
	}
	return cc, nil
}

// parsePatternList parses a comma-separated list of patterns, each
// optionally named as a whole path (p = (a)-->(b)).
func (p *parser) parsePatternList() ([]Pattern, error) {
	var patterns []Pattern
	for {
		pat, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, pat)
		if p.isPunct(",") {
			p.next()
			continue
		}
		break
	}
	return patterns, nil
}

func (p *parser) parsePattern() (Pattern, error) {
	var pat Pattern
	if p.peek().Kind == TokIdent && p.peekAt(1).Kind == TokPunct && p.peekAt(1).Text == "=" {
		pat.PathVariable = p.next().Text
		p.next() // consume "="
	}
	elem, err := p.parsePatternElement()
	if err != nil {
		return pat, err
	}
	pat.Elements = append(pat.Elements, elem)
	return pat, nil
}

func (p *parser) parsePatternElement() (PatternElement, error) {
	var elem PatternElement
	node, err := p.parseNodePattern()
	if err != nil {
		return elem, err
	}
	elem.Nodes = append(elem.Nodes, node)

	for p.isPunct("-") || p.isPunct("<") {
		rel, err := p.parseRelPattern()
		if err != nil {
			return elem, err
		}
		elem.Rels = append(elem.Rels, rel)
		next, err := p.parseNodePattern()
		if err != nil {
			return elem, err
		}
		elem.Nodes = append(elem.Nodes, next)
	}
	return elem, nil
}

func (p *parser) parseNodePattern() (NodePattern, error) {
	var np NodePattern
	if err := p.expectPunct("("); err != nil {
		return np, err
	}
	if p.peek().Kind == TokIdent {
		np.Variable = p.next().Text
	}
	for p.isPunct(":") {
		p.next()
		lbl := p.next()
		np.Labels = append(np.Labels, lbl.Text)
	}
	if p.isPunct("{") {
		m, err := p.parseMapLiteral()
		if err != nil {
			return np, err
		}
		np.Properties = m
	}
	if err := p.expectPunct(")"); err != nil {
		return np, err
	}
	return np, nil
}

// parseRelPattern parses one of: -->, <--, --, -[...]->, <-[...]-,
// -[...]-.
func (p *parser) parseRelPattern() (RelPattern, error) {
	var rp RelPattern
	leftArrow := false
	if p.isPunct("<") {
		leftArrow = true
		p.next()
	}
	if err := p.expectPunct("-"); err != nil {
		return rp, err
	}
	if p.isPunct("[") {
		p.next()
		if p.peek().Kind == TokIdent {
			rp.Variable = p.next().Text
		}
		if p.isPunct(":") {
			p.next()
			rp.Types = append(rp.Types, p.next().Text)
			for p.isPunct("|") {
				p.next()
				rp.Types = append(rp.Types, p.next().Text)
			}
		}
		if p.isPunct("*") {
			p.next()
			rp.Quantified = true
			rp.MinHops, rp.MaxHops = 1, -1
			if p.peek().Kind == TokInteger {
				rp.MinHops = int(p.next().IntVal)
				rp.MaxHops = rp.MinHops
			}
			if p.isPunct("..") {
				p.next()
				rp.MaxHops = -1
				if p.peek().Kind == TokInteger {
					rp.MaxHops = int(p.next().IntVal)
				}
			}
		}
		if p.isPunct("{") {
			m, err := p.parseMapLiteral()
			if err != nil {
				return rp, err
			}
			rp.Properties = m
		}
		if err := p.expectPunct("]"); err != nil {
			return rp, err
		}
	}
	rightArrow := false
	if err := p.expectPunct("-"); err != nil {
		return rp, err
	}
	if p.isPunct(">") {
		rightArrow = true
		p.next()
	}
	switch {
	case leftArrow && !rightArrow:
		rp.Dir = DirIn
	case rightArrow && !leftArrow:
		rp.Dir = DirOut
	default:
		rp.Dir = DirEither
	}
	return rp, nil
}
