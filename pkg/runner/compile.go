package runner

import (
	"fmt"

	"github.com/orneryd/lynxcore/pkg/cyparse"
	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/lyerr"
	"github.com/orneryd/lynxcore/pkg/plan"
)

// compiler turns one parsed pkg/cyparse.Query into a pkg/plan.Operator
// tree. There is no separate logical-plan stage: clauses map onto
// physical operators directly, the same one-clause-one-handler shape
// the teacher's ast_executor.go uses, just lazily pulled instead of
// eagerly materialized per clause.
type compiler struct {
	exec  *expr.ExecutionContext
	bound map[string]bool
	anons int
}

func newCompiler(exec *expr.ExecutionContext) *compiler {
	return &compiler{exec: exec, bound: map[string]bool{}}
}

func (c *compiler) anon() string {
	c.anons++
	return fmt.Sprintf("  anon%d", c.anons)
}

// compileQuery compiles every part of a UNION/UNION ALL query and
// combines them left to right with plan.Union.
func compileQuery(q *cyparse.Query, exec *expr.ExecutionContext) (plan.Operator, error) {
	if len(q.Parts) == 0 {
		return nil, lyerr.InvalidArgument("empty query")
	}
	c := newCompiler(exec)
	op, err := c.compileSingleQuery(q.Parts[0])
	if err != nil {
		return nil, err
	}
	for i, all := range q.UnionAll {
		c2 := newCompiler(exec)
		rhs, err := c2.compileSingleQuery(q.Parts[i+1])
		if err != nil {
			return nil, err
		}
		op = &plan.Union{Lhs: op, Rhs: rhs, All: all}
	}
	return op, nil
}

// queryIsWrite reports whether any part of the query contains a
// mutating clause, so Runner.Run knows whether to open a Writer at
// all.
func queryIsWrite(q *cyparse.Query) bool {
	for _, part := range q.Parts {
		for _, cl := range part.Clauses {
			switch cl.(type) {
			case cyparse.CreateClause, cyparse.MergeClause, cyparse.SetClause, cyparse.DeleteClause:
				return true
			}
		}
	}
	return false
}

func (c *compiler) compileSingleQuery(sq cyparse.SingleQuery) (plan.Operator, error) {
	var op plan.Operator
	for _, cl := range sq.Clauses {
		var err error
		switch n := cl.(type) {
		case cyparse.MatchClause:
			op, err = c.applyMatch(op, n)
		case cyparse.CreateClause:
			op, err = c.applyCreate(op, n)
		case cyparse.MergeClause:
			op, err = c.applyMerge(op, n)
		case cyparse.SetClause:
			op, err = c.applySet(op, n)
		case cyparse.DeleteClause:
			op, err = c.applyDelete(op, n)
		case cyparse.UnwindClause:
			op, err = c.applyUnwind(op, n)
		case cyparse.CallClause:
			op, err = c.applyCall(op, n)
		case cyparse.WithClause:
			op, err = c.applyWith(op, n)
		case cyparse.ReturnClause:
			op, err = c.applyReturn(op, n)
		default:
			return nil, lyerr.InvalidArgument("unsupported clause %T", cl)
		}
		if err != nil {
			return nil, err
		}
	}
	if op == nil {
		return nil, lyerr.InvalidArgument("query produced no operator tree")
	}
	return op, nil
}

// --- MATCH -----------------------------------------------------------

func (c *compiler) applyMatch(cur plan.Operator, m cyparse.MatchClause) (plan.Operator, error) {
	var patternOp plan.Operator
	for i, pat := range m.Patterns {
		op, err := c.buildPattern(pat)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			patternOp = op
			continue
		}
		patternOp = &plan.Apply{Outer: patternOp, Inner: op}
	}
	if m.Where != nil {
		patternOp = &plan.Filter{Child: patternOp, Predicate: m.Where}
	}

	if cur == nil {
		return patternOp, nil
	}
	if m.Optional {
		return &optionalApply{Outer: cur, Inner: patternOp}, nil
	}
	return &plan.Apply{Outer: cur, Inner: patternOp}, nil
}

// buildPattern compiles one comma-free pattern element chain
// (a)-[r]->(b)-[s]->(c) into a NodeScan/Expand chain. When the first
// node variable is already bound by an earlier clause, the chain
// starts from a carryVar surfacing that binding instead of rescanning
// the graph for it.
func (c *compiler) buildPattern(pat cyparse.Pattern) (plan.Operator, error) {
	el := pat.Elements[0]
	first := el.Nodes[0]
	if first.Variable == "" {
		first.Variable = c.anon()
	}

	var op plan.Operator
	if c.bound[first.Variable] {
		op = &carryVar{Name: first.Variable}
		if pred := c.filterOnNode(first.Variable, first.Labels, first.Properties); pred != nil {
			op = &plan.Filter{Child: op, Predicate: pred}
		}
	} else {
		op = &plan.NodeScan{Variable: first.Variable, Labels: first.Labels, Props: mapExprToProps(first.Properties)}
	}
	c.bound[first.Variable] = true

	fromVar := first.Variable
	for i, rel := range el.Rels {
		to := el.Nodes[i+1]
		if to.Variable == "" {
			to.Variable = c.anon()
		}
		relVar := rel.Variable
		if relVar == "" {
			relVar = c.anon()
		}
		dir := planDirection(rel.Dir)
		hops := 1
		if rel.Quantified {
			hops = rel.MinHops
			if hops < 1 {
				hops = 1
			}
		}
		cur := fromVar
		for h := 0; h < hops; h++ {
			stepRelVar := relVar
			stepToVar := to.Variable
			if h < hops-1 {
				stepRelVar = c.anon()
				stepToVar = c.anon()
			}
			op = &plan.Expand{
				Child:     op,
				From:      cur,
				RelVar:    stepRelVar,
				ToVar:     stepToVar,
				Direction: dir,
				Types:     rel.Types,
			}
			cur = stepToVar
		}
		c.bound[relVar] = true
		c.bound[to.Variable] = true

		if pred := c.filterOnNode(to.Variable, to.Labels, to.Properties); pred != nil {
			op = &plan.Filter{Child: op, Predicate: pred}
		}
		fromVar = to.Variable
	}

	return op, nil
}

func planDirection(d cyparse.Direction) plan.Direction {
	switch d {
	case cyparse.DirOut:
		return plan.DirOutgoing
	case cyparse.DirIn:
		return plan.DirIncoming
	default:
		return plan.DirEither
	}
}

// filterOnNode builds a HasLabels/property-equality conjunction to
// apply to an Expand step's newly bound "to" node, since plan.Expand
// itself carries no label/property filter of its own.
func (c *compiler) filterOnNode(variable string, labels []string, props *expr.MapExpression) expr.Expr {
	var pred expr.Expr
	if len(labels) > 0 {
		pred = expr.HasLabels{Operand: expr.Variable{Name: variable}, Labels: labels}
	}
	if props != nil {
		for _, entry := range props.Entries {
			eq := expr.Comparison{
				Op:    expr.OpEquals,
				Left:  expr.Property{Src: expr.Variable{Name: variable}, Key: entry.Key},
				Right: entry.Value,
			}
			if pred == nil {
				pred = eq
			} else {
				pred = expr.And{Left: pred, Right: eq}
			}
		}
	}
	return pred
}

func mapExprToProps(m *expr.MapExpression) map[string]expr.Expr {
	if m == nil {
		return nil
	}
	out := make(map[string]expr.Expr, len(m.Entries))
	for _, e := range m.Entries {
		out[e.Key] = e.Value
	}
	return out
}

// --- CREATE ------------------------------------------------------------

func (c *compiler) applyCreate(cur plan.Operator, cl cyparse.CreateClause) (plan.Operator, error) {
	patterns := make([]plan.CreatePattern, 0, len(cl.Patterns))
	for _, pat := range cl.Patterns {
		cp, err := c.buildCreatePattern(pat)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, cp)
	}
	return &plan.Create{Child: cur, Patterns: patterns}, nil
}

func (c *compiler) buildCreatePattern(pat cyparse.Pattern) (plan.CreatePattern, error) {
	el := pat.Elements[0]
	var cp plan.CreatePattern
	names := make([]string, len(el.Nodes))
	for i, n := range el.Nodes {
		name := n.Variable
		if name == "" {
			name = c.anon()
		}
		names[i] = name
		cp.Nodes = append(cp.Nodes, plan.NodeSpec{Variable: name, Labels: n.Labels, Props: mapExprToProps(n.Properties)})
		c.bound[name] = true
	}
	for i, r := range el.Rels {
		relType := ""
		if len(r.Types) > 0 {
			relType = r.Types[0]
		}
		cp.Rels = append(cp.Rels, plan.RelSpec{
			Variable: r.Variable,
			From:     names[i],
			To:       names[i+1],
			Type:     relType,
			Props:    mapExprToProps(r.Properties),
		})
		if r.Variable != "" {
			c.bound[r.Variable] = true
		}
	}
	return cp, nil
}

// --- MERGE ---------------------------------------------------------------

func (c *compiler) applyMerge(cur plan.Operator, cl cyparse.MergeClause) (plan.Operator, error) {
	el := cl.Pattern.Elements[0]
	if len(el.Nodes) != 1 || len(el.Rels) != 0 {
		return nil, lyerr.InvalidArgument("MERGE supports a single node pattern only")
	}
	n := el.Nodes[0]
	if n.Variable == "" {
		n.Variable = c.anon()
	}
	m := &plan.Merge{
		Child: cur,
		Node:  plan.NodeSpec{Variable: n.Variable, Labels: n.Labels, Props: mapExprToProps(n.Properties)},
	}
	c.bound[n.Variable] = true
	for _, action := range cl.Actions {
		actions, err := c.setActions(action.Items)
		if err != nil {
			return nil, err
		}
		if action.OnCreate {
			m.OnCreate = append(m.OnCreate, actions...)
		} else {
			m.OnMatch = append(m.OnMatch, actions...)
		}
	}
	return m, nil
}

func (c *compiler) setActions(items []cyparse.SetItem) ([]plan.SetAction, error) {
	out := make([]plan.SetAction, 0, len(items))
	for _, it := range items {
		if len(it.Labels) > 0 {
			return nil, lyerr.InvalidArgument("ON CREATE/ON MATCH SET does not support label shorthand")
		}
		target, key, err := c.propertyTarget(it.Target)
		if err != nil {
			return nil, err
		}
		out = append(out, plan.SetAction{Target: target, Key: key, Value: it.Value})
	}
	return out, nil
}

// propertyTarget splits a SET item's Property target expression into
// the variable name SetProperty/SetAction need and the property key,
// since pkg/plan's mutation operators take these as separate strings
// rather than an expr.Property.
func (c *compiler) propertyTarget(target expr.Expr) (variable, key string, err error) {
	prop, ok := target.(expr.Property)
	if !ok {
		return "", "", lyerr.InvalidArgument("SET target must be a property reference")
	}
	v, ok := prop.Src.(expr.Variable)
	if !ok {
		return "", "", lyerr.InvalidArgument("SET target must reference a variable")
	}
	return v.Name, prop.Key, nil
}

// --- SET -----------------------------------------------------------------

func (c *compiler) applySet(cur plan.Operator, cl cyparse.SetClause) (plan.Operator, error) {
	op := cur
	for _, it := range cl.Items {
		if len(it.Labels) > 0 {
			v, ok := it.Target.(expr.Variable)
			if !ok {
				return nil, lyerr.InvalidArgument("SET label shorthand target must be a variable")
			}
			op = &labelSet{Child: op, Target: v.Name, Labels: it.Labels}
			continue
		}
		variable, key, err := c.propertyTarget(it.Target)
		if err != nil {
			return nil, err
		}
		op = &plan.SetProperty{Child: op, Target: variable, Key: key, Value: it.Value}
	}
	return op, nil
}

// --- DELETE ----------------------------------------------------------------

func (c *compiler) applyDelete(cur plan.Operator, cl cyparse.DeleteClause) (plan.Operator, error) {
	names := make([]string, 0, len(cl.Expressions))
	for _, e := range cl.Expressions {
		v, ok := e.(expr.Variable)
		if !ok {
			return nil, lyerr.InvalidArgument("DELETE target must be a variable")
		}
		names = append(names, v.Name)
	}
	return &plan.Delete{Child: cur, Variables: names, Detach: cl.Detach}, nil
}

// --- UNWIND ----------------------------------------------------------------

func (c *compiler) applyUnwind(cur plan.Operator, cl cyparse.UnwindClause) (plan.Operator, error) {
	if cur == nil {
		cur = &single{}
	}
	c.bound[cl.Alias] = true
	return &plan.Unwind{Child: cur, Expr: cl.Source, Alias: cl.Alias}, nil
}

// --- CALL ------------------------------------------------------------------

func (c *compiler) applyCall(cur plan.Operator, cl cyparse.CallClause) (plan.Operator, error) {
	if cur == nil {
		cur = &single{}
	}
	for _, y := range cl.Yield {
		c.bound[y] = true
	}
	return &callYield{Child: cur, Invocation: cl.Invocation, Yield: cl.Yield}, nil
}

// --- RETURN / WITH -----------------------------------------------------

func (c *compiler) applyReturn(cur plan.Operator, cl cyparse.ReturnClause) (plan.Operator, error) {
	items, err := c.projectionItems(cur, cl.Items, cl.Star)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		cur = &single{}
	}
	cur, items, err = c.maybeAggregate(cur, items)
	if err != nil {
		return nil, err
	}
	keys, err := c.orderKeys(cl.OrderBy)
	if err != nil {
		return nil, err
	}
	skipN, limitN, err := c.skipLimit(cl.Skip, cl.Limit)
	if err != nil {
		return nil, err
	}
	return &plan.With{
		Child:    cur,
		Items:    items,
		Distinct: cl.Distinct,
		OrderBy:  keys,
		SkipN:    skipN,
		LimitN:   limitN,
	}, nil
}

func (c *compiler) applyWith(cur plan.Operator, cl cyparse.WithClause) (plan.Operator, error) {
	items, err := c.projectionItems(cur, cl.Items, cl.Star)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		cur = &single{}
	}
	cur, items, err = c.maybeAggregate(cur, items)
	if err != nil {
		return nil, err
	}
	keys, err := c.orderKeys(cl.OrderBy)
	if err != nil {
		return nil, err
	}
	skipN, limitN, err := c.skipLimit(cl.Skip, cl.Limit)
	if err != nil {
		return nil, err
	}
	w := &plan.With{
		Child:    cur,
		Items:    items,
		Distinct: cl.Distinct,
		OrderBy:  keys,
		SkipN:    skipN,
		LimitN:   limitN,
	}
	var op plan.Operator = w
	if cl.Where != nil {
		op = &plan.Filter{Child: op, Predicate: cl.Where}
	}

	// WITH is a pipeline boundary: only the projected aliases remain
	// in scope downstream.
	newBound := make(map[string]bool, len(items))
	for _, it := range items {
		newBound[it.Alias] = true
	}
	c.bound = newBound
	return op, nil
}

// maybeAggregate inserts a plan.Aggregation ahead of the projection
// when any projected item contains an aggregating call, splitting
// items into groupings (passed straight through) and aggregates, and
// returns the Aggregation as the new child the caller's With/Project
// should sit on top of instead of cur.
func (c *compiler) maybeAggregate(cur plan.Operator, items []plan.Item) (plan.Operator, []plan.Item, error) {
	hasAgg := false
	for _, it := range items {
		if c.containsAggregate(it.Expr) {
			hasAgg = true
			break
		}
	}
	if !hasAgg {
		return cur, items, nil
	}
	var groupings, aggregates []plan.Item
	for _, it := range items {
		if c.containsAggregate(it.Expr) {
			aggregates = append(aggregates, it)
		} else {
			groupings = append(groupings, it)
		}
	}
	agg := &plan.Aggregation{Child: cur, Groupings: groupings, Aggregates: aggregates}
	// Aggregation's own output schema already carries groupings then
	// aggregates under their original aliases, so the projection on
	// top of it is just an identity pass-through by name.
	out := make([]plan.Item, 0, len(groupings)+len(aggregates))
	for _, it := range groupings {
		out = append(out, plan.Item{Alias: it.Alias, Expr: expr.Variable{Name: it.Alias}})
	}
	for _, it := range aggregates {
		out = append(out, plan.Item{Alias: it.Alias, Expr: expr.Variable{Name: it.Alias}})
	}
	return agg, out, nil
}

func (c *compiler) containsAggregate(e expr.Expr) bool {
	switch n := e.(type) {
	case expr.CountStar:
		return true
	case expr.ProcedureExpression:
		if desc, ok := c.exec.Procedures.Lookup(n.Invocation.Namespace, n.Invocation.Name, len(n.Invocation.Args)); ok && desc.Aggregating() {
			return true
		}
		for _, a := range n.Invocation.Args {
			if c.containsAggregate(a) {
				return true
			}
		}
		return false
	case expr.Arithmetic:
		return c.containsAggregate(n.Left) || c.containsAggregate(n.Right)
	case expr.Comparison:
		return c.containsAggregate(n.Left) || c.containsAggregate(n.Right)
	case expr.And:
		return c.containsAggregate(n.Left) || c.containsAggregate(n.Right)
	case expr.Or:
		return c.containsAggregate(n.Left) || c.containsAggregate(n.Right)
	case expr.Not:
		return c.containsAggregate(n.Operand)
	case expr.CaseExpression:
		for _, alt := range n.Alternatives {
			if c.containsAggregate(alt.Predicate) || c.containsAggregate(alt.Result) {
				return true
			}
		}
		return n.Default != nil && c.containsAggregate(n.Default)
	default:
		return false
	}
}

func (c *compiler) projectionItems(cur plan.Operator, items []cyparse.ReturnItem, star bool) ([]plan.Item, error) {
	var out []plan.Item
	if star {
		if cur == nil {
			return nil, lyerr.InvalidArgument("RETURN * requires a preceding clause to project from")
		}
		for _, name := range cur.Schema().Names() {
			out = append(out, plan.Item{Alias: name, Expr: expr.Variable{Name: name}})
		}
	}
	for _, it := range items {
		alias := it.Alias
		if alias == "" {
			alias = defaultAlias(it.Expr)
		}
		out = append(out, plan.Item{Alias: alias, Expr: it.Expr})
	}
	return out, nil
}

func defaultAlias(e expr.Expr) string {
	switch n := e.(type) {
	case expr.Variable:
		return n.Name
	case expr.Property:
		if base, ok := n.Src.(expr.Variable); ok {
			return base.Name + "." + n.Key
		}
		return n.Key
	case expr.CountStar:
		return "count(*)"
	default:
		return "expr"
	}
}

func (c *compiler) orderKeys(sorts []cyparse.SortItem) ([]frame.OrderKey, error) {
	out := make([]frame.OrderKey, len(sorts))
	for i, s := range sorts {
		out[i] = frame.OrderKey{Expr: s.Expr, Descending: s.Descending}
	}
	return out, nil
}

func (c *compiler) skipLimit(skip, limit expr.Expr) (*int, *int, error) {
	var skipN, limitN *int
	if skip != nil {
		n, err := c.evalStaticInt(skip)
		if err != nil {
			return nil, nil, err
		}
		skipN = &n
	}
	if limit != nil {
		n, err := c.evalStaticInt(limit)
		if err != nil {
			return nil, nil, err
		}
		limitN = &n
	}
	return skipN, limitN, nil
}

// evalStaticInt evaluates a SKIP/LIMIT expression once at compile time
// against a params-only context, since pkg/plan.Skip/Limit require a
// static int rather than a per-row expression; Cypher only allows
// literals or parameters in this position.
func (c *compiler) evalStaticInt(e expr.Expr) (int, error) {
	v, err := expr.Eval(e, expr.NewContext(c.exec, nil))
	if err != nil {
		return 0, err
	}
	if !v.IsNumeric() {
		return 0, lyerr.TypeMismatch("SKIP/LIMIT must evaluate to an integer")
	}
	return int(v.AsInt()), nil
}
