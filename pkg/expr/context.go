package expr

import (
	"regexp"
	"sync"

	"github.com/orneryd/lynxcore/pkg/value"
)

// Graph is the minimal read surface the evaluator needs to resolve
// PathExpression steps and ad-hoc entity lookups. pkg/graph.Model and
// pkg/graph.Badger satisfy this structurally; expr never imports
// pkg/graph, keeping the evaluator layer independent of storage.
type Graph interface {
	NodeByID(id value.NodeID) (*value.Node, bool)
	RelationshipByID(id value.RelID) (*value.Relationship, bool)
}

// ScalarFn is a non-aggregating procedure/function body: given already
// evaluated arguments, produce one value. Built-ins (toUpper, size,
// coalesce, ...) and APOC procedures both implement this shape.
type ScalarFn func(ctx *ExecutionContext, args []value.Value) (value.Value, error)

// Aggregator folds a sequence of per-row argument tuples into one
// value. A fresh Aggregator is created per group by Descriptor.NewAgg.
type Aggregator interface {
	Accumulate(args []value.Value) error
	Result() (value.Value, error)
}

// Descriptor describes one callable name. Exactly one of Fn or NewAgg
// is set: the REDESIGN FLAGS item replaces the teacher's single
// call-and-inspect-the-result path with two distinct entry points
// (Eval calls Fn, AggregateEval calls NewAgg) so an aggregating
// procedure can never be invoked from row-scalar context by accident.
type Descriptor struct {
	Namespace string
	Name      string
	Arity     int // -1 means variadic
	Fn        ScalarFn
	NewAgg    func() Aggregator
}

func (d Descriptor) Aggregating() bool { return d.NewAgg != nil }

// Registry resolves a call site (namespace, name, argument count) to
// the Descriptor that should serve it.
type Registry interface {
	Lookup(namespace, name string, arity int) (Descriptor, bool)
}

// ExecutionContext is the query-wide state shared by every row: query
// parameters, the graph being read, and the procedure/function
// registry. It is built once per run by pkg/runner and threaded
// through every operator and expression. The write journal is not
// part of it: mutation operators reach it through plan.RunContext.
type ExecutionContext struct {
	Params     map[string]value.Value
	Graph      Graph
	Procedures Registry

	regexCache sync.Map // string -> *regexp.Regexp
}

// compileRegex caches compiled patterns across rows; the teacher's
// evaluator (antlr/expression.go regexMatch) called regexp.Compile on
// every row, which is the per-row recompilation the design notes flag.
func (ec *ExecutionContext) compileRegex(pattern string) (*regexp.Regexp, error) {
	if cached, ok := ec.regexCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	ec.regexCache.Store(pattern, re)
	return re, nil
}

// Context is the per-row expression context: the shared ExecutionContext
// plus the variable bindings visible at this point in the plan
// (spec.md's ExpressionContext). It is immutable; WithVars returns a
// new Context layered over the same Exec and parent bindings.
type Context struct {
	Exec *ExecutionContext
	Vars map[string]value.Value
}

func NewContext(exec *ExecutionContext, vars map[string]value.Value) Context {
	if vars == nil {
		vars = map[string]value.Value{}
	}
	return Context{Exec: exec, Vars: vars}
}

// WithVars returns a Context with additional or overriding bindings
// layered on top of the current ones.
func (c Context) WithVars(vars map[string]value.Value) Context {
	merged := make(map[string]value.Value, len(c.Vars)+len(vars))
	for k, v := range c.Vars {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	return Context{Exec: c.Exec, Vars: merged}
}

func (c Context) Lookup(name string) (value.Value, bool) {
	v, ok := c.Vars[name]
	return v, ok
}
