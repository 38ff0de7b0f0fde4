package frame

import (
	"sort"

	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/lyerr"
	"github.com/orneryd/lynxcore/pkg/value"
)

// DataFrame bundles a Schema with a materialized, restartable sequence
// of Rows. Every transformation method returns a new DataFrame; none
// mutate the receiver, so a DataFrame can be iterated more than once
// and shared freely (spec.md 4.3's "restartable" requirement).
type DataFrame struct {
	Schema Schema
	Rows   []Row
}

func New(schema Schema, rows []Row) DataFrame {
	if rows == nil {
		rows = []Row{}
	}
	return DataFrame{Schema: schema, Rows: rows}
}

// ProjectItem names one output column: the alias it appears under and
// the expression producing its value.
type ProjectItem struct {
	Alias string
	Expr  expr.Expr
}

func (df DataFrame) env() expr.Env {
	env := make(expr.Env, len(df.Schema.Columns))
	for _, c := range df.Schema.Columns {
		env[c.Name] = c.Type
	}
	return env
}

// Project evaluates items against every row, producing a new schema
// built from their aliases and inferred types (spec.md 4.3 project).
func (df DataFrame) Project(items []ProjectItem, exec *expr.ExecutionContext) (DataFrame, error) {
	env := df.env()
	cols := make([]Column, len(items))
	for i, it := range items {
		cols[i] = Column{Name: it.Alias, Type: expr.TypeOf(it.Expr, env)}
	}
	schema := NewSchema(cols...)
	rows := make([]Row, len(df.Rows))
	for ri, row := range df.Rows {
		ctx := expr.NewContext(exec, row.Vars(df.Schema))
		values := make([]value.Value, len(items))
		for i, it := range items {
			v, err := expr.Eval(it.Expr, ctx)
			if err != nil {
				return DataFrame{}, err
			}
			values[i] = v
		}
		rows[ri] = NewRow(values...)
	}
	return New(schema, rows), nil
}

// Filter keeps rows where pred evaluates to Bool(true); Null and
// Bool(false) are both dropped (spec.md 4.3 filter).
func (df DataFrame) Filter(pred expr.Expr, exec *expr.ExecutionContext) (DataFrame, error) {
	kept := make([]Row, 0, len(df.Rows))
	for _, row := range df.Rows {
		ctx := expr.NewContext(exec, row.Vars(df.Schema))
		v, err := expr.Eval(pred, ctx)
		if err != nil {
			return DataFrame{}, err
		}
		if !v.IsNull() && v.AsBool() {
			kept = append(kept, row)
		}
	}
	return New(df.Schema, kept), nil
}

// GroupBy partitions rows by the tuple of grouping-expression values
// using value-equality, then for each partition emits one row of
// [grouping values..., aggregated values...]. Aggregations are
// resolved via expr.AggregateEval over the partition's row contexts,
// per spec.md 4.3 groupBy. An empty groupings list with empty input
// still yields exactly one row (e.g. count(*) over nothing is 0).
func (df DataFrame) GroupBy(groupings, aggregations []ProjectItem, exec *expr.ExecutionContext) (DataFrame, error) {
	env := df.env()
	cols := make([]Column, 0, len(groupings)+len(aggregations))
	for _, g := range groupings {
		cols = append(cols, Column{Name: g.Alias, Type: expr.TypeOf(g.Expr, env)})
	}
	for _, a := range aggregations {
		cols = append(cols, Column{Name: a.Alias, Type: expr.TypeOf(a.Expr, env)})
	}
	schema := NewSchema(cols...)

	type partition struct {
		key  []value.Value
		rows []expr.Context
	}
	order := []string{}
	partitions := map[string]*partition{}

	for _, row := range df.Rows {
		ctx := expr.NewContext(exec, row.Vars(df.Schema))
		keyVals := make([]value.Value, len(groupings))
		for i, g := range groupings {
			v, err := expr.Eval(g.Expr, ctx)
			if err != nil {
				return DataFrame{}, err
			}
			keyVals[i] = v
		}
		k := encodeKey(keyVals)
		p, ok := partitions[k]
		if !ok {
			p = &partition{key: keyVals}
			partitions[k] = p
			order = append(order, k)
		}
		p.rows = append(p.rows, ctx)
	}

	if len(groupings) == 0 && len(order) == 0 {
		order = append(order, "")
		partitions[""] = &partition{}
	}

	rows := make([]Row, 0, len(order))
	for _, k := range order {
		p := partitions[k]
		values := make([]value.Value, 0, len(groupings)+len(aggregations))
		values = append(values, p.key...)
		for _, a := range aggregations {
			v, err := expr.AggregateEval(a.Expr, p.rows)
			if err != nil {
				return DataFrame{}, err
			}
			values = append(values, v)
		}
		rows = append(rows, NewRow(values...))
	}
	return New(schema, rows), nil
}

// OrderKey is one ORDER BY term.
type OrderKey struct {
	Expr       expr.Expr
	Descending bool
}

// OrderBy sorts rows under the §4.1 ordering, stably (ties keep prior
// order). Nulls sort after every other value in ascending order and
// before every other value in descending order, matching Cypher's
// documented ORDER BY null handling.
func (df DataFrame) OrderBy(keys []OrderKey, exec *expr.ExecutionContext) (DataFrame, error) {
	type decorated struct {
		row  Row
		keys []value.Value
	}
	decs := make([]decorated, len(df.Rows))
	for i, row := range df.Rows {
		ctx := expr.NewContext(exec, row.Vars(df.Schema))
		keyVals := make([]value.Value, len(keys))
		for k, key := range keys {
			v, err := expr.Eval(key.Expr, ctx)
			if err != nil {
				return DataFrame{}, err
			}
			keyVals[k] = v
		}
		decs[i] = decorated{row: row, keys: keyVals}
	}
	sort.SliceStable(decs, func(i, j int) bool {
		for k, key := range keys {
			a, b := decs[i].keys[k], decs[j].keys[k]
			less, ok := lessWithNulls(a, b, key.Descending)
			if !ok {
				continue
			}
			return less
		}
		return false
	})
	rows := make([]Row, len(decs))
	for i, d := range decs {
		rows[i] = d.row
	}
	return New(df.Schema, rows), nil
}

// lessWithNulls returns (less, decisive). decisive is false when a and
// b tie on this key (including both-null) and the next ORDER BY key
// should break the tie.
func lessWithNulls(a, b value.Value, desc bool) (bool, bool) {
	if a.IsNull() && b.IsNull() {
		return false, false
	}
	if a.IsNull() {
		// null sorts after everything in ascending order, before
		// everything in descending order.
		return desc, true
	}
	if b.IsNull() {
		return !desc, true
	}
	c, ok := value.Compare(a, b)
	if !ok || c == 0 {
		return false, false
	}
	if desc {
		return c > 0, true
	}
	return c < 0, true
}

// Skip drops the first n rows; negative n is a usage error.
func (df DataFrame) Skip(n int) (DataFrame, error) {
	if n < 0 {
		return DataFrame{}, lyerr.InvalidArgument("SKIP requires a non-negative count, got %d", n)
	}
	if n >= len(df.Rows) {
		return New(df.Schema, nil), nil
	}
	return New(df.Schema, append([]Row(nil), df.Rows[n:]...)), nil
}

// Take keeps only the first n rows; negative n is a usage error.
func (df DataFrame) Take(n int) (DataFrame, error) {
	if n < 0 {
		return DataFrame{}, lyerr.InvalidArgument("LIMIT requires a non-negative count, got %d", n)
	}
	if n >= len(df.Rows) {
		return New(df.Schema, append([]Row(nil), df.Rows...)), nil
	}
	return New(df.Schema, append([]Row(nil), df.Rows[:n]...)), nil
}

// Distinct deduplicates rows by value-equality across every column,
// preserving the order of first occurrence.
func (df DataFrame) Distinct() DataFrame {
	seen := map[string]bool{}
	rows := make([]Row, 0, len(df.Rows))
	for _, row := range df.Rows {
		k := encodeKey(row.Values)
		if seen[k] {
			continue
		}
		seen[k] = true
		rows = append(rows, row)
	}
	return New(df.Schema, rows)
}

// JoinKind selects Join's matching strategy.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftOuterJoin
)

// Join combines df with other by equality on joinColumns (names shared
// by both schemas). LeftOuterJoin emits every left row at least once,
// padding unmatched rows with Null for the right-hand columns.
func (df DataFrame) Join(other DataFrame, joinColumns []string, kind JoinKind) (DataFrame, error) {
	leftIdx := make([]int, len(joinColumns))
	rightIdx := make([]int, len(joinColumns))
	for i, name := range joinColumns {
		li, ok := df.Schema.IndexOf(name)
		if !ok {
			return DataFrame{}, lyerr.InvalidArgument("join column %q not present on the left side", name)
		}
		ri, ok := other.Schema.IndexOf(name)
		if !ok {
			return DataFrame{}, lyerr.InvalidArgument("join column %q not present on the right side", name)
		}
		leftIdx[i] = li
		rightIdx[i] = ri
	}

	buckets := map[string][]Row{}
	for _, row := range other.Rows {
		key := make([]value.Value, len(rightIdx))
		for i, idx := range rightIdx {
			key[i] = row.Values[idx]
		}
		k := encodeKey(key)
		buckets[k] = append(buckets[k], row)
	}

	schema := df.Schema.Concat(other.Schema)
	rows := make([]Row, 0, len(df.Rows))
	nullPad := make([]value.Value, len(other.Schema.Columns))
	for i := range nullPad {
		nullPad[i] = value.Null
	}

	for _, lrow := range df.Rows {
		key := make([]value.Value, len(leftIdx))
		for i, idx := range leftIdx {
			key[i] = lrow.Values[idx]
		}
		matches := buckets[encodeKey(key)]
		if len(matches) == 0 {
			if kind == LeftOuterJoin {
				rows = append(rows, lrow.Concat(NewRow(nullPad...)))
			}
			continue
		}
		for _, rrow := range matches {
			rows = append(rows, lrow.Concat(rrow))
		}
	}
	return New(schema, rows), nil
}
