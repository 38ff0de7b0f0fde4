package plan

import (
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/value"
)

// Aggregation implements groupBy (spec.md 4.3/4.4): it fully drains
// Child, partitions by Groupings under value-equality, and for each
// partition emits one row of [grouping values..., aggregated values].
// With no groupings and no input rows it still emits exactly one row,
// since aggregators like count(*) have a well-defined identity over
// an empty set. Aggregation only transitions to Draining after the
// child is fully consumed, per the state-machine contract.
type Aggregation struct {
	base
	Child      Operator
	Groupings  []Item
	Aggregates []Item

	schema frame.Schema
	rows   []frame.Row
	pos    int
}

func (a *Aggregation) Schema() frame.Schema {
	if a.schema.Columns == nil {
		a.schema = computeSchema(a.Child.Schema(), append(append([]Item(nil), a.Groupings...), a.Aggregates...))
	}
	return a.schema
}

func (a *Aggregation) Open(rc *RunContext, vars map[string]value.Value) error {
	a.open(rc)
	if err := a.Child.Open(rc, vars); err != nil {
		return err
	}
	childSchema := a.Child.Schema()
	var buffered []frame.Row
	for {
		row, ok, err := a.Child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		buffered = append(buffered, row)
	}
	groupings := toProjectItems(a.Groupings)
	aggregates := toProjectItems(a.Aggregates)
	df, err := frame.New(childSchema, buffered).GroupBy(groupings, aggregates, rc.Exec)
	if err != nil {
		return err
	}
	a.schema = df.Schema
	a.rows = df.Rows
	a.pos = 0
	a.state = StateDraining
	return nil
}

func toProjectItems(items []Item) []frame.ProjectItem {
	out := make([]frame.ProjectItem, len(items))
	for i, it := range items {
		out[i] = frame.ProjectItem{Alias: it.Alias, Expr: it.Expr}
	}
	return out
}

func (a *Aggregation) Next() (frame.Row, bool, error) {
	if a.pos >= len(a.rows) {
		return frame.Row{}, false, nil
	}
	row := a.rows[a.pos]
	a.pos++
	return row, true, nil
}

func (a *Aggregation) Close() error {
	a.close()
	a.rows = nil
	return a.Child.Close()
}
