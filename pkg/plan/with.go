package plan

import (
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/value"
)

// With is Project plus optional Distinct/OrderBy/Skip/Limit, and acts
// as a pipeline boundary: only the named Items are visible downstream,
// hiding any upstream variable not carried forward. It is built as a
// small internal operator chain over the same Project/Distinct/
// OrderBy/Skip/Limit types the plan tree uses everywhere else, rather
// than duplicating their logic.
type With struct {
	base
	Child      Operator
	Items      []Item
	Distinct   bool
	OrderBy    []frame.OrderKey
	SkipN      *int
	LimitN     *int

	chain Operator
}

func (w *With) build() Operator {
	var op Operator = &Project{Child: w.Child, Items: w.Items}
	if w.Distinct {
		op = &Distinct{Child: op}
	}
	if len(w.OrderBy) > 0 {
		op = &OrderBy{Child: op, Keys: w.OrderBy}
	}
	if w.SkipN != nil {
		op = &Skip{Child: op, N: *w.SkipN}
	}
	if w.LimitN != nil {
		op = &Limit{Child: op, N: *w.LimitN}
	}
	return op
}

func (w *With) Schema() frame.Schema {
	if w.chain == nil {
		w.chain = w.build()
	}
	return w.chain.Schema()
}

func (w *With) Open(rc *RunContext, vars map[string]value.Value) error {
	w.open(rc)
	w.chain = w.build()
	return w.chain.Open(rc, vars)
}

func (w *With) Next() (frame.Row, bool, error) {
	row, ok, err := w.chain.Next()
	if err != nil || !ok {
		w.state = StateDraining
	}
	return row, ok, err
}

func (w *With) Close() error {
	w.close()
	if w.chain == nil {
		return nil
	}
	return w.chain.Close()
}
