package plan

import (
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/value"
)

// Apply is a correlated subquery: for each Outer row, it rebinds Inner
// with that row's variables as Inner's initial context and
// concatenates Outer's columns with Inner's output columns.
// Inner.Open is called once per outer row. It is an inner join: an
// Outer row for which Inner yields no row is dropped, not null-padded.
type Apply struct {
	base
	Outer, Inner Operator

	outerVars map[string]value.Value
	outerRow  frame.Row
	innerOpen bool
}

func (a *Apply) Schema() frame.Schema {
	return a.Outer.Schema().Concat(a.Inner.Schema())
}

func (a *Apply) Open(rc *RunContext, vars map[string]value.Value) error {
	a.open(rc)
	a.outerVars = vars
	return a.Outer.Open(rc, vars)
}

func (a *Apply) Next() (frame.Row, bool, error) {
	if !a.ensureOpen() {
		return frame.Row{}, false, nil
	}
	outerSchema := a.Outer.Schema()
	for {
		if a.innerOpen {
			row, ok, err := a.Inner.Next()
			if err != nil {
				return frame.Row{}, false, err
			}
			if ok {
				return a.outerRow.Concat(row), true, nil
			}
			if err := a.Inner.Close(); err != nil {
				return frame.Row{}, false, err
			}
			a.innerOpen = false
		}
		row, ok, err := a.Outer.Next()
		if err != nil {
			return frame.Row{}, false, err
		}
		if !ok {
			a.state = StateDraining
			return frame.Row{}, false, nil
		}
		a.outerRow = row
		innerVars := mergeVars(a.outerVars, row.Vars(outerSchema))
		if err := a.Inner.Open(a.rc, innerVars); err != nil {
			return frame.Row{}, false, err
		}
		a.innerOpen = true
	}
}

func (a *Apply) Close() error {
	a.close()
	if a.innerOpen {
		_ = a.Inner.Close()
		a.innerOpen = false
	}
	return a.Outer.Close()
}
