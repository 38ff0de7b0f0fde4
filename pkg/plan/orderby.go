package plan

import (
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/value"
)

// OrderBy buffers its child's full input then emits rows under the
// §4.1 ordering, stably. It only transitions to Draining once the
// child is fully consumed, matching Aggregation's state contract.
type OrderBy struct {
	base
	Child Operator
	Keys  []frame.OrderKey

	rows []frame.Row
	pos  int
}

func (o *OrderBy) Schema() frame.Schema { return o.Child.Schema() }

func (o *OrderBy) Open(rc *RunContext, vars map[string]value.Value) error {
	o.open(rc)
	if err := o.Child.Open(rc, vars); err != nil {
		return err
	}
	childSchema := o.Child.Schema()
	var buffered []frame.Row
	for {
		row, ok, err := o.Child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		buffered = append(buffered, row)
	}
	df, err := frame.New(childSchema, buffered).OrderBy(o.Keys, rc.Exec)
	if err != nil {
		return err
	}
	o.rows = df.Rows
	o.pos = 0
	o.state = StateDraining
	return nil
}

func (o *OrderBy) Next() (frame.Row, bool, error) {
	if o.pos >= len(o.rows) {
		return frame.Row{}, false, nil
	}
	row := o.rows[o.pos]
	o.pos++
	return row, true, nil
}

func (o *OrderBy) Close() error {
	o.close()
	o.rows = nil
	return o.Child.Close()
}
