package plan

import (
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/lyerr"
	"github.com/orneryd/lynxcore/pkg/value"
)

// Union concatenates Lhs and Rhs, whose schemas must line up
// positionally by name and type. All=false deduplicates across both
// sides by value-equality.
type Union struct {
	base
	Lhs, Rhs Operator
	All      bool

	seen    map[string]bool
	current Operator
	vars    map[string]value.Value
}

func (u *Union) Schema() frame.Schema { return u.Lhs.Schema() }

func (u *Union) Open(rc *RunContext, vars map[string]value.Value) error {
	if !u.Lhs.Schema().SameShape(u.Rhs.Schema()) {
		return lyerr.InvalidArgument("UNION requires both sides to share the same column names and types")
	}
	u.open(rc)
	u.seen = map[string]bool{}
	u.current = u.Lhs
	u.vars = vars
	return u.Lhs.Open(rc, vars)
}

func (u *Union) Next() (frame.Row, bool, error) {
	if !u.ensureOpen() {
		return frame.Row{}, false, nil
	}
	for {
		row, ok, err := u.current.Next()
		if err != nil {
			return frame.Row{}, false, err
		}
		if !ok {
			if u.current == u.Lhs {
				if err := u.Rhs.Open(u.rc, u.vars); err != nil {
					return frame.Row{}, false, err
				}
				u.current = u.Rhs
				continue
			}
			u.state = StateDraining
			return frame.Row{}, false, nil
		}
		if !u.All {
			k := rowKey(row)
			if u.seen[k] {
				continue
			}
			u.seen[k] = true
		}
		return row, true, nil
	}
}

func (u *Union) Close() error {
	u.close()
	if err := u.Lhs.Close(); err != nil {
		return err
	}
	return u.Rhs.Close()
}
