package plan

import (
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/lyerr"
	"github.com/orneryd/lynxcore/pkg/value"
)

// Skip streams past the first N rows, then passes the rest through
// unchanged. Negative N fails fast at Open.
type Skip struct {
	base
	Child Operator
	N     int

	remaining int
}

func (s *Skip) Schema() frame.Schema { return s.Child.Schema() }

func (s *Skip) Open(rc *RunContext, vars map[string]value.Value) error {
	if s.N < 0 {
		return lyerr.InvalidArgument("SKIP requires a non-negative count, got %d", s.N)
	}
	s.open(rc)
	s.remaining = s.N
	return s.Child.Open(rc, vars)
}

func (s *Skip) Next() (frame.Row, bool, error) {
	if !s.ensureOpen() {
		return frame.Row{}, false, nil
	}
	for s.remaining > 0 {
		_, ok, err := s.Child.Next()
		if err != nil {
			return frame.Row{}, false, err
		}
		if !ok {
			s.state = StateDraining
			return frame.Row{}, false, nil
		}
		s.remaining--
	}
	row, ok, err := s.Child.Next()
	if err != nil || !ok {
		s.state = StateDraining
	}
	return row, ok, err
}

func (s *Skip) Close() error {
	s.close()
	return s.Child.Close()
}

// Limit streams at most N rows from Child, then stops.
type Limit struct {
	base
	Child Operator
	N     int

	emitted int
}

func (l *Limit) Schema() frame.Schema { return l.Child.Schema() }

func (l *Limit) Open(rc *RunContext, vars map[string]value.Value) error {
	if l.N < 0 {
		return lyerr.InvalidArgument("LIMIT requires a non-negative count, got %d", l.N)
	}
	l.open(rc)
	l.emitted = 0
	return l.Child.Open(rc, vars)
}

func (l *Limit) Next() (frame.Row, bool, error) {
	if !l.ensureOpen() || l.emitted >= l.N {
		l.state = StateDraining
		return frame.Row{}, false, nil
	}
	row, ok, err := l.Child.Next()
	if err != nil {
		return frame.Row{}, false, err
	}
	if !ok {
		l.state = StateDraining
		return frame.Row{}, false, nil
	}
	l.emitted++
	return row, true, nil
}

func (l *Limit) Close() error {
	l.close()
	return l.Child.Close()
}

// Distinct deduplicates Child's rows by value-equality, preserving
// first-occurrence order. It buffers seen keys but streams rows
// through one at a time rather than materializing the whole child.
type Distinct struct {
	base
	Child Operator

	seen map[string]bool
}

func (d *Distinct) Schema() frame.Schema { return d.Child.Schema() }

func (d *Distinct) Open(rc *RunContext, vars map[string]value.Value) error {
	d.open(rc)
	d.seen = map[string]bool{}
	return d.Child.Open(rc, vars)
}

func (d *Distinct) Next() (frame.Row, bool, error) {
	if !d.ensureOpen() {
		return frame.Row{}, false, nil
	}
	for {
		row, ok, err := d.Child.Next()
		if err != nil {
			return frame.Row{}, false, err
		}
		if !ok {
			d.state = StateDraining
			return frame.Row{}, false, nil
		}
		key := rowKey(row)
		if d.seen[key] {
			continue
		}
		d.seen[key] = true
		return row, true, nil
	}
}

func (d *Distinct) Close() error {
	d.close()
	d.seen = nil
	return d.Child.Close()
}
