package runner

import (
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/orneryd/lynxcore/pkg/frame"
)

// Result is a materialized query result: the column schema and every
// row Run drained from the operator tree.
type Result struct {
	Schema frame.Schema
	Rows   []frame.Row
}

// Show renders at most limit rows (0 means all) to w as a table, via
// github.com/olekukonko/tablewriter, the formatting dependency the
// wbrown-janus-datalog example pack repo uses for the same purpose
// (its executor/table_formatter.go).
func (r *Result) Show(limit int, w io.Writer) {
	rows := r.Rows
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	table := tablewriter.NewTable(w)
	table.Header(r.Schema.Names())
	for _, row := range rows {
		cells := make([]string, len(row.Values))
		for i, v := range row.Values {
			cells[i] = v.String()
		}
		table.Append(cells)
	}
	table.Render()
}

// Cache returns a restartable, independent copy of this Result, so a
// caller can iterate it more than once without re-running the query.
func (r *Result) Cache() *Result {
	rows := make([]frame.Row, len(r.Rows))
	copy(rows, r.Rows)
	return &Result{Schema: r.Schema, Rows: rows}
}
