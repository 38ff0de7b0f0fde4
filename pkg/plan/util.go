package plan

import (
	"fmt"
	"strings"

	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/value"
)

// rowKey builds a row-equality key for Distinct and Union's
// deduplication, treating numerically equal values (Int(3)/Float(3.0))
// as identical keys, matching value.Equals.
func rowKey(row frame.Row) string {
	var sb strings.Builder
	for i, v := range row.Values {
		if i > 0 {
			sb.WriteByte('\x1f')
		}
		if v.IsNull() {
			sb.WriteString("null")
		} else if v.IsNumeric() {
			sb.WriteString("num:")
			sb.WriteString(value.Float(v.AsFloat64()).String())
		} else {
			fmt.Fprintf(&sb, "%d:%s", v.Kind(), v.String())
		}
	}
	return sb.String()
}
