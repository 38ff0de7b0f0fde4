// Package runner ties pkg/cyparse, pkg/expr, pkg/plan, pkg/graph, and
// pkg/procedure together into the single entry point a caller actually
// uses: parse a query, compile it onto the physical operator tree,
// drain it, and commit whatever writes it accumulated. There is no
// logical-plan/optimizer stage, mirroring how the teacher's
// ast_executor.go walks straight from parsed clauses to execution with
// no intermediate rewrite step.
package runner

import (
	"context"
	"time"

	"github.com/orneryd/lynxcore/pkg/cyparse"
	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/graph"
	"github.com/orneryd/lynxcore/pkg/logging"
	"github.com/orneryd/lynxcore/pkg/plan"
	"github.com/orneryd/lynxcore/pkg/procedure"
	"github.com/orneryd/lynxcore/pkg/value"
)

// Runner executes Cypher queries against one graph.Model.
type Runner struct {
	model      graph.Model
	procedures procedure.Registry
	log        *logging.Logger
}

// Option configures a Runner at construction time.
type Option func(*Runner)

// WithLogger overrides the default discard logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// New builds a Runner over model, resolving functions/procedures
// through procedures (typically procedure.StandardLibrary() merged
// with procedure.APOC(model)).
func New(model graph.Model, procedures procedure.Registry, opts ...Option) *Runner {
	r := &Runner{model: model, procedures: procedures, log: logging.Discard()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run parses query, compiles it onto a physical operator tree, drains
// every row, and commits accumulated writes exactly once. A read-only
// query never opens a Writer, matching the design note that a failed
// or aborted run leaves no trace.
func (r *Runner) Run(ctx context.Context, query string, params map[string]any) (*Result, error) {
	start := time.Now()
	result, err := r.run(ctx, query, params)
	r.logOutcome(query, start, result, err)
	return result, err
}

func (r *Runner) run(ctx context.Context, query string, params map[string]any) (*Result, error) {
	q, err := cyparse.Parse(query)
	if err != nil {
		return nil, err
	}

	wrappedParams := make(map[string]value.Value, len(params))
	for k, v := range params {
		wrappedParams[k] = value.Wrap(v)
	}

	exec := &expr.ExecutionContext{
		Params:     wrappedParams,
		Graph:      r.model,
		Procedures: r.procedures,
	}

	op, err := compileQuery(q, exec)
	if err != nil {
		return nil, err
	}

	var writer plan.Writer
	if queryIsWrite(q) {
		writer = r.model.NewWriter()
	}
	rc := &plan.RunContext{Exec: exec, Graph: r.model, Writer: writer}

	if err := op.Open(rc, nil); err != nil {
		if writer != nil {
			writer.Discard()
		}
		return nil, err
	}

	res := &Result{Schema: op.Schema()}
	for {
		select {
		case <-ctx.Done():
			_ = op.Close()
			if writer != nil {
				writer.Discard()
			}
			return nil, ctx.Err()
		default:
		}
		row, ok, err := op.Next()
		if err != nil {
			_ = op.Close()
			if writer != nil {
				writer.Discard()
			}
			return nil, err
		}
		if !ok {
			break
		}
		res.Rows = append(res.Rows, row)
	}
	if err := op.Close(); err != nil {
		if writer != nil {
			writer.Discard()
		}
		return nil, err
	}

	if writer != nil {
		if err := writer.Commit(); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// logOutcome emits one structured record per Run, the shape
// dolthub-go-mysql-server's engine layer produces per statement
// (query, duration, row count, outcome) — the teacher itself logs
// nothing, so this is adopted wholesale from that repo's pattern
// rather than grounded in nornicdb.
func (r *Runner) logOutcome(query string, start time.Time, result *Result, err error) {
	fields := map[string]interface{}{
		"query":    query,
		"duration": time.Since(start).String(),
	}
	if err != nil {
		r.log.WithFields(fields).Entry().WithError(err).Warnf("query failed")
		return
	}
	fields["rows"] = len(result.Rows)
	r.log.WithFields(fields).Infof("query ok")
}
