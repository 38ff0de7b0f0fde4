// Package graph implements the storage contract that pkg/plan's scan
// and expand operators resolve against: Model for reads, Writer for
// the per-run write
// journal. Two implementations are provided, mirroring the teacher's
// storage.MemoryEngine / storage.BadgerEngine split in
// pkg/cypher/transaction.go: Memory (the default, in-process) and
// Badger (disk-backed via dgraph-io/badger).
package graph

import (
	"github.com/orneryd/lynxcore/pkg/plan"
	"github.com/orneryd/lynxcore/pkg/value"
)

// Direction and Expansion are pkg/plan's types, reused here rather than
// duplicated, so Model satisfies plan.Graph structurally without
// either package importing the other's interface declarations twice.
type Direction = plan.Direction
type Expansion = plan.Expansion

const (
	DirOutgoing = plan.DirOutgoing
	DirIncoming = plan.DirIncoming
	DirEither   = plan.DirEither
)

// EntityRef names the node or relationship a Writer.SetProperty call
// targets.
type EntityRef = plan.EntityRef

// Model is the read side of the graph. Every pkg/plan scan/expand
// operator resolves against it; id()/labels()/type() read the node or
// relationship value they are given and do not consult Model.
type Model interface {
	Nodes(labels []string, props map[string]value.Value) ([]*value.Node, error)
	Relationships(types []string) ([]*value.Relationship, error)
	Expand(from value.NodeID, dir Direction, types []string) ([]Expansion, error)
	NodeByID(id value.NodeID) (*value.Node, bool)
	RelationshipByID(id value.RelID) (*value.Relationship, bool)

	// NewWriter opens a write journal for one runner.Run. Nothing
	// written through it is visible via Model's read methods until
	// Writer.Commit returns successfully.
	NewWriter() Writer
}

// Writer is the explicit write journal threaded through a query's
// plan.RunContext: CREATE/MERGE/SET/DELETE accumulate here instead of
// mutating Model directly, so a failed or aborted run leaves no trace.
// The one exception is SET's label shorthand (`SET n:Label`), which
// pkg/runner applies to the bound node's Labels in place, outside the
// Writer.
type Writer = plan.Writer
