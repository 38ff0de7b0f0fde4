package graph

import (
	"sync"

	"github.com/google/uuid"

	"github.com/orneryd/lynxcore/pkg/lyerr"
	"github.com/orneryd/lynxcore/pkg/value"
)

// Memory is the default Model: an in-process, map-backed graph guarded
// by a single RWMutex, grounded on the teacher's storage.MemoryEngine
// (pkg/cypher/transaction.go references it as the non-Badger engine
// choice; the concrete MemoryEngine type itself was not part of the
// retrieval pack, so this is a fresh, idiomatic rewrite of that role
// onto the new Node/Relationship types rather than a ported file).
type Memory struct {
	mu  sync.RWMutex
	nodes map[value.NodeID]*value.Node
	rels  map[value.RelID]*value.Relationship
	out   map[value.NodeID][]value.RelID
	in    map[value.NodeID][]value.RelID
}

func NewMemory() *Memory {
	return &Memory{
		nodes: make(map[value.NodeID]*value.Node),
		rels:  make(map[value.RelID]*value.Relationship),
		out:   make(map[value.NodeID][]value.RelID),
		in:    make(map[value.NodeID][]value.RelID),
	}
}

func (m *Memory) Nodes(labels []string, props map[string]value.Value) ([]*value.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*value.Node
	for _, n := range m.nodes {
		if !n.HasAllLabels(labels) || !propsMatch(n.Properties, props) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *Memory) Relationships(types []string) ([]*value.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*value.Relationship
	for _, r := range m.rels {
		if len(types) > 0 && !containsType(types, r.Type) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) Expand(from value.NodeID, dir Direction, types []string) ([]Expansion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Expansion
	if dir == DirOutgoing || dir == DirEither {
		for _, relID := range m.out[from] {
			r := m.rels[relID]
			if len(types) > 0 && !containsType(types, r.Type) {
				continue
			}
			out = append(out, Expansion{Rel: r, Node: m.nodes[r.EndID], Forward: true})
		}
	}
	if dir == DirIncoming || dir == DirEither {
		for _, relID := range m.in[from] {
			r := m.rels[relID]
			if len(types) > 0 && !containsType(types, r.Type) {
				continue
			}
			out = append(out, Expansion{Rel: r, Node: m.nodes[r.StartID], Forward: false})
		}
	}
	return out, nil
}

func (m *Memory) NodeByID(id value.NodeID) (*value.Node, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[id]
	return n, ok
}

func (m *Memory) RelationshipByID(id value.RelID) (*value.Relationship, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rels[id]
	return r, ok
}

func (m *Memory) NewWriter() Writer {
	return &memoryJournal{mem: m}
}

func propsMatch(props *value.OrderedMap, filter map[string]value.Value) bool {
	for k, want := range filter {
		got, ok := props.Get(k)
		eq := value.Equals(got, want)
		if !ok || eq.IsNull() || !eq.AsBool() {
			return false
		}
	}
	return true
}

func containsType(types []string, t string) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

type propSet struct {
	ref EntityRef
	key string
	val value.Value
}

// memoryJournal buffers a single run's writes; nothing reaches Memory's
// maps until Commit, so a discarded or failed run leaves the graph
// untouched.
type memoryJournal struct {
	mem *Memory

	createdNodes []*value.Node
	createdRels  []*value.Relationship
	propSets     []propSet
	deletedNodes map[value.NodeID]bool
	detachNodes  map[value.NodeID]bool
	deletedRels  map[value.RelID]bool
}

func (j *memoryJournal) CreateNode(labels []string, props map[string]value.Value) *value.Node {
	m := value.NewOrderedMap()
	for k, v := range props {
		m.Set(k, v)
	}
	node := value.NewNode(value.NodeID(uuid.NewString()), append([]string(nil), labels...), m)
	j.createdNodes = append(j.createdNodes, node)
	return node
}

func (j *memoryJournal) CreateRelationship(from, to value.NodeID, relType string, props map[string]value.Value) (*value.Relationship, error) {
	m := value.NewOrderedMap()
	for k, v := range props {
		m.Set(k, v)
	}
	rel := value.NewRelationship(value.RelID(uuid.NewString()), from, to, relType, m)
	j.createdRels = append(j.createdRels, rel)
	return rel, nil
}

func (j *memoryJournal) SetProperty(ref EntityRef, key string, v value.Value) error {
	j.propSets = append(j.propSets, propSet{ref: ref, key: key, val: v})
	return nil
}

func (j *memoryJournal) DeleteNode(id value.NodeID, detach bool) error {
	if j.deletedNodes == nil {
		j.deletedNodes = map[value.NodeID]bool{}
		j.detachNodes = map[value.NodeID]bool{}
	}
	j.deletedNodes[id] = true
	j.detachNodes[id] = detach
	return nil
}

func (j *memoryJournal) DeleteRelationship(id value.RelID) error {
	if j.deletedRels == nil {
		j.deletedRels = map[value.RelID]bool{}
	}
	j.deletedRels[id] = true
	return nil
}

func (j *memoryJournal) Commit() error {
	mem := j.mem
	mem.mu.Lock()
	defer mem.mu.Unlock()

	for id, detach := range j.detachNodes {
		connected := len(mem.out[id]) > 0 || len(mem.in[id]) > 0
		for _, r := range j.createdRels {
			connected = connected || r.StartID == id || r.EndID == id
		}
		if !detach && connected {
			return lyerr.InvalidArgument("cannot delete node %q with existing relationships; use DETACH DELETE", id)
		}
	}
	for _, n := range j.createdNodes {
		mem.nodes[n.ID] = n
	}
	for _, r := range j.createdRels {
		mem.rels[r.ID] = r
		mem.out[r.StartID] = append(mem.out[r.StartID], r.ID)
		mem.in[r.EndID] = append(mem.in[r.EndID], r.ID)
	}
	for _, ps := range j.propSets {
		if ps.ref.IsNode {
			if n, ok := mem.nodes[ps.ref.NodeID]; ok {
				n.Properties.Set(ps.key, ps.val)
			}
			continue
		}
		if r, ok := mem.rels[ps.ref.RelID]; ok {
			r.Properties.Set(ps.key, ps.val)
		}
	}
	for id := range j.detachNodes {
		for _, relID := range append(append([]value.RelID(nil), mem.out[id]...), mem.in[id]...) {
			mem.removeRel(relID)
		}
		delete(mem.nodes, id)
		delete(mem.out, id)
		delete(mem.in, id)
	}
	for id := range j.deletedRels {
		mem.removeRel(id)
	}
	return nil
}

func (m *Memory) removeRel(id value.RelID) {
	r, ok := m.rels[id]
	if !ok {
		return
	}
	delete(m.rels, id)
	m.out[r.StartID] = removeID(m.out[r.StartID], id)
	m.in[r.EndID] = removeID(m.in[r.EndID], id)
}

func removeID(ids []value.RelID, target value.RelID) []value.RelID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func (j *memoryJournal) Discard() {
	*j = memoryJournal{mem: j.mem}
}
