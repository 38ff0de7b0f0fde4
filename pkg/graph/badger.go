package graph

import (
	"encoding/json"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/orneryd/lynxcore/pkg/lyerr"
	"github.com/orneryd/lynxcore/pkg/value"
)

// Badger is a disk-backed Model over github.com/dgraph-io/badger/v4,
// grounded on the shape the teacher's storage.BadgerEngine exposes in
// pkg/storage/badger_test.go (CreateNode/GetNode/UpdateNode/DeleteNode,
// CreateEdge/GetEdge/UpdateEdge/DeleteEdge, GetNodesByLabel,
// GetOutgoingEdges, cascading edge deletion on node deletion, label
// indexing). badger_test.go is the only surviving file from that
// package in the retrieval pack (the engine implementation itself was
// filtered out), so this is a fresh implementation of the tested
// contract onto value.Node/value.Relationship rather than a ported
// file.
type Badger struct {
	db *badger.DB
}

func NewBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}
	return &Badger{db: db}, nil
}

func NewBadgerInMemory() (*Badger, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening in-memory badger store: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Close() error { return b.db.Close() }

// nodeDTO/relDTO are the on-disk encodings; value.Value's unexported
// fields mean Node/Relationship can't be marshaled directly, so
// properties round-trip through value.Wrap/value.Unwrap, the same
// conversion the Neo4j JSON export uses.
type nodeDTO struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

type relDTO struct {
	ID         string         `json:"id"`
	Start      string         `json:"start"`
	End        string         `json:"end"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

func nodeKey(id value.NodeID) []byte   { return []byte("node:" + string(id)) }
func relKey(id value.RelID) []byte     { return []byte("rel:" + string(id)) }
func labelIdxPrefix(label string) []byte { return []byte("idx:label:" + label + ":") }
func labelIdxKey(label string, id value.NodeID) []byte {
	return append(labelIdxPrefix(label), []byte(id)...)
}
func outIdxPrefix(id value.NodeID) []byte { return []byte("idx:out:" + string(id) + ":") }
func outIdxKey(id value.NodeID, rel value.RelID) []byte {
	return append(outIdxPrefix(id), []byte(rel)...)
}
func inIdxPrefix(id value.NodeID) []byte { return []byte("idx:in:" + string(id) + ":") }
func inIdxKey(id value.NodeID, rel value.RelID) []byte {
	return append(inIdxPrefix(id), []byte(rel)...)
}

func toNodeDTO(n *value.Node) nodeDTO {
	props := make(map[string]any, n.Properties.Len())
	for _, k := range n.Properties.Keys() {
		v, _ := n.Properties.Get(k)
		props[k] = value.Unwrap(v)
	}
	return nodeDTO{ID: string(n.ID), Labels: n.Labels, Properties: props}
}

func (d nodeDTO) toNode() *value.Node {
	m := value.NewOrderedMap()
	for k, v := range d.Properties {
		m.Set(k, value.Wrap(v))
	}
	return value.NewNode(value.NodeID(d.ID), d.Labels, m)
}

func toRelDTO(r *value.Relationship) relDTO {
	props := make(map[string]any, r.Properties.Len())
	for _, k := range r.Properties.Keys() {
		v, _ := r.Properties.Get(k)
		props[k] = value.Unwrap(v)
	}
	return relDTO{ID: string(r.ID), Start: string(r.StartID), End: string(r.EndID), Type: r.Type, Properties: props}
}

func (d relDTO) toRel() *value.Relationship {
	m := value.NewOrderedMap()
	for k, v := range d.Properties {
		m.Set(k, value.Wrap(v))
	}
	return value.NewRelationship(value.RelID(d.ID), value.NodeID(d.Start), value.NodeID(d.End), d.Type, m)
}

func (b *Badger) getNode(txn *badger.Txn, id value.NodeID) (*value.Node, error) {
	item, err := txn.Get(nodeKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dto nodeDTO
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &dto) }); err != nil {
		return nil, err
	}
	return dto.toNode(), nil
}

func (b *Badger) getRel(txn *badger.Txn, id value.RelID) (*value.Relationship, error) {
	item, err := txn.Get(relKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dto relDTO
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &dto) }); err != nil {
		return nil, err
	}
	return dto.toRel(), nil
}

func (b *Badger) Nodes(labels []string, props map[string]value.Value) ([]*value.Node, error) {
	var out []*value.Node
	err := b.db.View(func(txn *badger.Txn) error {
		candidates, err := b.candidateNodeIDs(txn, labels)
		if err != nil {
			return err
		}
		for _, id := range candidates {
			n, err := b.getNode(txn, id)
			if err != nil {
				return err
			}
			if n == nil || !n.HasAllLabels(labels) || !propsMatch(n.Properties, props) {
				continue
			}
			out = append(out, n)
		}
		return nil
	})
	return out, err
}

// candidateNodeIDs narrows to the first named label's index when at
// least one label is named, else scans every node key.
func (b *Badger) candidateNodeIDs(txn *badger.Txn, labels []string) ([]value.NodeID, error) {
	if len(labels) == 0 {
		var ids []value.NodeID
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("node:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, value.NodeID(strings.TrimPrefix(string(it.Item().Key()), "node:")))
		}
		return ids, nil
	}
	var ids []value.NodeID
	prefix := labelIdxPrefix(labels[0])
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		ids = append(ids, value.NodeID(strings.TrimPrefix(string(it.Item().Key()), string(prefix))))
	}
	return ids, nil
}

func (b *Badger) Relationships(types []string) ([]*value.Relationship, error) {
	var out []*value.Relationship
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte("rel:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var dto relDTO
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &dto) }); err != nil {
				return err
			}
			if len(types) > 0 && !containsType(types, dto.Type) {
				continue
			}
			out = append(out, dto.toRel())
		}
		return nil
	})
	return out, err
}

func (b *Badger) Expand(from value.NodeID, dir Direction, types []string) ([]Expansion, error) {
	var out []Expansion
	err := b.db.View(func(txn *badger.Txn) error {
		if dir == DirOutgoing || dir == DirEither {
			relIDs, err := scanIndex(txn, outIdxPrefix(from))
			if err != nil {
				return err
			}
			for _, relID := range relIDs {
				r, err := b.getRel(txn, value.RelID(relID))
				if err != nil || r == nil || (len(types) > 0 && !containsType(types, r.Type)) {
					continue
				}
				n, err := b.getNode(txn, r.EndID)
				if err != nil {
					return err
				}
				out = append(out, Expansion{Rel: r, Node: n, Forward: true})
			}
		}
		if dir == DirIncoming || dir == DirEither {
			relIDs, err := scanIndex(txn, inIdxPrefix(from))
			if err != nil {
				return err
			}
			for _, relID := range relIDs {
				r, err := b.getRel(txn, value.RelID(relID))
				if err != nil || r == nil || (len(types) > 0 && !containsType(types, r.Type)) {
					continue
				}
				n, err := b.getNode(txn, r.StartID)
				if err != nil {
					return err
				}
				out = append(out, Expansion{Rel: r, Node: n, Forward: false})
			}
		}
		return nil
	})
	return out, err
}

func scanIndex(txn *badger.Txn, prefix []byte) ([]string, error) {
	var ids []string
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), string(prefix)))
	}
	return ids, nil
}

func (b *Badger) NodeByID(id value.NodeID) (*value.Node, bool) {
	var n *value.Node
	_ = b.db.View(func(txn *badger.Txn) error {
		var err error
		n, err = b.getNode(txn, id)
		return err
	})
	return n, n != nil
}

func (b *Badger) RelationshipByID(id value.RelID) (*value.Relationship, bool) {
	var r *value.Relationship
	_ = b.db.View(func(txn *badger.Txn) error {
		var err error
		r, err = b.getRel(txn, id)
		return err
	})
	return r, r != nil
}

func (b *Badger) NewWriter() Writer {
	return &badgerJournal{db: b.db}
}

type badgerJournal struct {
	db *badger.DB

	createdNodes []*value.Node
	createdRels  []*value.Relationship
	propSets     []propSet
	deleteNodes  map[value.NodeID]bool
	detachNodes  map[value.NodeID]bool
	deleteRels   map[value.RelID]bool
}

func (j *badgerJournal) CreateNode(labels []string, props map[string]value.Value) *value.Node {
	m := value.NewOrderedMap()
	for k, v := range props {
		m.Set(k, v)
	}
	node := value.NewNode(value.NodeID(uuid.NewString()), append([]string(nil), labels...), m)
	j.createdNodes = append(j.createdNodes, node)
	return node
}

func (j *badgerJournal) CreateRelationship(from, to value.NodeID, relType string, props map[string]value.Value) (*value.Relationship, error) {
	m := value.NewOrderedMap()
	for k, v := range props {
		m.Set(k, v)
	}
	rel := value.NewRelationship(value.RelID(uuid.NewString()), from, to, relType, m)
	j.createdRels = append(j.createdRels, rel)
	return rel, nil
}

func (j *badgerJournal) SetProperty(ref EntityRef, key string, v value.Value) error {
	j.propSets = append(j.propSets, propSet{ref: ref, key: key, val: v})
	return nil
}

func (j *badgerJournal) DeleteNode(id value.NodeID, detach bool) error {
	if j.deleteNodes == nil {
		j.deleteNodes = map[value.NodeID]bool{}
		j.detachNodes = map[value.NodeID]bool{}
	}
	j.deleteNodes[id] = true
	j.detachNodes[id] = detach
	return nil
}

func (j *badgerJournal) DeleteRelationship(id value.RelID) error {
	if j.deleteRels == nil {
		j.deleteRels = map[value.RelID]bool{}
	}
	j.deleteRels[id] = true
	return nil
}

func (j *badgerJournal) Commit() error {
	return j.db.Update(func(txn *badger.Txn) error {
		for _, n := range j.createdNodes {
			if err := putNode(txn, n); err != nil {
				return err
			}
		}
		for _, r := range j.createdRels {
			if err := putRel(txn, r); err != nil {
				return err
			}
		}
		for _, ps := range j.propSets {
			if err := applyPropSet(txn, ps); err != nil {
				return err
			}
		}
		for id, detach := range j.detachNodes {
			if err := deleteNodeTxn(txn, id, detach); err != nil {
				return err
			}
		}
		for id := range j.deleteRels {
			if err := deleteRelTxn(txn, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (j *badgerJournal) Discard() { *j = badgerJournal{db: j.db} }

func putNode(txn *badger.Txn, n *value.Node) error {
	data, err := json.Marshal(toNodeDTO(n))
	if err != nil {
		return err
	}
	if err := txn.Set(nodeKey(n.ID), data); err != nil {
		return err
	}
	for _, l := range n.Labels {
		if err := txn.Set(labelIdxKey(l, n.ID), []byte{}); err != nil {
			return err
		}
	}
	return nil
}

func putRel(txn *badger.Txn, r *value.Relationship) error {
	data, err := json.Marshal(toRelDTO(r))
	if err != nil {
		return err
	}
	if err := txn.Set(relKey(r.ID), data); err != nil {
		return err
	}
	if err := txn.Set(outIdxKey(r.StartID, r.ID), []byte{}); err != nil {
		return err
	}
	return txn.Set(inIdxKey(r.EndID, r.ID), []byte{})
}

func applyPropSet(txn *badger.Txn, ps propSet) error {
	if ps.ref.IsNode {
		n, err := getNodeTxn(txn, ps.ref.NodeID)
		if err != nil || n == nil {
			return err
		}
		n.Properties.Set(ps.key, ps.val)
		return putNode(txn, n)
	}
	r, err := getRelTxn(txn, ps.ref.RelID)
	if err != nil || r == nil {
		return err
	}
	r.Properties.Set(ps.key, ps.val)
	return putRel(txn, r)
}

func getNodeTxn(txn *badger.Txn, id value.NodeID) (*value.Node, error) {
	item, err := txn.Get(nodeKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dto nodeDTO
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &dto) }); err != nil {
		return nil, err
	}
	return dto.toNode(), nil
}

func getRelTxn(txn *badger.Txn, id value.RelID) (*value.Relationship, error) {
	item, err := txn.Get(relKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dto relDTO
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &dto) }); err != nil {
		return nil, err
	}
	return dto.toRel(), nil
}

func deleteNodeTxn(txn *badger.Txn, id value.NodeID, detach bool) error {
	n, err := getNodeTxn(txn, id)
	if err != nil || n == nil {
		return err
	}
	outIDs, err := scanIndex(txn, outIdxPrefix(id))
	if err != nil {
		return err
	}
	inIDs, err := scanIndex(txn, inIdxPrefix(id))
	if err != nil {
		return err
	}
	if !detach && (len(outIDs) > 0 || len(inIDs) > 0) {
		return lyerr.InvalidArgument("cannot delete node %q with existing relationships; use DETACH DELETE", id)
	}
	for _, relID := range append(outIDs, inIDs...) {
		if err := deleteRelTxn(txn, value.RelID(relID)); err != nil {
			return err
		}
	}
	for _, l := range n.Labels {
		if err := txn.Delete(labelIdxKey(l, id)); err != nil {
			return err
		}
	}
	return txn.Delete(nodeKey(id))
}

func deleteRelTxn(txn *badger.Txn, id value.RelID) error {
	r, err := getRelTxn(txn, id)
	if err != nil || r == nil {
		return err
	}
	if err := txn.Delete(outIdxKey(r.StartID, id)); err != nil {
		return err
	}
	if err := txn.Delete(inIdxKey(r.EndID, id)); err != nil {
		return err
	}
	return txn.Delete(relKey(id))
}
