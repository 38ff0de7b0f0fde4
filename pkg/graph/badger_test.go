package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/lynxcore/pkg/value"
)

func newTestBadger(t *testing.T) *Badger {
	t.Helper()
	b, err := NewBadgerInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBadgerCreateAndReadNode(t *testing.T) {
	b := newTestBadger(t)
	w := b.NewWriter()
	n := w.CreateNode([]string{"Person"}, map[string]value.Value{"name": value.Str("Ada")})
	require.NoError(t, w.Commit())

	got, ok := b.NodeByID(n.ID)
	require.True(t, ok)
	assert.True(t, got.HasLabel("Person"))
	name, ok := got.Property("name")
	require.True(t, ok)
	assert.Equal(t, "Ada", name.AsStr())
}

func TestBadgerUncommittedWritesNotVisible(t *testing.T) {
	b := newTestBadger(t)
	w := b.NewWriter()
	w.CreateNode([]string{"Person"}, nil)

	nodes, err := b.Nodes([]string{"Person"}, nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	w.Discard()
	nodes, err = b.Nodes([]string{"Person"}, nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestBadgerExpandByLabelIndex(t *testing.T) {
	b := newTestBadger(t)
	w := b.NewWriter()
	a := w.CreateNode([]string{"Person"}, nil)
	bb := w.CreateNode([]string{"Person"}, nil)
	_, err := w.CreateRelationship(a.ID, bb.ID, "KNOWS", nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	out, err := b.Expand(a.ID, DirOutgoing, []string{"KNOWS"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, bb.ID, out[0].Node.ID)

	none, err := b.Expand(a.ID, DirOutgoing, []string{"LIKES"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBadgerDeleteNodeCascadesRelationships(t *testing.T) {
	b := newTestBadger(t)
	w := b.NewWriter()
	a := w.CreateNode(nil, nil)
	bb := w.CreateNode(nil, nil)
	_, err := w.CreateRelationship(a.ID, bb.ID, "KNOWS", nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	w2 := b.NewWriter()
	require.NoError(t, w2.DeleteNode(a.ID, true))
	require.NoError(t, w2.Commit())

	_, ok := b.NodeByID(a.ID)
	assert.False(t, ok)
	rels, err := b.Relationships(nil)
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestBadgerSetProperty(t *testing.T) {
	b := newTestBadger(t)
	w := b.NewWriter()
	n := w.CreateNode([]string{"Person"}, map[string]value.Value{"name": value.Str("Ada")})
	require.NoError(t, w.Commit())

	w2 := b.NewWriter()
	require.NoError(t, w2.SetProperty(EntityRef{IsNode: true, NodeID: n.ID}, "age", value.Int(36)))
	require.NoError(t, w2.Commit())

	got, ok := b.NodeByID(n.ID)
	require.True(t, ok)
	age, ok := got.Property("age")
	require.True(t, ok)
	assert.Equal(t, int64(36), age.AsInt())
}
