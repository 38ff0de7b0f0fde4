package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/lynxcore/pkg/value"
)

func TestMemoryWriterCommitMakesWritesVisible(t *testing.T) {
	m := NewMemory()
	w := m.NewWriter()

	n := w.CreateNode([]string{"Person"}, map[string]value.Value{"name": value.Str("Ada")})

	// Nothing is visible before Commit.
	nodes, err := m.Nodes([]string{"Person"}, nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)

	require.NoError(t, w.Commit())

	nodes, err = m.Nodes([]string{"Person"}, nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, n.ID, nodes[0].ID)
}

func TestMemoryWriterDiscardLeavesGraphUntouched(t *testing.T) {
	m := NewMemory()
	w := m.NewWriter()
	w.CreateNode([]string{"Person"}, nil)
	w.Discard()

	nodes, err := m.Nodes(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestMemoryExpandOutgoingAndIncoming(t *testing.T) {
	m := NewMemory()
	w := m.NewWriter()
	a := w.CreateNode([]string{"Person"}, nil)
	b := w.CreateNode([]string{"Person"}, nil)
	_, err := w.CreateRelationship(a.ID, b.ID, "KNOWS", nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	out, err := m.Expand(a.ID, DirOutgoing, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, b.ID, out[0].Node.ID)
	assert.True(t, out[0].Forward)

	in, err := m.Expand(b.ID, DirIncoming, nil)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, a.ID, in[0].Node.ID)
	assert.False(t, in[0].Forward)
}

func TestMemoryDeleteNodeRequiresDetachWhenConnected(t *testing.T) {
	m := NewMemory()
	w := m.NewWriter()
	a := w.CreateNode(nil, nil)
	b := w.CreateNode(nil, nil)
	_, err := w.CreateRelationship(a.ID, b.ID, "KNOWS", nil)
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	w2 := m.NewWriter()
	require.NoError(t, w2.DeleteNode(a.ID, false))
	assert.Error(t, w2.Commit())

	w3 := m.NewWriter()
	require.NoError(t, w3.DeleteNode(a.ID, true))
	require.NoError(t, w3.Commit())

	_, ok := m.NodeByID(a.ID)
	assert.False(t, ok)
	rels, err := m.Relationships(nil)
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestMemorySetPropertyAppliesOnCommit(t *testing.T) {
	m := NewMemory()
	w := m.NewWriter()
	n := w.CreateNode([]string{"Person"}, map[string]value.Value{"name": value.Str("Ada")})
	require.NoError(t, w.Commit())

	w2 := m.NewWriter()
	require.NoError(t, w2.SetProperty(EntityRef{IsNode: true, NodeID: n.ID}, "age", value.Int(36)))
	require.NoError(t, w2.Commit())

	got, ok := m.NodeByID(n.ID)
	require.True(t, ok)
	age, ok := got.Property("age")
	require.True(t, ok)
	assert.Equal(t, int64(36), age.AsInt())
}
