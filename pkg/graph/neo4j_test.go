package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/lynxcore/pkg/value"
)

func TestLoadFromNeo4jJSONResolvesRelationshipEndpoints(t *testing.T) {
	dir := t.TempDir()
	nodesJSON := `{"id":"n1","labels":["Person"],"properties":{"name":"Ada"}}
{"id":"n2","labels":["Person"],"properties":{"name":"Grace"}}
`
	relsJSON := `{"id":"r1","type":"KNOWS","start":{"id":"n1"},"end":{"id":"n2"},"properties":{}}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nodes.json"), []byte(nodesJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "relationships.json"), []byte(relsJSON), 0o644))

	m := NewMemory()
	w := m.NewWriter()
	require.NoError(t, LoadFromNeo4jJSON(w, dir))

	nodes, err := m.Nodes(nil, nil)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	rels, err := m.Relationships(nil)
	require.NoError(t, err)
	require.Len(t, rels, 1)

	start, ok := m.NodeByID(rels[0].StartID)
	require.True(t, ok)
	end, ok := m.NodeByID(rels[0].EndID)
	require.True(t, ok)
	startName, _ := start.Property("name")
	endName, _ := end.Property("name")
	assert.Equal(t, "Ada", startName.AsStr())
	assert.Equal(t, "Grace", endName.AsStr())
}

func TestLoadFromNeo4jJSONRejectsUnknownEndpoint(t *testing.T) {
	dir := t.TempDir()
	nodesJSON := `{"id":"n1","labels":["Person"],"properties":{}}
`
	relsJSON := `{"id":"r1","type":"KNOWS","start":{"id":"n1"},"end":{"id":"missing"},"properties":{}}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nodes.json"), []byte(nodesJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "relationships.json"), []byte(relsJSON), 0o644))

	m := NewMemory()
	w := m.NewWriter()
	err := LoadFromNeo4jJSON(w, dir)
	assert.Error(t, err)
}

func TestNeo4jExportRoundTrip(t *testing.T) {
	m := NewMemory()
	w := m.NewWriter()
	a := w.CreateNode([]string{"Person"}, map[string]value.Value{"name": value.Str("Ada")})
	b := w.CreateNode([]string{"Person"}, map[string]value.Value{"name": value.Str("Grace")})
	_, err := w.CreateRelationship(a.ID, b.ID, "KNOWS", map[string]value.Value{"since": value.Int(1843)})
	require.NoError(t, err)
	require.NoError(t, w.Commit())

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, SaveToNeo4jExport(m, path))

	m2 := NewMemory()
	w2 := m2.NewWriter()
	require.NoError(t, LoadFromNeo4jExport(w2, path))

	nodes, err := m2.Nodes(nil, nil)
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	rels, err := m2.Relationships(nil)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	since, ok := rels[0].Property("since")
	require.True(t, ok)
	assert.Equal(t, int64(1843), since.AsInt())
}

func TestLoadNodesFromReaderSkipsBlankLines(t *testing.T) {
	r := bytes.NewBufferString("\n{\"id\":\"n1\",\"labels\":[\"Person\"],\"properties\":{}}\n\n")
	m := NewMemory()
	w := m.NewWriter()
	ids, err := loadNodesFromReader(w, r)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.NoError(t, w.Commit())

	nodes, err := m.Nodes(nil, nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}
