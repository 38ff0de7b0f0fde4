package graph

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/orneryd/lynxcore/pkg/lyerr"
	"github.com/orneryd/lynxcore/pkg/value"
)

// Neo4jNode/Neo4jRelationship mirror the line-delimited JSON records
// Neo4j's apoc.export.json.all() produces. The teacher's
// pkg/storage/loader.go calls these types by name but their
// definitions were outside the retrieval pack's file cap, so the
// fields here are reconstructed from loader.go's own usage
// (n.ID/n.Labels/n.Properties, r.ID/r.Type/r.Properties/
// r.GetStartID()/r.GetEndID()) rather than invented from scratch.
type Neo4jNode struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

type Neo4jRelationship struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Start      Neo4jEndpoint  `json:"start"`
	End        Neo4jEndpoint  `json:"end"`
	Properties map[string]any `json:"properties"`
}

// Neo4jEndpoint accepts either apoc's nested {"id": "..."} shape or a
// bare string, matching how exports vary across Neo4j/APOC versions.
type Neo4jEndpoint struct {
	ID string `json:"id"`
}

func (e *Neo4jEndpoint) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		e.ID = id
		return nil
	}
	type plain Neo4jEndpoint
	return json.Unmarshal(data, (*plain)(e))
}

func (r *Neo4jRelationship) GetStartID() string { return r.Start.ID }
func (r *Neo4jRelationship) GetEndID() string   { return r.End.ID }

// Neo4jExport is the combined single-file export format produced by
// ToNeo4jExport and consumed by LoadFromNeo4jExport.
type Neo4jExport struct {
	Nodes         []Neo4jNode         `json:"nodes"`
	Relationships []Neo4jRelationship `json:"relationships"`
}

// LoadFromNeo4jJSON reads nodes.json and relationships.json (line-
// delimited JSON, apoc.export.json.all()'s per-file format) from dir
// and writes them through w, committing once at the end.
func LoadFromNeo4jJSON(w Writer, dir string) error {
	ids, err := loadNodesFile(w, filepath.Join(dir, "nodes.json"))
	if err != nil {
		return fmt.Errorf("loading nodes: %w", err)
	}
	if err := loadRelationshipsFile(w, filepath.Join(dir, "relationships.json"), ids); err != nil {
		return fmt.Errorf("loading relationships: %w", err)
	}
	return w.Commit()
}

func loadNodesFile(w Writer, path string) (map[string]value.NodeID, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]value.NodeID{}, nil
		}
		return nil, err
	}
	defer file.Close()
	return loadNodesFromReader(w, file)
}

// loadNodesFromReader creates one Writer node per Neo4j-exported node
// and returns the mapping from the export's original ID to the freshly
// minted value.NodeID, since Writer.CreateNode always assigns its own
// identity and the relationships pass still needs to resolve the
// export's endpoint references against it.
func loadNodesFromReader(w Writer, r io.Reader) (map[string]value.NodeID, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	ids := make(map[string]value.NodeID)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var n Neo4jNode
		if err := json.Unmarshal(line, &n); err != nil {
			return nil, fmt.Errorf("parsing node JSON: %w", err)
		}
		if n.ID == "" {
			return nil, lyerr.InvalidArgument("neo4j export node missing id")
		}
		created := w.CreateNode(n.Labels, wrapProps(n.Properties))
		ids[n.ID] = created.ID
	}
	return ids, scanner.Err()
}

func loadRelationshipsFile(w Writer, path string, ids map[string]value.NodeID) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()
	return loadRelationshipsFromReader(w, file, ids)
}

func loadRelationshipsFromReader(w Writer, r io.Reader, ids map[string]value.NodeID) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rel Neo4jRelationship
		if err := json.Unmarshal(line, &rel); err != nil {
			return fmt.Errorf("parsing relationship JSON: %w", err)
		}
		if rel.ID == "" {
			return lyerr.InvalidArgument("neo4j export relationship missing id")
		}
		start, ok := ids[rel.GetStartID()]
		if !ok {
			return lyerr.InvalidArgument("neo4j export relationship %q references unknown start node %q", rel.ID, rel.GetStartID())
		}
		end, ok := ids[rel.GetEndID()]
		if !ok {
			return lyerr.InvalidArgument("neo4j export relationship %q references unknown end node %q", rel.ID, rel.GetEndID())
		}
		if _, err := w.CreateRelationship(start, end, rel.Type, wrapProps(rel.Properties)); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func wrapProps(props map[string]any) map[string]value.Value {
	out := make(map[string]value.Value, len(props))
	for k, v := range props {
		out[k] = value.Wrap(v)
	}
	return out
}

// ToNeo4jExport snapshots every node and relationship readable through
// m into the combined export format.
func ToNeo4jExport(m Model) (*Neo4jExport, error) {
	nodes, err := m.Nodes(nil, nil)
	if err != nil {
		return nil, err
	}
	rels, err := m.Relationships(nil)
	if err != nil {
		return nil, err
	}
	export := &Neo4jExport{
		Nodes:         make([]Neo4jNode, len(nodes)),
		Relationships: make([]Neo4jRelationship, len(rels)),
	}
	for i, n := range nodes {
		export.Nodes[i] = Neo4jNode{ID: string(n.ID), Labels: n.Labels, Properties: unwrapProps(n.Properties)}
	}
	for i, r := range rels {
		export.Relationships[i] = Neo4jRelationship{
			ID:         string(r.ID),
			Type:       r.Type,
			Start:      Neo4jEndpoint{ID: string(r.StartID)},
			End:        Neo4jEndpoint{ID: string(r.EndID)},
			Properties: unwrapProps(r.Properties),
		}
	}
	return export, nil
}

func unwrapProps(props *value.OrderedMap) map[string]any {
	out := make(map[string]any, props.Len())
	for _, k := range props.Keys() {
		v, _ := props.Get(k)
		out[k] = value.Unwrap(v)
	}
	return out
}

// SaveToNeo4jExport writes m's full contents to path as a single
// indented JSON document.
func SaveToNeo4jExport(m Model, path string) error {
	export, err := ToNeo4jExport(m)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}

// LoadFromNeo4jExport reads a combined export file written by
// SaveToNeo4jExport and replays it through w.
func LoadFromNeo4jExport(w Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	var export Neo4jExport
	if err := json.NewDecoder(file).Decode(&export); err != nil {
		return fmt.Errorf("decoding JSON: %w", err)
	}
	ids := make(map[string]value.NodeID, len(export.Nodes))
	for _, n := range export.Nodes {
		created := w.CreateNode(n.Labels, wrapProps(n.Properties))
		ids[n.ID] = created.ID
	}
	for _, r := range export.Relationships {
		start := ids[r.GetStartID()]
		end := ids[r.GetEndID()]
		if _, err := w.CreateRelationship(start, end, r.Type, wrapProps(r.Properties)); err != nil {
			return err
		}
	}
	return w.Commit()
}
