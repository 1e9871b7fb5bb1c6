package render

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tbakker/sno-graph/pkg/graph"
	"github.com/tbakker/sno-graph/pkg/sno"
)

func testSubgraph(t *testing.T) *graph.Subgraph {
	t.Helper()

	bundle := &sno.Bundle{
		Nodes: []sno.Node{
			{ID: 1, Type: "qst", Name: "Target.qst"},
			{ID: 2, Type: "enc", Name: "Parent"},
			{ID: 3, Type: "trs", Name: "Child"},
		},
		Edges: []sno.Edge{
			{Source: 2, Target: 1, Label: "leads to"},
			{Source: 1, Target: 3, Label: "spawns"},
		},
	}
	idx := graph.NewIndex(bundle)
	res, err := graph.Traverse(idx, 1, graph.Limits{Incoming: 1, Outgoing: 1})
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}
	return graph.Assemble(idx, res)
}

func TestDocumentStructure(t *testing.T) {
	data, err := Document(testSubgraph(t))
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	doc := string(data)

	if !strings.HasPrefix(doc, "digraph") {
		t.Errorf("Expected a digraph document, got prefix %q", doc[:min(20, len(doc))])
	}
	if !strings.HasSuffix(doc, "\n") {
		t.Error("Document should end with a newline")
	}

	for _, want := range []string{
		`bgcolor=black`,
		`shape=box`,
		`1 -> 3`,
		`2 -> 1`,
		`spawns`,
		`leads to`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("Document missing %q:\n%s", want, doc)
		}
	}
}

func TestDocumentTargetHighlighted(t *testing.T) {
	data, err := Document(testSubgraph(t))
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	doc := string(data)

	if !strings.Contains(doc, "fillcolor=blue") {
		t.Errorf("Target node should be filled blue:\n%s", doc)
	}
	if strings.Count(doc, "fillcolor=blue") != 1 {
		t.Errorf("Only the target should be filled blue:\n%s", doc)
	}
}

func TestDocumentLabels(t *testing.T) {
	data, err := Document(testSubgraph(t))
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	doc := string(data)

	for _, want := range []string{
		"Target.qst",
		"sno=1",
		"distance=0",
		"distance=1",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("Document missing label content %q:\n%s", want, doc)
		}
	}

	// The record type is redundant when the name already carries it.
	if strings.Contains(doc, `Target.qst\nqst`) {
		t.Errorf("Type line repeated for Target.qst:\n%s", doc)
	}
	if !strings.Contains(doc, `Parent\nenc`) {
		t.Errorf("Expected type line for Parent:\n%s", doc)
	}
}

func TestDocumentFilteredMarkers(t *testing.T) {
	bundle := &sno.Bundle{
		Nodes: []sno.Node{{ID: 1}, {ID: 2}, {ID: 3}},
		Edges: []sno.Edge{
			{Source: 1, Target: 2},
			{Source: 2, Target: 3},
		},
	}
	idx := graph.NewIndex(bundle)
	res, err := graph.Traverse(idx, 1, graph.Limits{Outgoing: 1})
	if err != nil {
		t.Fatalf("Traverse failed: %v", err)
	}

	data, err := Document(graph.Assemble(idx, res))
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}

	if !strings.Contains(string(data), "(outgoing edges not shown)") {
		t.Errorf("Expected truncation marker for node 2:\n%s", data)
	}
}

func TestDocumentDeterministic(t *testing.T) {
	sg := testSubgraph(t)

	first, err := Document(sg)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	second, err := Document(sg)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("Documents differ between runs:\n%s\n---\n%s", first, second)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.dot")

	returned, err := WriteFile(path, testSubgraph(t))
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Reading output failed: %v", err)
	}
	if !bytes.Equal(returned, written) {
		t.Error("Returned document differs from the written file")
	}
	if !strings.HasPrefix(string(written), "digraph") {
		t.Errorf("Expected a digraph document in %s", path)
	}
}
