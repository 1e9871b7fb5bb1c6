// Package render serializes an extracted subgraph into a Graphviz DOT
// document. Layout is left entirely to the tool consuming the document.
package render

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	gograph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"

	"github.com/tbakker/sno-graph/pkg/graph"
)

// Document renders the subgraph as a DOT document. The document encodes
// exactly the nodes and edges of the subgraph, nodes in ascending id
// order, styled on a dark background with the target node filled blue.
func Document(sg *graph.Subgraph) ([]byte, error) {
	dg := multi.NewDirectedGraph()

	for _, n := range sg.Nodes() {
		dg.AddNode(dotNode{n})
	}
	for _, e := range sg.Edges() {
		line := dg.NewLine(dotNode{e.From}, dotNode{e.To})
		dg.SetLine(dotLine{Line: line, label: e.Label})
	}

	data, err := dot.MarshalMulti(dotGraph{dg}, "", "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling dot document: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile renders the subgraph, writes the document to path, and
// returns the rendered bytes. The file is held open only for the
// duration of the write.
func WriteFile(path string, sg *graph.Subgraph) ([]byte, error) {
	data, err := Document(sg)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return data, nil
}

// dotGraph carries the document-level styling.
type dotGraph struct {
	*multi.DirectedGraph
}

func (dotGraph) DOTAttributers() (g, n, e encoding.Attributer) {
	graphAttrs := attrs{
		{Key: "bgcolor", Value: "black"},
	}
	nodeAttrs := attrs{
		{Key: "color", Value: "white"},
		{Key: "fillcolor", Value: "black"},
		{Key: "style", Value: "filled"},
		{Key: "fontcolor", Value: "white"},
		{Key: "shape", Value: "box"},
	}
	edgeAttrs := attrs{
		{Key: "color", Value: "white"},
	}
	return graphAttrs, nodeAttrs, edgeAttrs
}

type attrs []encoding.Attribute

func (a attrs) Attributes() []encoding.Attribute { return a }

// dotNode adapts a subgraph node to the DOT marshaller.
type dotNode struct {
	*graph.SubNode
}

func (n dotNode) DOTID() string {
	return strconv.FormatInt(n.ID(), 10)
}

func (n dotNode) Attributes() []encoding.Attribute {
	out := []encoding.Attribute{{Key: "label", Value: n.label()}}
	if n.Target {
		out = append(out,
			encoding.Attribute{Key: "fillcolor", Value: "blue"},
			encoding.Attribute{Key: "style", Value: "filled"},
		)
	}
	return out
}

// label builds the multi-line node statement: display name, record kind,
// id, distance from the target, and markers for directions whose edges
// were not followed.
func (n dotNode) label() string {
	lines := []string{n.Node.Name}
	if n.Node.Type != "" && !strings.HasSuffix(n.Node.Name, "."+n.Node.Type) {
		lines = append(lines, n.Node.Type)
	}
	lines = append(lines,
		fmt.Sprintf("sno=%d", n.ID()),
		fmt.Sprintf("distance=%d", n.Distance),
	)
	if n.IncomingFiltered {
		lines = append(lines, "(incoming edges not shown)")
	}
	if n.OutgoingFiltered {
		lines = append(lines, "(outgoing edges not shown)")
	}
	return strings.Join(lines, "\n")
}

// dotLine is a labeled edge line.
type dotLine struct {
	gograph.Line
	label string
}

func (l dotLine) ReversedLine() gograph.Line {
	return dotLine{Line: l.Line.ReversedLine(), label: l.label}
}

func (l dotLine) Attributes() []encoding.Attribute {
	if l.label == "" {
		return nil
	}
	return []encoding.Attribute{{Key: "label", Value: l.label}}
}
