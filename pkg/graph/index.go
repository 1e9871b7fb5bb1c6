package graph

import (
	"github.com/tbakker/sno-graph/pkg/logging"
	"github.com/tbakker/sno-graph/pkg/sno"
)

// Index is the in-memory adjacency structure over the full record
// collection. It owns the canonical node table; every other component
// refers to nodes by id. An Index is built once per run and is read-only
// afterwards, so it is safe to share across traversals without locking.
type Index struct {
	nodes    map[int64]*sno.Node
	outgoing map[int64][]*sno.Edge // forward adjacency, input order
	incoming map[int64][]*sno.Edge // reverse adjacency, derived, input order
	edges    int
	dangling []DanglingEdge
}

// NewIndex builds the forward adjacency from the edge records grouped by
// source, and the reverse adjacency by inverting every edge. Within each
// adjacency list the input order of edges is preserved, so repeated runs
// on the same input traverse identically. Edges referencing unknown ids
// are dropped with a recorded warning.
func NewIndex(bundle *sno.Bundle) *Index {
	idx := &Index{
		nodes:    make(map[int64]*sno.Node, len(bundle.Nodes)),
		outgoing: make(map[int64][]*sno.Edge),
		incoming: make(map[int64][]*sno.Edge),
	}

	for i := range bundle.Nodes {
		n := bundle.Nodes[i]
		idx.nodes[n.ID] = &n
	}

	for i := range bundle.Edges {
		e := bundle.Edges[i]
		if _, ok := idx.nodes[e.Source]; !ok {
			idx.drop(e, e.Source)
			continue
		}
		if _, ok := idx.nodes[e.Target]; !ok {
			idx.drop(e, e.Target)
			continue
		}

		// One shared *Edge per input occurrence: the traversal engine
		// dedups recorded edges by identity, which keeps multiplicity
		// of repeated input edges intact.
		edge := &e
		idx.outgoing[e.Source] = append(idx.outgoing[e.Source], edge)
		idx.incoming[e.Target] = append(idx.incoming[e.Target], edge)
		idx.edges++
	}

	return idx
}

func (x *Index) drop(e sno.Edge, missing int64) {
	x.dangling = append(x.dangling, DanglingEdge{Edge: e, Missing: missing})
	logging.Warn("dropping edge to unknown node", "source", e.Source, "target", e.Target, "missing", missing)
}

// Require verifies that the traversal target exists. It is checked
// eagerly so a bad target fails before any traversal work begins.
func (x *Index) Require(target int64) error {
	if _, ok := x.nodes[target]; !ok {
		return &MissingTargetError{ID: target}
	}
	return nil
}

// Node returns the canonical node for id.
func (x *Index) Node(id int64) (*sno.Node, bool) {
	n, ok := x.nodes[id]
	return n, ok
}

// Outgoing returns the edges leaving id, in input order.
func (x *Index) Outgoing(id int64) []*sno.Edge {
	return x.outgoing[id]
}

// Incoming returns the edges arriving at id, in input order.
func (x *Index) Incoming(id int64) []*sno.Edge {
	return x.incoming[id]
}

// NodeCount returns the number of nodes in the table.
func (x *Index) NodeCount() int {
	return len(x.nodes)
}

// EdgeCount returns the number of resolvable edges kept in the index.
func (x *Index) EdgeCount() int {
	return x.edges
}

// Dangling returns the warnings recorded for dropped edges.
func (x *Index) Dangling() []DanglingEdge {
	return x.dangling
}
