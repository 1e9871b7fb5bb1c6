package graph

import (
	"sort"

	"github.com/tbakker/sno-graph/pkg/sno"
)

// SubNode is a resolved node in the extracted subgraph.
type SubNode struct {
	Node             *sno.Node
	Distance         int
	Target           bool
	IncomingFiltered bool
	OutgoingFiltered bool
}

// ID returns the node's stable record id.
func (n *SubNode) ID() int64 { return n.Node.ID }

// SubEdge is an edge of the extracted subgraph. Both endpoints point
// into the subgraph's node list.
type SubEdge struct {
	From  *SubNode
	To    *SubNode
	Label string
}

// Subgraph is the minimal induced graph around the target: the visited
// nodes with their records resolved, plus only those recorded edges
// whose endpoints are both visited.
type Subgraph struct {
	target int64
	nodes  []*SubNode // ascending id
	edges  []*SubEdge
	byID   map[int64]*SubNode
}

// Assemble materializes a Traversal Result against the Index. Edges
// whose endpoints are not both in the visited set are filtered out, so
// the output can never reference a node outside its node list. Nodes
// come out in ascending id order regardless of discovery order.
func Assemble(idx *Index, res *Result) *Subgraph {
	sg := &Subgraph{
		target: res.Target,
		byID:   make(map[int64]*SubNode, len(res.Visits)),
	}

	for id, visit := range res.Visits {
		node, ok := idx.Node(id)
		if !ok {
			// Cannot happen for a Result produced by Traverse; the
			// visited set is drawn from the node table.
			continue
		}
		sn := &SubNode{
			Node:             node,
			Distance:         visit.Distance,
			Target:           id == res.Target,
			IncomingFiltered: visit.IncomingFiltered,
			OutgoingFiltered: visit.OutgoingFiltered,
		}
		sg.byID[id] = sn
		sg.nodes = append(sg.nodes, sn)
	}

	sort.Slice(sg.nodes, func(i, j int) bool {
		return sg.nodes[i].ID() < sg.nodes[j].ID()
	})

	for _, e := range res.Edges {
		from, okFrom := sg.byID[e.Source]
		to, okTo := sg.byID[e.Target]
		if !okFrom || !okTo {
			continue
		}
		sg.edges = append(sg.edges, &SubEdge{From: from, To: to, Label: e.Label})
	}

	// Stable so repeated input edges keep their relative order.
	sort.SliceStable(sg.edges, func(i, j int) bool {
		if sg.edges[i].From.ID() != sg.edges[j].From.ID() {
			return sg.edges[i].From.ID() < sg.edges[j].From.ID()
		}
		return sg.edges[i].To.ID() < sg.edges[j].To.ID()
	})

	return sg
}

// Target returns the id of the node the subgraph was extracted around.
func (sg *Subgraph) Target() int64 { return sg.target }

// Nodes returns the subgraph nodes in ascending id order.
func (sg *Subgraph) Nodes() []*SubNode { return sg.nodes }

// Edges returns the subgraph edges ordered by (source, target).
func (sg *Subgraph) Edges() []*SubEdge { return sg.edges }

// Node looks up a subgraph node by id.
func (sg *Subgraph) Node(id int64) (*SubNode, bool) {
	n, ok := sg.byID[id]
	return n, ok
}
