package graph

import (
	"github.com/tbakker/sno-graph/pkg/logging"
	"github.com/tbakker/sno-graph/pkg/sno"
)

// Limits bounds one traversal invocation.
type Limits struct {
	Incoming int // hops to walk against edge direction; 0 disables that side
	Outgoing int // hops to walk along edge direction; 0 disables that side
	FanOut   int // per-node expansion cap; <= 0 disables the cap
}

// Visit carries the discovery bookkeeping for one node in one traversal.
type Visit struct {
	Distance         int  // smallest BFS depth either exploration reached the node at; target is 0
	IncomingFiltered bool // incoming edges left unexplored at this node
	OutgoingFiltered bool // outgoing edges left unexplored at this node
}

// Result is the transient outcome of one bounded traversal: the visited
// node set and the edges recorded while walking. It points into the
// Index it was produced from and is discarded after the document is
// emitted.
type Result struct {
	Target int64
	Visits map[int64]*Visit
	Edges  []*sno.Edge
}

type direction int

const (
	outgoing direction = iota
	incoming
)

func (d direction) String() string {
	if d == incoming {
		return "incoming"
	}
	return "outgoing"
}

// Traverse runs two independent breadth-first explorations seeded from
// the target: forward over the outgoing adjacency up to lim.Outgoing
// hops, and backward over the reverse adjacency up to lim.Incoming hops.
// Each exploration keeps its own visited set, so a node one direction
// reaches first is still fully expanded by the other; the result is the
// union of both walks, keeping the smaller distance for nodes both
// reach. Within a direction a node is expanded at most once, so cyclic
// inputs terminate. Edges are recorded once across both walks.
func Traverse(idx *Index, target int64, lim Limits) (*Result, error) {
	if err := idx.Require(target); err != nil {
		return nil, err
	}

	res := &Result{
		Target: target,
		Visits: map[int64]*Visit{target: {}},
	}

	// Self-references on the target stay inside the induced subgraph
	// even when both limits are zero.
	seen := make(map[*sno.Edge]struct{})
	for _, e := range idx.Outgoing(target) {
		if e.Target == target {
			res.record(e, seen)
		}
	}

	res.explore(idx, lim.Outgoing, lim.FanOut, seen, outgoing)
	res.explore(idx, lim.Incoming, lim.FanOut, seen, incoming)

	return res, nil
}

// explore walks one direction breadth-first from the target, bounded by
// depthLimit hops. The visited set is local to the direction; the other
// exploration's progress never cuts a walk short.
func (r *Result) explore(idx *Index, depthLimit, fanOut int, seen map[*sno.Edge]struct{}, dir direction) {
	visited := map[int64]bool{r.Target: true}
	frontier := []int64{r.Target}

	for depth := 1; depth <= depthLimit && len(frontier) > 0; depth++ {
		var next []int64
		for _, id := range frontier {
			edges := adjacent(idx, id, dir)
			if fanOut > 0 && id != r.Target && len(edges) > fanOut {
				r.markFiltered(id, dir)
				continue
			}

			for _, e := range edges {
				other := e.Target
				if dir == incoming {
					other = e.Source
				}

				if !visited[other] {
					visited[other] = true
					next = append(next, other)
					r.visit(other, depth)
					logging.Trace("visited node", "id", other, "depth", depth, "direction", dir)
				}

				// Both endpoints are visited at this point, so the
				// edge belongs to the induced subgraph either way.
				r.record(e, seen)
			}
		}
		frontier = next
	}

	// Whatever is left on the frontier hit the depth limit without
	// being expanded.
	for _, id := range frontier {
		if len(adjacent(idx, id, dir)) > 0 {
			r.markFiltered(id, dir)
		}
	}
}

// visit unions a node into the result, keeping the smallest distance
// when both explorations reach it.
func (r *Result) visit(id int64, depth int) {
	if v, ok := r.Visits[id]; ok {
		if depth < v.Distance {
			v.Distance = depth
		}
		return
	}
	r.Visits[id] = &Visit{Distance: depth}
}

func (r *Result) record(e *sno.Edge, seen map[*sno.Edge]struct{}) {
	if _, dup := seen[e]; dup {
		return
	}
	seen[e] = struct{}{}
	r.Edges = append(r.Edges, e)
}

func (r *Result) markFiltered(id int64, dir direction) {
	v := r.Visits[id]
	if dir == outgoing {
		v.OutgoingFiltered = true
	} else {
		v.IncomingFiltered = true
	}
}

func adjacent(idx *Index, id int64, dir direction) []*sno.Edge {
	if dir == outgoing {
		return idx.Outgoing(id)
	}
	return idx.Incoming(id)
}
