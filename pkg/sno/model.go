package sno

// Node is one game-data record in the reference graph, identified by its
// stable SNO id. Nodes are immutable once loaded.
type Node struct {
	ID   int64  `json:"id"`   // SNO id
	Type string `json:"type"` // record kind, e.g. "qst", "trs", "enc"
	Name string `json:"name"` // display name
}

// Edge is a directed reference from one record to another. The label
// describes the reference kind. Two edges between the same pair with
// different labels are distinct, and duplicate occurrences in the input
// are kept as distinct edges.
type Edge struct {
	Source int64  `json:"source"`
	Target int64  `json:"target"`
	Label  string `json:"label,omitempty"`
}

// Bundle is a flat collection of node and edge records, the shape both
// loaders produce and the graph index consumes.
type Bundle struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}
