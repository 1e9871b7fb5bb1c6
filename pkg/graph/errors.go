package graph

import (
	"fmt"

	"github.com/tbakker/sno-graph/pkg/sno"
)

// MissingTargetError reports that the configured traversal target is
// absent from the node table. It is raised before any traversal work
// begins and is fatal to the run.
type MissingTargetError struct {
	ID int64
}

func (e *MissingTargetError) Error() string {
	return fmt.Sprintf("target node %d not present in the node table", e.ID)
}

// DanglingEdge records an input edge that referenced an unknown node id.
// Such edges are dropped during index construction and never abort the
// run; the input data is routinely incomplete.
type DanglingEdge struct {
	Edge    sno.Edge
	Missing int64 // the endpoint id that did not resolve
}

func (d DanglingEdge) String() string {
	return fmt.Sprintf("edge %d -> %d references unknown node %d", d.Edge.Source, d.Edge.Target, d.Missing)
}
