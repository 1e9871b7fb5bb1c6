package output

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/tbakker/sno-graph/pkg/graph"
)

// PrintSummary prints a colorized extraction report to the console.
func PrintSummary(input string, idx *graph.Index, sg *graph.Subgraph, outPath string) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("sno-graph - Reference Neighborhood Report")
	bold.Println("=========================================")
	fmt.Printf("Input: %s\n", input)
	fmt.Printf("Indexed: %d records, %d references\n", idx.NodeCount(), idx.EdgeCount())

	dangling := idx.Dangling()
	if len(dangling) == 0 {
		green.Println("Dropped references: 0")
	} else {
		yellow.Printf("Dropped references: %d\n", len(dangling))
		for _, d := range dangling {
			red.Printf("  %s\n", d)
		}
	}
	fmt.Println()

	target, ok := sg.Node(sg.Target())
	if ok {
		cyan.Printf("Target: %s (sno=%d)\n", target.Node.Name, target.ID())
	}
	fmt.Printf("Neighborhood: %d nodes, %d edges\n", len(sg.Nodes()), len(sg.Edges()))

	var capped int
	for _, n := range sg.Nodes() {
		if n.IncomingFiltered || n.OutgoingFiltered {
			capped++
		}
	}
	if capped > 0 {
		yellow.Printf("Nodes with edges not shown: %d\n", capped)
	}

	green.Printf("Wrote %s\n", outPath)
}
