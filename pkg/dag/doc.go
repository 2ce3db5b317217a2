// Package dag builds the descriptor graph shown by the graph command: a
// root project descriptor, its parent chain, its direct dependencies and
// their parent chains.
//
// Nodes are organized into rows by distance from the root. Edges carry an
// [EdgeKind] telling parent links from dependency links:
//
//	g, err := dag.FromDescriptor(ctx, root, res, dag.Options{})
//	for _, row := range g.RowIDs() {
//	    for _, n := range g.NodesInRow(row) {
//	        fmt.Println(row, n.ID)
//	    }
//	}
//
// Transitive dependencies are not followed; each direct dependency is
// resolved on its own. Dependencies that fail to resolve stay in the graph
// as nodes with an "error" metadata entry.
//
// DAG instances are not safe for concurrent use. [FromDescriptor] loads
// dependencies concurrently but builds the graph on a single goroutine.
package dag
