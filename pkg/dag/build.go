package dag

import (
	"context"
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mvnresolve/pkg/errors"
	"github.com/matzehuels/mvnresolve/pkg/maven/pom"
)

// DefaultConcurrency bounds how many dependencies [FromDescriptor] loads at once.
const DefaultConcurrency = 8

// Options configures [FromDescriptor].
type Options struct {
	// Test includes test-scoped dependencies.
	Test bool
	// Optional includes dependencies marked optional.
	Optional bool
	// Concurrency bounds parallel dependency loads. Defaults to DefaultConcurrency.
	Concurrency int
	// Logger receives debug output. Defaults to log.Default().
	Logger *log.Logger
}

// FromDescriptor builds the graph of root: its parent chain, its direct
// dependencies resolved through loader, and the parent chain of each
// resolved dependency.
//
// A dependency that fails to resolve becomes a node keyed by its
// coordinate with the error recorded under Meta["error"]. Only
// cancellation fails the whole build.
func FromDescriptor(ctx context.Context, root *pom.Descriptor, loader pom.Loader, opts Options) (*DAG, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	g := New(Metadata{"root": root.ID()})
	addDescriptor(g, root, 0)
	addParentChain(g, root, 0)

	deps := selectDependencies(root, opts)
	resolved := make([]*pom.Descriptor, len(deps))
	failures := make([]error, len(deps))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for i, dep := range deps {
		eg.Go(func() error {
			c, err := dep.Constraint()
			if err != nil {
				failures[i] = err
				return nil
			}
			d, err := loader.LoadCoordinate(egCtx, dep.GroupID, dep.ArtifactID, c, root.Repositories).Wait(egCtx)
			if errors.IsCancelled(err) {
				return err
			}
			resolved[i], failures[i] = d, err
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, dep := range deps {
		meta := Metadata{"scope": scopeOf(dep), "constraint": dep.Version}
		if dep.Optional {
			meta["optional"] = true
		}
		if failures[i] != nil {
			id := dep.Coordinate.String()
			if _, ok := g.Node(id); !ok {
				_ = g.AddNode(Node{ID: id, Row: 1, Meta: Metadata{"error": errors.UserMessage(failures[i])}})
			}
			_ = g.AddEdge(Edge{From: root.ID(), To: id, Kind: EdgeDependency, Meta: meta})
			logger.Debug("dependency not resolved", "dependency", id, "constraint", dep.Version, "err", failures[i])
			continue
		}
		d := resolved[i]
		addDescriptor(g, d, 1)
		_ = g.AddEdge(Edge{From: root.ID(), To: d.ID(), Kind: EdgeDependency, Meta: meta})
		addParentChain(g, d, 1)
	}
	return g, nil
}

// selectDependencies filters root's dependencies by scope and optionality,
// keeping the first declaration of each coordinate.
func selectDependencies(root *pom.Descriptor, opts Options) []pom.Dependency {
	var out []pom.Dependency
	for _, dep := range root.Dependencies {
		if scopeOf(dep) == "test" && !opts.Test {
			continue
		}
		if dep.Optional && !opts.Optional {
			continue
		}
		if slices.ContainsFunc(out, func(o pom.Dependency) bool { return o.Coordinate == dep.Coordinate }) {
			continue
		}
		out = append(out, dep)
	}
	return out
}

func scopeOf(dep pom.Dependency) string {
	if dep.Scope == "" {
		return pom.DefaultScope
	}
	return dep.Scope
}

// addDescriptor adds d at row, or lifts the existing node closer to the root.
func addDescriptor(g *DAG, d *pom.Descriptor, row int) {
	if g.Lift(d.ID(), row) {
		return
	}
	_ = g.AddNode(Node{ID: d.ID(), Row: row, Meta: Metadata{
		"version":   d.Version,
		"packaging": d.ArtifactType(),
		"location":  d.Location,
	}})
}

func addParentChain(g *DAG, d *pom.Descriptor, row int) {
	for p := d.ResolvedParent(); p != nil; d, p = p, p.ResolvedParent() {
		row++
		addDescriptor(g, p, row)
		_ = g.AddEdge(Edge{From: d.ID(), To: p.ID(), Kind: EdgeParent})
	}
}
