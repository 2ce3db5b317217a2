package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnresolve/pkg/dag"
	"github.com/matzehuels/mvnresolve/pkg/errors"
	graphio "github.com/matzehuels/mvnresolve/pkg/io"
	"github.com/matzehuels/mvnresolve/pkg/render/dot"
)

// Output formats for the graph command.
const (
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatJSON = "json"
)

type graphOpts struct {
	output      string
	format      string
	test        bool
	optional    bool
	detailed    bool
	concurrency int
}

func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:   "graph <groupId:artifactId[:version] | pom.xml>",
		Short: "Draw a descriptor's parents and direct dependencies",
		Long: `Resolve a descriptor, its parent chain and each direct dependency, and
write the result as a Graphviz graph or as JSON for the render command.
Dependencies that fail to resolve are drawn in red rather than failing the
command.`,
		Example: `  mvnresolve graph ./pom.xml --format svg -o deps.svg
  mvnresolve graph org.apache.commons:commons-lang3:3.14.0 | dot -Tpng > deps.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatDOT, "output format: dot, svg or json")
	cmd.Flags().BoolVar(&opts.test, "test", false, "include test-scoped dependencies")
	cmd.Flags().BoolVar(&opts.optional, "optional", false, "include optional dependencies")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show packaging and location in node labels")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", dag.DefaultConcurrency, "dependencies resolved in parallel")
	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, arg string, opts graphOpts) error {
	if err := checkFormat(opts.format, true); err != nil {
		return err
	}
	ctx := cmd.Context()
	s, err := c.newSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	prog := newProgress(c.Logger)
	root, err := s.load(ctx, arg, latest)
	if err != nil {
		return err
	}
	g, err := dag.FromDescriptor(ctx, root, s.res, dag.Options{
		Test:        opts.test,
		Optional:    opts.optional,
		Concurrency: opts.concurrency,
		Logger:      c.Logger,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Resolved %d nodes", g.NodeCount()))
	return emitGraph(cmd, g, opts)
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts graphOpts

	cmd := &cobra.Command{
		Use:     "render <graph.json>",
		Short:   "Render a graph saved with graph --format json",
		Example: `  mvnresolve render deps.json --format svg -o deps.svg`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.format, false); err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(errors.ErrCodeNotFound, err, "open graph").At(args[0])
			}
			defer f.Close()
			g, err := graphio.ReadJSON(f)
			if err != nil {
				return err
			}
			return emitGraph(cmd, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatSVG, "output format: dot or svg")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show row and metadata in node labels")
	return cmd
}

func checkFormat(format string, allowJSON bool) error {
	switch {
	case format == formatDOT, format == formatSVG:
		return nil
	case format == formatJSON && allowJSON:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown format %q", format)
}

// emitGraph encodes g in the requested format and writes it to the output
// file or stdout. A summary goes to stderr when writing a file.
func emitGraph(cmd *cobra.Command, g *dag.DAG, opts graphOpts) error {
	data, err := encodeGraph(cmd.Context(), g, opts)
	if err != nil {
		return err
	}
	if err := writeFileOrStdout(cmd.OutOrStdout(), opts.output, data); err != nil {
		return err
	}
	if opts.output == "" {
		return nil
	}

	failed := 0
	for _, n := range g.Nodes() {
		if n.Failed() {
			failed++
		}
	}
	status := cmd.ErrOrStderr()
	root, _ := g.Meta()["root"].(string)
	printSuccess(status, "Graph of %s", root)
	printStats(status, g.NodeCount(), g.EdgeCount(), failed)
	printFile(status, opts.output)
	return nil
}

func encodeGraph(ctx context.Context, g *dag.DAG, opts graphOpts) ([]byte, error) {
	if opts.format == formatJSON {
		var buf bytes.Buffer
		if err := graphio.WriteJSON(g, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	src := dot.ToDOT(g, dot.Options{Detailed: opts.detailed})
	if opts.format == formatSVG {
		return dot.RenderSVG(ctx, src)
	}
	return []byte(src), nil
}
